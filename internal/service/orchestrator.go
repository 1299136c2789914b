package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/avschaefer/cloudhire-ai-api/internal/data"
	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
	apperrors "github.com/avschaefer/cloudhire-ai-api/internal/errors"
	"github.com/avschaefer/cloudhire-ai-api/internal/notify/webhook"
	"github.com/avschaefer/cloudhire-ai-api/internal/report"
)

// JobStore owns the grade job lifecycle rows.
type JobStore interface {
	UpsertForProcessing(ctx context.Context, params *model.UpsertJobParams) (string, error)
	SetStatus(ctx context.Context, jobID string, params data.SetStatusParams) error
	GetByKey(ctx context.Context, attemptID, purpose string) (*model.GradeJob, error)
	GetByID(ctx context.Context, jobID string) (*model.GradeJob, error)
}

// AnswerSource reads the latest answer snapshot for a user.
type AnswerSource interface {
	LatestForUser(ctx context.Context, userID string) ([]model.Answer, error)
}

// ResultStore persists and reads back per-question and overall results.
type ResultStore interface {
	Store(ctx context.Context, jobID string, results []model.GradeResult, overall model.OverallResult) error
	ResultsByJob(ctx context.Context, jobID string) ([]model.GradeResult, error)
	OverallByJob(ctx context.Context, jobID string) (*model.OverallResult, error)
}

// ArtifactStore records and reads report artifact metadata.
type ArtifactStore interface {
	Create(ctx context.Context, params data.CreateArtifactParams) (*model.ReportArtifact, error)
	ByJob(ctx context.Context, jobID, kind string) (*model.ReportArtifact, error)
}

// BlobStore writes report bytes and returns the storage path.
type BlobStore interface {
	Save(ctx context.Context, name string, contents []byte) (string, error)
}

// AnswerGrader grades an answer batch. Implementations never fail outright.
type AnswerGrader interface {
	Grade(ctx context.Context, answers []model.Answer, rubric json.RawMessage) *GradeOutput
}

// Notifier delivers the signed completion webhook.
type Notifier interface {
	Send(ctx context.Context, url string, payload *webhook.Payload) error
}

// TaskOutcome is what a processed task reports back to its caller.
type TaskOutcome struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	PDFPath string `json:"pdf_path,omitempty"`
}

const (
	// OutcomeOK means the job ran to completion in this invocation.
	OutcomeOK = "ok"
	// OutcomeAlreadyCompleted means a prior invocation already completed the
	// job and nothing was re-graded.
	OutcomeAlreadyCompleted = "already_completed"
)

// maxErrorMessageLen bounds stored failure messages, in runes.
const maxErrorMessageLen = 1000

// OrchestratorOptions groups dependencies for Orchestrator.
type OrchestratorOptions struct {
	Jobs      JobStore
	Answers   AnswerSource
	Results   ResultStore
	Artifacts ArtifactStore
	Blobs     BlobStore
	Renderer  report.Renderer
	Grader    AnswerGrader
	Notifier  Notifier
	Logger    *slog.Logger
}

// Orchestrator sequences one grading run: register the job, fetch answers,
// grade, persist, render, mark terminal, notify. It exclusively owns job
// lifecycle transitions.
type Orchestrator struct {
	jobs      JobStore
	answers   AnswerSource
	results   ResultStore
	artifacts ArtifactStore
	blobs     BlobStore
	renderer  report.Renderer
	grader    AnswerGrader
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "orchestrator")
	}
	return &Orchestrator{
		jobs:      opts.Jobs,
		answers:   opts.Answers,
		results:   opts.Results,
		artifacts: opts.Artifacts,
		blobs:     opts.Blobs,
		renderer:  opts.Renderer,
		grader:    opts.Grader,
		notifier:  opts.Notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Process runs one grading task end to end. Duplicate deliveries of an
// already-completed task resend only the webhook; everything after the job is
// registered marks the job failed before the error propagates, so the
// dispatcher's redelivery policy governs retries.
func (o *Orchestrator) Process(ctx context.Context, task *model.GradeTask) (*TaskOutcome, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	effectiveID, err := o.jobs.UpsertForProcessing(ctx, &model.UpsertJobParams{
		JobID:       task.JobID,
		AttemptID:   task.AttemptID,
		UserID:      task.UserID,
		Purpose:     task.EffectivePurpose(),
		TriggeredBy: task.TriggeredBy(),
	})
	if apperrors.IsConflict(err) {
		return o.resendCompleted(ctx, task)
	}
	if err != nil {
		return nil, err
	}

	log := o.logger
	if log != nil {
		log = log.With("job_id", effectiveID, "attempt_id", task.AttemptID, "user_id", task.UserID)
		log.InfoContext(ctx, "grading job started", "purpose", task.EffectivePurpose())
	}

	answers, err := o.answers.LatestForUser(ctx, task.UserID)
	if err != nil {
		return nil, o.failJob(ctx, effectiveID, err)
	}
	if len(answers) == 0 {
		err := apperrors.Validationf("no answers found for user %s", task.UserID)
		return nil, o.failJob(ctx, effectiveID, err)
	}

	out := o.grader.Grade(ctx, answers, task.Rubric)
	for i := range out.PerQuestion {
		res := &out.PerQuestion[i]
		res.Section = task.SectionMap.Lookup(res.QuestionType, res.QuestionID)
	}

	if err := o.results.Store(ctx, effectiveID, out.PerQuestion, out.Overall); err != nil {
		return nil, o.failJob(ctx, effectiveID, err)
	}

	pdfPath, err := o.storeReport(ctx, effectiveID, task, out)
	if err != nil {
		return nil, o.failJob(ctx, effectiveID, err)
	}

	finishedAt := o.now()
	if err := o.jobs.SetStatus(ctx, effectiveID, data.SetStatusParams{
		Status:           model.JobStatusCompleted,
		FinishedAt:       &finishedAt,
		CostInputTokens:  &out.Cost.InputTokens,
		CostOutputTokens: &out.Cost.OutputTokens,
		CostUSD:          &out.Cost.USD,
	}); err != nil {
		return nil, o.failJob(ctx, effectiveID, err)
	}

	if log != nil {
		log.InfoContext(ctx, "grading job completed",
			"questions", len(out.PerQuestion),
			"failed_questions", out.FailedQuestions,
			"band", out.Overall.Band,
			"cost_usd", out.Cost.USD,
		)
	}

	// Job completion survives a failed callback. The error still propagates
	// so the dispatcher retries the task; the conflict branch above turns
	// that redelivery into a webhook-only resend.
	if url := task.CallbackURL(); url != "" {
		if err := o.notify(ctx, url, effectiveID, task, out.PerQuestion, out.Overall, pdfPath); err != nil {
			return nil, err
		}
	}

	return &TaskOutcome{JobID: effectiveID, Status: OutcomeOK, PDFPath: pdfPath}, nil
}

// resendCompleted handles a delivery for an (attempt_id, purpose) pair that
// already completed. With no callback the duplicate is acknowledged outright;
// with one, the persisted results are loaded and the webhook is sent again.
func (o *Orchestrator) resendCompleted(ctx context.Context, task *model.GradeTask) (*TaskOutcome, error) {
	job, err := o.jobs.GetByKey(ctx, task.AttemptID, task.EffectivePurpose())
	if err != nil {
		return nil, err
	}

	var pdfPath string
	if artifact, err := o.artifacts.ByJob(ctx, job.ID, model.ArtifactKindReport); err == nil {
		pdfPath = artifact.StoragePath
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	outcome := &TaskOutcome{JobID: job.ID, Status: OutcomeAlreadyCompleted, PDFPath: pdfPath}

	url := task.CallbackURL()
	if url == "" {
		if o.logger != nil {
			o.logger.InfoContext(ctx, "duplicate delivery for completed job", "job_id", job.ID)
		}
		return outcome, nil
	}

	results, err := o.results.ResultsByJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	overall, err := o.results.OverallByJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	if o.logger != nil {
		o.logger.InfoContext(ctx, "resending webhook for completed job", "job_id", job.ID)
	}
	if err := o.notify(ctx, url, job.ID, task, results, *overall, pdfPath); err != nil {
		return nil, err
	}
	return outcome, nil
}

// storeReport renders the report, writes the bytes, and records the artifact.
func (o *Orchestrator) storeReport(ctx context.Context, jobID string, task *model.GradeTask, out *GradeOutput) (string, error) {
	contents, err := o.renderer.Render(report.RenderInput{
		JobID:     jobID,
		AttemptID: task.AttemptID,
		UserID:    task.UserID,
		Results:   out.PerQuestion,
		Overall:   out.Overall,
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "render report")
	}

	path, err := o.blobs.Save(ctx, jobID+".pdf", contents)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "upload report")
	}

	sum := sha256.Sum256(contents)
	if _, err := o.artifacts.Create(ctx, data.CreateArtifactParams{
		JobID:       jobID,
		Kind:        model.ArtifactKindReport,
		StoragePath: path,
		SizeBytes:   int64(len(contents)),
		SHA256:      hex.EncodeToString(sum[:]),
	}); err != nil {
		return "", err
	}
	return path, nil
}

func (o *Orchestrator) notify(
	ctx context.Context,
	url, jobID string,
	task *model.GradeTask,
	results []model.GradeResult,
	overall model.OverallResult,
	pdfPath string,
) error {
	payload := &webhook.Payload{
		JobID:     jobID,
		AttemptID: task.AttemptID,
		UserID:    task.UserID,
		Status:    "succeeded",
		Grades:    results,
		Overall:   overall,
		Artifacts: webhook.Artifacts{PDFPath: pdfPath},
	}
	if err := o.notifier.Send(ctx, url, payload); err != nil {
		if o.logger != nil {
			o.logger.ErrorContext(ctx, "webhook delivery failed", "job_id", jobID, "error", err)
		}
		return err
	}
	return nil
}

// failJob records a terminal failure on the job and returns the original
// error. A failing status write is logged but never masks the cause.
func (o *Orchestrator) failJob(ctx context.Context, jobID string, cause error) error {
	finishedAt := o.now()
	message := cause.Error()
	if runes := []rune(message); len(runes) > maxErrorMessageLen {
		message = string(runes[:maxErrorMessageLen])
	}
	if err := o.jobs.SetStatus(ctx, jobID, data.SetStatusParams{
		Status:       model.JobStatusFailed,
		FinishedAt:   &finishedAt,
		ErrorMessage: &message,
	}); err != nil && o.logger != nil {
		o.logger.ErrorContext(ctx, "failed to record job failure", "job_id", jobID, "error", err)
	}
	if o.logger != nil {
		o.logger.ErrorContext(ctx, "grading job failed", "job_id", jobID, "error", cause)
	}
	return cause
}
