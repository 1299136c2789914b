// Package servicetest contains hand-written test doubles for the grading
// pipeline ports. These are lightweight and suitable for unit tests without
// codegen.
package servicetest

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/avschaefer/cloudhire-ai-api/internal/data"
	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
	"github.com/avschaefer/cloudhire-ai-api/internal/notify/webhook"
	"github.com/avschaefer/cloudhire-ai-api/internal/service"
)

// Ensure compile-time conformance to the orchestrator ports.
var (
	_ service.JobStore      = (*JobStoreStub)(nil)
	_ service.AnswerSource  = (*AnswerSourceStub)(nil)
	_ service.ResultStore   = (*ResultStoreStub)(nil)
	_ service.ArtifactStore = (*ArtifactStoreStub)(nil)
	_ service.BlobStore     = (*BlobStoreStub)(nil)
	_ service.AnswerGrader  = (*GraderStub)(nil)
	_ service.Notifier      = (*NotifierStub)(nil)
)

var errNotImplemented = errors.New("servicetest: method not implemented")

// JobStoreStub is a reusable implementation of service.JobStore for tests.
type JobStoreStub struct {
	UpsertFn   func(ctx context.Context, params *model.UpsertJobParams) (string, error)
	SetFn      func(ctx context.Context, jobID string, params data.SetStatusParams) error
	GetByKeyFn func(ctx context.Context, attemptID, purpose string) (*model.GradeJob, error)
	GetByIDFn  func(ctx context.Context, jobID string) (*model.GradeJob, error)

	UpsertCalls []model.UpsertJobParams
	SetCalls    []data.SetStatusParams
	SetJobIDs   []string
}

// UpsertForProcessing records the invocation and delegates to UpsertFn when provided.
func (s *JobStoreStub) UpsertForProcessing(
	ctx context.Context,
	params *model.UpsertJobParams,
) (string, error) {
	s.UpsertCalls = append(s.UpsertCalls, *params)
	if s.UpsertFn != nil {
		return s.UpsertFn(ctx, params)
	}
	return params.JobID, nil
}

// SetStatus records the invocation and delegates to SetFn when provided.
func (s *JobStoreStub) SetStatus(ctx context.Context, jobID string, params data.SetStatusParams) error {
	s.SetCalls = append(s.SetCalls, params)
	s.SetJobIDs = append(s.SetJobIDs, jobID)
	if s.SetFn != nil {
		return s.SetFn(ctx, jobID, params)
	}
	return nil
}

// GetByKey delegates to GetByKeyFn when provided.
func (s *JobStoreStub) GetByKey(ctx context.Context, attemptID, purpose string) (*model.GradeJob, error) {
	if s.GetByKeyFn != nil {
		return s.GetByKeyFn(ctx, attemptID, purpose)
	}
	return nil, errNotImplemented
}

// GetByID delegates to GetByIDFn when provided.
func (s *JobStoreStub) GetByID(ctx context.Context, jobID string) (*model.GradeJob, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, jobID)
	}
	return nil, errNotImplemented
}

// LastStatus returns the most recently recorded status update, or nil.
func (s *JobStoreStub) LastStatus() *data.SetStatusParams {
	if len(s.SetCalls) == 0 {
		return nil
	}
	return &s.SetCalls[len(s.SetCalls)-1]
}

// AnswerSourceStub is a reusable implementation of service.AnswerSource for tests.
type AnswerSourceStub struct {
	FetchFn func(ctx context.Context, userID string) ([]model.Answer, error)
	Calls   []string
}

// LatestForUser records the invocation and delegates to FetchFn when provided.
func (s *AnswerSourceStub) LatestForUser(ctx context.Context, userID string) ([]model.Answer, error) {
	s.Calls = append(s.Calls, userID)
	if s.FetchFn != nil {
		return s.FetchFn(ctx, userID)
	}
	return nil, nil
}

// ResultStoreStub captures stored results keyed by job id.
type ResultStoreStub struct {
	StoreFn   func(ctx context.Context, jobID string, results []model.GradeResult, overall model.OverallResult) error
	ResultsFn func(ctx context.Context, jobID string) ([]model.GradeResult, error)
	OverallFn func(ctx context.Context, jobID string) (*model.OverallResult, error)

	StoredJobIDs  []string
	StoredResults [][]model.GradeResult
	StoredOverall []model.OverallResult
}

// Store records the invocation and delegates to StoreFn when provided.
func (s *ResultStoreStub) Store(
	ctx context.Context,
	jobID string,
	results []model.GradeResult,
	overall model.OverallResult,
) error {
	s.StoredJobIDs = append(s.StoredJobIDs, jobID)
	s.StoredResults = append(s.StoredResults, results)
	s.StoredOverall = append(s.StoredOverall, overall)
	if s.StoreFn != nil {
		return s.StoreFn(ctx, jobID, results, overall)
	}
	return nil
}

// ResultsByJob delegates to ResultsFn when provided.
func (s *ResultStoreStub) ResultsByJob(ctx context.Context, jobID string) ([]model.GradeResult, error) {
	if s.ResultsFn != nil {
		return s.ResultsFn(ctx, jobID)
	}
	return nil, errNotImplemented
}

// OverallByJob delegates to OverallFn when provided.
func (s *ResultStoreStub) OverallByJob(ctx context.Context, jobID string) (*model.OverallResult, error) {
	if s.OverallFn != nil {
		return s.OverallFn(ctx, jobID)
	}
	return nil, errNotImplemented
}

// ArtifactStoreStub captures artifact metadata writes.
type ArtifactStoreStub struct {
	CreateFn func(ctx context.Context, params data.CreateArtifactParams) (*model.ReportArtifact, error)
	ByJobFn  func(ctx context.Context, jobID, kind string) (*model.ReportArtifact, error)

	CreateCalls []data.CreateArtifactParams
}

// Create records the invocation and delegates to CreateFn when provided.
func (s *ArtifactStoreStub) Create(
	ctx context.Context,
	params data.CreateArtifactParams,
) (*model.ReportArtifact, error) {
	s.CreateCalls = append(s.CreateCalls, params)
	if s.CreateFn != nil {
		return s.CreateFn(ctx, params)
	}
	return &model.ReportArtifact{
		ID:          "artifact-1",
		JobID:       params.JobID,
		Kind:        params.Kind,
		StoragePath: params.StoragePath,
		SizeBytes:   params.SizeBytes,
		SHA256:      params.SHA256,
	}, nil
}

// ByJob delegates to ByJobFn when provided.
func (s *ArtifactStoreStub) ByJob(ctx context.Context, jobID, kind string) (*model.ReportArtifact, error) {
	if s.ByJobFn != nil {
		return s.ByJobFn(ctx, jobID, kind)
	}
	return nil, errNotImplemented
}

// BlobStoreStub captures report bytes and returns a deterministic path.
type BlobStoreStub struct {
	SaveFn func(ctx context.Context, name string, contents []byte) (string, error)

	SavedNames    []string
	SavedContents [][]byte
}

// Save records the invocation and delegates to SaveFn when provided.
func (s *BlobStoreStub) Save(ctx context.Context, name string, contents []byte) (string, error) {
	s.SavedNames = append(s.SavedNames, name)
	s.SavedContents = append(s.SavedContents, contents)
	if s.SaveFn != nil {
		return s.SaveFn(ctx, name, contents)
	}
	return "2026/01/" + name, nil
}

// GraderStub returns a scripted grade output.
type GraderStub struct {
	GradeFn func(ctx context.Context, answers []model.Answer, rubric json.RawMessage) *service.GradeOutput
	Calls   [][]model.Answer
}

// Grade records the invocation and delegates to GradeFn when provided.
func (s *GraderStub) Grade(
	ctx context.Context,
	answers []model.Answer,
	rubric json.RawMessage,
) *service.GradeOutput {
	s.Calls = append(s.Calls, answers)
	if s.GradeFn != nil {
		return s.GradeFn(ctx, answers, rubric)
	}

	results := make([]model.GradeResult, len(answers))
	for i, a := range answers {
		results[i] = model.GradeResult{
			QuestionType: a.QuestionType,
			QuestionID:   a.QuestionID,
			Score:        1,
			Rationale:    "Correct.",
		}
	}
	return &service.GradeOutput{
		PerQuestion: results,
		Overall: model.OverallResult{
			Score: model.MeanScore(results),
			Band:  model.BandForScore(model.MeanScore(results)),
			Notes: "Auto-graded (test).",
		},
	}
}

// NotifierStub records webhook deliveries.
type NotifierStub struct {
	SendFn func(ctx context.Context, url string, payload *webhook.Payload) error

	URLs     []string
	Payloads []*webhook.Payload
}

// Send records the invocation and delegates to SendFn when provided.
func (s *NotifierStub) Send(ctx context.Context, url string, payload *webhook.Payload) error {
	s.URLs = append(s.URLs, url)
	s.Payloads = append(s.Payloads, payload)
	if s.SendFn != nil {
		return s.SendFn(ctx, url, payload)
	}
	return nil
}
