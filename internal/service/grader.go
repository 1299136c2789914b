// Package service implements the grading pipeline: the oracle-backed grader
// and the job orchestrator that sequences fetching, grading, persistence,
// rendering, and notification.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
)

// OracleReply is the raw outcome of one oracle call.
type OracleReply struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Oracle is the external AI grading service invoked once per answer.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (*OracleReply, error)
}

// Pricing is the per-million-token USD price table for the configured model.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

const (
	// apiErrorFallbackScore is the neutral score assigned when a single
	// oracle call fails.
	apiErrorFallbackScore = 0.5
	// localFallbackScore is the placeholder score assigned by the local
	// grader when no oracle is available at all.
	localFallbackScore = 0.8

	localFallbackRationale = "Meets most criteria."

	defaultGradeConcurrency = 4
)

const gradingPromptTemplate = `You are a strict grader. Rubric (JSON): %s
Question identifier: %s:%d
Student answer:
%s

Return a JSON object with:
- "score": a float from 0 to 1
- "rationale": a short sentence explaining the score`

// GraderOptions groups dependencies for Grader.
type GraderOptions struct {
	Oracle        Oracle  // Optional: nil degrades the whole batch to local grading
	Pricing       Pricing // Required: USD price table for cost estimates
	MaxConcurrent int     // Optional: grading fan-out bound, defaults to 4
	Logger        *slog.Logger
}

// Grader grades answer batches against a rubric. A Grade call never fails:
// per-answer oracle errors substitute a neutral fallback score, and a missing
// oracle degrades the whole batch to the local placeholder grader.
type Grader struct {
	oracle        Oracle
	pricing       Pricing
	maxConcurrent int
	logger        *slog.Logger
}

// NewGrader constructs a Grader.
func NewGrader(opts GraderOptions) *Grader {
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = defaultGradeConcurrency
	}

	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "grader")
	}

	return &Grader{
		oracle:        opts.Oracle,
		pricing:       opts.Pricing,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// GradeOutput bundles everything one grading pass produces.
type GradeOutput struct {
	PerQuestion []model.GradeResult
	Overall     model.OverallResult
	Cost        model.CostRecord
	// FailedQuestions counts answers whose oracle call failed.
	FailedQuestions int
	// LocalFallback is true when the whole batch was graded locally.
	LocalFallback bool
}

// Grade grades every answer and aggregates the overall result. The returned
// slice always has exactly len(answers) entries, in answer order, each with a
// score in [0, 1].
func (g *Grader) Grade(ctx context.Context, answers []model.Answer, rubric json.RawMessage) *GradeOutput {
	if g.oracle == nil {
		return g.gradeLocally(ctx, answers)
	}

	results := make([]model.GradeResult, len(answers))
	costs := make([]model.CostRecord, len(answers))
	failures := make([]bool, len(answers))

	rubricJSON := normalizeRubric(rubric)

	var eg errgroup.Group
	eg.SetLimit(g.maxConcurrent)
	for i := range answers {
		eg.Go(func() error {
			results[i], costs[i], failures[i] = g.gradeOne(ctx, &answers[i], rubricJSON)
			return nil
		})
	}
	// Workers report per-answer failures through the failures slice, never as
	// errors, so the batch always runs to completion.
	_ = eg.Wait()

	out := &GradeOutput{PerQuestion: results}
	for i := range costs {
		out.Cost.Add(costs[i])
		if failures[i] {
			out.FailedQuestions++
		}
	}

	overallScore := model.MeanScore(results)
	out.Overall = model.OverallResult{
		Score: overallScore,
		Band:  model.BandForScore(overallScore),
		Notes: gradeNotes("Auto-graded (gemini).", out.FailedQuestions),
	}

	if g.logger != nil {
		g.logger.InfoContext(ctx, "batch graded",
			"answers", len(answers),
			"failed_questions", out.FailedQuestions,
			"overall_score", overallScore,
			"input_tokens", out.Cost.InputTokens,
			"output_tokens", out.Cost.OutputTokens,
			"usd", out.Cost.USD,
		)
	}

	return out
}

func (g *Grader) gradeOne(
	ctx context.Context,
	answer *model.Answer,
	rubricJSON string,
) (model.GradeResult, model.CostRecord, bool) {
	result := model.GradeResult{
		QuestionType: answer.QuestionType,
		QuestionID:   answer.QuestionID,
		Tags:         []string{},
	}

	prompt := fmt.Sprintf(gradingPromptTemplate, rubricJSON, answer.QuestionType, answer.QuestionID, answer.AnswerText)

	reply, err := g.oracle.Generate(ctx, prompt)
	if err != nil {
		if g.logger != nil {
			g.logger.WarnContext(ctx, "oracle call failed",
				"question_type", answer.QuestionType,
				"question_id", answer.QuestionID,
				"error", err,
			)
		}
		result.Score = apiErrorFallbackScore
		result.Rationale = truncateRationale("Grading failed: " + err.Error())
		result.Tags = []string{model.TagAPIError}
		return result, model.CostRecord{}, true
	}

	parsed := parseOracleReply(reply.Text)
	result.Score = parsed.Score
	result.Rationale = parsed.Rationale

	cost := model.CostForUsage(
		reply.InputTokens,
		reply.OutputTokens,
		g.pricing.InputPerMillion,
		g.pricing.OutputPerMillion,
	)
	return result, cost, false
}

// gradeLocally assigns the fixed placeholder score to every answer. Used when
// the oracle client could not be constructed at all.
func (g *Grader) gradeLocally(ctx context.Context, answers []model.Answer) *GradeOutput {
	results := make([]model.GradeResult, len(answers))
	for i := range answers {
		results[i] = model.GradeResult{
			QuestionType: answers[i].QuestionType,
			QuestionID:   answers[i].QuestionID,
			Score:        localFallbackScore,
			Rationale:    localFallbackRationale,
			Tags:         []string{model.TagLocalFallback},
		}
	}

	overallScore := model.MeanScore(results)
	out := &GradeOutput{
		PerQuestion: results,
		Overall: model.OverallResult{
			Score: overallScore,
			Band:  model.BandForScore(overallScore),
			Notes: gradeNotes("Auto-graded (local fallback).", 0),
		},
		LocalFallback: true,
	}

	if g.logger != nil {
		g.logger.InfoContext(ctx, "batch graded locally", "answers", len(answers))
	}
	return out
}

func gradeNotes(base string, failedQuestions int) string {
	if failedQuestions > 0 {
		return fmt.Sprintf("%s %d questions failed API grading; neutral fallback scores were assigned.", base, failedQuestions)
	}
	return base
}

func normalizeRubric(rubric json.RawMessage) string {
	if len(rubric) == 0 {
		return "{}"
	}
	return string(rubric)
}
