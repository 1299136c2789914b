package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
	"github.com/avschaefer/cloudhire-ai-api/internal/mocks/grading"
	"github.com/avschaefer/cloudhire-ai-api/internal/service"
)

func testAnswers(n int) []model.Answer {
	answers := make([]model.Answer, n)
	for i := range answers {
		answers[i] = model.Answer{
			QuestionType: "multiple_choice",
			QuestionID:   i + 1,
			AnswerText:   "answer text",
		}
	}
	return answers
}

func testPricing() service.Pricing {
	return service.Pricing{InputPerMillion: 0.15, OutputPerMillion: 0.60}
}

func TestGrader_Grade_ResultPerAnswer(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := grading.NewMockOracle(ctrl)
	oracle.EXPECT().Generate(gomock.Any(), gomock.Any()).
		Return(&service.OracleReply{Text: `{"score":0.8,"rationale":"Good"}`}, nil).
		Times(5)

	grader := service.NewGrader(service.GraderOptions{Oracle: oracle, Pricing: testPricing()})
	out := grader.Grade(context.Background(), testAnswers(5), nil)

	require.Len(t, out.PerQuestion, 5)
	for _, res := range out.PerQuestion {
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 1.0)
		assert.Equal(t, "Good", res.Rationale)
	}
	assert.InDelta(t, 0.8, out.Overall.Score, 1e-9)
	assert.Equal(t, model.BandPass, out.Overall.Band)
	assert.Zero(t, out.FailedQuestions)
	assert.False(t, out.LocalFallback)
}

func TestGrader_Grade_PreservesAnswerOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := grading.NewMockOracle(ctrl)
	oracle.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (*service.OracleReply, error) {
			// Score encodes the question id so order can be checked.
			switch {
			case strings.Contains(prompt, "multiple_choice:1"):
				return &service.OracleReply{Text: `{"score":0.1,"rationale":"one"}`}, nil
			case strings.Contains(prompt, "multiple_choice:2"):
				return &service.OracleReply{Text: `{"score":0.2,"rationale":"two"}`}, nil
			default:
				return &service.OracleReply{Text: `{"score":0.3,"rationale":"three"}`}, nil
			}
		}).Times(3)

	grader := service.NewGrader(service.GraderOptions{Oracle: oracle, Pricing: testPricing()})
	out := grader.Grade(context.Background(), testAnswers(3), nil)

	require.Len(t, out.PerQuestion, 3)
	assert.Equal(t, 1, out.PerQuestion[0].QuestionID)
	assert.InDelta(t, 0.1, out.PerQuestion[0].Score, 1e-9)
	assert.Equal(t, 2, out.PerQuestion[1].QuestionID)
	assert.InDelta(t, 0.2, out.PerQuestion[1].Score, 1e-9)
	assert.Equal(t, 3, out.PerQuestion[2].QuestionID)
	assert.InDelta(t, 0.3, out.PerQuestion[2].Score, 1e-9)
}

func TestGrader_Grade_FailureIsolation(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := grading.NewMockOracle(ctrl)
	oracle.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (*service.OracleReply, error) {
			if strings.Contains(prompt, "multiple_choice:2") {
				return nil, errors.New("oracle exploded")
			}
			return &service.OracleReply{Text: `{"score":1.0,"rationale":"Good"}`}, nil
		}).Times(3)

	grader := service.NewGrader(service.GraderOptions{Oracle: oracle, Pricing: testPricing()})
	out := grader.Grade(context.Background(), testAnswers(3), nil)

	require.Len(t, out.PerQuestion, 3)
	failed := out.PerQuestion[1]
	assert.InDelta(t, 0.5, failed.Score, 1e-9)
	assert.Contains(t, failed.Rationale, "Grading failed:")
	assert.Contains(t, failed.Rationale, "oracle exploded")
	assert.Equal(t, []string{model.TagAPIError}, failed.Tags)

	assert.Equal(t, 1, out.FailedQuestions)
	assert.Contains(t, out.Overall.Notes, "1 questions failed")
}

func TestGrader_Grade_CostAccumulation(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := grading.NewMockOracle(ctrl)
	oracle.EXPECT().Generate(gomock.Any(), gomock.Any()).
		Return(&service.OracleReply{
			Text:         `{"score":0.9,"rationale":"Good"}`,
			InputTokens:  500,
			OutputTokens: 250,
		}, nil).Times(2)

	grader := service.NewGrader(service.GraderOptions{Oracle: oracle, Pricing: testPricing()})
	out := grader.Grade(context.Background(), testAnswers(2), nil)

	assert.Equal(t, 1000, out.Cost.InputTokens)
	assert.Equal(t, 500, out.Cost.OutputTokens)
	assert.InDelta(t, 0.00045, out.Cost.USD, 1e-9)
}

func TestGrader_Grade_NilOracleFallsBackLocally(t *testing.T) {
	grader := service.NewGrader(service.GraderOptions{Pricing: testPricing()})
	out := grader.Grade(context.Background(), testAnswers(4), nil)

	require.Len(t, out.PerQuestion, 4)
	for _, res := range out.PerQuestion {
		assert.InDelta(t, 0.8, res.Score, 1e-9)
		assert.Equal(t, []string{model.TagLocalFallback}, res.Tags)
	}
	assert.True(t, out.LocalFallback)
	assert.Zero(t, out.Cost.InputTokens)
	assert.Zero(t, out.Cost.USD)
}

func TestGrader_Grade_EmptyAnswers(t *testing.T) {
	ctrl := gomock.NewController(t)
	oracle := grading.NewMockOracle(ctrl)

	grader := service.NewGrader(service.GraderOptions{Oracle: oracle, Pricing: testPricing()})
	out := grader.Grade(context.Background(), nil, nil)

	assert.Empty(t, out.PerQuestion)
	assert.Zero(t, out.Overall.Score)
	assert.Equal(t, model.BandFail, out.Overall.Band)
}
