package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
)

func strPtr(s string) *string { return &s }

func fixedRenderer() *PDFRenderer {
	r := NewPDFRenderer()
	r.now = func() time.Time { return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC) }
	return r
}

func testInput() RenderInput {
	return RenderInput{
		JobID:     "job-1",
		AttemptID: "attempt-1",
		UserID:    "user-1",
		Results: []model.GradeResult{
			{QuestionType: "short_answer", QuestionID: 2, Score: 0.5, Rationale: "Partial."},
			{QuestionType: "multiple_choice", QuestionID: 1, Score: 1, Rationale: "Correct.", Section: strPtr("Mechanics")},
		},
		Overall: model.OverallResult{Score: 0.75, Band: model.BandPass, Notes: "Auto-graded."},
	}
}

func TestPDFRenderer_Render_Magic(t *testing.T) {
	out, err := fixedRenderer().Render(testInput())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
	assert.Contains(t, string(out), "%%EOF")
}

func TestPDFRenderer_Render_Deterministic(t *testing.T) {
	r := fixedRenderer()
	first, err := r.Render(testInput())
	require.NoError(t, err)
	second, err := r.Render(testInput())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPDFRenderer_Render_EmptyResults(t *testing.T) {
	input := testInput()
	input.Results = nil

	out, err := fixedRenderer().Render(input)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestOrderedResults(t *testing.T) {
	results := []model.GradeResult{
		{QuestionType: "short_answer", QuestionID: 3},
		{QuestionType: "essay", QuestionID: 1, Section: strPtr("Writing")},
		{QuestionType: "multiple_choice", QuestionID: 2, Section: strPtr("Mechanics")},
		{QuestionType: "multiple_choice", QuestionID: 1, Section: strPtr("Mechanics")},
	}

	ordered := orderedResults(results)

	// Sections sort alphabetically with nil last; ties break on question
	// type then id.
	require.Len(t, ordered, 4)
	assert.Equal(t, 1, ordered[0].QuestionID)
	assert.Equal(t, "multiple_choice", ordered[0].QuestionType)
	assert.Equal(t, 2, ordered[1].QuestionID)
	assert.Equal(t, "Writing", *ordered[2].Section)
	assert.Nil(t, ordered[3].Section)

	// Input order is untouched.
	assert.Equal(t, 3, results[0].QuestionID)
}
