// Package report renders grading results into a downloadable document.
package report

import (
	"sort"

	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
)

// Renderer produces report bytes for a completed grading run.
type Renderer interface {
	Render(input RenderInput) ([]byte, error)
}

// RenderInput carries everything a report needs. Results are reordered during
// rendering and the input slice is not modified.
type RenderInput struct {
	JobID     string
	AttemptID string
	UserID    string
	Results   []model.GradeResult
	Overall   model.OverallResult
}

// orderedResults returns results sorted by section (nil last), question type,
// then question id so reports are stable across runs.
func orderedResults(results []model.GradeResult) []model.GradeResult {
	out := make([]model.GradeResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Section, out[j].Section
		switch {
		case si == nil && sj != nil:
			return false
		case si != nil && sj == nil:
			return true
		case si != nil && sj != nil && *si != *sj:
			return *si < *sj
		}
		if out[i].QuestionType != out[j].QuestionType {
			return out[i].QuestionType < out[j].QuestionType
		}
		return out[i].QuestionID < out[j].QuestionID
	})
	return out
}
