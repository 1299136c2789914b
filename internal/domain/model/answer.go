package model

import (
	"strconv"
	"strings"
	"time"
)

// Answer is a read-only snapshot of the latest response a user gave to one
// question, resolved from raw user_responses rows.
type Answer struct {
	QuestionType string `json:"question_type"`
	QuestionID   int    `json:"question_id"`
	AnswerText   string `json:"answer_text"`
}

// UserResponse is a raw row from the user_responses table. Several rows may
// exist per question key; the newest one wins.
type UserResponse struct {
	QuestionType      string
	QuestionID        int
	ResponseText      *string
	ResponseNumerical *float64
	ResponseUnits     *string
	UpdatedAt         time.Time
}

// AnswerText renders the effective answer text for a raw response: verbatim
// text when present, otherwise the numeric response with its unit, otherwise
// an empty string.
func (r *UserResponse) AnswerText() string {
	if r.ResponseText != nil && *r.ResponseText != "" {
		return *r.ResponseText
	}
	if r.ResponseNumerical != nil {
		text := strconv.FormatFloat(*r.ResponseNumerical, 'f', -1, 64)
		if r.ResponseUnits != nil && strings.TrimSpace(*r.ResponseUnits) != "" {
			text += " " + *r.ResponseUnits
		}
		return text
	}
	return ""
}

// DedupLatest keeps exactly one answer per (question_type, question_id) key.
// Rows must already be ordered newest first; ties resolve first-seen-wins.
func DedupLatest(rows []UserResponse) []Answer {
	type key struct {
		qtype string
		qid   int
	}

	seen := make(map[key]struct{}, len(rows))
	answers := make([]Answer, 0, len(rows))
	for i := range rows {
		k := key{qtype: rows[i].QuestionType, qid: rows[i].QuestionID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		answers = append(answers, Answer{
			QuestionType: rows[i].QuestionType,
			QuestionID:   rows[i].QuestionID,
			AnswerText:   rows[i].AnswerText(),
		})
	}
	return answers
}
