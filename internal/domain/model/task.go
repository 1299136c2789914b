package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/avschaefer/cloudhire-ai-api/internal/errors"
)

// SectionMap maps question_type -> question_id (as string) -> section label,
// as delivered in the task payload.
type SectionMap map[string]map[string]string

// Lookup returns the section label for a question, or nil when the map has no
// entry. Question ids appear as strings in JSON, but integer-typed keys that
// survived upstream serialisation quirks are tolerated via strconv.
func (m SectionMap) Lookup(questionType string, questionID int) *string {
	if m == nil {
		return nil
	}
	byID, ok := m[questionType]
	if !ok {
		return nil
	}
	label, ok := byID[strconv.Itoa(questionID)]
	if !ok || label == "" {
		return nil
	}
	return &label
}

// Callback describes an optional webhook target for job completion.
type Callback struct {
	URL string `json:"url"`
}

// TaskMetadata carries optional free-form metadata attached to a task.
type TaskMetadata struct {
	TriggeredBy *string `json:"triggered_by,omitempty"`
}

// GradeTask is the inbound task payload delivered (at least once) by the
// dispatcher. Optional nested objects stay pointers so absence is
// distinguishable from an empty value.
type GradeTask struct {
	JobID      string          `json:"job_id"`
	AttemptID  string          `json:"attempt_id"`
	UserID     string          `json:"user_id"`
	Purpose    string          `json:"purpose,omitempty"`
	Rubric     json.RawMessage `json:"rubric,omitempty"`
	SectionMap SectionMap      `json:"section_map,omitempty"`
	Callback   *Callback       `json:"callback,omitempty"`
	Metadata   *TaskMetadata   `json:"metadata,omitempty"`

	// Attempt counts dispatcher deliveries of this envelope. Managed by the
	// dispatch runner, not by submitters.
	Attempt int `json:"attempt,omitempty"`
}

// Validate checks the required task identity fields and returns a validation
// error naming the first missing one.
func (t *GradeTask) Validate() error {
	for _, f := range []struct {
		name  string
		value string
	}{
		{"job_id", t.JobID},
		{"attempt_id", t.AttemptID},
		{"user_id", t.UserID},
	} {
		if strings.TrimSpace(f.value) == "" {
			return errors.ValidationField(f.name, "missing key: "+f.name)
		}
	}
	return nil
}

// EffectivePurpose returns the task purpose, defaulted when absent.
func (t *GradeTask) EffectivePurpose() string {
	p := strings.TrimSpace(t.Purpose)
	if p == "" {
		return DefaultPurpose
	}
	return p
}

// TriggeredBy extracts the optional triggered_by marker from task metadata.
func (t *GradeTask) TriggeredBy() *string {
	if t.Metadata == nil {
		return nil
	}
	return t.Metadata.TriggeredBy
}

// CallbackURL returns the callback URL, or empty when no callback was supplied.
func (t *GradeTask) CallbackURL() string {
	if t.Callback == nil {
		return ""
	}
	return strings.TrimSpace(t.Callback.URL)
}

// SubmitRequest is the public payload accepted by the submit front door.
type SubmitRequest struct {
	AttemptID  string          `json:"attempt_id"`
	UserID     string          `json:"user_id"`
	ExamID     *string         `json:"exam_id,omitempty"`
	AttemptNo  int             `json:"attempt_no,omitempty"`
	Purpose    string          `json:"purpose,omitempty"`
	Rubric     json.RawMessage `json:"rubric,omitempty"`
	SectionMap SectionMap      `json:"section_map,omitempty"`
	Callback   *Callback       `json:"callback,omitempty"`
	Metadata   *TaskMetadata   `json:"metadata,omitempty"`
}

// Validate checks the required submit fields.
func (r *SubmitRequest) Validate() error {
	if strings.TrimSpace(r.AttemptID) == "" {
		return errors.ValidationField("attempt_id", "attempt_id is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return errors.ValidationField("user_id", "user_id is required")
	}
	return nil
}

// Task builds a grade task envelope for this submission with the given job id.
func (r *SubmitRequest) Task(jobID string) *GradeTask {
	return &GradeTask{
		JobID:      jobID,
		AttemptID:  r.AttemptID,
		UserID:     r.UserID,
		Purpose:    r.Purpose,
		Rubric:     r.Rubric,
		SectionMap: r.SectionMap,
		Callback:   r.Callback,
		Metadata:   r.Metadata,
	}
}
