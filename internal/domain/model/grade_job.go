// Package model defines the core data types and structures used throughout the cloudhire grading system.
package model

import (
	"strings"
	"time"
)

// JobStatus represents the current status of a grade job.
type JobStatus string

const (
	// JobStatusProcessing indicates a job is currently being graded.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted indicates a job has finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job has failed to complete.
	JobStatusFailed JobStatus = "failed"
)

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusProcessing || s == JobStatusCompleted || s == JobStatusFailed
}

// Terminal returns true if the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// DefaultPurpose is the job purpose assumed when a task omits one.
const DefaultPurpose = "final"

// GradeJob represents one grading run for one exam attempt submission.
// At most one job per (attempt_id, purpose) may reach the completed state;
// the job repository's upsert enforces that invariant.
type GradeJob struct {
	ID               string     `json:"id"                          db:"id"`
	AttemptID        string     `json:"attempt_id"                  db:"attempt_id"`
	UserID           string     `json:"user_id"                     db:"user_id"`
	Purpose          string     `json:"purpose"                     db:"purpose"`
	Status           JobStatus  `json:"status"                      db:"status"`
	TriggeredBy      *string    `json:"triggered_by,omitempty"      db:"triggered_by"`
	StartedAt        time.Time  `json:"started_at"                  db:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"       db:"finished_at"`
	ErrorMessage     *string    `json:"error_message,omitempty"     db:"error_message"`
	CostInputTokens  int        `json:"cost_input_tokens"           db:"cost_input_tokens"`
	CostOutputTokens int        `json:"cost_output_tokens"          db:"cost_output_tokens"`
	CostUSD          float64    `json:"cost_usd"                    db:"cost_usd"`
	CreatedAt        time.Time  `json:"created_at"                  db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"                  db:"updated_at"`
}

// UpsertJobParams carries the identity of a job being registered for processing.
type UpsertJobParams struct {
	JobID       string
	AttemptID   string
	UserID      string
	Purpose     string
	TriggeredBy *string
}

// Normalize fills defaulted fields in place.
func (p *UpsertJobParams) Normalize() {
	p.Purpose = strings.TrimSpace(p.Purpose)
	if p.Purpose == "" {
		p.Purpose = DefaultPurpose
	}
}
