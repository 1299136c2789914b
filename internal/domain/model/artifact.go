package model

import "time"

// ArtifactKindReport is the kind recorded for rendered grading reports.
const ArtifactKindReport = "report"

// ReportArtifact describes a stored report file. Created once, immutable,
// referenced by the job's terminal record.
type ReportArtifact struct {
	ID          string    `json:"id"           db:"id"`
	JobID       string    `json:"job_id"       db:"job_id"`
	Kind        string    `json:"kind"         db:"kind"`
	StoragePath string    `json:"storage_path" db:"storage_path"`
	SizeBytes   int64     `json:"size_bytes"   db:"size_bytes"`
	SHA256      string    `json:"sha256"       db:"sha256"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
}
