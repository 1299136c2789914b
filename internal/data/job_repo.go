package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
	apperrors "github.com/avschaefer/cloudhire-ai-api/internal/errors"
)

// JobRepo provides database operations for grade job lifecycle management.
// It owns the idempotency invariant: at most one job per (attempt_id, purpose)
// ever reaches the completed state.
type JobRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection.
func NewJobRepo(db *sql.DB, logger *slog.Logger) *JobRepo {
	if logger != nil {
		logger = logger.With("component", "job_repo")
	}
	return &JobRepo{DB: db, logger: logger}
}

const jobColumns = `
  id,
  attempt_id,
  user_id,
  purpose,
  status,
  triggered_by,
  started_at,
  finished_at,
  error_message,
  cost_input_tokens,
  cost_output_tokens,
  cost_usd,
  created_at,
  updated_at
`

// upsertForProcessingSQL registers a job for processing in one atomic
// statement. A fresh (attempt_id, purpose) pair inserts a new row; a pair with
// an incomplete prior job resets that row and returns its id; a pair that
// already completed matches neither branch and returns no row at all, which
// the caller surfaces as a conflict. Single round trip, so two concurrent
// deliveries of the same task cannot both win.
const upsertForProcessingSQL = `
INSERT INTO grade_jobs (id, attempt_id, user_id, purpose, status, triggered_by, started_at, updated_at)
VALUES ($1, $2, $3, $4, 'processing', $5, now(), now())
ON CONFLICT (attempt_id, purpose) DO UPDATE
SET status = 'processing',
    triggered_by = EXCLUDED.triggered_by,
    error_message = NULL,
    finished_at = NULL,
    started_at = now(),
    updated_at = now()
WHERE grade_jobs.status <> 'completed'
RETURNING id`

// UpsertForProcessing registers a grade job for processing and returns the
// effective job id, which is the prior job's id when an incomplete job already
// exists for the same (attempt_id, purpose) pair. It returns a Conflict error
// when the pair already completed.
func (r *JobRepo) UpsertForProcessing(ctx context.Context, params *model.UpsertJobParams) (string, error) {
	if params == nil {
		return "", errors.New("upsert params are required")
	}
	params.Normalize()

	var effectiveID string
	err := r.DB.QueryRowContext(ctx, upsertForProcessingSQL,
		params.JobID,
		params.AttemptID,
		params.UserID,
		params.Purpose,
		params.TriggeredBy,
	).Scan(&effectiveID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.Conflictf(
			"grade job for attempt %s purpose %s already completed", params.AttemptID, params.Purpose)
	}
	if err != nil {
		return "", apperrors.MapDBError(err)
	}

	if r.logger != nil && effectiveID != params.JobID {
		r.logger.InfoContext(ctx, "reusing incomplete grade job",
			"supplied_job_id", params.JobID,
			"effective_job_id", effectiveID,
			"attempt_id", params.AttemptID,
		)
	}

	return effectiveID, nil
}

// SetStatusParams is a partial update of a job row. Nil fields are left
// untouched.
type SetStatusParams struct {
	Status           model.JobStatus
	FinishedAt       *time.Time
	ErrorMessage     *string
	CostInputTokens  *int
	CostOutputTokens *int
	CostUSD          *float64
}

// SetStatus updates a job's status plus any supplied extra fields.
func (r *JobRepo) SetStatus(ctx context.Context, jobID string, params SetStatusParams) error {
	if !params.Status.Valid() {
		return fmt.Errorf("invalid job status: %q", params.Status)
	}

	sets := []string{"status = $2", "updated_at = now()"}
	args := []any{jobID, string(params.Status)}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.FinishedAt != nil {
		appendSet("finished_at", *params.FinishedAt)
	}
	if params.ErrorMessage != nil {
		appendSet("error_message", *params.ErrorMessage)
	}
	if params.CostInputTokens != nil {
		appendSet("cost_input_tokens", *params.CostInputTokens)
	}
	if params.CostOutputTokens != nil {
		appendSet("cost_output_tokens", *params.CostOutputTokens)
	}
	if params.CostUSD != nil {
		appendSet("cost_usd", *params.CostUSD)
	}

	query := fmt.Sprintf("UPDATE grade_jobs SET %s WHERE id = $1", strings.Join(sets, ", "))
	tag, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	affected, err := tag.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFoundf("grade job %s not found", jobID)
	}
	return nil
}

// GetByKey fetches the job registered for an (attempt_id, purpose) pair.
func (r *JobRepo) GetByKey(ctx context.Context, attemptID, purpose string) (*model.GradeJob, error) {
	query := "SELECT " + jobColumns + " FROM grade_jobs WHERE attempt_id = $1 AND purpose = $2"

	var job model.GradeJob
	err := r.DB.QueryRowContext(ctx, query, attemptID, purpose).Scan(
		&job.ID,
		&job.AttemptID,
		&job.UserID,
		&job.Purpose,
		&job.Status,
		&job.TriggeredBy,
		&job.StartedAt,
		&job.FinishedAt,
		&job.ErrorMessage,
		&job.CostInputTokens,
		&job.CostOutputTokens,
		&job.CostUSD,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("grade job for attempt %s purpose %s not found", attemptID, purpose)
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &job, nil
}

// GetByID fetches a single grade job.
func (r *JobRepo) GetByID(ctx context.Context, jobID string) (*model.GradeJob, error) {
	query := "SELECT " + jobColumns + " FROM grade_jobs WHERE id = $1"

	var job model.GradeJob
	err := r.DB.QueryRowContext(ctx, query, jobID).Scan(
		&job.ID,
		&job.AttemptID,
		&job.UserID,
		&job.Purpose,
		&job.Status,
		&job.TriggeredBy,
		&job.StartedAt,
		&job.FinishedAt,
		&job.ErrorMessage,
		&job.CostInputTokens,
		&job.CostOutputTokens,
		&job.CostUSD,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("grade job %s not found", jobID)
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &job, nil
}
