package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/avschaefer/cloudhire-ai-api/internal/data/pgxutil"
	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
	apperrors "github.com/avschaefer/cloudhire-ai-api/internal/errors"
)

// ResultRepo persists per-question and overall grading outcomes.
type ResultRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewResultRepo creates a new ResultRepo instance with the given database connection.
func NewResultRepo(db *sql.DB, logger *slog.Logger) *ResultRepo {
	if logger != nil {
		logger = logger.With("component", "result_repo")
	}
	return &ResultRepo{DB: db, logger: logger}
}

// Store writes all per-question rows and exactly one overall row for a job in
// a single transaction. Rows left behind by a crashed prior run of the same
// job id are cleared first, so at-least-once redelivery cannot double-insert.
func (r *ResultRepo) Store(
	ctx context.Context,
	jobID string,
	results []model.GradeResult,
	overall model.OverallResult,
) error {
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `DELETE FROM grade_overall WHERE job_id = $1`, jobID); err != nil {
				return fmt.Errorf("clear overall: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM grade_results WHERE job_id = $1`, jobID); err != nil {
				return fmt.Errorf("clear results: %w", err)
			}

			for i := range results {
				if err := insertResult(ctx, tx, jobID, &results[i]); err != nil {
					return err
				}
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO grade_overall (job_id, score, band, notes)
				VALUES ($1, $2, $3, $4)`,
				jobID, overall.Score, string(overall.Band), overall.Notes,
			); err != nil {
				return fmt.Errorf("insert overall: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return apperrors.Wrap(apperrors.MapDBError(err), apperrors.ErrCodeInternal, "store grade results")
	}

	if r.logger != nil {
		r.logger.InfoContext(ctx, "grade results stored",
			"job_id", jobID,
			"questions", len(results),
			"band", overall.Band,
		)
	}
	return nil
}

func insertResult(ctx context.Context, tx *sql.Tx, jobID string, result *model.GradeResult) error {
	tags := result.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO grade_results (job_id, section, question_type, question_id, score, rationale, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		jobID,
		result.Section,
		result.QuestionType,
		result.QuestionID,
		result.Score,
		result.Rationale,
		tagsJSON,
	); err != nil {
		return fmt.Errorf("insert result for question %s:%d: %w", result.QuestionType, result.QuestionID, err)
	}
	return nil
}

// ResultsByJob returns the persisted per-question results for a job in
// insertion order.
func (r *ResultRepo) ResultsByJob(ctx context.Context, jobID string) ([]model.GradeResult, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT section, question_type, question_id, score, rationale, tags
		FROM grade_results
		WHERE job_id = $1
		ORDER BY id ASC`, jobID)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var results []model.GradeResult
	for rows.Next() {
		var (
			result   model.GradeResult
			tagsJSON []byte
		)
		if scanErr := rows.Scan(
			&result.Section,
			&result.QuestionType,
			&result.QuestionID,
			&result.Score,
			&result.Rationale,
			&tagsJSON,
		); scanErr != nil {
			return nil, apperrors.MapDBError(scanErr)
		}
		if len(tagsJSON) > 0 {
			if unmarshalErr := json.Unmarshal(tagsJSON, &result.Tags); unmarshalErr != nil {
				return nil, fmt.Errorf("decode tags: %w", unmarshalErr)
			}
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return results, nil
}

// OverallByJob returns the persisted overall result for a job.
func (r *ResultRepo) OverallByJob(ctx context.Context, jobID string) (*model.OverallResult, error) {
	var overall model.OverallResult
	err := r.DB.QueryRowContext(ctx, `
		SELECT score, band, notes FROM grade_overall WHERE job_id = $1`, jobID,
	).Scan(&overall.Score, &overall.Band, &overall.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("overall result for job %s not found", jobID)
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &overall, nil
}
