package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
	apperrors "github.com/avschaefer/cloudhire-ai-api/internal/errors"
)

// AnswerRepo reads raw user responses and resolves them into answer snapshots.
type AnswerRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewAnswerRepo creates a new AnswerRepo instance with the given database connection.
func NewAnswerRepo(db *sql.DB, logger *slog.Logger) *AnswerRepo {
	if logger != nil {
		logger = logger.With("component", "answer_repo")
	}
	return &AnswerRepo{DB: db, logger: logger}
}

const latestResponsesSQL = `
SELECT question_type, question_id, response_text, response_numerical, response_units, updated_at
FROM user_responses
WHERE user_id = $1
ORDER BY updated_at DESC, id ASC`

// LatestForUser returns one answer per (question_type, question_id) key for a
// user, resolved to the most recently updated raw response. An empty slice
// means the user has no answers on record; that is not an error at this layer.
func (r *AnswerRepo) LatestForUser(ctx context.Context, userID string) ([]model.Answer, error) {
	rows, err := r.DB.QueryContext(ctx, latestResponsesSQL, userID)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var raw []model.UserResponse
	for rows.Next() {
		var resp model.UserResponse
		if scanErr := rows.Scan(
			&resp.QuestionType,
			&resp.QuestionID,
			&resp.ResponseText,
			&resp.ResponseNumerical,
			&resp.ResponseUnits,
			&resp.UpdatedAt,
		); scanErr != nil {
			return nil, apperrors.MapDBError(scanErr)
		}
		raw = append(raw, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}

	answers := model.DedupLatest(raw)

	if r.logger != nil {
		r.logger.DebugContext(ctx, "resolved latest answers",
			"user_id", userID,
			"raw_rows", len(raw),
			"answers", len(answers),
		)
	}

	return answers, nil
}
