package data

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
	apperrors "github.com/avschaefer/cloudhire-ai-api/internal/errors"
)

// ArtifactRepo records metadata for stored report artifacts.
type ArtifactRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewArtifactRepo creates a new ArtifactRepo instance with the given database connection.
func NewArtifactRepo(db *sql.DB, logger *slog.Logger) *ArtifactRepo {
	if logger != nil {
		logger = logger.With("component", "artifact_repo")
	}
	return &ArtifactRepo{DB: db, logger: logger}
}

// CreateArtifactParams carries the metadata recorded for one stored artifact.
type CreateArtifactParams struct {
	JobID       string
	Kind        string
	StoragePath string
	SizeBytes   int64
	SHA256      string
}

// Create records artifact metadata and returns the stored row.
func (r *ArtifactRepo) Create(ctx context.Context, params CreateArtifactParams) (*model.ReportArtifact, error) {
	artifact := model.ReportArtifact{
		ID:          uuid.NewString(),
		JobID:       params.JobID,
		Kind:        params.Kind,
		StoragePath: params.StoragePath,
		SizeBytes:   params.SizeBytes,
		SHA256:      params.SHA256,
	}

	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO artifacts (id, job_id, kind, storage_path, size_bytes, sha256)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		artifact.ID,
		artifact.JobID,
		artifact.Kind,
		artifact.StoragePath,
		artifact.SizeBytes,
		artifact.SHA256,
	).Scan(&artifact.CreatedAt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.MapDBError(err), apperrors.ErrCodeInternal, "record artifact")
	}

	if r.logger != nil {
		r.logger.InfoContext(ctx, "artifact recorded",
			"job_id", artifact.JobID,
			"path", artifact.StoragePath,
			"size_bytes", artifact.SizeBytes,
		)
	}
	return &artifact, nil
}

// ByJob returns the most recent artifact of the given kind for a job.
func (r *ArtifactRepo) ByJob(ctx context.Context, jobID, kind string) (*model.ReportArtifact, error) {
	var artifact model.ReportArtifact
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, job_id, kind, storage_path, size_bytes, sha256, created_at
		FROM artifacts
		WHERE job_id = $1 AND kind = $2
		ORDER BY created_at DESC
		LIMIT 1`, jobID, kind,
	).Scan(
		&artifact.ID,
		&artifact.JobID,
		&artifact.Kind,
		&artifact.StoragePath,
		&artifact.SizeBytes,
		&artifact.SHA256,
		&artifact.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("artifact for job %s not found", jobID)
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &artifact, nil
}
