package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
	apperrors "github.com/avschaefer/cloudhire-ai-api/internal/errors"
	"github.com/avschaefer/cloudhire-ai-api/internal/testutil"
)

func TestJobRepo_UpsertForProcessing_FreshPair(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, nil)
		ctx := context.Background()

		jobID := uuid.NewString()
		triggeredBy := "submit"
		effectiveID, err := repo.UpsertForProcessing(ctx, &model.UpsertJobParams{
			JobID:       jobID,
			AttemptID:   "attempt-fresh",
			UserID:      "user-1",
			Purpose:     "final",
			TriggeredBy: &triggeredBy,
		})
		require.NoError(t, err)
		assert.Equal(t, jobID, effectiveID)

		job, err := repo.GetByID(ctx, jobID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusProcessing, job.Status)
		assert.Equal(t, "attempt-fresh", job.AttemptID)
		assert.Equal(t, "user-1", job.UserID)
		require.NotNil(t, job.TriggeredBy)
		assert.Equal(t, "submit", *job.TriggeredBy)
		assert.Nil(t, job.FinishedAt)
		assert.Nil(t, job.ErrorMessage)
	})
}

func TestJobRepo_UpsertForProcessing_ReusesIncompleteJob(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, nil)
		ctx := context.Background()

		firstID := uuid.NewString()
		_, err := repo.UpsertForProcessing(ctx, &model.UpsertJobParams{
			JobID:     firstID,
			AttemptID: "attempt-retry",
			UserID:    "user-1",
			Purpose:   "final",
		})
		require.NoError(t, err)

		// Fail the first run so the row is incomplete but terminal.
		finishedAt := time.Now().UTC()
		errMsg := "oracle unavailable"
		require.NoError(t, repo.SetStatus(ctx, firstID, SetStatusParams{
			Status:       model.JobStatusFailed,
			FinishedAt:   &finishedAt,
			ErrorMessage: &errMsg,
		}))

		// A redelivery supplies a new id; the prior row wins and is reset.
		secondID := uuid.NewString()
		effectiveID, err := repo.UpsertForProcessing(ctx, &model.UpsertJobParams{
			JobID:     secondID,
			AttemptID: "attempt-retry",
			UserID:    "user-1",
			Purpose:   "final",
		})
		require.NoError(t, err)
		assert.Equal(t, firstID, effectiveID)

		job, err := repo.GetByKey(ctx, "attempt-retry", "final")
		require.NoError(t, err)
		assert.Equal(t, firstID, job.ID)
		assert.Equal(t, model.JobStatusProcessing, job.Status)
		assert.Nil(t, job.FinishedAt)
		assert.Nil(t, job.ErrorMessage)

		// The supplied id must not have created a second row.
		_, err = repo.GetByID(ctx, secondID)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestJobRepo_UpsertForProcessing_CompletedPairConflicts(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, nil)
		ctx := context.Background()

		jobID := uuid.NewString()
		_, err := repo.UpsertForProcessing(ctx, &model.UpsertJobParams{
			JobID:     jobID,
			AttemptID: "attempt-done",
			UserID:    "user-1",
			Purpose:   "final",
		})
		require.NoError(t, err)

		finishedAt := time.Now().UTC()
		require.NoError(t, repo.SetStatus(ctx, jobID, SetStatusParams{
			Status:     model.JobStatusCompleted,
			FinishedAt: &finishedAt,
		}))

		_, err = repo.UpsertForProcessing(ctx, &model.UpsertJobParams{
			JobID:     uuid.NewString(),
			AttemptID: "attempt-done",
			UserID:    "user-1",
			Purpose:   "final",
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))

		// The completed row is untouched.
		job, err := repo.GetByID(ctx, jobID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, job.Status)
		require.NotNil(t, job.FinishedAt)
	})
}

func TestJobRepo_UpsertForProcessing_SamePairDifferentPurpose(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, nil)
		ctx := context.Background()

		finalID := uuid.NewString()
		_, err := repo.UpsertForProcessing(ctx, &model.UpsertJobParams{
			JobID:     finalID,
			AttemptID: "attempt-multi",
			UserID:    "user-1",
			Purpose:   "final",
		})
		require.NoError(t, err)

		finishedAt := time.Now().UTC()
		require.NoError(t, repo.SetStatus(ctx, finalID, SetStatusParams{
			Status:     model.JobStatusCompleted,
			FinishedAt: &finishedAt,
		}))

		// A different purpose for the same attempt is a distinct key.
		practiceID := uuid.NewString()
		effectiveID, err := repo.UpsertForProcessing(ctx, &model.UpsertJobParams{
			JobID:     practiceID,
			AttemptID: "attempt-multi",
			UserID:    "user-1",
			Purpose:   "practice",
		})
		require.NoError(t, err)
		assert.Equal(t, practiceID, effectiveID)
	})
}

func TestJobRepo_SetStatus_PartialUpdate(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, nil)
		ctx := context.Background()

		jobID := uuid.NewString()
		_, err := repo.UpsertForProcessing(ctx, &model.UpsertJobParams{
			JobID:     jobID,
			AttemptID: "attempt-status",
			UserID:    "user-1",
			Purpose:   "final",
		})
		require.NoError(t, err)

		finishedAt := time.Now().UTC().Truncate(time.Microsecond)
		inputTokens := 1200
		outputTokens := 340
		costUSD := 0.000384
		require.NoError(t, repo.SetStatus(ctx, jobID, SetStatusParams{
			Status:           model.JobStatusCompleted,
			FinishedAt:       &finishedAt,
			CostInputTokens:  &inputTokens,
			CostOutputTokens: &outputTokens,
			CostUSD:          &costUSD,
		}))

		job, err := repo.GetByID(ctx, jobID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, job.Status)
		require.NotNil(t, job.FinishedAt)
		assert.WithinDuration(t, finishedAt, *job.FinishedAt, time.Millisecond)
		assert.Equal(t, inputTokens, job.CostInputTokens)
		assert.Equal(t, outputTokens, job.CostOutputTokens)
		assert.InDelta(t, costUSD, job.CostUSD, 1e-9)

		// A status-only update leaves the unsupplied columns alone.
		require.NoError(t, repo.SetStatus(ctx, jobID, SetStatusParams{
			Status: model.JobStatusFailed,
		}))

		job, err = repo.GetByID(ctx, jobID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusFailed, job.Status)
		require.NotNil(t, job.FinishedAt)
		assert.Equal(t, inputTokens, job.CostInputTokens)
		assert.Equal(t, outputTokens, job.CostOutputTokens)
		assert.InDelta(t, costUSD, job.CostUSD, 1e-9)
	})
}

func TestJobRepo_SetStatus_MissingJob(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, nil)

		err := repo.SetStatus(context.Background(), uuid.NewString(), SetStatusParams{
			Status: model.JobStatusCompleted,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestJobRepo_GetByKey_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, nil)

		_, err := repo.GetByKey(context.Background(), "attempt-missing", "final")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}
