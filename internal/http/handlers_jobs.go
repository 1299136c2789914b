package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
)

// TaskEnqueuer hands task envelopes to the dispatch queue.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, envelope []byte) error
}

// JobReader reads grade job rows for status polling.
type JobReader interface {
	GetByID(ctx context.Context, jobID string) (*model.GradeJob, error)
}

// JobHandlers provides HTTP handlers for grade job submission and polling.
type JobHandlers struct {
	Queue TaskEnqueuer
	Jobs  JobReader
}

// Submit accepts a grading submission, mints a job id, and enqueues the task
// envelope. The job row itself is created when the dispatcher delivers the
// task, so polling before that returns 404.
func (h *JobHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteAppError(w, err)
		return
	}

	jobID := uuid.NewString()
	envelope, err := json.Marshal(req.Task(jobID))
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "encode_failed", Err: err})
		return
	}

	if err := h.Queue.Enqueue(r.Context(), envelope); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "enqueue_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": "queued"})
}

// GetJob returns the current state of a grade job. Note the effective job id
// from the task response or webhook is the one to poll; a retried submission
// may reuse a prior incomplete job's id.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteError(w, ErrorParams{
			Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required"),
		})
		return
	}

	job, err := h.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}
