// Package httpx provides the HTTP surface of the grading service: the public
// submit and status endpoints and the internal task endpoint the dispatcher
// delivers to.
package httpx

import (
	"context"
	"net/http"

	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
	"github.com/avschaefer/cloudhire-ai-api/internal/service"
)

// TaskProcessor runs one grading task end to end.
type TaskProcessor interface {
	Process(ctx context.Context, task *model.GradeTask) (*service.TaskOutcome, error)
}

// TaskHandlers serves the internal task endpoint.
type TaskHandlers struct {
	Processor TaskProcessor
}

// GradeTask handles an inbound grade task delivery. Deliveries are at least
// once, so a duplicate of a completed job answers with a conflict instead of
// re-grading.
func (h *TaskHandlers) GradeTask(w http.ResponseWriter, r *http.Request) {
	var task model.GradeTask
	if !DecodeJSON(w, r, &task) {
		return
	}

	outcome, err := h.Processor.Process(r.Context(), &task)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	if outcome.Status == service.OutcomeAlreadyCompleted && task.Callback == nil {
		WriteJSON(w, http.StatusConflict, outcome)
		return
	}
	WriteJSON(w, http.StatusOK, outcome)
}
