package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
	apperrors "github.com/avschaefer/cloudhire-ai-api/internal/errors"
	"github.com/avschaefer/cloudhire-ai-api/internal/service"
)

type processorStub struct {
	fn    func(ctx context.Context, task *model.GradeTask) (*service.TaskOutcome, error)
	tasks []*model.GradeTask
}

func (s *processorStub) Process(ctx context.Context, task *model.GradeTask) (*service.TaskOutcome, error) {
	s.tasks = append(s.tasks, task)
	if s.fn != nil {
		return s.fn(ctx, task)
	}
	return &service.TaskOutcome{JobID: task.JobID, Status: service.OutcomeOK, PDFPath: "2026/01/" + task.JobID + ".pdf"}, nil
}

type enqueuerStub struct {
	fn        func(ctx context.Context, envelope []byte) error
	envelopes [][]byte
}

func (s *enqueuerStub) Enqueue(ctx context.Context, envelope []byte) error {
	s.envelopes = append(s.envelopes, envelope)
	if s.fn != nil {
		return s.fn(ctx, envelope)
	}
	return nil
}

type jobReaderStub struct {
	fn func(ctx context.Context, jobID string) (*model.GradeJob, error)
}

func (s *jobReaderStub) GetByID(ctx context.Context, jobID string) (*model.GradeJob, error) {
	if s.fn != nil {
		return s.fn(ctx, jobID)
	}
	return nil, apperrors.NotFoundf("grade job %s not found", jobID)
}

func testRouter(processor *processorStub, queue *enqueuerStub, jobs *jobReaderStub) http.Handler {
	return NewRouter(RouterServices{
		Processor:         processor,
		Queue:             queue,
		Jobs:              jobs,
		SubmitBearerToken: "secret-token",
		Logger:            slog.New(slog.DiscardHandler),
	})
}

func TestGradeTask_Success(t *testing.T) {
	processor := &processorStub{}
	router := testRouter(processor, &enqueuerStub{}, &jobReaderStub{})

	body := `{"job_id":"job-1","attempt_id":"attempt-1","user_id":"user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/internal/tasks/grade", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp service.TaskOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, "2026/01/job-1.pdf", resp.PDFPath)

	require.Len(t, processor.tasks, 1)
	assert.Equal(t, "attempt-1", processor.tasks[0].AttemptID)
}

func TestGradeTask_IgnoresUnknownPayloadKeys(t *testing.T) {
	processor := &processorStub{}
	router := testRouter(processor, &enqueuerStub{}, &jobReaderStub{})

	// Producers may attach keys this service does not know about, both at the
	// top level and inside metadata. They must be ignored, not rejected.
	body := `{"job_id":"job-1","attempt_id":"attempt-1","user_id":"user-1",` +
		`"metadata":{"triggered_by":"submit","trace_id":"abc123"},"experiment":"b"}`
	req := httptest.NewRequest(http.MethodPost, "/internal/tasks/grade", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, processor.tasks, 1)
	require.NotNil(t, processor.tasks[0].Metadata)
	require.NotNil(t, processor.tasks[0].Metadata.TriggeredBy)
	assert.Equal(t, "submit", *processor.tasks[0].Metadata.TriggeredBy)
}

func TestGradeTask_MissingRequiredKey(t *testing.T) {
	processor := &processorStub{
		fn: func(_ context.Context, task *model.GradeTask) (*service.TaskOutcome, error) {
			return nil, task.Validate()
		},
	}
	router := testRouter(processor, &enqueuerStub{}, &jobReaderStub{})

	body := `{"job_id":"job-1","user_id":"user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/internal/tasks/grade", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "attempt_id")
}

func TestGradeTask_CompletedConflictWithoutCallback(t *testing.T) {
	processor := &processorStub{
		fn: func(_ context.Context, _ *model.GradeTask) (*service.TaskOutcome, error) {
			return &service.TaskOutcome{JobID: "prior-job", Status: service.OutcomeAlreadyCompleted}, nil
		},
	}
	router := testRouter(processor, &enqueuerStub{}, &jobReaderStub{})

	body := `{"job_id":"job-1","attempt_id":"attempt-1","user_id":"user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/internal/tasks/grade", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already_completed")
	assert.Contains(t, rec.Body.String(), "prior-job")
}

func TestGradeTask_CompletedConflictWithCallbackIsOK(t *testing.T) {
	processor := &processorStub{
		fn: func(_ context.Context, _ *model.GradeTask) (*service.TaskOutcome, error) {
			return &service.TaskOutcome{JobID: "prior-job", Status: service.OutcomeAlreadyCompleted}, nil
		},
	}
	router := testRouter(processor, &enqueuerStub{}, &jobReaderStub{})

	body := `{"job_id":"job-1","attempt_id":"attempt-1","user_id":"user-1",` +
		`"callback":{"url":"https://example.com/hook"}}`
	req := httptest.NewRequest(http.MethodPost, "/internal/tasks/grade", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGradeTask_WebhookFailureIsBadGateway(t *testing.T) {
	processor := &processorStub{
		fn: func(_ context.Context, _ *model.GradeTask) (*service.TaskOutcome, error) {
			return nil, apperrors.Unavailable("webhook delivery failed")
		},
	}
	router := testRouter(processor, &enqueuerStub{}, &jobReaderStub{})

	body := `{"job_id":"job-1","attempt_id":"attempt-1","user_id":"user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/internal/tasks/grade", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGradeTask_PipelineFailureIsInternal(t *testing.T) {
	processor := &processorStub{
		fn: func(_ context.Context, _ *model.GradeTask) (*service.TaskOutcome, error) {
			return nil, apperrors.Internal("store grade results")
		},
	}
	router := testRouter(processor, &enqueuerStub{}, &jobReaderStub{})

	body := `{"job_id":"job-1","attempt_id":"attempt-1","user_id":"user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/internal/tasks/grade", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSubmit_EnqueuesTask(t *testing.T) {
	queue := &enqueuerStub{}
	router := testRouter(&processorStub{}, queue, &jobReaderStub{})

	body := `{"attempt_id":"attempt-1","user_id":"user-1","purpose":"final"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/grade_jobs/submit", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp["status"])
	require.NoError(t, uuid.Validate(resp["job_id"]))

	require.Len(t, queue.envelopes, 1)
	var task model.GradeTask
	require.NoError(t, json.Unmarshal(queue.envelopes[0], &task))
	assert.Equal(t, resp["job_id"], task.JobID)
	assert.Equal(t, "attempt-1", task.AttemptID)
}

func TestSubmit_RequiresBearerToken(t *testing.T) {
	queue := &enqueuerStub{}
	router := testRouter(&processorStub{}, queue, &jobReaderStub{})

	body := `{"attempt_id":"attempt-1","user_id":"user-1"}`

	req := httptest.NewRequest(http.MethodPost, "/v1/grade_jobs/submit", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/grade_jobs/submit", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Empty(t, queue.envelopes)
}

func TestSubmit_ValidationFailure(t *testing.T) {
	router := testRouter(&processorStub{}, &enqueuerStub{}, &jobReaderStub{})

	req := httptest.NewRequest(http.MethodPost, "/v1/grade_jobs/submit", strings.NewReader(`{"user_id":"user-1"}`))
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "attempt_id")
}

func TestGetJob_Found(t *testing.T) {
	started := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	jobs := &jobReaderStub{
		fn: func(_ context.Context, jobID string) (*model.GradeJob, error) {
			return &model.GradeJob{
				ID:        jobID,
				AttemptID: "attempt-1",
				UserID:    "user-1",
				Purpose:   "final",
				Status:    model.JobStatusCompleted,
				StartedAt: started,
				CostUSD:   0.00045,
			}, nil
		},
	}
	router := testRouter(&processorStub{}, &enqueuerStub{}, jobs)

	req := httptest.NewRequest(http.MethodGet, "/v1/grade_jobs/job-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var job model.GradeJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.InDelta(t, 0.00045, job.CostUSD, 1e-9)
}

func TestGetJob_NotFound(t *testing.T) {
	router := testRouter(&processorStub{}, &enqueuerStub{}, &jobReaderStub{})

	req := httptest.NewRequest(http.MethodGet, "/v1/grade_jobs/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
