package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Processor TaskProcessor
	Queue     TaskEnqueuer
	Jobs      JobReader
	// SubmitBearerToken guards the public submit endpoint.
	SubmitBearerToken string
	Logger            *slog.Logger
}

// NewRouter creates and configures the service's HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	taskHandlers := &TaskHandlers{Processor: services.Processor}
	jobHandlers := &JobHandlers{Queue: services.Queue, Jobs: services.Jobs}

	submit := http.Handler(http.HandlerFunc(jobHandlers.Submit))
	submit = RequireBearer(services.SubmitBearerToken)(submit)

	mux.Handle("POST /v1/grade_jobs/submit", submit)
	mux.Handle("GET /v1/grade_jobs/{id}", http.HandlerFunc(jobHandlers.GetJob))
	mux.Handle("POST /internal/tasks/grade", http.HandlerFunc(taskHandlers.GradeTask))
	mux.Handle("GET /health", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /health", http.HandlerFunc(healthHandler))

	var handler http.Handler = mux
	handler = Logging(services.Logger)(handler)
	handler = Recover(services.Logger)(handler)
	return handler
}
