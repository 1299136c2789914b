package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/avschaefer/cloudhire-ai-api/config"
	"github.com/avschaefer/cloudhire-ai-api/internal/adapters/dispatch"
	"github.com/avschaefer/cloudhire-ai-api/internal/adapters/gemini"
	"github.com/avschaefer/cloudhire-ai-api/internal/data"
	"github.com/avschaefer/cloudhire-ai-api/internal/notify/webhook"
	"github.com/avschaefer/cloudhire-ai-api/internal/report"
	"github.com/avschaefer/cloudhire-ai-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Orchestrator *service.Orchestrator
	Queue        *data.RedisTaskQueue
	Jobs         *data.JobRepo
	Dispatcher   *dispatch.Runner
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires repositories, adapters, and the orchestration layer.
func NewServices(deps *ServiceDeps) ServiceContainer {
	cfg := deps.Config
	logger := deps.Logger

	jobRepo := data.NewJobRepo(deps.DB, logger)
	answerRepo := data.NewAnswerRepo(deps.DB, logger)
	resultRepo := data.NewResultRepo(deps.DB, logger)
	artifactRepo := data.NewArtifactRepo(deps.DB, logger)
	reportStore := data.NewFSReportStore(cfg.Storage.Root, cfg.Storage.Bucket, logger)
	queue := data.NewRedisTaskQueue(deps.RedisClient, cfg.Dispatch.QueueKey, cfg.Dispatch.ProcessingKey)

	grader := service.NewGrader(service.GraderOptions{
		Oracle: newOracle(cfg, logger),
		Pricing: service.Pricing{
			InputPerMillion:  cfg.Grader.InputPricePerMillion,
			OutputPerMillion: cfg.Grader.OutputPricePerMillion,
		},
		MaxConcurrent: cfg.Grader.MaxConcurrent,
		Logger:        logger,
	})

	notifier := webhook.NewClient(webhook.Config{
		Secret:  cfg.Webhook.Secret,
		KeyID:   cfg.Webhook.KeyID,
		Timeout: cfg.Webhook.Timeout,
	})

	orchestrator := service.NewOrchestrator(service.OrchestratorOptions{
		Jobs:      jobRepo,
		Answers:   answerRepo,
		Results:   resultRepo,
		Artifacts: artifactRepo,
		Blobs:     reportStore,
		Renderer:  report.NewPDFRenderer(),
		Grader:    grader,
		Notifier:  notifier,
		Logger:    logger,
	})

	dispatcher := dispatch.NewRunner(dispatch.RunnerOptions{
		Queue:           queue,
		Processor:       orchestrator,
		MaxAttempts:     cfg.Dispatch.MaxAttempts,
		ClaimTimeout:    cfg.Dispatch.ClaimTimeout,
		RequeueInterval: cfg.Dispatch.RequeueInterval,
		Logger:          logger,
	})

	return ServiceContainer{
		Orchestrator: orchestrator,
		Queue:        queue,
		Jobs:         jobRepo,
		Dispatcher:   dispatcher,
	}
}

// newOracle builds the grading oracle client, or returns nil when the
// configuration selects (or forces) the local fallback grader.
func newOracle(cfg *config.AppConfig, logger *slog.Logger) service.Oracle {
	if cfg.Grader.ResolvedMode() != config.GraderModeGemini {
		if logger != nil {
			logger.Info("local grader selected", "mode", cfg.Grader.Mode)
		}
		return nil
	}

	client, err := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Grader.APIKey,
		Model:   cfg.Grader.Model,
		BaseURL: cfg.Grader.Endpoint,
	})
	if err != nil {
		if logger != nil {
			logger.Warn("oracle client unavailable, falling back to local grading", "error", err)
		}
		return nil
	}
	return client
}
