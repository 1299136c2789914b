package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/avschaefer/cloudhire-ai-api/config"
)

// ServiceOrchestrationConfig groups everything needed to run the enabled
// service modes until shutdown.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts the enabled service modes and blocks until
// SIGINT or SIGTERM, then drains them.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var server *http.Server
	if cfg.Config.IsHTTPServerEnabled() {
		server = StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	dispatcherDone := make(chan error, 1)
	if cfg.Config.IsDispatcherEnabled() {
		logger.InfoContext(ctx, "starting task dispatcher")
		go func() {
			dispatcherDone <- cfg.Services.Dispatcher.Run(ctx)
		}()
	} else {
		dispatcherDone <- nil
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	// The dispatcher stops via context cancellation; wait for it to settle
	// before draining the HTTP server.
	err := <-dispatcherDone
	ShutdownHTTPServer(context.Background(), server, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
