package config

import (
	"errors"
	"fmt"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Database and queue configuration
//   - http.go: HTTP server configuration
//   - grader.go: Grading oracle configuration
//   - webhook.go: Outbound webhook signing configuration
//   - storage.go: Report artifact storage configuration
//   - dispatch.go: Task dispatch runner configuration
type AppConfig struct {
	// IsDev controls development mode behavior (verbose logging, relaxed auth).
	IsDev bool `env:"DEV" envDefault:"false"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Grading oracle configuration
	Grader GraderConfig

	// Outbound webhook configuration
	Webhook WebhookConfig

	// Report artifact storage configuration
	Storage StorageConfig

	// Task dispatch configuration
	Dispatch DispatchConfig

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Grader.Sanitize()
	c.Webhook.Sanitize()
	c.Storage.Sanitize()
	c.Dispatch.Sanitize()
}

// Validate checks the configuration for missing required entries and returns a
// single error enumerating every problem found, so startup fails fast with the
// full picture instead of one entry at a time.
func (c *AppConfig) Validate() error {
	var missing []string

	if strings.TrimSpace(c.Grader.Model) == "" {
		missing = append(missing, "GRADER_MODEL")
	}
	if strings.TrimSpace(c.Storage.Root) == "" {
		missing = append(missing, "STORAGE_ROOT")
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		missing = append(missing, "STORAGE_BUCKET")
	}
	if strings.TrimSpace(c.Dispatch.QueueKey) == "" {
		missing = append(missing, "DISPATCH_QUEUE_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config entries: %s", strings.Join(missing, ", "))
	}

	if _, err := c.GetEnabledServices(); err != nil {
		return err
	}

	return nil
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsDispatcherEnabled returns true if the task dispatch runner is enabled.
func (c *AppConfig) IsDispatcherEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeDispatcher]
}

// ErrNoServices is returned when no service modes are configured.
var ErrNoServices = errors.New("at least one service must be specified")
