package config

import "time"

// DispatchConfig contains task dispatch runner configuration.
type DispatchConfig struct {
	// QueueKey is the redis list holding pending task envelopes.
	QueueKey string `env:"DISPATCH_QUEUE_KEY" envDefault:"grade:tasks"`

	// ProcessingKey is the redis list holding claimed-but-unacked envelopes.
	ProcessingKey string `env:"DISPATCH_PROCESSING_KEY" envDefault:"grade:tasks:processing"`

	// MaxAttempts is the delivery attempt ceiling before an envelope is dropped.
	MaxAttempts int `env:"DISPATCH_MAX_ATTEMPTS" envDefault:"5"`

	// ClaimTimeout bounds each blocking claim against the queue.
	ClaimTimeout time.Duration `env:"DISPATCH_CLAIM_TIMEOUT" envDefault:"5s"`

	// RequeueInterval controls how often stale processing entries are swept
	// back onto the queue.
	RequeueInterval time.Duration `env:"DISPATCH_REQUEUE_INTERVAL" envDefault:"30s"`
}

// Sanitize applies guardrails to dispatch configuration values.
func (c *DispatchConfig) Sanitize() {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.ClaimTimeout <= 0 {
		c.ClaimTimeout = 5 * time.Second
	}
	if c.RequeueInterval <= 0 {
		c.RequeueInterval = 30 * time.Second
	}
	if c.ProcessingKey == "" && c.QueueKey != "" {
		c.ProcessingKey = c.QueueKey + ":processing"
	}
}
