package config

import (
	"strings"
	"time"
)

// WebhookConfig contains outbound webhook signing and delivery configuration.
type WebhookConfig struct {
	// Secret is the shared HMAC secret. When empty, payloads are delivered
	// unsigned and the receiver decides whether to accept them.
	Secret string `env:"AI_WEBHOOK_SECRET" envDefault:""`

	// KeyID identifies the signing key in the X-Key-Id header.
	KeyID string `env:"AI_WEBHOOK_KEY_ID" envDefault:"go-v1"`

	// Timeout bounds each outbound delivery so a task never hangs on a slow
	// receiver.
	Timeout time.Duration `env:"AI_WEBHOOK_TIMEOUT" envDefault:"15s"`
}

// Sanitize applies guardrails to webhook configuration values.
func (c *WebhookConfig) Sanitize() {
	c.Secret = strings.TrimSpace(c.Secret)
	if strings.TrimSpace(c.KeyID) == "" {
		c.KeyID = "go-v1"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
}
