package config

import "strings"

// GraderMode selects which grading backend to use.
type GraderMode string

const (
	// GraderModeGemini grades answers through the Gemini API.
	GraderModeGemini GraderMode = "gemini"
	// GraderModeLocal grades answers with the local placeholder grader.
	GraderModeLocal GraderMode = "local"
)

// GraderConfig contains grading oracle configuration.
type GraderConfig struct {
	// Mode selects the grading backend ('gemini' or 'local'). Unknown values
	// fall back to the local grader.
	Mode string `env:"GRADER_MODE" envDefault:"gemini"`

	// Model is the oracle model identifier.
	Model string `env:"GRADER_MODEL" envDefault:"gemini-2.0-flash"`

	// APIKey authenticates against the oracle. When empty in gemini mode the
	// whole batch degrades to the local grader.
	APIKey string `env:"GEMINI_API_KEY" envDefault:""`

	// Endpoint overrides the oracle base URL (tests and self-hosted proxies).
	Endpoint string `env:"GRADER_ENDPOINT" envDefault:"https://generativelanguage.googleapis.com"`

	// MaxConcurrent bounds the grading fan-out across answers.
	MaxConcurrent int `env:"GRADER_MAX_CONCURRENT" envDefault:"4"`

	// InputPricePerMillion is the USD price per million input tokens.
	InputPricePerMillion float64 `env:"GRADER_INPUT_PRICE_PER_MILLION" envDefault:"0.15"`

	// OutputPricePerMillion is the USD price per million output tokens.
	OutputPricePerMillion float64 `env:"GRADER_OUTPUT_PRICE_PER_MILLION" envDefault:"0.60"`
}

// Sanitize applies guardrails to grader configuration values.
func (c *GraderConfig) Sanitize() {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	if c.MaxConcurrent < 1 {
		c.MaxConcurrent = 1
	}
	if c.InputPricePerMillion < 0 {
		c.InputPricePerMillion = 0
	}
	if c.OutputPricePerMillion < 0 {
		c.OutputPricePerMillion = 0
	}
}

// ResolvedMode returns the effective grader mode after sanitisation.
func (c *GraderConfig) ResolvedMode() GraderMode {
	if GraderMode(c.Mode) == GraderModeGemini {
		return GraderModeGemini
	}
	return GraderModeLocal
}
