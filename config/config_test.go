package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:  "single service - http",
			input: "http",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP: true,
			},
			expectError: false,
		},
		{
			name:  "single service - dispatcher",
			input: "dispatcher",
			expected: map[ServiceMode]bool{
				ServiceModeDispatcher: true,
			},
			expectError: false,
		},
		{
			name:  "both services",
			input: "http,dispatcher",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:       true,
				ServiceModeDispatcher: true,
			},
			expectError: false,
		},
		{
			name:  "whitespace tolerated",
			input: " http , dispatcher ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:       true,
				ServiceModeDispatcher: true,
			},
			expectError: false,
		},
		{
			name:        "invalid service name",
			input:       "http,worker",
			expectError: true,
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "only commas",
			input:       ",,",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for input %q, got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseServices(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAppConfigDefaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Grader.Model != "gemini-2.0-flash" {
		t.Errorf("default grader model = %q", cfg.Grader.Model)
	}
	if cfg.Grader.ResolvedMode() != GraderModeGemini {
		t.Errorf("default grader mode = %q", cfg.Grader.ResolvedMode())
	}
	if cfg.Webhook.Timeout != 15*time.Second {
		t.Errorf("default webhook timeout = %s", cfg.Webhook.Timeout)
	}
	if cfg.Dispatch.ProcessingKey != "grade:tasks:processing" {
		t.Errorf("default processing key = %q", cfg.Dispatch.ProcessingKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestAppConfigValidateEnumeratesMissing(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Grader.Model = ""
	cfg.Storage.Bucket = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"GRADER_MODEL", "STORAGE_BUCKET"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err.Error(), want)
		}
	}
}

func TestGraderConfigSanitize(t *testing.T) {
	cfg := GraderConfig{Mode: " GEMINI ", MaxConcurrent: 0, InputPricePerMillion: -1}
	cfg.Sanitize()

	if cfg.Mode != "gemini" {
		t.Errorf("mode = %q", cfg.Mode)
	}
	if cfg.MaxConcurrent != 1 {
		t.Errorf("max concurrent = %d", cfg.MaxConcurrent)
	}
	if cfg.InputPricePerMillion != 0 {
		t.Errorf("input price = %f", cfg.InputPricePerMillion)
	}

	cfg.Mode = "something-else"
	if cfg.ResolvedMode() != GraderModeLocal {
		t.Errorf("unknown mode should resolve to local, got %q", cfg.ResolvedMode())
	}
}
