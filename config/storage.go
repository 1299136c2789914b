package config

import "strings"

// StorageConfig contains report artifact storage configuration.
type StorageConfig struct {
	// Root is the filesystem root under which buckets live.
	Root string `env:"STORAGE_ROOT" envDefault:"./storage"`

	// Bucket is the namespace for report artifacts.
	Bucket string `env:"STORAGE_BUCKET" envDefault:"reports"`
}

// Sanitize applies guardrails to storage configuration values.
func (c *StorageConfig) Sanitize() {
	c.Root = strings.TrimSpace(c.Root)
	c.Bucket = strings.TrimSpace(c.Bucket)
}
