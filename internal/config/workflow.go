package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvWorkflowRunTimeout     = "FORMFILL_RUN_TIMEOUT"
	EnvWorkflowMaxConcurrency = "FORMFILL_MAX_CONCURRENCY"
)

// WorkflowConfig bounds a single fill run.
type WorkflowConfig struct {
	RunTimeout     string `toml:"run_timeout"`
	MaxConcurrency int    `toml:"max_concurrency"`
}

// RunTimeoutDuration returns RunTimeout as a time.Duration.
func (c *WorkflowConfig) RunTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RunTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WorkflowConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *WorkflowConfig) Merge(overlay *WorkflowConfig) {
	if overlay.RunTimeout != "" {
		c.RunTimeout = overlay.RunTimeout
	}
	if overlay.MaxConcurrency != 0 {
		c.MaxConcurrency = overlay.MaxConcurrency
	}
}

func (c *WorkflowConfig) loadDefaults() {
	if c.RunTimeout == "" {
		c.RunTimeout = "600s"
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 8
	}
}

func (c *WorkflowConfig) loadEnv() {
	if v := os.Getenv(EnvWorkflowRunTimeout); v != "" {
		c.RunTimeout = v
	}
	if v := os.Getenv(EnvWorkflowMaxConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrency = n
		}
	}
}

func (c *WorkflowConfig) validate() error {
	d, err := time.ParseDuration(c.RunTimeout)
	if err != nil {
		return fmt.Errorf("invalid run_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("run_timeout must be positive: %s", c.RunTimeout)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("invalid max_concurrency: %d", c.MaxConcurrency)
	}
	return nil
}
