// Package config loads formfill configuration from config.toml, an optional
// environment overlay, and FORMFILL_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/formfill/internal/prompts"
	"github.com/JaimeStill/formfill/pkg/storage"
	"github.com/JaimeStill/formfill/pkg/tracing"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvFormfillEnv             = "FORMFILL_ENV"
	EnvFormfillShutdownTimeout = "FORMFILL_SHUTDOWN_TIMEOUT"
	EnvFormfillVersion         = "FORMFILL_VERSION"
	EnvFormfillLogLevel        = "FORMFILL_LOG_LEVEL"
)

var documentsEnv = &storage.Env{
	Provider:         "FORMFILL_DOCUMENTS_PROVIDER",
	Root:             "FORMFILL_DOCUMENTS_ROOT",
	ContainerName:    "FORMFILL_DOCUMENTS_CONTAINER_NAME",
	ConnectionString: "FORMFILL_DOCUMENTS_CONNECTION_STRING",
}

var tracingEnv = &tracing.Env{
	Enabled: "FORMFILL_TRACING_ENABLED",
	Output:  "FORMFILL_TRACING_OUTPUT",
}

// Config is the root configuration for formfill.
type Config struct {
	Agent           gaconfig.AgentConfig `toml:"agent"`
	Embedding       EmbeddingConfig      `toml:"embedding"`
	Index           IndexConfig          `toml:"index"`
	Extraction      ExtractionConfig     `toml:"extraction"`
	Documents       storage.Config       `toml:"documents"`
	Tracing         tracing.Config       `toml:"tracing"`
	Workflow        WorkflowConfig       `toml:"workflow"`
	Prompts         map[string]string    `toml:"prompts"`
	LogLevel        string               `toml:"log_level"`
	ShutdownTimeout string               `toml:"shutdown_timeout"`
	Version         string               `toml:"version"`
}

// Env returns the FORMFILL_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvFormfillEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// SlogLevel returns LogLevel as a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	for stage, text := range overlay.Prompts {
		if c.Prompts == nil {
			c.Prompts = make(map[string]string)
		}
		c.Prompts[stage] = text
	}
	c.Agent.Merge(&overlay.Agent)
	c.Embedding.Merge(&overlay.Embedding)
	c.Index.Merge(&overlay.Index)
	c.Extraction.Merge(&overlay.Extraction)
	c.Documents.Merge(&overlay.Documents)
	c.Tracing.Merge(&overlay.Tracing)
	c.Workflow.Merge(&overlay.Workflow)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := FinalizeAgent(&c.Agent); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Embedding.Finalize(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := c.Index.Finalize(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := c.Extraction.Finalize(); err != nil {
		return fmt.Errorf("extraction: %w", err)
	}
	if err := c.Documents.Finalize(documentsEnv); err != nil {
		return fmt.Errorf("documents: %w", err)
	}
	if err := c.Tracing.Finalize(tracingEnv); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if err := c.Workflow.Finalize(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "10s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvFormfillLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvFormfillShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvFormfillVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	for stage := range c.Prompts {
		if _, err := prompts.ParseStage(stage); err != nil {
			return fmt.Errorf("prompts: %w: %q", err, stage)
		}
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvFormfillEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
