package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/formfill/pkg/formatting"
)

const (
	EnvExtractionMaxDocumentSize = "FORMFILL_EXTRACTION_MAX_DOCUMENT_SIZE"
	EnvExtractionConcurrency     = "FORMFILL_EXTRACTION_CONCURRENCY"
)

// ExtractionConfig bounds document extraction.
type ExtractionConfig struct {
	MaxDocumentSize string `toml:"max_document_size"`
	Concurrency     int    `toml:"concurrency"`
}

// MaxDocumentSizeBytes returns MaxDocumentSize as a byte count.
func (c *ExtractionConfig) MaxDocumentSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxDocumentSize)
	if err != nil {
		return 25 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ExtractionConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ExtractionConfig) Merge(overlay *ExtractionConfig) {
	if overlay.MaxDocumentSize != "" {
		c.MaxDocumentSize = overlay.MaxDocumentSize
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
}

func (c *ExtractionConfig) loadDefaults() {
	if c.MaxDocumentSize == "" {
		c.MaxDocumentSize = "25MB"
	}
}

func (c *ExtractionConfig) loadEnv() {
	if v := os.Getenv(EnvExtractionMaxDocumentSize); v != "" {
		c.MaxDocumentSize = v
	}
	if v := os.Getenv(EnvExtractionConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}
}

func (c *ExtractionConfig) validate() error {
	if _, err := formatting.ParseBytes(c.MaxDocumentSize); err != nil {
		return fmt.Errorf("invalid max_document_size: %w", err)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("invalid concurrency: %d", c.Concurrency)
	}
	return nil
}
