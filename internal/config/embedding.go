package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvEmbeddingBaseURL   = "FORMFILL_EMBEDDING_BASE_URL"
	EnvEmbeddingModel     = "FORMFILL_EMBEDDING_MODEL"
	EnvEmbeddingAPIKey    = "FORMFILL_INDEX_API_KEY"
	EnvEmbeddingTimeout   = "FORMFILL_EMBEDDING_TIMEOUT"
	EnvEmbeddingCacheSize = "FORMFILL_EMBEDDING_CACHE_SIZE"
	EnvRedisAddr          = "FORMFILL_REDIS_ADDR"
	EnvRedisPassword      = "FORMFILL_REDIS_PASSWORD"
	EnvRedisTTL           = "FORMFILL_REDIS_TTL"
)

// EmbeddingConfig describes the OpenAI-compatible embeddings endpoint used
// to index the resume, and its cache.
type EmbeddingConfig struct {
	BaseURL   string      `toml:"base_url"`
	Model     string      `toml:"model"`
	APIKey    string      `toml:"api_key"`
	Timeout   string      `toml:"timeout"`
	CacheSize int         `toml:"cache_size"`
	Redis     RedisConfig `toml:"redis"`
}

// RedisConfig enables a shared second-level embedding cache when Addr is set.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	TTL      string `toml:"ttl"`
}

// Enabled reports whether a redis address is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// TTLDuration returns TTL as a time.Duration.
func (c *RedisConfig) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *EmbeddingConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EmbeddingConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EmbeddingConfig) Merge(overlay *EmbeddingConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.CacheSize != 0 {
		c.CacheSize = overlay.CacheSize
	}
	if overlay.Redis.Addr != "" {
		c.Redis.Addr = overlay.Redis.Addr
	}
	if overlay.Redis.Password != "" {
		c.Redis.Password = overlay.Redis.Password
	}
	if overlay.Redis.DB != 0 {
		c.Redis.DB = overlay.Redis.DB
	}
	if overlay.Redis.TTL != "" {
		c.Redis.TTL = overlay.Redis.TTL
	}
}

func (c *EmbeddingConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "text-embedding-3-small"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.CacheSize == 0 {
		c.CacheSize = 2048
	}
	if c.Redis.TTL == "" {
		c.Redis.TTL = "24h"
	}
}

func (c *EmbeddingConfig) loadEnv() {
	set := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(EnvEmbeddingBaseURL, &c.BaseURL)
	set(EnvEmbeddingModel, &c.Model)
	set(EnvEmbeddingAPIKey, &c.APIKey)
	set(EnvEmbeddingTimeout, &c.Timeout)
	set(EnvRedisAddr, &c.Redis.Addr)
	set(EnvRedisPassword, &c.Redis.Password)
	set(EnvRedisTTL, &c.Redis.TTL)

	if v := os.Getenv(EnvEmbeddingCacheSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CacheSize = n
		}
	}
}

func (c *EmbeddingConfig) validate() error {
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("invalid cache_size: %d", c.CacheSize)
	}
	if _, err := time.ParseDuration(c.Redis.TTL); err != nil {
		return fmt.Errorf("invalid redis ttl: %w", err)
	}
	return nil
}
