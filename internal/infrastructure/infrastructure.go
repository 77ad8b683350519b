// Package infrastructure provides core service initialization for application startup.
// It assembles the dependencies (logging, storage, models, caches, tracing)
// that a form-filling run requires.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/formfill/internal/completion"
	"github.com/JaimeStill/formfill/internal/config"
	"github.com/JaimeStill/formfill/internal/embedding"
	"github.com/JaimeStill/formfill/internal/extraction"
	"github.com/JaimeStill/formfill/internal/index"
	"github.com/JaimeStill/formfill/internal/prompts"
	"github.com/JaimeStill/formfill/pkg/lifecycle"
	"github.com/JaimeStill/formfill/pkg/storage"
	"github.com/JaimeStill/formfill/pkg/tracing"
	"github.com/JaimeStill/formfill/workflow"
)

const serviceName = "formfill"

// Infrastructure holds the systems a form-filling run depends on.
// It provides a single point of initialization for lifecycle coordination,
// logging, document storage, model access, and the resume index.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Documents storage.System
	Tracing   *tracing.Provider
	Agent     *completion.Agent
	Completer completion.Completer
	Cache     *embedding.RedisCache
	Embedder  *embedding.Client
	Extractor *extraction.Service
	Builder   *index.VectorBuilder
	Prompts   *prompts.Library
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	docs, err := storage.New(&cfg.Documents, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	tp, err := tracing.Init(cfg.Tracing, serviceName, cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	lib, err := prompts.New(cfg.Prompts)
	if err != nil {
		return nil, fmt.Errorf("prompts init failed: %w", err)
	}

	agent := completion.NewAgent(cfg.Agent, logger)
	completer := completion.Logged(agent, logger)

	var cache *embedding.RedisCache
	var second embedding.Cache
	if cfg.Embedding.Redis.Enabled() {
		cache = embedding.NewRedisCache(embedding.RedisOptions{
			Addr:     cfg.Embedding.Redis.Addr,
			Password: cfg.Embedding.Redis.Password,
			DB:       cfg.Embedding.Redis.DB,
		})
		second = cache
	}

	embedder := embedding.NewClient(embedding.Options{
		BaseURL:   cfg.Embedding.BaseURL,
		Model:     cfg.Embedding.Model,
		APIKey:    cfg.Embedding.APIKey,
		Timeout:   cfg.Embedding.TimeoutDuration(),
		CacheSize: cfg.Embedding.CacheSize,
		CacheTTL:  cfg.Embedding.Redis.TTLDuration(),
	}, second, logger)

	extractor := extraction.New(docs, agent, extraction.Options{
		MaxDocumentSize: cfg.Extraction.MaxDocumentSizeBytes(),
		Concurrency:     cfg.Extraction.Concurrency,
	}, logger)

	builder := index.NewBuilder(index.Options{
		StorageDir:   cfg.Index.StorageDir,
		TopK:         cfg.Index.TopK,
		Chunker:      cfg.Index.Chunker,
		ChunkSize:    cfg.Index.ChunkSize,
		ChunkOverlap: cfg.Index.ChunkOverlap,
	}, embedder, completer, lib, logger)

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Documents: docs,
		Tracing:   tp,
		Agent:     agent,
		Completer: completer,
		Cache:     cache,
		Embedder:  embedder,
		Extractor: extractor,
		Builder:   builder,
		Prompts:   lib,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Storage and the redis cache are prepared at startup; the cache and
// tracing are released on shutdown.
func (i *Infrastructure) Start() error {
	if err := i.Documents.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}

	if i.Cache != nil {
		i.Lifecycle.OnStartup(func(ctx context.Context) error {
			if err := i.Cache.Ping(ctx); err != nil {
				return fmt.Errorf("redis ping failed: %w", err)
			}
			i.Logger.Info("embedding cache connected")
			return nil
		})
		i.Lifecycle.OnShutdown(func() {
			<-i.Lifecycle.Context().Done()
			if err := i.Cache.Close(); err != nil {
				i.Logger.Error("redis close failed", "error", err)
			}
		})
	}

	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		if err := i.Tracing.Shutdown(context.Background()); err != nil {
			i.Logger.Error("tracing shutdown failed", "error", err)
		}
	})

	return nil
}

// Runtime returns the dependencies the form-filling steps require.
func (i *Infrastructure) Runtime() *workflow.Runtime {
	return &workflow.Runtime{
		Extractor: i.Extractor,
		Builder:   i.Builder,
		Completer: i.Completer,
		Prompts:   i.Prompts,
		Logger:    i.Logger,
	}
}
