package workflow

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/formfill/internal/completion"
	"github.com/JaimeStill/formfill/internal/extraction"
	"github.com/JaimeStill/formfill/internal/index"
	"github.com/JaimeStill/formfill/internal/prompts"
)

// Runtime bundles the dependencies the form-filling steps require.
// It is constructed by higher-level composition code from Infrastructure.
type Runtime struct {
	Extractor extraction.Extractor
	Builder   index.Builder
	Completer completion.Completer
	Prompts   *prompts.Library
	Logger    *slog.Logger
}

// Config sets the engine limits for form-filling runs.
type Config struct {
	Timeout        time.Duration
	MaxConcurrency int
}

// New builds the form-filling engine over rt.
func New(rt *Runtime, cfg Config) (*Engine, error) {
	if rt.Prompts == nil {
		rt.Prompts = prompts.Default()
	}
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}

	agg := NewAggregator()

	return NewEngine(Steps(rt, agg), Options{
		Timeout:        cfg.Timeout,
		MaxConcurrency: cfg.MaxConcurrency,
		OnRunEnd:       func(id uuid.UUID) { agg.Discard(id) },
		Logger:         rt.Logger,
	})
}

// Steps returns the form-filling routing table.
func Steps(rt *Runtime, agg *Aggregator) []Step {
	return []Step{
		SetupStep(rt),
		ParseFormStep(rt),
		GenerateQuestionsStep(rt),
		AskQuestionStep(rt),
		FillInApplicationStep(rt, agg),
		GetFeedbackStep(rt),
	}
}
