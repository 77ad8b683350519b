package completion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Agent calls the configured go-agents provider. A fresh agent is created
// per call so concurrent callers share no client state.
type Agent struct {
	cfg    gaconfig.AgentConfig
	logger *slog.Logger
}

// NewAgent creates an Agent for a finalized go-agents configuration.
func NewAgent(cfg gaconfig.AgentConfig, logger *slog.Logger) *Agent {
	return &Agent{
		cfg:    cfg,
		logger: logger.With("system", "completion"),
	}
}

// Complete sends prompt as a single chat turn.
func (a *Agent) Complete(ctx context.Context, prompt string) (string, error) {
	ag, err := agent.New(&a.cfg)
	if err != nil {
		return "", fmt.Errorf("%w: create agent: %w", ErrCompletionFailed, err)
	}

	resp, err := ag.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: chat call: %w", ErrCompletionFailed, err)
	}

	return resp.Content(), nil
}

// Vision sends prompt with images attached.
func (a *Agent) Vision(ctx context.Context, prompt string, images []string) (string, error) {
	ag, err := agent.New(&a.cfg)
	if err != nil {
		return "", fmt.Errorf("%w: create agent: %w", ErrCompletionFailed, err)
	}

	resp, err := ag.Vision(ctx, prompt, images)
	if err != nil {
		return "", fmt.Errorf("%w: vision call: %w", ErrCompletionFailed, err)
	}

	a.logger.DebugContext(ctx, "vision call complete", "images", len(images))
	return resp.Content(), nil
}
