// Package completion connects formfill to a language model. The workflow
// depends only on the Completer interface; Agent implements it, and Vision
// as well, through go-agents.
package completion

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrCompletionFailed wraps provider failures.
var ErrCompletionFailed = errors.New("completion failed")

// Completer returns generated text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VisionCompleter returns generated text for a prompt and a set of images
// encoded as data URIs.
type VisionCompleter interface {
	Vision(ctx context.Context, prompt string, images []string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Logged wraps a Completer and records the duration and size of each call.
func Logged(c Completer, logger *slog.Logger) Completer {
	return &logged{next: c, logger: logger}
}

type logged struct {
	next   Completer
	logger *slog.Logger
}

func (l *logged) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := l.next.Complete(ctx, prompt)

	if err != nil {
		l.logger.ErrorContext(ctx, "completion failed",
			"prompt_chars", len(prompt),
			"duration", time.Since(start),
			"error", err,
		)
		return "", err
	}

	l.logger.DebugContext(ctx, "completion",
		"prompt_chars", len(prompt),
		"response_chars", len(text),
		"duration", time.Since(start),
	)
	return text, nil
}
