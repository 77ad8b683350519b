package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/formfill/internal/extraction"
)

// SetupStep extracts the resume, builds the run's index from it, and hands
// the form on to be parsed.
func SetupStep(rt *Runtime) Step {
	return Step{
		Name:    "setup",
		Accepts: []Kind{KindStart},
		Handle: func(ctx context.Context, rc *RunContext, ev Event) ([]Event, error) {
			start := ev.(StartEvent)

			if strings.TrimSpace(start.ResumeRef) == "" {
				return nil, fmt.Errorf("setup: %w: resume", ErrMissingInput)
			}
			if strings.TrimSpace(start.FormRef) == "" {
				return nil, fmt.Errorf("setup: %w: application form", ErrMissingInput)
			}

			docs, err := rt.Extractor.Extract(ctx, start.ResumeRef, extraction.ResumeInstructions())
			if err != nil {
				return nil, fmt.Errorf("setup: %w: %w", ErrExtraction, err)
			}

			idx, err := rt.Builder.Build(ctx, docs)
			if err != nil {
				return nil, fmt.Errorf("setup: %w", err)
			}
			rc.Set(KeyIndex, idx)

			rt.Logger.InfoContext(
				ctx, "setup complete",
				"run_id", rc.RunID(),
				"resume", start.ResumeRef,
				"documents", len(docs),
			)

			return []Event{ParseFormEvent{FormRef: start.FormRef}}, nil
		},
	}
}
