package workflow

import (
	"context"
	"fmt"

	"github.com/JaimeStill/formfill/internal/prompts"
)

// FillInApplicationStep collects the round's responses and, once every
// field has answered, synthesizes the filled form and asks for review.
func FillInApplicationStep(rt *Runtime, agg *Aggregator) Step {
	return Step{
		Name:    "fill_in_application",
		Accepts: []Kind{KindResponse},
		Handle: func(ctx context.Context, rc *RunContext, ev Event) ([]Event, error) {
			resp := ev.(ResponseEvent)

			round, err := rc.Round()
			if err != nil {
				return nil, fmt.Errorf("fill in application: %w", err)
			}
			total, err := rc.TotalFields()
			if err != nil {
				return nil, fmt.Errorf("fill in application: %w", err)
			}

			responses, ready := agg.Add(rc.RunID(), round, total, resp)
			if !ready {
				return nil, nil
			}

			fields, err := rc.Fields()
			if err != nil {
				return nil, fmt.Errorf("fill in application: %w", err)
			}

			filled, err := rt.Completer.Complete(ctx, rt.Prompts.Synthesize(RenderResponses(fields, responses)))
			if err != nil {
				return nil, fmt.Errorf("fill in application: %w", err)
			}
			rc.Set(KeyFilledForm, filled)

			rt.Logger.InfoContext(
				ctx, "application filled",
				"run_id", rc.RunID(),
				"round", round,
				"responses", len(responses),
			)

			return []Event{InputRequiredEvent{Prompt: prompts.ReviewPrompt, Payload: filled}}, nil
		},
	}
}
