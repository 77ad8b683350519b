package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/formfill/internal/prompts"
)

// GetFeedbackStep classifies the reviewer's reply. An exact accept verdict
// stops the run with the filled form; anything else starts a revision
// round carrying the reply as feedback.
func GetFeedbackStep(rt *Runtime) Step {
	return Step{
		Name:    "get_feedback",
		Accepts: []Kind{KindHumanResponse},
		Handle: func(ctx context.Context, rc *RunContext, ev Event) ([]Event, error) {
			hr := ev.(HumanResponseEvent)

			verdict, err := rt.Completer.Complete(ctx, rt.Prompts.Classify(hr.Text))
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				rt.Logger.WarnContext(
					ctx, "feedback classification failed, treating as revision",
					"run_id", rc.RunID(),
					"error", err,
				)
			}

			accepted := err == nil && strings.TrimSpace(verdict) == prompts.AcceptToken

			rt.Logger.InfoContext(
				ctx, "feedback verdict",
				"run_id", rc.RunID(),
				"verdict", strings.TrimSpace(verdict),
				"accepted", accepted,
			)

			if !accepted {
				return []Event{FeedbackEvent{Text: hr.Text}}, nil
			}

			filled, err := rc.FilledForm()
			if err != nil {
				return nil, fmt.Errorf("get feedback: %w", err)
			}
			return []Event{StopEvent{Result: filled}}, nil
		},
	}
}
