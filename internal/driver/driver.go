// Package driver runs a form-filling workflow to completion, relaying each
// review request to a Reviewer and feeding the reply back into the run.
package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/formfill/workflow"
)

// Reviewer shows the filled form to a human and returns their reply.
type Reviewer interface {
	Review(ctx context.Context, prompt, form string) (string, error)
}

// ReviewerFunc adapts a function to the Reviewer interface.
type ReviewerFunc func(ctx context.Context, prompt, form string) (string, error)

// Review calls f.
func (f ReviewerFunc) Review(ctx context.Context, prompt, form string) (string, error) {
	return f(ctx, prompt, form)
}

// Fill starts a run for the resume and form and blocks until it ends,
// returning the accepted form text. Review requests are answered by
// reviewer under the run's context, so a run timeout also interrupts a
// pending review.
func Fill(
	ctx context.Context,
	engine *workflow.Engine,
	resumeRef, formRef string,
	reviewer Reviewer,
	logger *slog.Logger,
) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := engine.Run(ctx, workflow.StartEvent{ResumeRef: resumeRef, FormRef: formRef})
	defer h.Close()

	logger = logger.With("run_id", h.RunID())
	logger.InfoContext(ctx, "fill started", "resume", resumeRef, "form", formRef)

	for {
		select {
		case ev := <-h.Events():
			ir, ok := ev.(workflow.InputRequiredEvent)
			if !ok {
				logger.DebugContext(ctx, "event", "kind", ev.Kind())
				continue
			}

			logger.InfoContext(ctx, "We've filled in your form!", "chars", len(ir.Payload))

			reply, err := reviewer.Review(h.Context(), ir.Prompt, ir.Payload)
			if err != nil {
				// A review cut short by the run ending reports the run's error.
				if h.Context().Err() != nil {
					return h.Wait()
				}
				return "", fmt.Errorf("review: %w", err)
			}

			if err := h.Respond(workflow.HumanResponseEvent{Text: reply}); err != nil {
				if h.Context().Err() != nil {
					return h.Wait()
				}
				return "", fmt.Errorf("respond: %w", err)
			}
		case <-h.Done():
			result, err := h.Wait()
			if err != nil {
				return "", err
			}
			logger.InfoContext(ctx, "fill completed")
			return result, nil
		}
	}
}
