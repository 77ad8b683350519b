package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/formfill/internal/prompts"
)

// GenerateQuestionsStep starts a query round, emitting one Query per field.
// Feedback from a rejected review is folded into every question.
func GenerateQuestionsStep(rt *Runtime) Step {
	return Step{
		Name:    "generate_questions",
		Accepts: []Kind{KindGenerateQuestions, KindFeedback},
		Handle: func(ctx context.Context, rc *RunContext, ev Event) ([]Event, error) {
			var feedback string
			switch e := ev.(type) {
			case GenerateQuestionsEvent:
				feedback = e.Feedback
			case FeedbackEvent:
				feedback = e.Text
			}

			fields, err := rc.Fields()
			if err != nil {
				return nil, fmt.Errorf("generate questions: %w", err)
			}

			round := rc.nextRound()
			rc.Set(KeyTotalFields, len(fields))

			rt.Logger.InfoContext(
				ctx, "generating questions",
				"run_id", rc.RunID(),
				"round", round,
				"fields", len(fields),
				"feedback", strings.TrimSpace(feedback) != "",
			)

			// Nothing to answer: go straight to review with an empty form.
			if len(fields) == 0 {
				rc.Set(KeyFilledForm, "")
				return []Event{InputRequiredEvent{Prompt: prompts.ReviewPrompt}}, nil
			}

			events := make([]Event, len(fields))
			for i, f := range fields {
				events[i] = QueryEvent{Field: f, Prompt: prompts.Question(f, feedback)}
			}
			return events, nil
		},
	}
}

// AskQuestionStep answers one field from the run's index. Steps of this
// kind run concurrently. A failed query yields an empty answer so the
// round can still complete.
func AskQuestionStep(rt *Runtime) Step {
	return Step{
		Name:       "ask_question",
		Accepts:    []Kind{KindQuery},
		Concurrent: true,
		Handle: func(ctx context.Context, rc *RunContext, ev Event) ([]Event, error) {
			q := ev.(QueryEvent)

			idx, err := rc.Index()
			if err != nil {
				return nil, fmt.Errorf("ask question: %w", err)
			}

			answer, err := idx.Query(ctx, prompts.ResumeQuery(q.Prompt))
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				rt.Logger.WarnContext(
					ctx, "query failed, using empty answer",
					"run_id", rc.RunID(),
					"field", q.Field,
					"error", err,
				)
				answer = ""
			}

			return []Event{ResponseEvent{Field: q.Field, Text: strings.TrimSpace(answer)}}, nil
		},
	}
}
