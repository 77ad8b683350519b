package driver_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/formfill/internal/driver"
	"github.com/JaimeStill/formfill/workflow"
)

var discard = slog.New(slog.DiscardHandler)

// reviewEngine asks for review and stops once the reply is "ok".
func reviewEngine(t *testing.T, timeout time.Duration) *workflow.Engine {
	t.Helper()

	e, err := workflow.NewEngine([]workflow.Step{
		{
			Name:    "start",
			Accepts: []workflow.Kind{workflow.KindStart},
			Handle: func(_ context.Context, _ *workflow.RunContext, ev workflow.Event) ([]workflow.Event, error) {
				s := ev.(workflow.StartEvent)
				return []workflow.Event{workflow.InputRequiredEvent{Prompt: "ok?", Payload: s.ResumeRef + "+" + s.FormRef}}, nil
			},
		},
		{
			Name:    "review",
			Accepts: []workflow.Kind{workflow.KindHumanResponse},
			Handle: func(_ context.Context, _ *workflow.RunContext, ev workflow.Event) ([]workflow.Event, error) {
				hr := ev.(workflow.HumanResponseEvent)
				if hr.Text == "ok" {
					return []workflow.Event{workflow.StopEvent{Result: "accepted"}}, nil
				}
				return []workflow.Event{workflow.InputRequiredEvent{Prompt: "again?", Payload: hr.Text}}, nil
			},
		},
	}, workflow.Options{Timeout: timeout, Logger: discard})
	require.NoError(t, err)
	return e
}

func TestFillRelaysReviews(t *testing.T) {
	var seen []string
	replies := []string{"change it", "ok"}

	reviewer := driver.ReviewerFunc(func(_ context.Context, prompt, form string) (string, error) {
		seen = append(seen, prompt+"|"+form)
		reply := replies[0]
		replies = replies[1:]
		return reply, nil
	})

	result, err := driver.Fill(context.Background(), reviewEngine(t, 0), "resume.md", "form.md", reviewer, discard)
	require.NoError(t, err)
	assert.Equal(t, "accepted", result)
	assert.Equal(t, []string{"ok?|resume.md+form.md", "again?|change it"}, seen)
}

func TestFillReviewerError(t *testing.T) {
	reviewer := driver.ReviewerFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("stdin closed")
	})

	_, err := driver.Fill(context.Background(), reviewEngine(t, 0), "r", "f", reviewer, discard)
	assert.ErrorContains(t, err, "stdin closed")
}

func TestFillTimeoutDuringReview(t *testing.T) {
	reviewer := driver.ReviewerFunc(func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	_, err := driver.Fill(context.Background(), reviewEngine(t, 50*time.Millisecond), "r", "f", reviewer, discard)
	assert.ErrorIs(t, err, workflow.ErrWorkflowTimeout)
}

func TestFillReplyAfterTimeout(t *testing.T) {
	reviewer := driver.ReviewerFunc(func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "ok", nil
	})

	_, err := driver.Fill(context.Background(), reviewEngine(t, 50*time.Millisecond), "r", "f", reviewer, discard)
	assert.ErrorIs(t, err, workflow.ErrWorkflowTimeout)
	assert.NotErrorIs(t, err, workflow.ErrNotWaiting)
}

func TestTerminalReview(t *testing.T) {
	var out bytes.Buffer
	term := driver.NewTerminal(strings.NewReader("looks good\r\n"), &out)

	reply, err := term.Review(context.Background(), "How does this look?", "Name: Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "looks good", reply)
	assert.Contains(t, out.String(), "We've filled in your form!")
	assert.Contains(t, out.String(), "Name: Jane Doe")
	assert.Contains(t, out.String(), "How does this look?")
}

func TestTerminalReviewFinalLineWithoutNewline(t *testing.T) {
	term := driver.NewTerminal(strings.NewReader("fine"), &bytes.Buffer{})

	reply, err := term.Review(context.Background(), "?", "")
	require.NoError(t, err)
	assert.Equal(t, "fine", reply)

	_, err = term.Review(context.Background(), "?", "")
	assert.Error(t, err)
}

func TestTerminalReviewCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := driver.NewTerminal(r, &bytes.Buffer{}).Review(ctx, "?", "")
	assert.ErrorIs(t, err, context.Canceled)
}
