package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/formfill/internal/extraction"
	"github.com/JaimeStill/formfill/internal/index"
	"github.com/JaimeStill/formfill/internal/prompts"
)

type fakeExtractor struct {
	docs map[string][]extraction.Document
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, ref string, _ extraction.Instructions) ([]extraction.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	docs, ok := f.docs[ref]
	if !ok {
		return nil, errors.New("not found: " + ref)
	}
	return docs, nil
}

type fakeIndex struct {
	answers map[string]string
	err     error

	mu      sync.Mutex
	queries []string
	closed  bool
}

func (x *fakeIndex) Query(_ context.Context, question string) (string, error) {
	x.mu.Lock()
	x.queries = append(x.queries, question)
	x.mu.Unlock()

	if x.err != nil {
		return "", x.err
	}
	for field, answer := range x.answers {
		if strings.Contains(question, "<field>"+field+"</field>") {
			return answer, nil
		}
	}
	return "", nil
}

func (x *fakeIndex) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	return nil
}

func (x *fakeIndex) Queries() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string(nil), x.queries...)
}

type fakeBuilder struct {
	idx index.Index
}

func (b *fakeBuilder) Build(context.Context, []extraction.Document) (index.Index, error) {
	return b.idx, nil
}

// scriptedCompleter answers each prompt stage from a fixed script and
// records the synthesis prompts it receives.
type scriptedCompleter struct {
	fieldList string
	verdicts  []string

	mu         sync.Mutex
	syntheses  []string
	classified int
}

func (c *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case strings.Contains(prompt, "<responses>"):
		c.syntheses = append(c.syntheses, prompt)
		return "filled form v" + string(rune('0'+len(c.syntheses))), nil
	case strings.Contains(prompt, "<form>"):
		return c.fieldList, nil
	case strings.Contains(prompt, "<feedback>"):
		i := c.classified
		c.classified++
		if i < len(c.verdicts) {
			return c.verdicts[i], nil
		}
		return prompts.ReviseToken, nil
	}
	return "", errors.New("unexpected prompt")
}

func (c *scriptedCompleter) Syntheses() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.syntheses...)
}

type runOutcome struct {
	result string
	err    error
	events []Event
	asked  []InputRequiredEvent
}

// drive consumes a run's events, answering each review request with the
// next reply. It returns once the run ends and its events are drained.
func drive(t *testing.T, h *Handler, replies ...string) runOutcome {
	t.Helper()
	defer h.Close()

	var out runOutcome
	next := 0

	handle := func(ev Event) {
		out.events = append(out.events, ev)
		ir, ok := ev.(InputRequiredEvent)
		if !ok {
			return
		}
		out.asked = append(out.asked, ir)
		if next < len(replies) {
			require.NoError(t, h.Respond(HumanResponseEvent{Text: replies[next]}))
			next++
		}
	}

	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev := <-h.Events():
			handle(ev)
		case <-h.Done():
			for {
				select {
				case ev := <-h.Events():
					handle(ev)
				case <-time.After(100 * time.Millisecond):
					out.result, out.err = h.Wait()
					return out
				}
			}
		case <-timeout:
			t.Fatal("run did not finish")
		}
	}
}

func kinds(events []Event) []Kind {
	out := make([]Kind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind()
	}
	return out
}

func countKind(events []Event, k Kind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind() == k {
			n++
		}
	}
	return n
}
