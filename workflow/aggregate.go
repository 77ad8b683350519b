package workflow

import (
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type roundKey struct {
	runID uuid.UUID
	round int
}

// Aggregator buffers Response events until a round is complete.
type Aggregator struct {
	mu      sync.Mutex
	pending map[roundKey][]ResponseEvent
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{pending: make(map[roundKey][]ResponseEvent)}
}

// Add buffers resp for the run's round. When the buffer reaches total it is
// removed and returned with true; otherwise Add returns nil, false.
func (a *Aggregator) Add(runID uuid.UUID, round, total int, resp ResponseEvent) ([]ResponseEvent, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := roundKey{runID: runID, round: round}
	buf := append(a.pending[key], resp)
	if len(buf) < total {
		a.pending[key] = buf
		return nil, false
	}

	delete(a.pending, key)
	return buf, true
}

// Pending reports how many responses are buffered for the run's round.
func (a *Aggregator) Pending(runID uuid.UUID, round int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending[roundKey{runID: runID, round: round}])
}

// Discard drops every buffer belonging to the run.
func (a *Aggregator) Discard(runID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key := range a.pending {
		if key.runID == runID {
			delete(a.pending, key)
		}
	}
}

// RenderResponses orders responses by their field's position in fields and
// renders each as "Field:<name>\nResponse:<text>", joined by newlines.
func RenderResponses(fields []string, responses []ResponseEvent) string {
	pos := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, ok := pos[f]; !ok {
			pos[f] = i
		}
	}

	position := func(field string) int {
		if p, ok := pos[field]; ok {
			return p
		}
		return len(fields)
	}

	sorted := slices.Clone(responses)
	slices.SortStableFunc(sorted, func(a, b ResponseEvent) int {
		return position(a.Field) - position(b.Field)
	})

	lines := make([]string, len(sorted))
	for i, r := range sorted {
		lines[i] = "Field:" + r.Field + "\nResponse:" + r.Text
	}
	return strings.Join(lines, "\n")
}
