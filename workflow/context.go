package workflow

import (
	"fmt"
	"sync"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
	"github.com/google/uuid"

	"github.com/JaimeStill/formfill/internal/index"
)

// RunContext is the keyed store shared by the steps of one run. Writes
// happen on the dispatch goroutine; concurrent steps only read.
type RunContext struct {
	runID uuid.UUID

	mu    sync.RWMutex
	state state.State
}

func newRunContext(runID uuid.UUID) *RunContext {
	return &RunContext{
		runID: runID,
		state: state.New(nil),
	}
}

// RunID identifies the run.
func (c *RunContext) RunID() uuid.UUID {
	return c.runID
}

// Set stores value under key.
func (c *RunContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.Set(key, value)
}

// Get returns the value stored under key.
func (c *RunContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Get(key)
}

// Fields returns the form fields in the order they were parsed.
func (c *RunContext) Fields() ([]string, error) {
	return get[[]string](c, KeyFieldsToFill)
}

// TotalFields returns the number of responses the current round expects.
func (c *RunContext) TotalFields() (int, error) {
	return get[int](c, KeyTotalFields)
}

// FilledForm returns the last synthesized form.
func (c *RunContext) FilledForm() (string, error) {
	return get[string](c, KeyFilledForm)
}

// Round returns the current query round, starting at 1.
func (c *RunContext) Round() (int, error) {
	return get[int](c, KeyRound)
}

// Index returns the knowledge index built during setup.
func (c *RunContext) Index() (index.Index, error) {
	return get[index.Index](c, KeyIndex)
}

func (c *RunContext) nextRound() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	round := 1
	if v, ok := c.state.Get(KeyRound); ok {
		if r, ok := v.(int); ok {
			round = r + 1
		}
	}
	c.state = c.state.Set(KeyRound, round)
	return round
}

// release closes resources owned by the run.
func (c *RunContext) release() error {
	idx, err := c.Index()
	if err != nil {
		return nil
	}
	return idx.Close()
}

func get[T any](c *RunContext, key string) (T, error) {
	var zero T

	v, ok := c.Get(key)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrMissingState, key)
	}

	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s has type %T", ErrMissingState, key, v)
	}
	return t, nil
}
