// Package workflow implements the form-filling workflow: an event-driven
// engine that routes typed events through a fixed table of steps, fans
// field queries out across goroutines, fans the answers back in, and
// suspends for human review until the filled form is accepted.
package workflow

import "errors"

// Sentinel errors for workflow operations.
var (
	ErrMissingInput         = errors.New("missing input")
	ErrExtraction           = errors.New("document extraction failed")
	ErrMalformedModelOutput = errors.New("malformed model output")
	ErrWorkflowTimeout      = errors.New("workflow timed out")
	ErrDeadlock             = errors.New("workflow stalled with no pending events")
	ErrNoStep               = errors.New("no step accepts event")
	ErrDuplicateRoute       = errors.New("event kind accepted by more than one step")
	ErrNotWaiting           = errors.New("run is not waiting for input")
	ErrStepPanicked         = errors.New("step panicked")
	ErrMissingState         = errors.New("missing run state")
)
