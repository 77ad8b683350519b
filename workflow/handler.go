package workflow

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/kode4food/caravan/closer"
	"github.com/kode4food/caravan/topic"
)

// Handler observes and steers one run.
type Handler struct {
	runID uuid.UUID
	ctx   context.Context

	mu     sync.Mutex
	status Status

	stream    topic.Topic[Event]
	prod      topic.Producer[Event]
	cons      topic.Consumer[Event]
	closeOnce sync.Once
	human     chan HumanResponseEvent

	done   chan struct{}
	result string
	err    error
}

// RunID identifies the run.
func (h *Handler) RunID() uuid.UUID {
	return h.runID
}

// Context returns the run's context, which carries the run deadline and is
// cancelled when the run ends.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Status reports the run's current state.
func (h *Handler) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Events streams every event the run dequeues, in dispatch order.
// InputRequired events are published after the run starts waiting, so
// Respond may be called as soon as one is received.
func (h *Handler) Events() <-chan Event {
	return h.cons.Receive()
}

// Respond resumes a run waiting for human input.
// Returns ErrNotWaiting if no InputRequired event is outstanding.
func (h *Handler) Respond(ev HumanResponseEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.status != StatusWaitingForHuman {
		return ErrNotWaiting
	}
	h.status = StatusRunning
	h.human <- ev
	return nil
}

// Done is closed when the run ends.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the run ends and returns the Stop result or the error
// that ended the run.
func (h *Handler) Wait() (string, error) {
	<-h.done
	return h.result, h.err
}

// Close stops the event stream and releases it once the run has ended.
// Call it when the run's events are no longer needed; later calls do
// nothing.
func (h *Handler) Close() {
	h.closeOnce.Do(func() {
		h.cons.Close()
		go func() {
			<-h.done
			if c, ok := h.stream.(closer.Closer); ok {
				c.Close()
			}
		}()
	})
}

func (h *Handler) setStatus(s Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = s
}

func (h *Handler) publish(ctx context.Context, ev Event) {
	select {
	case h.prod.Send() <- ev:
	case <-ctx.Done():
	}
}

func (h *Handler) complete(result string, err error) {
	h.mu.Lock()
	if err != nil {
		h.status = StatusFailed
	} else {
		h.status = StatusCompleted
	}
	h.result, h.err = result, err
	h.mu.Unlock()

	h.prod.Close()
	close(h.done)
}
