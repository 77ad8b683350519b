package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kode4food/caravan"

	"github.com/JaimeStill/formfill/pkg/tracing"
)

// StepFunc handles one event and returns the events it emits. Returning no
// events is a valid outcome.
type StepFunc func(ctx context.Context, rc *RunContext, ev Event) ([]Event, error)

// Step is one entry of the engine's routing table. Concurrent steps run
// side by side, bounded by Options.MaxConcurrency; all other steps run one
// at a time in dispatch order and may write the RunContext. The run ends at
// its deadline even if a step has not returned.
type Step struct {
	Name       string
	Accepts    []Kind
	Concurrent bool
	Handle     StepFunc
}

// Options configure an Engine.
type Options struct {
	// Timeout bounds a whole run. Zero disables the bound.
	Timeout time.Duration
	// MaxConcurrency bounds in-flight concurrent steps per run.
	MaxConcurrency int
	// OnRunEnd is called with the run ID after a run finishes.
	OnRunEnd func(runID uuid.UUID)
	Logger   *slog.Logger
}

// Engine routes events to steps. Each Run is independent.
type Engine struct {
	routes map[Kind]*Step
	opts   Options
	logger *slog.Logger
}

// NewEngine builds the routing table. Each kind may be accepted by at most
// one step; InputRequired and Stop are handled by the engine itself.
func NewEngine(steps []Step, opts Options) (*Engine, error) {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	routes := make(map[Kind]*Step)
	for i := range steps {
		s := &steps[i]
		if s.Handle == nil {
			return nil, fmt.Errorf("step %s has no handler", s.Name)
		}
		for _, k := range s.Accepts {
			if k == KindInputRequired || k == KindStop {
				return nil, fmt.Errorf("%w: %s is handled by the engine", ErrDuplicateRoute, k)
			}
			if prev, ok := routes[k]; ok {
				return nil, fmt.Errorf("%w: %s accepted by %s and %s", ErrDuplicateRoute, k, prev.Name, s.Name)
			}
			routes[k] = s
		}
	}

	return &Engine{
		routes: routes,
		opts:   opts,
		logger: opts.Logger.With("system", "workflow"),
	}, nil
}

// Run starts a run from start and returns its Handler immediately.
func (e *Engine) Run(ctx context.Context, start StartEvent) *Handler {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if e.opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}

	stream := caravan.NewTopic[Event]()
	h := &Handler{
		runID:  uuid.New(),
		ctx:    runCtx,
		status: StatusRunning,
		stream: stream,
		prod:   stream.NewProducer(),
		cons:   stream.NewConsumer(),
		human:  make(chan HumanResponseEvent, 1),
		done:   make(chan struct{}),
	}

	r := &run{
		engine:  e,
		h:       h,
		rc:      newRunContext(h.runID),
		ctx:     runCtx,
		cancel:  cancel,
		results: make(chan stepResult),
		logger:  e.logger.With("run_id", h.runID),
	}

	go r.loop(start)
	return h
}

type stepResult struct {
	step   string
	events []Event
	err    error
}

// run holds the dispatch state of one execution. Only the loop goroutine
// touches queue, inflight, and awaiting.
type run struct {
	engine *Engine
	h      *Handler
	rc     *RunContext
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	queue    []Event
	inflight int
	awaiting bool
	results  chan stepResult
	wg       sync.WaitGroup
}

func (r *run) loop(start StartEvent) {
	r.logger.InfoContext(r.ctx, "run started")
	r.queue = append(r.queue, start)

	result, err := r.dispatch()
	r.finish(result, err)
}

func (r *run) dispatch() (string, error) {
	limit := r.engine.opts.MaxConcurrency

	for {
		for len(r.queue) > 0 {
			ev := r.queue[0]

			if err := r.ctx.Err(); err != nil {
				return "", err
			}

			switch ev := ev.(type) {
			case StopEvent:
				r.queue = r.queue[1:]
				r.h.publish(r.ctx, ev)
				return ev.Result, nil
			case InputRequiredEvent:
				r.queue = r.queue[1:]
				r.awaiting = true
				r.h.setStatus(StatusWaitingForHuman)
				r.h.publish(r.ctx, ev)
				continue
			}

			step, ok := r.engine.routes[ev.Kind()]
			if !ok {
				return "", fmt.Errorf("%w: %s", ErrNoStep, ev.Kind())
			}
			if step.Concurrent && r.inflight >= limit {
				break
			}

			r.queue = r.queue[1:]
			r.h.publish(r.ctx, ev)

			if step.Concurrent {
				r.inflight++
				r.wg.Go(func() {
					events, err := r.invoke(step, ev)
					select {
					case r.results <- stepResult{step: step.Name, events: events, err: err}:
					case <-r.ctx.Done():
					}
				})
				continue
			}

			events, err := r.invokeSequential(step, ev)
			if err != nil {
				return "", err
			}
			r.queue = append(r.queue, events...)
		}

		if len(r.queue) == 0 && r.inflight == 0 && !r.awaiting {
			return "", ErrDeadlock
		}

		select {
		case res := <-r.results:
			r.inflight--
			if res.err != nil {
				return "", res.err
			}
			r.queue = append(r.queue, res.events...)
		case hr := <-r.h.human:
			r.awaiting = false
			r.queue = append(r.queue, hr)
		case <-r.ctx.Done():
			return "", r.ctx.Err()
		}
	}
}

// invokeSequential runs a non-concurrent step and waits for it or for the
// run's context to end, whichever comes first.
func (r *run) invokeSequential(step *Step, ev Event) ([]Event, error) {
	done := make(chan stepResult, 1)
	r.wg.Go(func() {
		events, err := r.invoke(step, ev)
		done <- stepResult{step: step.Name, events: events, err: err}
	})

	select {
	case res := <-done:
		if err := r.ctx.Err(); err != nil {
			return nil, err
		}
		return res.events, res.err
	case <-r.ctx.Done():
		return nil, r.ctx.Err()
	}
}

func (r *run) invoke(step *Step, ev Event) (events []Event, err error) {
	ctx, span := tracing.StartSpan(r.ctx, "workflow.step", map[string]string{
		"run_id":     r.h.runID.String(),
		"step":       step.Name,
		"event.kind": string(ev.Kind()),
	})
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s: %v", ErrStepPanicked, step.Name, p)
		}
		tracing.EndSpan(span, err)

		r.logger.DebugContext(ctx, "step complete",
			"step", step.Name,
			"event", ev.Kind(),
			"emitted", len(events),
			"duration", time.Since(start),
			"error", err,
		)
	}()

	return step.Handle(ctx, r.rc, ev)
}

func (r *run) finish(result string, err error) {
	// Ended by deadline or caller: steps that ignore ctx may still be running.
	interrupted := r.ctx.Err() != nil
	if err != nil && errors.Is(r.ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %w", ErrWorkflowTimeout, r.engine.opts.Timeout, err)
	}

	r.cancel()

	if err != nil {
		r.logger.Error("run failed", "error", err)
	} else {
		r.logger.Info("run completed", "result_chars", len(result))
	}

	if interrupted {
		r.h.complete(result, err)
		go r.release()
		return
	}

	r.release()
	r.h.complete(result, err)
}

// release waits for in-flight steps, then frees the run's resources.
func (r *run) release() {
	r.wg.Wait()

	if err := r.rc.release(); err != nil {
		r.logger.Warn("release run resources", "error", err)
	}
	if r.engine.opts.OnRunEnd != nil {
		r.engine.opts.OnRunEnd(r.h.runID)
	}
}
