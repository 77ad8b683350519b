// Package lifecycle coordinates startup and shutdown hooks for the
// subsystems a fill run depends on.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// StartupHook prepares a subsystem. Hooks run concurrently and receive the
// coordinator's context.
type StartupHook func(ctx context.Context) error

// Coordinator manages startup and shutdown hooks for the application lifecycle.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	startupWg  sync.WaitGroup
	shutdownWg sync.WaitGroup

	mu          sync.Mutex
	startupErrs []error
	ready       bool
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup registers a hook to run concurrently during startup.
// Hook errors are collected and reported by WaitForStartup.
func (c *Coordinator) OnStartup(fn StartupHook) {
	c.startupWg.Go(func() {
		if err := fn(c.ctx); err != nil {
			c.mu.Lock()
			c.startupErrs = append(c.startupErrs, err)
			c.mu.Unlock()
		}
	})
}

// OnShutdown registers a function to run concurrently during shutdown.
// Shutdown hooks should block on <-c.Context().Done() before executing cleanup.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(fn)
}

// Ready reports whether every startup hook completed without error.
func (c *Coordinator) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// WaitForStartup blocks until all startup hooks have completed. It returns
// the joined hook errors; the coordinator is marked ready only when there are none.
func (c *Coordinator) WaitForStartup() error {
	c.startupWg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.startupErrs) > 0 {
		return fmt.Errorf("startup failed: %w", errors.Join(c.startupErrs...))
	}

	c.ready = true
	return nil
}

// Shutdown cancels the context and waits for shutdown hooks to complete
// within the given timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdownWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
