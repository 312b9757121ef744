// Package application contains use-case orchestration services.
package application

import (
	"context"
	"sync"
)

// Dispatcher serialises every view-state transition onto a single goroutine.
// Backend round trips run on the caller's goroutine; only the state changes
// before and after them are dispatched. Functions passed to Do must not call
// Do themselves.
type Dispatcher struct {
	queue    chan func()
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewDispatcher creates a Dispatcher. Run must be started before Do is called.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		queue:   make(chan func()),
		stopped: make(chan struct{}),
	}
}

// Run executes dispatched functions in arrival order. It blocks until the
// context is canceled; every later Do returns ErrDispatcherStopped.
func (d *Dispatcher) Run(ctx context.Context) {
	defer d.stopOnce.Do(func() { close(d.stopped) })

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-d.queue:
			fn()
		}
	}
}

// Do runs fn on the dispatch goroutine and waits for it to return. It fails
// if ctx is canceled or the loop has stopped before fn was accepted; once
// accepted, fn always runs to completion.
func (d *Dispatcher) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case d.queue <- wrapped:
	case <-d.stopped:
		return ErrDispatcherStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	<-done
	return nil
}
