// Package event provides the single logical UI thread that all screen state
// is mutated on. Results of background work are handed back through a
// Dispatcher instead of being applied from the worker goroutine.
package event

import (
	"context"
	"sync"
)

// Dispatcher runs functions on the UI event thread
type Dispatcher interface {
	// Do schedules fn to run on the event thread. It must not block until
	// fn has run.
	Do(fn func())
}

// DispatcherFunc adapts a plain function such as fyne.Do to a Dispatcher
type DispatcherFunc func(fn func())

// Do calls f(fn)
func (f DispatcherFunc) Do(fn func()) {
	f(fn)
}

// Loop is a Dispatcher backed by a single goroutine, used when there is no
// toolkit event loop (headless CLI mode)
type Loop struct {
	fns  chan func()
	done chan struct{}
	once sync.Once
}

// NewLoop creates a loop with the given queue capacity
func NewLoop(capacity int) *Loop {
	if capacity <= 0 {
		capacity = 64
	}
	return &Loop{
		fns:  make(chan func(), capacity),
		done: make(chan struct{}),
	}
}

// Do queues fn. Functions queued after the loop stopped are dropped.
func (l *Loop) Do(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}

	select {
	case l.fns <- fn:
	case <-l.done:
	}
}

// Run executes queued functions in order until ctx is cancelled or Stop is
// called. It must be called from exactly one goroutine.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return
		case <-l.done:
			return
		case fn := <-l.fns:
			fn()
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (l *Loop) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}

// Call runs fn on the loop and waits for it to finish. It returns false if
// the loop stopped before fn ran.
func (l *Loop) Call(fn func()) bool {
	ran := make(chan struct{})
	l.Do(func() {
		fn()
		close(ran)
	})

	select {
	case <-ran:
		return true
	case <-l.done:
		return false
	}
}
