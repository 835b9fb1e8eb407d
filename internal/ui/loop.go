package ui

import (
	"context"
	"errors"
	"sync"
)

var ErrLoopStopped = errors.New("ui loop stopped")

type event struct {
	fn     func()
	notify bool
}

// Loop runs UI events one at a time on a single goroutine
type Loop struct {
	events   chan event
	done     chan struct{}
	stopOnce sync.Once
	onIdle   func()
}

// NewLoop creates a loop with a bounded event queue
func NewLoop(queueSize int) *Loop {
	return &Loop{
		events: make(chan event, queueSize),
		done:   make(chan struct{}),
	}
}

// SetOnIdle sets a hook run after every mutating event. Call before Run.
func (l *Loop) SetOnIdle(fn func()) {
	l.onIdle = fn
}

// Run processes events until ctx is cancelled. Panics raised by events are
// not recovered.
func (l *Loop) Run(ctx context.Context) {
	defer l.stopOnce.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-l.events:
			ev.fn()
			if ev.notify && l.onIdle != nil {
				l.onIdle()
			}
		}
	}
}

// Post queues a mutating event without waiting for it
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}

	select {
	case l.events <- event{fn: fn, notify: true}:
		return nil
	case <-l.done:
		return ErrLoopStopped
	}
}

// Invoke runs a mutating event and waits for it to finish
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	return l.call(ctx, fn, true)
}

// Query runs a read-only event and waits for it to finish
func (l *Loop) Query(ctx context.Context, fn func()) error {
	return l.call(ctx, fn, false)
}

func (l *Loop) call(ctx context.Context, fn func(), notify bool) error {
	finished := make(chan struct{})
	ev := event{
		fn: func() {
			defer close(finished)
			fn()
		},
		notify: notify,
	}

	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}

	select {
	case l.events <- ev:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
