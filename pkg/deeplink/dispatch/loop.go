// Package dispatch provides a serial execution loop for hosts that receive
// navigation requests or lifecycle signals on more than one goroutine.
//
// Every function posted to a Loop runs on the goroutine executing Run, one at
// a time, in submission order.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/atomic"

	"github.com/BrandonKowalski/deeplink/pkg/deeplink/internal"
)

// ErrClosed is returned when posting to a loop that has been closed.
var ErrClosed = errors.New("dispatch: loop closed")

// ErrRunning is returned by Run when the loop is already running.
var ErrRunning = errors.New("dispatch: loop already running")

const defaultBuffer = 64

// Loop is a single-goroutine task queue.
type Loop struct {
	tasks   chan func()
	quit    chan struct{}
	stopped chan struct{}

	running   atomic.Bool
	closed    atomic.Bool
	processed atomic.Uint64

	closeOnce sync.Once
	logger    *slog.Logger
}

// New creates a loop whose queue holds buffer pending tasks before Post
// blocks. A buffer <= 0 uses the default.
func New(buffer int) *Loop {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Loop{
		tasks:   make(chan func(), buffer),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		logger:  internal.GetLogger().With("subsystem", "dispatch"),
	}
}

// Run executes tasks until Close is called or ctx is done. It returns nil
// after Close and ctx.Err() on cancellation. Tasks still queued are dropped.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer close(l.stopped)

	for {
		select {
		case <-l.quit:
			return nil
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case fn := <-l.tasks:
			l.execute(fn)
		}
	}
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start(ctx context.Context) {
	go func() {
		if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Error("dispatch loop stopped", "error", err)
		}
	}()
}

// Post queues fn without waiting for it to run.
func (l *Loop) Post(fn func()) error {
	if l.closed.Load() {
		return ErrClosed
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.quit:
		return ErrClosed
	}
}

// Do queues fn and waits until it has run, ctx is done or the loop stops.
// Do must not be called from a task running on the same loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// Close stops the loop. It is safe to call more than once.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.quit)
	})
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.stopped
}

// Processed returns the number of tasks executed so far.
func (l *Loop) Processed() uint64 {
	return l.processed.Load()
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dispatch task panicked", "panic", fmt.Sprint(r))
		}
	}()
	defer l.processed.Inc()
	fn()
}
