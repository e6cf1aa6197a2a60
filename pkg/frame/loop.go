// Package frame provides the deferred-execution primitive used by cordyceps
// containers: a single-threaded FIFO task loop that runs callbacks only after
// the caller's synchronous work has finished.
//
// Tasks are queued with Defer and run by Pump, which drains the tasks that
// were pending when it started. A task deferred by a running task waits for
// the next pump, so every task runs at most once per frame. Run drives Pump
// from a single goroutine, either aligned to a frame interval (ModeFrame) or
// as soon as work is queued (ModeImmediate, the zero-delay fallback).
//
//	loop := frame.NewLoop(frame.ModeFrame, 16*time.Millisecond)
//	go loop.Run(ctx)
//	loop.Defer(func() { ... })
package frame

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-drift/cordyceps/pkg/errors"
)

// DefaultInterval is the frame interval used when none is configured.
const DefaultInterval = 16 * time.Millisecond

// ErrSettleTimeout is returned when Settle exceeds its pump limit.
var ErrSettleTimeout = stderrors.New("frame: loop did not settle")

// ErrRunning is returned when Run is called on a loop that is already running.
var ErrRunning = stderrors.New("frame: loop is already running")

// Scheduler runs a callback once, after the current synchronous execution
// completes. Callbacks run in the order they were deferred.
type Scheduler interface {
	Defer(task func())
}

// Mode selects how Run drives the loop.
type Mode int

const (
	// ModeFrame pumps once per frame interval while work is pending.
	ModeFrame Mode = iota
	// ModeImmediate pumps as soon as a task is deferred.
	ModeImmediate
)

func (m Mode) String() string {
	switch m {
	case ModeFrame:
		return "frame"
	case ModeImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// ParseMode maps a configuration value onto a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "frame":
		return ModeFrame, true
	case "immediate", "timer":
		return ModeImmediate, true
	default:
		return ModeFrame, false
	}
}

// Stats summarizes the work a loop has done.
type Stats struct {
	Frames   int
	Tasks    int
	Pending  int
	LastPump time.Time
}

// Loop is a FIFO task queue. Defer is safe for concurrent use; tasks only
// ever run on the goroutine calling Pump.
type Loop struct {
	mode     Mode
	interval time.Duration

	mu       sync.Mutex
	queue    []func()
	frames   int
	tasks    int
	lastPump time.Time

	wake    chan struct{}
	running atomic.Bool

	// OnNeedsFrame is called when a task is queued, signalling an external
	// driver that the loop should be pumped.
	OnNeedsFrame func()
}

// NewLoop creates a loop. A non-positive interval selects DefaultInterval.
func NewLoop(mode Mode, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		mode:     mode,
		interval: interval,
		wake:     make(chan struct{}, 1),
	}
}

// Mode returns the driving mode.
func (l *Loop) Mode() Mode {
	return l.mode
}

// Interval returns the frame interval.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Defer queues task for the next pump. Nil tasks are ignored.
func (l *Loop) Defer(task func()) {
	if task == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	if l.OnNeedsFrame != nil {
		l.OnNeedsFrame()
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Pump runs the tasks that were queued when it was called, in order, and
// returns how many ran. A panicking task is reported and does not stop the
// tasks after it.
func (l *Loop) Pump() int {
	tasks := l.drain()
	for _, task := range tasks {
		runTask(task)
	}

	l.mu.Lock()
	l.frames++
	l.tasks += len(tasks)
	l.lastPump = Now()
	l.mu.Unlock()
	return len(tasks)
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	tasks := l.queue
	l.queue = nil
	return tasks
}

func runTask(task func()) {
	defer errors.Recover("frame.Loop.Pump")
	task()
}

// Settle pumps until no tasks are pending. It gives up after limit pumps
// and returns ErrSettleTimeout.
func (l *Loop) Settle(limit int) error {
	for i := 0; i < limit; i++ {
		if l.Pending() == 0 {
			return nil
		}
		l.Pump()
	}
	if l.Pending() == 0 {
		return nil
	}
	return ErrSettleTimeout
}

// Stats returns a snapshot of the loop counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Frames:   l.frames,
		Tasks:    l.tasks,
		Pending:  len(l.queue),
		LastPump: l.lastPump,
	}
}

// Run drives the loop until ctx is cancelled. The calling goroutine becomes
// the loop's only task runner. Run returns ctx.Err() on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer l.running.Store(false)

	if l.mode == ModeImmediate {
		return l.runImmediate(ctx)
	}
	return l.runFrames(ctx)
}

func (l *Loop) runImmediate(ctx context.Context) error {
	for {
		if l.Pending() > 0 {
			l.Pump()
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) runFrames(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.Pending() > 0 {
				l.Pump()
			}
		}
	}
}
