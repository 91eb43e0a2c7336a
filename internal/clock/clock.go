// Package clock provides cancellable one-shot timers whose callbacks run as
// tasks on a host event loop rather than on arbitrary goroutines.
package clock

import (
	"sync/atomic"
	"time"
)

// Timer is an owned handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the call prevented the
	// callback from running. Calling Stop more than once is safe.
	Stop() bool
}

// Scheduler arms one-shot timers.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Dispatcher posts a task to the host event loop. Tasks run one at a time,
// in the order they were posted.
type Dispatcher interface {
	Post(task func())
}

// DispatcherFunc adapts a function to a Dispatcher.
type DispatcherFunc func(task func())

// Post calls fn(task).
func (fn DispatcherFunc) Post(task func()) { fn(task) }

// Inline runs tasks synchronously on the caller's goroutine.
var Inline Dispatcher = DispatcherFunc(func(task func()) { task() })

// Real schedules timers on the wall clock and delivers callbacks through a
// Dispatcher.
type Real struct {
	dispatch Dispatcher
}

// NewReal creates a wall-clock scheduler delivering through d.
func NewReal(d Dispatcher) *Real {
	return &Real{dispatch: d}
}

// AfterFunc arms f to run on the host loop after d.
func (r *Real) AfterFunc(d time.Duration, f func()) Timer {
	t := &realTimer{}
	t.timer = time.AfterFunc(d, func() {
		r.dispatch.Post(func() {
			// Stop may have been requested while the task sat in the queue.
			if !t.fired.CompareAndSwap(false, true) {
				return
			}
			if t.stopped.Load() {
				return
			}
			f()
		})
	})
	return t
}

type realTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
	fired   atomic.Bool
}

func (t *realTimer) Stop() bool {
	if !t.stopped.CompareAndSwap(false, true) {
		return false
	}
	t.timer.Stop()
	return !t.fired.Load()
}
