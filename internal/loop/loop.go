// Package loop implements a single-threaded task loop. Every task posted to a
// Loop runs on the loop's goroutine, one at a time, in posting order, so the
// state those tasks touch needs no locking.
package loop

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Do when the loop no longer accepts tasks.
var ErrClosed = errors.New("loop closed")

// Loop is an unbounded FIFO of tasks drained by Run.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	done chan struct{}
}

// New creates a loop. Call Run to start draining it.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post enqueues task. Tasks posted after Close are dropped.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()
	l.signal()
}

// Do posts task and waits until it has run. It must not be called from a
// task running on the same loop.
func (l *Loop) Do(ctx context.Context, task func()) error {
	ran := make(chan struct{})
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, func() {
		task()
		close(ran)
	})
	l.mu.Unlock()
	l.signal()

	select {
	case <-ran:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is cancelled or Close is called. Tasks still
// queued at that point are discarded.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.wake:
		}

		for {
			task, ok := l.pop()
			if !ok {
				break
			}
			task()
		}

		if l.isClosed() {
			return nil
		}
	}
}

// Close stops the loop from accepting tasks and discards queued ones. It is
// safe to call more than once.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.mu.Unlock()
	l.signal()
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
