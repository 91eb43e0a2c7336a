package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// taskMsg carries a function to run inside Update.
type taskMsg struct{ run func() }

// batchMsg delivers everything queued since the last Wait.
type batchMsg struct{ msgs []tea.Msg }

// Inbox funnels work from timers, trackers and watchers into the Bubble Tea
// update loop. It implements clock.Dispatcher: posted tasks run inside Update,
// one at a time, so engine state is only ever touched from there. Post and
// Send never block.
type Inbox struct {
	mu     sync.Mutex
	queue  []tea.Msg
	closed bool

	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Post queues task to run on the update loop.
func (b *Inbox) Post(task func()) {
	b.Send(taskMsg{run: task})
}

// Send queues an arbitrary message for the update loop.
func (b *Inbox) Send(msg tea.Msg) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Wait returns a command that blocks until something is queued and then
// delivers the whole queue as one batch. Only one Wait should be in flight.
func (b *Inbox) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.signal:
		case <-b.done:
			return nil
		}
		return batchMsg{msgs: b.take()}
	}
}

// Close drops queued messages and releases any pending Wait.
func (b *Inbox) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.queue = nil
		b.mu.Unlock()
		close(b.done)
	})
}

func (b *Inbox) take() []tea.Msg {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := b.queue
	b.queue = nil
	return msgs
}

// Len returns the number of queued messages.
func (b *Inbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
