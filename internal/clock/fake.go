package clock

import (
	"sort"
	"time"
)

// Fake is a manually advanced Scheduler for tests. It is not safe for
// concurrent use; callbacks run synchronously inside Advance.
type Fake struct {
	now    time.Duration
	seq    uint64
	timers []*fakeTimer
}

// NewFake creates a fake scheduler at elapsed time zero.
func NewFake() *Fake {
	return &Fake{}
}

type fakeTimer struct {
	owner *Fake
	at    time.Duration
	seq   uint64
	fn    func()
	done  bool
}

func (t *fakeTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	t.owner.remove(t)
	return true
}

// AfterFunc arms f to run once the fake clock passes now+d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	f.seq++
	t := &fakeTimer{owner: f, at: f.now + d, seq: f.seq, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves the clock forward by d, firing due timers in deadline order.
// Timers armed by a firing callback fire in the same call if they fall due.
func (f *Fake) Advance(d time.Duration) {
	target := f.now + d
	for {
		next := f.next(target)
		if next == nil {
			break
		}
		f.now = next.at
		next.done = true
		f.remove(next)
		next.fn()
	}
	f.now = target
}

// AdvanceTo moves the clock to the absolute elapsed time at.
func (f *Fake) AdvanceTo(at time.Duration) {
	if at > f.now {
		f.Advance(at - f.now)
	}
}

// Elapsed returns the fake time since creation.
func (f *Fake) Elapsed() time.Duration {
	return f.now
}

// Pending returns the number of armed timers.
func (f *Fake) Pending() int {
	return len(f.timers)
}

// Deadlines returns the elapsed times at which armed timers fire, earliest first.
func (f *Fake) Deadlines() []time.Duration {
	out := make([]time.Duration, 0, len(f.timers))
	for _, t := range f.timers {
		out = append(out, t.at)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (f *Fake) next(limit time.Duration) *fakeTimer {
	var best *fakeTimer
	for _, t := range f.timers {
		if t.at > limit {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (f *Fake) remove(t *fakeTimer) {
	for i, cur := range f.timers {
		if cur == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return
		}
	}
}

// Queue is a Dispatcher that holds posted tasks until Drain. It stands in for
// a host loop whose tasks run later than the code that posted them.
type Queue struct {
	tasks []func()
}

// Post appends task to the queue.
func (q *Queue) Post(task func()) {
	q.tasks = append(q.tasks, task)
}

// Drain runs queued tasks, including tasks they post, until the queue is empty.
// It returns the number of tasks run.
func (q *Queue) Drain() int {
	n := 0
	for len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		task()
		n++
	}
	return n
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	return len(q.tasks)
}
