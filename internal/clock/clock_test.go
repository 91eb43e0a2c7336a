package clock

import (
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	f := NewFake()
	var got []string
	f.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	f.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	f.AfterFunc(200*time.Millisecond, func() { got = append(got, "b") })

	f.Advance(250 * time.Millisecond)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("fired %v, want [a b]", got)
	}
	if f.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", f.Pending())
	}

	f.Advance(time.Second)
	if len(got) != 3 {
		t.Fatalf("fired %v, want [a b c]", got)
	}
	if f.Elapsed() != 1250*time.Millisecond {
		t.Errorf("Elapsed() = %v, want 1.25s", f.Elapsed())
	}
}

func TestFakeStop(t *testing.T) {
	f := NewFake()
	fired := false
	timer := f.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Error("first Stop should report it prevented the callback")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}
	f.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestFakeTimerArmedByCallback(t *testing.T) {
	f := NewFake()
	var at time.Duration
	f.AfterFunc(100*time.Millisecond, func() {
		f.AfterFunc(100*time.Millisecond, func() { at = f.Elapsed() })
	})
	f.Advance(time.Second)
	if at != 200*time.Millisecond {
		t.Errorf("nested timer fired at %v, want 200ms", at)
	}
}

func TestQueueDrain(t *testing.T) {
	var q Queue
	var order []int
	q.Post(func() {
		order = append(order, 1)
		q.Post(func() { order = append(order, 3) })
	})
	q.Post(func() { order = append(order, 2) })

	if n := q.Drain(); n != 3 {
		t.Errorf("Drain() = %d, want 3", n)
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v, want [1 2 3]", order)
	}
}

// chanDispatcher delivers tasks to the test goroutine.
type chanDispatcher chan func()

func (c chanDispatcher) Post(task func()) { c <- task }

func TestRealDeliversThroughDispatcher(t *testing.T) {
	tasks := make(chanDispatcher, 1)
	r := NewReal(tasks)

	fired := make(chan struct{}, 1)
	r.AfterFunc(5*time.Millisecond, func() { fired <- struct{}{} })

	select {
	case task := <-tasks:
		task()
	case <-time.After(time.Second):
		t.Fatal("timer was never dispatched")
	}
	select {
	case <-fired:
	default:
		t.Fatal("callback did not run on the dispatched task")
	}
}

func TestRealStopWinsOverQueuedTask(t *testing.T) {
	tasks := make(chanDispatcher, 1)
	r := NewReal(tasks)

	fired := false
	timer := r.AfterFunc(time.Millisecond, func() { fired = true })

	var task func()
	select {
	case task = <-tasks:
	case <-time.After(time.Second):
		t.Fatal("timer was never dispatched")
	}

	// The wall-clock timer already fired; cancellation must still win
	// because the task has not run on the loop yet.
	timer.Stop()
	task()
	if fired {
		t.Error("callback ran after Stop")
	}
}

func TestRealStopBeforeDeadline(t *testing.T) {
	tasks := make(chanDispatcher, 1)
	r := NewReal(tasks)
	timer := r.AfterFunc(time.Hour, func() {})
	if !timer.Stop() {
		t.Error("Stop before deadline should report true")
	}
	if timer.Stop() {
		t.Error("repeated Stop should report false")
	}
}
