package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrollguide/guide/internal/clock"
	"github.com/scrollguide/guide/internal/section"
	"github.com/scrollguide/guide/internal/visibility"
)

// fakeTracker hands the engine's emit function to the test so events can be
// injected directly.
type fakeTracker struct {
	emit     func(visibility.Event)
	accept   map[string]bool
	detaches int
	log      *[]string
}

func (f *fakeTracker) Attach(ids []string, emit func(visibility.Event)) []string {
	f.emit = emit
	var observed []string
	for _, id := range ids {
		if f.accept == nil || f.accept[id] {
			observed = append(observed, id)
		}
	}
	return observed
}

func (f *fakeTracker) Detach() {
	f.detaches++
	if f.log != nil {
		*f.log = append(*f.log, "tracker")
	}
}

func (f *fakeTracker) send(id string, visible bool) {
	f.emit(visibility.Event{SectionID: id, Visible: visible})
}

type harness struct {
	clock   *clock.Fake
	tracker *fakeTracker
	engine  *Engine
	states  []State
	traces  []Transition
}

func newHarness(t *testing.T, descriptors ...section.Descriptor) *harness {
	t.Helper()
	reg, err := section.NewRegistry(descriptors)
	require.NoError(t, err)

	h := &harness{clock: clock.NewFake(), tracker: &fakeTracker{}}
	h.engine = New(Config{
		Registry:       reg,
		DefaultGesture: section.GestureIdle,
		Scheduler:      h.clock,
		Tracker:        h.tracker,
		Presenter:      PresenterFunc(func(s State) { h.states = append(h.states, s) }),
		Trace:          func(tr Transition) { h.traces = append(h.traces, tr) },
	})
	return h
}

func (h *harness) at(d time.Duration) { h.clock.AdvanceTo(d) }

func TestEntranceSettlesToDefault(t *testing.T) {
	h := newHarness(t)
	h.engine.Mount()

	assert.Equal(t, State{Gesture: section.GestureSlideIn}, h.engine.State())

	h.at(999 * time.Millisecond)
	assert.Equal(t, section.GestureSlideIn, h.engine.State().Gesture)

	h.at(1000 * time.Millisecond)
	assert.Equal(t, State{Gesture: section.GestureIdle}, h.engine.State())

	h.at(10 * time.Second)
	assert.Equal(t, section.GestureIdle, h.engine.State().Gesture)
	assert.Equal(t, 0, h.clock.Pending())
}

func TestCustomDefaultGesture(t *testing.T) {
	reg, err := section.NewRegistry(nil)
	require.NoError(t, err)
	fc := clock.NewFake()
	e := New(Config{Registry: reg, DefaultGesture: section.GestureThinking, Scheduler: fc})
	e.Mount()
	fc.Advance(time.Second)
	assert.Equal(t, section.GestureThinking, e.State().Gesture)
}

func TestHeroScenario(t *testing.T) {
	h := newHarness(t, section.Descriptor{
		ID: "hero", Gesture: section.GestureWave, Message: "Welcome!", Duration: 2000 * time.Millisecond,
	})
	h.engine.Mount()
	assert.Equal(t, State{Gesture: section.GestureSlideIn}, h.engine.State())

	h.at(1200 * time.Millisecond)
	h.tracker.send("hero", true)
	assert.Equal(t, State{Gesture: section.GestureWave, Message: "Welcome!", ActiveSectionID: "hero"}, h.engine.State())

	h.at(3199 * time.Millisecond)
	assert.Equal(t, "Welcome!", h.engine.State().Message)

	h.at(3200 * time.Millisecond)
	assert.Equal(t, State{Gesture: section.GestureIdle, ActiveSectionID: "hero"}, h.engine.State())
}

func TestLastEntryWins(t *testing.T) {
	h := newHarness(t,
		section.Descriptor{ID: "features", Gesture: section.GesturePoint, Message: "Look here"},
		section.Descriptor{ID: "pricing", Gesture: section.GestureThumbsUp, Message: "Great deal"},
	)
	h.engine.Mount()
	h.at(2 * time.Second)

	h.tracker.send("features", true)
	h.at(2500 * time.Millisecond)
	h.tracker.send("pricing", true)

	assert.Equal(t, []time.Duration{7500 * time.Millisecond}, h.clock.Deadlines())

	// The first section's timeout would have fired here.
	h.at(7 * time.Second)
	assert.Equal(t, "Great deal", h.engine.State().Message)

	h.at(7500 * time.Millisecond)
	assert.Equal(t, State{Gesture: section.GestureIdle, ActiveSectionID: "pricing"}, h.engine.State())

	for _, s := range h.states[len(h.states)-2:] {
		assert.NotEqual(t, "Look here", s.Message)
	}
}

func TestRapidEventsArmOneTimer(t *testing.T) {
	h := newHarness(t,
		section.Descriptor{ID: "a", Gesture: section.GestureWave, Message: "A", Duration: time.Second},
		section.Descriptor{ID: "b", Gesture: section.GesturePoint, Message: "B", Duration: time.Second},
	)
	h.engine.Mount()
	h.at(1500 * time.Millisecond)

	h.tracker.send("a", true)
	h.at(1510 * time.Millisecond)
	h.tracker.send("b", true)

	require.Equal(t, 1, h.clock.Pending())
	assert.Equal(t, []time.Duration{2510 * time.Millisecond}, h.clock.Deadlines())

	h.at(2509 * time.Millisecond)
	assert.Equal(t, "B", h.engine.State().Message)
	h.at(2510 * time.Millisecond)
	assert.Equal(t, "", h.engine.State().Message)
}

func TestExitEventsAreIgnored(t *testing.T) {
	h := newHarness(t, section.Descriptor{ID: "hero", Gesture: section.GestureWave, Message: "Hi"})
	h.engine.Mount()
	h.at(1200 * time.Millisecond)
	h.tracker.send("hero", true)
	before := h.engine.State()
	n := len(h.states)

	h.tracker.send("hero", false)
	assert.Equal(t, before, h.engine.State())
	assert.Len(t, h.states, n)
	assert.True(t, h.engine.ClearArmed())
}

func TestUnknownSectionLeavesStateAlone(t *testing.T) {
	h := newHarness(t, section.Descriptor{ID: "hero", Gesture: section.GestureWave, Message: "Hi"})
	h.engine.Mount()
	h.at(time.Second)
	before := h.engine.State()
	n := len(h.states)

	h.tracker.send("footer", true)
	assert.Equal(t, before, h.engine.State())
	assert.Len(t, h.states, n)
	assert.False(t, h.engine.ClearArmed())
	assert.Equal(t, KindIgnored, h.traces[len(h.traces)-1].Kind)
}

// The clear keeps the last section id rather than resetting it. This mirrors
// the product's current behaviour and may change once confirmed.
func TestClearKeepsActiveSection(t *testing.T) {
	h := newHarness(t, section.Descriptor{ID: "faq", Gesture: section.GestureThinking, Message: "Questions?"})
	h.engine.Mount()
	h.at(time.Second)
	h.tracker.send("faq", true)
	h.at(7 * time.Second)

	assert.Equal(t, "faq", h.engine.State().ActiveSectionID)
	assert.Equal(t, section.GestureIdle, h.engine.State().Gesture)
}

func TestSectionBeforeEntranceSupersedesIt(t *testing.T) {
	h := newHarness(t, section.Descriptor{ID: "hero", Gesture: section.GestureWave, Message: "Welcome!"})
	h.engine.Mount()

	h.at(300 * time.Millisecond)
	h.tracker.send("hero", true)

	h.at(1500 * time.Millisecond)
	assert.Equal(t, section.GestureWave, h.engine.State().Gesture, "entrance timer must not override the section")

	h.at(5300 * time.Millisecond)
	assert.Equal(t, State{Gesture: section.GestureIdle, ActiveSectionID: "hero"}, h.engine.State())
}

func TestTeardownBeforeEntrance(t *testing.T) {
	h := newHarness(t)
	h.engine.Mount()
	h.at(500 * time.Millisecond)
	h.engine.Teardown()

	n := len(h.states)
	h.at(5 * time.Second)
	assert.Len(t, h.states, n, "entrance fired after teardown")
	assert.Equal(t, section.GestureSlideIn, h.engine.State().Gesture)
	assert.Equal(t, 0, h.clock.Pending())
}

func TestTeardownIsIdempotent(t *testing.T) {
	h := newHarness(t, section.Descriptor{ID: "hero", Gesture: section.GestureWave, Message: "Hi"})
	h.engine.Mount()
	h.at(time.Second)
	h.tracker.send("hero", true)

	h.engine.Teardown()
	h.engine.Teardown()
	assert.Equal(t, 1, h.tracker.detaches)

	n := len(h.states)
	h.tracker.send("hero", true)
	h.at(time.Minute)
	assert.Len(t, h.states, n)
	assert.False(t, h.engine.Mounted())
}

func TestMountTwiceIsNoop(t *testing.T) {
	h := newHarness(t)
	h.engine.Mount()
	h.engine.Mount()
	assert.Equal(t, 1, h.clock.Pending())
	assert.Len(t, h.states, 1)
}

func TestMountAfterTeardownIsNoop(t *testing.T) {
	h := newHarness(t)
	h.engine.Teardown()
	h.engine.Mount()
	assert.Empty(t, h.states)
	assert.Nil(t, h.tracker.emit)
}

// orderScheduler labels timers by delay so teardown order can be observed.
type orderScheduler struct {
	inner *clock.Fake
	log   *[]string
}

type orderTimer struct {
	inner clock.Timer
	name  string
	log   *[]string
}

func (o orderTimer) Stop() bool {
	*o.log = append(*o.log, o.name)
	return o.inner.Stop()
}

func (s orderScheduler) AfterFunc(d time.Duration, f func()) clock.Timer {
	name := "clear"
	if d == DefaultEntranceDelay {
		name = "entrance"
	}
	return orderTimer{inner: s.inner.AfterFunc(d, f), name: name, log: s.log}
}

func TestTeardownOrder(t *testing.T) {
	var log []string
	reg, err := section.NewRegistry([]section.Descriptor{
		{ID: "hero", Gesture: section.GestureWave, Message: "Hi", Duration: 3 * time.Second},
	})
	require.NoError(t, err)

	fc := clock.NewFake()
	tr := &fakeTracker{log: &log}
	e := New(Config{
		Registry:  reg,
		Scheduler: orderScheduler{inner: fc, log: &log},
		Tracker:   tr,
	})
	e.Mount()

	// Bypass the supersede rule so both timers are live at teardown.
	e.clear = e.cfg.Scheduler.AfterFunc(3*time.Second, e.onClear)
	e.Teardown()

	assert.Equal(t, []string{"clear", "entrance", "tracker"}, log)
}

func TestMissingSectionsAreSkipped(t *testing.T) {
	h := newHarness(t,
		section.Descriptor{ID: "hero", Gesture: section.GestureWave, Message: "Hi"},
		section.Descriptor{ID: "later", Gesture: section.GesturePoint, Message: "Later"},
	)
	h.tracker.accept = map[string]bool{"hero": true}
	h.engine.Mount()
	assert.Equal(t, []string{"hero"}, h.engine.Observed())
}

func TestInteractIsPassThrough(t *testing.T) {
	reg, err := section.NewRegistry(nil)
	require.NoError(t, err)
	fc := clock.NewFake()
	taps := 0
	var states []State
	e := New(Config{
		Registry:   reg,
		Scheduler:  fc,
		Presenter:  PresenterFunc(func(s State) { states = append(states, s) }),
		OnInteract: func() { taps++ },
	})

	e.Interact()
	assert.Equal(t, 0, taps, "interaction before mount")

	e.Mount()
	e.Interact()
	e.Interact()
	assert.Equal(t, 2, taps)
	assert.Len(t, states, 1)
}

func TestWithVisibilityTracker(t *testing.T) {
	reg, err := section.NewRegistry([]section.Descriptor{
		{ID: "hero", Gesture: section.GestureWave, Message: "Welcome!", Duration: 2 * time.Second},
		{ID: "pricing", Gesture: section.GestureThumbsUp, Message: "Pick a plan"},
	})
	require.NoError(t, err)

	var q clock.Queue
	layout := visibility.Layout{
		"hero":    {Top: 0, Height: 600},
		"pricing": {Top: 1200, Height: 600},
	}
	tr := visibility.NewTracker(layout, &q, visibility.DefaultOptions())
	tr.SetViewport(visibility.Viewport{Top: 0, Height: 800})

	fc := clock.NewFake()
	e := New(Config{Registry: reg, Scheduler: fc, Tracker: tr})
	e.Mount()
	assert.Equal(t, section.GestureSlideIn, e.State().Gesture)

	q.Drain()
	assert.Equal(t, "hero", e.State().ActiveSectionID)

	tr.Scroll(visibility.Viewport{Top: 1100, Height: 800})
	q.Drain()
	assert.Equal(t, State{Gesture: section.GestureThumbsUp, Message: "Pick a plan", ActiveSectionID: "pricing"}, e.State())

	e.Teardown()
	assert.False(t, tr.Attached())

	tr.Scroll(visibility.Viewport{Top: 0, Height: 800})
	assert.Equal(t, 0, q.Len())
}
