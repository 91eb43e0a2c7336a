// Package engine implements the guide's presentation state machine.
//
// An Engine owns the current (gesture, message, active section) tuple and
// every timer that changes it. It reacts to two inputs only: its own
// lifecycle timers and visibility events from a Tracker. Each transition is
// pushed synchronously to the Presenter as a value snapshot.
//
// An Engine is not safe for concurrent use. Mount, HandleVisibility, Interact,
// Teardown and every timer callback must run as tasks on one host loop; the
// Scheduler and Tracker passed in are expected to deliver there.
package engine

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scrollguide/guide/internal/clock"
	"github.com/scrollguide/guide/internal/section"
	"github.com/scrollguide/guide/internal/visibility"
)

// DefaultEntranceDelay is how long the entrance gesture holds after mount.
const DefaultEntranceDelay = 1000 * time.Millisecond

// State is the presentation tuple handed to the Presenter.
type State struct {
	Gesture section.Gesture
	// Message is empty when no bubble is shown.
	Message string
	// ActiveSectionID is the last section that triggered a transition, or
	// empty if none has.
	ActiveSectionID string
}

// Presenter renders state snapshots. It must not call back into the Engine
// from Present.
type Presenter interface {
	Present(State)
}

// PresenterFunc adapts a function to a Presenter.
type PresenterFunc func(State)

// Present calls fn(s).
func (fn PresenterFunc) Present(s State) { fn(s) }

// Tracker is the observer whose lifecycle the Engine owns.
type Tracker interface {
	Attach(ids []string, emit func(visibility.Event)) []string
	Detach()
}

// Kind labels a transition for tracing.
type Kind string

const (
	KindMount    Kind = "mount"
	KindEntrance Kind = "entrance"
	KindSection  Kind = "section"
	KindClear    Kind = "clear"
	KindIgnored  Kind = "ignored"
	KindTeardown Kind = "teardown"
)

// Transition describes one engine step for tracing.
type Transition struct {
	Kind      Kind
	SectionID string
	State     State
}

// Config wires an Engine to its collaborators.
type Config struct {
	Registry       *section.Registry
	DefaultGesture section.Gesture
	// EntranceDelay defaults to DefaultEntranceDelay when zero.
	EntranceDelay time.Duration

	Scheduler clock.Scheduler
	Tracker   Tracker
	Presenter Presenter

	// OnInteract is invoked by Interact. The engine never inspects it.
	OnInteract func()
	// Trace, if set, observes every transition including ignored events.
	Trace  func(Transition)
	Logger *zap.Logger
}

// Engine is the presentation state machine for one mounted guide.
type Engine struct {
	id  string
	cfg Config
	log *zap.Logger

	state    State
	entrance clock.Timer
	clear    clock.Timer

	mounted  bool
	tornDown bool
	observed []string
}

// New creates an unmounted engine.
func New(cfg Config) *Engine {
	if cfg.EntranceDelay <= 0 {
		cfg.EntranceDelay = DefaultEntranceDelay
	}
	if cfg.DefaultGesture == "" {
		cfg.DefaultGesture = section.GestureIdle
	}
	if cfg.Presenter == nil {
		cfg.Presenter = PresenterFunc(func(State) {})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Engine{
		id:    id,
		cfg:   cfg,
		log:   logger.With(zap.String("instance", id)),
		state: State{Gesture: cfg.DefaultGesture},
	}
}

// ID returns the engine's instance id.
func (e *Engine) ID() string { return e.id }

// State returns the current snapshot.
func (e *Engine) State() State { return e.state }

// Mounted reports whether Mount has run and Teardown has not.
func (e *Engine) Mounted() bool { return e.mounted && !e.tornDown }

// Observed returns the section ids the tracker accepted at mount.
func (e *Engine) Observed() []string { return e.observed }

// Mount shows the entrance gesture, arms the entrance timer and attaches the
// tracker. Calls after the first, or after Teardown, do nothing.
func (e *Engine) Mount() {
	if e.mounted || e.tornDown {
		return
	}
	e.mounted = true

	e.state = State{Gesture: section.EntranceGesture}
	e.emit(KindMount, "")

	e.entrance = e.cfg.Scheduler.AfterFunc(e.cfg.EntranceDelay, e.onEntrance)

	if e.cfg.Tracker != nil {
		ids := e.cfg.Registry.IDs()
		e.observed = e.cfg.Tracker.Attach(ids, e.HandleVisibility)
		if skipped := len(ids) - len(e.observed); skipped > 0 {
			e.log.Debug("sections missing from document",
				zap.Int("skipped", skipped),
				zap.Strings("observed", e.observed))
		}
	}
}

// HandleVisibility applies one visibility event. Exit events and ids not in
// the registry leave the state untouched.
func (e *Engine) HandleVisibility(ev visibility.Event) {
	if !e.Mounted() {
		return
	}
	if !ev.Visible {
		return
	}
	d, ok := e.cfg.Registry.Lookup(ev.SectionID)
	if !ok {
		e.log.Debug("visibility event for unknown section", zap.String("section", ev.SectionID))
		e.trace(KindIgnored, ev.SectionID)
		return
	}

	e.stopClear()
	// A section arriving before the entrance settles supersedes it.
	if e.entrance != nil {
		e.entrance.Stop()
		e.entrance = nil
	}

	e.state = State{
		Gesture:         d.Gesture,
		Message:         d.Message,
		ActiveSectionID: d.ID,
	}
	e.clear = e.cfg.Scheduler.AfterFunc(d.MessageDuration(), e.onClear)

	e.log.Debug("section entered",
		zap.String("section", d.ID),
		zap.String("gesture", string(d.Gesture)),
		zap.Duration("duration", d.MessageDuration()))
	e.emit(KindSection, d.ID)
}

// Interact forwards a user tap on the character to OnInteract.
func (e *Engine) Interact() {
	if !e.Mounted() || e.cfg.OnInteract == nil {
		return
	}
	e.cfg.OnInteract()
}

// Teardown cancels the message-clear timer, then the entrance timer, then
// detaches the tracker. No callback runs afterwards. Teardown is idempotent.
func (e *Engine) Teardown() {
	if e.tornDown {
		return
	}
	e.tornDown = true

	e.stopClear()
	if e.entrance != nil {
		e.entrance.Stop()
		e.entrance = nil
	}
	if e.mounted && e.cfg.Tracker != nil {
		e.cfg.Tracker.Detach()
	}

	e.log.Debug("engine torn down", zap.String("section", e.state.ActiveSectionID))
	e.trace(KindTeardown, "")
}

func (e *Engine) onEntrance() {
	e.entrance = nil
	if !e.Mounted() {
		return
	}
	e.state.Gesture = e.cfg.DefaultGesture
	e.emit(KindEntrance, "")
}

func (e *Engine) onClear() {
	e.clear = nil
	if !e.Mounted() {
		return
	}
	// ActiveSectionID is kept as the last visited section.
	e.state.Gesture = e.cfg.DefaultGesture
	e.state.Message = ""
	e.emit(KindClear, e.state.ActiveSectionID)
}

func (e *Engine) stopClear() {
	if e.clear != nil {
		e.clear.Stop()
		e.clear = nil
	}
}

func (e *Engine) emit(kind Kind, sectionID string) {
	e.cfg.Presenter.Present(e.state)
	e.trace(kind, sectionID)
}

func (e *Engine) trace(kind Kind, sectionID string) {
	if e.cfg.Trace != nil {
		e.cfg.Trace(Transition{Kind: kind, SectionID: sectionID, State: e.state})
	}
}

// ClearArmed reports whether a message-clear timer is pending.
func (e *Engine) ClearArmed() bool { return e.clear != nil }
