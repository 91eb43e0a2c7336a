package app

import (
	"go.uber.org/zap"

	"github.com/scrollguide/guide/internal/clock"
	"github.com/scrollguide/guide/internal/config"
	"github.com/scrollguide/guide/internal/engine"
	"github.com/scrollguide/guide/internal/section"
	"github.com/scrollguide/guide/internal/visibility"
)

// session is one mounted guide: an engine, the tracker it owns, and the
// output it has produced since the model last synced. Sessions never outlive
// the registry they were built from; a config reload replaces the session.
type session struct {
	engine  *engine.Engine
	tracker *visibility.Tracker

	presented   []engine.State
	transitions []engine.Transition
	taps        int
}

func newSession(reg *section.Registry, cfg *config.Config, doc visibility.Document, sched clock.Scheduler, d clock.Dispatcher, logger *zap.Logger) *session {
	s := &session{
		tracker: visibility.NewTracker(doc, d, cfg.VisibilityOptions()),
	}
	s.engine = engine.New(engine.Config{
		Registry:       reg,
		DefaultGesture: cfg.DefaultGesture(),
		EntranceDelay:  cfg.Guide.EntranceDelay,
		Scheduler:      sched,
		Tracker:        s.tracker,
		Presenter:      engine.PresenterFunc(func(st engine.State) { s.presented = append(s.presented, st) }),
		Trace:          func(tr engine.Transition) { s.transitions = append(s.transitions, tr) },
		OnInteract:     func() { s.taps++ },
		Logger:         logger,
	})
	return s
}

// mount attaches the tracker at the given viewport and starts the engine.
func (s *session) mount(vp visibility.Viewport) {
	s.tracker.SetViewport(vp)
	s.engine.Mount()
}

// drain hands back everything produced since the previous drain.
func (s *session) drain() (states []engine.State, transitions []engine.Transition, taps int) {
	states, transitions, taps = s.presented, s.transitions, s.taps
	s.presented, s.transitions, s.taps = nil, nil, 0
	return
}
