// Package app is the root Bubble Tea model. It owns the page, the guide panel
// and the presentation engine, and is the host loop every engine task runs on.
package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/scrollguide/guide/internal/clock"
	"github.com/scrollguide/guide/internal/config"
	"github.com/scrollguide/guide/internal/theme"
	"github.com/scrollguide/guide/internal/views/debug"
	"github.com/scrollguide/guide/internal/views/guide"
	"github.com/scrollguide/guide/internal/views/page"
	"github.com/scrollguide/guide/internal/views/status"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDebug
)

const (
	statusHeight = 3
	footerHeight = 1
	wheelStep    = 3
)

// ConfigChangedMsg asks the model to reload its config file.
type ConfigChangedMsg struct{}

type frameMsg time.Time

// Options configures the root model.
type Options struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger
	Inbox      *Inbox
	// Scheduler defaults to a wall-clock scheduler delivering via Inbox.
	Scheduler clock.Scheduler
}

// Model is the root Bubble Tea model.
type Model struct {
	cfg        *config.Config
	configPath string
	log        *zap.Logger
	inbox      *Inbox
	sched      clock.Scheduler

	keys   KeyMap
	width  int
	height int

	page      page.Model
	guide     guide.Model
	statusBar status.Model
	debug     debug.Model
	overlay   Overlay

	sess      *session
	animating bool
}

// New creates the root model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	inbox := opts.Inbox
	if inbox == nil {
		inbox = NewInbox()
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = clock.NewReal(inbox)
	}

	return Model{
		cfg:        cfg,
		configPath: opts.ConfigPath,
		log:        logger,
		inbox:      inbox,
		sched:      sched,
		keys:       DefaultKeyMap(),
		page:       page.New(cfg.Guide.Title, pageSections(cfg), cfg.Visibility.CellHeightPx),
		guide:      guide.New(),
		statusBar:  status.New(),
		debug:      debug.New(),
	}
}

// Inbox returns the model's inbox so external goroutines can reach the loop.
func (m Model) Inbox() *Inbox { return m.inbox }

// Init starts listening for loop work.
func (m Model) Init() tea.Cmd {
	return m.inbox.Wait()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		if m.sess == nil {
			m.mount()
		}
		return m, m.sync()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scroll(-wheelStep)
		case tea.MouseButtonWheelDown:
			m.scroll(wheelStep)
		}
		return m, nil

	case batchMsg:
		var cmds []tea.Cmd
		for _, inner := range msg.msgs {
			switch inner := inner.(type) {
			case taskMsg:
				inner.run()
			default:
				next, cmd := m.Update(inner)
				m = next.(Model)
				cmds = append(cmds, cmd)
			}
		}
		cmds = append(cmds, m.sync(), m.inbox.Wait())
		return m, tea.Batch(cmds...)

	case ConfigChangedMsg:
		m.reload()
		return m, m.sync()

	case frameMsg:
		m.guide.Tick()
		if m.guide.Animating() {
			return m, frame()
		}
		m.animating = false
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.teardown()
		m.inbox.Close()
		return m, tea.Quit
	}

	if m.overlay != OverlayNone {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Up):
			m.debug.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.debug.ScrollDown(1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.scroll(1)
	case key.Matches(msg, m.keys.Up):
		m.scroll(-1)
	case key.Matches(msg, m.keys.PageDown):
		m.page.PageDown()
		m.afterScroll()
	case key.Matches(msg, m.keys.PageUp):
		m.page.PageUp()
		m.afterScroll()
	case key.Matches(msg, m.keys.Top):
		m.page.Top()
		m.afterScroll()
	case key.Matches(msg, m.keys.Bottom):
		m.page.Bottom()
		m.afterScroll()
	case key.Matches(msg, m.keys.Tap):
		if m.sess != nil {
			m.sess.engine.Interact()
		}
		return m, m.sync()
	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
	case key.Matches(msg, m.keys.Reload):
		m.reload()
		return m, m.sync()
	}
	return m, nil
}

func (m *Model) scroll(n int) {
	m.page.ScrollBy(n)
	m.afterScroll()
}

// afterScroll reports the new viewport to the tracker. Any crossings arrive
// later as tasks through the inbox.
func (m *Model) afterScroll() {
	m.statusBar.Scroll = m.page.ScrollPercent()
	if m.sess != nil {
		m.sess.tracker.Scroll(m.page.Viewport())
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.statusBar.Width = width

	bodyHeight := height - statusHeight - footerHeight
	m.page.SetSize(width-m.guide.Width, bodyHeight)
	m.guide.Height = bodyHeight

	if m.sess != nil {
		m.sess.tracker.Scroll(m.page.Viewport())
	}
	m.statusBar.Scroll = m.page.ScrollPercent()
}

func (m *Model) mount() {
	reg, err := m.cfg.Registry()
	if err != nil {
		// Load validated the config; this only happens with a hand-built one.
		m.log.Error("invalid section registry", zap.Error(err))
		m.debug.Add(debug.KindError, err.Error())
		return
	}
	m.sess = newSession(reg, m.cfg, m.page.Layout(), m.sched, m.inbox, m.log)
	m.sess.mount(m.page.Viewport())
	m.statusBar.Instance = m.sess.engine.ID()

	m.log.Info("guide mounted",
		zap.String("instance", m.sess.engine.ID()),
		zap.Strings("observed", m.sess.engine.Observed()),
		zap.Int("sections", reg.Len()))
}

func (m *Model) teardown() {
	if m.sess == nil {
		return
	}
	m.sess.engine.Teardown()
	m.flush()
	m.log.Info("guide torn down", zap.String("instance", m.sess.engine.ID()))
	m.sess = nil
}

// reload re-reads the config file and, on success, replaces the session so
// the new registry starts from a fresh mount.
func (m *Model) reload() {
	if m.configPath == "" {
		return
	}
	cfg, err := config.Load(m.configPath)
	if err != nil {
		m.log.Warn("config reload failed", zap.String("path", m.configPath), zap.Error(err))
		m.debug.Add(debug.KindError, fmt.Sprintf("reload: %v", err))
		m.statusBar.Reload = "reload failed"
		m.statusBar.ReloadErr = true
		return
	}

	m.teardown()
	m.cfg = cfg
	m.page = page.New(cfg.Guide.Title, pageSections(cfg), cfg.Visibility.CellHeightPx)
	if m.width > 0 {
		m.resize(m.width, m.height)
		m.mount()
	}
	m.debug.Add(debug.KindConfig, fmt.Sprintf("reloaded %d sections", len(cfg.Sections)))
	m.statusBar.Reload = "config reloaded"
	m.statusBar.ReloadErr = false
}

// flush moves engine output into the views.
func (m *Model) flush() bool {
	if m.sess == nil {
		return false
	}
	states, transitions, taps := m.sess.drain()
	for _, st := range states {
		m.guide.Present(st)
	}
	if len(states) > 0 {
		m.statusBar.State = states[len(states)-1]
	}
	for _, tr := range transitions {
		m.debug.AddTransition(tr)
	}
	for i := 0; i < taps; i++ {
		m.guide.Hop()
		m.debug.Add(debug.KindTap, "guide poked")
	}
	return len(states) > 0 || taps > 0
}

// sync flushes engine output and starts the animation loop if needed.
func (m *Model) sync() tea.Cmd {
	m.flush()
	if m.guide.Animating() && !m.animating {
		m.animating = true
		return frame()
	}
	return nil
}

func frame() tea.Cmd {
	return tea.Tick(time.Second/guide.FPS, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	bodyHeight := m.height - statusHeight - footerHeight
	var body string
	if m.overlay == OverlayDebug {
		body = m.debug.View(m.width, bodyHeight)
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Bottom, m.page.View(), m.guide.View())
	}

	sections := []string{
		m.statusBar.View(),
		body,
		theme.StyleDimmed.Render("  j/k:scroll  pgup/pgdn:page  g/G:top/bottom  space:poke  d:engine log  r:reload  q:quit"),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func pageSections(cfg *config.Config) []page.Section {
	out := make([]page.Section, 0, len(cfg.Sections))
	for _, s := range cfg.Sections {
		title := s.Title
		if title == "" {
			title = s.ID
		}
		out = append(out, page.Section{ID: s.ID, Title: title, Body: s.Body})
	}
	return out
}
