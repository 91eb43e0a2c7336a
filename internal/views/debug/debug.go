// Package debug renders the engine log overlay: one line per transition,
// newest at the bottom, scrollable back through the last few hundred.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/scrollguide/guide/internal/engine"
	"github.com/scrollguide/guide/internal/theme"
)

const maxEntries = 200

// Non-engine entry kinds.
const (
	KindConfig = "cfg"
	KindTap    = "tap"
	KindError  = "err"
)

type Entry struct {
	Time    time.Time
	Kind    string
	Section string
	Message string
}

// Model is the overlay state. Offset counts lines scrolled back from the
// newest entry.
type Model struct {
	Entries []Entry
	Offset  int
}

func New() Model {
	return Model{}
}

// Add records a host event. New entries snap the view back to the bottom.
func (m *Model) Add(kind, message string) {
	m.push(Entry{Time: time.Now(), Kind: kind, Message: message})
}

// AddTransition records one engine step.
func (m *Model) AddTransition(tr engine.Transition) {
	m.push(Entry{
		Time:    time.Now(),
		Kind:    string(tr.Kind),
		Section: tr.SectionID,
		Message: describe(tr),
	})
}

func (m *Model) push(e Entry) {
	if len(m.Entries) == maxEntries {
		copy(m.Entries, m.Entries[1:])
		m.Entries = m.Entries[:maxEntries-1]
	}
	m.Entries = append(m.Entries, e)
	m.Offset = 0
}

func describe(tr engine.Transition) string {
	st := tr.State
	switch tr.Kind {
	case engine.KindIgnored:
		return "not in registry"
	case engine.KindSection:
		if st.Message == "" {
			return string(st.Gesture)
		}
		return fmt.Sprintf("%s %q", st.Gesture, st.Message)
	case engine.KindClear:
		return fmt.Sprintf("back to %s", st.Gesture)
	case engine.KindTeardown:
		return "timers stopped, tracker detached"
	default:
		return string(st.Gesture)
	}
}

func (m *Model) ScrollUp(n int) {
	m.Offset = min(m.Offset+n, max(len(m.Entries)-1, 0))
}

func (m *Model) ScrollDown(n int) {
	m.Offset = max(m.Offset-n, 0)
}

// View renders the overlay into a width x height box.
func (m Model) View(width, height int) string {
	inner := max(width-4, 20)
	rows := max(height-6, 3)

	title := theme.StyleHeader.Render(" ENGINE LOG ")
	help := theme.StyleDimmed.Render(fmt.Sprintf("j/k scroll · esc close · %d entries", len(m.Entries)))
	panel := lipgloss.NewStyle().
		Width(inner).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)

	if len(m.Entries) == 0 {
		empty := theme.StyleDimmed.Render("No transitions recorded yet.")
		return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", empty, "", help))
	}

	end := len(m.Entries) - m.Offset
	start := max(end-rows, 0)

	line := lipgloss.NewStyle().MaxWidth(inner)
	lines := make([]string, 0, end-start)
	for _, e := range m.Entries[start:end] {
		lines = append(lines, line.Render(m.row(e)))
	}

	parts := []string{title, strings.Join(lines, "\n")}
	if m.Offset > 0 {
		parts = append(parts, theme.StyleDimmed.Render(fmt.Sprintf("%d newer below", m.Offset)))
	}
	parts = append(parts, help)
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) row(e Entry) string {
	ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05.000"))
	kind := lipgloss.NewStyle().Foreground(theme.KindColor(e.Kind)).Width(9).Render(e.Kind)
	sec := lipgloss.NewStyle().Foreground(theme.ColorBright).Width(10).Render(e.Section)
	return fmt.Sprintf("%s %s %s %s", ts, kind, sec, e.Message)
}
