package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/scrollguide/guide/internal/engine"
	"github.com/scrollguide/guide/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	State    engine.State
	Instance string
	Scroll   float64
	// Reload is the last config reload outcome, empty if none happened.
	Reload    string
	ReloadErr bool
	Width     int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	gesture := lipgloss.NewStyle().
		Foreground(theme.GestureColor(string(m.State.Gesture))).
		Render("● " + string(m.State.Gesture))

	active := m.State.ActiveSectionID
	if active == "" {
		active = "-"
	}
	sectionStr := fmt.Sprintf("section: %s", active)

	bubble := theme.StyleDimmed.Render("bubble: off")
	if m.State.Message != "" {
		bubble = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("bubble: on")
	}

	scroll := fmt.Sprintf("%3d%%", int(m.Scroll*100))

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := gesture + sep + sectionStr + sep + bubble + sep + scroll

	if m.Instance != "" && len(m.Instance) >= 8 {
		content += sep + theme.StyleDimmed.Render(m.Instance[:8])
	}
	if m.Reload != "" {
		color := theme.ColorHealthy
		if m.ReloadErr {
			color = theme.ColorDanger
		}
		content += sep + lipgloss.NewStyle().Foreground(color).Render(m.Reload)
	}

	bar := lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)

	return bar
}
