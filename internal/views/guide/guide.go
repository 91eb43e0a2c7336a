// Package guide renders the on-screen guide character and its speech bubble.
// It holds no presentation state of its own beyond the short-lived spring
// animations that ease the figure in and reveal the bubble text.
package guide

import (
	"math"
	"strings"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/scrollguide/guide/internal/engine"
	"github.com/scrollguide/guide/internal/section"
	"github.com/scrollguide/guide/internal/theme"
)

const (
	// FPS is the animation frame rate.
	FPS = 60

	slideDistance = 24.0
	hopHeight     = 1.0
	settle        = 0.01
	bubbleWidth   = 28
)

// Model is the guide panel.
type Model struct {
	state engine.State

	spring harmonica.Spring

	slide, slideVel float64 // columns still to travel
	reveal, revVel  float64 // fraction of the message shown
	hop, hopVel     float64 // rows above the floor

	Width  int
	Height int
}

// New creates a guide panel in the default idle pose.
func New() Model {
	return Model{
		state:  engine.State{Gesture: section.GestureIdle},
		spring: harmonica.NewSpring(harmonica.FPS(FPS), 8.0, 0.7),
		Width:  bubbleWidth + 4,
	}
}

// Present applies a state snapshot from the engine.
func (m *Model) Present(s engine.State) {
	prev := m.state
	m.state = s

	if s.Gesture == section.EntranceGesture && prev.Gesture != section.EntranceGesture {
		m.slide = slideDistance
		m.slideVel = 0
	}
	if s.Message != "" && s.Message != prev.Message {
		m.reveal = 0
		m.revVel = 0
	}
}

// Hop starts a small jump, used to acknowledge a tap.
func (m *Model) Hop() {
	m.hop = hopHeight
	m.hopVel = 0
}

// State returns the last presented snapshot.
func (m Model) State() engine.State { return m.state }

// Animating reports whether another frame would change the output.
func (m Model) Animating() bool {
	return m.slide > settle || m.hop > settle || (m.state.Message != "" && 1-m.reveal > settle)
}

// Tick advances the springs by one frame.
func (m *Model) Tick() {
	m.slide, m.slideVel = m.spring.Update(m.slide, m.slideVel, 0)
	if m.slide < settle {
		m.slide, m.slideVel = 0, 0
	}
	m.hop, m.hopVel = m.spring.Update(m.hop, m.hopVel, 0)
	if math.Abs(m.hop) < settle {
		m.hop, m.hopVel = 0, 0
	}
	if m.state.Message != "" {
		m.reveal, m.revVel = m.spring.Update(m.reveal, m.revVel, 1)
		if 1-m.reveal < settle {
			m.reveal, m.revVel = 1, 0
		}
	}
}

// Settle jumps every animation to its resting value.
func (m *Model) Settle() {
	m.slide, m.slideVel = 0, 0
	m.hop, m.hopVel = 0, 0
	m.reveal, m.revVel = 1, 0
}

// View renders the bubble (if any) above the figure.
func (m Model) View() string {
	var parts []string

	if m.state.Message != "" {
		parts = append(parts, m.renderBubble())
	}

	figure := lipgloss.NewStyle().
		Foreground(theme.GestureColor(string(m.state.Gesture))).
		Render(strings.Join(pose(m.state.Gesture), "\n"))

	pad := int(math.Round(math.Max(m.slide, 0)))
	if pad > 0 {
		figure = lipgloss.NewStyle().PaddingLeft(pad).Render(figure)
	}
	// The panel is bottom-aligned, so a trailing blank row lifts the figure.
	if int(math.Round(m.hop)) > 0 {
		figure += "\n"
	}
	parts = append(parts, figure)

	label := theme.StyleDimmed.Render(string(m.state.Gesture))
	parts = append(parts, label)

	body := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if m.Height > 0 {
		body = lipgloss.PlaceVertical(m.Height, lipgloss.Bottom, body)
	}
	return body
}

func (m Model) renderBubble() string {
	runes := []rune(m.state.Message)
	n := int(math.Ceil(float64(len(runes)) * clamp01(m.reveal)))
	text := string(runes[:n])
	if text == "" {
		text = " "
	}
	bubble := theme.StyleBubble.Width(bubbleWidth).Render(text)
	tail := theme.StyleDimmed.Render("      \\")
	return lipgloss.JoinVertical(lipgloss.Left, bubble, tail)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
