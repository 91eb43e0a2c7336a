// Package page renders the scrollable marketing page the guide walks through.
// Each section is rendered with Glamour and its line span is published as a
// visibility.Layout in pixel coordinates.
package page

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/scrollguide/guide/internal/theme"
	"github.com/scrollguide/guide/internal/visibility"
)

const minWidth = 20

// Section is one block of page content.
type Section struct {
	ID    string
	Title string
	Body  string
}

// Model holds the page content and scroll state.
type Model struct {
	title      string
	sections   []Section
	cellHeight float64

	viewport viewport.Model
	layout   visibility.Layout
	width    int
	lines    int
}

// New creates a page. cellHeight is the pixel height of one terminal row.
func New(title string, sections []Section, cellHeight float64) Model {
	return Model{
		title:      title,
		sections:   sections,
		cellHeight: cellHeight,
		viewport:   viewport.New(80, 20),
		layout:     make(visibility.Layout),
	}
}

// Layout returns the document geometry. The map is updated in place on every
// re-render, so trackers holding it always see current positions.
func (m Model) Layout() visibility.Layout {
	return m.layout
}

// SetSize re-renders the content for the new dimensions.
func (m *Model) SetSize(width, height int) {
	if width < minWidth {
		width = minWidth
	}
	if height < 1 {
		height = 1
	}
	m.viewport.Height = height
	if width != m.width || m.lines == 0 {
		m.width = width
		m.viewport.Width = width
		m.render()
	}
	m.viewport.SetYOffset(m.viewport.YOffset)
}

// ScrollBy moves the page by n rows (negative scrolls up).
func (m *Model) ScrollBy(n int) {
	m.viewport.SetYOffset(m.viewport.YOffset + n)
}

// PageDown scrolls one screen down.
func (m *Model) PageDown() { m.ScrollBy(m.viewport.Height) }

// PageUp scrolls one screen up.
func (m *Model) PageUp() { m.ScrollBy(-m.viewport.Height) }

// Top scrolls to the first row.
func (m *Model) Top() { m.viewport.SetYOffset(0) }

// Bottom scrolls to the last screen.
func (m *Model) Bottom() { m.viewport.SetYOffset(m.lines) }

// Offset returns the first visible row.
func (m Model) Offset() int { return m.viewport.YOffset }

// Lines returns the total rendered row count.
func (m Model) Lines() int { return m.lines }

// Viewport returns the visible window in pixel coordinates.
func (m Model) Viewport() visibility.Viewport {
	return visibility.Viewport{
		Top:    float64(m.viewport.YOffset) * m.cellHeight,
		Height: float64(m.viewport.Height) * m.cellHeight,
	}
}

// ScrollPercent returns how far down the page the viewport is, 0..1.
func (m Model) ScrollPercent() float64 {
	return m.viewport.ScrollPercent()
}

// View renders the visible slice of the page.
func (m Model) View() string {
	return m.viewport.View()
}

func (m *Model) render() {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(m.width-2),
	)
	if err != nil {
		renderer = nil
	}

	var blocks []string
	row := 0

	if m.title != "" {
		banner := lipgloss.NewStyle().
			Width(m.width).
			Align(lipgloss.Center).
			Padding(1, 0).
			Inherit(theme.StyleHeader).
			Render(strings.ToUpper(m.title))
		blocks = append(blocks, banner)
		row += lipgloss.Height(banner)
	}

	for k := range m.layout {
		delete(m.layout, k)
	}

	for _, s := range m.sections {
		block := renderSection(renderer, s)
		height := lipgloss.Height(block)
		m.layout[s.ID] = visibility.Rect{
			Top:    float64(row) * m.cellHeight,
			Height: float64(height) * m.cellHeight,
		}
		blocks = append(blocks, block)
		row += height
	}

	m.lines = row
	m.viewport.SetContent(strings.Join(blocks, "\n"))
}

func renderSection(r *glamour.TermRenderer, s Section) string {
	md := "## " + s.Title + "\n\n" + s.Body + "\n"
	if r != nil {
		if out, err := r.Render(md); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return strings.TrimRight(md, "\n")
}
