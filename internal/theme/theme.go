// Package theme provides the Lip Gloss color palette and reusable styles
// for the guide TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Gesture colors.
var (
	ColorIdle        = lipgloss.Color("#9ca3af")
	ColorWave        = lipgloss.Color("#3b82f6")
	ColorPoint       = lipgloss.Color("#06b6d4")
	ColorLeanForward = lipgloss.Color("#a855f7")
	ColorThumbsUp    = lipgloss.Color("#22c55e")
	ColorThinking    = lipgloss.Color("#d97706")
	ColorSlideIn     = lipgloss.Color("#7c3aed")
	ColorDefault     = lipgloss.Color("#9ca3af")
)

// Transition kind colors for the debug log.
var (
	ColorMount    = lipgloss.Color("#7c3aed")
	ColorSection  = lipgloss.Color("#2563eb")
	ColorClear    = lipgloss.Color("#16a34a")
	ColorIgnored  = lipgloss.Color("#854d0e")
	ColorTeardown = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBubble  = lipgloss.Color("#1f2937")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// GestureColor returns the Lip Gloss color for a gesture name.
func GestureColor(gesture string) lipgloss.Color {
	switch gesture {
	case "idle":
		return ColorIdle
	case "wave":
		return ColorWave
	case "point":
		return ColorPoint
	case "leanForward":
		return ColorLeanForward
	case "thumbsUp":
		return ColorThumbsUp
	case "thinking":
		return ColorThinking
	case "slideIn":
		return ColorSlideIn
	default:
		return ColorDefault
	}
}

// KindColor returns the color for an engine transition kind.
func KindColor(kind string) lipgloss.Color {
	switch kind {
	case "mount", "entrance":
		return ColorMount
	case "section":
		return ColorSection
	case "clear":
		return ColorClear
	case "tap":
		return ColorThumbsUp
	case "ignored", "cfg":
		return ColorIgnored
	case "teardown", "err":
		return ColorTeardown
	default:
		return ColorDimmed
	}
}

// Reusable styles.
var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleBubble = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Background(ColorBubble).
			Foreground(ColorBright).
			Padding(0, 1)
)
