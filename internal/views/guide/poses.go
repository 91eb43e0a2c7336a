package guide

import "github.com/scrollguide/guide/internal/section"

// poses maps each gesture to its ASCII figure. Every figure is poseHeight
// rows tall so the panel does not jump between gestures.
var poses = map[section.Gesture][]string{
	section.GestureIdle: {
		"   .---.   ",
		"  ( o o )  ",
		"   \\ - /   ",
		"   /|_|\\   ",
		"    / \\    ",
	},
	section.GestureWave: {
		"   .---.  /",
		"  ( ^ ^ )/ ",
		"   \\ o /   ",
		"   /|_|    ",
		"    / \\    ",
	},
	section.GesturePoint: {
		"   .---.   ",
		"  ( o o )  ",
		"   \\ - /__>",
		"   /|_|    ",
		"    / \\    ",
	},
	section.GestureLeanForward: {
		"    .---.  ",
		"   ( O O ) ",
		"   /\\ o /  ",
		"  / |_|\\   ",
		"    / \\    ",
	},
	section.GestureThumbsUp: {
		"   .---.   ",
		"  ( ^ ^ ) b",
		"   \\ v / / ",
		"   /|_|/   ",
		"    / \\    ",
	},
	section.GestureThinking: {
		"   .---. o ",
		"  ( - o )  ",
		"   \\ ~ /   ",
		"   /|_|\\?  ",
		"    / \\    ",
	},
	section.GestureSlideIn: {
		"   .---.   ",
		"  ( > > )  ",
		"   \\ o /   ",
		"  -/|_|\\-  ",
		"  = / \\ =  ",
	},
}

const (
	poseWidth  = 11
	poseHeight = 5
)

// pose returns the figure for g, falling back to idle.
func pose(g section.Gesture) []string {
	if p, ok := poses[g]; ok {
		return p
	}
	return poses[section.GestureIdle]
}
