// Package section defines the page sections the guide reacts to and the
// gestures it can strike. It is a leaf package with no internal imports.
package section

import (
	"errors"
	"fmt"
	"time"
)

// Gesture identifies one of the guide's display poses.
type Gesture string

const (
	GestureIdle        Gesture = "idle"
	GestureWave        Gesture = "wave"
	GesturePoint       Gesture = "point"
	GestureLeanForward Gesture = "leanForward"
	GestureThumbsUp    Gesture = "thumbsUp"
	GestureThinking    Gesture = "thinking"
	GestureSlideIn     Gesture = "slideIn"
)

// EntranceGesture is the transient pose shown right after mount.
const EntranceGesture = GestureSlideIn

// DefaultMessageDuration applies to descriptors without an override.
const DefaultMessageDuration = 5000 * time.Millisecond

// Gestures lists every known gesture in display order.
var Gestures = []Gesture{
	GestureIdle,
	GestureWave,
	GesturePoint,
	GestureLeanForward,
	GestureThumbsUp,
	GestureThinking,
	GestureSlideIn,
}

// Valid reports whether g is a known gesture.
func (g Gesture) Valid() bool {
	for _, known := range Gestures {
		if g == known {
			return true
		}
	}
	return false
}

var (
	ErrEmptySectionID   = errors.New("section id is empty")
	ErrDuplicateSection = errors.New("duplicate section id")
	ErrUnknownGesture   = errors.New("unknown gesture")
	ErrInvalidDuration  = errors.New("invalid message duration")
)

// Descriptor binds a page section to a gesture and a message.
type Descriptor struct {
	ID      string
	Gesture Gesture
	Message string
	// Duration overrides DefaultMessageDuration when non-zero.
	Duration time.Duration
}

// MessageDuration returns how long the descriptor's message stays visible.
func (d Descriptor) MessageDuration() time.Duration {
	if d.Duration > 0 {
		return d.Duration
	}
	return DefaultMessageDuration
}

// Registry is an ordered, immutable set of descriptors keyed by id.
type Registry struct {
	order []Descriptor
	byID  map[string]int
}

// NewRegistry validates descriptors and returns a registry preserving their order.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	r := &Registry{
		order: make([]Descriptor, 0, len(descriptors)),
		byID:  make(map[string]int, len(descriptors)),
	}
	for i, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("section %d: %w", i, ErrEmptySectionID)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("section %q: %w", d.ID, ErrDuplicateSection)
		}
		if !d.Gesture.Valid() {
			return nil, fmt.Errorf("section %q: %w %q", d.ID, ErrUnknownGesture, d.Gesture)
		}
		if d.Duration < 0 {
			return nil, fmt.Errorf("section %q: %w %v", d.ID, ErrInvalidDuration, d.Duration)
		}
		r.byID[d.ID] = len(r.order)
		r.order = append(r.order, d)
	}
	return r, nil
}

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	i, ok := r.byID[id]
	if !ok {
		return Descriptor{}, false
	}
	return r.order[i], true
}

// IDs returns section ids in registry order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, len(r.order))
	for i, d := range r.order {
		ids[i] = d.ID
	}
	return ids
}

// Descriptors returns a copy of the registry contents.
func (r *Registry) Descriptors() []Descriptor {
	if r == nil {
		return nil
	}
	out := make([]Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of sections.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
