// Package visibility reports when page sections cross a visibility threshold.
//
// A Tracker observes a set of elements resolved by id from a Document. It
// never polls: the host tells it when the viewport or layout changes, and it
// pushes one Event per element whose visibility flipped. Events are delivered
// as a single task posted to the host's Dispatcher, never synchronously with
// the scroll that caused them.
//
// A Tracker is not safe for concurrent use. All methods, and the tasks it
// posts, must run on the same host loop.
package visibility

import (
	"github.com/scrollguide/guide/internal/clock"
)

// Event is one visibility transition for a section.
type Event struct {
	SectionID string
	Visible   bool
}

// Document resolves element ids to their current geometry.
type Document interface {
	Element(id string) (Rect, bool)
}

// Layout is a Document backed by a fixed map of element rectangles.
type Layout map[string]Rect

// Element returns the rectangle registered for id.
func (l Layout) Element(id string) (Rect, bool) {
	r, ok := l[id]
	return r, ok
}

// Tracker computes visibility transitions for attached elements.
type Tracker struct {
	doc      Document
	dispatch clock.Dispatcher
	opts     Options

	viewport Viewport
	ids      []string
	visible  map[string]bool
	emit     func(Event)

	attached bool
	gen      uint64
}

// NewTracker creates a tracker reading geometry from doc and delivering
// events through d.
func NewTracker(doc Document, d clock.Dispatcher, opts Options) *Tracker {
	return &Tracker{
		doc:      doc,
		dispatch: d,
		opts:     opts,
	}
}

// SetViewport records the initial viewport without emitting anything.
func (t *Tracker) SetViewport(vp Viewport) {
	t.viewport = vp
}

// Attach starts observing ids. Ids the document cannot resolve are skipped;
// the returned slice lists the ids actually observed. Like a native
// intersection observer, every observed element reports its initial state in
// the first delivered batch.
func (t *Tracker) Attach(ids []string, emit func(Event)) []string {
	t.Detach()

	t.ids = t.ids[:0]
	t.visible = make(map[string]bool, len(ids))
	t.emit = emit
	t.attached = true

	var initial []Event
	for _, id := range ids {
		r, ok := t.doc.Element(id)
		if !ok {
			continue
		}
		v := t.opts.Visible(r, t.viewport)
		t.ids = append(t.ids, id)
		t.visible[id] = v
		initial = append(initial, Event{SectionID: id, Visible: v})
	}
	t.deliver(initial)

	observed := make([]string, len(t.ids))
	copy(observed, t.ids)
	return observed
}

// Scroll moves the viewport and reports any resulting crossings.
func (t *Tracker) Scroll(vp Viewport) {
	t.viewport = vp
	t.recompute()
}

// Relayout re-reads element geometry, e.g. after a resize or re-render.
func (t *Tracker) Relayout() {
	t.recompute()
}

// Detach stops observation. Batches posted but not yet run are discarded.
// Detach is idempotent.
func (t *Tracker) Detach() {
	if !t.attached {
		return
	}
	t.attached = false
	t.gen++
	t.emit = nil
}

// Attached reports whether the tracker is observing.
func (t *Tracker) Attached() bool {
	return t.attached
}

// Observed returns the ids currently observed, in attach order.
func (t *Tracker) Observed() []string {
	if !t.attached {
		return nil
	}
	out := make([]string, len(t.ids))
	copy(out, t.ids)
	return out
}

func (t *Tracker) recompute() {
	if !t.attached {
		return
	}
	var batch []Event
	for _, id := range t.ids {
		r, ok := t.doc.Element(id)
		v := ok && t.opts.Visible(r, t.viewport)
		if v == t.visible[id] {
			continue
		}
		t.visible[id] = v
		batch = append(batch, Event{SectionID: id, Visible: v})
	}
	t.deliver(batch)
}

func (t *Tracker) deliver(batch []Event) {
	if len(batch) == 0 {
		return
	}
	gen := t.gen
	t.dispatch.Post(func() {
		for _, ev := range batch {
			// Re-checked per event: a handler may detach mid-batch.
			if !t.attached || t.gen != gen {
				return
			}
			t.emit(ev)
		}
	})
}
