package debug

import (
	"fmt"
	"strings"
	"testing"

	"github.com/scrollguide/guide/internal/engine"
	"github.com/scrollguide/guide/internal/section"
)

func TestAddEntry(t *testing.T) {
	m := New()
	m.Add(KindConfig, "reloaded")
	if len(m.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(m.Entries))
	}
	if m.Entries[0].Kind != "cfg" {
		t.Errorf("expected kind 'cfg', got %q", m.Entries[0].Kind)
	}
}

func TestAddTransition(t *testing.T) {
	m := New()
	m.AddTransition(engine.Transition{
		Kind:      engine.KindSection,
		SectionID: "hero",
		State:     engine.State{Gesture: section.GestureWave, Message: "Welcome!", ActiveSectionID: "hero"},
	})
	m.AddTransition(engine.Transition{Kind: engine.KindIgnored, SectionID: "footer"})

	if m.Entries[0].Kind != "section" || !strings.Contains(m.Entries[0].Message, "hero") {
		t.Errorf("unexpected section entry %+v", m.Entries[0])
	}
	if m.Entries[1].Section != "footer" || m.Entries[1].Kind != "ignored" {
		t.Errorf("ignored entry should name the section: %+v", m.Entries[1])
	}
}

func TestMaxEntriesDropsOldest(t *testing.T) {
	m := New()
	for i := 0; i < maxEntries+50; i++ {
		m.Add("section", fmt.Sprintf("msg %d", i))
	}
	if len(m.Entries) != maxEntries {
		t.Errorf("expected %d entries, got %d", maxEntries, len(m.Entries))
	}
	if m.Entries[0].Message != "msg 50" {
		t.Errorf("oldest kept entry = %q, want %q", m.Entries[0].Message, "msg 50")
	}
}

func TestScrollUpDown(t *testing.T) {
	m := New()
	for i := 0; i < 20; i++ {
		m.Add("section", "msg")
	}
	if m.Offset != 0 {
		t.Fatal("expected offset 0 after adds")
	}

	m.ScrollUp(5)
	if m.Offset != 5 {
		t.Errorf("expected offset 5, got %d", m.Offset)
	}

	m.ScrollDown(3)
	if m.Offset != 2 {
		t.Errorf("expected offset 2, got %d", m.Offset)
	}

	m.ScrollDown(10) // shouldn't go below 0
	if m.Offset != 0 {
		t.Errorf("expected offset 0, got %d", m.Offset)
	}
}

func TestScrollUpCapped(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		m.Add("section", "msg")
	}
	m.ScrollUp(100)
	if m.Offset != 4 { // max is len-1
		t.Errorf("expected offset 4, got %d", m.Offset)
	}
}

func TestViewEmpty(t *testing.T) {
	m := New()
	v := m.View(80, 20)
	if !strings.Contains(v, "No transitions") {
		t.Error("empty view should show 'No transitions' message")
	}
}

func TestViewWithEntries(t *testing.T) {
	m := New()
	m.Add("mount", "gesture slideIn")
	m.Add("err", "reload failed")
	v := m.View(80, 20)
	if !strings.Contains(v, "slideIn") {
		t.Error("view should contain 'slideIn'")
	}
	if !strings.Contains(v, "reload failed") {
		t.Error("view should contain 'reload failed'")
	}
}
