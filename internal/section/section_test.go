package section

import (
	"errors"
	"testing"
	"time"
)

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name    string
		input   []Descriptor
		wantErr error
	}{
		{
			name: "valid",
			input: []Descriptor{
				{ID: "hero", Gesture: GestureWave, Message: "Welcome!"},
				{ID: "pricing", Gesture: GesturePoint, Message: "Plans", Duration: time.Second},
			},
		},
		{
			name:    "empty id",
			input:   []Descriptor{{Gesture: GestureWave}},
			wantErr: ErrEmptySectionID,
		},
		{
			name: "duplicate id",
			input: []Descriptor{
				{ID: "hero", Gesture: GestureWave},
				{ID: "hero", Gesture: GesturePoint},
			},
			wantErr: ErrDuplicateSection,
		},
		{
			name:    "unknown gesture",
			input:   []Descriptor{{ID: "hero", Gesture: "dance"}},
			wantErr: ErrUnknownGesture,
		},
		{
			name:    "negative duration",
			input:   []Descriptor{{ID: "hero", Gesture: GestureWave, Duration: -time.Second}},
			wantErr: ErrInvalidDuration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.input)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistryLookupAndOrder(t *testing.T) {
	r, err := NewRegistry([]Descriptor{
		{ID: "b", Gesture: GestureWave},
		{ID: "a", Gesture: GestureThinking, Duration: 2 * time.Second},
	})
	if err != nil {
		t.Fatal(err)
	}

	ids := r.IDs()
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Errorf("IDs() = %v, want [b a]", ids)
	}

	d, ok := r.Lookup("a")
	if !ok {
		t.Fatal("expected a to be registered")
	}
	if d.MessageDuration() != 2*time.Second {
		t.Errorf("MessageDuration() = %v, want 2s", d.MessageDuration())
	}

	if _, ok := r.Lookup("missing"); ok {
		t.Error("missing id should not resolve")
	}
}

func TestDefaultMessageDuration(t *testing.T) {
	d := Descriptor{ID: "x", Gesture: GestureIdle}
	if got := d.MessageDuration(); got != 5*time.Second {
		t.Errorf("MessageDuration() = %v, want 5s", got)
	}
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	if _, ok := r.Lookup("hero"); ok {
		t.Error("nil registry should not resolve ids")
	}
	if r.Len() != 0 || r.IDs() != nil {
		t.Error("nil registry should be empty")
	}
}
