package theme

import "testing"

func TestGestureColor(t *testing.T) {
	tests := []struct {
		gesture string
		want    string
	}{
		{"wave", string(ColorWave)},
		{"thinking", string(ColorThinking)},
		{"slideIn", string(ColorSlideIn)},
		{"unknown", string(ColorDefault)},
	}
	for _, tt := range tests {
		if got := string(GestureColor(tt.gesture)); got != tt.want {
			t.Errorf("GestureColor(%q) = %s, want %s", tt.gesture, got, tt.want)
		}
	}
}

func TestKindColor(t *testing.T) {
	if KindColor("teardown") != ColorTeardown {
		t.Error("teardown should use the danger color")
	}
	if KindColor("nope") != ColorDimmed {
		t.Error("unknown kinds should be dimmed")
	}
}
