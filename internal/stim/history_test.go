package stim

import (
	"errors"
	"math"
	"testing"
)

func mustTimes(t *testing.T, times ...float64) *History {
	t.Helper()
	h, err := FromTimes(times)
	if err != nil {
		t.Fatalf("FromTimes(%v): %v", times, err)
	}
	return h
}

func TestNewHistory_Validation(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   error
	}{
		{"empty", nil, nil},
		{"ordered", []Event{At(0), At(0.1), At(0.2)}, nil},
		{"pulses", []Event{Pulse(0, 3e-4), Pulse(0.05, 4e-4)}, nil},
		{"negative", []Event{At(-0.1)}, ErrNegativeTime},
		{"nan", []Event{At(math.NaN())}, ErrNegativeTime},
		{"duplicate", []Event{At(0.1), At(0.1)}, ErrUnordered},
		{"decreasing", []Event{At(0.2), At(0.1)}, ErrUnordered},
		{"mixed", []Event{Pulse(0, 1), At(0.1)}, ErrMixedMagnitude},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHistory(tt.events...)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFromPulses_LengthMismatch(t *testing.T) {
	_, err := FromPulses([]float64{0, 0.1}, []float64{1})
	if !errors.Is(err, ErrLength) {
		t.Fatalf("error = %v, want ErrLength", err)
	}
}

func TestHistory_Magnitude(t *testing.T) {
	h := mustTimes(t, 0, 0.1)
	if h.HasMagnitudes() {
		t.Error("frequency history reports magnitudes")
	}
	if h.Magnitude(1) != 1 {
		t.Errorf("Magnitude = %v, want 1", h.Magnitude(1))
	}

	p, err := FromPulses([]float64{0, 0.1}, []float64{2e-4, 3e-4})
	if err != nil {
		t.Fatal(err)
	}
	if !p.HasMagnitudes() || p.Magnitude(1) != 3e-4 {
		t.Errorf("pulse magnitudes = %v", p.Magnitudes())
	}

	var empty *History
	if empty.Len() != 0 || empty.LastBefore(1) != -1 {
		t.Error("nil history should behave as empty")
	}
}

func TestLastBefore(t *testing.T) {
	h := mustTimes(t, 0, 0.1, 0.25, 0.4)

	tests := []struct {
		t    float64
		want int
	}{
		{-1, -1},
		{0, 0},
		{0.05, 0},
		{0.1, 1},
		{0.2499, 1},
		{0.25, 2},
		{10, 3},
	}

	for _, tt := range tests {
		if got := h.LastBefore(tt.t); got != tt.want {
			t.Errorf("LastBefore(%v) = %d, want %d", tt.t, got, tt.want)
		}
	}
}

func TestActiveBefore_TruncationProperty(t *testing.T) {
	h := mustTimes(t, 0, 0.03, 0.1, 0.11, 0.2, 0.35, 0.36, 0.5)
	queries := []float64{-0.1, 0, 0.02, 0.1, 0.15, 0.35, 0.4, 1}

	for k := 1; k <= 10; k++ {
		for _, q := range queries {
			full := h.ActiveBefore(q, NoTruncation)
			got := h.ActiveBefore(q, k)

			want := len(full)
			if k < want {
				want = k
			}
			if len(got) != want {
				t.Fatalf("k=%d t=%v: %d indices, want %d", k, q, len(got), want)
			}
			tail := full[len(full)-want:]
			for i := range got {
				if got[i] != tail[i] {
					t.Fatalf("k=%d t=%v: got %v, want most recent %v", k, q, got, tail)
				}
			}
			if len(got) > 0 && got[len(got)-1] != h.LastBefore(q) {
				t.Fatalf("k=%d t=%v: window misses the most recent event", k, q)
			}
		}
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		last, k int
		want    Window
	}{
		{-1, 3, Window{}},
		{0, 3, Window{0, 1}},
		{4, 3, Window{2, 5}},
		{4, 0, Window{0, 5}},
		{4, 10, Window{0, 5}},
	}
	for _, tt := range tests {
		if got := Clip(tt.last, tt.k); got != tt.want {
			t.Errorf("Clip(%d, %d) = %+v, want %+v", tt.last, tt.k, got, tt.want)
		}
	}
}

func TestCursor_MatchesBinarySearch(t *testing.T) {
	h := mustTimes(t, 0, 0.1, 0.2, 0.3, 0.4, 0.5)
	c := h.Cursor()

	for i := 0; i <= 600; i++ {
		q := float64(i) * 0.001
		if got, want := c.LastBefore(q), h.LastBefore(q); got != want {
			t.Fatalf("cursor at %v = %d, want %d", q, got, want)
		}
	}

	// going backwards falls back to a search
	if got := c.LastBefore(0.15); got != 1 {
		t.Errorf("rewound cursor = %d, want 1", got)
	}

	c.Reset()
	if w := c.WindowBefore(0.45, 2); w != (Window{3, 5}) {
		t.Errorf("WindowBefore after reset = %+v", w)
	}
}
