package stim

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrNegativeTime   = errors.New("stim: stimulation time must be finite and non-negative")
	ErrUnordered      = errors.New("stim: stimulation times must be strictly increasing")
	ErrMixedMagnitude = errors.New("stim: either every event carries a magnitude or none does")
	ErrLength         = errors.New("stim: times and magnitudes differ in length")
)

// NoTruncation selects the full prefix of events in ActiveBefore and friends.
const NoTruncation = 0

// History is an immutable, time-ordered record of stimulation events.
// The zero value and a nil *History are both empty histories.
type History struct {
	times []float64
	mags  []float64
}

func NewHistory(events ...Event) (*History, error) {
	h := &History{times: make([]float64, len(events))}
	withMag := len(events) > 0 && events[0].HasMagnitude
	if withMag {
		h.mags = make([]float64, len(events))
	}
	for i, e := range events {
		if e.HasMagnitude != withMag {
			return nil, fmt.Errorf("event %d: %w", i, ErrMixedMagnitude)
		}
		if err := checkTime(i, e.Time, h.times); err != nil {
			return nil, err
		}
		h.times[i] = e.Time
		if withMag {
			h.mags[i] = e.Magnitude
		}
	}
	return h, nil
}

// FromTimes builds a frequency-only history.
func FromTimes(times []float64) (*History, error) {
	events := make([]Event, len(times))
	for i, t := range times {
		events[i] = At(t)
	}
	return NewHistory(events...)
}

// FromPulses builds a history whose events carry a width or intensity each.
func FromPulses(times, magnitudes []float64) (*History, error) {
	if len(times) != len(magnitudes) {
		return nil, fmt.Errorf("%w: %d times, %d magnitudes", ErrLength, len(times), len(magnitudes))
	}
	events := make([]Event, len(times))
	for i := range times {
		events[i] = Pulse(times[i], magnitudes[i])
	}
	return NewHistory(events...)
}

func checkTime(i int, t float64, prev []float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return fmt.Errorf("event %d (t=%g): %w", i, t, ErrNegativeTime)
	}
	if i > 0 && t <= prev[i-1] {
		return fmt.Errorf("event %d (t=%g after %g): %w", i, t, prev[i-1], ErrUnordered)
	}
	return nil
}

func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.times)
}

func (h *History) Time(i int) float64 { return h.times[i] }

// HasMagnitudes reports whether events carry widths or intensities.
// An empty history reports false.
func (h *History) HasMagnitudes() bool {
	return h != nil && h.mags != nil
}

// Magnitude returns the magnitude of event i, or 1 for frequency-only histories.
func (h *History) Magnitude(i int) float64 {
	if h.mags == nil {
		return 1
	}
	return h.mags[i]
}

func (h *History) Event(i int) Event {
	if h.mags == nil {
		return At(h.times[i])
	}
	return Pulse(h.times[i], h.mags[i])
}

// Times returns a copy of the event times.
func (h *History) Times() []float64 {
	out := make([]float64, h.Len())
	if h != nil {
		copy(out, h.times)
	}
	return out
}

// Magnitudes returns a copy of the event magnitudes, or nil.
func (h *History) Magnitudes() []float64 {
	if !h.HasMagnitudes() {
		return nil
	}
	out := make([]float64, len(h.mags))
	copy(out, h.mags)
	return out
}

// LastBefore returns the index of the most recent event with time <= t, or -1.
func (h *History) LastBefore(t float64) int {
	n := h.Len()
	if n == 0 {
		return -1
	}
	return sort.Search(n, func(i int) bool { return h.times[i] > t }) - 1
}

// WindowBefore returns the events in effect at t, restricted to the k most
// recent when k > 0.
func (h *History) WindowBefore(t float64, k int) Window {
	return Clip(h.LastBefore(t), k)
}

// ActiveBefore lists the indices of the events in effect at t, oldest first.
func (h *History) ActiveBefore(t float64, k int) []int {
	return h.WindowBefore(t, k).Indices()
}

// Cursor returns an incremental reader positioned before the first event.
func (h *History) Cursor() *Cursor {
	return &Cursor{h: h, last: -1, at: math.Inf(-1)}
}
