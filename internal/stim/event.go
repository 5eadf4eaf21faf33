package stim

import "fmt"

// Event is a single stimulation pulse. Magnitude is a pulse width (s) or a
// pulse intensity (mA) depending on the model that consumes it; frequency-only
// models ignore it and treat every pulse as unit magnitude.
type Event struct {
	Time         float64
	Magnitude    float64
	HasMagnitude bool
}

// At returns a frequency-only event.
func At(t float64) Event {
	return Event{Time: t}
}

// Pulse returns an event carrying a width or intensity magnitude.
func Pulse(t, magnitude float64) Event {
	return Event{Time: t, Magnitude: magnitude, HasMagnitude: true}
}

func (e Event) String() string {
	if !e.HasMagnitude {
		return fmt.Sprintf("stim@%.6g", e.Time)
	}
	return fmt.Sprintf("stim@%.6g(%.6g)", e.Time, e.Magnitude)
}
