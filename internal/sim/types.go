package sim

import (
	"errors"

	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/fes"
)

var (
	ErrConfig = errors.New("sim: invalid run configuration")

	// ErrHistoryMismatch reports a stimulation history that does not match
	// the scheduled plan event for event.
	ErrHistoryMismatch = errors.New("sim: history does not match plan")
)

type Config struct {
	// Substeps is the number of fixed integrator steps per grid interval.
	Substeps int

	// Adaptive integrates each interval with error control instead; the
	// integrator must support it.
	Adaptive  bool
	Tolerance float64

	ValidateState bool

	Relationship *fes.Modifiers
}

func DefaultConfig() Config {
	return Config{
		Substeps:      10,
		Tolerance:     1e-8,
		ValidateState: true,
	}
}

// Result holds the trajectory sampled at the grid nodes.
type Result struct {
	Variant      string
	Muscle       string
	StateNames   []string
	Approximated bool
	Truncation   int

	Times    []float64
	States   []dynamo.State
	Controls []dynamo.Control
	Metrics  map[string]float64

	Nodes      int
	StepsTaken int
	Warnings   []string
}

// Series extracts component i of every recorded state.
func (r *Result) Series(i int) []float64 {
	out := make([]float64, len(r.States))
	for k, x := range r.States {
		if i < len(x) {
			out[k] = x[i]
		}
	}
	return out
}

func (r *Result) Force() []float64 { return r.Series(fes.F) }

func (r *Result) Final() dynamo.State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}
