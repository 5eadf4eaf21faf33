package dynamo

import (
	"fmt"
	"math"
)

// State is a physiological state vector; component meaning is fixed by the
// model that produced it.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CheckDim reports a state of the wrong size for a system of dimension n.
func (s State) CheckDim(n int) error {
	if len(s) != n {
		return fmt.Errorf("%w: %d components, want %d", ErrDimensionMismatch, len(s), n)
	}
	return nil
}

// Control carries auxiliary inputs supplied by the caller at each evaluation.
// For approximated activation models it holds the Cn summation term.
type Control []float64

// System is a continuous-time dynamical system dX/dt = f(X, u, t).
// Derive must be a pure function of its arguments.
type System interface {
	Derive(x State, u Control, t float64) (State, error)
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) (State, error)
}

// AdaptiveIntegrator controls its own step size. Advance covers a whole span
// starting from the step hint dt and returns the hint for the next span.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, u Control, t, dt, tol float64) (State, float64, error)
	Advance(dyn System, x State, u Control, t, span, dt, tol float64) (State, float64, error)
}

// Controller supplies the control vector held constant over one grid interval.
type Controller interface {
	Compute(x State, node int, t float64) (Control, error)
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
