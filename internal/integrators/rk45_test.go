package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/fessim/internal/dynamo"
)

// blowup derives NaN once x passes a threshold.
type blowup struct{}

func (blowup) StateDim() int   { return 1 }
func (blowup) ControlDim() int { return 0 }

func (blowup) Derive(x dynamo.State, u dynamo.Control, t float64) (dynamo.State, error) {
	if x[0] > 1 {
		return dynamo.State{math.NaN()}, nil
	}
	return dynamo.State{100}, nil
}

func TestRK45_Order(t *testing.T) {
	dyn := &simpleDynamics{}
	endErr := func(dt float64) float64 {
		r := NewRK45()
		x := dynamo.State{1, 0}
		steps := int(math.Round(2 / dt))
		var err error
		for i := 0; i < steps; i++ {
			if x, err = r.Step(dyn, x, nil, float64(i)*dt, dt); err != nil {
				t.Fatal(err)
			}
		}
		return math.Hypot(x[0]-math.Cos(2), x[1]+math.Sin(2))
	}

	coarse, fine := endErr(0.1), endErr(0.05)
	// fifth order: halving dt cuts the error by about 32
	if ratio := coarse / fine; ratio < 20 {
		t.Errorf("error ratio %.2f (coarse %e, fine %e)", ratio, coarse, fine)
	}
}

func TestRK45_StepHint(t *testing.T) {
	dyn := &simpleDynamics{}
	x0 := dynamo.State{1, 0}

	tests := []struct {
		name   string
		dt     float64
		tol    float64
		shrink bool
	}{
		{"loose tolerance grows", 0.01, 1e-3, false},
		{"tight tolerance shrinks", 0.5, 1e-12, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, next, err := NewRK45().StepAdaptive(dyn, x0, nil, 0, tt.dt, tt.tol)
			if err != nil {
				t.Fatal(err)
			}
			if !x.IsValid() {
				t.Fatalf("invalid state %v", x)
			}
			if tt.shrink != (next < tt.dt) {
				t.Errorf("next step %v from %v", next, tt.dt)
			}
		})
	}
}

func TestRK45_Advance(t *testing.T) {
	integrator := NewRK45()
	dyn := &decay{tau: 0.02}

	x := dynamo.State{0}
	dt := 0.0
	var err error
	for i := 0; i < 10; i++ {
		x, dt, err = integrator.Advance(dyn, x, dynamo.Control{1}, float64(i)*0.01, 0.01, dt, 1e-9)
		if err != nil {
			t.Fatal(err)
		}
	}

	// x' = -x/tau + 1 from rest
	want := 0.02 * (1 - math.Exp(-0.1/0.02))
	if math.Abs(x[0]-want) > 1e-7 {
		t.Errorf("x(0.1) = %.10f, want %.10f", x[0], want)
	}
	if dt <= 0 {
		t.Errorf("step hint %v", dt)
	}
}

func TestRK45_AdvanceEmptySpan(t *testing.T) {
	x := dynamo.State{3}
	got, hint, err := NewRK45().Advance(&decay{tau: 1}, x, nil, 0, 0, 0.1, 1e-6)
	if err != nil || got[0] != 3 || hint != 0.1 {
		t.Errorf("got %v, %v, %v", got, hint, err)
	}
}

func TestRK45_Errors(t *testing.T) {
	r := NewRK45()
	if _, err := r.Step(&failing{after: 3}, dynamo.State{0}, nil, 0, 0.1); !errors.Is(err, errBoom) {
		t.Errorf("derive failure: %v", err)
	}
	if _, err := r.Step(blowup{}, dynamo.State{0}, nil, 0, 0.1); !errors.Is(err, dynamo.ErrUnstable) {
		t.Errorf("NaN stage: %v", err)
	}
	if _, _, err := r.Advance(&decay{tau: 1}, dynamo.State{1}, nil, 0, 1e-13, 0, 1e-6); !errors.Is(err, dynamo.ErrStepTooSmall) {
		t.Errorf("tiny span: %v", err)
	}
}
