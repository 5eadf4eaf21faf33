package integrators

import (
	"math"

	"github.com/san-kum/fessim/internal/dynamo"
)

var _ dynamo.AdaptiveIntegrator = (*RK45)(nil)

const minStep = 1e-12

// RK45 is a Dormand-Prince integrator with error-controlled step sizes.
// Stage buffers are reused, so one instance serves one simulation.
type RK45 struct {
	st       stages
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		st:       newStages(dormandPrince),
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Step takes one Dormand-Prince step of exactly dt and discards the step
// size suggestion.
func (r *RK45) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, error) {
	newX, _, err := r.StepAdaptive(dyn, x, u, t, dt, 1e-6)
	return newX, err
}

// StepAdaptive takes one step of dt and returns the step size suggested for
// the next one.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64, error) {
	xNew, dtNew, _, err := r.step(dyn, x, u, t, dt, tol)
	return xNew, dtNew, err
}

// step returns the new state, the suggested next step and the error ratio
// against tol. A ratio above one means the step should be rejected.
func (r *RK45) step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64, float64, error) {
	if err := r.st.run(dyn, x, u, t, dt); err != nil {
		return nil, 0, 0, err
	}
	tab, k := r.st.tab, r.st.k
	xNew := r.st.combine(x, dt, tab.weights)
	if !xNew.IsValid() {
		return nil, 0, 0, dynamo.ErrUnstable
	}

	errMax := 0.0
	for i := range x {
		est := 0.0
		for j, w := range tab.errW {
			est += w * k[j][i]
		}
		scale := math.Abs(x[i]) + math.Abs(dt*k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(dt*est)/scale)
	}
	ratio := errMax / tol

	var factor float64
	switch {
	case ratio > 1:
		factor = math.Max(r.minScale, r.safety*math.Pow(ratio, -1/(tab.order-1)))
	case ratio > 0:
		factor = math.Min(r.maxScale, r.safety*math.Pow(ratio, -1/tab.order))
	default:
		factor = r.maxScale
	}
	return xNew, dt * factor, ratio, nil
}

// Advance integrates from t to t+span with adaptive steps, never stepping
// past the end. The last accepted step size is returned as a hint for the
// next call.
func (r *RK45) Advance(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, span, dt, tol float64) (dynamo.State, float64, error) {
	if span <= 0 {
		return x, dt, nil
	}
	end := t + span
	if dt <= 0 || dt > span {
		dt = span
	}
	for t < end {
		h := math.Min(dt, end-t)
		if h < minStep {
			return nil, dt, dynamo.ErrStepTooSmall
		}
		xNew, dtNew, ratio, err := r.step(dyn, x, u, t, h, tol)
		if err != nil {
			return nil, dt, err
		}
		dt = dtNew
		if ratio > 1 {
			continue
		}
		x = xNew
		t += h
		if end-t < minStep {
			break
		}
	}
	return x, dt, nil
}
