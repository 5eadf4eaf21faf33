package integrators

import "github.com/san-kum/fessim/internal/dynamo"

// RK4 is the classic fourth order method, the default stepper for node
// intervals. Give each simulation its own instance.
type RK4 struct {
	st stages
}

func NewRK4() *RK4 {
	return &RK4{st: newStages(classicRK4)}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, error) {
	if err := r.st.run(dyn, x, u, t, dt); err != nil {
		return nil, err
	}
	return r.st.combine(x, dt, r.st.tab.weights), nil
}
