package integrators

import "github.com/san-kum/fessim/internal/dynamo"

// Euler is the first order forward method. It exists mostly as a baseline
// for convergence checks; the calcium time constant makes it drift quickly.
type Euler struct {
	st stages
}

func NewEuler() *Euler {
	return &Euler{st: newStages(forwardEuler)}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, error) {
	if err := e.st.run(dyn, x, u, t, dt); err != nil {
		return nil, err
	}
	return e.st.combine(x, dt, e.st.tab.weights), nil
}
