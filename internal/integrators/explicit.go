package integrators

import "github.com/san-kum/fessim/internal/dynamo"

// tableau is an explicit Runge-Kutta scheme in Butcher form. errW, when set,
// holds the weight difference to an embedded lower order solution.
type tableau struct {
	nodes   []float64
	coupled [][]float64
	weights []float64
	errW    []float64
	order   float64
}

var (
	forwardEuler = tableau{
		nodes:   []float64{0},
		coupled: [][]float64{{}},
		weights: []float64{1},
		order:   1,
	}

	classicRK4 = tableau{
		nodes:   []float64{0, 0.5, 0.5, 1},
		coupled: [][]float64{{}, {0.5}, {0, 0.5}, {0, 0, 1}},
		weights: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		order:   4,
	}

	// dormandPrince is the 5(4) pair. Its last stage sits on the accepted
	// point, so the error estimate comes for free.
	dormandPrince = tableau{
		nodes: []float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1},
		coupled: [][]float64{
			{},
			{1.0 / 5},
			{3.0 / 40, 9.0 / 40},
			{44.0 / 45, -56.0 / 15, 32.0 / 9},
			{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
			{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
			{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
		},
		weights: []float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0},
		errW: []float64{
			35.0/384 - 5179.0/57600,
			0,
			500.0/1113 - 7571.0/16695,
			125.0/192 - 393.0/640,
			-2187.0/6784 + 92097.0/339200,
			11.0/84 - 187.0/2100,
			-1.0 / 40,
		},
		order: 5,
	}
)

// stages holds the derivative buffers of one tableau. The buffers are reused
// between steps, so a stepper built on it is not safe for concurrent use.
type stages struct {
	tab     tableau
	k       []dynamo.State
	scratch dynamo.State
}

func newStages(tab tableau) stages {
	return stages{tab: tab}
}

func (s *stages) ensure(n int) {
	if len(s.k) == len(s.tab.nodes) && len(s.scratch) == n {
		return
	}
	s.k = make([]dynamo.State, len(s.tab.nodes))
	for i := range s.k {
		s.k[i] = make(dynamo.State, n)
	}
	s.scratch = make(dynamo.State, n)
}

func (s *stages) eval(dst dynamo.State, dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64) error {
	k, err := dyn.Derive(x, u, t)
	if err != nil {
		return err
	}
	if len(k) != len(dst) {
		return dynamo.ErrDimensionMismatch
	}
	copy(dst, k)
	return nil
}

// run evaluates every stage of one step of size dt from (t, x).
func (s *stages) run(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) error {
	n := len(x)
	s.ensure(n)
	for st, row := range s.tab.coupled {
		in := x
		if st > 0 {
			in = s.scratch
			for i := 0; i < n; i++ {
				acc := 0.0
				for j, a := range row {
					acc += a * s.k[j][i]
				}
				in[i] = x[i] + dt*acc
			}
		}
		if err := s.eval(s.k[st], dyn, in, u, t+s.tab.nodes[st]*dt); err != nil {
			return err
		}
	}
	return nil
}

// combine returns x + dt * sum(w[j] * k[j]) in a fresh state.
func (s *stages) combine(x dynamo.State, dt float64, w []float64) dynamo.State {
	out := make(dynamo.State, len(x))
	for i := range x {
		acc := 0.0
		for j, wj := range w {
			acc += wj * s.k[j][i]
		}
		out[i] = x[i] + dt*acc
	}
	return out
}
