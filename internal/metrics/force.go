package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/fes"
)

// forceSeries records the force component at each observed node.
type forceSeries struct {
	times  []float64
	forces []float64
}

func (s *forceSeries) observe(x dynamo.State, t float64) {
	if len(x) <= fes.F {
		return
	}
	s.times = append(s.times, t)
	s.forces = append(s.forces, x[fes.F])
}

func (s *forceSeries) reset() {
	s.times = s.times[:0]
	s.forces = s.forces[:0]
}

// PeakForce is the largest force seen, in N.
type PeakForce struct {
	forceSeries
}

func NewPeakForce() *PeakForce { return &PeakForce{} }

func (p *PeakForce) Name() string { return "peak_force" }

func (p *PeakForce) Observe(x dynamo.State, u dynamo.Control, t float64) { p.observe(x, t) }

func (p *PeakForce) Value() float64 {
	if len(p.forces) == 0 {
		return 0
	}
	return floats.Max(p.forces)
}

// PeakTime returns when the peak was reached.
func (p *PeakForce) PeakTime() float64 {
	if len(p.forces) == 0 {
		return 0
	}
	return p.times[floats.MaxIdx(p.forces)]
}

func (p *PeakForce) Reset() { p.reset() }

// ForceTimeIntegral is the trapezoidal impulse of the force trace, in N s.
type ForceTimeIntegral struct {
	forceSeries
}

func NewForceTimeIntegral() *ForceTimeIntegral { return &ForceTimeIntegral{} }

func (f *ForceTimeIntegral) Name() string { return "force_time_integral" }

func (f *ForceTimeIntegral) Observe(x dynamo.State, u dynamo.Control, t float64) { f.observe(x, t) }

func (f *ForceTimeIntegral) Value() float64 {
	if len(f.times) < 2 {
		return 0
	}
	return integrate.Trapezoidal(f.times, f.forces)
}

func (f *ForceTimeIntegral) Reset() { f.reset() }

// AboveThreshold is the fraction of nodes at which force exceeds a threshold.
type AboveThreshold struct {
	threshold float64
	above     int
	samples   int
}

func NewAboveThreshold(threshold float64) *AboveThreshold {
	return &AboveThreshold{threshold: threshold}
}

func (a *AboveThreshold) Name() string { return "fraction_above_threshold" }

func (a *AboveThreshold) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) <= fes.F {
		return
	}
	a.samples++
	if x[fes.F] > a.threshold {
		a.above++
	}
}

func (a *AboveThreshold) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return float64(a.above) / float64(a.samples)
}

func (a *AboveThreshold) Reset() {
	a.above = 0
	a.samples = 0
}
