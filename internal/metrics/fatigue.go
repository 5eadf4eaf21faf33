package metrics

import (
	"math"

	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/fes"
)

// FatigueRatio reports the final force scaling A relative to its rest value.
// 1 means unfatigued. States without an A component leave it at 1.
type FatigueRatio struct {
	rest float64
	last float64
	min  float64
}

func NewFatigueRatio(aRest float64) *FatigueRatio {
	f := &FatigueRatio{rest: aRest}
	f.Reset()
	return f
}

func (f *FatigueRatio) Name() string { return "fatigue_ratio" }

func (f *FatigueRatio) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) <= fes.A || f.rest == 0 {
		return
	}
	f.last = x[fes.A] / f.rest
	f.min = math.Min(f.min, f.last)
}

func (f *FatigueRatio) Value() float64 { return f.last }

// Min is the lowest ratio seen during the run.
func (f *FatigueRatio) Min() float64 { return f.min }

func (f *FatigueRatio) Reset() {
	f.last = 1
	f.min = 1
}

// CnSumEffort is the mean Cn summation term fed to an approximated model.
// Exact-mode runs carry no control and report 0.
type CnSumEffort struct {
	sum     float64
	samples int
}

func NewCnSumEffort() *CnSumEffort { return &CnSumEffort{} }

func (c *CnSumEffort) Name() string { return "mean_cn_sum" }

func (c *CnSumEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(u) == 0 {
		return
	}
	c.sum += math.Abs(u[0])
	c.samples++
}

func (c *CnSumEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *CnSumEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
