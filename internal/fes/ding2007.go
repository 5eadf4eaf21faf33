package fes

import (
	"math"

	"github.com/san-kum/fessim/internal/dynamo"
)

// widthScaling is Ding 2007 eq. 3, A = a_scale (1 - exp(-(pw - pd0)/pdt)),
// with widths at or below pd0 producing no force.
func widthScaling(aScale, pw, pd0, pdt float64) float64 {
	if pw <= pd0 {
		return 0
	}
	return aScale * (1 - math.Exp(-(pw-pd0)/pdt))
}

// DingPulseWidth is the Ding 2007 model: the force scaling A follows the width
// of the most recent pulse.
type DingPulseWidth struct {
	core
}

// ScaledA returns the force scaling produced by a pulse of width pw (s).
func (m *DingPulseWidth) ScaledA(pw float64) float64 {
	p := &m.params.values
	return widthScaling(p[AScale], pw, p[PD0], p[PDT])
}

func (m *DingPulseWidth) RestState() dynamo.State { return dynamo.State{0, 0} }

func (m *DingPulseWidth) Derivative(x dynamo.State, t float64, d Drive) (dynamo.State, error) {
	if err := m.check(x, t, d); err != nil {
		return nil, err
	}
	p := &m.params.values
	km := p[KmRest]
	sum, err := m.activation.cnSum(&m.core, t, km, d, nil)
	if err != nil {
		return nil, m.fail(t, err)
	}

	a := 0.0
	if pw, ok := m.lastMagnitude(t, d); ok {
		a = m.ScaledA(pw)
	}
	cn, f := x[Cn], x[F]
	return dynamo.State{
		m.cnDot(cn, sum),
		m.forceDot(cn, f, a, p[Tau1Rest], km, d.Relationship),
	}, nil
}

func (m *DingPulseWidth) ExactCnSum(x dynamo.State, t float64, d Drive) (float64, error) {
	if err := m.check(x, t, d); err != nil {
		return 0, err
	}
	return m.summation(t, m.params.values[KmRest], d, nil), nil
}

// DingPulseWidthFatigue carries the fatigued a_scale as its A state and applies
// the width scaling on top of it.
type DingPulseWidthFatigue struct {
	core
}

func (m *DingPulseWidthFatigue) RestState() dynamo.State {
	return m.fatigueRest(m.params.values[AScale])
}

func (m *DingPulseWidthFatigue) Derivative(x dynamo.State, t float64, d Drive) (dynamo.State, error) {
	if err := m.check(x, t, d); err != nil {
		return nil, err
	}
	p := &m.params.values
	cn, f, a, tau1, km := x[Cn], x[F], x[A], x[Tau1], x[Km]
	sum, err := m.activation.cnSum(&m.core, t, km, d, nil)
	if err != nil {
		return nil, m.fail(t, err)
	}

	scaled := 0.0
	if pw, ok := m.lastMagnitude(t, d); ok {
		scaled = widthScaling(a, pw, p[PD0], p[PDT])
	}
	aDot, tau1Dot, kmDot := m.fatigueDot(f, a, tau1, km, p[AScale])
	return dynamo.State{
		m.cnDot(cn, sum),
		m.forceDot(cn, f, scaled, tau1, km, d.Relationship),
		aDot,
		tau1Dot,
		kmDot,
	}, nil
}

func (m *DingPulseWidthFatigue) ExactCnSum(x dynamo.State, t float64, d Drive) (float64, error) {
	if err := m.check(x, t, d); err != nil {
		return 0, err
	}
	return m.summation(t, x[Km], d, nil), nil
}
