package fes

import (
	"math"

	"github.com/san-kum/fessim/internal/dynamo"
)

// intensityLambda is the Hmed 2018 efficacy ar (tanh(bs (I - Is)) + cr),
// zero at or below the threshold intensity Is.
func intensityLambda(intensity, ar, bs, is, cr float64) float64 {
	if intensity <= is {
		return 0
	}
	return ar * (math.Tanh(bs*(intensity-is)) + cr)
}

// HmedIntensity weights each pulse of the Ding 2003 summation by an efficacy
// that saturates with pulse intensity (mA).
type HmedIntensity struct {
	core
}

// Efficacy returns lambda for a pulse of the given intensity.
func (m *HmedIntensity) Efficacy(intensity float64) float64 {
	p := &m.params.values
	return intensityLambda(intensity, p[AR], p[BS], p[IS], p[CR])
}

func (m *HmedIntensity) RestState() dynamo.State { return dynamo.State{0, 0} }

func (m *HmedIntensity) Derivative(x dynamo.State, t float64, d Drive) (dynamo.State, error) {
	if err := m.check(x, t, d); err != nil {
		return nil, err
	}
	p := &m.params.values
	km := p[KmRest]
	sum, err := m.activation.cnSum(&m.core, t, km, d, m.Efficacy)
	if err != nil {
		return nil, m.fail(t, err)
	}

	cn, f := x[Cn], x[F]
	return dynamo.State{
		m.cnDot(cn, sum),
		m.forceDot(cn, f, p[ARest], p[Tau1Rest], km, d.Relationship),
	}, nil
}

func (m *HmedIntensity) ExactCnSum(x dynamo.State, t float64, d Drive) (float64, error) {
	if err := m.check(x, t, d); err != nil {
		return 0, err
	}
	return m.summation(t, m.params.values[KmRest], d, m.Efficacy), nil
}

// HmedIntensityFatigue is HmedIntensity with the Ding 2003 fatigue states;
// the intensity efficacy weights the summation exactly as without fatigue.
type HmedIntensityFatigue struct {
	core
}

// Efficacy returns lambda for a pulse of the given intensity.
func (m *HmedIntensityFatigue) Efficacy(intensity float64) float64 {
	p := &m.params.values
	return intensityLambda(intensity, p[AR], p[BS], p[IS], p[CR])
}

func (m *HmedIntensityFatigue) RestState() dynamo.State {
	return m.fatigueRest(m.params.values[ARest])
}

func (m *HmedIntensityFatigue) Derivative(x dynamo.State, t float64, d Drive) (dynamo.State, error) {
	if err := m.check(x, t, d); err != nil {
		return nil, err
	}
	cn, f, a, tau1, km := x[Cn], x[F], x[A], x[Tau1], x[Km]
	sum, err := m.activation.cnSum(&m.core, t, km, d, m.Efficacy)
	if err != nil {
		return nil, m.fail(t, err)
	}

	aDot, tau1Dot, kmDot := m.fatigueDot(f, a, tau1, km, m.params.values[ARest])
	return dynamo.State{
		m.cnDot(cn, sum),
		m.forceDot(cn, f, a, tau1, km, d.Relationship),
		aDot,
		tau1Dot,
		kmDot,
	}, nil
}

func (m *HmedIntensityFatigue) ExactCnSum(x dynamo.State, t float64, d Drive) (float64, error) {
	if err := m.check(x, t, d); err != nil {
		return 0, err
	}
	return m.summation(t, x[Km], d, m.Efficacy), nil
}
