package fes

import "github.com/san-kum/fessim/internal/dynamo"

// DingFrequency is the Ding 2003 model driven by stimulation timing only.
// State: Cn, F. A, Tau1 and Km stay at their rest constants.
type DingFrequency struct {
	core
}

func (m *DingFrequency) RestState() dynamo.State { return dynamo.State{0, 0} }

func (m *DingFrequency) Derivative(x dynamo.State, t float64, d Drive) (dynamo.State, error) {
	if err := m.check(x, t, d); err != nil {
		return nil, err
	}
	p := &m.params.values
	km := p[KmRest]
	sum, err := m.activation.cnSum(&m.core, t, km, d, nil)
	if err != nil {
		return nil, m.fail(t, err)
	}

	cn, f := x[Cn], x[F]
	return dynamo.State{
		m.cnDot(cn, sum),
		m.forceDot(cn, f, p[ARest], p[Tau1Rest], km, d.Relationship),
	}, nil
}

func (m *DingFrequency) ExactCnSum(x dynamo.State, t float64, d Drive) (float64, error) {
	if err := m.check(x, t, d); err != nil {
		return 0, err
	}
	return m.summation(t, m.params.values[KmRest], d, nil), nil
}

// DingFrequencyFatigue adds the Ding 2003 fatigue model: A, Tau1 and Km are
// states relaxing to rest with time constant tau_fat and driven by force.
type DingFrequencyFatigue struct {
	core
}

func (m *DingFrequencyFatigue) RestState() dynamo.State {
	return m.fatigueRest(m.params.values[ARest])
}

func (m *DingFrequencyFatigue) Derivative(x dynamo.State, t float64, d Drive) (dynamo.State, error) {
	if err := m.check(x, t, d); err != nil {
		return nil, err
	}
	cn, f, a, tau1, km := x[Cn], x[F], x[A], x[Tau1], x[Km]
	sum, err := m.activation.cnSum(&m.core, t, km, d, nil)
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

func (m *DingFrequencyFatigue) ExactCnSum(x dynamo.State, t float64, d Drive) (float64, error) {
	if err := m.check(x, t, d); err != nil {
		return 0, err
	}
	return m.summation(t, x[Km], d, nil), nil
}
