package fes

import (
	"math"

	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/stim"
)

// core holds what every variant shares: configuration, the activation
// strategy and the Ding calcium/force equations.
type core struct {
	variant    Variant
	params     *ParameterSet
	overrides  map[string]float64
	truncation int
	activation activation
	muscle     string
}

func (c *core) Variant() Variant      { return c.variant }
func (c *core) Muscle() string        { return c.muscle }
func (c *core) Truncation() int       { return c.truncation }
func (c *core) Params() *ParameterSet { return c.params }

func (c *core) Approximated() bool {
	_, ok := c.activation.(approximatedActivation)
	return ok
}

func (c *core) StateNames() []string {
	names := restStateNames
	if c.variant.Fatigue {
		names = fatigueStateNames
	}
	out := make([]string, len(names))
	for i, n := range names {
		if c.muscle != "" {
			n += "_" + c.muscle
		}
		out[i] = n
	}
	return out
}

func (c *core) StateDim() int {
	if c.variant.Fatigue {
		return len(fatigueStateNames)
	}
	return len(restStateNames)
}

// efficacy maps an event magnitude to its multiplier in the Cn summation.
// nil means every event counts once.
type efficacy func(magnitude float64) float64

// activation produces the Cn_sum forcing term.
type activation interface {
	cnSum(c *core, t, km float64, d Drive, lambda efficacy) (float64, error)
}

type exactActivation struct{}

func (exactActivation) cnSum(c *core, t, km float64, d Drive, lambda efficacy) (float64, error) {
	return c.summation(t, km, d, lambda), nil
}

type approximatedActivation struct{}

func (approximatedActivation) cnSum(_ *core, _, _ float64, d Drive, _ efficacy) (float64, error) {
	if math.IsNaN(d.CnSum) || math.IsInf(d.CnSum, 0) {
		return 0, ErrNonFinite
	}
	return d.CnSum, nil
}

func (c *core) window(t float64, d Drive) stim.Window {
	if d.Pinned {
		return d.Window
	}
	return d.History.WindowBefore(t, c.truncation)
}

// summation is Ding's Cn_sum = sum R_i exp(-(t-t_i)/tauc) lambda_i 1[t_i <= t].
// The first event of the window gets R = 1.
func (c *core) summation(t, km float64, d Drive, lambda efficacy) float64 {
	w := c.window(t, d)
	if w.Empty() {
		return 0
	}
	h := d.History
	tauc := c.params.values[Tauc]
	r0 := km + c.params.values[R0KmRelationship]

	sum := 0.0
	for i := w.Lo; i < w.Hi; i++ {
		ti := h.Time(i)
		// events are ordered, so the indicator is zero from here on
		if ti > t {
			break
		}
		ri := 1.0
		if i > w.Lo {
			ri = 1 + (r0-1)*math.Exp(-(ti-h.Time(i-1))/tauc)
		}
		li := 1.0
		if lambda != nil {
			li = lambda(h.Magnitude(i))
		}
		sum += ri * math.Exp(-(t-ti)/tauc) * li
	}
	return sum
}

func (c *core) cnDot(cn, cnSum float64) float64 {
	tauc := c.params.values[Tauc]
	return cnSum/tauc - cn/tauc
}

func (c *core) forceDot(cn, f, a, tau1, km float64, rel *Modifiers) float64 {
	r := cn / (km + cn)
	return (a*r - f/(tau1+c.params.values[Tau2]*r)) * rel.factor()
}

// fatigueDot returns the Ding fatigue derivatives of A, Tau1 and Km.
func (c *core) fatigueDot(f, a, tau1, km, aRest float64) (float64, float64, float64) {
	p := &c.params.values
	tauFat := p[TauFat]
	aDot := -(a-aRest)/tauFat + p[AlphaA]*f
	tau1Dot := -(tau1-p[Tau1Rest])/tauFat + p[AlphaTau1]*f
	kmDot := -(km-p[KmRest])/tauFat + p[AlphaKm]*f
	return aDot, tau1Dot, kmDot
}

func (c *core) fatigueRest(aRest float64) dynamo.State {
	p := &c.params.values
	return dynamo.State{0, 0, aRest, p[Tau1Rest], p[KmRest]}
}

// check rejects inputs that would otherwise propagate NaN into a solve.
func (c *core) check(x dynamo.State, t float64, d Drive) error {
	if len(x) != c.StateDim() {
		return c.fail(t, ErrDimension)
	}
	if math.IsNaN(t) || math.IsInf(t, 0) || !x.IsValid() {
		return c.fail(t, ErrNonFinite)
	}
	if c.params.values[Tauc] <= 0 {
		return c.fail(t, ErrTimeConstant)
	}
	if c.variant.Fatigue && x[Tau1] <= 0 {
		return c.fail(t, ErrTimeConstant)
	}
	if c.variant.NeedsMagnitude() && d.History.Len() > 0 && !d.History.HasMagnitudes() {
		return c.fail(t, ErrMissingMagnitude)
	}
	if d.Pinned && (d.Window.Lo < 0 || d.Window.Hi > d.History.Len()) {
		return c.fail(t, ErrDimension)
	}
	if rel := d.Relationship; rel != nil {
		if math.IsNaN(rel.factor()) || math.IsInf(rel.factor(), 0) {
			return c.fail(t, ErrNonFinite)
		}
	}
	return nil
}

func (c *core) fail(t float64, err error) error {
	return &EvalError{Variant: c.variant, Time: t, Err: err}
}

// lastMagnitude is the width or intensity of the most recent event in effect.
func (c *core) lastMagnitude(t float64, d Drive) (float64, bool) {
	w := c.window(t, d)
	for i := w.Hi - 1; i >= w.Lo; i-- {
		if d.History.Time(i) <= t {
			return d.History.Magnitude(i), true
		}
	}
	return 0, false
}
