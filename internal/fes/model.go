package fes

import (
	"fmt"

	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/stim"
)

// State component indices. Fatigue variants carry all five, the others the
// first two.
const (
	Cn = iota
	F
	A
	Tau1
	Km
)

var (
	restStateNames    = []string{"Cn", "F"}
	fatigueStateNames = []string{"Cn", "F", "A", "Tau1", "Km"}
)

// Modifiers scales the force production term. The zero value is not neutral;
// use Unit or leave Drive.Relationship nil.
type Modifiers struct {
	ForceLength   float64
	ForceVelocity float64
}

func Unit() Modifiers { return Modifiers{ForceLength: 1, ForceVelocity: 1} }

func (m *Modifiers) factor() float64 {
	if m == nil {
		return 1
	}
	return m.ForceLength * m.ForceVelocity
}

// Drive gathers the per-evaluation inputs besides state and time.
type Drive struct {
	History *stim.History

	// Window restricts the summation to the given events when Pinned is set,
	// typically the node window handed out by the scheduler grid. Otherwise
	// the events in effect at t are selected, truncated as configured.
	Window stim.Window
	Pinned bool

	// CnSum is the auxiliary control used by approximated models.
	CnSum float64

	Relationship *Modifiers
}

// Model is one member of the force/fatigue family. Derivative is a pure
// function of its arguments and the model's ParameterSet.
type Model interface {
	Variant() Variant
	Muscle() string
	Approximated() bool
	Truncation() int

	StateNames() []string
	StateDim() int
	RestState() dynamo.State
	Params() *ParameterSet

	Derivative(x dynamo.State, t float64, d Drive) (dynamo.State, error)

	// ExactCnSum evaluates the stimulation summation term at t whatever the
	// activation mode, e.g. to feed or check an approximated model.
	ExactCnSum(x dynamo.State, t float64, d Drive) (float64, error)
}

var _ dynamo.Configurable = (*ParameterSet)(nil)

type Option func(*core)

// WithParameters replaces the published defaults. The set is cloned.
func WithParameters(p *ParameterSet) Option {
	return func(c *core) { c.params = p.Clone() }
}

// WithOverrides sets constants by name on top of the defaults.
func WithOverrides(values map[string]float64) Option {
	return func(c *core) { c.overrides = values }
}

// WithTruncation keeps only the k most recent stimulations in the summation.
func WithTruncation(k int) Option {
	return func(c *core) { c.truncation = k }
}

// Approximated makes the model read Cn_sum from Drive.CnSum instead of
// summing over the history.
func Approximated() Option {
	return func(c *core) { c.activation = approximatedActivation{} }
}

func WithMuscle(name string) Option {
	return func(c *core) { c.muscle = name }
}

// New builds the model for v. Parameter problems surface here as ErrConfig.
func New(v Variant, opts ...Option) (Model, error) {
	c := core{activation: exactActivation{}}
	for _, opt := range opts {
		opt(&c)
	}
	if c.params == nil {
		c.params = Defaults(v)
	}
	if c.params.variant != v {
		return nil, fmt.Errorf("%w: parameters for %s given to %s", ErrConfig, c.params.variant, v)
	}
	if err := c.params.Apply(c.overrides); err != nil {
		return nil, err
	}
	if err := c.params.Validate(); err != nil {
		return nil, err
	}
	if c.truncation < 0 {
		return nil, fmt.Errorf("%w: truncation %d", ErrConfig, c.truncation)
	}
	c.variant = v

	switch v {
	case Ding2003:
		return &DingFrequency{core: c}, nil
	case Ding2003Fatigue:
		return &DingFrequencyFatigue{core: c}, nil
	case Ding2007:
		return &DingPulseWidth{core: c}, nil
	case Ding2007Fatigue:
		return &DingPulseWidthFatigue{core: c}, nil
	case Hmed2018:
		return &HmedIntensity{core: c}, nil
	case Hmed2018Fatigue:
		return &HmedIntensityFatigue{core: c}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownVariant, v)
}

// NewByName is New with a variant name such as "ding2003_fatigue".
func NewByName(name string, opts ...Option) (Model, error) {
	v, err := ParseVariant(name)
	if err != nil {
		return nil, err
	}
	return New(v, opts...)
}

// CheckHistory verifies up front that h can drive m.
func CheckHistory(m Model, h *stim.History) error {
	if m.Variant().NeedsMagnitude() && h.Len() > 0 && !h.HasMagnitudes() {
		return fmt.Errorf("%w: %s needs a %s per event", ErrMissingMagnitude, m.Variant(), m.Variant().Kind)
	}
	return nil
}

// Bind fixes the drive of m and exposes it as a dynamo.System. The control
// vector, when present, overrides Drive.CnSum.
func Bind(m Model, d Drive) dynamo.System {
	return boundSystem{m: m, d: d}
}

type boundSystem struct {
	m Model
	d Drive
}

func (b boundSystem) Derive(x dynamo.State, u dynamo.Control, t float64) (dynamo.State, error) {
	d := b.d
	if len(u) > 0 {
		d.CnSum = u[0]
	}
	return b.m.Derivative(x, t, d)
}

func (b boundSystem) StateDim() int { return b.m.StateDim() }

func (b boundSystem) ControlDim() int {
	if b.m.Approximated() {
		return 1
	}
	return 0
}
