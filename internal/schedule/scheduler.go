package schedule

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/san-kum/fessim/internal/stim"
)

const (
	// DefaultMaxDenominator bounds the reduced denominator of stim/horizon.
	DefaultMaxDenominator int64 = 1_000_000

	// HighNodeCount is the node count from which a plan carries a
	// performance warning.
	HighNodeCount = 1000

	// DefaultMaxNodes caps the node count a plan may request. Grid holds
	// three slices of about Nodes entries, so the cap keeps a default grid
	// in the low hundreds of megabytes.
	DefaultMaxNodes int64 = 10_000_000
)

// Scheduler computes stimulation-synchronized uniform grids.
type Scheduler struct {
	MaxDenominator int64
	MaxNodes       int64
	Logger         *slog.Logger
}

type Option func(*Scheduler)

func WithMaxDenominator(d int64) Option {
	return func(s *Scheduler) { s.MaxDenominator = d }
}

func WithMaxNodes(n int64) Option {
	return func(s *Scheduler) { s.MaxNodes = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.Logger = l }
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		MaxDenominator: DefaultMaxDenominator,
		MaxNodes:       DefaultMaxNodes,
		Logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan is the outcome of scheduling a stimulation train over a horizon.
type Plan struct {
	Nodes   int
	Horizon *big.Rat
	Stims   []*big.Rat

	// Approximated lists the inputs that were replaced by a bounded-denominator
	// fraction because their float64 value had no short exact form.
	Approximated []int
	Warnings     []string

	norm []*big.Rat
}

// HighNodeCount reports whether the plan crossed the performance threshold.
func (p *Plan) HighNodeCount() bool { return p.Nodes >= HighNodeCount }

// NodeCount is the package-level shortcut for New().NodeCount.
func NodeCount(stimTimes []float64, horizon float64) (int, error) {
	return New().NodeCount(stimTimes, horizon)
}

// NodeCount returns the minimal number of uniform steps over horizon such that
// every stimulation time lands on a node.
func (s *Scheduler) NodeCount(stimTimes []float64, horizon float64) (int, error) {
	p, err := s.PlanFloat(stimTimes, horizon)
	if err != nil {
		return 0, err
	}
	return p.Nodes, nil
}

// PlanFloat converts float inputs with bounded-denominator approximation and
// plans them. Conversions that lose information are flagged on the plan.
func (s *Scheduler) PlanFloat(stimTimes []float64, horizon float64) (*Plan, error) {
	h, lossy, err := FromFloat(horizon, s.MaxDenominator)
	if err != nil {
		return nil, fmt.Errorf("horizon: %w", err)
	}
	if lossy {
		s.Logger.Warn("horizon approximated", slog.Float64("horizon", horizon), slog.String("fraction", h.RatString()))
	}

	stims := make([]*big.Rat, len(stimTimes))
	var approx []int
	for i, t := range stimTimes {
		r, lossy, err := FromFloat(t, s.MaxDenominator)
		if err != nil {
			return nil, fmt.Errorf("stimulation %d: %w", i, err)
		}
		if lossy {
			approx = append(approx, i)
			s.Logger.Warn("stimulation time approximated",
				slog.Int("index", i), slog.Float64("time", t), slog.String("fraction", r.RatString()))
		}
		stims[i] = r
	}

	p, err := s.Plan(stims, h)
	if err != nil {
		return nil, err
	}
	p.Approximated = approx
	if len(approx) > 0 {
		p.Warnings = append(p.Warnings, fmt.Sprintf("%d stimulation time(s) approximated to denominator <= %d", len(approx), s.MaxDenominator))
	}
	return p, nil
}

// Plan schedules exact rational inputs.
func (s *Scheduler) Plan(stimTimes []*big.Rat, horizon *big.Rat) (*Plan, error) {
	if horizon == nil || horizon.Sign() <= 0 {
		return nil, ErrHorizon
	}

	maxDen := big.NewInt(s.MaxDenominator)
	acc := big.NewInt(1)
	norm := make([]*big.Rat, len(stimTimes))

	for i, t := range stimTimes {
		if t.Sign() < 0 || t.Cmp(horizon) > 0 {
			return nil, fmt.Errorf("stimulation %d (%s s, horizon %s s): %w", i, t.FloatString(6), horizon.FloatString(6), ErrOutOfHorizon)
		}
		if i > 0 && t.Cmp(stimTimes[i-1]) <= 0 {
			return nil, fmt.Errorf("stimulation %d: %w", i, ErrUnordered)
		}

		n := new(big.Rat).Quo(t, horizon)
		d := n.Denom()
		if s.MaxDenominator > 0 && d.Cmp(maxDen) > 0 {
			return nil, fmt.Errorf("stimulation %d (%s): denominator %s: %w", i, t.RatString(), d.String(), ErrDenominatorBound)
		}
		norm[i] = n
		acc = lcm(acc, d)
	}

	if !acc.IsInt64() || (s.MaxNodes > 0 && acc.Int64() > s.MaxNodes) {
		return nil, fmt.Errorf("%w: %s nodes", ErrNodeOverflow, acc.String())
	}

	p := &Plan{
		Nodes:   int(acc.Int64()),
		Horizon: new(big.Rat).Set(horizon),
		Stims:   stimTimes,
		norm:    norm,
	}

	if p.HighNodeCount() {
		msg := fmt.Sprintf("node count %d is high; consider evenly spaced stimulation (common frequency)", p.Nodes)
		p.Warnings = append(p.Warnings, msg)
		s.Logger.Warn("high node count", slog.Int("nodes", p.Nodes), slog.Int("stimulations", len(stimTimes)))
	}

	return p, nil
}

// StimNode returns the grid node on which stimulation i lands.
func (p *Plan) StimNode(i int) int {
	k := new(big.Rat).Mul(p.norm[i], new(big.Rat).SetInt64(int64(p.Nodes)))
	return int(k.Num().Int64())
}

// StimTimes returns the scheduled stimulation times as float64, computed from
// the exact fractions so they compare equal to the matching node times.
func (p *Plan) StimTimes() []float64 {
	out := make([]float64, len(p.Stims))
	for i, r := range p.Stims {
		out[i], _ = r.Float64()
	}
	return out
}

// History builds a stimulation history aligned with the grid. magnitudes may be
// nil for frequency-only models.
func (p *Plan) History(magnitudes []float64) (*stim.History, error) {
	if magnitudes == nil {
		return stim.FromTimes(p.StimTimes())
	}
	return stim.FromPulses(p.StimTimes(), magnitudes)
}
