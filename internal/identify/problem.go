package identify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/fes"
	"github.com/san-kum/fessim/internal/schedule"
	"github.com/san-kum/fessim/internal/sim"
	"github.com/san-kum/fessim/internal/stim"
)

// Problem fits the constants of one model variant to a recording: the
// model is simulated on the grid of the recorded stimulation train and its
// force at the nodes is compared with the interpolated measurement.
type Problem struct {
	Variant    fes.Variant
	Base       *fes.ParameterSet
	Plan       *schedule.Plan
	History    *stim.History
	Target     []float64
	Sim        sim.Config
	Integrator func() dynamo.Integrator
	Logger     *slog.Logger
}

type ProblemOption func(*Problem)

func WithBase(p *fes.ParameterSet) ProblemOption {
	return func(pr *Problem) { pr.Base = p.Clone() }
}

func WithSimConfig(c sim.Config) ProblemOption {
	return func(pr *Problem) { pr.Sim = c }
}

func WithIntegrator(f func() dynamo.Integrator) ProblemOption {
	return func(pr *Problem) { pr.Integrator = f }
}

func WithLogger(l *slog.Logger) ProblemOption {
	return func(pr *Problem) { pr.Logger = l }
}

// NewProblem rebases rec, schedules its stimulations over the recorded
// duration and samples the target force at the grid nodes. magnitudes is
// required by width and intensity variants.
func NewProblem(v fes.Variant, rec *Recording, magnitudes []float64, integrator func() dynamo.Integrator, opts ...ProblemOption) (*Problem, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	pr := &Problem{
		Variant:    v,
		Base:       fes.Defaults(v),
		Sim:        sim.DefaultConfig(),
		Integrator: integrator,
		Logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(pr)
	}

	rb := rec.Rebase()
	s := schedule.New(schedule.WithLogger(pr.Logger))
	plan, err := s.PlanFloat(rb.StimTimes, rb.Duration())
	if err != nil {
		return nil, err
	}
	h, err := plan.History(magnitudes)
	if err != nil {
		return nil, err
	}
	final, _ := plan.Horizon.Float64()
	target, err := ForceAtNodes(rb.Times, rb.Forces, plan.Nodes, final)
	if err != nil {
		return nil, err
	}

	pr.Plan, pr.History, pr.Target = plan, h, target
	return pr, nil
}

// Simulate runs the variant with the given constants set on top of Base.
func (pr *Problem) Simulate(ctx context.Context, params map[string]float64) (*sim.Result, error) {
	ps := pr.Base.Clone()
	if err := ps.Apply(params); err != nil {
		return nil, err
	}
	m, err := fes.New(pr.Variant, fes.WithParameters(ps))
	if err != nil {
		return nil, err
	}
	s := sim.New(m, pr.Integrator(), sim.WithLogger(pr.Logger))
	return s.Run(ctx, pr.Plan, pr.History, nil, pr.Sim)
}

// Cost is the tracking cost of one parameter combination.
func (pr *Problem) Cost(ctx context.Context, params map[string]float64) (float64, error) {
	res, err := pr.Simulate(ctx, params)
	if err != nil {
		return 0, err
	}
	return TrackingCost(res.Force(), pr.Target)
}

// Identify grid-searches the named constants. Names must be identifiable
// for the variant.
func (pr *Problem) Identify(ctx context.Context, names []string, ranges [][]float64, limit int) (*SearchResult, error) {
	allowed := make(map[string]bool)
	for _, n := range pr.Base.Identifiable() {
		allowed[n] = true
	}
	for _, n := range names {
		if !allowed[n] {
			return nil, fmt.Errorf("%w: %s cannot be identified for %s", fes.ErrUnknownParam, n, pr.Variant)
		}
	}
	res, err := NewGridSearch(names, ranges).WithLimit(limit).Search(ctx, pr.Cost)
	if err != nil {
		return res, err
	}
	pr.Logger.Info("identification done",
		slog.String("variant", pr.Variant.String()),
		slog.Int("evaluated", res.Evaluated),
		slog.Int("failed", res.Failed),
		slog.Float64("cost", res.Cost))
	return res, nil
}
