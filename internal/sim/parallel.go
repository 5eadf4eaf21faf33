package sim

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/fes"
	"github.com/san-kum/fessim/internal/schedule"
	"github.com/san-kum/fessim/internal/stim"
)

// Muscle is one member of a multi-muscle run. All muscles share the grid.
type Muscle struct {
	Model   fes.Model
	History *stim.History
	X0      dynamo.State
}

// Ensemble runs several muscles on the same plan in parallel. Models are only
// read, while integrators and metrics are created per run.
type Ensemble struct {
	newIntegrator func() dynamo.Integrator
	newMetrics    func(fes.Model) []dynamo.Metric
	limit         int
	logger        *slog.Logger
}

type EnsembleOption func(*Ensemble)

func WithMetrics(f func(fes.Model) []dynamo.Metric) EnsembleOption {
	return func(e *Ensemble) { e.newMetrics = f }
}

// WithLimit bounds the number of concurrent runs.
func WithLimit(n int) EnsembleOption {
	return func(e *Ensemble) { e.limit = n }
}

func WithEnsembleLogger(l *slog.Logger) EnsembleOption {
	return func(e *Ensemble) { e.logger = l }
}

func NewEnsemble(newIntegrator func() dynamo.Integrator, opts ...EnsembleOption) *Ensemble {
	e := &Ensemble{newIntegrator: newIntegrator, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run returns one result per muscle, in input order. The first failure
// cancels the remaining runs.
func (e *Ensemble) Run(ctx context.Context, plan *schedule.Plan, muscles []Muscle, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(muscles))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i, m := range muscles {
		g.Go(func() error {
			s := New(m.Model, e.newIntegrator(), WithLogger(e.logger))
			if e.logger.Enabled(ctx, slog.LevelDebug) {
				s.AddObserver(&LogObserver{Logger: e.logger, Every: 10, Muscle: m.Model.Muscle()})
			}
			if e.newMetrics != nil {
				for _, metric := range e.newMetrics(m.Model) {
					s.AddMetric(metric)
				}
			}
			res, err := s.Run(ctx, plan, m.History, m.X0, cfg)
			if err != nil {
				return fmt.Errorf("muscle %q: %w", m.Model.Muscle(), err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
