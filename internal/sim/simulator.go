package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/fes"
	"github.com/san-kum/fessim/internal/schedule"
	"github.com/san-kum/fessim/internal/stim"
)

// Simulator integrates one muscle model across the nodes of a scheduler grid.
// Stimulations land exactly on nodes, so the set of events in effect is
// constant over each interval and comes straight from the grid.
type Simulator struct {
	model      fes.Model
	integrator dynamo.Integrator
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *slog.Logger
}

type Option func(*Simulator)

// WithController replaces the controller chosen from the activation mode.
func WithController(c dynamo.Controller) Option {
	return func(s *Simulator) { s.controller = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func New(model fes.Model, integrator dynamo.Integrator, opts ...Option) *Simulator {
	s := &Simulator{
		model:      model,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run integrates from node 0 to the horizon. x0 nil starts at rest. On a
// failed evaluation the partial result is returned with a
// *dynamo.IntervalError.
func (s *Simulator) Run(ctx context.Context, plan *schedule.Plan, h *stim.History, x0 dynamo.State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if h.Len() != len(plan.Stims) {
		return nil, fmt.Errorf("%w: %d events for %d scheduled stimulations", ErrHistoryMismatch, h.Len(), len(plan.Stims))
	}
	if err := fes.CheckHistory(s.model, h); err != nil {
		return nil, err
	}
	if x0 == nil {
		x0 = s.model.RestState()
	}
	if err := x0.CheckDim(s.model.StateDim()); err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}

	grid := plan.Grid(s.model.Truncation())
	ctrl := s.controller
	if ctrl == nil {
		ctrl = s.defaultController(grid, h, cfg)
	}

	result := &Result{
		Variant:      s.model.Variant().String(),
		Muscle:       s.model.Muscle(),
		StateNames:   s.model.StateNames(),
		Approximated: s.model.Approximated(),
		Truncation:   s.model.Truncation(),
		States:       make([]dynamo.State, 0, grid.Nodes+1),
		Controls:     make([]dynamo.Control, 0, grid.Nodes),
		Times:        make([]float64, 0, grid.Nodes+1),
		Metrics:      make(map[string]float64),
		Nodes:        grid.Nodes,
		Warnings:     append([]string(nil), plan.Warnings...),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	hint := 0.0

	for i := 0; i < grid.Nodes; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t := grid.NodeTime(i)
		u, err := ctrl.Compute(x, i, t)
		if err != nil {
			return result, &dynamo.IntervalError{Node: i, Time: t, State: x.Clone(), Err: err}
		}

		s.record(result, x, u, t)
		result.Controls = append(result.Controls, u)

		d := fes.Drive{
			History:      h,
			Window:       grid.Window(i),
			Pinned:       true,
			Relationship: cfg.Relationship,
		}
		sys := fes.Bind(s.model, d)
		span := grid.NodeTime(i+1) - t

		var newX dynamo.State
		if cfg.Adaptive {
			newX, hint, err = s.integrator.(dynamo.AdaptiveIntegrator).Advance(sys, x, u, t, span, hint, cfg.Tolerance)
		} else {
			newX, err = s.interval(sys, x, u, t, span, cfg.Substeps)
		}
		if err != nil {
			return result, &dynamo.IntervalError{Node: i, Time: t, State: x.Clone(), Err: err}
		}
		if cfg.ValidateState && !newX.IsValid() {
			return result, &dynamo.IntervalError{Node: i, Time: t, State: x.Clone(), Err: dynamo.ErrInvalidState}
		}

		x = newX
		result.StepsTaken++
	}

	s.record(result, x, nil, grid.NodeTime(grid.Nodes))

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("run complete",
		slog.String("variant", result.Variant),
		slog.String("muscle", result.Muscle),
		slog.Int("nodes", grid.Nodes),
		slog.Int("stimulations", h.Len()))

	return result, nil
}

func (s *Simulator) interval(sys dynamo.System, x dynamo.State, u dynamo.Control, t, span float64, n int) (dynamo.State, error) {
	dt := span / float64(n)
	var err error
	for k := 0; k < n; k++ {
		x, err = s.integrator.Step(sys, x, u, t+float64(k)*dt, dt)
		if err != nil {
			return nil, err
		}
	}
	return x, nil
}

// record stores the node sample and feeds metrics and observers.
func (s *Simulator) record(r *Result, x dynamo.State, u dynamo.Control, t float64) {
	r.States = append(r.States, x.Clone())
	r.Times = append(r.Times, t)
	for _, m := range s.metrics {
		m.Observe(x, u, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, u, t)
	}
}

func (s *Simulator) defaultController(grid *schedule.Grid, h *stim.History, cfg Config) dynamo.Controller {
	if s.model.Approximated() {
		return &CnSumController{Model: s.model, Grid: grid, History: h, Relationship: cfg.Relationship}
	}
	return NoControl{}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Adaptive {
		if _, ok := s.integrator.(dynamo.AdaptiveIntegrator); !ok {
			return fmt.Errorf("%w: integrator %T has no adaptive mode", ErrConfig, s.integrator)
		}
		if cfg.Tolerance <= 0 {
			return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", ErrConfig)
		}
		return nil
	}
	if cfg.Substeps < 1 {
		return fmt.Errorf("%w: substeps must be at least 1, got %d", ErrConfig, cfg.Substeps)
	}
	return nil
}
