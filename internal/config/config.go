package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fessim/internal/fes"
	"github.com/san-kum/fessim/internal/schedule"
	"github.com/san-kum/fessim/internal/sim"
)

const (
	DefaultHorizon    = "1"
	DefaultFrequency  = "10"
	DefaultIntegrator = "rk4"
	DefaultSubsteps   = 10
	DefaultTolerance  = 1e-8
	DefaultModel      = "ding2003"
)

var ErrInvalid = errors.New("config: invalid run configuration")

// Config describes one run. Times are strings so that "1/3" or "0.1" reach the
// scheduler as exact fractions.
type Config struct {
	Horizon        string              `yaml:"horizon"`
	Stimulation    []string            `yaml:"stimulation,omitempty"`
	Frequency      string              `yaml:"frequency,omitempty"`
	Integrator     string              `yaml:"integrator"`
	Substeps       int                 `yaml:"substeps"`
	Adaptive       bool                `yaml:"adaptive,omitempty"`
	Tolerance      float64             `yaml:"tolerance,omitempty"`
	MaxDenominator int64               `yaml:"max_denominator,omitempty"`
	Relationship   *RelationshipConfig `yaml:"relationship,omitempty"`
	Muscles        []MuscleConfig      `yaml:"muscles"`
}

type MuscleConfig struct {
	Name         string             `yaml:"name,omitempty"`
	Model        string             `yaml:"model"`
	Magnitudes   []float64          `yaml:"magnitudes,omitempty"`
	Magnitude    float64            `yaml:"magnitude,omitempty"`
	Truncation   int                `yaml:"truncation,omitempty"`
	Approximated bool               `yaml:"approximated,omitempty"`
	Overrides    map[string]float64 `yaml:"overrides,omitempty"`
}

type RelationshipConfig struct {
	ForceLength   float64 `yaml:"force_length"`
	ForceVelocity float64 `yaml:"force_velocity"`
}

func DefaultConfig() *Config {
	return &Config{
		Horizon:    DefaultHorizon,
		Frequency:  DefaultFrequency,
		Integrator: DefaultIntegrator,
		Substeps:   DefaultSubsteps,
		Tolerance:  DefaultTolerance,
		Muscles:    []MuscleConfig{{Model: DefaultModel}},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Frequency = ""
	cfg.Muscles = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(cfg.Stimulation) == 0 && cfg.Frequency == "" {
		cfg.Frequency = DefaultFrequency
	}
	if len(cfg.Muscles) == 0 {
		cfg.Muscles = []MuscleConfig{{Model: DefaultModel}}
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	out := *c
	out.Stimulation = append([]string(nil), c.Stimulation...)
	if c.Relationship != nil {
		r := *c.Relationship
		out.Relationship = &r
	}
	out.Muscles = make([]MuscleConfig, len(c.Muscles))
	for i, m := range c.Muscles {
		m.Magnitudes = append([]float64(nil), m.Magnitudes...)
		if m.Overrides != nil {
			o := make(map[string]float64, len(m.Overrides))
			for k, v := range m.Overrides {
				o[k] = v
			}
			m.Overrides = o
		}
		out.Muscles[i] = m
	}
	return &out
}

func (c *Config) HorizonRat() (*big.Rat, error) {
	return schedule.ParseTime(c.Horizon)
}

// StimTimes returns the explicit stimulation list, or the even train at
// Frequency when none is given.
func (c *Config) StimTimes() ([]*big.Rat, error) {
	if len(c.Stimulation) > 0 {
		return schedule.ParseTimes(c.Stimulation)
	}
	if c.Frequency == "" {
		return nil, nil
	}
	f, err := schedule.ParseTime(c.Frequency)
	if err != nil {
		return nil, fmt.Errorf("frequency: %w", err)
	}
	h, err := c.HorizonRat()
	if err != nil {
		return nil, err
	}
	return schedule.EvenTrain(f, h)
}

// Scheduler returns a scheduler honoring MaxDenominator. A nil logger keeps
// the default one.
func (c *Config) Scheduler(logger *slog.Logger) *schedule.Scheduler {
	var opts []schedule.Option
	if logger != nil {
		opts = append(opts, schedule.WithLogger(logger))
	}
	if c.MaxDenominator > 0 {
		opts = append(opts, schedule.WithMaxDenominator(c.MaxDenominator))
	}
	return schedule.New(opts...)
}

func (c *Config) Plan(logger *slog.Logger) (*schedule.Plan, error) {
	stims, err := c.StimTimes()
	if err != nil {
		return nil, err
	}
	h, err := c.HorizonRat()
	if err != nil {
		return nil, err
	}
	return c.Scheduler(logger).Plan(stims, h)
}

func (c *Config) SimConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Substeps = c.Substeps
	cfg.Adaptive = c.Adaptive
	if c.Tolerance > 0 {
		cfg.Tolerance = c.Tolerance
	}
	if c.Relationship != nil {
		cfg.Relationship = &fes.Modifiers{
			ForceLength:   c.Relationship.ForceLength,
			ForceVelocity: c.Relationship.ForceVelocity,
		}
	}
	return cfg
}

// Build constructs the model described by m.
func (m MuscleConfig) Build() (fes.Model, error) {
	opts := []fes.Option{
		fes.WithMuscle(m.Name),
		fes.WithTruncation(m.Truncation),
		fes.WithOverrides(m.Overrides),
	}
	if m.Approximated {
		opts = append(opts, fes.Approximated())
	}
	return fes.NewByName(m.Model, opts...)
}

// EventMagnitudes expands the magnitude settings to n events. It returns nil
// when none are configured.
func (m MuscleConfig) EventMagnitudes(n int) ([]float64, error) {
	switch {
	case len(m.Magnitudes) > 0:
		if len(m.Magnitudes) != n {
			return nil, fmt.Errorf("%w: muscle %q has %d magnitudes for %d stimulations", ErrInvalid, m.Name, len(m.Magnitudes), n)
		}
		return m.Magnitudes, nil
	case m.Magnitude != 0:
		out := make([]float64, n)
		for i := range out {
			out[i] = m.Magnitude
		}
		return out, nil
	}
	return nil, nil
}

// BuildMuscles builds every configured muscle with its history aligned to plan.
func (c *Config) BuildMuscles(plan *schedule.Plan) ([]sim.Muscle, error) {
	if len(c.Muscles) == 0 {
		return nil, fmt.Errorf("%w: no muscles", ErrInvalid)
	}
	seen := make(map[string]bool)
	out := make([]sim.Muscle, 0, len(c.Muscles))
	for _, mc := range c.Muscles {
		if seen[mc.Name] {
			return nil, fmt.Errorf("%w: duplicate muscle name %q", ErrInvalid, mc.Name)
		}
		seen[mc.Name] = true

		m, err := mc.Build()
		if err != nil {
			return nil, err
		}
		mags, err := mc.EventMagnitudes(len(plan.Stims))
		if err != nil {
			return nil, err
		}
		h, err := plan.History(mags)
		if err != nil {
			return nil, err
		}
		if err := fes.CheckHistory(m, h); err != nil {
			return nil, fmt.Errorf("muscle %q: %w", mc.Name, err)
		}
		out = append(out, sim.Muscle{Model: m, History: h})
	}
	return out, nil
}

// Validate checks everything that can be checked without running.
func (c *Config) Validate() error {
	if c.Substeps < 1 && !c.Adaptive {
		return fmt.Errorf("%w: substeps must be at least 1", ErrInvalid)
	}
	if c.Relationship != nil && (c.Relationship.ForceLength <= 0 || c.Relationship.ForceVelocity <= 0) {
		return fmt.Errorf("%w: relationship factors must be positive", ErrInvalid)
	}
	plan, err := c.Plan(slog.New(slog.DiscardHandler))
	if err != nil {
		return err
	}
	_, err = c.BuildMuscles(plan)
	return err
}
