package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fessim/internal/fes"
	"github.com/san-kum/fessim/internal/identify"
	"github.com/san-kum/fessim/internal/sim"
)

var (
	idModel     string
	idMagnitude float64
	idParams    []string
	idPoints    int
	idLimit     int
	idOut       string
)

func identifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identify [recording.yaml...]",
		Short: "fit model constants to recorded force",
		Long: "Fits the identifiable constants of a model to one or more force recordings.\n" +
			"Recordings are yaml files with stim_time, time and force lists; several are\n" +
			"chained one after another.",
		Args: cobra.MinimumNArgs(1),
		RunE: identifyRecording,
	}
	cmd.Flags().StringVar(&idModel, "model", "ding2003", "model variant")
	cmd.Flags().Float64Var(&idMagnitude, "magnitude", 0, "pulse width (s) or intensity (mA) of every stimulation")
	cmd.Flags().StringArrayVar(&idParams, "param", nil, "search range as name=lo:hi[:points] (default: every identifiable constant, ±50%)")
	cmd.Flags().IntVar(&idPoints, "points", 5, "grid points per parameter when not given")
	cmd.Flags().IntVar(&idLimit, "jobs", 0, "concurrent simulations (0 = unbounded)")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().IntVar(&substeps, "substeps", 10, "integrator steps per node interval")
	cmd.Flags().StringVarP(&idOut, "output", "o", "", "write the fitted parameter set (yaml)")
	return cmd
}

// parseRange reads name=lo:hi[:points].
func parseRange(s string, points int) (string, []float64, error) {
	name, bounds, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("--param %q: want name=lo:hi[:points]", s)
	}
	parts := strings.Split(bounds, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", nil, fmt.Errorf("--param %q: want name=lo:hi[:points]", s)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("--param %s: %w", name, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("--param %s: %w", name, err)
	}
	if len(parts) == 3 {
		if points, err = strconv.Atoi(parts[2]); err != nil {
			return "", nil, fmt.Errorf("--param %s: %w", name, err)
		}
	}
	return name, identify.Linspace(lo, hi, points), nil
}

func identifyRecording(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	v, err := fes.ParseVariant(idModel)
	if err != nil {
		return err
	}
	newIntegrator, err := integratorFactory(integrator)
	if err != nil {
		return err
	}

	recs := make([]*identify.Recording, len(args))
	for i, path := range args {
		if recs[i], err = identify.ReadRecording(path); err != nil {
			return err
		}
	}
	rec, starts := identify.Concat(recs...)

	var mags []float64
	if v.NeedsMagnitude() {
		if idMagnitude <= 0 {
			return fmt.Errorf("%s needs --magnitude", v)
		}
		mags = make([]float64, len(rec.StimTimes))
		for i := range mags {
			mags[i] = idMagnitude
		}
	}

	sc := sim.DefaultConfig()
	sc.Substeps = substeps
	problem, err := identify.NewProblem(v, rec, mags, newIntegrator,
		identify.WithSimConfig(sc),
		identify.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	var names []string
	var ranges [][]float64
	if len(idParams) == 0 {
		base := problem.Base.GetParams()
		for _, name := range problem.Base.Identifiable() {
			names = append(names, name)
			ranges = append(ranges, identify.Linspace(0.5*base[name], 1.5*base[name], idPoints))
		}
	}
	for _, p := range idParams {
		name, r, err := parseRange(p, idPoints)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, r)
	}

	header("identify " + v.String())
	field("recordings", "%d", len(recs))
	if len(starts) > 0 {
		field("phase starts", "%v", starts)
	}
	field("stimulations", "%d", len(rec.StimTimes))
	field("nodes", "%d", problem.Plan.Nodes)
	field("combinations", "%d", identify.NewGridSearch(names, ranges).Size())
	for _, w := range problem.Plan.Warnings {
		warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := problem.Identify(ctx, names, ranges, idLimit)
	if err != nil {
		return err
	}

	fmt.Println()
	header("best fit")
	sort.Strings(names)
	for _, name := range names {
		field(name, "%g", res.Params[name])
	}
	field("cost", "%.6g", res.Cost)
	if res.Failed > 0 {
		warn(fmt.Sprintf("%d of %d combinations failed to simulate", res.Failed, res.Evaluated))
	}

	if idOut == "" {
		return nil
	}
	fitted := problem.Base.Clone()
	if err := fitted.Apply(res.Params); err != nil {
		return err
	}
	data, err := yaml.Marshal(fitted)
	if err != nil {
		return err
	}
	if err := os.WriteFile(idOut, data, 0644); err != nil {
		return err
	}
	fmt.Println(subtleStyle.Render("wrote " + idOut))
	return nil
}
