package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fessim/internal/config"
	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/integrators"
	"github.com/san-kum/fessim/internal/metrics"
	"github.com/san-kum/fessim/internal/schedule"
	"github.com/san-kum/fessim/internal/sim"
	"github.com/san-kum/fessim/internal/storage"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	label      string

	horizon   string
	stims     []string
	frequency string
	maxDen    int64

	model        string
	muscle       string
	magnitude    float64
	magnitudes   []float64
	truncation   int
	approximated bool
	overrides    map[string]string

	integrator string
	substeps   int
	adaptive   bool
	tolerance  float64
	jobs       int

	showNodes bool

	columns     []string
	plotHeight  int
	plotWidth   int
	plotAllCols bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fessim",
		Short:         "functional electrical stimulation muscle force simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fessim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	scheduleCmd := &cobra.Command{
		Use:   "schedule [times...]",
		Short: "compute the node grid for a stimulation train",
		RunE:  scheduleTrain,
	}
	scheduleCmd.Flags().StringVar(&horizon, "horizon", config.DefaultHorizon, "final time in seconds (fractions allowed)")
	scheduleCmd.Flags().StringVar(&frequency, "freq", "", "even train frequency in Hz when no times are given")
	scheduleCmd.Flags().Int64Var(&maxDen, "max-den", schedule.DefaultMaxDenominator, "largest denominator for approximated inputs")
	scheduleCmd.Flags().IntVar(&truncation, "truncation", 0, "stimulation window per node (0 keeps all)")
	scheduleCmd.Flags().BoolVar(&showNodes, "nodes", false, "print the stimulation window of every node")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration (family/name)")
	runCmd.Flags().StringVar(&label, "label", "", "run label")
	runCmd.Flags().StringVar(&horizon, "horizon", config.DefaultHorizon, "final time in seconds (fractions allowed)")
	runCmd.Flags().StringSliceVar(&stims, "stim", nil, "stimulation times (fractions allowed)")
	runCmd.Flags().StringVar(&frequency, "freq", config.DefaultFrequency, "even train frequency in Hz")
	runCmd.Flags().Int64Var(&maxDen, "max-den", schedule.DefaultMaxDenominator, "largest denominator for approximated inputs")
	runCmd.Flags().StringVar(&model, "model", config.DefaultModel, "model variant")
	runCmd.Flags().StringVar(&muscle, "muscle", "", "muscle name")
	runCmd.Flags().Float64Var(&magnitude, "magnitude", 0, "pulse width (s) or intensity (mA) for every stimulation")
	runCmd.Flags().Float64SliceVar(&magnitudes, "magnitudes", nil, "per-stimulation pulse widths or intensities")
	runCmd.Flags().IntVar(&truncation, "truncation", 0, "stimulation window per node (0 keeps all)")
	runCmd.Flags().BoolVar(&approximated, "approximated", false, "drive the model with the sum fed at each node")
	runCmd.Flags().StringToStringVar(&overrides, "set", nil, "parameter overrides (name=value)")
	runCmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator ("+strings.Join(integrators.Names(), ", ")+")")
	runCmd.Flags().IntVar(&substeps, "substeps", config.DefaultSubsteps, "integrator steps per node interval")
	runCmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive step size (rk45)")
	runCmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "adaptive error tolerance")
	runCmd.Flags().IntVar(&jobs, "jobs", 0, "muscles simulated concurrently (0 = all)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVarP(&columns, "column", "c", nil, "columns to plot (default: forces)")
	plotCmd.Flags().BoolVar(&plotAllCols, "all", false, "plot every column")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")

	presetsCmd := &cobra.Command{
		Use:   "presets [family]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	rootCmd.AddCommand(scheduleCmd, runCmd, listCmd, plotCmd, presetsCmd, exportJSONCmd, identifyCommand())
	return rootCmd
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func integratorFactory(name string) (func() dynamo.Integrator, error) {
	if _, err := integrators.New(name); err != nil {
		return nil, err
	}
	return func() dynamo.Integrator {
		integ, _ := integrators.New(name)
		return integ
	}, nil
}

func scheduleTrain(cmd *cobra.Command, args []string) error {
	cfg := &config.Config{Horizon: horizon, Stimulation: args, MaxDenominator: maxDen}
	if cmd.Flags().Changed("freq") {
		cfg.Frequency = frequency
	}
	if len(args) == 0 && cfg.Frequency == "" {
		return fmt.Errorf("give stimulation times or --freq")
	}

	plan, err := cfg.Plan(newLogger())
	if err != nil {
		return err
	}
	grid := plan.Grid(truncation)

	header("schedule")
	field("horizon", "%s s", plan.Horizon.RatString())
	field("stimulations", "%d", len(plan.Stims))
	field("nodes", "%d", plan.Nodes)
	field("step", "%.6g s", grid.Step())
	for _, w := range plan.Warnings {
		warn(w)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STIM\tTIME\tNODE")
	for j, s := range plan.Stims {
		fmt.Fprintf(w, "%d\t%s\t%d\n", j, s.RatString(), plan.StimNode(j))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !showNodes {
		return nil
	}
	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tTIME\tLAST\tWINDOW")
	for i := 0; i <= grid.Nodes; i++ {
		win := grid.Window(i)
		fmt.Fprintf(w, "%d\t%s\t%d\t[%d, %d)\n", i, grid.NodeRat(i).RatString(), grid.Last(i), win.Lo, win.Hi)
	}
	return w.Flush()
}

// resolveConfig layers preset, config file and explicitly set flags, in that
// order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		family, name, _ := strings.Cut(preset, "/")
		p := config.GetPreset(family, name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available in %s: %v)", preset, family, config.ListPresets(family))
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("horizon") {
		cfg.Horizon = horizon
	}
	if flags.Changed("stim") {
		cfg.Stimulation = stims
		cfg.Frequency = ""
	}
	if flags.Changed("freq") {
		cfg.Frequency = frequency
		cfg.Stimulation = nil
	}
	if flags.Changed("max-den") {
		cfg.MaxDenominator = maxDen
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("substeps") {
		cfg.Substeps = substeps
	}
	if flags.Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if flags.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("model") {
		cfg.Muscles = []config.MuscleConfig{{Name: muscle, Model: model}}
	}
	if flags.Changed("muscle") && len(cfg.Muscles) == 1 {
		cfg.Muscles[0].Name = muscle
	}

	for i := range cfg.Muscles {
		m := &cfg.Muscles[i]
		if flags.Changed("magnitude") {
			m.Magnitude = magnitude
			m.Magnitudes = nil
		}
		if flags.Changed("magnitudes") {
			m.Magnitudes = magnitudes
		}
		if flags.Changed("truncation") {
			m.Truncation = truncation
		}
		if flags.Changed("approximated") {
			m.Approximated = approximated
		}
		for name, raw := range overrides {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("--set %s: %w", name, err)
			}
			if m.Overrides == nil {
				m.Overrides = make(map[string]float64)
			}
			m.Overrides[name] = v
		}
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	newIntegrator, err := integratorFactory(cfg.Integrator)
	if err != nil {
		return err
	}

	plan, err := cfg.Plan(logger)
	if err != nil {
		return err
	}
	muscles, err := cfg.BuildMuscles(plan)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ensemble := sim.NewEnsemble(newIntegrator,
		sim.WithMetrics(metrics.Standard),
		sim.WithEnsembleLogger(logger),
		sim.WithLimit(jobs),
	)

	runLabel := label
	if runLabel == "" {
		runLabel = preset
	}
	if runLabel == "" {
		runLabel = cfg.Muscles[0].Model
	}

	fmt.Printf("running %s (%d muscle(s), %d nodes)...\n", runLabel, len(muscles), plan.Nodes)
	start := time.Now()

	results, err := ensemble.Run(ctx, plan, muscles, cfg.SimConfig())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunInfo{
		Label:      runLabel,
		Horizon:    cfg.Horizon,
		Integrator: cfg.Integrator,
		Substeps:   cfg.Substeps,
		Adaptive:   cfg.Adaptive,
		Config:     cfg,
	}, results)
	if err != nil {
		return err
	}

	header("run " + runID)
	field("completed in", "%v", elapsed)
	field("nodes", "%d", plan.Nodes)
	field("steps", "%d", results[0].StepsTaken)
	for _, w := range results[0].Warnings {
		warn(w)
	}
	for _, res := range results {
		name := res.Variant
		if res.Muscle != "" {
			name = res.Muscle + " (" + res.Variant + ")"
		}
		fmt.Println()
		header(name)
		keys := make([]string, 0, len(res.Metrics))
		for k := range res.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			field(k, "%.6f", res.Metrics[k])
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tTIME\tHORIZON\tNODES\tINTEG\tMUSCLES")

	for _, run := range runs {
		names := make([]string, len(run.Muscles))
		for i, m := range run.Muscles {
			names[i] = m.Model
			if m.Name != "" {
				names[i] = m.Name + ":" + m.Model
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%ss\t%d\t%s\t%s\n",
			run.ID[:8],
			run.Label,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Horizon,
			run.Nodes,
			run.Integrator,
			strings.Join(names, ","),
		)
	}

	return w.Flush()
}

func isForceColumn(c string) bool {
	return c == "F" || strings.HasPrefix(c, "F_")
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadStates(meta.ID)
	if err != nil {
		return err
	}
	if len(tr.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	selected := columns
	if len(selected) == 0 {
		for _, c := range tr.Columns[1:] {
			if plotAllCols || isForceColumn(c) {
				selected = append(selected, c)
			}
		}
	}

	header("run " + meta.ID)
	field("label", "%s", meta.Label)
	field("horizon", "%s s", meta.Horizon)
	field("samples", "%d", len(tr.Rows))
	fmt.Println()

	for _, c := range selected {
		data := tr.Column(c)
		if data == nil {
			return fmt.Errorf("no column %q (have %s)", c, strings.Join(tr.Columns[1:], ", "))
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(c+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	families := config.Families()
	if len(args) == 1 {
		families = []string{args[0]}
	}
	for _, family := range families {
		presets := config.ListPresets(family)
		if len(presets) == 0 {
			fmt.Printf("no presets for model: %s\n", family)
			continue
		}
		header(family)
		for _, p := range presets {
			cfg := config.GetPreset(family, p)
			models := make([]string, len(cfg.Muscles))
			for i, m := range cfg.Muscles {
				models[i] = m.Model
			}
			fmt.Printf("  %-24s %s\n", family+"/"+p, subtleStyle.Render(strings.Join(models, ", ")))
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadStates(meta.ID)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, tr)
}
