package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/twolayer/internal/config"
	"github.com/san-kum/twolayer/internal/conversion"
	"github.com/san-kum/twolayer/internal/experiment"
	"github.com/san-kum/twolayer/internal/forcing"
	"github.com/san-kum/twolayer/internal/metrics"
	"github.com/san-kum/twolayer/internal/models"
	"github.com/san-kum/twolayer/internal/quantity"
	"github.com/san-kum/twolayer/internal/storage"
	"github.com/san-kum/twolayer/internal/tui"
	"github.com/san-kum/twolayer/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir  string
	logLevel string
	theme    string

	configFile string
	preset     string
	scenario   string
	years      int
	level      float64
	csvFile    string
	csvUnit    string
	dt         float64
	workers    int
	scenarios  []string

	// two-layer parameters
	lambda0  float64
	du       float64
	dl       float64
	eta      float64
	efficacy float64

	// impulse-response parameters
	q1 float64
	q2 float64
	d1 float64
	d2 float64

	check  bool
	height int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "twolayer",
		Short:        "two-layer ocean energy balance model",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(lvl)
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			if theme != "" {
				viz.SetTheme(theme)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLiveApp(nil)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".twolayer", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "", fmt.Sprintf("color theme %v", viz.ThemeNames()))

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a forcing scenario and store the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	parameterFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "step a scenario with a live view",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runLiveApp(nil)
			}
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			return runLiveApp(cfg)
		},
	}
	scenarioFlags(liveCmd)
	parameterFlags(liveCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [model]",
		Short: "run several forcing scenarios concurrently",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnsemble,
	}
	scenarioFlags(ensembleCmd)
	parameterFlags(ensembleCmd)
	ensembleCmd.Flags().StringSliceVar(&scenarios, "scenarios", []string{"abrupt-2x", "abrupt-4x", "1pct"}, "forcing scenarios")
	ensembleCmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "concurrent runs")

	convertCmd := &cobra.Command{
		Use:   "convert [model]",
		Short: "convert parameters to the other parameterization",
		Args:  cobra.ExactArgs(1),
		RunE:  convertParameters,
	}
	parameterFlags(convertCmd)
	convertCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	convertCmd.Flags().BoolVar(&check, "check", false, "check timescales against the system matrix eigenvalues")

	summaryCmd := &cobra.Command{
		Use:   "summary [model]",
		Short: "print ECS, TCR and heat uptake efficiency",
		Args:  cobra.ExactArgs(1),
		RunE:  summarize,
	}
	parameterFlags(summaryCmd)
	summaryCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

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
	plotCmd.Flags().IntVar(&height, "height", viz.DefaultPlotOptions.Height, "plot height")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			res, err := st.LoadResult(args[0])
			if err != nil {
				return err
			}
			return storage.ExportJSON(os.Stdout, meta.Scenario, res)
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list named forcing scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			for _, n := range forcing.Names() {
				fmt.Println(n)
			}
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, ensembleCmd, convertCmd, summaryCmd, listCmd, plotCmd, exportJSONCmd, presetsCmd, scenariosCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&scenario, "scenario", config.DefaultScenario, fmt.Sprintf("forcing scenario %v", forcing.Names()))
	cmd.Flags().IntVar(&years, "years", config.DefaultYears, "scenario length in years")
	cmd.Flags().Float64Var(&level, "level", 3.74, "forcing level in W/m^2")
	cmd.Flags().StringVar(&csvFile, "csv", "", "read forcing from a CSV file")
	cmd.Flags().StringVar(&csvUnit, "unit", conversion.UnitFlux, "unit of the CSV forcing")
	cmd.Flags().Float64Var(&dt, "dt", 1, "timestep in years")
}

func parameterFlags(cmd *cobra.Command) {
	tl := models.DefaultTwoLayerParameters()
	ir := models.DefaultImpulseResponseParameters()

	cmd.Flags().Float64Var(&lambda0, "lambda0", tl.Lambda0.Magnitude, "feedback parameter, W/m^2/K")
	cmd.Flags().Float64Var(&du, "du", tl.Du.Magnitude, "upper layer depth, m")
	cmd.Flags().Float64Var(&dl, "dl", tl.Dl.Magnitude, "deep layer depth, m")
	cmd.Flags().Float64Var(&eta, "eta", tl.Eta.Magnitude, "heat exchange coefficient, W/m^2/K")
	cmd.Flags().Float64Var(&efficacy, "efficacy", tl.Efficacy.Magnitude, "deep ocean efficacy")
	cmd.Flags().Float64Var(&q1, "q1", ir.Q1.Magnitude, "fast mode sensitivity, K/(W/m^2)")
	cmd.Flags().Float64Var(&q2, "q2", ir.Q2.Magnitude, "slow mode sensitivity, K/(W/m^2)")
	cmd.Flags().Float64Var(&d1, "d1", ir.D1.Magnitude, "fast timescale, yr")
	cmd.Flags().Float64Var(&d2, "d2", ir.D2.Magnitude, "slow timescale, yr")
}

// buildConfig layers the preset, then the config file, then any flags the
// user set explicitly.
func buildConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Model = model

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		cfg.Model = model
	}

	flags := cmd.Flags()
	if flags.Changed("scenario") {
		cfg.Forcing.Scenario = scenario
	}
	if flags.Changed("years") {
		cfg.Forcing.Years = years
	}
	if flags.Changed("level") {
		cfg.Forcing.Level = quantity.New(level, conversion.UnitFlux)
	}
	if flags.Changed("csv") {
		cfg.Forcing.CSV = csvFile
	}
	if flags.Changed("unit") {
		cfg.Forcing.Unit = csvUnit
	}
	if flags.Changed("dt") {
		cfg.DeltaT = quantity.New(dt, conversion.UnitTime)
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	applyParameterFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyParameterFlags(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string, dst *quantity.Quantity, v float64, unit string) {
		if cmd.Flags().Changed(name) {
			*dst = quantity.New(v, unit)
		}
	}
	tl, ir := &cfg.TwoLayer, &cfg.ImpulseResponse
	set("lambda0", &tl.Lambda0, lambda0, conversion.UnitFeedback)
	set("du", &tl.Du, du, conversion.UnitDepth)
	set("dl", &tl.Dl, dl, conversion.UnitDepth)
	set("eta", &tl.Eta, eta, conversion.UnitFeedback)
	set("q1", &ir.Q1, q1, conversion.UnitSensitivity)
	set("q2", &ir.Q2, q2, conversion.UnitSensitivity)
	set("d1", &ir.D1, d1, conversion.UnitTime)
	set("d2", &ir.D2, d2, conversion.UnitTime)
	if cmd.Flags().Changed("efficacy") {
		tl.Efficacy = quantity.New(efficacy, quantity.Dimensionless)
		ir.Efficacy = tl.Efficacy
	}
}

// parameterConfig builds a config for commands that only need parameters.
func parameterConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.Model = model
	applyParameterFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg)
	exp.SetLogger(logrus.StandardLogger())
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s %s...\n", cfg.Model, scenarioName(cfg))
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(scenarioName(cfg), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.Len())
	fmt.Println()
	fmt.Println(viz.MetricTable(result.Metrics))
	return nil
}

func scenarioName(cfg *config.Config) string {
	if cfg.Forcing.CSV != "" {
		return cfg.Forcing.CSV
	}
	return cfg.Forcing.Scenario
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	series := make([]quantity.Series, len(scenarios))
	for i, name := range scenarios {
		series[i], err = forcing.Named(name, cfg.Forcing.Level, cfg.Forcing.Years)
		if err != nil {
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	results, err := experiment.RunEnsemble(ctx, experiment.NewRegistry(), cfg, series, logrus.StandardLogger())
	if err != nil {
		return err
	}
	logrus.WithField("elapsed", time.Since(start)).Info("ensemble complete")

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tRUN\tPEAK\tFINAL RNDT\tREALISED")
	for i, res := range results {
		runID, err := st.Save(scenarios[i], res)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%.4f\n",
			scenarios[i],
			runID,
			res.Metrics["peak_warming"],
			res.Metrics["final_rndt"],
			res.Metrics["realised_fraction"],
		)
	}
	return w.Flush()
}

func runLiveApp(cfg *config.Config) error {
	p := tea.NewProgram(tui.NewLiveApp(experiment.NewRegistry(), cfg, logrus.StandardLogger()), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func convertParameters(cmd *cobra.Command, args []string) error {
	cfg, err := parameterConfig(cmd, args[0])
	if err != nil {
		return err
	}

	var tl conversion.TwoLayerParameters
	var out any
	switch cfg.Model {
	case models.NameTwoLayer:
		tl = cfg.TwoLayer
		ir, err := conversion.ToImpulseResponse(tl)
		if err != nil {
			return err
		}
		out = map[string]conversion.ImpulseResponseParameters{models.NameImpulseResponse: ir}
	default:
		tl, err = conversion.ToTwoLayer(cfg.ImpulseResponse)
		if err != nil {
			return err
		}
		out = map[string]conversion.TwoLayerParameters{models.NameTwoLayer: tl}
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if !check {
		return nil
	}
	h, err := conversion.GeoffroyHelpers(tl)
	if err != nil {
		return err
	}
	numeric, err := conversion.NumericalTimescales(tl)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nMODE\tANALYTIC\tEIGEN")
	fmt.Fprintf(w, "fast\t%.6g\t%.6g\n", h.Tau1, numeric[0])
	fmt.Fprintf(w, "slow\t%.6g\t%.6g\n", h.Tau2, numeric[1])
	return w.Flush()
}

func summarize(cmd *cobra.Command, args []string) error {
	cfg, err := parameterConfig(cmd, args[0])
	if err != nil {
		return err
	}
	m, err := experiment.NewRegistry().GetModel(cfg)
	if err != nil {
		return err
	}
	s, err := metrics.Summarize(m)
	if err != nil {
		return err
	}
	fmt.Println(viz.MetricTable(map[string]float64{
		"lambda0": s.Lambda0,
		"ecs":     s.ECS,
		"tcr":     s.TCR,
		"tcr/ecs": s.TCRECS,
		"kappa":   s.HeatUptakeEfficiency,
	}))
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
	fmt.Fprintln(w, "ID\tMODEL\tSCENARIO\tTIME\tSTEPS\tDT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.Model,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.DeltaT,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	res, err := st.LoadResult(runID)
	if err != nil {
		return err
	}
	if res.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", res.Len())

	opts := viz.DefaultPlotOptions
	opts.Height = height
	fmt.Println(viz.PlotLayers(res.Upper, res.Deep, opts))
	fmt.Println()
	fmt.Println(viz.Plot("top of atmosphere imbalance", res.Rndt, opts))
	fmt.Println()
	fmt.Println(viz.Plot("forcing", res.Forcing, opts))
	fmt.Println()
	fmt.Println(strings.TrimSpace(viz.MetricTable(res.Metrics)))
	return nil
}
