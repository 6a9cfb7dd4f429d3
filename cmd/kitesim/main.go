package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/kitesim/internal/analysis"
	"github.com/san-kum/kitesim/internal/automation"
	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/export"
	"github.com/san-kum/kitesim/internal/metrics"
	"github.com/san-kum/kitesim/internal/optim"
	"github.com/san-kum/kitesim/internal/sim"
	"github.com/san-kum/kitesim/internal/storage"
	"github.com/san-kum/kitesim/internal/stream"
	"github.com/san-kum/kitesim/internal/tui"
	"github.com/san-kum/kitesim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	program    string
	dt         float64
	duration   float64
	windSpeed  float64
	turbulence float64
	lineLen    float64
	noSave     bool
	frameRate  int
	topDown    bool
	svgOut     string
	serveAddr  string
	sweepMet   string

	mcTrials     int
	mcSeed       int64
	mcWindJitter float64
	mcTurbJitter float64
	mcSeconds    float64
	sweepTime    float64
	analyzeCol   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kitesim",
		Short: "two-line delta kite flight simulator",
		Run: func(cmd *cobra.Command, args []string) {
			// Default to the interactive cockpit when no command given
			tui.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".kitesim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "fly a headless run and record it",
		RunE:  runFlight,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().StringVar(&program, "program", "", "steering program (none, left, right, weave, flip)")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	runCmd.Flags().Float64Var(&duration, "time", 0, "duration override")
	runCmd.Flags().Float64Var(&windSpeed, "wind", 0, "wind speed override (m/s)")
	runCmd.Flags().Float64Var(&turbulence, "turbulence", -1, "turbulence override (0..1)")
	runCmd.Flags().Float64Var(&lineLen, "lines", 0, "line length override (m)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "skip recording the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "fly a headless run with live terminal view",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	liveCmd.Flags().StringVar(&program, "program", "", "steering program")
	liveCmd.Flags().Float64Var(&duration, "time", 0, "duration override")
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded flights",
		RunE:  listFlights,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot flight telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  plotFlight,
	}

	pathCmd := &cobra.Command{
		Use:   "path [run_id]",
		Short: "draw the flight path",
		Args:  cobra.ExactArgs(1),
		RunE:  pathFlight,
	}
	pathCmd.Flags().BoolVar(&topDown, "top", false, "view from above instead of the side")
	pathCmd.Flags().StringVar(&svgOut, "svg", "", "write SVG to file instead of drawing in the terminal")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a flight as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportFlight,
	}
	exportCmd.Flags().StringVar(&svgOut, "out", "", "output file (stdout when empty)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export flight samples to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream live telemetry over WebSocket",
		RunE:  serveTelemetry,
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	serveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid-search line length and turbulence",
		RunE:  sweepParams,
	}
	sweepCmd.Flags().StringVar(&sweepMet, "metric", "control_effort", "metric to minimize")
	sweepCmd.Flags().StringVar(&program, "program", "", "steering program")
	sweepCmd.Flags().Float64Var(&sweepTime, "time", 15, "duration per run")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "oscillation analysis of a recorded flight",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeFlight,
	}
	analyzeCmd.Flags().StringVar(&analyzeCol, "column", "tension_l", "telemetry column to analyze")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted batch of flights from a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "probe launch robustness under perturbed wind",
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().StringVar(&preset, "preset", "", "base preset")
	monteCarloCmd.Flags().StringVar(&program, "program", "", "steering program")
	monteCarloCmd.Flags().IntVar(&mcTrials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed (0 = time-based)")
	monteCarloCmd.Flags().Float64Var(&mcWindJitter, "wind-jitter", 2, "max wind speed deviation (m/s)")
	monteCarloCmd.Flags().Float64Var(&mcTurbJitter, "turb-jitter", 0.15, "max turbulence deviation")
	monteCarloCmd.Flags().Float64Var(&mcSeconds, "time", 10, "seconds per trial")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive cockpit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive()
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, pathCmd, analyzeCmd, exportCmd, exportCSVCmd, serveCmd, sweepCmd, scenarioCmd, monteCarloCmd, presetsCmd, tuiCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves preset, config file and flag overrides into a
// final configuration. Flag overrides win over the file, the file over
// the preset.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
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

	if dt > 0 {
		cfg.Sim.Dt = dt
	}
	if duration > 0 {
		cfg.Sim.Duration = duration
	}
	if windSpeed > 0 {
		cfg.Wind.Speed = windSpeed
	}
	if turbulence >= 0 {
		cfg.Wind.Turbulence = turbulence
	}
	if lineLen > 0 {
		cfg.Lines.Length = lineLen
	}
	if program != "" {
		cfg.Sim.Program = program
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildRunner(cfg *config.Config) (*sim.Runner, error) {
	simCfg := cfg.SimConfigFor()

	mk, ok := sim.Programs()[cfg.Sim.Program]
	if !ok {
		return nil, fmt.Errorf("unknown steering program: %s", cfg.Sim.Program)
	}

	runner := sim.NewRunner(sim.NewSimulation(simCfg), mk())
	for _, m := range metrics.Defaults(simCfg) {
		runner.AddMetric(m)
	}
	return runner, nil
}

func runFlight(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner, err := buildRunner(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("flying %s program in %.1f m/s wind...\n", cfg.Sim.Program, cfg.Wind.Speed)
	start := time.Now()

	result, err := runner.Run(context.Background(), cfg.RunConfigFor())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("steps: %d\n", result.StepsTaken)
	for _, runErr := range result.Errors {
		fmt.Printf("warning: %v\n", runErr)
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.4f\n", name, result.Metrics[name])
	}
	w.Flush()

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Preset:    preset,
		Program:   cfg.Sim.Program,
		Dt:        cfg.Sim.Dt,
		Duration:  cfg.Sim.Duration,
		WindSpeed: cfg.Wind.Speed,
		LineLen:   cfg.Lines.Length,
	}, result)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner, err := buildRunner(cfg)
	if err != nil {
		return err
	}

	renderer := tui.NewLiveRenderer(runner.Simulation().Config(), frameRate)
	runner.AddObserver(renderer)

	renderer.Start()
	defer renderer.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCfg := cfg.RunConfigFor()
	// Pace the run to wall time so the view is watchable.
	runCfg.Dt = 1.0 / 60
	paced := &pacer{interval: time.Second / 60}
	runner.AddObserver(paced)

	_, err = runner.Run(ctx, runCfg)
	return err
}

// pacer sleeps each step so a headless run advances in real time.
type pacer struct {
	interval time.Duration
	last     time.Time
}

func (p *pacer) OnStep(s sim.Sample) {
	if !p.last.IsZero() {
		if wait := p.interval - time.Since(p.last); wait > 0 {
			time.Sleep(wait)
		}
	}
	p.last = time.Now()
}

func listFlights(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no flights recorded")
		return nil
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tPRESET\tPROGRAM\tWIND\tLINES\tDURATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1fm/s\t%.0fm\t%.1fs\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Preset,
			run.Program,
			run.WindSpeed,
			run.LineLen,
			run.Duration,
		)
	}
	return w.Flush()
}

var plotColumns = []struct {
	column  string
	caption string
}{
	{"py", "altitude (m)"},
	{"aoa_deg", "angle of attack (deg)"},
	{"tension_l", "left line tension (N)"},
	{"tension_r", "right line tension (N)"},
	{"bar_angle", "bar angle (rad)"},
}

func plotFlight(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	fmt.Printf("flight: %s\n", meta.ID)
	fmt.Printf("program: %s  wind: %.1f m/s  lines: %.0f m\n\n", meta.Program, meta.WindSpeed, meta.LineLen)

	for _, p := range plotColumns {
		col, ok := series[p.column]
		if !ok || len(col.Values) == 0 {
			continue
		}
		graph := asciigraph.Plot(col.Values,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func pathFlight(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	samples, err := samplesFromSeries(series)
	if err != nil {
		return err
	}

	view := viz.SideView
	if topDown {
		view = viz.TopView
	}

	if svgOut != "" {
		svg := export.FlightPathSVG(view, samples, 800, 500)
		if err := export.WriteFile(svgOut, svg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
		return nil
	}

	canvas := viz.FlightPath(view, samples, 70, 22)
	fmt.Print(canvas.String())
	return nil
}

func exportFlight(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	samples, err := samplesFromSeries(series)
	if err != nil {
		return err
	}

	result := &sim.Result{Samples: samples, Metrics: meta.Metrics, StepsTaken: len(samples)}
	return storage.ExportJSON(svgOut, *meta, result)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write(names); err != nil {
		return err
	}

	rows := 0
	for _, name := range names {
		if len(series[name].Values) > rows {
			rows = len(series[name].Values)
		}
	}
	for i := 0; i < rows; i++ {
		row := make([]string, len(names))
		for j, name := range names {
			vals := series[name].Values
			if i < len(vals) {
				row[j] = strconv.FormatFloat(vals[i], 'f', 6, 64)
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func serveTelemetry(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := stream.NewServer(sim.NewSimulation(cfg.SimConfigFor()))
	return srv.ListenAndServe(ctx, serveAddr)
}

func sweepParams(cmd *cobra.Command, args []string) error {
	base, err := loadConfig()
	if err != nil {
		return err
	}

	grid := optim.NewGridSearch(
		[]string{"line_length", "turbulence"},
		[][]float64{{10, 15, 20, 30}, {0, 0.2, 0.4}},
	)

	build := func(params map[string]float64) (*sim.Runner, sim.RunConfig, error) {
		cfg := *base
		cfg.Lines.Length = params["line_length"]
		cfg.Wind.Turbulence = params["turbulence"]

		runner, err := buildRunner(&cfg)
		if err != nil {
			return nil, sim.RunConfig{}, err
		}
		runCfg := cfg.RunConfigFor()
		runCfg.Duration = sweepTime
		return runner, runCfg, nil
	}

	fmt.Printf("sweeping line length x turbulence, minimizing %s...\n", sweepMet)
	start := time.Now()

	best, val, err := grid.Search(context.Background(), build, sweepMet)
	if err != nil {
		return err
	}

	fmt.Printf("done in %v\n\n", time.Since(start))
	if best == nil {
		return fmt.Errorf("no grid point produced a result")
	}
	fmt.Printf("best %s: %.4f\n", sweepMet, val)
	for _, name := range []string{"line_length", "turbulence"} {
		fmt.Printf("  %s: %g\n", name, best[name])
	}
	return nil
}

func analyzeFlight(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	col, ok := series[analyzeCol]
	if !ok || len(col.Values) == 0 {
		return fmt.Errorf("run has no %q column", analyzeCol)
	}

	fmt.Printf("oscillation analysis: %s\n", meta.ID)
	fmt.Printf("column: %s  samples: %d\n\n", analyzeCol, len(col.Values))

	osc := analysis.Analyze(col.Values, meta.Dt)
	plotData := osc.Spectrum
	if len(plotData) >= 8 {
		plotData = plotData[:len(plotData)/4]
	}

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", analyzeCol)),
	)
	fmt.Println(graph)
	fmt.Println()

	fmt.Printf("dominant frequency: %.3f hz\n", osc.DominantHz)
	if osc.PeriodSec > 0 {
		fmt.Printf("period: %.3f s\n", osc.PeriodSec)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", scenario.Name)
	if scenario.Description != "" {
		fmt.Println(scenario.Description)
	}
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := automation.RunScenario(ctx, scenario)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSTEPS\tENVELOPE\tPEAK TENSION\tERRORS")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%d\n",
			r.Step.Name,
			r.Result.StepsTaken,
			r.Result.Metrics["envelope"],
			r.Result.Metrics["peak_tension"],
			len(r.Result.Errors),
		)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mc := &automation.MonteCarloConfig{
		Base:         base,
		WindJitter:   mcWindJitter,
		TurbJitter:   mcTurbJitter,
		NumTrials:    mcTrials,
		Seed:         mcSeed,
		MinAltitude:  0.1,
		TrialSeconds: mcSeconds,
	}

	fmt.Printf("running %d perturbed trials around %.1f m/s...\n", mcTrials, base.Wind.Speed)
	results, err := automation.RunMonteCarlo(ctx, mc)
	if err != nil {
		return err
	}

	stable, unstable := automation.Stats(results)
	fmt.Printf("stable: %d  unstable: %d\n\n", stable, unstable)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tWIND\tTURB\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%v\n", r.TrialID, r.WindSpeed, r.Turbulence, r.Stable)
	}
	return w.Flush()
}

// samplesFromSeries rebuilds run samples from stored CSV columns, for
// commands that re-render recorded flights.
func samplesFromSeries(series map[string]storage.Series) ([]sim.Sample, error) {
	timeCol, ok := series["time"]
	if !ok {
		return nil, fmt.Errorf("run has no time column")
	}

	col := func(name string) []float64 { return series[name].Values }
	px, py, pz := col("px"), col("py"), col("pz")
	vx, vy, vz := col("vx"), col("vy"), col("vz")
	qw, qx, qy, qz := col("qw"), col("qx"), col("qy"), col("qz")

	samples := make([]sim.Sample, 0, len(timeCol.Values))
	for i, t := range timeCol.Values {
		var s sim.Sample
		s.Time = t
		if i < len(px) && i < len(py) && i < len(pz) {
			s.State.Position = mgl64.Vec3{px[i], py[i], pz[i]}
		}
		if i < len(vx) && i < len(vy) && i < len(vz) {
			s.State.Velocity = mgl64.Vec3{vx[i], vy[i], vz[i]}
		}
		if i < len(qw) {
			s.State.Orientation = mgl64.Quat{W: qw[i], V: mgl64.Vec3{at(qx, i), at(qy, i), at(qz, i)}}
		} else {
			s.State.Orientation = mgl64.QuatIdent()
		}
		s.Telemetry = sim.Telemetry{
			ApparentWindSpeed: at(col("apparent_wind"), i),
			Lift:              at(col("lift"), i),
			Drag:              at(col("drag"), i),
			AngleOfAttackDeg:  at(col("aoa_deg"), i),
			TensionLeft:       at(col("tension_l"), i),
			TensionRight:      at(col("tension_r"), i),
			BarAngle:          at(col("bar_angle"), i),
		}
		s.Input = at(col("input"), i)
		samples = append(samples, s)
	}
	return samples, nil
}

func at(vals []float64, i int) float64 {
	if i < len(vals) {
		return vals[i]
	}
	return 0
}
