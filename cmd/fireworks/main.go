package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fireworks/internal/batch"
	"github.com/san-kum/fireworks/internal/config"
	"github.com/san-kum/fireworks/internal/export"
	"github.com/san-kum/fireworks/internal/fireworks"
	"github.com/san-kum/fireworks/internal/game"
	"github.com/san-kum/fireworks/internal/metrics"
	"github.com/san-kum/fireworks/internal/optim"
	"github.com/san-kum/fireworks/internal/storage"
	"github.com/san-kum/fireworks/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logger   *log.Logger

	// Simulation flags. They only override the preset and config file
	// when set on the command line.
	flagCfg    = config.DefaultConfig()
	configFile string
	preset     string

	// Live view
	frameRate int
	endless   bool
	showHeat  bool
	themeName string

	// Rendering and export
	outDir      string
	cellSize    float64
	imageSize   int
	heatWidth   int
	heatHeight  int
	plainOutput bool

	// Batch
	runs    int
	workers int
	svgPath string

	// Sweep
	sweepParams []string
	sweepMetric string
	maximize    bool
	topN        int

	// Game
	gridSize int
	gameSeed int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fireworks",
		Short: "particle fireworks in a box",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = newLogger(logLevel)
			return err
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fireworks", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&showHeat, "heatmap", false, "print the density map when done")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().BoolVar(&endless, "endless", false, "keep stepping past --steps")
	liveCmd.Flags().BoolVar(&showHeat, "heatmap", false, "start with the heatmap panel open")
	liveCmd.Flags().StringVar(&themeName, "theme", "", "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot in-box count and spread over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	heatmapCmd := &cobra.Command{
		Use:   "heatmap [run_id]",
		Short: "show a run's density map",
		Args:  cobra.ExactArgs(1),
		RunE:  showHeatmap,
	}
	heatmapCmd.Flags().IntVar(&heatWidth, "width", 50, "columns")
	heatmapCmd.Flags().IntVar(&heatHeight, "height", 25, "rows")
	heatmapCmd.Flags().BoolVar(&plainOutput, "plain", false, "no colours")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run's density map and final positions as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportCmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	exportCmd.Flags().Float64Var(&cellSize, "cell", 8, "density cell size in pixels")
	exportCmd.Flags().IntVar(&imageSize, "size", 600, "scatter image size in pixels")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export per-step summary data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "run many seeds in parallel and merge their density maps",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}
	addSimFlags(batchCmd)
	batchCmd.Flags().IntVar(&runs, "runs", 8, "number of runs")
	batchCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = one per CPU)")
	batchCmd.Flags().StringVar(&svgPath, "svg", "", "write the merged density map to this SVG file")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:     "sweep",
		Short:   "grid search over parameters, ranked by a metric",
		Example: "  fireworks sweep --param slowdown=0.2:1:5 --param speed_max=2,3,4 --metric collisions",
		Args:    cobra.NoArgs,
		RunE:    runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "name=lo:hi:n or name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "in_box", "metric to rank by")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "rank highest first")
	sweepCmd.Flags().IntVar(&topN, "top", 10, "rows to show")

	gameCmd := &cobra.Command{
		Use:   "game",
		Short: "find the bomb, find the exit",
		Args:  cobra.NoArgs,
		RunE:  playGame,
	}
	gameCmd.Flags().IntVar(&gridSize, "size", game.DefaultSize, "grid size")
	gameCmd.Flags().Int64Var(&gameSeed, "seed", time.Now().UnixNano(), "random seed")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, heatmapCmd, exportCmd, exportCSVCmd,
		exportJSONCmd, presetsCmd, batchCmd, scenarioCmd, sweepCmd, gameCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	}), nil
}

func addSimFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVarP(&flagCfg.Particles, "particles", "n", d.Particles, "number of particles")
	f.IntVar(&flagCfg.Steps, "steps", d.Steps, "number of steps")
	f.Float64Var(&flagCfg.BoxSize, "box", d.BoxSize, "box half-size")
	f.Float64Var(&flagCfg.Slowdown, "slowdown", d.Slowdown, "velocity kept on a wall hit, in [0, 1]")
	f.Float64Var(&flagCfg.Dt, "dt", d.Dt, "timestep")
	f.Float64Var(&flagCfg.Gravity, "gravity", d.Gravity, "gravity (free mode)")
	f.IntVar(&flagCfg.Bins, "bins", d.Bins, "density bins per axis")
	f.Float64Var(&flagCfg.SpeedMin, "speed-min", d.SpeedMin, "minimum launch speed")
	f.Float64Var(&flagCfg.SpeedMax, "speed-max", d.SpeedMax, "maximum launch speed")
	f.Int64Var(&flagCfg.Seed, "seed", d.Seed, "random seed")
	f.StringVar(&flagCfg.Launch, "launch", d.Launch, "launch pattern (random, even)")
	f.StringVar(&flagCfg.Mode, "mode", d.Mode, "step rule (bounded, free)")
	f.BoolVar(&flagCfg.FloorClamp, "floor-clamp", d.FloorClamp, "clamp particles to the floor")
}

// resolveConfig applies the preset, then the config file, then any flag set
// on the command line.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		var err error
		cfg, err = config.Overlay(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	changed := cmd.Flags().Changed
	if changed("particles") {
		cfg.Particles = flagCfg.Particles
	}
	if changed("steps") {
		cfg.Steps = flagCfg.Steps
	}
	if changed("box") {
		cfg.BoxSize = flagCfg.BoxSize
	}
	if changed("slowdown") {
		cfg.Slowdown = flagCfg.Slowdown
	}
	if changed("dt") {
		cfg.Dt = flagCfg.Dt
	}
	if changed("gravity") {
		cfg.Gravity = flagCfg.Gravity
	}
	if changed("bins") {
		cfg.Bins = flagCfg.Bins
	}
	if changed("speed-min") {
		cfg.SpeedMin = flagCfg.SpeedMin
	}
	if changed("speed-max") {
		cfg.SpeedMax = flagCfg.SpeedMax
	}
	if changed("seed") {
		cfg.Seed = flagCfg.Seed
	}
	if changed("launch") {
		cfg.Launch = flagCfg.Launch
	}
	if changed("mode") {
		cfg.Mode = flagCfg.Mode
	}
	if changed("floor-clamp") {
		cfg.FloorClamp = flagCfg.FloorClamp
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	params := cfg.Params()

	sim, err := fireworks.New(params)
	if err != nil {
		return err
	}
	for _, m := range metrics.Default() {
		sim.AddMetric(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("running simulation", "particles", params.Particles, "steps", params.Steps, "seed", params.Seed)
	start := time.Now()

	result, err := sim.Run(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warn("interrupted, saving partial run", "steps", result.StepsTaken)
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir, logger)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(params, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("density hits: %d\n", result.Density.Total)
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)

	if showHeat {
		fmt.Println()
		fmt.Print(viz.Heatmap(result.Density, 50, 25))
	}
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	title := "fireworks"
	if preset != "" {
		title = preset
	}
	return viz.Run(cfg.Params(), viz.Options{
		Title:   title,
		FPS:     frameRate,
		Endless: endless,
		Heatmap: showHeat,
		Theme:   themeName,
	})
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, logger)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tPARTICLES\tSTEPS\tSLOWDOWN\tMODE\tSEED\tHITS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%s\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.StepsTaken,
			run.Slowdown,
			run.Mode,
			run.Seed,
			run.DensityHits,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir, logger)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	xs, ys, _, err := st.LoadPositions(runID)
	if err != nil {
		return err
	}
	if len(xs) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particles: %d  steps: %d  slowdown: %.2f\n\n", meta.Particles, meta.StepsTaken, meta.Slowdown)

	inBox := make([]float64, len(meta.InBox))
	for i, n := range meta.InBox {
		inBox[i] = float64(n)
	}
	if len(inBox) > 0 {
		fmt.Println(asciigraph.Plot(inBox,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("particles in box"),
		))
		fmt.Println()
	}

	spread := make([]float64, len(xs))
	for i := range xs {
		spread[i] = rmsSpread(xs[i], ys[i])
	}
	fmt.Println(asciigraph.Plot(spread,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("rms distance from launch point"),
	))
	return nil
}

func rmsSpread(xs, ys []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for i := range xs {
		sum += xs[i]*xs[i] + ys[i]*ys[i]
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func showHeatmap(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, logger)
	snap, err := st.LoadDensity(args[0])
	if err != nil {
		return err
	}

	if plainOutput {
		for _, row := range viz.HeatmapRows(snap, heatWidth, heatHeight) {
			fmt.Println(row)
		}
	} else {
		fmt.Print(viz.Heatmap(snap, heatWidth, heatHeight))
	}
	fmt.Printf("hits: %d  peak bin: %d\n", snap.Total, snap.Max())
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir, logger)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	snap, err := st.LoadDensity(runID)
	if err != nil {
		return err
	}
	xs, ys, _, err := st.LoadPositions(runID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	densityPath := filepath.Join(outDir, runID+"_density.svg")
	if err := os.WriteFile(densityPath, []byte(export.DensitySVG(snap, cellSize)), 0644); err != nil {
		return err
	}
	logger.Info("wrote density map", "path", densityPath)

	if len(xs) > 0 {
		last := len(xs) - 1
		scatterPath := filepath.Join(outDir, runID+"_scatter.svg")
		svg := export.ScatterSVG(xs[last], ys[last], meta.Params().Box(), imageSize, "")
		if err := os.WriteFile(scatterPath, []byte(svg), 0644); err != nil {
			return err
		}
		logger.Info("wrote final positions", "path", scatterPath)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir, logger)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	xs, ys, times, err := st.LoadPositions(runID)
	if err != nil {
		return err
	}
	if len(xs) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"step", "time", "in_box", "spread"}); err != nil {
		return err
	}
	for i := range xs {
		inBox := ""
		if i < len(meta.InBox) {
			inBox = strconv.Itoa(meta.InBox[i])
		}
		row := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(times[i], 'f', 6, 64),
			inBox,
			strconv.FormatFloat(rmsSpread(xs[i], ys[i]), 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, logger)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPARTICLES\tSTEPS\tSLOWDOWN\tSPEED\tLAUNCH\tMODE\tFLOOR")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t[%g, %g]\t%s\t%s\t%v\n",
			name, p.Particles, p.Steps, p.Slowdown, p.SpeedMin, p.SpeedMax, p.Launch, p.Mode, p.FloorClamp)
	}
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	summary, err := batch.Run(ctx, cfg.Params(), runs, workers, logger)
	if err != nil {
		return err
	}
	fmt.Printf("completed %d runs in %v\n\n", len(summary.Runs), time.Since(start))
	printSummary(summary)

	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.DensitySVG(summary.Density, 8)), 0644); err != nil {
			return err
		}
		logger.Info("wrote merged density map", "path", svgPath)
	}
	return nil
}

func printSummary(summary *batch.Summary) {
	var names []string
	if len(summary.Runs) > 0 {
		for name := range summary.Runs[0].Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tHITS\t"+strings.ToUpper(strings.Join(names, "\t")))
	for _, r := range summary.Runs {
		cells := make([]string, len(names))
		for i, name := range names {
			cells[i] = fmt.Sprintf("%.4f", r.Metrics[name])
		}
		fmt.Fprintf(w, "%d\t%d\t%s\n", r.Seed, r.InBox, strings.Join(cells, "\t"))
	}
	means := make([]string, len(names))
	for i, name := range names {
		means[i] = fmt.Sprintf("%.4f", summary.Mean(name))
	}
	fmt.Fprintf(w, "mean\t%d\t%s\n", summary.Density.Total/uint64(max(len(summary.Runs), 1)), strings.Join(means, "\t"))
	w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := batch.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if scenario.Name != "" {
		fmt.Printf("scenario: %s\n", scenario.Name)
	}
	if scenario.Description != "" {
		fmt.Printf("%s\n", scenario.Description)
	}
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := batch.RunScenario(ctx, scenario, logger)
	for _, r := range results {
		fmt.Printf("== %s (%d runs, %d hits)\n", r.Label, len(r.Summary.Runs), r.Summary.Density.Total)
		printSummary(r.Summary)
		fmt.Println()
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, arg := range sweepParams {
		name, rng, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("bad --param %q, want name=range", arg)
		}
		vals, err := optim.ParseRange(rng)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	goal := optim.Minimize
	if maximize {
		goal = optim.Maximize
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	points, err := g.Search(ctx, cfg.Params(), sweepMetric, goal)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("sweep finished", "points", len(points), "elapsed", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(sweepMetric))
	for i, pt := range points {
		if i >= topN {
			break
		}
		cells := make([]string, len(names))
		for j, name := range names {
			cells[j] = strconv.FormatFloat(pt.Params[name], 'g', 6, 64)
		}
		fmt.Fprintf(w, "%s\t%.6f\n", strings.Join(cells, "\t"), pt.Value)
	}
	return w.Flush()
}

func playGame(cmd *cobra.Command, args []string) error {
	g, err := game.NewRandom(gridSize, gameSeed)
	if err != nil {
		return err
	}
	show := config.GetPreset("classic").Params()
	show.Seed = gameSeed
	logger.Debug("starting game", "size", gridSize, "seed", gameSeed)

	if err := game.Play(g, show); err != nil {
		return err
	}
	if g.Over() {
		fmt.Println("You made it out.")
	}
	return nil
}
