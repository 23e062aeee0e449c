package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/molsim/internal/analysis"
	"github.com/san-kum/molsim/internal/chem"
	"github.com/san-kum/molsim/internal/config"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/experiment"
	"github.com/san-kum/molsim/internal/export"
	"github.com/san-kum/molsim/internal/logging"
	"github.com/san-kum/molsim/internal/metrics"
	"github.com/san-kum/molsim/internal/presets"
	"github.com/san-kum/molsim/internal/server"
	"github.com/san-kum/molsim/internal/sim"
	"github.com/san-kum/molsim/internal/storage"
	"github.com/san-kum/molsim/internal/viz"
)

var (
	configFile string
	dataDir    string
	seed       int64
	physics    string
	theme      string
	logLevel   string
	logFile    string
	scripts    string
	fps        int

	ticks   int
	numRuns int
	soup    int
	spin    float64
	runName string
	noSave  bool

	svgOut  string
	jsonOut string
	braille bool

	addr    string
	origins []string
)

const (
	brailleCols = 100
	brailleRows = 40
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "molsim",
		Short:        "atoms, bonds and valency in the terminal",
		SilenceUsage: true,
		RunE:         runInteractive,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.Int64Var(&seed, "seed", 1, "random seed")
	pf.StringVar(&physics, "physics", "", "physics preset ("+strings.Join(config.ListPresets(), ", ")+")")
	pf.StringVar(&logLevel, "log-level", config.DefaultLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file")
	pf.StringVar(&scripts, "scripts", "", "directory of yaml molecule scripts")
	rootCmd.Flags().StringVar(&theme, "theme", config.DefaultTheme, "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	rootCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frame rate")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a headless simulation and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "ticks to simulate")
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "independent runs with consecutive seeds")
	runCmd.Flags().IntVar(&soup, "soup", 0, "scatter this many random atoms")
	runCmd.Flags().Float64Var(&spin, "spin", 0, "initial spin of the preset")
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to the preset)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect [run_id]",
		Short: "show the molecules in a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy and bond history of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the energy series as svg")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the final frame of a run as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().BoolVar(&braille, "braille", false, "render the terminal view's braille dots instead")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run with its chemistry and history as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&jsonOut, "output", "o", "", "output file (default stdout)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the simulation to websocket clients",
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	serveCmd.Flags().StringSliceVar(&origins, "origin", nil, "allowed websocket origins")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list molecule and physics presets",
		RunE:  listPresets,
	}

	elementsCmd := &cobra.Command{
		Use:   "elements",
		Short: "list the element table",
		RunE:  listElements,
	}

	rootCmd.AddCommand(runCmd, listCmd, inspectCmd, plotCmd, exportSVGCmd, exportJSONCmd, serveCmd, presetsCmd, elementsCmd)
	rootCmd.AddCommand(batchCommands()...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file if given, then applies the flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg.DataDir = dataDir
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("scripts") {
		cfg.Scripts = scripts
	}
	if flags.Changed("theme") {
		cfg.Theme = theme
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flags.Changed("origin") {
		cfg.Server.AllowedOrigins = origins
	}
	if flags.Changed("physics") {
		p, ok := config.GetPreset(physics)
		if !ok {
			return nil, fmt.Errorf("unknown physics preset: %s (available: %v)", physics, config.ListPresets())
		}
		cfg.Physics = p
	}
	return cfg, cfg.Validate()
}

// newLogger writes to the configured log file, else to fallback. The
// returned closer is never nil.
func newLogger(cfg *config.Config, fallback io.Writer) (logging.Logger, func(), error) {
	if cfg.LogFile == "" {
		return logging.New(fallback, cfg.LogLevel), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return logging.New(f, cfg.LogLevel), func() { f.Close() }, nil
}

func newRegistry(cfg *config.Config, log logging.Logger) (*presets.Registry, error) {
	reg := presets.NewRegistry()
	if cfg.Scripts == "" {
		return reg, nil
	}
	names, err := reg.LoadScripts(cfg.Scripts)
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %d scripted presets from %s", len(names), cfg.Scripts)
	return reg, nil
}

// newSession builds an engine and session over an empty world, restoring
// the autosaved session when one exists.
func newSession(cfg *config.Config, autosave *storage.Autosaver, log logging.Logger) *sim.Session {
	w := dynamo.NewWorld()
	params := cfg.Physics
	if autosave != nil {
		if data, err := autosave.Load(); err == nil {
			dropped, err := storage.RestoreDetailed(w, &params, data)
			switch {
			case err != nil:
				log.Warnf("ignoring autosave %s: %v", autosave.Path(), err)
				params = cfg.Physics
			case dropped > 0:
				log.Warnf("restored %s with %d bonds dropped", autosave.Path(), dropped)
			default:
				log.Infof("restored %d atoms from %s", w.NumAtoms(), autosave.Path())
			}
		}
	}
	engine := sim.New(w, sim.Config{Bounds: cfg.Bounds(), Params: params, Seed: cfg.Seed})
	return sim.NewSession(engine, log)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// the terminal belongs to the ui, so logs go to a file or nowhere
	log, closeLog, err := newLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	if _, ok := viz.LookupTheme(cfg.Theme); !ok {
		return fmt.Errorf("unknown theme: %s (available: %v)", cfg.Theme, viz.ThemeNames())
	}
	viz.SetTheme(cfg.Theme)

	registry, err := newRegistry(cfg, log)
	if err != nil {
		return err
	}
	autosave := storage.NewAutosaver(cfg.Session, log)
	session := newSession(cfg, autosave, log)

	err = viz.Run(session, viz.Options{
		Registry: registry,
		History:  metrics.NewHistory(cfg.History),
		Autosave: autosave,
		Store:    storage.New(cfg.DataDir),
		Log:      log,
		FPS:      cfg.FPS,
		Seed:     cfg.Seed,
	})
	autosave.Flush()
	return err
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	registry, err := newRegistry(cfg, log)
	if err != nil {
		return err
	}

	expCfg := experiment.Config{
		Soup:   soup,
		Spin:   spin,
		Params: cfg.Physics,
		Bounds: cfg.Bounds(),
		Ticks:  cfg.Ticks,
		Seed:   cfg.Seed,
	}
	if len(args) > 0 {
		expCfg.Preset = args[0]
	} else if cfg.Preset != "" {
		expCfg.Preset = cfg.Preset
	}
	if expCfg.Preset == "" && expCfg.Soup == 0 {
		return fmt.Errorf("nothing to simulate: give a preset or --soup")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if numRuns > 1 {
		return runEnsemble(ctx, expCfg, registry)
	}

	exp := experiment.New(expCfg)
	if err := exp.Setup(registry, metrics.Default()); err != nil {
		return err
	}
	history := metrics.NewHistory(max(cfg.Ticks, 1))
	exp.Engine().AddObserver(history)

	fmt.Printf("running %s for %d ticks...\n", describe(expCfg), expCfg.Ticks)
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	if !noSave {
		name := runName
		if name == "" {
			name = slug(describe(expCfg))
		}
		st := storage.New(cfg.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		e := exp.Engine()
		runID, err := st.Save(storage.Run{
			Name:    name,
			Seed:    cfg.Seed,
			Ticks:   e.Ticks(),
			World:   e.World(),
			Params:  e.Params(),
			History: history.Samples(),
			Metrics: result.Metrics,
		})
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	fmt.Printf("atoms: %d  bonds: %d  over valency: %d\n",
		len(result.Final.Atoms), len(result.Final.Bonds), result.Final.OverValencyCount())
	printMetrics(result.Metrics)
	return nil
}

func runEnsemble(ctx context.Context, expCfg experiment.Config, registry *presets.Registry) error {
	exp := experiment.New(expCfg)
	if err := exp.Setup(registry, nil); err != nil {
		return err
	}
	cfg := exp.Config()
	ens := sim.NewEnsemble(sim.Config{Bounds: cfg.Bounds, Params: cfg.Params, Seed: cfg.Seed}, numRuns, exp.Populate, metrics.Default)

	fmt.Printf("running %d x %s for %d ticks...\n", numRuns, describe(cfg), cfg.Ticks)
	start := time.Now()
	results, err := ens.Run(ctx, cfg.Ticks)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tATOMS\tBONDS\tKINETIC\tPEAK\tSTRAIN\tSTABILITY")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.3f\t%.3f\t%.4f\t%.2f\n",
			r.Seed,
			len(r.Final.Atoms),
			len(r.Final.Bonds),
			r.Metrics["kinetic_energy"],
			r.Metrics["peak_energy"],
			r.Metrics["bond_strain"],
			r.Metrics["stability"],
		)
	}
	return w.Flush()
}

func describe(cfg experiment.Config) string {
	switch {
	case cfg.Preset != "" && cfg.Soup > 0:
		return fmt.Sprintf("%s in a soup of %d", cfg.Preset, cfg.Soup)
	case cfg.Preset != "":
		return cfg.Preset
	default:
		return fmt.Sprintf("soup of %d", cfg.Soup)
	}
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}

func printMetrics(m map[string]float64) {
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(m) {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tTICKS\tATOMS\tBONDS\tMOLECULES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Atoms,
			run.Bonds,
			strings.Join(run.Molecules, " "),
		)
	}
	return w.Flush()
}

// loadRun rebuilds the engine of a saved run from its snapshot.
func loadRun(cfg *config.Config, runID string) (*sim.Engine, *storage.RunMetadata, error) {
	st := storage.New(cfg.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	data, err := st.LoadSnapshot(runID)
	if err != nil {
		return nil, nil, err
	}
	w := dynamo.NewWorld()
	params := meta.Params
	if _, err := storage.RestoreDetailed(w, &params, data); err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return sim.New(w, sim.Config{Bounds: cfg.Bounds(), Params: params, Seed: meta.Seed}), meta, nil
}

func inspectRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	engine, meta, err := loadRun(cfg, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("saved: %s\n", meta.Timestamp.Format(time.RFC3339))
	fmt.Printf("seed: %d  ticks: %d\n", meta.Seed, meta.Ticks)
	report := dynamo.Validate(engine.World())
	fmt.Printf("atoms: %d  bonds: %d  over valency: %d\n\n", meta.Atoms, meta.Bonds, len(report.OverValency))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FORMULA\tNAME\tATOMS\tMASS")
	for _, m := range analysis.Components(engine.World()) {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\n", m.Display, m.Name, m.Size(), m.Mass)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printMetrics(meta.Metrics)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runID := args[0]
	st := storage.New(cfg.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(history))

	energy := make([]float64, len(history))
	bonds := make([]float64, len(history))
	for i, s := range history {
		energy[i] = s.KineticEnergy
		bonds[i] = float64(s.Bonds)
	}
	series := []struct {
		caption string
		data    []float64
	}{
		{"kinetic energy", energy},
		{"bonds", bonds},
	}
	for _, s := range series {
		fmt.Println(asciigraph.Plot(s.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		))
		fmt.Println()
	}

	if svgOut != "" {
		svg := export.SeriesToSVG(energy, 800, 300, string(viz.CurrentTheme.Primary))
		if svg == "" {
			return fmt.Errorf("need at least two samples for svg")
		}
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}

func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	engine, _, err := loadRun(cfg, args[0])
	if err != nil {
		return err
	}
	svg := export.FrameToSVG(engine.Frame())
	if braille {
		scene := viz.NewScene(brailleCols, brailleRows)
		scene.Draw(engine.Frame())
		svg = export.CanvasToSVG(scene.Canvas(), 4)
	}
	return writeOutput(svgOut, func(w io.Writer) error {
		_, err := io.WriteString(w, svg)
		return err
	})
}

func exportJSON(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	engine, meta, err := loadRun(cfg, args[0])
	if err != nil {
		return err
	}
	history, err := storage.New(cfg.DataDir).LoadHistory(args[0])
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	data := export.Collect(engine, history, meta.Metrics)
	data.Tick = meta.Ticks
	if jsonOut == "" {
		return export.ExportJSONStdout(data)
	}
	return export.ExportJSON(jsonOut, data)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	registry, err := newRegistry(cfg, log)
	if err != nil {
		return err
	}
	autosave := storage.NewAutosaver(cfg.Session, log)
	session := newSession(cfg, autosave, log)
	session.OnChange(func() {
		e := session.Engine()
		autosave.Save(e.World(), e.Params())
	})

	srv := server.New(session, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Registry:       registry,
		Log:            log,
		Seed:           cfg.Seed,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = srv.Run(ctx, cfg.Server.Addr)
	autosave.Flush()
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	registry, err := newRegistry(cfg, logging.Discard)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MOLECULE\tFORMULA")
	for _, name := range registry.SortedNames() {
		p, err := registry.Get(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Formula)
	}
	fmt.Fprintln(w, "\nPHYSICS\tPARAMS")
	for _, name := range config.ListPresets() {
		p, _ := config.GetPreset(name)
		fmt.Fprintf(w, "%s\tgravity=%g friction=%g repulsion=%g stiffness=%g temperature=%g electro=%t\n",
			name, p.Gravity, p.Friction, p.Repulsion, p.BondStiffness, p.Temperature, p.Electrostatics)
	}
	return w.Flush()
}

func listElements(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSYMBOL\tNAME\tMASS\tVALENCY\tCHARGE")
	for i, el := range chem.Elements() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%g\t%d\t%+g\n", i, el.Symbol, el.Name, el.Mass, el.Valency, el.Charge)
	}
	return w.Flush()
}
