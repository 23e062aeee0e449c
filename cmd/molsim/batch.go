package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/molsim/internal/automation"
	"github.com/san-kum/molsim/internal/config"
	"github.com/san-kum/molsim/internal/experiment"
	"github.com/san-kum/molsim/internal/logging"
	"github.com/san-kum/molsim/internal/metrics"
	"github.com/san-kum/molsim/internal/optim"
	"github.com/san-kum/molsim/internal/storage"
)

var (
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	trials    int
	perturb   float64
	maxStrain float64

	grid   []string
	metric string
)

func batchCommands() []*cobra.Command {
	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario of headless steps",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "sweep one physics parameter over a range",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "bond_stiffness", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.05, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.5, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")

	mcCmd := &cobra.Command{
		Use:   "montecarlo [preset]",
		Short: "run perturbed trials and count how many hold together",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	mcCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	mcCmd.Flags().Float64Var(&perturb, "perturb", 5, "max displacement per atom and axis")
	mcCmd.Flags().Float64Var(&maxStrain, "max-strain", automation.DefaultMaxStrain, "final bond strain counted as torn apart")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [preset]",
		Short: "grid search physics parameters minimising a metric",
		Args:  cobra.ExactArgs(1),
		RunE:  runOptimize,
	}
	optimizeCmd.Flags().StringArrayVar(&grid, "grid", nil, "name=v1,v2,... (repeatable)")
	optimizeCmd.Flags().StringVar(&metric, "metric", "bond_strain", "metric to minimise")

	for _, c := range []*cobra.Command{sweepCmd, mcCmd, optimizeCmd} {
		c.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "ticks per run")
		c.Flags().IntVar(&soup, "soup", 0, "scatter this many random atoms around the preset")
	}

	return []*cobra.Command{scenarioCmd, sweepCmd, mcCmd, optimizeCmd}
}

// batchSetup loads config, logger and the base experiment shared by the
// batch commands.
func batchSetup(cmd *cobra.Command, preset string) (*config.Config, logging.Logger, func(), automation.Options, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, automation.Options{}, err
	}
	log, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return nil, nil, nil, automation.Options{}, err
	}
	registry, err := newRegistry(cfg, log)
	if err != nil {
		closeLog()
		return nil, nil, nil, automation.Options{}, err
	}
	if preset != "" {
		if _, err := registry.Get(preset); err != nil {
			closeLog()
			return nil, nil, nil, automation.Options{}, err
		}
	}
	opts := automation.Options{Registry: registry, Store: storage.New(cfg.DataDir), Log: log}
	return cfg, log, closeLog, opts, nil
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	_, _, closeLog, opts, err := batchSetup(cmd, "")
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := interruptible()
	defer stop()

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	results, err := automation.RunScenario(ctx, sc, opts)
	for _, r := range results {
		saved := "-"
		if r.RunID != "" {
			saved = r.RunID
		}
		fmt.Printf("\nstep %d: %d atoms, %d bonds, saved: %s", r.Step, len(r.Result.Final.Atoms), len(r.Result.Final.Bonds), saved)
		printMetrics(r.Result.Metrics)
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, _, closeLog, opts, err := batchSetup(cmd, args[0])
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := interruptible()
	defer stop()

	sweep := &automation.ParameterSweep{
		Preset:    args[0],
		Soup:      soup,
		Base:      cfg.Physics,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		Ticks:     cfg.Ticks,
		Seed:      cfg.Seed,
	}
	results, err := automation.RunSweep(ctx, sweep, opts)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tBONDS\tKINETIC\tPEAK\tSTRAIN\tSTABILITY\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%d\t%.3f\t%.3f\t%.4f\t%.2f\n",
			r.ParamValue,
			r.Bonds,
			r.Metrics["kinetic_energy"],
			r.Metrics["peak_energy"],
			r.Metrics["bond_strain"],
			r.Metrics["stability"],
		)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, _, closeLog, opts, err := batchSetup(cmd, args[0])
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := interruptible()
	defer stop()

	mc := &automation.MonteCarloConfig{
		Preset:       args[0],
		Soup:         soup,
		Params:       cfg.Physics,
		Perturbation: perturb,
		MaxStrain:    maxStrain,
		NumTrials:    trials,
		Ticks:        cfg.Ticks,
		Seed:         cfg.Seed,
	}
	results, err := automation.RunMonteCarlo(ctx, mc, opts)
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d\n", len(results))
	fmt.Printf("stable: %d\n", stable)
	fmt.Printf("torn apart: %d\n", unstable)
	if len(results) > 0 {
		fmt.Printf("stability: %.1f%%\n", 100*float64(stable)/float64(len(results)))
	}
	return nil
}

// parseGrid turns name=v1,v2,... specs into grid search axes.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("bad grid %q, want name=v1,v2,...", spec)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	if len(grid) == 0 {
		return fmt.Errorf("give at least one --grid name=v1,v2,...")
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	cfg, log, closeLog, opts, err := batchSetup(cmd, args[0])
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := interruptible()
	defer stop()

	search := optim.NewGridSearch(names, ranges)
	log.Infof("grid search over %d combinations", search.Size())
	build := optim.Builder(experiment.Config{
		Preset: args[0],
		Soup:   soup,
		Params: cfg.Physics,
		Bounds: cfg.Bounds(),
		Ticks:  cfg.Ticks,
		Seed:   cfg.Seed,
	}, opts.Registry, metrics.Default)

	best, value, err := search.Search(ctx, build, metric)
	if err != nil {
		return err
	}
	fmt.Printf("best %s: %.6f\n", metric, value)
	for _, name := range sortedKeys(best) {
		fmt.Printf("  %s = %g\n", name, best[name])
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
