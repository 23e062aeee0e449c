package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/molsim/internal/config"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/experiment"
	"github.com/san-kum/molsim/internal/logging"
	"github.com/san-kum/molsim/internal/metrics"
	"github.com/san-kum/molsim/internal/presets"
	"github.com/san-kum/molsim/internal/sim"
	"github.com/san-kum/molsim/internal/storage"
)

// Scenario defines a scripted sequence of headless runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run. Params override the named physics preset,
// which defaults to "default".
type ScenarioStep struct {
	Preset  string             `yaml:"preset"`
	Soup    int                `yaml:"soup"`
	Spin    float64            `yaml:"spin"`
	Physics string             `yaml:"physics"`
	Params  map[string]float64 `yaml:"params"`
	Ticks   int                `yaml:"ticks"`
	Seed    int64              `yaml:"seed"`
	SaveAs  string             `yaml:"save_as"`
}

// Options carries what scenario and batch runs share.
type Options struct {
	Registry *presets.Registry
	Store    *storage.Store
	Log      logging.Logger
}

func (o Options) logger() logging.Logger {
	if o.Log == nil {
		return logging.Discard
	}
	return o.Log
}

// StepResult is one finished scenario step. RunID is set when the step was
// saved.
type StepResult struct {
	Step   int
	Result *sim.Result
	RunID  string
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// StepParams resolves the physics for a step.
func StepParams(step ScenarioStep) (dynamo.Params, error) {
	name := step.Physics
	if name == "" {
		name = "default"
	}
	p, ok := config.GetPreset(name)
	if !ok {
		return p, fmt.Errorf("unknown physics preset %q", name)
	}
	for k, v := range step.Params {
		if err := p.SetParam(k, v); err != nil {
			return p, err
		}
	}
	return p, p.Validate()
}

// RunScenario executes all steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, opts Options) ([]StepResult, error) {
	log := opts.logger()
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.Infof("running step %d/%d: preset=%q soup=%d ticks=%d", i+1, len(scenario.Steps), step.Preset, step.Soup, step.Ticks)

		params, err := StepParams(step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.SaveAs != "" && opts.Store == nil {
			return results, fmt.Errorf("step %d: save_as %q needs a store", i+1, step.SaveAs)
		}

		exp := experiment.New(experiment.Config{
			Preset: step.Preset,
			Soup:   step.Soup,
			Spin:   step.Spin,
			Params: params,
			Ticks:  step.Ticks,
			Seed:   step.Seed,
		})
		if err := exp.Setup(opts.Registry, metrics.Default()); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		history := metrics.NewHistory(max(step.Ticks, 1))
		exp.Engine().AddObserver(history)

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Step: i + 1, Result: result}
		if step.SaveAs != "" {
			e := exp.Engine()
			sr.RunID, err = opts.Store.Save(storage.Run{
				Name:    step.SaveAs,
				Seed:    step.Seed,
				Ticks:   e.Ticks(),
				World:   e.World(),
				Params:  e.Params(),
				History: history.Samples(),
				Metrics: result.Metrics,
			})
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			log.Infof("step %d saved as %s", i+1, sr.RunID)
		}
		results = append(results, sr)
	}

	return results, nil
}

// ParameterSweep runs the same setup across evenly spaced values of one
// physics parameter.
type ParameterSweep struct {
	Preset    string
	Soup      int
	Base      dynamo.Params
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Ticks     int
	Seed      int64
}

// SweepResult holds the metrics of one sweep point.
type SweepResult struct {
	ParamValue float64
	Metrics    map[string]float64
	Bonds      int
}

// Values lists the swept parameter values.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps == 1 {
		return []float64{s.ParamMin}
	}
	out := make([]float64, s.NumSteps)
	step := (s.ParamMax - s.ParamMin) / float64(s.NumSteps-1)
	for i := range out {
		out[i] = s.ParamMin + float64(i)*step
	}
	return out
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, opts Options) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	base := sweep.Base
	if base == (dynamo.Params{}) {
		base = dynamo.DefaultParams()
	}
	if _, ok := base.GetParams()[sweep.ParamName]; !ok {
		return nil, fmt.Errorf("%w: unknown parameter %q", dynamo.ErrInvalidParams, sweep.ParamName)
	}

	log := opts.logger()
	values := sweep.Values()
	results := make([]SweepResult, 0, len(values))
	for i, v := range values {
		params := base
		if err := params.SetParam(sweep.ParamName, v); err != nil {
			return results, err
		}

		exp := experiment.New(experiment.Config{
			Preset: sweep.Preset,
			Soup:   sweep.Soup,
			Params: params,
			Ticks:  sweep.Ticks,
			Seed:   sweep.Seed,
		})
		if err := exp.Setup(opts.Registry, metrics.Default()); err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}

		results = append(results, SweepResult{
			ParamValue: v,
			Metrics:    result.Metrics,
			Bonds:      len(result.Final.Bonds),
		})
		log.Infof("sweep %d/%d: %s=%.4f", i+1, len(values), sweep.ParamName, v)
	}

	return results, nil
}

// DefaultMaxStrain is the final bond strain above which a trial counts as
// torn apart.
const DefaultMaxStrain = 0.5

// MonteCarloConfig defines Monte Carlo simulation parameters. Each trial
// builds the setup, displaces every atom by up to Perturbation in each axis
// and runs it.
type MonteCarloConfig struct {
	Preset       string
	Soup         int
	Params       dynamo.Params
	Perturbation float64
	MaxStrain    float64
	NumTrials    int
	Ticks        int
	Seed         int64
}

// MonteCarloResult holds the outcome of one trial.
type MonteCarloResult struct {
	TrialID       int
	Seed          int64
	Strain        float64
	KineticEnergy float64
	// Stable is false if positions blew up, an atom ended over its valency
	// or the final bond strain exceeded the limit.
	Stable bool
}

// RunMonteCarlo executes multiple trials with random perturbations
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, opts Options) ([]MonteCarloResult, error) {
	log := opts.logger()
	maxStrain := cfg.MaxStrain
	if maxStrain <= 0 {
		maxStrain = DefaultMaxStrain
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		seed := rng.Int63()
		exp := experiment.New(experiment.Config{
			Preset: cfg.Preset,
			Soup:   cfg.Soup,
			Params: cfg.Params,
			Ticks:  cfg.Ticks,
			Seed:   seed,
		})
		if err := exp.Setup(opts.Registry, metrics.Default()); err != nil {
			return results, err
		}
		perturb(exp.Engine().World(), rng, cfg.Perturbation)

		res := MonteCarloResult{TrialID: trial, Seed: seed}
		result, err := exp.Run(ctx)
		switch {
		case ctx.Err() != nil:
			return results, ctx.Err()
		case err != nil:
			log.Warnf("trial %d: %v", trial, err)
		default:
			res.Strain = metrics.FrameStrain(result.Final)
			res.KineticEnergy = result.Metrics["kinetic_energy"]
			res.Stable = result.Final.OverValencyCount() == 0 &&
				res.Strain <= maxStrain && !math.IsNaN(res.KineticEnergy)
		}
		results = append(results, res)

		if (trial+1)%10 == 0 {
			log.Infof("monte carlo: %d/%d trials complete", trial+1, cfg.NumTrials)
		}
	}

	return results, nil
}

func perturb(w *dynamo.World, rng *rand.Rand, amount float64) {
	if amount == 0 {
		return
	}
	for _, a := range w.Atoms() {
		atom, _ := w.Atom(a.ID)
		d := dynamo.Vec2{X: (rng.Float64() - 0.5) * 2 * amount, Y: (rng.Float64() - 0.5) * 2 * amount}
		atom.Pos = atom.Pos.Add(d)
		atom.Prev = atom.Prev.Add(d)
	}
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
