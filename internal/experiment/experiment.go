package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/molsim/internal/config"
	"github.com/san-kum/molsim/internal/control"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/physics"
	"github.com/san-kum/molsim/internal/presets"
	"github.com/san-kum/molsim/internal/sim"
)

// Config describes one headless run: what to put in the world, the physics
// to run it under and for how long.
type Config struct {
	Preset string
	Soup   int
	Spin   float64
	Params dynamo.Params
	Bounds physics.Bounds
	Ticks  int
	Seed   int64

	// Thermostat, when positive, is the kinetic energy per atom the
	// temperature is steered toward.
	Thermostat float64
}

type Experiment struct {
	cfg      Config
	registry *presets.Registry
	engine   *sim.Engine
}

// New fills zero bounds and params with the defaults.
func New(cfg Config) *Experiment {
	if cfg.Bounds.Width <= 0 || cfg.Bounds.Height <= 0 {
		cfg.Bounds = physics.Bounds{Width: config.DefaultWidth, Height: config.DefaultHeight}
	}
	if cfg.Params == (dynamo.Params{}) {
		cfg.Params = dynamo.DefaultParams()
	}
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Config() Config { return e.cfg }

// Populate builds the configured preset at the centre of the bounds, then
// scatters the soup atoms. It is also the build function for ensembles.
func (e *Experiment) Populate(w *dynamo.World, seed int64) error {
	if e.cfg.Preset != "" {
		reg := e.registry
		if reg == nil {
			reg = presets.NewRegistry()
		}
		cx, cy := e.cfg.Bounds.Width/2, e.cfg.Bounds.Height/2
		ids, err := reg.Place(w, e.cfg.Preset, cx, cy)
		if err != nil {
			return err
		}
		if e.cfg.Spin != 0 {
			presets.Spin(w, ids, cx, cy, e.cfg.Spin)
		}
	}
	if e.cfg.Soup > 0 {
		if _, err := presets.Soup(w, e.cfg.Bounds, e.cfg.Soup, seed); err != nil {
			return err
		}
	}
	return nil
}

// Setup builds a fresh world and the engine around it. registry may be nil
// to use the built-in presets.
func (e *Experiment) Setup(registry *presets.Registry, metrics []sim.Metric) error {
	if err := e.cfg.Params.Validate(); err != nil {
		return err
	}
	e.registry = registry

	w := dynamo.NewWorld()
	if err := e.Populate(w, e.cfg.Seed); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	e.engine = sim.New(w, sim.Config{Bounds: e.cfg.Bounds, Params: e.cfg.Params, Seed: e.cfg.Seed})
	for _, m := range metrics {
		e.engine.AddMetric(m)
	}
	if e.cfg.Thermostat > 0 {
		control.NewThermostat(e.engine, e.cfg.Thermostat, nil)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.engine == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.engine.Run(ctx, e.cfg.Ticks)
}

// Engine returns the underlying engine for adding observers.
func (e *Experiment) Engine() *sim.Engine {
	return e.engine
}
