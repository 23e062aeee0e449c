package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/physics"
)

// Engine owns a world and advances it one visual frame per Tick.
type Engine struct {
	world    *dynamo.World
	solver   *physics.Solver
	params   dynamo.Params
	bounds   physics.Bounds
	seed     int64
	paused   bool
	tick     uint64
	selected dynamo.AtomID
	report   dynamo.Report

	last      *Frame
	metrics   []Metric
	observers []Observer
}

func New(w *dynamo.World, cfg Config) *Engine {
	if w == nil {
		w = dynamo.NewWorld()
	}
	e := &Engine{
		world:  w,
		solver: physics.NewSolver(cfg.Seed),
		params: cfg.Params,
		bounds: cfg.Bounds,
		seed:   cfg.Seed,
	}
	e.report = dynamo.Validate(w)
	return e
}

func (e *Engine) AddMetric(m Metric)     { e.metrics = append(e.metrics, m) }
func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

func (e *Engine) World() *dynamo.World    { return e.world }
func (e *Engine) Params() dynamo.Params   { return e.params }
func (e *Engine) Bounds() physics.Bounds  { return e.bounds }
func (e *Engine) Paused() bool            { return e.paused }
func (e *Engine) Ticks() uint64           { return e.tick }
func (e *Engine) Selected() dynamo.AtomID { return e.selected }
func (e *Engine) Report() dynamo.Report   { return e.report }
func (e *Engine) SetPaused(paused bool)   { e.paused = paused }

// SetParams replaces the physics parameters after validating them. The new
// values apply from the next tick.
func (e *Engine) SetParams(p dynamo.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.params = p
	return nil
}

func (e *Engine) setSelected(id dynamo.AtomID) { e.selected = id }

// Tick runs one visual frame: the solver sub-steps unless paused, then the
// valency check, then publication to metrics and observers.
func (e *Engine) Tick() *Frame {
	if !e.paused {
		e.solver.Frame(e.world, e.params, e.bounds)
	}
	e.tick++
	return e.publish()
}

// Refresh republishes the current state without advancing it. Used after
// edits made while paused.
func (e *Engine) Refresh() *Frame {
	return e.publish()
}

func (e *Engine) publish() *Frame {
	e.report = dynamo.Validate(e.world)
	if e.selected != "" && !e.world.HasAtom(e.selected) {
		e.selected = ""
	}
	f := buildFrame(e)
	e.last = f
	for _, m := range e.metrics {
		m.Observe(f)
	}
	for _, o := range e.observers {
		o.OnFrame(f)
	}
	return f
}

// Frame returns the last published frame, building one if none exists yet.
func (e *Engine) Frame() *Frame {
	if e.last == nil {
		e.report = dynamo.Validate(e.world)
		e.last = buildFrame(e)
	}
	return e.last
}

// Run advances the engine for a fixed number of ticks without a clock.
// It stops early on context cancellation or if any atom leaves finite space.
func (e *Engine) Run(ctx context.Context, ticks int) (*Result, error) {
	if ticks <= 0 {
		return nil, fmt.Errorf("ticks must be positive, got %d", ticks)
	}

	for _, m := range e.metrics {
		m.Reset()
	}

	result := &Result{Seed: e.seed, Metrics: make(map[string]float64)}
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		result.Final = e.Tick()
		result.Ticks++

		for _, a := range e.world.Atoms() {
			if !a.Pos.IsValid() || !a.Prev.IsValid() {
				return result, fmt.Errorf("tick %d: atom %s has invalid position", e.tick, a.ID)
			}
		}
	}

	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}
