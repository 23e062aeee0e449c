package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/experiment"
	"github.com/san-kum/molsim/internal/presets"
	"github.com/san-kum/molsim/internal/sim"
)

// GridSearch tries every combination of the given physics parameter values
// and keeps the one minimising a metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Size is the number of combinations Search will run.
func (g *GridSearch) Size() int {
	if len(g.ranges) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs each combination. Combinations whose experiment cannot be
// built or run are skipped; it fails only when none succeeds.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("grid search: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64

	g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &best, &bestParams)

	if err := ctx.Err(); err != nil {
		return bestParams, best, err
	}
	if bestParams == nil {
		return nil, best, fmt.Errorf("grid search: no combination produced metric %q", metricName)
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(g.paramNames) {
		exp, err := buildExperiment(current)
		if err != nil {
			return
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return
		}

		val, ok := result.Metrics[metricName]
		if !ok || math.IsNaN(val) {
			return
		}
		if val < *best || *bestParams == nil {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, best, bestParams)
	}
}

// Builder returns a buildExperiment function that applies each combination
// on top of base and sets the experiment up with a fresh metric set.
func Builder(base experiment.Config, registry *presets.Registry, metrics func() []sim.Metric) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base
		if cfg.Params == (dynamo.Params{}) {
			cfg.Params = dynamo.DefaultParams()
		}
		for k, v := range params {
			if err := cfg.Params.SetParam(k, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(cfg)
		var ms []sim.Metric
		if metrics != nil {
			ms = metrics()
		}
		if err := exp.Setup(registry, ms); err != nil {
			return nil, err
		}
		return exp, nil
	}
}
