package sim

import (
	"context"
	"sync"

	"github.com/san-kum/molsim/internal/dynamo"
)

// Ensemble runs independent copies of a scenario with consecutive seeds.
// Each run gets its own world, so runs share nothing.
type Ensemble struct {
	cfg       Config
	build     func(w *dynamo.World, seed int64) error
	metrics   func() []Metric
	numRuns   int
	seedStart int64
}

// NewEnsemble prepares numRuns runs. build populates each fresh world; metrics,
// if non-nil, returns a new metric set per run.
func NewEnsemble(cfg Config, numRuns int, build func(w *dynamo.World, seed int64) error, metrics func() []Metric) *Ensemble {
	return &Ensemble{cfg: cfg, build: build, metrics: metrics, numRuns: numRuns, seedStart: cfg.Seed}
}

func (e *Ensemble) Run(ctx context.Context, ticks int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := e.cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			w := dynamo.NewWorld()
			if e.build != nil {
				if err := e.build(w, cfgCopy.Seed); err != nil {
					errs[idx] = err
					return
				}
			}
			engine := New(w, cfgCopy)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					engine.AddMetric(m)
				}
			}

			results[idx], errs[idx] = engine.Run(ctx, ticks)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
