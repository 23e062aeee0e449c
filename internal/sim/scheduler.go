package sim

import (
	"context"
	"time"
)

const (
	// TickInterval is the simulated time consumed by one tick.
	TickInterval = time.Second / 60
	// MaxTicksPerAdvance caps catch-up after a stall; the excess is dropped.
	MaxTicksPerAdvance = 5
)

// Scheduler drives an engine at a fixed rate from wall-clock time. It is the
// single goroutine that may touch the engine while Run is active; other
// goroutines hand it work through Do.
type Scheduler struct {
	engine *Engine
	acc    time.Duration
	cmds   chan func()
	now    func() time.Time
}

func NewScheduler(e *Engine) *Scheduler {
	return &Scheduler{
		engine: e,
		cmds:   make(chan func(), 64),
		now:    time.Now,
	}
}

func (s *Scheduler) Engine() *Engine { return s.engine }

// Advance feeds elapsed wall time, scaled by the time-step multiplier, into
// the accumulator and runs the ticks it pays for. It returns the number of
// ticks run.
func (s *Scheduler) Advance(elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	s.acc += time.Duration(float64(elapsed) * s.engine.Params().TimeStep)

	ticks := 0
	for s.acc >= TickInterval && ticks < MaxTicksPerAdvance {
		s.engine.Tick()
		s.acc -= TickInterval
		ticks++
	}
	if s.acc >= TickInterval {
		s.acc %= TickInterval
	}
	return ticks
}

// Do queues fn to run on the scheduler goroutine. It blocks until the queue
// accepts fn or ctx is done.
func (s *Scheduler) Do(ctx context.Context, fn func()) error {
	select {
	case s.cmds <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run ticks the engine until ctx is cancelled. Queued commands run between
// ticks, in order.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	last := s.now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.cmds:
			fn()
		case <-ticker.C:
			now := s.now()
			s.Advance(now.Sub(last))
			last = now
		}
	}
}
