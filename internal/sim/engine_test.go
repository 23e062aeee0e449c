package sim

import (
	"context"
	"testing"
	"time"

	"github.com/san-kum/molsim/internal/chem"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/physics"
)

func testConfig() Config {
	return Config{
		Bounds: physics.Bounds{Width: 800, Height: 600},
		Params: dynamo.DefaultParams(),
		Seed:   1,
	}
}

type countMetric struct{ n int }

func (c *countMetric) Name() string     { return "frames" }
func (c *countMetric) Observe(f *Frame) { c.n++ }
func (c *countMetric) Value() float64   { return float64(c.n) }
func (c *countMetric) Reset()           { c.n = 0 }

func TestEngine_TickPublishes(t *testing.T) {
	e := New(nil, testConfig())
	if _, err := e.World().AddAtom(100, 100, chem.Carbon); err != nil {
		t.Fatal(err)
	}

	var got []*Frame
	e.AddObserver(ObserverFunc(func(f *Frame) { got = append(got, f) }))

	e.Tick()
	e.Tick()

	if len(got) != 2 {
		t.Fatalf("observed %d frames, want 2", len(got))
	}
	if got[1].Tick != 2 {
		t.Errorf("tick = %d, want 2", got[1].Tick)
	}
	if len(got[1].Atoms) != 1 || got[1].Atoms[0].Symbol != "C" {
		t.Errorf("unexpected atoms %+v", got[1].Atoms)
	}
}

func TestEngine_PausedDoesNotMove(t *testing.T) {
	cfg := testConfig()
	cfg.Params.Gravity = 2
	e := New(nil, cfg)
	id, _ := e.World().AddAtom(100, 100, chem.Carbon)
	e.SetPaused(true)

	f := e.Tick()

	a, _ := e.World().Atom(id)
	if a.Pos != (dynamo.Vec2{X: 100, Y: 100}) {
		t.Errorf("paused atom moved to %v", a.Pos)
	}
	if !f.Paused {
		t.Error("frame should report paused")
	}
}

func TestEngine_FlagsOverValency(t *testing.T) {
	e := New(nil, testConfig())
	w := e.World()
	c, _ := w.AddAtom(100, 100, chem.Carbon)
	o, _ := w.AddAtom(160, 100, chem.Oxygen)
	w.Link(c, o)
	w.Link(c, o)
	w.SetElement(o, chem.Hydrogen)

	f := e.Tick()
	if f.OverValencyCount() != 1 {
		t.Fatalf("over valency count = %d, want 1", f.OverValencyCount())
	}
	if v, _ := f.Atom(o); !v.OverValency {
		t.Error("hydrogen with a double bond should be flagged")
	}
	if len(f.Bonds) != 1 || f.Bonds[0].Order != 2 {
		t.Errorf("bonds = %+v", f.Bonds)
	}
}

func TestEngine_SetParamsValidates(t *testing.T) {
	e := New(nil, testConfig())
	p := e.Params()
	p.TimeStep = 0
	if err := e.SetParams(p); err == nil {
		t.Error("expected error for zero time step")
	}
	if e.Params().TimeStep != 1 {
		t.Error("params should be unchanged after rejection")
	}
}

func TestEngine_Run(t *testing.T) {
	e := New(nil, testConfig())
	e.World().AddAtom(100, 100, chem.Carbon)
	m := &countMetric{}
	e.AddMetric(m)

	res, err := e.Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Ticks != 30 {
		t.Errorf("ticks = %d, want 30", res.Ticks)
	}
	if res.Metrics["frames"] != 30 {
		t.Errorf("frames metric = %f, want 30", res.Metrics["frames"])
	}
	if _, err := e.Run(context.Background(), 0); err == nil {
		t.Error("expected error for zero ticks")
	}
}

func TestEngine_RunCancelled(t *testing.T) {
	e := New(nil, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Run(ctx, 100)
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if res.Ticks != 0 {
		t.Errorf("ticks = %d, want 0", res.Ticks)
	}
}

func TestScheduler_Advance(t *testing.T) {
	tests := []struct {
		name     string
		timeStep float64
		elapsed  time.Duration
		want     int
	}{
		{"under one tick", 1, TickInterval / 2, 0},
		{"one tick", 1, TickInterval, 1},
		{"three ticks", 1, 3 * TickInterval, 3},
		{"capped", 1, time.Second, MaxTicksPerAdvance},
		{"double speed", 2, TickInterval, 2},
		{"half speed", 0.5, TickInterval, 0},
		{"negative", 1, -time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Params.TimeStep = tt.timeStep
			s := NewScheduler(New(nil, cfg))
			if got := s.Advance(tt.elapsed); got != tt.want {
				t.Errorf("Advance(%v) = %d, want %d", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestScheduler_CarriesRemainder(t *testing.T) {
	s := NewScheduler(New(nil, testConfig()))
	if n := s.Advance(TickInterval * 3 / 4); n != 0 {
		t.Fatalf("first advance ran %d ticks", n)
	}
	if n := s.Advance(TickInterval / 2); n != 1 {
		t.Errorf("second advance ran %d ticks, want 1", n)
	}
}

func TestScheduler_DropsBacklog(t *testing.T) {
	s := NewScheduler(New(nil, testConfig()))
	s.Advance(time.Minute)
	if n := s.Advance(TickInterval / 2); n != 0 {
		t.Errorf("backlog leaked into next advance: %d ticks", n)
	}
}

func TestScheduler_RunExecutesCommands(t *testing.T) {
	s := NewScheduler(New(nil, testConfig()))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	spawned := make(chan dynamo.AtomID, 1)
	err := s.Do(ctx, func() {
		id, _ := s.Engine().World().AddAtom(50, 50, chem.Hydrogen)
		spawned <- id
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}

	select {
	case id := <-spawned:
		if id == "" {
			t.Error("command did not spawn an atom")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command never ran")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("run returned %v, want context.Canceled", err)
	}
}

func TestEnsemble(t *testing.T) {
	cfg := testConfig()
	cfg.Seed = 10
	cfg.Params.Temperature = 5
	build := func(w *dynamo.World, seed int64) error {
		_, err := w.AddAtom(400, 300, chem.Carbon)
		return err
	}
	metrics := func() []Metric { return []Metric{&countMetric{}} }

	results, err := NewEnsemble(cfg, 4, build, metrics).Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("results = %d, want 4", len(results))
	}
	for i, r := range results {
		if r.Seed != 10+int64(i) {
			t.Errorf("result %d seed = %d", i, r.Seed)
		}
		if r.Metrics["frames"] != 10 {
			t.Errorf("result %d frames = %f", i, r.Metrics["frames"])
		}
	}
}
