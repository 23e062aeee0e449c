package sim

import (
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/physics"
)

// Metric accumulates a value over published frames.
type Metric interface {
	Name() string
	Observe(f *Frame)
	Value() float64
	Reset()
}

// Observer receives every published frame. Frames are snapshots and may be
// retained.
type Observer interface {
	OnFrame(f *Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f *Frame)

func (fn ObserverFunc) OnFrame(f *Frame) { fn(f) }

type Config struct {
	Bounds physics.Bounds
	Params dynamo.Params
	Seed   int64
}

// Result summarises a headless run.
type Result struct {
	Seed    int64
	Ticks   int
	Final   *Frame
	Metrics map[string]float64
}
