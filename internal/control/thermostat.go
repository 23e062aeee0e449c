package control

import (
	"math"

	"github.com/san-kum/molsim/internal/logging"
	"github.com/san-kum/molsim/internal/sim"
)

// Default gains and limits for the thermostat.
const (
	DefaultKp             = 0.5
	DefaultKi             = 0.05
	DefaultKd             = 0
	DefaultMaxTemperature = 50
)

// Thermostat holds the mean kinetic energy per atom near a target by
// steering the engine's temperature parameter. It is an engine observer,
// so it runs on the engine's goroutine after every published frame and the
// new temperature takes effect on the next tick.
type Thermostat struct {
	pid    *PID
	engine *sim.Engine
	max    float64
	log    logging.Logger
}

// NewThermostat attaches a thermostat targeting energy per atom to e.
func NewThermostat(e *sim.Engine, target float64, log logging.Logger) *Thermostat {
	if log == nil {
		log = logging.Discard
	}
	t := &Thermostat{
		pid:    NewPID(DefaultKp, DefaultKi, DefaultKd, target),
		engine: e,
		max:    DefaultMaxTemperature,
		log:    log,
	}
	e.AddObserver(t)
	return t
}

func (t *Thermostat) PID() *PID { return t.pid }

// SetMax bounds the temperature the thermostat may set.
func (t *Thermostat) SetMax(max float64) { t.max = max }

// EnergyPerAtom is the mean kinetic energy of the atoms in f.
func EnergyPerAtom(f *sim.Frame) float64 {
	if len(f.Atoms) == 0 {
		return 0
	}
	total := 0.0
	for _, a := range f.Atoms {
		total += 0.5 * a.Mass * (a.VX*a.VX + a.VY*a.VY)
	}
	return total / float64(len(f.Atoms))
}

func (t *Thermostat) OnFrame(f *sim.Frame) {
	if len(f.Atoms) == 0 || t.engine.Paused() {
		return
	}
	u := t.pid.Compute(EnergyPerAtom(f), 1)
	if math.IsNaN(u) {
		return
	}

	p := t.engine.Params()
	p.Temperature = math.Max(0, math.Min(t.max, u))
	if p == t.engine.Params() {
		return
	}
	if err := t.engine.SetParams(p); err != nil {
		t.log.Warnf("thermostat: %v", err)
	}
}
