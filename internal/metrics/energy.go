package metrics

import (
	"math"

	"github.com/san-kum/molsim/internal/sim"
)

// KineticEnergyOf sums 0.5*m*v^2 over every atom in the frame, with v the
// per-tick Verlet velocity.
func KineticEnergyOf(f *sim.Frame) float64 {
	total := 0.0
	for _, a := range f.Atoms {
		total += 0.5 * a.Mass * (a.VX*a.VX + a.VY*a.VY)
	}
	return total
}

// KineticEnergy is the mean total kinetic energy over observed frames.
type KineticEnergy struct {
	name    string
	current float64
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(f *sim.Frame) {
	e.current = KineticEnergyOf(f)
	e.total += e.current
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

// Current is the energy of the last observed frame.
func (e *KineticEnergy) Current() float64 { return e.current }

func (e *KineticEnergy) Reset() {
	e.current = 0
	e.total = 0
	e.samples = 0
}

// PeakEnergy is the largest kinetic energy seen in any frame.
type PeakEnergy struct {
	name string
	peak float64
}

func NewPeakEnergy() *PeakEnergy {
	return &PeakEnergy{name: "peak_energy"}
}

func (e *PeakEnergy) Name() string { return e.name }

func (e *PeakEnergy) Observe(f *sim.Frame) {
	e.peak = math.Max(e.peak, KineticEnergyOf(f))
}

func (e *PeakEnergy) Value() float64 { return e.peak }

func (e *PeakEnergy) Reset() { e.peak = 0 }
