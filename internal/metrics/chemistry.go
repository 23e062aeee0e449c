package metrics

import (
	"math"

	"github.com/san-kum/molsim/internal/sim"
)

// Stability is the fraction of frames in which no atom exceeded its valency.
type Stability struct {
	name       string
	violations int
	samples    int
}

func NewStability() *Stability {
	return &Stability{name: "stability"}
}

func (s *Stability) Name() string { return s.name }

func (s *Stability) Observe(f *sim.Frame) {
	s.samples++
	if f.OverValencyCount() > 0 {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1
	}
	return 1 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// BondCount reports the number of bonds in the last frame.
type BondCount struct {
	name  string
	bonds int
}

func NewBondCount() *BondCount {
	return &BondCount{name: "bonds"}
}

func (b *BondCount) Name() string         { return b.name }
func (b *BondCount) Observe(f *sim.Frame) { b.bonds = len(f.Bonds) }
func (b *BondCount) Value() float64       { return float64(b.bonds) }
func (b *BondCount) Reset()               { b.bonds = 0 }

// BondStrain is the mean relative deviation of bond lengths from their rest
// lengths, averaged over frames.
type BondStrain struct {
	name    string
	sum     float64
	samples int
}

func NewBondStrain() *BondStrain {
	return &BondStrain{name: "bond_strain"}
}

func (b *BondStrain) Name() string { return b.name }

// FrameStrain is the mean strain of the bonds in one frame.
func FrameStrain(f *sim.Frame) float64 {
	total, n := 0.0, 0
	for _, bond := range f.Bonds {
		if bond.Rest <= 0 {
			continue
		}
		l := math.Hypot(bond.X2-bond.X1, bond.Y2-bond.Y1)
		total += math.Abs(l-bond.Rest) / bond.Rest
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func (b *BondStrain) Observe(f *sim.Frame) {
	b.sum += FrameStrain(f)
	b.samples++
}

func (b *BondStrain) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return b.sum / float64(b.samples)
}

func (b *BondStrain) Reset() {
	b.sum = 0
	b.samples = 0
}

// Default returns the metric set used by headless runs.
func Default() []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewPeakEnergy(),
		NewStability(),
		NewBondCount(),
		NewBondStrain(),
	}
}
