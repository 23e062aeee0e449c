package metrics

import "github.com/san-kum/molsim/internal/sim"

// Sample is one row of a run history.
type Sample struct {
	Tick          uint64
	Atoms         int
	Bonds         int
	OverValency   int
	KineticEnergy float64
}

// History keeps the most recent samples in a fixed-size ring.
type History struct {
	buf  []Sample
	next int
	full bool
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]Sample, capacity)}
}

func (h *History) OnFrame(f *sim.Frame) {
	h.Add(Sample{
		Tick:          f.Tick,
		Atoms:         len(f.Atoms),
		Bonds:         len(f.Bonds),
		OverValency:   f.OverValencyCount(),
		KineticEnergy: KineticEnergyOf(f),
	})
}

func (h *History) Add(s Sample) {
	h.buf[h.next] = s
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		h.full = true
	}
}

func (h *History) Len() int {
	if h.full {
		return len(h.buf)
	}
	return h.next
}

// Samples returns the retained samples, oldest first.
func (h *History) Samples() []Sample {
	if !h.full {
		out := make([]Sample, h.next)
		copy(out, h.buf[:h.next])
		return out
	}
	out := make([]Sample, 0, len(h.buf))
	out = append(out, h.buf[h.next:]...)
	return append(out, h.buf[:h.next]...)
}

// Energies returns the kinetic energy series, oldest first.
func (h *History) Energies() []float64 {
	samples := h.Samples()
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.KineticEnergy
	}
	return out
}

// BondCounts returns the bond count series, oldest first.
func (h *History) BondCounts() []float64 {
	samples := h.Samples()
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s.Bonds)
	}
	return out
}

func (h *History) Reset() {
	h.next = 0
	h.full = false
}
