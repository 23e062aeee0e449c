package dynamo

// Report is the outcome of a chemistry check over the whole world.
type Report struct {
	// OverValency holds every atom whose bond order total exceeds its
	// valency. Atoms within their limit are absent.
	OverValency map[AtomID]bool
	// Totals is the bond order sum per atom, including zero entries.
	Totals map[AtomID]int
}

// Count returns the number of over-valency atoms.
func (r Report) Count() int { return len(r.OverValency) }

// Validate computes valency totals for every atom. It never mutates w.
func Validate(w *World) Report {
	r := Report{
		OverValency: make(map[AtomID]bool),
		Totals:      make(map[AtomID]int, len(w.atoms)),
	}
	for i := range w.atoms {
		r.Totals[w.atoms[i].ID] = 0
	}
	for i := range w.bonds {
		b := &w.bonds[i]
		r.Totals[b.A] += b.Order
		r.Totals[b.B] += b.Order
	}
	for i := range w.atoms {
		a := &w.atoms[i]
		if r.Totals[a.ID] > a.Valency {
			r.OverValency[a.ID] = true
		}
	}
	return r
}
