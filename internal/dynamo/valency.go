package dynamo

// LinkResult reports what Link did to the bond graph.
type LinkResult int

const (
	LinkUnchanged LinkResult = iota
	LinkCreated
	LinkUpgraded
	LinkRemoved
)

func (r LinkResult) String() string {
	switch r {
	case LinkCreated:
		return "created"
	case LinkUpgraded:
		return "upgraded"
	case LinkRemoved:
		return "removed"
	default:
		return "unchanged"
	}
}

// Link is the single interactive entry point for bond edits. Repeated calls
// on the same pair cycle 1 -> 2 -> 3 -> removed, with every creation or
// upgrade gated on both atoms having a free valence. A blocked upgrade
// leaves the bond as it is.
func (w *World) Link(a, b AtomID) LinkResult {
	if a == b {
		return LinkUnchanged
	}
	atomA, okA := w.Atom(a)
	atomB, okB := w.Atom(b)
	if !okA || !okB {
		return LinkUnchanged
	}
	capA, capB := atomA.Valency, atomB.Valency
	fits := w.BondOrderSum(a)+1 <= capA && w.BondOrderSum(b)+1 <= capB

	if bond, ok := w.Bond(a, b); ok {
		if bond.Order >= MaxBondOrder {
			w.removeBondAt(w.bondIndex[bond.ID])
			return LinkRemoved
		}
		if !fits {
			return LinkUnchanged
		}
		bond.Order++
		return LinkUpgraded
	}

	if !fits {
		return LinkUnchanged
	}
	if _, ok := w.InsertBond("", a, b, MinBondOrder); !ok {
		return LinkUnchanged
	}
	return LinkCreated
}

// RemoveBond deletes the bond between a and b if there is one.
func (w *World) RemoveBond(a, b AtomID) bool {
	id, ok := w.pairs[makePair(a, b)]
	if !ok {
		return false
	}
	w.removeBondAt(w.bondIndex[id])
	return true
}

// DeleteAtom removes the atom and every bond touching it. It returns the
// number of bonds removed; unknown ids are a no-op.
func (w *World) DeleteAtom(id AtomID) int {
	i, ok := w.atomIndex[id]
	if !ok {
		return 0
	}
	removed := 0
	kept := w.bonds[:0]
	for _, b := range w.bonds {
		if b.Touches(id) {
			delete(w.bondIndex, b.ID)
			delete(w.pairs, makePair(b.A, b.B))
			removed++
			continue
		}
		kept = append(kept, b)
	}
	w.bonds = kept
	for j := range w.bonds {
		w.bondIndex[w.bonds[j].ID] = j
	}
	w.removeAtomAt(i)
	return removed
}
