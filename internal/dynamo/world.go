package dynamo

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/san-kum/molsim/internal/chem"
)

// NewRandomID returns a 16 character hex identifier.
func NewRandomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// World owns every atom and bond. Atoms live in a dense slice with an
// id->slot index; bonds reference atoms by id only.
//
// World is NOT safe for concurrent use. Adapters serialize access through a
// single loop (see package sim).
type World struct {
	atoms     []Atom
	atomIndex map[AtomID]int

	bonds     []Bond
	bondIndex map[BondID]int
	pairs     map[pairKey]BondID

	newID func() string
}

func NewWorld() *World {
	return &World{
		atomIndex: make(map[AtomID]int),
		bondIndex: make(map[BondID]int),
		pairs:     make(map[pairKey]BondID),
		newID:     NewRandomID,
	}
}

// SetIDSource replaces the identifier generator. Intended for tests.
func (w *World) SetIDSource(fn func() string) { w.newID = fn }

func (w *World) NumAtoms() int { return len(w.atoms) }
func (w *World) NumBonds() int { return len(w.bonds) }

// Atoms returns the backing slice in store order. Elements may be modified
// in place; the slice is invalidated by any insertion or deletion.
func (w *World) Atoms() []Atom { return w.atoms }

// Bonds returns the backing bond slice in insertion order. Same validity
// rules as Atoms.
func (w *World) Bonds() []Bond { return w.bonds }

// Atom returns a pointer into the store, valid until the next insertion or
// deletion.
func (w *World) Atom(id AtomID) (*Atom, bool) {
	i, ok := w.atomIndex[id]
	if !ok {
		return nil, false
	}
	return &w.atoms[i], true
}

func (w *World) HasAtom(id AtomID) bool {
	_, ok := w.atomIndex[id]
	return ok
}

// Bond returns the bond between a and b in either order.
func (w *World) Bond(a, b AtomID) (*Bond, bool) {
	id, ok := w.pairs[makePair(a, b)]
	if !ok {
		return nil, false
	}
	return &w.bonds[w.bondIndex[id]], true
}

// AtomAt returns the atom nearest to (x, y) whose disc, grown by slack,
// contains the point.
func (w *World) AtomAt(x, y, slack float64) (AtomID, bool) {
	best, bestD := -1, 0.0
	for i := range w.atoms {
		a := &w.atoms[i]
		dx, dy := a.Pos.X-x, a.Pos.Y-y
		d := dx*dx + dy*dy
		reach := a.Radius + slack
		if d > reach*reach {
			continue
		}
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	if best < 0 {
		return "", false
	}
	return w.atoms[best].ID, true
}

// AddAtom spawns an atom at rest at (x, y).
func (w *World) AddAtom(x, y float64, element int) (AtomID, error) {
	return w.InsertAtom(AtomID(w.newID()), Vec2{x, y}, Vec2{x, y}, element)
}

// InsertAtom adds an atom with an explicit identifier and previous position.
// Used when rehydrating snapshots.
func (w *World) InsertAtom(id AtomID, pos, prev Vec2, element int) (AtomID, error) {
	el, ok := chem.Lookup(element)
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownElement, element)
	}
	if id == "" {
		return "", fmt.Errorf("dynamo: empty atom id")
	}
	if w.HasAtom(id) {
		return "", fmt.Errorf("dynamo: duplicate atom id %s", id)
	}
	a := Atom{ID: id, Pos: pos, Prev: prev, Element: element}
	a.applyElement(el)
	w.atomIndex[id] = len(w.atoms)
	w.atoms = append(w.atoms, a)
	return id, nil
}

// SetElement changes an atom's element type and re-derives its attributes.
// Existing bonds keep their order and rest length, which may leave the atom
// over its new valency.
func (w *World) SetElement(id AtomID, element int) bool {
	a, ok := w.Atom(id)
	if !ok {
		return false
	}
	el, ok := chem.Lookup(element)
	if !ok {
		return false
	}
	a.Element = element
	a.applyElement(el)
	return true
}

// InsertBond adds a bond with an explicit order without valency gating.
// It is the construction primitive for presets and rehydration; interactive
// edits go through Link. Self bonds, unknown endpoints, duplicate pairs and
// orders outside [1,3] are rejected.
func (w *World) InsertBond(id BondID, a, b AtomID, order int) (BondID, bool) {
	if a == b || order < MinBondOrder || order > MaxBondOrder {
		return "", false
	}
	atomA, okA := w.Atom(a)
	atomB, okB := w.Atom(b)
	if !okA || !okB {
		return "", false
	}
	key := makePair(a, b)
	if _, dup := w.pairs[key]; dup {
		return "", false
	}
	if id == "" {
		id = BondID(w.newID())
	}
	if _, dup := w.bondIndex[id]; dup {
		return "", false
	}
	w.bondIndex[id] = len(w.bonds)
	w.pairs[key] = id
	w.bonds = append(w.bonds, Bond{
		ID:         id,
		A:          a,
		B:          b,
		Order:      order,
		RestLength: RestLengthFor(atomA.Radius, atomB.Radius),
	})
	return id, true
}

// BondOrderSum is the total order of all bonds touching id.
func (w *World) BondOrderSum(id AtomID) int {
	total := 0
	for i := range w.bonds {
		if w.bonds[i].Touches(id) {
			total += w.bonds[i].Order
		}
	}
	return total
}

// IncidentBonds returns the ids of bonds touching id, in store order.
func (w *World) IncidentBonds(id AtomID) []BondID {
	var out []BondID
	for i := range w.bonds {
		if w.bonds[i].Touches(id) {
			out = append(out, w.bonds[i].ID)
		}
	}
	return out
}

// Clear removes every atom and bond.
func (w *World) Clear() {
	w.atoms = w.atoms[:0]
	w.bonds = w.bonds[:0]
	clear(w.atomIndex)
	clear(w.bondIndex)
	clear(w.pairs)
}

func (w *World) removeBondAt(i int) {
	b := w.bonds[i]
	delete(w.bondIndex, b.ID)
	delete(w.pairs, makePair(b.A, b.B))
	w.bonds = append(w.bonds[:i], w.bonds[i+1:]...)
	for j := i; j < len(w.bonds); j++ {
		w.bondIndex[w.bonds[j].ID] = j
	}
}

func (w *World) removeAtomAt(i int) {
	delete(w.atomIndex, w.atoms[i].ID)
	w.atoms = append(w.atoms[:i], w.atoms[i+1:]...)
	for j := i; j < len(w.atoms); j++ {
		w.atomIndex[w.atoms[j].ID] = j
	}
}

// Replace moves the contents of src into w, keeping w's id source. src must
// not be used afterwards.
func (w *World) Replace(src *World) {
	newID := w.newID
	*w = *src
	w.newID = newID
	*src = World{}
}
