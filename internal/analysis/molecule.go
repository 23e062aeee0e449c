package analysis

import (
	"github.com/san-kum/molsim/internal/chem"
	"github.com/san-kum/molsim/internal/dynamo"
)

// Molecule is one connected component of the bond graph.
type Molecule struct {
	// Atoms in BFS order, starting with the queried atom.
	Atoms   []dynamo.AtomID
	Counts  map[string]int
	Formula string
	// Display is Formula with counts wrapped in <sub></sub>.
	Display string
	Mass    float64
	// Name is empty when the formula has no common name.
	Name string
}

// Size returns the number of atoms in the molecule.
func (m *Molecule) Size() int { return len(m.Atoms) }

type adjacency map[dynamo.AtomID][]dynamo.AtomID

func buildAdjacency(w *dynamo.World) adjacency {
	adj := make(adjacency, w.NumAtoms())
	for _, b := range w.Bonds() {
		adj[b.A] = append(adj[b.A], b.B)
		adj[b.B] = append(adj[b.B], b.A)
	}
	return adj
}

// Analyze returns the molecule containing start, or nil if start does not
// exist.
func Analyze(w *dynamo.World, start dynamo.AtomID) *Molecule {
	if !w.HasAtom(start) {
		return nil
	}
	return walk(w, buildAdjacency(w), start, make(map[dynamo.AtomID]bool))
}

// Components returns every molecule, ordered by the store position of its
// first atom. Unbonded atoms are single-atom molecules.
func Components(w *dynamo.World) []*Molecule {
	adj := buildAdjacency(w)
	seen := make(map[dynamo.AtomID]bool, w.NumAtoms())
	var out []*Molecule
	for _, a := range w.Atoms() {
		if seen[a.ID] {
			continue
		}
		out = append(out, walk(w, adj, a.ID, seen))
	}
	return out
}

func walk(w *dynamo.World, adj adjacency, start dynamo.AtomID, seen map[dynamo.AtomID]bool) *Molecule {
	m := &Molecule{Counts: make(map[string]int)}
	queue := []dynamo.AtomID{start}
	seen[start] = true

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		a, ok := w.Atom(id)
		if !ok {
			continue
		}
		m.Atoms = append(m.Atoms, id)
		m.Counts[a.Symbol]++
		m.Mass += a.Mass

		for _, next := range adj[id] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	m.Formula = chem.Formula(m.Counts)
	m.Display = chem.DisplayFormula(m.Counts)
	m.Name, _ = chem.CommonName(m.Formula)
	return m
}
