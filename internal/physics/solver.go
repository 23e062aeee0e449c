package physics

import (
	"math"
	"math/rand"

	"github.com/san-kum/molsim/internal/dynamo"
)

// SubSteps is the number of sub-steps in one visual frame.
const SubSteps = 3

const (
	gravityScale  = 0.05
	minDistSq     = 100.0
	collisionPush = 0.1
	wallDamping   = 0.7
	jitterScale   = 0.15
)

// Bounds is the viewport the atoms are contained in.
type Bounds struct {
	Width, Height float64
}

type Solver struct {
	rng *rand.Rand
}

// NewSolver returns a solver whose thermal jitter is drawn from seed.
func NewSolver(seed int64) *Solver {
	return &Solver{rng: rand.New(rand.NewSource(seed))}
}

// Frame runs SubSteps sub-steps.
func (s *Solver) Frame(w *dynamo.World, p dynamo.Params, b Bounds) {
	for i := 0; i < SubSteps; i++ {
		s.Step(w, p, b)
	}
}

// Step runs a single sub-step.
func (s *Solver) Step(w *dynamo.World, p dynamo.Params, b Bounds) {
	atoms := w.Atoms()

	for i := range atoms {
		a := &atoms[i]
		if a.Dragging {
			continue
		}

		if p.Gravity > 0 {
			a.Pos.Y += p.Gravity * a.Mass * gravityScale
		}

		if p.Electrostatics {
			s.repel(a, atoms, p.Repulsion)
		}

		contain(a, b)

		if p.Temperature > 0 {
			mag := p.Temperature * jitterScale
			a.Pos.X += (s.rng.Float64() - 0.5) * mag
			a.Pos.Y += (s.rng.Float64() - 0.5) * mag
		}
	}

	relaxBonds(w, p.BondStiffness)

	for i := range atoms {
		a := &atoms[i]
		if a.Dragging {
			continue
		}
		v := a.Pos.Sub(a.Prev).Scale(p.Friction)
		a.Prev = a.Pos
		a.Pos = a.Pos.Add(v)
		a.Pos.X = clampAxis(a.Pos.X, a.Radius, b.Width)
		a.Pos.Y = clampAxis(a.Pos.Y, a.Radius, b.Height)
	}
}

// repel pushes a away from every other atom. Only a moves; the partner gets
// its own push when it is visited.
func (s *Solver) repel(a *dynamo.Atom, atoms []dynamo.Atom, repulsion float64) {
	for j := range atoms {
		o := &atoms[j]
		if o.ID == a.ID {
			continue
		}
		d := a.Pos.Sub(o.Pos)
		distSq := d.X*d.X + d.Y*d.Y
		if distSq < minDistSq {
			distSq = minDistSq
		}
		dist := math.Sqrt(distSq)
		n := d.Scale(1 / dist)

		if minDist := a.Radius + o.Radius; dist < minDist {
			a.Pos = a.Pos.Add(n.Scale((minDist - dist) * collisionPush))
		}

		f := repulsion * (a.Charge*o.Charge + 1) / distSq
		a.Pos = a.Pos.Add(n.Scale(f / a.Mass))
	}
}

// contain keeps a inside the bounds. An atom leaving through a wall, or
// resting on it while still moving outward, is reflected with its speed
// damped. A clamp never adds velocity of its own.
func contain(a *dynamo.Atom, b Bounds) {
	a.Pos.X, a.Prev.X = wallAxis(a.Pos.X, a.Prev.X, a.Radius, b.Width)
	a.Pos.Y, a.Prev.Y = wallAxis(a.Pos.Y, a.Prev.Y, a.Radius, b.Height)
}

func wallAxis(pos, prev, r, dim float64) (float64, float64) {
	lo, hi := r, dim-r
	if hi < lo {
		c := dim / 2
		return c, c
	}
	v := pos - prev
	switch {
	case pos < lo, pos == lo && v < 0:
		pos = lo
		if v < 0 {
			return pos, pos + v*wallDamping
		}
	case pos > hi, pos == hi && v > 0:
		pos = hi
		if v > 0 {
			return pos, pos + v*wallDamping
		}
	default:
		return pos, prev
	}
	return pos, pos - v
}

func clampAxis(pos, r, dim float64) float64 {
	lo, hi := r, dim-r
	if hi < lo {
		return dim / 2
	}
	return math.Max(lo, math.Min(hi, pos))
}

func relaxBonds(w *dynamo.World, stiffness float64) {
	bonds := w.Bonds()
	for i := range bonds {
		bond := &bonds[i]
		a, okA := w.Atom(bond.A)
		b, okB := w.Atom(bond.B)
		if !okA || !okB {
			continue
		}
		d := b.Pos.Sub(a.Pos)
		dist := d.Len()
		if dist == 0 {
			continue
		}
		offset := (dist - bond.RestLength) / dist / 2 * stiffness
		shift := d.Scale(offset)
		if !a.Dragging {
			a.Pos = a.Pos.Add(shift)
		}
		if !b.Dragging {
			b.Pos = b.Pos.Sub(shift)
		}
	}
}
