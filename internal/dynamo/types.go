package dynamo

import (
	"math"

	"github.com/san-kum/molsim/internal/chem"
)

type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Len() float64         { return math.Sqrt(v.X*v.X + v.Y*v.Y) }
func (v Vec2) IsValid() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

type AtomID string

type BondID string

// Atom is a point mass. Velocity is implicit: Pos - Prev.
type Atom struct {
	ID       AtomID
	Pos      Vec2
	Prev     Vec2
	Element  int
	Dragging bool

	// Derived from the element table.
	Mass    float64
	Radius  float64
	Color   string
	Symbol  string
	Charge  float64
	Valency int
}

// Velocity returns the Verlet velocity of the atom.
func (a *Atom) Velocity() Vec2 { return a.Pos.Sub(a.Prev) }

func (a *Atom) applyElement(el chem.Element) {
	a.Mass = el.Mass
	a.Radius = el.Radius
	a.Color = el.Color
	a.Symbol = el.Symbol
	a.Charge = el.Charge
	a.Valency = el.Valency
}

// Bond connects two distinct atoms. A and B are interchangeable.
type Bond struct {
	ID         BondID
	A, B       AtomID
	Order      int
	RestLength float64
}

// Other returns the endpoint opposite id.
func (b *Bond) Other(id AtomID) AtomID {
	if b.A == id {
		return b.B
	}
	return b.A
}

// Touches reports whether id is an endpoint of the bond.
func (b *Bond) Touches(id AtomID) bool { return b.A == id || b.B == id }

// RestLengthFor is the equilibrium length of a bond between radii ra and rb.
func RestLengthFor(ra, rb float64) float64 { return (ra + rb) * 1.2 }

const (
	MinBondOrder = 1
	MaxBondOrder = 3
)

type pairKey struct{ lo, hi AtomID }

func makePair(a, b AtomID) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}
