package presets

import (
	"github.com/san-kum/molsim/internal/dynamo"
)

// Builder is the surface a construction script writes to.
type Builder interface {
	AddAtom(x, y float64, element int) dynamo.AtomID
	AddBond(a, b dynamo.AtomID, order int)
}

// WorldBuilder writes straight into a world, bypassing valency gating so
// scripts can declare double and triple bonds directly. Invalid requests are
// recorded in Err and otherwise skipped.
type WorldBuilder struct {
	World *dynamo.World
	IDs   []dynamo.AtomID
	Err   error
}

func NewWorldBuilder(w *dynamo.World) *WorldBuilder {
	return &WorldBuilder{World: w}
}

func (b *WorldBuilder) AddAtom(x, y float64, element int) dynamo.AtomID {
	id, err := b.World.AddAtom(x, y, element)
	if err != nil {
		if b.Err == nil {
			b.Err = err
		}
		return ""
	}
	b.IDs = append(b.IDs, id)
	return id
}

func (b *WorldBuilder) AddBond(a, c dynamo.AtomID, order int) {
	b.World.InsertBond("", a, c, order)
}
