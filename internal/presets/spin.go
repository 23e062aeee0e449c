package presets

import "github.com/san-kum/molsim/internal/dynamo"

// DefaultSpin is the angular kick given to freshly placed random molecules.
const DefaultSpin = 0.02

// Spin gives the listed atoms a rotation about (cx, cy) by shifting their
// previous positions, so the next integration carries a tangential velocity
// proportional to the distance from the centre.
func Spin(w *dynamo.World, ids []dynamo.AtomID, cx, cy, rate float64) {
	for _, id := range ids {
		a, ok := w.Atom(id)
		if !ok {
			continue
		}
		a.Prev.X -= (a.Pos.Y - cy) * rate
		a.Prev.Y += (a.Pos.X - cx) * rate
	}
}
