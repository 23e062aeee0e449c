package presets

import (
	"math"
	"math/rand"

	perlin "github.com/aquilax/go-perlin"

	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/physics"
)

const (
	soupAlpha = 2.0
	soupBeta  = 2.0
	soupOct   = 3
	soupScale = 0.004
)

// SoupElements are the element types a soup draws from, lightest first.
var SoupElements = []int{hyd, hyd, car, nit, oxy}

// Soup scatters n unbonded atoms inside b. The element at each spot follows
// a Perlin noise field, so neighbouring atoms tend to share a type and the
// soup forms patches rather than uniform noise. Atoms keep a margin from the
// walls and get a small random velocity.
func Soup(w *dynamo.World, b physics.Bounds, n int, seed int64) ([]dynamo.AtomID, error) {
	noise := perlin.NewPerlin(soupAlpha, soupBeta, soupOct, seed)
	rng := rand.New(rand.NewSource(seed))

	const margin = 40.0
	ids := make([]dynamo.AtomID, 0, n)
	for i := 0; i < n; i++ {
		x := margin + rng.Float64()*math.Max(b.Width-2*margin, 0)
		y := margin + rng.Float64()*math.Max(b.Height-2*margin, 0)

		v := noise.Noise2D(x*soupScale, y*soupScale)
		// Noise2D is roughly in [-1, 1].
		t := math.Max(0, math.Min(0.999, (v+1)/2))
		el := SoupElements[int(t*float64(len(SoupElements)))]

		id, err := w.AddAtom(x, y, el)
		if err != nil {
			return ids, err
		}
		a, _ := w.Atom(id)
		a.Prev = a.Pos.Sub(dynamo.Vec2{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5})
		ids = append(ids, id)
	}
	return ids, nil
}
