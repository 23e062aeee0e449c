package presets

import (
	"math"

	"github.com/san-kum/molsim/internal/chem"
	"github.com/san-kum/molsim/internal/dynamo"
)

const (
	hyd = chem.Hydrogen
	car = chem.Carbon
	nit = chem.Nitrogen
	oxy = chem.Oxygen
)

// Builtins are the molecules available without any script, in menu order.
var Builtins = []Preset{
	{Name: "Benzene", Formula: "C6H6", Build: benzene},
	{Name: "Water", Formula: "H2O", Build: water},
	{Name: "Carbon Dioxide", Formula: "CO2", Build: carbonDioxide},
	{Name: "Methane", Formula: "CH4", Build: methane},
	{Name: "Ammonia", Formula: "H3N", Build: ammonia},
	{Name: "Ethanol", Formula: "C2H6O", Build: ethanol},
	{Name: "Acetic Acid", Formula: "C2H4O2", Build: aceticAcid},
}

func benzene(b Builder, cx, cy float64) {
	const r, hr = 80.0, 140.0
	var carbons [6]dynamo.AtomID
	for i := range carbons {
		ang := float64(i) * 60 * math.Pi / 180
		carbons[i] = b.AddAtom(cx+math.Cos(ang)*r, cy+math.Sin(ang)*r, car)
	}
	for i := range carbons {
		ang := float64(i) * 60 * math.Pi / 180
		h := b.AddAtom(cx+math.Cos(ang)*hr, cy+math.Sin(ang)*hr, hyd)
		b.AddBond(carbons[i], h, 1)
	}
	for i := range carbons {
		order := 1
		if i%2 == 0 {
			order = 2
		}
		b.AddBond(carbons[i], carbons[(i+1)%6], order)
	}
}

func water(b Builder, cx, cy float64) {
	o := b.AddAtom(cx, cy-10, oxy)
	b.AddBond(o, b.AddAtom(cx-30, cy+20, hyd), 1)
	b.AddBond(o, b.AddAtom(cx+30, cy+20, hyd), 1)
}

func carbonDioxide(b Builder, cx, cy float64) {
	c := b.AddAtom(cx, cy, car)
	b.AddBond(c, b.AddAtom(cx-50, cy, oxy), 2)
	b.AddBond(c, b.AddAtom(cx+50, cy, oxy), 2)
}

func methane(b Builder, cx, cy float64) {
	c := b.AddAtom(cx, cy, car)
	b.AddBond(c, b.AddAtom(cx, cy-40, hyd), 1)
	b.AddBond(c, b.AddAtom(cx, cy+40, hyd), 1)
	b.AddBond(c, b.AddAtom(cx-40, cy, hyd), 1)
	b.AddBond(c, b.AddAtom(cx+40, cy, hyd), 1)
}

func ammonia(b Builder, cx, cy float64) {
	n := b.AddAtom(cx, cy-10, nit)
	b.AddBond(n, b.AddAtom(cx-30, cy+30, hyd), 1)
	b.AddBond(n, b.AddAtom(cx+30, cy+30, hyd), 1)
	b.AddBond(n, b.AddAtom(cx, cy+40, hyd), 1)
}

func ethanol(b Builder, cx, cy float64) {
	c1 := b.AddAtom(cx-30, cy, car)
	c2 := b.AddAtom(cx+10, cy, car)
	o := b.AddAtom(cx+50, cy-10, oxy)
	ho := b.AddAtom(cx+70, cy+10, hyd)

	b.AddBond(c1, c2, 1)
	b.AddBond(c2, o, 1)
	b.AddBond(o, ho, 1)

	b.AddBond(c1, b.AddAtom(cx-30, cy-40, hyd), 1)
	b.AddBond(c1, b.AddAtom(cx-30, cy+40, hyd), 1)
	b.AddBond(c1, b.AddAtom(cx-70, cy, hyd), 1)

	b.AddBond(c2, b.AddAtom(cx+10, cy-40, hyd), 1)
	b.AddBond(c2, b.AddAtom(cx+10, cy+40, hyd), 1)
}

func aceticAcid(b Builder, cx, cy float64) {
	c1 := b.AddAtom(cx-20, cy, car)
	c2 := b.AddAtom(cx+20, cy, car)
	o1 := b.AddAtom(cx+20, cy-40, oxy)
	o2 := b.AddAtom(cx+50, cy+20, oxy)
	ho := b.AddAtom(cx+70, cy, hyd)

	b.AddBond(c1, c2, 1)
	b.AddBond(c2, o1, 2)
	b.AddBond(c2, o2, 1)
	b.AddBond(o2, ho, 1)

	b.AddBond(c1, b.AddAtom(cx-20, cy-40, hyd), 1)
	b.AddBond(c1, b.AddAtom(cx-20, cy+40, hyd), 1)
	b.AddBond(c1, b.AddAtom(cx-60, cy, hyd), 1)
}
