package chem

import "fmt"

// Element is the reference data for one element type.
type Element struct {
	Symbol  string
	Name    string
	Mass    float64
	Radius  float64
	Color   string
	Charge  float64
	Valency int
}

// Element type indices used by presets.
const (
	Hydrogen = 0
	Carbon   = 1
	Nitrogen = 2
	Oxygen   = 3
)

var elements = [...]Element{
	{Symbol: "H", Name: "Hydrogen", Mass: 1, Radius: 20, Color: "#e2e8f0", Charge: 1, Valency: 1},

	{Symbol: "C", Name: "Carbon", Mass: 12, Radius: 30, Color: "#64748b", Charge: 0, Valency: 4},
	{Symbol: "N", Name: "Nitrogen", Mass: 14, Radius: 28, Color: "#3b82f6", Charge: -1, Valency: 3},
	{Symbol: "O", Name: "Oxygen", Mass: 16, Radius: 28, Color: "#ef4444", Charge: -2, Valency: 2},
	{Symbol: "F", Name: "Fluorine", Mass: 19, Radius: 25, Color: "#84cc16", Charge: -1, Valency: 1},

	{Symbol: "Na", Name: "Sodium", Mass: 23, Radius: 34, Color: "#a855f7", Charge: 1, Valency: 1},
	{Symbol: "Mg", Name: "Magnesium", Mass: 24, Radius: 34, Color: "#22c55e", Charge: 2, Valency: 2},
	{Symbol: "Al", Name: "Aluminium", Mass: 27, Radius: 32, Color: "#94a3b8", Charge: 3, Valency: 3},
	{Symbol: "Si", Name: "Silicon", Mass: 28, Radius: 32, Color: "#d6d3d1", Charge: 0, Valency: 4},
	{Symbol: "P", Name: "Phosphorus", Mass: 31, Radius: 31, Color: "#f97316", Charge: -3, Valency: 5},
	{Symbol: "S", Name: "Sulfur", Mass: 32, Radius: 31, Color: "#facc15", Charge: -2, Valency: 2},
	{Symbol: "Cl", Name: "Chlorine", Mass: 35, Radius: 30, Color: "#10b981", Charge: -1, Valency: 1},

	{Symbol: "K", Name: "Potassium", Mass: 39, Radius: 36, Color: "#8b5cf6", Charge: 1, Valency: 1},
	{Symbol: "Ca", Name: "Calcium", Mass: 40, Radius: 36, Color: "#84cc16", Charge: 2, Valency: 2},
	{Symbol: "Fe", Name: "Iron", Mass: 56, Radius: 33, Color: "#ea580c", Charge: 2, Valency: 4},
	{Symbol: "Cu", Name: "Copper", Mass: 64, Radius: 32, Color: "#c2410c", Charge: 2, Valency: 2},
	{Symbol: "Zn", Name: "Zinc", Mass: 65, Radius: 32, Color: "#7e7e91", Charge: 2, Valency: 2},
	{Symbol: "Br", Name: "Bromine", Mass: 80, Radius: 31, Color: "#991b1b", Charge: -1, Valency: 1},
	{Symbol: "Ag", Name: "Silver", Mass: 108, Radius: 34, Color: "#e2e8f0", Charge: 1, Valency: 1},
	{Symbol: "I", Name: "Iodine", Mass: 127, Radius: 33, Color: "#6b21a8", Charge: -1, Valency: 1},
	{Symbol: "Au", Name: "Gold", Mass: 197, Radius: 34, Color: "#fbbf24", Charge: 1, Valency: 1},
}

// NumElements is the size of the element table.
const NumElements = len(elements)

// Lookup returns the element for a type index.
func Lookup(idx int) (Element, bool) {
	if idx < 0 || idx >= len(elements) {
		return Element{}, false
	}
	return elements[idx], true
}

// MustLookup panics on an unknown index; only for indices known at compile time.
func MustLookup(idx int) Element {
	el, ok := Lookup(idx)
	if !ok {
		panic(fmt.Sprintf("chem: unknown element index %d", idx))
	}
	return el
}

// Elements returns a copy of the element table.
func Elements() []Element {
	out := make([]Element, len(elements))
	copy(out, elements[:])
	return out
}

// IndexOf returns the element index for a symbol.
func IndexOf(symbol string) (int, bool) {
	for i, el := range elements {
		if el.Symbol == symbol {
			return i, true
		}
	}
	return -1, false
}
