package config

import (
	"sort"

	"github.com/san-kum/molsim/internal/dynamo"
)

// Presets are named physics parameter sets.
var Presets = map[string]dynamo.Params{
	"default": dynamo.DefaultParams(),
	"gravity": {
		Gravity: 0.5, Friction: 0.96, Repulsion: 1500, BondStiffness: 0.1,
		TimeStep: 1, Electrostatics: true,
	},
	"hot": {
		Friction: 0.99, Repulsion: 1500, BondStiffness: 0.1, Temperature: 40,
		TimeStep: 1, Electrostatics: true,
	},
	"inert": {
		Friction: 0.9, Repulsion: 0, BondStiffness: 0.1,
		TimeStep: 1, Electrostatics: false,
	},
	"stiff": {
		Friction: 0.96, Repulsion: 1500, BondStiffness: 0.5,
		TimeStep: 1, Electrostatics: true,
	},
}

func GetPreset(name string) (dynamo.Params, bool) {
	p, ok := Presets[name]
	return p, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
