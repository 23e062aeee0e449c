package presets

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/molsim/internal/chem"
	"github.com/san-kum/molsim/internal/dynamo"
)

// Script is a molecule described in YAML. Coordinates are offsets from the
// placement centre.
type Script struct {
	Name    string         `yaml:"name"`
	Formula string         `yaml:"formula"`
	Atoms   []ScriptAtom   `yaml:"atoms"`
	Bonds   []ScriptBond   `yaml:"bonds"`
	Spin    float64        `yaml:"spin"`
	Meta    map[string]any `yaml:"meta,omitempty"`
}

type ScriptAtom struct {
	Ref     string  `yaml:"ref"`
	Element string  `yaml:"element"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
}

type ScriptBond struct {
	A     string `yaml:"a"`
	B     string `yaml:"b"`
	Order int    `yaml:"order"`
}

// LoadScript reads a YAML molecule script from path.
func LoadScript(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, err
	}
	p, err := ParseScript(data)
	if err != nil {
		return Preset{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// LoadScripts registers every *.yaml and *.yml script in dir and returns the
// names loaded.
func (r *Registry) LoadScripts(dir string) ([]string, error) {
	var names []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return names, err
		}
		for _, path := range matches {
			p, err := LoadScript(path)
			if err != nil {
				return names, err
			}
			r.Register(p)
			names = append(names, p.Name)
		}
	}
	return names, nil
}

// ParseScript validates a YAML script and compiles it into a preset.
func ParseScript(data []byte) (Preset, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Preset{}, err
	}
	if s.Name == "" {
		return Preset{}, fmt.Errorf("script has no name")
	}
	if len(s.Atoms) == 0 {
		return Preset{}, fmt.Errorf("script %s has no atoms", s.Name)
	}

	elements := make([]int, len(s.Atoms))
	refs := make(map[string]int, len(s.Atoms))
	for i, a := range s.Atoms {
		el, ok := chem.IndexOf(a.Element)
		if !ok {
			return Preset{}, fmt.Errorf("atom %d: %w: %q", i, dynamo.ErrUnknownElement, a.Element)
		}
		elements[i] = el
		if a.Ref == "" {
			continue
		}
		if _, dup := refs[a.Ref]; dup {
			return Preset{}, fmt.Errorf("atom %d: duplicate ref %q", i, a.Ref)
		}
		refs[a.Ref] = i
	}

	type link struct{ a, b, order int }
	links := make([]link, len(s.Bonds))
	for i, bd := range s.Bonds {
		ia, okA := refs[bd.A]
		ib, okB := refs[bd.B]
		if !okA || !okB {
			return Preset{}, fmt.Errorf("bond %d: unknown ref %q or %q", i, bd.A, bd.B)
		}
		order := bd.Order
		if order == 0 {
			order = dynamo.MinBondOrder
		}
		if ia == ib || order < dynamo.MinBondOrder || order > dynamo.MaxBondOrder {
			return Preset{}, fmt.Errorf("bond %d: invalid bond %s-%s order %d", i, bd.A, bd.B, bd.Order)
		}
		links[i] = link{ia, ib, order}
	}

	atoms := s.Atoms
	return Preset{
		Name:    s.Name,
		Formula: s.Formula,
		Build: func(b Builder, cx, cy float64) {
			ids := make([]dynamo.AtomID, len(atoms))
			for i, a := range atoms {
				ids[i] = b.AddAtom(cx+a.X, cy+a.Y, elements[i])
			}
			for _, l := range links {
				b.AddBond(ids[l.a], ids[l.b], l.order)
			}
		},
	}, nil
}
