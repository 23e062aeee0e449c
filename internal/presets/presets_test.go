package presets

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/molsim/internal/analysis"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/physics"
)

func TestBuiltins_FormulaAndValency(t *testing.T) {
	for _, p := range Builtins {
		t.Run(p.Name, func(t *testing.T) {
			w := dynamo.NewWorld()
			ids, err := Build(w, p, 400, 300)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if len(ids) != w.NumAtoms() {
				t.Errorf("returned %d ids for %d atoms", len(ids), w.NumAtoms())
			}

			m := analysis.Analyze(w, ids[0])
			if m.Formula != p.Formula {
				t.Errorf("formula = %s, want %s", m.Formula, p.Formula)
			}
			if m.Size() != w.NumAtoms() {
				t.Errorf("molecule is not connected: %d of %d atoms", m.Size(), w.NumAtoms())
			}
			if r := dynamo.Validate(w); r.Count() != 0 {
				t.Errorf("%d atoms over valency", r.Count())
			}
		})
	}
}

func TestBuiltins_KnownNames(t *testing.T) {
	for _, name := range []string{"Benzene", "Water", "Methane", "Ammonia", "Ethanol"} {
		w := dynamo.NewWorld()
		ids, err := Place(w, name, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if got := analysis.Analyze(w, ids[0]).Name; got != name {
			t.Errorf("%s analysed as %q", name, got)
		}
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"carbon dioxide", "Carbon_Dioxide", "  CARBON-dioxide "} {
		if _, err := r.Get(name); err != nil {
			t.Errorf("Get(%q): %v", name, err)
		}
	}
	if _, err := r.Get("caffeine"); !errors.Is(err, dynamo.ErrUnknownPreset) {
		t.Errorf("err = %v, want ErrUnknownPreset", err)
	}
	if len(r.Names()) != len(Builtins) {
		t.Errorf("names = %v", r.Names())
	}
}

func TestRegistry_Random(t *testing.T) {
	r := NewRegistry()
	rng := rand.New(rand.NewSource(1))
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[r.Random(rng).Name] = true
	}
	if len(seen) != len(Builtins) {
		t.Errorf("random covered %d of %d presets", len(seen), len(Builtins))
	}
}

func TestSpin(t *testing.T) {
	w := dynamo.NewWorld()
	ids, _ := Place(w, "Carbon Dioxide", 100, 100)
	Spin(w, ids, 100, 100, DefaultSpin)

	for _, id := range ids {
		a, _ := w.Atom(id)
		r := a.Pos.Sub(dynamo.Vec2{X: 100, Y: 100})
		v := a.Velocity()
		if dot := r.X*v.X + r.Y*v.Y; math.Abs(dot) > 1e-9 {
			t.Errorf("velocity %v not tangential to %v", v, r)
		}
		if math.Abs(v.Len()-r.Len()*DefaultSpin) > 1e-9 {
			t.Errorf("speed %f, want %f", v.Len(), r.Len()*DefaultSpin)
		}
	}
}

const peroxide = `
name: Hydrogen Peroxide
formula: H2O2
atoms:
  - {ref: o1, element: O, x: -20, y: 0}
  - {ref: o2, element: O, x: 20, y: 0}
  - {ref: h1, element: H, x: -40, y: -30}
  - {ref: h2, element: H, x: 40, y: 30}
bonds:
  - {a: o1, b: o2}
  - {a: o1, b: h1, order: 1}
  - {a: o2, b: h2, order: 1}
`

func TestParseScript(t *testing.T) {
	p, err := ParseScript([]byte(peroxide))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	w := dynamo.NewWorld()
	ids, err := Build(w, p, 200, 200)
	if err != nil {
		t.Fatal(err)
	}
	m := analysis.Analyze(w, ids[0])
	if m.Formula != "H2O2" || w.NumBonds() != 3 {
		t.Errorf("formula = %s, bonds = %d", m.Formula, w.NumBonds())
	}
	a, _ := w.Atom(ids[0])
	if a.Pos != (dynamo.Vec2{X: 180, Y: 200}) {
		t.Errorf("first atom at %v", a.Pos)
	}
}

func TestParseScript_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no name", "atoms: [{element: H}]"},
		{"no atoms", "name: x"},
		{"bad element", "name: x\natoms: [{element: Xx}]"},
		{"bad ref", "name: x\natoms: [{ref: a, element: H}]\nbonds: [{a: a, b: z}]"},
		{"self bond", "name: x\natoms: [{ref: a, element: C}]\nbonds: [{a: a, b: a}]"},
		{"order", "name: x\natoms: [{ref: a, element: C}, {ref: b, element: C}]\nbonds: [{a: a, b: b, order: 4}]"},
		{"yaml", "name: [unterminated"},
	}
	for _, tt := range tests {
		if _, err := ParseScript([]byte(tt.src)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestLoadScripts(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "peroxide.yaml"), []byte(peroxide), 0644); err != nil {
		t.Fatal(err)
	}
	r := NewRegistry()
	names, err := r.LoadScripts(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(names) != 1 || names[0] != "Hydrogen Peroxide" {
		t.Errorf("names = %v", names)
	}
	if _, err := r.Get("hydrogen peroxide"); err != nil {
		t.Error(err)
	}
}

func TestSoup(t *testing.T) {
	b := physics.Bounds{Width: 800, Height: 600}
	w := dynamo.NewWorld()
	ids, err := Soup(w, b, 50, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 50 || w.NumBonds() != 0 {
		t.Fatalf("atoms = %d, bonds = %d", len(ids), w.NumBonds())
	}
	for _, a := range w.Atoms() {
		if a.Pos.X < 40 || a.Pos.X > 760 || a.Pos.Y < 40 || a.Pos.Y > 560 {
			t.Errorf("atom outside margin at %v", a.Pos)
		}
	}

	again := dynamo.NewWorld()
	Soup(again, b, 50, 7)
	for i, a := range again.Atoms() {
		if a.Element != w.Atoms()[i].Element || a.Pos != w.Atoms()[i].Pos {
			t.Fatal("same seed produced a different soup")
		}
	}
}
