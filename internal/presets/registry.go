package presets

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/san-kum/molsim/internal/dynamo"
)

// Preset is a named construction script centred on (cx, cy).
type Preset struct {
	Name    string
	Formula string
	Build   func(b Builder, cx, cy float64)
}

// Registry looks presets up by case-insensitive name.
type Registry struct {
	presets map[string]Preset
	order   []string
}

// NewRegistry returns a registry holding the built-in presets.
func NewRegistry() *Registry {
	r := &Registry{presets: make(map[string]Preset)}
	for _, p := range Builtins {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a preset.
func (r *Registry) Register(p Preset) {
	key := normalize(p.Name)
	if _, exists := r.presets[key]; !exists {
		r.order = append(r.order, key)
	}
	r.presets[key] = p
}

func (r *Registry) Get(name string) (Preset, error) {
	p, ok := r.presets[normalize(name)]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", dynamo.ErrUnknownPreset, name)
	}
	return p, nil
}

// Names lists preset names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	for i, key := range r.order {
		out[i] = r.presets[key].Name
	}
	return out
}

// SortedNames lists preset names alphabetically.
func (r *Registry) SortedNames() []string {
	out := r.Names()
	sort.Strings(out)
	return out
}

// Random picks a preset uniformly.
func (r *Registry) Random(rng *rand.Rand) Preset {
	return r.presets[r.order[rng.Intn(len(r.order))]]
}

// Place builds the named preset into w centred on (cx, cy) and returns the
// new atom ids.
func (r *Registry) Place(w *dynamo.World, name string, cx, cy float64) ([]dynamo.AtomID, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return Build(w, p, cx, cy)
}

// Build runs p against w.
func Build(w *dynamo.World, p Preset, cx, cy float64) ([]dynamo.AtomID, error) {
	b := NewWorldBuilder(w)
	p.Build(b, cx, cy)
	if b.Err != nil {
		return b.IDs, fmt.Errorf("preset %s: %w", p.Name, b.Err)
	}
	return b.IDs, nil
}

var defaultRegistry = NewRegistry()

// Place builds a built-in preset. See Registry.Place.
func Place(w *dynamo.World, name string, cx, cy float64) ([]dynamo.AtomID, error) {
	return defaultRegistry.Place(w, name, cx, cy)
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(name)), " "))
}
