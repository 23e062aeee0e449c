package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/molsim/internal/chem"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/physics"
	"github.com/san-kum/molsim/internal/sim"
	"github.com/san-kum/molsim/internal/storage"
)

func newTestSession() *sim.Session {
	e := sim.New(nil, sim.Config{
		Bounds: physics.Bounds{Width: 800, Height: 600},
		Params: dynamo.DefaultParams(),
		Seed:   1,
	})
	return sim.NewSession(e, nil)
}

func keys(s string) []tea.KeyMsg {
	var out []tea.KeyMsg
	for _, r := range s {
		switch r {
		case ' ':
			out = append(out, tea.KeyMsg{Type: tea.KeySpace})
		default:
			out = append(out, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		}
	}
	return out
}

func press(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, k := range keys(s) {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func TestModel_SpawnAndLink(t *testing.T) {
	s := newTestSession()
	m := NewModel(s, Options{})
	w := s.Engine().World()

	// Spawn carbon at the centre, step right 60 units and spawn another.
	m = press(t, m, "a")
	m = press(t, m, "llllll")
	m = press(t, m, "a")
	if w.NumAtoms() != 2 {
		t.Fatalf("atoms = %d, want 2", w.NumAtoms())
	}

	// Link: pick the right atom, walk back, pick the left atom.
	m = press(t, m, "b")
	if s.Pending() == "" {
		t.Fatal("first pick should be pending")
	}
	m = press(t, m, "hhhhhh")
	m = press(t, m, "b")
	if w.NumBonds() != 1 {
		t.Fatalf("bonds = %d, want 1", w.NumBonds())
	}
	if !strings.Contains(m.status, "created") {
		t.Errorf("status = %q", m.status)
	}

	// Linking the same pair again upgrades to a double bond.
	m = press(t, m, "b")
	m = press(t, m, "llllll")
	m = press(t, m, "b")
	if got := w.Bonds()[0].Order; got != 2 {
		t.Errorf("order = %d, want 2", got)
	}
}

func TestModel_ElementAndDelete(t *testing.T) {
	s := newTestSession()
	m := NewModel(s, Options{})
	w := s.Engine().World()

	m = press(t, m, "4a")
	a := w.Atoms()[0]
	if a.Element != chem.Oxygen {
		t.Errorf("element = %d, want oxygen", a.Element)
	}

	m = press(t, m, "c")
	if w.Atoms()[0].Element != chem.Oxygen+1 {
		t.Error("c should advance the atom's element")
	}

	m = press(t, m, "x")
	if w.NumAtoms() != 0 {
		t.Error("x should delete the atom under the cursor")
	}

	m = press(t, m, "E")
	if m.element != chem.Oxygen-1 {
		t.Errorf("element = %d, want %d", m.element, chem.Oxygen-1)
	}
}

func TestModel_PauseStopsTicks(t *testing.T) {
	s := newTestSession()
	m := NewModel(s, Options{})
	e := s.Engine()

	start := time.Now()
	next, cmd := m.Update(TickMsg(start))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("tick should schedule the next tick")
	}
	next, _ = m.Update(TickMsg(start.Add(50 * time.Millisecond)))
	m = next.(Model)
	ran := e.Ticks()
	if ran == 0 {
		t.Fatal("expected ticks to run")
	}

	m = press(t, m, "a ")
	if !e.Paused() {
		t.Fatal("space should pause")
	}
	a := e.World().Atoms()[0]
	next, _ = m.Update(TickMsg(start.Add(100 * time.Millisecond)))
	m = next.(Model)
	if got := e.World().Atoms()[0].Pos; got != a.Pos {
		t.Errorf("paused atom moved from %v to %v", a.Pos, got)
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("view should show the paused state")
	}
}

func TestModel_Params(t *testing.T) {
	s := newTestSession()
	m := NewModel(s, Options{})
	e := s.Engine()

	m = press(t, m, "g")
	if e.Params().Gravity != gravityOn {
		t.Errorf("gravity = %g, want %g", e.Params().Gravity, gravityOn)
	}
	m = press(t, m, "v")
	if e.Params().Electrostatics {
		t.Error("v should toggle electrostatics off")
	}

	// gravity is the first tunable; stepping it below zero is rejected.
	m = press(t, m, "------")
	if e.Params().Gravity != 0 {
		t.Errorf("gravity = %g, want 0", e.Params().Gravity)
	}
	if m.status == "" {
		t.Error("rejected step should report an error")
	}
}

func TestModel_DragAndInspect(t *testing.T) {
	s := newTestSession()
	m := NewModel(s, Options{})
	w := s.Engine().World()

	m = press(t, m, "1a")
	id := w.Atoms()[0].ID
	m = press(t, m, "d")
	if s.Dragging() != id {
		t.Fatal("d should start a drag")
	}
	m = press(t, m, "jjj")
	if a, _ := w.Atom(id); a.Pos.Y != 330 {
		t.Errorf("dragged y = %g, want 330", a.Pos.Y)
	}
	m = press(t, m, "d")
	if s.Dragging() != "" {
		t.Error("second d should drop")
	}

	m = press(t, m, "i")
	if sel := s.Selection(); sel == nil || sel.Formula != "H" {
		t.Errorf("selection = %+v", sel)
	}
	if !strings.Contains(m.View(), "Formula") {
		t.Error("inspector not rendered")
	}
}

func TestModel_SaveRunAndPresets(t *testing.T) {
	dir := t.TempDir()
	store := storage.New(dir)
	s := newTestSession()
	m := NewModel(s, Options{Store: store, Seed: 3, RunName: "test"})

	m = press(t, m, "p")
	if s.Engine().World().NumAtoms() == 0 {
		t.Fatal("p should place a molecule")
	}
	m = press(t, m, "s")
	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Name != "test" {
		t.Fatalf("runs = %+v", runs)
	}
	if !strings.HasPrefix(m.status, "saved ") {
		t.Errorf("status = %q", m.status)
	}

	m = press(t, m, "X")
	m = press(t, m, "n")
	if got := s.Engine().World().NumAtoms(); got != soupSize {
		t.Errorf("soup atoms = %d, want %d", got, soupSize)
	}
}

func TestModel_Autosave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	as := storage.NewAutosaver(path, nil)
	s := newTestSession()
	m := NewModel(s, Options{Autosave: as})

	press(t, m, "a")
	as.Flush()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	w := dynamo.NewWorld()
	p := dynamo.DefaultParams()
	if !storage.Restore(w, &p, data) || w.NumAtoms() != 1 {
		t.Error("autosave should hold the spawned atom")
	}
}
