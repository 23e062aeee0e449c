package sim

import (
	"testing"

	"github.com/san-kum/molsim/internal/chem"
	"github.com/san-kum/molsim/internal/dynamo"
)

func newSession(t *testing.T) (*Session, *int) {
	t.Helper()
	s := NewSession(New(nil, testConfig()), nil)
	changes := 0
	s.OnChange(func() { changes++ })
	return s, &changes
}

func spawn(t *testing.T, s *Session, x, y float64, el int) dynamo.AtomID {
	t.Helper()
	id, err := s.Spawn(x, y, el)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	return id
}

func TestSession_SpawnUnknownElement(t *testing.T) {
	s, changes := newSession(t)
	if _, err := s.Spawn(0, 0, chem.NumElements); err == nil {
		t.Error("expected error for element outside the table")
	}
	if *changes != 0 {
		t.Errorf("changes = %d, want 0", *changes)
	}
}

func TestSession_LinkPick(t *testing.T) {
	s, changes := newSession(t)
	a := spawn(t, s, 100, 100, chem.Carbon)
	b := spawn(t, s, 150, 100, chem.Carbon)
	*changes = 0

	if res := s.LinkPick(a); res != dynamo.LinkUnchanged {
		t.Errorf("first pick = %v", res)
	}
	if s.Pending() != a {
		t.Errorf("pending = %q, want %q", s.Pending(), a)
	}
	if res := s.LinkPick(b); res != dynamo.LinkCreated {
		t.Errorf("second pick = %v, want created", res)
	}
	if s.Pending() != "" {
		t.Error("gesture should be complete")
	}
	if *changes != 1 {
		t.Errorf("changes = %d, want 1", *changes)
	}

	s.LinkPick(a)
	if res := s.LinkPick(a); res != dynamo.LinkUnchanged {
		t.Errorf("same atom twice = %v", res)
	}
	if s.Pending() != "" {
		t.Error("picking the same atom twice should cancel")
	}
}

func TestSession_Drag(t *testing.T) {
	s, _ := newSession(t)
	id := spawn(t, s, 100, 100, chem.Oxygen)

	if !s.BeginDrag(id) {
		t.Fatal("begin drag failed")
	}
	s.UpdateDrag(300, 200)
	s.Engine().Tick()

	a, _ := s.Engine().World().Atom(id)
	if a.Pos != (dynamo.Vec2{X: 300, Y: 200}) {
		t.Errorf("dragged atom at %v", a.Pos)
	}
	if a.Velocity() != (dynamo.Vec2{}) {
		t.Errorf("dragged atom velocity %v", a.Velocity())
	}

	s.EndDrag()
	a, _ = s.Engine().World().Atom(id)
	if a.Dragging || s.Dragging() != "" {
		t.Error("drag should be released")
	}
	if s.BeginDrag("missing") {
		t.Error("dragging an unknown atom should fail")
	}
}

func TestSession_SelectTracksEdits(t *testing.T) {
	s, _ := newSession(t)
	o := spawn(t, s, 100, 100, chem.Oxygen)
	h := spawn(t, s, 130, 100, chem.Hydrogen)

	m := s.Select(o)
	if m == nil || m.Formula != "O" {
		t.Fatalf("selection = %+v", m)
	}

	s.LinkPick(o)
	s.LinkPick(h)
	if got := s.Selection().Formula; got != "HO" {
		t.Errorf("formula after link = %s, want HO", got)
	}

	s.Delete(o)
	if s.Selection() != nil || s.Engine().Selected() != "" {
		t.Error("deleting the selected atom should clear the selection")
	}
	if s.Select("missing") != nil {
		t.Error("selecting an unknown atom should return nil")
	}
}

func TestSession_DeleteCascades(t *testing.T) {
	s, _ := newSession(t)
	c := spawn(t, s, 100, 100, chem.Carbon)
	for i := 0; i < 3; i++ {
		h := spawn(t, s, float64(60+40*i), 160, chem.Hydrogen)
		s.LinkPick(c)
		s.LinkPick(h)
	}

	if n := s.Delete(c); n != 3 {
		t.Errorf("removed %d bonds, want 3", n)
	}
	if s.Engine().World().NumBonds() != 0 {
		t.Error("bonds left behind")
	}
	if n := s.Delete(c); n != 0 {
		t.Errorf("second delete removed %d", n)
	}
}

func TestSession_CycleElementWraps(t *testing.T) {
	s, _ := newSession(t)
	id := spawn(t, s, 100, 100, chem.Hydrogen)

	if !s.CycleElement(id, -1) {
		t.Fatal("cycle failed")
	}
	a, _ := s.Engine().World().Atom(id)
	if a.Element != chem.NumElements-1 {
		t.Errorf("element = %d, want %d", a.Element, chem.NumElements-1)
	}

	s.CycleElement(id, 2)
	a, _ = s.Engine().World().Atom(id)
	if a.Element != chem.Carbon {
		t.Errorf("element = %d, want carbon", a.Element)
	}
}

func TestSession_ClearAllAndPause(t *testing.T) {
	s, _ := newSession(t)
	spawn(t, s, 100, 100, chem.Carbon)
	spawn(t, s, 200, 100, chem.Carbon)

	if !s.TogglePause() {
		t.Error("first toggle should pause")
	}
	s.ClearAll()
	if f := s.Engine().Frame(); len(f.Atoms) != 0 || !f.Paused {
		t.Errorf("frame after clear = %+v", f)
	}
	if s.TogglePause() {
		t.Error("second toggle should resume")
	}
}

func TestSession_SetParams(t *testing.T) {
	s, changes := newSession(t)
	p := dynamo.DefaultParams()
	p.Gravity = 1.5
	if err := s.SetParams(p); err != nil {
		t.Fatal(err)
	}
	if s.Engine().Params().Gravity != 1.5 || *changes != 1 {
		t.Errorf("params not applied")
	}

	p.Friction = 2
	if err := s.SetParams(p); err == nil {
		t.Error("expected validation error")
	}
}

func TestSession_Mutate(t *testing.T) {
	s, changes := newSession(t)
	id := spawn(t, s, 100, 100, chem.Carbon)
	s.Select(id)
	*changes = 0

	s.Mutate(func(w *dynamo.World) { w.Clear() })

	if s.Engine().Selected() != "" {
		t.Error("selection should be dropped with its atom")
	}
	if *changes != 1 {
		t.Errorf("changes = %d, want 1", *changes)
	}
}

func TestSession_Link(t *testing.T) {
	s, changes := newSession(t)
	a := spawn(t, s, 100, 100, chem.Oxygen)
	b := spawn(t, s, 150, 100, chem.Hydrogen)
	*changes = 0

	if got := s.Link(a, b); got != dynamo.LinkCreated {
		t.Fatalf("Link = %v, want created", got)
	}
	if got := s.Link(a, b); got != dynamo.LinkUnchanged {
		t.Errorf("hydrogen upgrade = %v, want unchanged", got)
	}
	if got := s.Link(a, a); got != dynamo.LinkUnchanged {
		t.Errorf("self link = %v, want unchanged", got)
	}
	if *changes != 1 {
		t.Errorf("changes = %d, want 1", *changes)
	}

	if !s.Unlink(b, a) {
		t.Error("Unlink should remove the bond")
	}
	if s.Unlink(a, b) {
		t.Error("Unlink of a missing bond should fail")
	}
	if s.Engine().World().NumBonds() != 0 || *changes != 2 {
		t.Errorf("bonds = %d changes = %d, want 0 and 2", s.Engine().World().NumBonds(), *changes)
	}
}
