package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/molsim/internal/chem"
)

func send(a *App, msgs ...tea.Msg) *App {
	for _, msg := range msgs {
		next, _ := a.Update(msg)
		a = next.(*App)
	}
	return a
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func TestApp_StartPreset(t *testing.T) {
	s := newTestSession()
	a := NewApp(s, Options{})
	if a.choices[0].name != "empty" {
		t.Fatalf("first choice = %q, want empty", a.choices[0].name)
	}
	if !strings.Contains(a.View(), "Water") {
		t.Error("menu should list presets")
	}

	// empty, soup, Benzene, Water
	a = send(a, runes("j"), runes("j"), runes("j"), enter)
	if a.state != stateConfig || a.selected.name != "Water" {
		t.Fatalf("state = %d, selected = %q", a.state, a.selected.name)
	}

	a = send(a, runes("l"))
	if a.params.Gravity != 0.1 {
		t.Errorf("gravity = %g, want 0.1", a.params.Gravity)
	}

	a = send(a, runes("s"))
	if a.state != stateSim {
		t.Fatal("s should start the simulation")
	}
	w := s.Engine().World()
	if w.NumAtoms() != 3 || w.NumBonds() != 2 {
		t.Errorf("world has %d atoms, %d bonds", w.NumAtoms(), w.NumBonds())
	}
	if s.Engine().Params().Gravity != 0.1 {
		t.Error("edited params should reach the engine")
	}
	if a.live.runName != "water" {
		t.Errorf("run name = %q", a.live.runName)
	}
}

func TestApp_EditParam(t *testing.T) {
	a := NewApp(newTestSession(), Options{})
	a = send(a, enter, runes("j"), enter)
	if !a.editing {
		t.Fatal("enter should start editing")
	}
	a.editBuf = ""
	a = send(a, runes("0"), runes("."), runes("5"), enter)
	if a.params.Friction != 0.5 {
		t.Errorf("friction = %g, want 0.5", a.params.Friction)
	}

	a = send(a, enter)
	a.editBuf = ""
	a = send(a, runes("2"), enter)
	if a.params.Friction != 0.5 || a.err == "" {
		t.Error("out of range friction should be rejected")
	}
}

func TestApp_ContinueKeepsWorld(t *testing.T) {
	s := newTestSession()
	if _, err := s.Spawn(100, 100, chem.Carbon); err != nil {
		t.Fatal(err)
	}
	a := NewApp(s, Options{})
	if a.choices[0].name != "continue" {
		t.Fatalf("first choice = %q, want continue", a.choices[0].name)
	}
	a = send(a, enter, runes("s"))
	if s.Engine().World().NumAtoms() != 1 {
		t.Error("continue should keep the restored world")
	}
}
