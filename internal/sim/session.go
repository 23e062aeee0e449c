package sim

import (
	"github.com/san-kum/molsim/internal/analysis"
	"github.com/san-kum/molsim/internal/chem"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/logging"
)

// Session translates user gestures into engine mutations. It tracks the
// transient interaction state: the atom being dragged, the first half of a
// link gesture and the analysed selection.
type Session struct {
	engine *Engine
	log    logging.Logger

	dragging  dynamo.AtomID
	pending   dynamo.AtomID
	selection *analysis.Molecule

	onChange func()
}

func NewSession(e *Engine, log logging.Logger) *Session {
	if log == nil {
		log = logging.Discard
	}
	return &Session{engine: e, log: log}
}

// OnChange registers a callback run after every structural edit. The
// callback must not block; persistence hooks hand their work to another
// goroutine.
func (s *Session) OnChange(fn func()) { s.onChange = fn }

func (s *Session) Engine() *Engine { return s.engine }

func (s *Session) changed() {
	if s.selection != nil {
		s.selection = analysis.Analyze(s.engine.world, s.engine.selected)
	}
	if s.engine.paused {
		s.engine.Refresh()
	}
	if s.onChange != nil {
		s.onChange()
	}
}

// Spawn creates an atom at rest.
func (s *Session) Spawn(x, y float64, element int) (dynamo.AtomID, error) {
	id, err := s.engine.world.AddAtom(x, y, element)
	if err != nil {
		return "", err
	}
	s.log.Debugf("spawn %s element=%d at (%.1f, %.1f)", id, element, x, y)
	s.changed()
	return id, nil
}

// BeginDrag takes an atom out of the simulation until EndDrag.
func (s *Session) BeginDrag(id dynamo.AtomID) bool {
	a, ok := s.engine.world.Atom(id)
	if !ok {
		return false
	}
	s.EndDrag()
	a.Dragging = true
	a.Prev = a.Pos
	s.dragging = id
	return true
}

// UpdateDrag moves the dragged atom and zeroes its velocity.
func (s *Session) UpdateDrag(x, y float64) {
	a, ok := s.engine.world.Atom(s.dragging)
	if !ok {
		s.dragging = ""
		return
	}
	a.Pos = dynamo.Vec2{X: x, Y: y}
	a.Prev = a.Pos
	if s.engine.paused {
		s.engine.Refresh()
	}
}

// EndDrag releases the dragged atom, at rest.
func (s *Session) EndDrag() {
	if a, ok := s.engine.world.Atom(s.dragging); ok {
		a.Dragging = false
		a.Prev = a.Pos
		s.changed()
	}
	s.dragging = ""
}

func (s *Session) Dragging() dynamo.AtomID { return s.dragging }

// Pending returns the first atom of an unfinished link gesture.
func (s *Session) Pending() dynamo.AtomID { return s.pending }

// LinkPick is one half of the link gesture. The first pick remembers the
// atom; the second links it with the first and clears the gesture. Picking
// the same atom twice, or an atom that no longer exists, cancels.
func (s *Session) LinkPick(id dynamo.AtomID) dynamo.LinkResult {
	if !s.engine.world.HasAtom(id) {
		s.pending = ""
		return dynamo.LinkUnchanged
	}
	if s.pending == "" || !s.engine.world.HasAtom(s.pending) {
		s.pending = id
		return dynamo.LinkUnchanged
	}
	first := s.pending
	s.pending = ""
	if first == id {
		return dynamo.LinkUnchanged
	}

	res := s.engine.world.Link(first, id)
	s.log.Debugf("link %s-%s: %s", first, id, res)
	if res != dynamo.LinkUnchanged {
		s.changed()
	}
	return res
}

// Link edits the bond between a and b directly, for callers that name both
// atoms at once.
func (s *Session) Link(a, b dynamo.AtomID) dynamo.LinkResult {
	res := s.engine.world.Link(a, b)
	s.log.Debugf("link %s-%s: %s", a, b, res)
	if res != dynamo.LinkUnchanged {
		s.changed()
	}
	return res
}

// Unlink removes the bond between a and b whatever its order.
func (s *Session) Unlink(a, b dynamo.AtomID) bool {
	if !s.engine.world.RemoveBond(a, b) {
		return false
	}
	s.log.Debugf("unlink %s-%s", a, b)
	s.changed()
	return true
}

// CancelLink abandons a half-finished link gesture.
func (s *Session) CancelLink() { s.pending = "" }

// Delete removes an atom and its bonds.
func (s *Session) Delete(id dynamo.AtomID) int {
	if !s.engine.world.HasAtom(id) {
		return 0
	}
	n := s.engine.world.DeleteAtom(id)
	if s.dragging == id {
		s.dragging = ""
	}
	if s.pending == id {
		s.pending = ""
	}
	if s.engine.selected == id {
		s.engine.setSelected("")
		s.selection = nil
	}
	s.log.Debugf("delete %s (%d bonds)", id, n)
	s.changed()
	return n
}

// ClearAll empties the world.
func (s *Session) ClearAll() {
	s.engine.world.Clear()
	s.dragging = ""
	s.pending = ""
	s.selection = nil
	s.engine.setSelected("")
	s.log.Infof("cleared world")
	s.changed()
}

// Select analyses the molecule containing id. An unknown id clears the
// selection and returns nil.
func (s *Session) Select(id dynamo.AtomID) *analysis.Molecule {
	m := analysis.Analyze(s.engine.world, id)
	if m == nil {
		s.engine.setSelected("")
		s.selection = nil
		return nil
	}
	s.engine.setSelected(id)
	s.selection = m
	if s.engine.paused {
		s.engine.Refresh()
	}
	return m
}

// Selection returns the analysed selection, kept current across edits.
func (s *Session) Selection() *analysis.Molecule { return s.selection }

// CycleElement steps an atom's element type by delta through the table,
// wrapping at both ends. Bonds are kept.
func (s *Session) CycleElement(id dynamo.AtomID, delta int) bool {
	a, ok := s.engine.world.Atom(id)
	if !ok {
		return false
	}
	next := ((a.Element+delta)%chem.NumElements + chem.NumElements) % chem.NumElements
	if !s.engine.world.SetElement(id, next) {
		return false
	}
	s.changed()
	return true
}

// TogglePause flips the paused flag and returns the new value.
func (s *Session) TogglePause() bool {
	s.engine.SetPaused(!s.engine.paused)
	s.engine.Refresh()
	return s.engine.paused
}

// SetParams validates and installs new physics parameters.
func (s *Session) SetParams(p dynamo.Params) error {
	if err := s.engine.SetParams(p); err != nil {
		s.log.Warnf("rejected params: %v", err)
		return err
	}
	if s.onChange != nil {
		s.onChange()
	}
	return nil
}

// Mutate applies a bulk edit, such as placing a preset, and then runs the
// usual change bookkeeping.
func (s *Session) Mutate(fn func(w *dynamo.World)) {
	fn(s.engine.world)
	if s.pending != "" && !s.engine.world.HasAtom(s.pending) {
		s.pending = ""
	}
	if s.dragging != "" && !s.engine.world.HasAtom(s.dragging) {
		s.dragging = ""
	}
	if s.engine.selected != "" && !s.engine.world.HasAtom(s.engine.selected) {
		s.engine.setSelected("")
		s.selection = nil
	}
	s.changed()
}
