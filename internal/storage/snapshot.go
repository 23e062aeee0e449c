package storage

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/san-kum/molsim/internal/chem"
	"github.com/san-kum/molsim/internal/dynamo"
)

// SnapshotAtom is the stored form of an atom. Velocity is stored explicitly
// so a restored atom keeps moving.
type SnapshotAtom struct {
	ID      dynamo.AtomID `json:"id"`
	X       float64       `json:"x"`
	Y       float64       `json:"y"`
	TypeIdx int           `json:"typeIdx"`
	VX      float64       `json:"vx"`
	VY      float64       `json:"vy"`
}

type SnapshotBond struct {
	ID    dynamo.BondID `json:"id"`
	A     dynamo.AtomID `json:"aid"`
	B     dynamo.AtomID `json:"bid"`
	Order int           `json:"t"`
}

// Snapshot is the persisted form of a world and its physics parameters.
type Snapshot struct {
	Atoms  []SnapshotAtom  `json:"atoms"`
	Bonds  []SnapshotBond  `json:"bonds"`
	Params json.RawMessage `json:"params,omitempty"`
}

// round2 rounds to two decimal places.
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Capture copies w and p into a snapshot.
func Capture(w *dynamo.World, p dynamo.Params) (*Snapshot, error) {
	params, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	s := &Snapshot{
		Atoms:  make([]SnapshotAtom, 0, w.NumAtoms()),
		Bonds:  make([]SnapshotBond, 0, w.NumBonds()),
		Params: params,
	}
	for _, a := range w.Atoms() {
		v := a.Velocity()
		s.Atoms = append(s.Atoms, SnapshotAtom{
			ID:      a.ID,
			X:       round2(a.Pos.X),
			Y:       round2(a.Pos.Y),
			TypeIdx: a.Element,
			VX:      round2(v.X),
			VY:      round2(v.Y),
		})
	}
	for _, b := range w.Bonds() {
		s.Bonds = append(s.Bonds, SnapshotBond{ID: b.ID, A: b.A, B: b.B, Order: b.Order})
	}
	return s, nil
}

// Encode serialises w and p as JSON.
func Encode(w *dynamo.World, p dynamo.Params) ([]byte, error) {
	s, err := Capture(w, p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// Decode parses a snapshot and checks that every atom is usable. Bond
// problems are not errors; they are filtered when the snapshot is applied.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", dynamo.ErrBadSnapshot)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrBadSnapshot, err)
	}
	if s.Atoms == nil {
		return nil, fmt.Errorf("%w: missing atoms", dynamo.ErrBadSnapshot)
	}
	for i, a := range s.Atoms {
		if a.ID == "" {
			return nil, fmt.Errorf("%w: atom %d has no id", dynamo.ErrBadSnapshot, i)
		}
		if _, ok := chem.Lookup(a.TypeIdx); !ok {
			return nil, fmt.Errorf("%w: atom %s: %w", dynamo.ErrBadSnapshot, a.ID, dynamo.ErrUnknownElement)
		}
		pos := dynamo.Vec2{X: a.X, Y: a.Y}
		vel := dynamo.Vec2{X: a.VX, Y: a.VY}
		if !pos.IsValid() || !vel.IsValid() {
			return nil, fmt.Errorf("%w: atom %s has a non-finite position", dynamo.ErrBadSnapshot, a.ID)
		}
	}
	return &s, nil
}

// MergeParams overlays the parameters stored in the snapshot onto base.
// Fields absent from the snapshot keep base's value.
func (s *Snapshot) MergeParams(base dynamo.Params) (dynamo.Params, error) {
	if len(s.Params) == 0 || string(s.Params) == "null" {
		return base, nil
	}
	merged := base
	if err := json.Unmarshal(s.Params, &merged); err != nil {
		return base, fmt.Errorf("%w: params: %v", dynamo.ErrBadSnapshot, err)
	}
	if err := merged.Validate(); err != nil {
		return base, fmt.Errorf("%w: %w", dynamo.ErrBadSnapshot, err)
	}
	return merged, nil
}

// Build materialises the snapshot into a fresh world. Duplicate atom ids keep
// the first occurrence. Atoms the world rejects are dropped, as are bonds
// with missing endpoints, self bonds, duplicate pairs or orders outside
// 1..3; the number of atoms and bonds dropped is returned. A snapshot from
// Decode has no rejectable atoms.
func (s *Snapshot) Build() (*dynamo.World, int) {
	w := dynamo.NewWorld()
	dropped := 0
	for _, a := range s.Atoms {
		if w.HasAtom(a.ID) {
			continue
		}
		pos := dynamo.Vec2{X: a.X, Y: a.Y}
		prev := pos.Sub(dynamo.Vec2{X: a.VX, Y: a.VY})
		if _, err := w.InsertAtom(a.ID, pos, prev, a.TypeIdx); err != nil {
			dropped++
		}
	}
	for _, b := range s.Bonds {
		if _, ok := w.InsertBond(b.ID, b.A, b.B, b.Order); !ok {
			dropped++
		}
	}
	return w, dropped
}

// Restore replaces the contents of w and *params with the snapshot in data.
// It returns false and leaves both untouched if data cannot be decoded.
func Restore(w *dynamo.World, params *dynamo.Params, data []byte) bool {
	_, err := RestoreDetailed(w, params, data)
	return err == nil
}

// RestoreDetailed is Restore with the reason for failure and the number of
// atoms and bonds dropped.
func RestoreDetailed(w *dynamo.World, params *dynamo.Params, data []byte) (int, error) {
	s, err := Decode(data)
	if err != nil {
		return 0, err
	}
	merged, err := s.MergeParams(*params)
	if err != nil {
		return 0, err
	}
	built, dropped := s.Build()
	w.Replace(built)
	*params = merged
	return dropped, nil
}
