package sim

import "github.com/san-kum/molsim/internal/dynamo"

// AtomView is the render-facing copy of one atom.
type AtomView struct {
	ID          dynamo.AtomID `json:"id"`
	X           float64       `json:"x"`
	Y           float64       `json:"y"`
	VX          float64       `json:"vx"`
	VY          float64       `json:"vy"`
	Element     int           `json:"element"`
	Symbol      string        `json:"symbol"`
	Radius      float64       `json:"radius"`
	Color       string        `json:"color"`
	Charge      float64       `json:"charge"`
	Mass        float64       `json:"mass"`
	Selected    bool          `json:"selected,omitempty"`
	OverValency bool          `json:"overValency,omitempty"`
	Dragging    bool          `json:"dragging,omitempty"`
}

// BondView carries the endpoint positions so renderers need no lookup.
type BondView struct {
	ID    dynamo.BondID `json:"id"`
	A     dynamo.AtomID `json:"a"`
	B     dynamo.AtomID `json:"b"`
	X1    float64       `json:"x1"`
	Y1    float64       `json:"y1"`
	X2    float64       `json:"x2"`
	Y2    float64       `json:"y2"`
	Order int           `json:"order"`
	Rest  float64       `json:"rest"`
}

// Frame is an immutable snapshot of the world after a tick.
type Frame struct {
	Tick     uint64        `json:"tick"`
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	Atoms    []AtomView    `json:"atoms"`
	Bonds    []BondView    `json:"bonds"`
	Selected dynamo.AtomID `json:"selected,omitempty"`
	Paused   bool          `json:"paused"`
}

// Atom finds a view by id.
func (f *Frame) Atom(id dynamo.AtomID) (AtomView, bool) {
	for _, a := range f.Atoms {
		if a.ID == id {
			return a, true
		}
	}
	return AtomView{}, false
}

// OverValencyCount returns the number of flagged atoms.
func (f *Frame) OverValencyCount() int {
	n := 0
	for _, a := range f.Atoms {
		if a.OverValency {
			n++
		}
	}
	return n
}

func buildFrame(e *Engine) *Frame {
	w := e.world
	f := &Frame{
		Tick:     e.tick,
		Width:    e.bounds.Width,
		Height:   e.bounds.Height,
		Atoms:    make([]AtomView, 0, w.NumAtoms()),
		Bonds:    make([]BondView, 0, w.NumBonds()),
		Selected: e.selected,
		Paused:   e.paused,
	}
	for _, a := range w.Atoms() {
		v := a.Velocity()
		f.Atoms = append(f.Atoms, AtomView{
			ID:          a.ID,
			X:           a.Pos.X,
			Y:           a.Pos.Y,
			VX:          v.X,
			VY:          v.Y,
			Element:     a.Element,
			Symbol:      a.Symbol,
			Radius:      a.Radius,
			Color:       a.Color,
			Charge:      a.Charge,
			Mass:        a.Mass,
			Selected:    a.ID == e.selected,
			OverValency: e.report.OverValency[a.ID],
			Dragging:    a.Dragging,
		})
	}
	for _, b := range w.Bonds() {
		a, okA := w.Atom(b.A)
		c, okB := w.Atom(b.B)
		if !okA || !okB {
			continue
		}
		f.Bonds = append(f.Bonds, BondView{
			ID:    b.ID,
			A:     b.A,
			B:     b.B,
			X1:    a.Pos.X,
			Y1:    a.Pos.Y,
			X2:    c.Pos.X,
			Y2:    c.Pos.Y,
			Order: b.Order,
			Rest:  b.RestLength,
		})
	}
	return f
}
