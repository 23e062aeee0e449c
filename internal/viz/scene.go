package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/sim"
)

// Scene maps a frame's world coordinates onto a braille canvas and paints
// element symbols over it.
type Scene struct {
	canvas *Canvas
	labels map[cell]label
}

type cell struct{ col, row int }

type label struct {
	r     rune
	style lipgloss.Style
}

func NewScene(cols, rows int) *Scene {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &Scene{canvas: NewCanvas(cols, rows), labels: make(map[cell]label)}
}

func (s *Scene) Canvas() *Canvas { return s.canvas }

// Resize replaces the canvas when the cell size changes.
func (s *Scene) Resize(cols, rows int) {
	if cols < 1 || rows < 1 || (cols == s.canvas.Width && rows == s.canvas.Height) {
		return
	}
	s.canvas = NewCanvas(cols, rows)
}

func (s *Scene) scale(f *sim.Frame) (float64, float64) {
	if f.Width <= 0 || f.Height <= 0 {
		return 1, 1
	}
	return float64(s.canvas.Width*2) / f.Width, float64(s.canvas.Height*4) / f.Height
}

// Dot maps a world position to canvas sub-pixels.
func (s *Scene) Dot(f *sim.Frame, x, y float64) (int, int) {
	sx, sy := s.scale(f)
	return int(math.Floor(x * sx)), int(math.Floor(y * sy))
}

// Cell maps a world position to the character cell that contains it.
func (s *Scene) Cell(f *sim.Frame, x, y float64) (int, int) {
	px, py := s.Dot(f, x, y)
	return px / 2, py / 4
}

// CellSize is the world extent of one character cell.
func (s *Scene) CellSize(f *sim.Frame) (float64, float64) {
	sx, sy := s.scale(f)
	return 2 / sx, 4 / sy
}

// Draw rasterises bonds and atom outlines.
func (s *Scene) Draw(f *sim.Frame) {
	s.canvas.Clear()
	if f == nil {
		return
	}
	sx, _ := s.scale(f)
	for _, b := range f.Bonds {
		x0, y0 := s.Dot(f, b.X1, b.Y1)
		x1, y1 := s.Dot(f, b.X2, b.Y2)
		for _, off := range bondOffsets(b.Order) {
			ox, oy := perpendicular(x1-x0, y1-y0, off)
			s.canvas.DrawLine(x0+ox, y0+oy, x1+ox, y1+oy)
		}
	}
	for _, a := range f.Atoms {
		cx, cy := s.Dot(f, a.X, a.Y)
		r := int(math.Round(a.Radius * sx * 0.5))
		s.canvas.DrawCircle(cx, cy, r)
	}
}

// bondOffsets lists the perpendicular offsets, in dots, of the strokes for
// a bond of the given order.
func bondOffsets(order int) []float64 {
	switch order {
	case 2:
		return []float64{-1, 1}
	case 3:
		return []float64{-2, 0, 2}
	default:
		return []float64{0}
	}
}

func perpendicular(dx, dy int, off float64) (int, int) {
	if off == 0 {
		return 0, 0
	}
	l := math.Hypot(float64(dx), float64(dy))
	if l == 0 {
		return 0, 0
	}
	return int(math.Round(-float64(dy) / l * off)), int(math.Round(float64(dx) / l * off))
}

// View is what Render needs beyond the frame itself.
type View struct {
	Theme   Theme
	Cursor  dynamo.Vec2
	Hover   dynamo.AtomID
	Pending dynamo.AtomID
}

// Render draws f and returns the styled text block.
func (s *Scene) Render(f *sim.Frame, v View) string {
	s.Draw(f)
	clear(s.labels)
	if f != nil {
		s.placeLabels(f, v)
	}

	bond := lipgloss.NewStyle().Foreground(v.Theme.Bond)
	var b strings.Builder
	var run []rune
	flush := func() {
		if len(run) > 0 {
			b.WriteString(bond.Render(string(run)))
			run = run[:0]
		}
	}
	for row, line := range s.canvas.Grid {
		for col, r := range line {
			if l, ok := s.labels[cell{col, row}]; ok {
				flush()
				b.WriteString(l.style.Render(string(l.r)))
				continue
			}
			run = append(run, r)
		}
		flush()
		if row < len(s.canvas.Grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (s *Scene) placeLabels(f *sim.Frame, v View) {
	for _, a := range f.Atoms {
		st := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(a.Color))
		switch {
		case a.OverValency:
			st = st.Background(v.Theme.Error)
		case a.ID == v.Pending:
			st = st.Reverse(true)
		case a.Selected:
			st = st.Underline(true)
		}
		if a.ID == v.Hover {
			st = st.Background(v.Theme.Cursor).Foreground(v.Theme.Background)
		}
		col, row := s.Cell(f, a.X, a.Y)
		for i, r := range a.Symbol {
			s.put(col+i, row, label{r: r, style: st})
		}
	}

	col, row := s.Cell(f, v.Cursor.X, v.Cursor.Y)
	if _, taken := s.labels[cell{col, row}]; !taken {
		s.put(col, row, label{r: '+', style: lipgloss.NewStyle().Bold(true).Foreground(v.Theme.Cursor)})
	}
}

func (s *Scene) put(col, row int, l label) {
	if col < 0 || row < 0 || col >= s.canvas.Width || row >= s.canvas.Height {
		return
	}
	s.labels[cell{col, row}] = l
}
