package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/san-kum/molsim/internal/sim"
	"github.com/san-kum/molsim/internal/viz"
)

const (
	background  = "#0a0a0a"
	bondColor   = "#94a3b8"
	warnColor   = "#ef4444"
	selectColor = "#facc15"
	bondSpacing = 5.0
	symbolScale = 0.8
)

// FrameToSVG draws a frame at its native size: bonds as one, two or three
// parallel strokes, atoms as filled circles labelled with their symbol.
// Atoms over their valency get a red ring.
func FrameToSVG(f *sim.Frame) string {
	if f == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, f.Width, f.Height, f.Width, f.Height, background)

	fmt.Fprintf(&sb, `<g stroke="%s" stroke-width="3" stroke-linecap="round">`+"\n", bondColor)
	for _, b := range f.Bonds {
		writeBond(&sb, b)
	}
	sb.WriteString("</g>\n")

	sb.WriteString(`<g font-family="sans-serif" font-weight="bold" text-anchor="middle" dominant-baseline="central">` + "\n")
	for _, a := range f.Atoms {
		stroke := ""
		switch {
		case a.OverValency:
			stroke = fmt.Sprintf(` stroke="%s" stroke-width="2"`, warnColor)
		case a.Selected:
			stroke = fmt.Sprintf(` stroke="%s" stroke-width="2"`, selectColor)
		}
		fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"%s/>`+"\n",
			a.X, a.Y, a.Radius, html.EscapeString(a.Color), stroke)
		fmt.Fprintf(&sb, `<text x="%.2f" y="%.2f" font-size="%.1f" fill="#ffffff">%s</text>`+"\n",
			a.X, a.Y, a.Radius*symbolScale, html.EscapeString(a.Symbol))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func writeBond(sb *strings.Builder, b sim.BondView) {
	dx, dy := b.X2-b.X1, b.Y2-b.Y1
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	// unit normal
	nx, ny := -dy/length, dx/length

	for i := 0; i < b.Order; i++ {
		off := (float64(i) - float64(b.Order-1)/2) * bondSpacing
		fmt.Fprintf(sb, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`+"\n",
			b.X1+nx*off, b.Y1+ny*off, b.X2+nx*off, b.Y2+ny*off)
	}
}

// CanvasToSVG converts a braille canvas to SVG, one dot per set sub-pixel.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="#e2e8f0">
`, width, height, width, height, background)

	r := scale * 0.4
	canvas.EachDot(func(px, py int) {
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n",
			float64(px)*scale+scale/2, float64(py)*scale+scale/2, r)
	})

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG draws a time series as a polyline, scaled to fit with a 10%
// margin on each axis.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minY, maxY := values[0], values[0]
	for _, v := range values {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2
	stepX := float64(width) / float64(len(values)-1)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, html.EscapeString(strokeColor))

	for i, v := range values {
		x := float64(i) * stepX
		y := float64(height) - (v-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
