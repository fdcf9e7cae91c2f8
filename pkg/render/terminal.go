package render

import (
	"io"
	"os"
	"strings"

	"github.com/opd-ai/go-harpoon/pkg/physics"
)

const clearScreen = "\033[H\033[2J"

// Glyphs used for each primitive kind.
const (
	strokeGlyph = '#'
	lineGlyph   = '*'
	fillGlyph   = 'o'
)

// TerminalRenderer provides a simple ASCII-based rendering for terminals.
// Drawing calls are recorded in world space and rasterised on Present.
type TerminalRenderer struct {
	*RecordingSurface

	out       io.Writer
	width     int
	height    int
	buffer    [][]rune
	scale     float64
	centerPos physics.Vector2D
}

// NewTerminalRenderer creates a new terminal renderer with the specified
// dimensions, writing frames to stdout.
func NewTerminalRenderer(width, height int, scale float64) *TerminalRenderer {
	return NewTerminalRendererWithWriter(os.Stdout, width, height, scale)
}

// NewTerminalRendererWithWriter creates a terminal renderer writing to w.
// scale is world units per character column.
func NewTerminalRendererWithWriter(w io.Writer, width, height int, scale float64) *TerminalRenderer {
	if scale <= 0 {
		scale = 1
	}
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}

	r := &TerminalRenderer{
		RecordingSurface: NewRecordingSurface(),
		out:              w,
		width:            width,
		height:           height,
		buffer:           buffer,
		scale:            scale,
	}
	r.blank()
	return r
}

// SetCenter sets the world position shown in the middle of the view.
func (r *TerminalRenderer) SetCenter(pos physics.Vector2D) {
	r.centerPos = pos
}

// worldToScreen converts world coordinates to screen coordinates. Character
// cells are about twice as tall as they are wide, so rows cover twice the
// distance of columns.
func (r *TerminalRenderer) worldToScreen(pos physics.Vector2D) (int, int) {
	screenX := int((pos.X-r.centerPos.X)/r.scale + float64(r.width)/2)
	screenY := int((pos.Y-r.centerPos.Y)/(2*r.scale) + float64(r.height)/2)
	return screenX, screenY
}

// Clear implements entity.Surface.
func (r *TerminalRenderer) Clear() {
	r.RecordingSurface.Clear()
	r.blank()
}

// Present rasterises the recorded frame and writes it in a single call.
func (r *TerminalRenderer) Present() {
	for _, p := range r.frame {
		r.rasterise(p)
	}
	r.RecordingSurface.Present()

	var sb strings.Builder
	border := "+" + strings.Repeat("-", r.width) + "+\n"
	sb.WriteString(clearScreen)
	sb.WriteString(border)
	for y := range r.buffer {
		sb.WriteByte('|')
		sb.WriteString(string(r.buffer[y]))
		sb.WriteString("|\n")
	}
	sb.WriteString(border)

	// Write errors are not recoverable mid-frame; the next frame retries.
	_, _ = io.WriteString(r.out, sb.String())
}

// Row returns the rasterised contents of screen row y.
func (r *TerminalRenderer) Row(y int) string {
	if y < 0 || y >= r.height {
		return ""
	}
	return string(r.buffer[y])
}

func (r *TerminalRenderer) blank() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = ' '
		}
	}
}

func (r *TerminalRenderer) rasterise(p Primitive) {
	switch p.Kind {
	case KindStroke:
		r.polyline(p.Points, p.Closed, strokeGlyph)
	case KindLine:
		r.polyline(p.Points, false, lineGlyph)
	case KindFill:
		r.plotWorld(centroid(p.Points), fillGlyph)
	}
}

func (r *TerminalRenderer) polyline(points []physics.Vector2D, closed bool, glyph rune) {
	for i := 1; i < len(points); i++ {
		r.segment(points[i-1], points[i], glyph)
	}
	if closed && len(points) > 2 {
		r.segment(points[len(points)-1], points[0], glyph)
	}
}

// segment plots a line between two world points with Bresenham's algorithm.
func (r *TerminalRenderer) segment(a, b physics.Vector2D, glyph rune) {
	x0, y0 := r.worldToScreen(a)
	x1, y1 := r.worldToScreen(b)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		r.plot(x0, y0, glyph)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (r *TerminalRenderer) plotWorld(pos physics.Vector2D, glyph rune) {
	x, y := r.worldToScreen(pos)
	r.plot(x, y, glyph)
}

// plot sets one cell if it is within bounds.
func (r *TerminalRenderer) plot(x, y int, glyph rune) {
	if x >= 0 && x < r.width && y >= 0 && y < r.height {
		r.buffer[y][x] = glyph
	}
}

func centroid(points []physics.Vector2D) physics.Vector2D {
	var sum physics.Vector2D
	if len(points) == 0 {
		return sum
	}
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(points)))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
