// pkg/render/recording.go
package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-harpoon/pkg/entity"
	"github.com/opd-ai/go-harpoon/pkg/physics"
)

// PrimitiveKind identifies what a recorded Primitive draws.
type PrimitiveKind int

const (
	// KindStroke is the outline of one sub-path.
	KindStroke PrimitiveKind = iota
	// KindFill is a filled polygon, from Fill or FillRect.
	KindFill
	// KindLine is a single segment from Line.
	KindLine
)

func (k PrimitiveKind) String() string {
	switch k {
	case KindStroke:
		return "stroke"
	case KindFill:
		return "fill"
	case KindLine:
		return "line"
	}
	return "unknown"
}

// Primitive is one drawing operation resolved to world coordinates.
type Primitive struct {
	Kind      PrimitiveKind
	Points    []physics.Vector2D
	Closed    bool
	Color     entity.Color
	LineWidth float64
}

// arcStep is the largest angle covered by one segment of a flattened arc.
const arcStep = math.Pi / 16

type style struct {
	fill      entity.Color
	stroke    entity.Color
	lineWidth float64
}

type surfaceState struct {
	transform mgl64.Mat3
	style     style
}

type subPath struct {
	points []physics.Vector2D
	closed bool
}

// RecordingSurface implements entity.Surface by resolving every call to
// world-space primitives. Hosts read the frame on Present and draw it with
// whatever backend they have.
type RecordingSurface struct {
	current surfaceState
	stack   []surfaceState
	path    []subPath

	frame     []Primitive
	frames    int
	onPresent func(frame []Primitive)
}

// NewRecordingSurface creates a surface with an identity transform and
// white fill and stroke.
func NewRecordingSurface() *RecordingSurface {
	return &RecordingSurface{
		current: surfaceState{
			transform: mgl64.Ident3(),
			style: style{
				fill:      entity.White,
				stroke:    entity.White,
				lineWidth: 1,
			},
		},
	}
}

// OnPresent registers fn to receive each finished frame. The slice is owned
// by the receiver; the surface starts a new one on the next Clear.
func (s *RecordingSurface) OnPresent(fn func(frame []Primitive)) {
	s.onPresent = fn
}

// Frame returns a copy of the primitives recorded since the last Clear.
func (s *RecordingSurface) Frame() []Primitive {
	out := make([]Primitive, len(s.frame))
	copy(out, s.frame)
	return out
}

// Frames returns how many frames have been presented.
func (s *RecordingSurface) Frames() int {
	return s.frames
}

// Count returns the number of recorded primitives of kind k.
func (s *RecordingSurface) Count(k PrimitiveKind) int {
	n := 0
	for _, p := range s.frame {
		if p.Kind == k {
			n++
		}
	}
	return n
}

// Clear starts a new frame. The transform and style stack is kept.
func (s *RecordingSurface) Clear() {
	s.frame = nil
	s.path = nil
}

// Present hands the frame to the OnPresent callback.
func (s *RecordingSurface) Present() {
	s.frames++
	if s.onPresent != nil {
		s.onPresent(s.frame)
	}
}

// Save pushes the transform and style.
func (s *RecordingSurface) Save() {
	s.stack = append(s.stack, s.current)
}

// Restore pops the transform and style. The current path is not affected.
func (s *RecordingSurface) Restore() {
	if len(s.stack) == 0 {
		return
	}
	s.current = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
}

// Depth returns the number of saved states.
func (s *RecordingSurface) Depth() int {
	return len(s.stack)
}

func (s *RecordingSurface) Translate(x, y float64) {
	s.current.transform = s.current.transform.Mul3(mgl64.Translate2D(x, y))
}

func (s *RecordingSurface) Rotate(angle float64) {
	s.current.transform = s.current.transform.Mul3(mgl64.HomogRotate2D(angle))
}

func (s *RecordingSurface) SetFillColor(c entity.Color)   { s.current.style.fill = c }
func (s *RecordingSurface) SetStrokeColor(c entity.Color) { s.current.style.stroke = c }

func (s *RecordingSurface) SetLineWidth(w float64) {
	if w > 0 {
		s.current.style.lineWidth = w
	}
}

// Apply maps a point from the current local frame to world space.
func (s *RecordingSurface) Apply(x, y float64) physics.Vector2D {
	v := s.current.transform.Mul3x1(mgl64.Vec3{x, y, 1})
	return physics.Vector2D{X: v[0], Y: v[1]}
}

func (s *RecordingSurface) BeginPath() {
	s.path = nil
}

func (s *RecordingSurface) MoveTo(x, y float64) {
	s.path = append(s.path, subPath{points: []physics.Vector2D{s.Apply(x, y)}})
}

// LineTo extends the current sub-path, starting one if there is none.
func (s *RecordingSurface) LineTo(x, y float64) {
	p := s.Apply(x, y)
	sp := s.openSubPath()
	if sp == nil {
		s.path = append(s.path, subPath{points: []physics.Vector2D{p}})
		return
	}
	sp.points = append(sp.points, p)
}

// Arc adds a flattened circular arc, joined to the current point by a
// straight segment.
func (s *RecordingSurface) Arc(x, y, radius, startAngle, endAngle float64) {
	sweep := endAngle - startAngle
	n := int(math.Ceil(math.Abs(sweep) / arcStep))
	if n < 1 {
		n = 1
	}

	points := make([]physics.Vector2D, 0, n+1)
	for i := 0; i <= n; i++ {
		a := startAngle + sweep*float64(i)/float64(n)
		points = append(points, s.Apply(x+radius*math.Cos(a), y+radius*math.Sin(a)))
	}

	sp := s.openSubPath()
	if sp == nil {
		s.path = append(s.path, subPath{points: points})
		return
	}
	sp.points = append(sp.points, points...)
}

func (s *RecordingSurface) ClosePath() {
	if len(s.path) > 0 {
		s.path[len(s.path)-1].closed = true
	}
}

// Stroke records the outline of every sub-path with at least two points.
func (s *RecordingSurface) Stroke() {
	for _, sp := range s.path {
		if len(sp.points) < 2 {
			continue
		}
		s.frame = append(s.frame, Primitive{
			Kind:      KindStroke,
			Points:    clonePoints(sp.points),
			Closed:    sp.closed,
			Color:     s.current.style.stroke,
			LineWidth: s.current.style.lineWidth,
		})
	}
}

// Fill records every sub-path with at least three points as a polygon.
func (s *RecordingSurface) Fill() {
	for _, sp := range s.path {
		if len(sp.points) < 3 {
			continue
		}
		s.frame = append(s.frame, Primitive{
			Kind:   KindFill,
			Points: clonePoints(sp.points),
			Closed: true,
			Color:  s.current.style.fill,
		})
	}
}

// FillRect records a filled rectangle without touching the current path.
// The corners are listed from (x, y) clockwise.
func (s *RecordingSurface) FillRect(x, y, w, h float64) {
	s.frame = append(s.frame, Primitive{
		Kind: KindFill,
		Points: []physics.Vector2D{
			s.Apply(x, y),
			s.Apply(x+w, y),
			s.Apply(x+w, y+h),
			s.Apply(x, y+h),
		},
		Closed: true,
		Color:  s.current.style.fill,
	})
}

// Line records one segment in the stroke style.
func (s *RecordingSurface) Line(x1, y1, x2, y2 float64) {
	s.frame = append(s.frame, Primitive{
		Kind:      KindLine,
		Points:    []physics.Vector2D{s.Apply(x1, y1), s.Apply(x2, y2)},
		Color:     s.current.style.stroke,
		LineWidth: s.current.style.lineWidth,
	})
}

func (s *RecordingSurface) openSubPath() *subPath {
	if len(s.path) == 0 {
		return nil
	}
	sp := &s.path[len(s.path)-1]
	if sp.closed {
		return nil
	}
	return sp
}

func clonePoints(points []physics.Vector2D) []physics.Vector2D {
	out := make([]physics.Vector2D, len(points))
	copy(out, points)
	return out
}
