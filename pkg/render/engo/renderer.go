// pkg/render/engo/renderer.go
package engo

import (
	"image/color"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-harpoon/pkg/entity"
	"github.com/opd-ai/go-harpoon/pkg/physics"
	"github.com/opd-ai/go-harpoon/pkg/render"
)

// renderAdder is the part of common.RenderSystem the surface needs.
type renderAdder interface {
	Add(basic *ecs.BasicEntity, rc *common.RenderComponent, space *common.SpaceComponent)
}

// primitive is one pooled render entity.
type primitive struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

// shape is the engo form of one recorded primitive.
type shape struct {
	drawable common.Drawable
	color    color.Color
	position engo.Point
	width    float32
	height   float32
	rotation float32 // degrees, about the top-left corner
}

// Surface implements entity.Surface on top of an engo RenderSystem. Each
// frame is recorded in world space and, on Present, copied onto a pool of
// render entities. Entries the frame does not need are hidden.
type Surface struct {
	*render.RecordingSurface

	system renderAdder
	pool   []*primitive
}

// NewSurface creates a Surface that adds its entities to system.
func NewSurface(system renderAdder) *Surface {
	s := &Surface{
		RecordingSurface: render.NewRecordingSurface(),
		system:           system,
	}
	s.OnPresent(s.sync)
	return s
}

// Visible returns how many pooled entities the last frame used.
func (s *Surface) Visible() int {
	n := 0
	for _, p := range s.pool {
		if !p.Hidden {
			n++
		}
	}
	return n
}

func (s *Surface) sync(frame []render.Primitive) {
	used := 0
	for _, p := range frame {
		for _, sh := range shapesFor(p) {
			s.place(used, sh)
			used++
		}
	}
	for i := used; i < len(s.pool); i++ {
		s.pool[i].Hidden = true
	}
}

func (s *Surface) place(i int, sh shape) {
	if i == len(s.pool) {
		p := &primitive{BasicEntity: ecs.NewBasic()}
		apply(p, sh)
		s.pool = append(s.pool, p)
		s.system.Add(&p.BasicEntity, &p.RenderComponent, &p.SpaceComponent)
		return
	}
	apply(s.pool[i], sh)
}

func apply(p *primitive, sh shape) {
	p.Drawable = sh.drawable
	p.Color = sh.color
	p.Hidden = false
	p.Scale = engo.Point{X: 1, Y: 1}
	p.Position = sh.position
	p.Width = sh.width
	p.Height = sh.height
	p.Rotation = sh.rotation
}

func shapesFor(p render.Primitive) []shape {
	c := toColor(p.Color)
	switch p.Kind {
	case render.KindLine:
		if sh, ok := segment(p.Points[0], p.Points[1], p.LineWidth, c); ok {
			return []shape{sh}
		}
	case render.KindStroke:
		var out []shape
		n := len(p.Points)
		last := n - 1
		if p.Closed {
			last = n
		}
		for i := 0; i < last; i++ {
			if sh, ok := segment(p.Points[i], p.Points[(i+1)%n], p.LineWidth, c); ok {
				out = append(out, sh)
			}
		}
		return out
	case render.KindFill:
		if sh, ok := fan(p.Points, c); ok {
			return []shape{sh}
		}
	}
	return nil
}

// segment draws a line as a thin rectangle rotated about its start point.
func segment(a, b physics.Vector2D, width float64, c color.Color) (shape, bool) {
	d := b.Sub(a)
	length := d.Length()
	if length == 0 {
		return shape{}, false
	}
	if width <= 0 {
		width = 1
	}
	return shape{
		drawable: common.Rectangle{},
		color:    c,
		position: engo.Point{X: float32(a.X), Y: float32(a.Y)},
		width:    float32(length),
		height:   float32(width),
		rotation: float32(d.Angle() * 180 / math.Pi),
	}, true
}

// fan triangulates a convex polygon from its first vertex. Engo scales
// triangle points by the entity size, so they are normalised to the
// bounding box.
func fan(points []physics.Vector2D, c color.Color) (shape, bool) {
	if len(points) < 3 {
		return shape{}, false
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	w, h := hi.X-lo.X, hi.Y-lo.Y
	if w == 0 || h == 0 {
		return shape{}, false
	}

	norm := func(p physics.Vector2D) engo.Point {
		return engo.Point{X: float32((p.X - lo.X) / w), Y: float32((p.Y - lo.Y) / h)}
	}
	tris := make([]engo.Point, 0, 3*(len(points)-2))
	for i := 1; i < len(points)-1; i++ {
		tris = append(tris, norm(points[0]), norm(points[i]), norm(points[i+1]))
	}

	return shape{
		drawable: common.ComplexTriangles{Points: tris},
		color:    c,
		position: engo.Point{X: float32(lo.X), Y: float32(lo.Y)},
		width:    float32(w),
		height:   float32(h),
	}, true
}

func toColor(c entity.Color) color.NRGBA {
	a := math.Max(0, math.Min(1, c.A))
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(a * 255))}
}

var _ entity.Surface = (*Surface)(nil)
