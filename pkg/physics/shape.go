// pkg/physics/shape.go
package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

// ErrDegenerateShape is returned when a shape descriptor cannot produce a
// usable collision shape.
var ErrDegenerateShape = errors.New("degenerate shape")

// Shape describes collision geometry attached to a body, in the body's local frame.
type Shape interface {
	// Moment returns the moment of inertia of the shape for the given mass.
	Moment(mass float64) float64
	build(body *cp.Body) (*cp.Shape, error)
}

// Circle is a circular shape centred on Offset.
type Circle struct {
	Radius float64
	Offset Vector2D
	// Sensor shapes report contacts but never produce a collision response.
	Sensor bool
}

// Moment implements Shape.
func (c Circle) Moment(mass float64) float64 {
	return cp.MomentForCircle(mass, 0, c.Radius, toCP(c.Offset))
}

func (c Circle) build(body *cp.Body) (*cp.Shape, error) {
	if !(c.Radius > 0) || math.IsInf(c.Radius, 0) {
		return nil, fmt.Errorf("circle radius %v: %w", c.Radius, ErrDegenerateShape)
	}
	shape := cp.NewCircle(body, c.Radius, toCP(c.Offset))
	shape.SetSensor(c.Sensor)
	shape.SetFriction(0)
	return shape, nil
}

// Polygon is a convex polygon given by its vertices in order. Non-convex
// input is reduced to its convex hull by the physics engine; Vertices are
// kept as given for drawing.
type Polygon struct {
	Vertices []Vector2D
	Sensor   bool
}

// Moment implements Shape.
func (p Polygon) Moment(mass float64) float64 {
	verts := p.cpVertices()
	if len(verts) < 3 {
		return 0
	}
	return math.Abs(cp.MomentForPoly(mass, len(verts), verts, cp.Vector{}, 0))
}

func (p Polygon) build(body *cp.Body) (*cp.Shape, error) {
	if len(p.Vertices) < 3 {
		return nil, fmt.Errorf("polygon with %d vertices: %w", len(p.Vertices), ErrDegenerateShape)
	}
	for i, v := range p.Vertices {
		if !v.IsFinite() {
			return nil, fmt.Errorf("polygon vertex %d is not finite: %w", i, ErrDegenerateShape)
		}
	}
	verts := p.cpVertices()
	if math.Abs(cp.AreaForPoly(len(verts), verts, 0)) == 0 {
		return nil, fmt.Errorf("polygon has zero area: %w", ErrDegenerateShape)
	}
	shape := cp.NewPolyShape(body, len(verts), verts, cp.NewTransformIdentity(), 0)
	shape.SetSensor(p.Sensor)
	shape.SetFriction(0)
	return shape, nil
}

func (p Polygon) cpVertices() []cp.Vector {
	verts := make([]cp.Vector, len(p.Vertices))
	for i, v := range p.Vertices {
		verts[i] = toCP(v)
	}
	return verts
}
