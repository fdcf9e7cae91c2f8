// pkg/entity/obstacle.go
package entity

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/opd-ai/go-harpoon/pkg/config"
	"github.com/opd-ai/go-harpoon/pkg/physics"
)

// vertexJitter is the maximum relative radial displacement of a vertex.
const vertexJitter = 0.15

// ObstacleSpec describes a drifting obstacle.
type ObstacleSpec struct {
	Position        physics.Vector2D
	Velocity        physics.Vector2D
	AngularVelocity float64
	Radius          float64
	Vertices        int
	Mass            float64
}

// Obstacle is a passive polygonal body that drifts with its initial motion.
type Obstacle struct {
	BaseEntity
	ctx      *Context
	body     *physics.Body
	vertices []physics.Vector2D
	radius   float64
}

// GenerateVertices places n vertices evenly around a circle of the given
// radius, moving each one radially by up to 15% of the radius.
func GenerateVertices(rng *rand.Rand, radius float64, n int) ([]physics.Vector2D, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: obstacle radius %v", ErrInvalidConfig, radius)
	}
	if n < 3 {
		return nil, fmt.Errorf("%w: obstacle needs at least 3 vertices, got %d", ErrInvalidConfig, n)
	}

	vertices := make([]physics.Vector2D, n)
	for i := range vertices {
		angle := float64(i) * 2 * math.Pi / float64(n)
		r := radius * (1 + (rng.Float64()-0.5)*2*vertexJitter)
		vertices[i] = physics.FromAngle(angle, r)
	}
	return vertices, nil
}

// NewObstacle builds the obstacle body and registers it with the world and
// the registry.
func NewObstacle(ctx *Context, spec ObstacleSpec) (*Obstacle, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	vertices, err := GenerateVertices(ctx.Rand, spec.Radius, spec.Vertices)
	if err != nil {
		return nil, err
	}
	mass := spec.Mass
	if mass == 0 {
		mass = config.DefaultObstacleMass
	}

	o := &Obstacle{
		BaseEntity: BaseEntity{ID: GenerateID()},
		ctx:        ctx,
		vertices:   vertices,
		radius:     spec.Radius,
	}
	o.body, err = physics.NewBody(physics.BodyOptions{
		Mass:            mass,
		Position:        spec.Position,
		Velocity:        spec.Velocity,
		AngularVelocity: spec.AngularVelocity,
		Shapes:          []physics.Shape{physics.Polygon{Vertices: vertices}},
		Owner:           o,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: obstacle body: %v", ErrInvalidConfig, err)
	}
	if err := ctx.World.AddBody(o.body); err != nil {
		return nil, err
	}
	ctx.Registry.Add(o)
	return o, nil
}

// Body returns the obstacle's rigid body.
func (o *Obstacle) Body() *physics.Body {
	return o.body
}

// Vertices returns a copy of the outline in the body frame.
func (o *Obstacle) Vertices() []physics.Vector2D {
	out := make([]physics.Vector2D, len(o.vertices))
	copy(out, o.vertices)
	return out
}

// Update is a no-op; obstacles are moved by the physics world only.
func (o *Obstacle) Update(deltaTime float64) {}

// Render strokes the outline at the interpolated pose.
func (o *Obstacle) Render(s Surface) {
	if !o.body.InWorld() {
		return
	}
	pos := o.body.InterpolatedPosition()

	s.Save()
	s.Translate(pos.X, pos.Y)
	s.Rotate(o.body.InterpolatedAngle())

	s.BeginPath()
	for i, v := range o.vertices {
		if i == 0 {
			s.MoveTo(v.X, v.Y)
			continue
		}
		s.LineTo(v.X, v.Y)
	}
	s.ClosePath()
	s.Stroke()

	if o.ctx.Config.Debug {
		s.Save()
		s.SetFillColor(DebugFill)
		s.Fill()
		s.Restore()
		drawDebugCentre(s)
	}

	s.Restore()
}

// Dispose removes the obstacle from the world and the registry.
func (o *Obstacle) Dispose() {
	o.ctx.World.RemoveBody(o.body)
	o.ctx.Registry.Remove(o)
}

func drawDebugCentre(s Surface) {
	s.Save()
	s.SetFillColor(Red)
	s.FillRect(-1, -1, 2, 2)
	s.Restore()
}
