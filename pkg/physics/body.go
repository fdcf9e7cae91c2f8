// pkg/physics/body.go
package physics

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

// BodyOptions holds the construction parameters of a rigid body.
type BodyOptions struct {
	Mass            float64
	Damping         float64 // fraction of linear velocity lost per second, 0..1
	AngularDamping  float64 // fraction of angular velocity lost per second, 0..1
	Position        Vector2D
	Velocity        Vector2D
	Angle           float64
	AngularVelocity float64
	Shapes          []Shape
	// Owner is the simulation object that owns the body. It is returned
	// from Owner and handed to fault handlers.
	Owner any
}

// Body is a rigid body simulated by a World.
type Body struct {
	cpBody *cp.Body
	shapes []*cp.Shape
	specs  []Shape
	owner  any
	world  *World

	prevPosition Vector2D
	prevAngle    float64
	interpPos    Vector2D
	interpAngle  float64
}

// NewBody builds a body and its shapes. The body is not part of any world
// until World.AddBody is called.
func NewBody(opts BodyOptions) (*Body, error) {
	if !(opts.Mass > 0) || math.IsInf(opts.Mass, 0) {
		return nil, fmt.Errorf("body mass %v: %w", opts.Mass, ErrDegenerateShape)
	}
	if len(opts.Shapes) == 0 {
		return nil, fmt.Errorf("body without shapes: %w", ErrDegenerateShape)
	}
	if opts.Damping < 0 || opts.Damping > 1 || opts.AngularDamping < 0 || opts.AngularDamping > 1 {
		return nil, fmt.Errorf("damping must be within [0,1], got %v/%v", opts.Damping, opts.AngularDamping)
	}

	moment := 0.0
	for _, s := range opts.Shapes {
		moment += s.Moment(opts.Mass)
	}
	if !(moment > 0) {
		return nil, fmt.Errorf("body moment %v: %w", moment, ErrDegenerateShape)
	}

	b := &Body{
		cpBody: cp.NewBody(opts.Mass, moment),
		specs:  opts.Shapes,
		owner:  opts.Owner,
	}
	b.cpBody.UserData = b

	for _, spec := range opts.Shapes {
		shape, err := spec.build(b.cpBody)
		if err != nil {
			return nil, err
		}
		b.shapes = append(b.shapes, shape)
	}

	b.cpBody.SetPosition(toCP(opts.Position))
	b.cpBody.SetAngle(opts.Angle)
	b.cpBody.SetVelocityVector(toCP(opts.Velocity))
	b.cpBody.SetAngularVelocity(opts.AngularVelocity)

	if opts.Damping > 0 || opts.AngularDamping > 0 {
		linear, angular := 1-opts.Damping, 1-opts.AngularDamping
		b.cpBody.SetVelocityUpdateFunc(func(body *cp.Body, gravity cp.Vector, damping, dt float64) {
			cp.BodyUpdateVelocity(body, gravity, damping, dt)
			body.SetVelocityVector(body.Velocity().Mult(math.Pow(linear, dt)))
			body.SetAngularVelocity(body.AngularVelocity() * math.Pow(angular, dt))
		})
	}

	b.snapshotPose()
	b.interpPos, b.interpAngle = b.prevPosition, b.prevAngle
	return b, nil
}

// Owner returns the object passed as BodyOptions.Owner.
func (b *Body) Owner() any {
	return b.owner
}

// InWorld reports whether the body currently participates in a world.
func (b *Body) InWorld() bool {
	return b.world != nil
}

// Shapes returns the shape descriptors the body was built from.
func (b *Body) Shapes() []Shape {
	return b.specs
}

// Mass returns the body mass.
func (b *Body) Mass() float64 {
	return b.cpBody.Mass()
}

// Position returns the authoritative position from the last simulation step.
func (b *Body) Position() Vector2D {
	return fromCP(b.cpBody.Position())
}

// Angle returns the authoritative orientation in radians.
func (b *Body) Angle() float64 {
	return b.cpBody.Angle()
}

// Velocity returns the linear velocity.
func (b *Body) Velocity() Vector2D {
	return fromCP(b.cpBody.Velocity())
}

// SetVelocity overwrites the linear velocity.
func (b *Body) SetVelocity(v Vector2D) {
	b.cpBody.SetVelocityVector(toCP(v))
}

// AngularVelocity returns the angular velocity in radians per second.
func (b *Body) AngularVelocity() float64 {
	return b.cpBody.AngularVelocity()
}

// InterpolatedPosition is the render-time position between the last two steps.
func (b *Body) InterpolatedPosition() Vector2D {
	return b.interpPos
}

// InterpolatedAngle is the render-time orientation between the last two steps.
func (b *Body) InterpolatedAngle() float64 {
	return b.interpAngle
}

// ApplyLocalForce applies a force given in the body frame at a point given in
// the body frame. The force lasts for the next simulation step only.
func (b *Body) ApplyLocalForce(force, localPoint Vector2D) {
	b.cpBody.ApplyForceAtLocalPoint(toCP(force), toCP(localPoint))
}

// ToWorldFrame converts a point in the body frame to world coordinates.
func (b *Body) ToWorldFrame(local Vector2D) Vector2D {
	return fromCP(b.cpBody.LocalToWorld(toCP(local)))
}

// ToLocalFrame converts a world point to the body frame.
func (b *Body) ToLocalFrame(world Vector2D) Vector2D {
	return fromCP(b.cpBody.WorldToLocal(toCP(world)))
}

// VectorToWorldFrame rotates a body-frame direction into the world frame.
func (b *Body) VectorToWorldFrame(local Vector2D) Vector2D {
	return local.Rotate(b.Angle())
}

func (b *Body) snapshotPose() {
	b.prevPosition = b.Position()
	b.prevAngle = b.Angle()
}

func (b *Body) interpolate(alpha float64) {
	b.interpPos = b.prevPosition.Lerp(b.Position(), alpha)
	b.interpAngle = b.prevAngle + (b.Angle()-b.prevAngle)*alpha
}
