// pkg/physics/spring.go
package physics

import (
	"fmt"

	"github.com/jakecoffman/cp"
)

// SpringOptions configures a damped spring between two anchored points.
type SpringOptions struct {
	A, B             *Body
	AnchorA, AnchorB Vector2D // in the local frame of A and B
	RestLength       float64
	Stiffness        float64
	Damping          float64
}

// Spring is a persistent damped spring constraint pulling two anchors together.
type Spring struct {
	constraint *cp.Constraint
	a, b       *Body
	anchorA    Vector2D
	anchorB    Vector2D
	world      *World
}

// NewSpring builds a spring. It takes effect once added to a World.
func NewSpring(opts SpringOptions) (*Spring, error) {
	if opts.A == nil || opts.B == nil {
		return nil, fmt.Errorf("spring requires two bodies")
	}
	if opts.A == opts.B {
		return nil, fmt.Errorf("spring cannot connect a body to itself")
	}
	if opts.Stiffness < 0 || opts.Damping < 0 || opts.RestLength < 0 {
		return nil, fmt.Errorf("spring parameters must be non-negative")
	}
	c := cp.NewDampedSpring(opts.A.cpBody, opts.B.cpBody,
		toCP(opts.AnchorA), toCP(opts.AnchorB),
		opts.RestLength, opts.Stiffness, opts.Damping)
	return &Spring{
		constraint: c,
		a:          opts.A,
		b:          opts.B,
		anchorA:    opts.AnchorA,
		anchorB:    opts.AnchorB,
	}, nil
}

// Bodies returns the two connected bodies.
func (s *Spring) Bodies() (*Body, *Body) {
	return s.a, s.b
}

// Anchors returns the local-frame anchors on A and B.
func (s *Spring) Anchors() (Vector2D, Vector2D) {
	return s.anchorA, s.anchorB
}

// Active reports whether the spring is currently part of a world.
func (s *Spring) Active() bool {
	return s.world != nil
}

// Endpoints returns the world-space positions of both anchors.
func (s *Spring) Endpoints() (Vector2D, Vector2D) {
	return s.a.ToWorldFrame(s.anchorA), s.b.ToWorldFrame(s.anchorB)
}
