// pkg/entity/craft.go
package entity

import (
	"fmt"
	"math"

	"github.com/opd-ai/go-harpoon/pkg/event"
	"github.com/opd-ai/go-harpoon/pkg/input"
	"github.com/opd-ai/go-harpoon/pkg/physics"
)

// ThrusterSpec places a thruster on the craft hull.
type ThrusterSpec struct {
	Offset  physics.Vector2D
	Angle   float64
	Actions []input.Action
}

// HarpoonSpec places the harpoon launcher on the craft hull.
type HarpoonSpec struct {
	Mount   physics.Vector2D
	Angle   float64
	Actions []input.Action
}

// DefaultThrusterLayout returns the four corner thrusters: two at the front
// pushing backwards and two at the rear pushing forwards.
func DefaultThrusterLayout() []ThrusterSpec {
	return []ThrusterSpec{
		{Offset: physics.Vector2D{X: -18, Y: -12}, Angle: math.Pi, Actions: []input.Action{input.ActionThrustE}},
		{Offset: physics.Vector2D{X: 18, Y: -12}, Angle: math.Pi, Actions: []input.Action{input.ActionThrustI}},
		{Offset: physics.Vector2D{X: 18, Y: 12}, Angle: 0, Actions: []input.Action{input.ActionThrustJ}},
		{Offset: physics.Vector2D{X: -18, Y: 12}, Angle: 0, Actions: []input.Action{input.ActionThrustF}},
	}
}

// DefaultHarpoonMount returns the nose-mounted harpoon fired with space.
func DefaultHarpoonMount() HarpoonSpec {
	return HarpoonSpec{
		Mount:   physics.Vector2D{X: 0, Y: -18},
		Actions: []input.Action{input.ActionHarpoon},
	}
}

// hull is the outline drawn for the craft, in the body frame.
var hull = []physics.Vector2D{
	{X: 0, Y: -18}, {X: 21, Y: -9}, {X: 30, Y: 12},
	{X: 0, Y: 12}, {X: -30, Y: 12}, {X: -21, Y: -9},
}

// Craft is the player vessel. It moves as one circular rigid body, steered
// by its thrusters, and is destroyed for good by a violent impact.
type Craft struct {
	BaseEntity
	ctx *Context

	body      *physics.Body
	radius    float64
	thrusters []*Thruster
	harpoon   *Harpoon
	hook      physics.HookID

	destroyed          bool
	preContactVelocity physics.Vector2D
	lastPosition       physics.Vector2D
}

// NewCraft builds a craft at position with the default thruster and harpoon
// layout, and registers it with the world and the registry.
func NewCraft(ctx *Context, position physics.Vector2D) (*Craft, error) {
	return NewCraftWithLayout(ctx, position, DefaultThrusterLayout(), DefaultHarpoonMount())
}

// NewCraftWithLayout builds a craft with custom thruster and harpoon placement.
func NewCraftWithLayout(ctx *Context, position physics.Vector2D, thrusters []ThrusterSpec, harpoon HarpoonSpec) (*Craft, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	cfg := ctx.Config.Craft
	if !(cfg.Radius > 0) || !(cfg.Mass > 0) {
		return nil, fmt.Errorf("%w: craft radius %v, mass %v", ErrInvalidConfig, cfg.Radius, cfg.Mass)
	}

	c := &Craft{
		BaseEntity:   BaseEntity{ID: GenerateID()},
		ctx:          ctx,
		radius:       cfg.Radius,
		lastPosition: position,
	}

	var err error
	c.body, err = physics.NewBody(physics.BodyOptions{
		Mass:     cfg.Mass,
		Position: position,
		Shapes:   []physics.Shape{physics.Circle{Radius: cfg.Radius}},
		Owner:    c,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: craft body: %v", ErrInvalidConfig, err)
	}

	for _, spec := range thrusters {
		c.thrusters = append(c.thrusters, newThruster(c, spec))
	}
	c.harpoon = newHarpoon(c, harpoon)

	if err := ctx.World.AddBody(c.body); err != nil {
		return nil, err
	}
	ctx.World.OnContactBegin(c.body, func(contact physics.Contact) {
		if !contact.Sensor {
			c.BeginContact(contact.Velocity)
		}
	})
	ctx.World.OnContactEnd(c.body, func(contact physics.Contact) {
		if !contact.Sensor {
			c.EndContact()
		}
	})
	c.hook = ctx.World.OnSubStep(c, c.applyThrust)

	ctx.Registry.Add(c)
	return c, nil
}

// Body returns the craft's rigid body.
func (c *Craft) Body() *physics.Body {
	return c.body
}

// Thrusters returns the thrusters in layout order.
func (c *Craft) Thrusters() []*Thruster {
	return c.thrusters
}

// Harpoon returns the craft's launcher.
func (c *Craft) Harpoon() *Harpoon {
	return c.harpoon
}

// Destroyed reports whether the craft has exploded.
func (c *Craft) Destroyed() bool {
	return c.destroyed
}

// Position returns the body position, or where the craft exploded.
func (c *Craft) Position() physics.Vector2D {
	if c.destroyed {
		return c.lastPosition
	}
	return c.body.Position()
}

// Update samples input for every thruster, then checks the harpoon trigger.
func (c *Craft) Update(deltaTime float64) {
	for _, t := range c.thrusters {
		t.Update(deltaTime)
	}
	c.harpoon.Update(deltaTime)
}

func (c *Craft) applyThrust(dt float64) {
	if c.destroyed {
		return
	}
	for _, t := range c.thrusters {
		t.ApplyThrust(dt)
	}
}

// BeginContact records the velocity the craft had when a contact started.
func (c *Craft) BeginContact(velocity physics.Vector2D) {
	if c.destroyed {
		return
	}
	c.preContactVelocity = velocity
}

// EndContact compares the current velocity with the one recorded at the
// start of the contact and explodes the craft if the change is too large.
func (c *Craft) EndContact() {
	if c.destroyed {
		return
	}
	magnitude := c.body.Velocity().Sub(c.preContactVelocity).Length()
	if magnitude > c.ctx.Config.Craft.ImpactThreshold {
		logger, lctx := c.ctx.Log()
		logger.Info(lctx, "craft impact exceeded threshold",
			"entity_id", c.ID,
			"delta_v", magnitude,
			"threshold", c.ctx.Config.Craft.ImpactThreshold)
		c.Explode()
	}
}

// Explode destroys the craft: it bursts into particles, its body and any
// tether attached to it leave the world, and it stops rendering. Calling
// Explode again has no effect.
func (c *Craft) Explode() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.lastPosition = c.body.Position()

	cfg := c.ctx.Config.Craft
	rng := c.ctx.Rand
	for i := 0; i < cfg.ExplosionParticles; i++ {
		speed := cfg.ExplosionSpeedMin + rng.Float64()*(cfg.ExplosionSpeedMax-cfg.ExplosionSpeedMin)
		direction := rng.Float64() * 2 * math.Pi
		NewParticle(c.ctx, c.lastPosition, physics.FromAngle(direction, speed))
	}

	c.ctx.World.RemoveSubStep(c.hook)
	c.ctx.World.RemoveBody(c.body)
	for _, t := range c.thrusters {
		t.firing = false
	}

	c.ctx.Publish(event.NewCraftEvent(event.CraftDestroyed, c, c.lastPosition.X, c.lastPosition.Y))
}

// Render draws the hull and thrusters at the interpolated pose. A destroyed
// craft draws nothing.
func (c *Craft) Render(s Surface) {
	if c.destroyed {
		return
	}
	pos := c.body.InterpolatedPosition()

	s.Save()
	s.Translate(pos.X, pos.Y)
	s.Rotate(c.body.InterpolatedAngle())

	s.BeginPath()
	s.MoveTo(hull[0].X, hull[0].Y)
	for _, v := range hull[1:] {
		s.LineTo(v.X, v.Y)
	}
	s.ClosePath()
	s.Stroke()

	if c.ctx.Config.Debug {
		drawDebugCentre(s)
		s.Save()
		s.SetFillColor(DebugFill)
		s.BeginPath()
		s.Arc(0, 0, c.radius, 0, 2*math.Pi)
		s.Fill()
		s.Restore()
	}

	for _, t := range c.thrusters {
		t.Render(s)
	}

	s.Restore()
}

// Dispose takes the craft out of the simulation without an explosion.
func (c *Craft) Dispose() {
	c.destroyed = true
	c.ctx.World.RemoveSubStep(c.hook)
	c.ctx.World.RemoveBody(c.body)
	c.ctx.Registry.Remove(c)
}
