// pkg/entity/harpoon.go
package entity

import (
	"fmt"
	"math"

	"github.com/opd-ai/go-harpoon/pkg/event"
	"github.com/opd-ai/go-harpoon/pkg/input"
	"github.com/opd-ai/go-harpoon/pkg/physics"
)

// Harpoon is a single-shot launcher. Firing turns it into a flying
// Projectile; when the projectile hits something, a Tether joins the craft
// to whatever was hit. It is never reloaded.
type Harpoon struct {
	craft *Craft

	Mount   physics.Vector2D
	Angle   float64
	Actions []input.Action

	loaded     bool
	projectile *Projectile
	tether     *Tether
}

func newHarpoon(c *Craft, spec HarpoonSpec) *Harpoon {
	return &Harpoon{
		craft:   c,
		Mount:   spec.Mount,
		Angle:   spec.Angle,
		Actions: spec.Actions,
		loaded:  true,
	}
}

// Loaded reports whether the harpoon can still be fired.
func (h *Harpoon) Loaded() bool {
	return h.loaded
}

// Projectile returns the projectile in flight, if any.
func (h *Harpoon) Projectile() *Projectile {
	return h.projectile
}

// Tether returns the tether created by a hit, if any.
func (h *Harpoon) Tether() *Tether {
	return h.tether
}

// Update fires when a trigger action is held and the harpoon is loaded.
func (h *Harpoon) Update(deltaTime float64) {
	if h.loaded && h.craft.ctx.Held(h.Actions) {
		h.Fire()
	}
}

// Fire launches the projectile. It returns nil, doing nothing, when the
// harpoon is empty or the craft is destroyed.
func (h *Harpoon) Fire() *Projectile {
	c := h.craft
	if !h.loaded || c.destroyed || !c.body.InWorld() {
		return nil
	}
	ctx := c.ctx
	cfg := ctx.Config.Harpoon

	local := h.Mount.Add(physics.Vector2D{Y: -cfg.LaunchOffset}.Rotate(h.Angle))
	position := c.body.ToWorldFrame(local)
	launch := c.body.VectorToWorldFrame(physics.Vector2D{Y: -cfg.LaunchSpeed}.Rotate(h.Angle))
	velocity := c.body.Velocity().Add(launch)

	p, err := newProjectile(ctx, h, position, velocity, c.body.Angle()+h.Angle)
	if err != nil {
		logger, lctx := ctx.Log()
		logger.Error(lctx, "failed to launch harpoon", err, "entity_id", c.ID)
		return nil
	}

	h.loaded = false
	h.projectile = p
	ctx.Publish(event.NewCraftEvent(event.HarpoonFired, c, position.X, position.Y))
	return p
}

// attach joins the craft to target at worldPoint.
func (h *Harpoon) attach(target *physics.Body, worldPoint physics.Vector2D) {
	h.projectile = nil
	c := h.craft
	if c.destroyed || !c.body.InWorld() || !target.InWorld() {
		return
	}

	anchor := target.ToLocalFrame(worldPoint)
	t, err := NewTether(c.ctx, c.body, h.Mount, target, anchor)
	if err != nil {
		logger, lctx := c.ctx.Log()
		logger.Error(lctx, "failed to attach tether", err, "entity_id", c.ID)
		return
	}
	h.tether = t

	start, end := t.Endpoints()
	c.ctx.Publish(event.NewTetherEvent(c, target.Owner(), start.Distance(end)))
}

// Projectile is the harpoon head in flight. Its sensor shape detects the
// first body it touches without pushing it.
type Projectile struct {
	BaseEntity
	ctx     *Context
	harpoon *Harpoon
	body    *physics.Body
	radius  float64

	struck bool
	age    float64
}

func newProjectile(ctx *Context, h *Harpoon, position, velocity physics.Vector2D, angle float64) (*Projectile, error) {
	cfg := ctx.Config.Harpoon
	p := &Projectile{
		BaseEntity: BaseEntity{ID: GenerateID()},
		ctx:        ctx,
		harpoon:    h,
		radius:     cfg.ProjectileRadius,
	}

	var err error
	p.body, err = physics.NewBody(physics.BodyOptions{
		Mass:     cfg.ProjectileMass,
		Position: position,
		Velocity: velocity,
		Angle:    angle,
		Shapes:   []physics.Shape{physics.Circle{Radius: cfg.ProjectileRadius, Sensor: true}},
		Owner:    p,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: projectile body: %v", ErrInvalidConfig, err)
	}
	if err := ctx.World.AddBody(p.body); err != nil {
		return nil, err
	}
	ctx.World.OnContactBegin(p.body, p.onContact)
	ctx.Registry.Add(p)
	return p, nil
}

// Body returns the projectile's rigid body.
func (p *Projectile) Body() *physics.Body {
	return p.body
}

// Struck reports whether the projectile has hit something.
func (p *Projectile) Struck() bool {
	return p.struck
}

func (p *Projectile) onContact(c physics.Contact) {
	if p.struck || !p.body.InWorld() {
		return
	}
	if c.Other == p.harpoon.craft.body {
		return
	}
	if _, ok := c.Other.Owner().(*Projectile); ok {
		return
	}

	p.struck = true
	point := p.body.Position()
	if c.HasPoint {
		point = c.Point
	}
	p.Dispose()
	p.harpoon.attach(c.Other, point)
}

// Update retires a projectile that flew for too long without a hit. The
// harpoon stays empty.
func (p *Projectile) Update(deltaTime float64) {
	if p.struck {
		return
	}
	p.age += deltaTime
	ttl := p.ctx.Config.Harpoon.ProjectileTTL.Seconds()
	if ttl > 0 && p.age >= ttl {
		p.Dispose()
		if p.harpoon.projectile == p {
			p.harpoon.projectile = nil
		}
	}
}

// Render draws the projectile head.
func (p *Projectile) Render(s Surface) {
	if !p.body.InWorld() {
		return
	}
	pos := p.body.InterpolatedPosition()

	s.Save()
	s.SetFillColor(White)
	s.BeginPath()
	s.Arc(pos.X, pos.Y, p.radius, 0, 2*math.Pi)
	s.Fill()
	s.Restore()
}

// Dispose removes the projectile from the world and the registry.
func (p *Projectile) Dispose() {
	p.ctx.World.RemoveBody(p.body)
	p.ctx.Registry.Remove(p)
}

// Tether is a damped spring between anchors on two bodies.
type Tether struct {
	BaseEntity
	ctx    *Context
	spring *physics.Spring
}

// NewTether joins anchorA on a to anchorB on b. The rest length is the
// distance between the anchors at creation time.
func NewTether(ctx *Context, a *physics.Body, anchorA physics.Vector2D, b *physics.Body, anchorB physics.Vector2D) (*Tether, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	cfg := ctx.Config.Harpoon
	rest := a.ToWorldFrame(anchorA).Distance(b.ToWorldFrame(anchorB))

	spring, err := physics.NewSpring(physics.SpringOptions{
		A:          a,
		B:          b,
		AnchorA:    anchorA,
		AnchorB:    anchorB,
		RestLength: rest,
		Stiffness:  cfg.SpringStiffness,
		Damping:    cfg.SpringDamping,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: tether: %v", ErrInvalidConfig, err)
	}
	if err := ctx.World.AddSpring(spring); err != nil {
		return nil, err
	}

	t := &Tether{
		BaseEntity: BaseEntity{ID: GenerateID()},
		ctx:        ctx,
		spring:     spring,
	}
	ctx.Registry.Add(t)
	return t, nil
}

// Active reports whether the spring is still in the world.
func (t *Tether) Active() bool {
	return t.spring.Active()
}

// Spring returns the underlying constraint.
func (t *Tether) Spring() *physics.Spring {
	return t.spring
}

// Endpoints returns the current world positions of both anchors.
func (t *Tether) Endpoints() (physics.Vector2D, physics.Vector2D) {
	return t.spring.Endpoints()
}

// Update is a no-op; the physics world applies the spring force.
func (t *Tether) Update(deltaTime float64) {}

// Render draws a line between the anchors. A tether whose spring was
// removed draws nothing.
func (t *Tether) Render(s Surface) {
	if !t.spring.Active() {
		return
	}
	start, end := t.Endpoints()

	s.Save()
	s.SetStrokeColor(White)
	s.Line(start.X, start.Y, end.X, end.Y)
	s.Restore()
}

// Dispose removes the spring and the tether.
func (t *Tether) Dispose() {
	t.ctx.World.RemoveSpring(t.spring)
	t.ctx.Registry.Remove(t)
}
