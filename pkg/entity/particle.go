// pkg/entity/particle.go
package entity

import (
	"math"

	"github.com/opd-ai/go-harpoon/pkg/physics"
)

// Particle is a short-lived visual effect that moves kinematically. It never
// enters the physics world and removes itself from the registry once its
// time to live runs out.
type Particle struct {
	BaseEntity
	ctx *Context

	Position        physics.Vector2D
	Velocity        physics.Vector2D
	Angle           float64
	AngularVelocity float64
	Size            float64
	Color           Color

	ttl        float64
	initialTTL float64
}

// NewParticle spawns a particle at position and registers it.
func NewParticle(ctx *Context, position, velocity physics.Vector2D) *Particle {
	rng := ctx.Rand
	channel := func() uint8 {
		return uint8(math.Ceil(160 + 95*rng.Float64()))
	}

	p := &Particle{
		BaseEntity:      BaseEntity{ID: GenerateID()},
		ctx:             ctx,
		Position:        position,
		Velocity:        velocity,
		AngularVelocity: 20*rng.Float64() - 10,
		Size:            ctx.Config.Particles.Size,
		ttl:             ctx.Config.Particles.TimeToLive,
		initialTTL:      ctx.Config.Particles.TimeToLive,
	}
	p.Color = Color{R: channel(), G: channel(), B: channel(), A: 0.1 + 0.3*rng.Float64()}

	ctx.Registry.Add(p)
	return p
}

// TimeToLive returns the remaining lifetime in seconds.
func (p *Particle) TimeToLive() float64 {
	return p.ttl
}

// Expired reports whether the lifetime has run out.
func (p *Particle) Expired() bool {
	return p.ttl <= 0
}

// Update counts the lifetime down and integrates the motion. An expired
// particle leaves the registry in the same call.
func (p *Particle) Update(deltaTime float64) {
	if deltaTime < 0 {
		deltaTime = 0
	}
	p.ttl -= deltaTime
	if p.Expired() {
		p.ctx.Registry.Remove(p)
		return
	}
	p.Position = p.Position.Add(p.Velocity.Scale(deltaTime))
	p.Angle += p.AngularVelocity * deltaTime
}

// RenderedSize is the edge length drawn for the current lifetime; it shrinks
// to half the initial size as the particle expires.
func (p *Particle) RenderedSize() float64 {
	fraction := 0.0
	if p.initialTTL > 0 {
		fraction = math.Max(p.ttl, 0) / p.initialTTL
	}
	return p.Size * (fraction*0.5 + 0.5)
}

// Render draws a rotated square centred on the particle.
func (p *Particle) Render(s Surface) {
	if p.Expired() {
		return
	}
	size := p.RenderedSize()

	s.Save()
	s.Translate(p.Position.X, p.Position.Y)
	s.Rotate(p.Angle)
	s.SetFillColor(p.Color)
	s.FillRect(-size/2, -size/2, size, size)
	s.Restore()
}
