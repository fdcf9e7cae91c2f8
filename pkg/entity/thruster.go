// pkg/entity/thruster.go
package entity

import (
	"math"

	"github.com/opd-ai/go-harpoon/pkg/input"
	"github.com/opd-ai/go-harpoon/pkg/physics"
)

// Thruster pushes its craft while any of its actions is held. The force is
// applied once per physics step, along with one exhaust particle, so the
// effect does not depend on the frame rate.
type Thruster struct {
	BaseEntity
	craft *Craft

	Offset  physics.Vector2D
	Angle   float64
	Actions []input.Action

	firing bool
}

func newThruster(c *Craft, spec ThrusterSpec) *Thruster {
	return &Thruster{
		BaseEntity: BaseEntity{ID: GenerateID()},
		craft:      c,
		Offset:     spec.Offset,
		Angle:      spec.Angle,
		Actions:    spec.Actions,
	}
}

// Firing reports the state sampled by the last Update.
func (t *Thruster) Firing() bool {
	return t.firing
}

// Update samples the input snapshot.
func (t *Thruster) Update(deltaTime float64) {
	t.firing = !t.craft.destroyed && t.craft.ctx.Held(t.Actions)
}

// Force returns the thrust in the craft frame.
func (t *Thruster) Force() physics.Vector2D {
	return physics.Vector2D{Y: -t.craft.ctx.Config.Craft.ThrustForce}.Rotate(t.Angle)
}

// ApplyThrust pushes the craft at the thruster position and emits exhaust.
func (t *Thruster) ApplyThrust(dt float64) {
	if !t.firing || t.craft.destroyed {
		return
	}
	force := t.Force()
	t.craft.body.ApplyLocalForce(force, t.Offset)
	t.spawnExhaust(force)
}

func (t *Thruster) spawnExhaust(force physics.Vector2D) {
	ctx := t.craft.ctx
	body := t.craft.body

	position := body.ToWorldFrame(t.Offset)
	velocity := body.VectorToWorldFrame(force).
		Negate().
		Scale(1.5 + ctx.Rand.Float64()).
		Rotate((0.25*ctx.Rand.Float64() - 0.125) * math.Pi)

	NewParticle(ctx, position, velocity)
}

// Render draws the nozzle in the craft frame, red while firing.
func (t *Thruster) Render(s Surface) {
	s.Save()
	s.Translate(t.Offset.X, t.Offset.Y)
	s.Rotate(t.Angle)

	if t.firing {
		s.SetFillColor(Red)
	} else {
		s.SetFillColor(White)
	}

	s.BeginPath()
	s.MoveTo(3, 3)
	s.LineTo(-3, 3)
	s.LineTo(-3, -2)
	s.Arc(0, -2, 3, math.Pi, 2*math.Pi)
	s.ClosePath()
	s.Fill()

	s.Restore()
}
