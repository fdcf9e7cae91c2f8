package entity

import (
	"errors"
	"math"
	"testing"

	"github.com/opd-ai/go-harpoon/pkg/event"
	"github.com/opd-ai/go-harpoon/pkg/input"
	"github.com/opd-ai/go-harpoon/pkg/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCraft(t *testing.T, ctx *Context) *Craft {
	t.Helper()
	c, err := NewCraft(ctx, physics.Vector2D{X: ctx.Config.Craft.X, Y: ctx.Config.Craft.Y})
	require.NoError(t, err)
	return c
}

func countParticles(r *Registry) int {
	return r.Count(func(e Entity) bool {
		_, ok := e.(*Particle)
		return ok
	})
}

func TestNewCraft(t *testing.T) {
	ctx := newTestContext(t, nil)
	c := newTestCraft(t, ctx)

	assert.True(t, ctx.Registry.Contains(c))
	assert.True(t, c.Body().InWorld())
	assert.Same(t, c, c.Body().Owner())
	assert.Len(t, c.Thrusters(), 4)
	assert.True(t, c.Harpoon().Loaded())
	assert.False(t, c.Destroyed())
	assert.Equal(t, physics.Vector2D{X: 400, Y: 200}, c.Position())
}

func TestNewCraft_InvalidConfig(t *testing.T) {
	ctx := newTestContext(t, nil)
	ctx.Config.Craft.Radius = 0

	_, err := NewCraft(ctx, physics.Vector2D{})
	assert.True(t, errors.Is(err, ErrInvalidConfig), "error = %v", err)
	assert.Zero(t, ctx.World.BodyCount())
}

func TestCraft_ImpactThreshold(t *testing.T) {
	tests := []struct {
		name          string
		postContact   physics.Vector2D
		wantDestroyed bool
	}{
		{"violent_impact", physics.Vector2D{Y: 15}, true},
		{"gentle_bump", physics.Vector2D{Y: 5}, false},
		{"exactly_threshold", physics.Vector2D{X: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newTestContext(t, nil)
			var destroyed []event.Event
			ctx.Events.Subscribe(event.CraftDestroyed, func(e event.Event) {
				destroyed = append(destroyed, e)
			})
			c := newTestCraft(t, ctx)

			c.BeginContact(physics.Vector2D{})
			c.Body().SetVelocity(tt.postContact)
			c.EndContact()

			assert.Equal(t, tt.wantDestroyed, c.Destroyed())
			assert.Equal(t, !tt.wantDestroyed, c.Body().InWorld())
			if tt.wantDestroyed {
				assert.Equal(t, ctx.Config.Craft.ExplosionParticles, countParticles(ctx.Registry))
				assert.True(t, ctx.Registry.Contains(c), "destroyed craft stays registered")
				require.Len(t, destroyed, 1)
				ce := destroyed[0].(*event.CraftEvent)
				assert.Equal(t, 400.0, ce.X)
				assert.Equal(t, 200.0, ce.Y)
			} else {
				assert.Zero(t, countParticles(ctx.Registry))
				assert.Empty(t, destroyed)
			}
		})
	}
}

func TestCraft_ExplodeIsIdempotent(t *testing.T) {
	ctx := newTestContext(t, nil)
	c := newTestCraft(t, ctx)

	c.Explode()
	c.Explode()
	c.BeginContact(physics.Vector2D{X: 100})
	c.EndContact()

	assert.Equal(t, ctx.Config.Craft.ExplosionParticles, countParticles(ctx.Registry))
	assert.Equal(t, physics.Vector2D{X: 400, Y: 200}, c.Position())

	s := &recordingSurface{}
	c.Render(s)
	assert.Empty(t, s.calls, "destroyed craft must not draw")
}

func TestCraft_ExplosionParticleSpeeds(t *testing.T) {
	ctx := newTestContext(t, nil)
	c := newTestCraft(t, ctx)
	c.Explode()

	for _, e := range ctx.Registry.Snapshot() {
		p, ok := e.(*Particle)
		if !ok {
			continue
		}
		speed := p.Velocity.Length()
		if speed < 50-1e-9 || speed > 200+1e-9 {
			t.Fatalf("particle speed = %v, want within [50, 200]", speed)
		}
	}
}

func TestCraft_CollisionWithObstacle(t *testing.T) {
	ctx := newTestContext(t, nil)
	c := newTestCraft(t, ctx)
	c.Body().SetVelocity(physics.Vector2D{X: 300})

	o, err := NewObstacle(ctx, ObstacleSpec{
		Position: physics.Vector2D{X: 500, Y: 200},
		Radius:   30,
		Vertices: 8,
		Mass:     1000,
	})
	require.NoError(t, err)

	for i := 0; i < 120 && c.Body().Velocity().X > 150; i++ {
		ctx.World.Step(testDt, testDt)
	}
	require.Less(t, c.Body().Velocity().X, 150.0, "craft never reached the obstacle")
	require.False(t, c.Destroyed(), "craft must survive until the contact ends")

	// Removing the obstacle ends the contact; the craft compares its
	// velocity with the one it had before the impact.
	o.Dispose()
	ctx.World.Step(testDt, testDt)

	assert.True(t, c.Destroyed())
}

func TestThruster_Force(t *testing.T) {
	ctx := newTestContext(t, nil)
	c := newTestCraft(t, ctx)

	for i, th := range c.Thrusters() {
		f := th.Force()
		assert.InDelta(t, 10, f.Length(), 1e-9, "thruster %d", i)
	}
	front := c.Thrusters()[0].Force()
	rear := c.Thrusters()[3].Force()
	assert.Greater(t, front.Y, 0.0, "front thrusters push backwards")
	assert.Less(t, rear.Y, 0.0, "rear thrusters push forwards")
}

func TestThruster_FiringAppliesForceEachStep(t *testing.T) {
	ctx := newTestContext(t, input.Static{input.ActionThrustF: true})
	c := newTestCraft(t, ctx)

	c.Update(testDt)
	for i, th := range c.Thrusters() {
		assert.Equal(t, i == 3, th.Firing(), "thruster %d", i)
	}

	steps := 0
	for i := 0; i < 3; i++ {
		steps += ctx.World.Step(testDt, testDt)
	}
	require.Equal(t, 3, steps)

	assert.Less(t, c.Body().Velocity().Y, 0.0)
	assert.Greater(t, c.Body().AngularVelocity(), 0.0, "off-centre thrust spins the craft")
	assert.Equal(t, 3, countParticles(ctx.Registry), "one exhaust particle per step")
}

func TestThruster_ExhaustOpposesThrust(t *testing.T) {
	ctx := newTestContext(t, input.Static{input.ActionThrustJ: true})
	c := newTestCraft(t, ctx)
	c.Update(testDt)
	ctx.World.Step(testDt, testDt)

	for _, e := range ctx.Registry.Snapshot() {
		p, ok := e.(*Particle)
		if !ok {
			continue
		}
		// Thrust is along -Y, so exhaust leaves along +Y within the spread.
		assert.Greater(t, p.Velocity.Y, 0.0)
		speed := p.Velocity.Length()
		assert.GreaterOrEqual(t, speed, 15.0-1e-9)
		assert.LessOrEqual(t, speed, 25.0+1e-9)
		assert.Less(t, math.Abs(math.Atan2(p.Velocity.X, p.Velocity.Y)), 0.125*math.Pi+1e-9)
	}
}

func TestThruster_IdleWhenDestroyed(t *testing.T) {
	ctx := newTestContext(t, input.Static{input.ActionThrustE: true})
	c := newTestCraft(t, ctx)
	c.Explode()
	before := countParticles(ctx.Registry)

	c.Update(testDt)
	ctx.World.Step(testDt, testDt)

	for _, th := range c.Thrusters() {
		assert.False(t, th.Firing())
	}
	assert.Equal(t, before, countParticles(ctx.Registry))
}

func TestCraft_Render(t *testing.T) {
	ctx := newTestContext(t, input.Static{input.ActionThrustE: true})
	c := newTestCraft(t, ctx)
	c.Update(testDt)

	s := &recordingSurface{}
	c.Render(s)

	assert.Equal(t, 1, s.count("Stroke"), "hull outline")
	assert.Equal(t, 4, s.count("Fill"), "one fill per nozzle")
	assert.Equal(t, s.count("Save"), s.count("Restore"))

	ctx.Config.Debug = true
	s = &recordingSurface{}
	c.Render(s)
	assert.Equal(t, 5, s.count("Fill"), "nozzles plus collision circle")
	assert.Equal(t, 1, s.count("FillRect"), "centre marker")
}

func TestCraft_Dispose(t *testing.T) {
	ctx := newTestContext(t, nil)
	c := newTestCraft(t, ctx)

	c.Dispose()

	assert.False(t, ctx.Registry.Contains(c))
	assert.False(t, c.Body().InWorld())
	assert.Zero(t, countParticles(ctx.Registry), "dispose does not explode")
}
