package entity

import (
	"math"
	"testing"

	"github.com/opd-ai/go-harpoon/pkg/physics"
)

func TestNewParticle(t *testing.T) {
	ctx := newTestContext(t, nil)
	p := NewParticle(ctx, physics.Vector2D{X: 10, Y: 20}, physics.Vector2D{X: 4, Y: -2})

	if !ctx.Registry.Contains(p) {
		t.Fatal("NewParticle() did not register the particle")
	}
	if ctx.World.BodyCount() != 0 {
		t.Errorf("particle added %d bodies to the world, want 0", ctx.World.BodyCount())
	}
	for name, channel := range map[string]uint8{"R": p.Color.R, "G": p.Color.G, "B": p.Color.B} {
		if channel < 160 {
			t.Errorf("Color.%s = %d, want >= 160", name, channel)
		}
	}
	if p.Color.A < 0.1 || p.Color.A > 0.4 {
		t.Errorf("Color.A = %v, want within [0.1, 0.4]", p.Color.A)
	}
	if p.AngularVelocity < -10 || p.AngularVelocity > 10 {
		t.Errorf("AngularVelocity = %v, want within [-10, 10]", p.AngularVelocity)
	}
	if p.TimeToLive() != 1 {
		t.Errorf("TimeToLive() = %v, want 1", p.TimeToLive())
	}
}

func TestParticle_UpdateMovesAndShrinks(t *testing.T) {
	ctx := newTestContext(t, nil)
	p := NewParticle(ctx, physics.Vector2D{X: 10, Y: 20}, physics.Vector2D{X: 4, Y: -2})

	p.Update(0.5)

	want := physics.Vector2D{X: 12, Y: 19}
	if p.Position.Distance(want) > 1e-9 {
		t.Errorf("Position = %v, want %v", p.Position, want)
	}
	if got := p.RenderedSize(); math.Abs(got-6) > 1e-9 {
		t.Errorf("RenderedSize() = %v, want 6", got)
	}
	if !ctx.Registry.Contains(p) {
		t.Error("live particle was removed")
	}
}

func TestParticle_ExpiresAndLeavesRegistry(t *testing.T) {
	ctx := newTestContext(t, nil)
	p := NewParticle(ctx, physics.Vector2D{}, physics.Vector2D{X: 1})

	p.Update(0.6)
	p.Update(0.6)

	if !p.Expired() {
		t.Fatalf("Expired() = false after 1.2s, ttl %v", p.TimeToLive())
	}
	if ctx.Registry.Contains(p) {
		t.Error("expired particle still registered")
	}

	s := &recordingSurface{}
	p.Render(s)
	if len(s.calls) != 0 {
		t.Errorf("expired particle drew %v", s.calls)
	}
	if got := p.RenderedSize(); math.Abs(got-4) > 1e-9 {
		t.Errorf("RenderedSize() = %v, want half size 4", got)
	}
}

func TestParticle_NegativeDeltaIgnored(t *testing.T) {
	ctx := newTestContext(t, nil)
	p := NewParticle(ctx, physics.Vector2D{}, physics.Vector2D{X: 1})

	p.Update(-5)

	if p.TimeToLive() != 1 || p.Position != (physics.Vector2D{}) {
		t.Errorf("negative delta changed state: ttl %v, position %v", p.TimeToLive(), p.Position)
	}
}

func TestParticle_Render(t *testing.T) {
	ctx := newTestContext(t, nil)
	p := NewParticle(ctx, physics.Vector2D{X: 1, Y: 1}, physics.Vector2D{})

	s := &recordingSurface{}
	p.Render(s)

	if s.count("FillRect") != 1 {
		t.Errorf("Render() FillRect calls = %d, want 1", s.count("FillRect"))
	}
	if s.count("Save") != s.count("Restore") {
		t.Errorf("unbalanced Save/Restore: %v", s.calls)
	}
}
