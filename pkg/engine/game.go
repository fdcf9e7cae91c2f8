// pkg/engine/game.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-harpoon/pkg/config"
	"github.com/opd-ai/go-harpoon/pkg/entity"
	"github.com/opd-ai/go-harpoon/pkg/event"
	"github.com/opd-ai/go-harpoon/pkg/input"
	"github.com/opd-ai/go-harpoon/pkg/logging"
	"github.com/opd-ai/go-harpoon/pkg/metrics"
	"github.com/opd-ai/go-harpoon/pkg/physics"
)

// ErrSceneSpawned is returned when SpawnScene is called twice.
var ErrSceneSpawned = errors.New("scene already spawned")

// Option customises a Game at construction.
type Option func(*Game)

// WithLogger sets the logger used by the loop and every entity.
func WithLogger(l *logging.Logger) Option {
	return func(g *Game) { g.logger = l }
}

// WithInput sets the input snapshot read by thrusters and the harpoon.
func WithInput(s input.Snapshot) Option {
	return func(g *Game) { g.input = s }
}

// WithClock replaces time.Now as the source of tick timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.clock = now }
}

// WithRand sets the random source used for obstacle shapes and particles.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

// WithMetrics sets the collectors updated every tick.
func WithMetrics(m *metrics.Loop) Option {
	return func(g *Game) { g.metrics = m }
}

// Game owns the simulation: the physics world, the entity registry and the
// tick that advances and draws them. All methods except LastTick and
// CraftLost must be called from the loop goroutine.
type Game struct {
	Config      *config.GameConfig
	World       *physics.World
	Registry    *entity.Registry
	EventBus    *event.Bus
	CurrentTick uint64

	entityCtx *entity.Context
	logger    *logging.Logger
	metrics   *metrics.Loop
	input     input.Snapshot
	clock     func() time.Time
	rng       *rand.Rand
	baseCtx   context.Context
	step      func(fixedDt, elapsed float64) int

	craft      *entity.Craft
	spawned    bool
	started    bool
	lastUpdate time.Time

	lastTick  atomic.Int64
	craftLost atomic.Bool
}

// NewGame validates cfg and builds an empty game. Call SpawnScene to
// populate it.
func NewGame(cfg *config.GameConfig, opts ...Option) (*Game, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil configuration", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Game{
		Config:   cfg,
		Registry: entity.NewRegistry(),
		EventBus: event.NewEventBus(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logging.NewLoggerWithWriter(os.Stderr, logging.ResolveLevel(cfg.Log.Level))
	}
	if g.input == nil {
		g.input = input.NewKeyState(nil)
	}
	if g.clock == nil {
		g.clock = time.Now
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if g.metrics == nil {
		g.metrics = metrics.NewLoop()
	}
	g.baseCtx = logging.WithSessionID(context.Background(), logging.GenerateSessionID())

	g.World = physics.NewWorld(physics.WorldOptions{
		MaxSubSteps: cfg.Loop.MaxSubSteps,
		Gravity:     physics.Vector2D{X: cfg.Physics.GravityX, Y: cfg.Physics.GravityY},
		Iterations:  uint(cfg.Physics.Iterations),
	})
	g.World.SetFaultHandler(func(owner any, recovered any) {
		g.disable(owner, fmt.Sprintf("physics callback panic: %v", recovered))
	})
	g.step = g.World.Step

	g.entityCtx = &entity.Context{
		World:    g.World,
		Registry: g.Registry,
		Input:    g.input,
		Events:   g.EventBus,
		Rand:     g.rng,
		Logger:   g.logger,
		Config:   cfg,
		Base:     g.baseCtx,
	}
	g.registerEventHandlers()
	g.lastTick.Store(g.clock().UnixNano())

	return g, nil
}

// SpawnScene creates the craft and the configured obstacles.
func (g *Game) SpawnScene() error {
	if g.spawned {
		return ErrSceneSpawned
	}

	craft, err := entity.NewCraft(g.entityCtx, physics.Vector2D{X: g.Config.Craft.X, Y: g.Config.Craft.Y})
	if err != nil {
		return fmt.Errorf("spawn craft: %w", err)
	}
	g.craft = craft

	for i, oc := range g.Config.Obstacles {
		_, err := entity.NewObstacle(g.entityCtx, entity.ObstacleSpec{
			Position:        physics.Vector2D{X: oc.X, Y: oc.Y},
			Velocity:        physics.Vector2D{X: oc.VelocityX, Y: oc.VelocityY},
			AngularVelocity: oc.AngularVelocity,
			Radius:          oc.Radius,
			Vertices:        oc.Vertices,
			Mass:            oc.Mass,
		})
		if err != nil {
			return fmt.Errorf("spawn obstacle %d: %w", i, err)
		}
	}
	g.spawned = true

	g.logger.Info(g.baseCtx, "scene spawned",
		"entities", g.Registry.Len(),
		"bodies", g.World.BodyCount(),
	)
	return nil
}

// Run ticks the game every Loop.TickInterval until ctx is cancelled.
func (g *Game) Run(ctx context.Context, surface entity.Surface) error {
	interval := g.Config.Loop.TickInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.logger.Info(g.baseCtx, "game loop started", "tick_interval", interval)
	for {
		select {
		case <-ctx.Done():
			g.logger.Info(g.baseCtx, "game loop stopped", "ticks", g.CurrentTick)
			return nil
		case <-ticker.C:
			g.Tick(surface)
		}
	}
}

// Tick advances the game by the wall-clock time since the previous tick
// and renders it. The first tick advances by zero.
func (g *Game) Tick(surface entity.Surface) {
	now := g.clock()
	var delta time.Duration
	if g.started {
		delta = now.Sub(g.lastUpdate)
	}
	g.started = true
	g.lastUpdate = now

	g.Advance(delta, surface)
}

// Advance clamps delta, updates the simulation and renders to surface,
// which may be nil.
func (g *Game) Advance(delta time.Duration, surface entity.Surface) {
	start := time.Now()

	clamped := g.clampDelta(delta)
	if clamped != delta {
		g.metrics.ClampedDeltas.Inc()
		g.logger.Debug(g.baseCtx, "tick delta clamped", "delta", delta, "clamped", clamped)
	}

	steps := g.Update(clamped)
	if surface != nil {
		g.Render(surface)
	}

	g.lastTick.Store(g.clock().UnixNano())
	g.metrics.ObserveTick(time.Since(start), steps, g.Registry.Len(), g.World.BodyCount())
}

func (g *Game) clampDelta(delta time.Duration) time.Duration {
	if delta < 0 {
		return 0
	}
	if limit := g.Config.Loop.MaxDelta; limit > 0 && delta > limit {
		return limit
	}
	return delta
}

// Update steps the physics world over delta and then updates every
// registered entity in order. It returns the number of physics steps taken.
func (g *Game) Update(delta time.Duration) int {
	g.CurrentTick++
	g.entityCtx.Base = logging.WithTick(g.baseCtx, g.CurrentTick)

	seconds := delta.Seconds()
	steps := g.stepWorld(seconds)

	for _, e := range g.Registry.Snapshot() {
		// Entities removed earlier in this pass are skipped.
		if !g.Registry.Contains(e) {
			continue
		}
		g.safely(e, "update", func() { e.Update(seconds) })
	}
	g.Registry.Compact()
	return steps
}

// stepWorld advances the physics world. A panic from the physics engine
// itself skips the step for this tick.
func (g *Game) stepWorld(seconds float64) (steps int) {
	defer func() {
		if r := recover(); r != nil {
			steps = 0
			g.metrics.PhysicsFaults.Inc()
			g.logger.Error(g.entityCtx.Base, "physics step failed", fmt.Errorf("panic: %v", r),
				"elapsed", seconds)
		}
	}()
	return g.step(g.Config.Loop.FixedStep, seconds)
}

// Render clears surface, draws every entity in registry order and presents.
func (g *Game) Render(surface entity.Surface) {
	surface.Clear()
	for _, e := range g.Registry.Snapshot() {
		g.safely(e, "render", func() { e.Render(surface) })
	}
	surface.Present()
}

// safely runs fn, disabling e if it panics.
func (g *Game) safely(e entity.Entity, phase string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			g.disable(e, fmt.Sprintf("%s panic: %v", phase, r))
		}
	}()
	fn()
}

// disable takes a faulty entity out of the simulation and reports it.
func (g *Game) disable(owner any, reason string) {
	ctx := g.entityCtx.Base
	e, isEntity := owner.(entity.Entity)

	if d, ok := owner.(entity.Disposable); ok {
		func() {
			defer func() {
				if r := recover(); r != nil {
					g.logger.Error(ctx, "dispose failed", fmt.Errorf("panic: %v", r))
				}
			}()
			d.Dispose()
		}()
	}
	if isEntity {
		g.Registry.Remove(e)
	}
	if g.craft != nil && owner == any(g.craft) {
		g.craftLost.Store(true)
	}

	args := []any{"reason", reason, "owner_type", fmt.Sprintf("%T", owner)}
	if isEntity {
		args = append(args, "entity_id", e.GetID())
	}
	g.logger.Error(ctx, "entity disabled", errors.New(reason), args...)
	g.EventBus.Publish(event.NewFaultEvent(owner, reason))
}

// registerEventHandlers feeds gameplay events into logs and metrics.
func (g *Game) registerEventHandlers() {
	g.EventBus.Subscribe(event.CraftDestroyed, g.handleCraftDestroyed)
	g.EventBus.Subscribe(event.EntityDisabled, func(event.Event) {
		g.metrics.Disabled.Inc()
	})
	g.EventBus.Subscribe(event.HarpoonFired, func(e event.Event) {
		if ce, ok := e.(*event.CraftEvent); ok {
			g.logger.Debug(g.entityCtx.Base, "harpoon fired", "x", ce.X, "y", ce.Y)
		}
	})
	g.EventBus.Subscribe(event.TetherAttached, func(e event.Event) {
		if te, ok := e.(*event.TetherEvent); ok {
			g.logger.Info(g.entityCtx.Base, "tether attached",
				"target_type", fmt.Sprintf("%T", te.Target),
				"length", te.Length)
		}
	})
}

func (g *Game) handleCraftDestroyed(e event.Event) {
	ce, ok := e.(*event.CraftEvent)
	if !ok {
		return
	}
	g.craftLost.Store(true)
	g.metrics.CraftDestroyed.Inc()
	g.logger.Info(g.entityCtx.Base, "craft destroyed", "x", ce.X, "y", ce.Y)
}

// Craft returns the player craft, or nil before SpawnScene.
func (g *Game) Craft() *entity.Craft {
	return g.craft
}

// Input returns the snapshot entities read controls from.
func (g *Game) Input() input.Snapshot {
	return g.input
}

// Metrics returns the loop collectors.
func (g *Game) Metrics() *metrics.Loop {
	return g.metrics
}

// Logger returns the game logger.
func (g *Game) Logger() *logging.Logger {
	return g.logger
}

// Context returns the context log lines of the current tick are written with.
func (g *Game) Context() context.Context {
	return g.entityCtx.Base
}

// LastTick returns when the last tick finished. Safe for concurrent use.
func (g *Game) LastTick() time.Time {
	return time.Unix(0, g.lastTick.Load())
}

// CraftLost reports whether the craft was destroyed or disabled. Safe for
// concurrent use.
func (g *Game) CraftLost() bool {
	return g.craftLost.Load()
}
