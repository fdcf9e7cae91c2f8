// pkg/render/engo/scene.go
package engo

import (
	"context"
	"image/color"
	"time"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-harpoon/pkg/config"
	"github.com/opd-ai/go-harpoon/pkg/engine"
	"github.com/opd-ai/go-harpoon/pkg/input"
)

// GameScene hosts a Game inside an engo window. Engo paces the frames; each
// frame advances the game by the elapsed time and redraws it.
type GameScene struct {
	game     *engine.Game
	bindings input.Bindings
	surface  *Surface
}

// NewGameScene creates a new game scene. The game should have been built
// with ButtonInput so that the registered buttons drive it.
func NewGameScene(game *engine.Game, bindings input.Bindings) *GameScene {
	if bindings == nil {
		bindings = input.DefaultBindings()
	}
	return &GameScene{game: game, bindings: bindings}
}

// Type returns the scene type (required by Engo)
func (scene *GameScene) Type() string {
	return "HarpoonScene"
}

// Preload is called before the scene starts (required by Engo)
func (scene *GameScene) Preload() {}

// Setup is called when the scene starts (required by Engo)
func (scene *GameScene) Setup(u engo.Updater) {
	world, ok := u.(*ecs.World)
	if !ok {
		scene.game.Logger().Warn(scene.game.Context(), "engo updater is not an ecs world")
		return
	}

	common.SetBackground(color.Black)
	SetupInputBindings(scene.bindings)

	renderSystem := &common.RenderSystem{}
	world.AddSystem(renderSystem)

	scene.surface = NewSurface(renderSystem)
	world.AddSystem(&loopSystem{game: scene.game, surface: scene.surface})
}

// Exit is called when the scene is exiting (required by Engo)
func (scene *GameScene) Exit() {
	scene.game.Logger().Info(scene.game.Context(), "window closed", "tick", scene.game.CurrentTick)
}

// loopSystem advances the game once per engo frame.
type loopSystem struct {
	game    *engine.Game
	surface *Surface
}

func (l *loopSystem) Update(dt float32) {
	l.game.Advance(frameDelta(dt), l.surface)
}

func (l *loopSystem) Remove(ecs.BasicEntity) {}

func frameDelta(dt float32) time.Duration {
	return time.Duration(float64(dt) * float64(time.Second))
}

// Run opens the window described by cfg and blocks until it closes or ctx
// is cancelled.
func Run(ctx context.Context, game *engine.Game, cfg config.WindowConfig, bindings input.Bindings) {
	go func() {
		<-ctx.Done()
		engo.Exit()
	}()

	engo.Run(engo.RunOptions{
		Title:  cfg.Title,
		Width:  cfg.Width,
		Height: cfg.Height,
		VSync:  true,
	}, NewGameScene(game, bindings))
}
