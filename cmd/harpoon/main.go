// cmd/harpoon/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/opd-ai/go-harpoon/pkg/config"
	"github.com/opd-ai/go-harpoon/pkg/engine"
	"github.com/opd-ai/go-harpoon/pkg/entity"
	"github.com/opd-ai/go-harpoon/pkg/health"
	"github.com/opd-ai/go-harpoon/pkg/input"
	"github.com/opd-ai/go-harpoon/pkg/logging"
	"github.com/opd-ai/go-harpoon/pkg/physics"
	"github.com/opd-ai/go-harpoon/pkg/render"
	engorender "github.com/opd-ai/go-harpoon/pkg/render/engo"
)

func main() {
	configPath := flag.String("config", "", "Path to a JSON or YAML configuration file")
	createDefault := flag.Bool("default", false, "Write the default configuration to -config and exit")
	renderer := flag.String("renderer", "engo", "Renderer type: 'engo', 'terminal' or 'null'")
	hold := flag.String("hold", "", "Comma-separated keys held for the whole run (terminal and null renderers)")
	flag.Parse()

	ctx := context.Background()
	bootLogger := logging.NewLogger()

	if *createDefault {
		if *configPath == "" {
			bootLogger.Error(ctx, "Missing -config for -default", nil)
			os.Exit(2)
		}
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			bootLogger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		bootLogger.Info(ctx, "Created default configuration file", "config_path", *configPath)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		bootLogger.Error(ctx, "Failed to load configuration", err, "config_path", *configPath)
		os.Exit(1)
	}
	logger := logging.NewLoggerWithWriter(os.Stderr, logging.ResolveLevel(cfg.Log.Level))

	var snapshot input.Snapshot
	if *renderer == "engo" {
		snapshot = engorender.ButtonInput{}
	} else {
		keys := newHeldKeys(*hold)
		if held := keys.Held(); len(held) > 0 {
			logger.Info(ctx, "Holding keys for the whole run", "actions", held)
		}
		snapshot = keys
	}

	game, err := engine.NewGame(cfg, engine.WithLogger(logger), engine.WithInput(snapshot))
	if err != nil {
		logger.Error(ctx, "Failed to create game", err)
		os.Exit(1)
	}
	if err := game.SpawnScene(); err != nil {
		logger.Error(ctx, "Failed to spawn scene", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opsServer *http.Server
	if cfg.Metrics.Enabled {
		opsServer = startOpsServer(ctx, game, cfg)
	}

	logger.Info(ctx, "Starting simulation",
		"renderer", *renderer,
		"tick_interval", cfg.Loop.TickInterval,
		"obstacles", len(cfg.Obstacles),
	)

	switch *renderer {
	case "engo":
		engorender.Run(ctx, game, cfg.Window, input.DefaultBindings())
	case "terminal", "null":
		surface := newHeadlessSurface(*renderer, cfg, logger)
		if err := game.Run(ctx, surface); err != nil {
			logger.Error(ctx, "Game loop failed", err)
		}
	default:
		logger.Error(ctx, "Unknown renderer", nil, "renderer", *renderer)
		os.Exit(2)
	}

	logger.Info(ctx, "Shutting down", "tick", game.CurrentTick, "craft_lost", game.CraftLost())

	if opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Ops server shutdown failed", err)
		}
	}
}

// newHeldKeys presses every comma-separated key in hold. Unbound keys are
// ignored.
func newHeldKeys(hold string) *input.KeyState {
	keys := input.NewKeyState(nil)
	for _, k := range strings.Split(hold, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys.Press(k)
		}
	}
	return keys
}

// loadConfig reads path, or returns the defaults when path is empty or
// does not exist.
func loadConfig(path string) (*config.GameConfig, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(path)
}

func newHeadlessSurface(kind string, cfg *config.GameConfig, logger *logging.Logger) entity.Surface {
	if kind == "null" {
		return render.NewNullRenderer(logger)
	}
	const columns, rows = 100, 30
	scale := float64(cfg.Window.Width) / columns
	t := render.NewTerminalRenderer(columns, rows, scale)
	t.SetCenter(physics.Vector2D{
		X: float64(cfg.Window.Width) / 2,
		Y: float64(cfg.Window.Height) / 2,
	})
	return t
}

// startOpsServer serves /metrics, /healthz and /readyz in the background.
func startOpsServer(ctx context.Context, game *engine.Game, cfg *config.GameConfig) *http.Server {
	logger := game.Logger()

	checker := health.NewHealthChecker()
	checker.AddCheck(health.NewLoopHealthCheck(game.LastTick, 10*cfg.Loop.TickInterval+time.Second))
	checker.AddCheck(health.NewCraftHealthCheck(game.CraftLost))

	mux := http.NewServeMux()
	mux.Handle("/metrics", game.Metrics().Handler())
	checker.Register(mux)

	server := &http.Server{
		Addr:         cfg.Metrics.Address,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info(ctx, "Starting ops server", "address", cfg.Metrics.Address, "checks", checker.Names())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Ops server failed", err)
		}
	}()
	return server
}
