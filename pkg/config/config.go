// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// HARPOON_LOOP_TICKINTERVAL=10ms.
const EnvPrefix = "HARPOON"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultObstacleMass is used for obstacles that do not set a mass.
const DefaultObstacleMass = 10.0

// GameConfig contains the full configuration of a simulation session
type GameConfig struct {
	Window    WindowConfig     `json:"window" mapstructure:"window"`
	Loop      LoopConfig       `json:"loop" mapstructure:"loop"`
	Physics   PhysicsConfig    `json:"physics" mapstructure:"physics"`
	Craft     CraftConfig      `json:"craft" mapstructure:"craft"`
	Harpoon   HarpoonConfig    `json:"harpoon" mapstructure:"harpoon"`
	Particles ParticleConfig   `json:"particles" mapstructure:"particles"`
	Obstacles []ObstacleConfig `json:"obstacles" mapstructure:"obstacles"`
	Debug     bool             `json:"debug" mapstructure:"debug"`
	Log       LogConfig        `json:"log" mapstructure:"log"`
	Metrics   MetricsConfig    `json:"metrics" mapstructure:"metrics"`
}

// WindowConfig describes the host window
type WindowConfig struct {
	Title  string `json:"title" mapstructure:"title"`
	Width  int    `json:"width" mapstructure:"width"`
	Height int    `json:"height" mapstructure:"height"`
}

// LoopConfig controls tick pacing
type LoopConfig struct {
	TickInterval time.Duration `json:"tickInterval" mapstructure:"tickInterval"`
	MaxDelta     time.Duration `json:"maxDelta" mapstructure:"maxDelta"`
	FixedStep    float64       `json:"fixedStep" mapstructure:"fixedStep"` // seconds
	MaxSubSteps  int           `json:"maxSubSteps" mapstructure:"maxSubSteps"`
}

// PhysicsConfig contains physics-related configuration
type PhysicsConfig struct {
	GravityX   float64 `json:"gravityX" mapstructure:"gravityX"`
	GravityY   float64 `json:"gravityY" mapstructure:"gravityY"`
	Iterations int     `json:"iterations" mapstructure:"iterations"`
}

// CraftConfig contains the player craft parameters
type CraftConfig struct {
	X                  float64 `json:"x" mapstructure:"x"`
	Y                  float64 `json:"y" mapstructure:"y"`
	Radius             float64 `json:"radius" mapstructure:"radius"`
	Mass               float64 `json:"mass" mapstructure:"mass"`
	ThrustForce        float64 `json:"thrustForce" mapstructure:"thrustForce"`
	ImpactThreshold    float64 `json:"impactThreshold" mapstructure:"impactThreshold"`
	ExplosionParticles int     `json:"explosionParticles" mapstructure:"explosionParticles"`
	ExplosionSpeedMin  float64 `json:"explosionSpeedMin" mapstructure:"explosionSpeedMin"`
	ExplosionSpeedMax  float64 `json:"explosionSpeedMax" mapstructure:"explosionSpeedMax"`
}

// HarpoonConfig contains harpoon, projectile and tether parameters
type HarpoonConfig struct {
	LaunchOffset     float64       `json:"launchOffset" mapstructure:"launchOffset"`
	LaunchSpeed      float64       `json:"launchSpeed" mapstructure:"launchSpeed"`
	ProjectileRadius float64       `json:"projectileRadius" mapstructure:"projectileRadius"`
	ProjectileMass   float64       `json:"projectileMass" mapstructure:"projectileMass"`
	ProjectileTTL    time.Duration `json:"projectileTTL" mapstructure:"projectileTTL"`
	SpringStiffness  float64       `json:"springStiffness" mapstructure:"springStiffness"`
	SpringDamping    float64       `json:"springDamping" mapstructure:"springDamping"`
}

// ParticleConfig contains exhaust and explosion particle parameters
type ParticleConfig struct {
	TimeToLive float64 `json:"timeToLive" mapstructure:"timeToLive"` // seconds
	Size       float64 `json:"size" mapstructure:"size"`
}

// ObstacleConfig describes one drifting obstacle
type ObstacleConfig struct {
	X               float64 `json:"x" mapstructure:"x"`
	Y               float64 `json:"y" mapstructure:"y"`
	VelocityX       float64 `json:"velocityX" mapstructure:"velocityX"`
	VelocityY       float64 `json:"velocityY" mapstructure:"velocityY"`
	AngularVelocity float64 `json:"angularVelocity" mapstructure:"angularVelocity"`
	Radius          float64 `json:"radius" mapstructure:"radius"`
	Vertices        int     `json:"vertices" mapstructure:"vertices"`
	Mass            float64 `json:"mass" mapstructure:"mass"`
}

// LogConfig selects the log level
type LogConfig struct {
	Level string `json:"level" mapstructure:"level"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// LoadConfig reads a JSON or YAML file (chosen by extension) and applies
// HARPOON_* environment overrides on top of DefaultConfig. An empty path
// loads defaults plus environment only.
func LoadConfig(path string) (*GameConfig, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
			v.SetConfigType(ext)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg GameConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if !v.IsSet("obstacles") {
		cfg.Obstacles = DefaultConfig().Obstacles
	}
	for i := range cfg.Obstacles {
		if cfg.Obstacles[i].Mass == 0 {
			cfg.Obstacles[i].Mass = DefaultObstacleMass
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()

	v.SetDefault("window.title", def.Window.Title)
	v.SetDefault("window.width", def.Window.Width)
	v.SetDefault("window.height", def.Window.Height)

	v.SetDefault("loop.tickInterval", def.Loop.TickInterval)
	v.SetDefault("loop.maxDelta", def.Loop.MaxDelta)
	v.SetDefault("loop.fixedStep", def.Loop.FixedStep)
	v.SetDefault("loop.maxSubSteps", def.Loop.MaxSubSteps)

	v.SetDefault("physics.gravityX", def.Physics.GravityX)
	v.SetDefault("physics.gravityY", def.Physics.GravityY)
	v.SetDefault("physics.iterations", def.Physics.Iterations)

	v.SetDefault("craft.x", def.Craft.X)
	v.SetDefault("craft.y", def.Craft.Y)
	v.SetDefault("craft.radius", def.Craft.Radius)
	v.SetDefault("craft.mass", def.Craft.Mass)
	v.SetDefault("craft.thrustForce", def.Craft.ThrustForce)
	v.SetDefault("craft.impactThreshold", def.Craft.ImpactThreshold)
	v.SetDefault("craft.explosionParticles", def.Craft.ExplosionParticles)
	v.SetDefault("craft.explosionSpeedMin", def.Craft.ExplosionSpeedMin)
	v.SetDefault("craft.explosionSpeedMax", def.Craft.ExplosionSpeedMax)

	v.SetDefault("harpoon.launchOffset", def.Harpoon.LaunchOffset)
	v.SetDefault("harpoon.launchSpeed", def.Harpoon.LaunchSpeed)
	v.SetDefault("harpoon.projectileRadius", def.Harpoon.ProjectileRadius)
	v.SetDefault("harpoon.projectileMass", def.Harpoon.ProjectileMass)
	v.SetDefault("harpoon.projectileTTL", def.Harpoon.ProjectileTTL)
	v.SetDefault("harpoon.springStiffness", def.Harpoon.SpringStiffness)
	v.SetDefault("harpoon.springDamping", def.Harpoon.SpringDamping)

	v.SetDefault("particles.timeToLive", def.Particles.TimeToLive)
	v.SetDefault("particles.size", def.Particles.Size)

	v.SetDefault("debug", def.Debug)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.address", def.Metrics.Address)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SaveConfig saves a configuration to a JSON file
func SaveConfig(config *GameConfig, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks every value the simulation relies on.
func (c *GameConfig) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Loop.TickInterval > 0, "loop.tickInterval must be positive, got %v", c.Loop.TickInterval)
	check(c.Loop.MaxDelta > 0, "loop.maxDelta must be positive, got %v", c.Loop.MaxDelta)
	check(c.Loop.FixedStep > 0, "loop.fixedStep must be positive, got %v", c.Loop.FixedStep)
	check(c.Loop.MaxSubSteps > 0, "loop.maxSubSteps must be positive, got %d", c.Loop.MaxSubSteps)
	check(c.Physics.Iterations >= 0, "physics.iterations must not be negative, got %d", c.Physics.Iterations)

	check(c.Craft.Radius > 0, "craft.radius must be positive, got %v", c.Craft.Radius)
	check(c.Craft.Mass > 0, "craft.mass must be positive, got %v", c.Craft.Mass)
	check(c.Craft.ImpactThreshold >= 0, "craft.impactThreshold must not be negative, got %v", c.Craft.ImpactThreshold)
	check(c.Craft.ExplosionParticles >= 0, "craft.explosionParticles must not be negative, got %d", c.Craft.ExplosionParticles)
	check(c.Craft.ExplosionSpeedMin >= 0 && c.Craft.ExplosionSpeedMax >= c.Craft.ExplosionSpeedMin,
		"craft explosion speed range [%v, %v] is invalid", c.Craft.ExplosionSpeedMin, c.Craft.ExplosionSpeedMax)

	check(c.Harpoon.ProjectileRadius > 0, "harpoon.projectileRadius must be positive, got %v", c.Harpoon.ProjectileRadius)
	check(c.Harpoon.ProjectileMass > 0, "harpoon.projectileMass must be positive, got %v", c.Harpoon.ProjectileMass)
	check(c.Harpoon.ProjectileTTL >= 0, "harpoon.projectileTTL must not be negative, got %v", c.Harpoon.ProjectileTTL)
	check(c.Harpoon.SpringStiffness >= 0, "harpoon.springStiffness must not be negative, got %v", c.Harpoon.SpringStiffness)
	check(c.Harpoon.SpringDamping >= 0, "harpoon.springDamping must not be negative, got %v", c.Harpoon.SpringDamping)

	check(c.Particles.TimeToLive > 0, "particles.timeToLive must be positive, got %v", c.Particles.TimeToLive)
	check(c.Particles.Size > 0, "particles.size must be positive, got %v", c.Particles.Size)

	for i, o := range c.Obstacles {
		check(o.Radius > 0, "obstacles[%d].radius must be positive, got %v", i, o.Radius)
		check(o.Vertices >= 3, "obstacles[%d].vertices must be at least 3, got %d", i, o.Vertices)
		check(o.Mass > 0, "obstacles[%d].mass must be positive, got %v", i, o.Mass)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// DefaultConfig returns the configuration of the reference scene
func DefaultConfig() *GameConfig {
	obstacle := func(x, y float64) ObstacleConfig {
		return ObstacleConfig{
			X: x, Y: y,
			VelocityX:       5,
			VelocityY:       5,
			AngularVelocity: 0.05,
			Radius:          75,
			Vertices:        8,
			Mass:            DefaultObstacleMass,
		}
	}

	return &GameConfig{
		Window: WindowConfig{
			Title:  "Harpoon",
			Width:  800,
			Height: 600,
		},
		Loop: LoopConfig{
			TickInterval: 20 * time.Millisecond,
			MaxDelta:     250 * time.Millisecond,
			FixedStep:    1.0 / 60,
			MaxSubSteps:  10,
		},
		Physics: PhysicsConfig{
			Iterations: 10,
		},
		Craft: CraftConfig{
			X:                  400,
			Y:                  200,
			Radius:             20,
			Mass:               1,
			ThrustForce:        10,
			ImpactThreshold:    10,
			ExplosionParticles: 600,
			ExplosionSpeedMin:  50,
			ExplosionSpeedMax:  200,
		},
		Harpoon: HarpoonConfig{
			LaunchOffset:     6,
			LaunchSpeed:      200,
			ProjectileRadius: 3,
			ProjectileMass:   0.1,
			ProjectileTTL:    3 * time.Second,
			SpringStiffness:  20,
			SpringDamping:    5,
		},
		Particles: ParticleConfig{
			TimeToLive: 1,
			Size:       8,
		},
		Obstacles: []ObstacleConfig{
			obstacle(50, 50),
			obstacle(200, 200),
			obstacle(400, 400),
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
		},
	}
}
