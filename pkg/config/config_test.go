package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.NotNil(t, config)
	require.NoError(t, config.Validate())

	assert.Equal(t, 20*time.Millisecond, config.Loop.TickInterval)
	assert.InDelta(t, 1.0/60, config.Loop.FixedStep, 1e-12)
	assert.Equal(t, 400.0, config.Craft.X)
	assert.Equal(t, 200.0, config.Craft.Y)
	assert.Equal(t, 20.0, config.Craft.Radius)
	assert.Equal(t, 10.0, config.Craft.ImpactThreshold)
	assert.Equal(t, 600, config.Craft.ExplosionParticles)

	require.Len(t, config.Obstacles, 3)
	positions := [][2]float64{{50, 50}, {200, 200}, {400, 400}}
	for i, o := range config.Obstacles {
		assert.Equal(t, positions[i][0], o.X)
		assert.Equal(t, positions[i][1], o.Y)
		assert.Equal(t, 75.0, o.Radius)
		assert.Equal(t, 8, o.Vertices)
		assert.Equal(t, 5.0, o.VelocityX)
		assert.Equal(t, 0.05, o.AngularVelocity)
	}
}

func TestLoadConfig_NoFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_JSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harpoon.json")
	content := `{
		"loop": { "tickInterval": "10ms" },
		"craft": { "x": 100, "impactThreshold": 25 },
		"debug": true,
		"obstacles": [
			{ "x": 1, "y": 2, "radius": 30, "vertices": 5, "mass": 3 }
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Millisecond, cfg.Loop.TickInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Loop.MaxDelta, "unset keys keep their defaults")
	assert.Equal(t, 100.0, cfg.Craft.X)
	assert.Equal(t, 200.0, cfg.Craft.Y)
	assert.Equal(t, 25.0, cfg.Craft.ImpactThreshold)
	assert.True(t, cfg.Debug)
	require.Len(t, cfg.Obstacles, 1)
	assert.Equal(t, 5, cfg.Obstacles[0].Vertices)
}

func TestLoadConfig_ObstacleMassDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harpoon.json")
	content := `{
		"obstacles": [
			{ "x": 1, "y": 2, "radius": 30, "vertices": 5 },
			{ "x": 3, "y": 4, "radius": 30, "vertices": 5, "mass": 2 }
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Obstacles, 2)
	assert.Equal(t, DefaultObstacleMass, cfg.Obstacles[0].Mass)
	assert.Equal(t, 2.0, cfg.Obstacles[1].Mass)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harpoon.yaml")
	content := "harpoon:\n  launchSpeed: 350\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 350.0, cfg.Harpoon.LaunchSpeed)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Len(t, cfg.Obstacles, 3)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HARPOON_CRAFT_MASS", "2.5")
	t.Setenv("HARPOON_LOOP_MAXDELTA", "100ms")
	t.Setenv("HARPOON_METRICS_ENABLED", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Craft.Mass)
	assert.Equal(t, 100*time.Millisecond, cfg.Loop.MaxDelta)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0o644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"craft": {"radius": -1}}`), 0o644))
	_, err = LoadConfig(invalid)
	assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *GameConfig)
	}{
		{"zero tick interval", func(c *GameConfig) { c.Loop.TickInterval = 0 }},
		{"zero fixed step", func(c *GameConfig) { c.Loop.FixedStep = 0 }},
		{"zero sub-steps", func(c *GameConfig) { c.Loop.MaxSubSteps = 0 }},
		{"zero craft mass", func(c *GameConfig) { c.Craft.Mass = 0 }},
		{"inverted explosion speeds", func(c *GameConfig) { c.Craft.ExplosionSpeedMin = 300 }},
		{"zero projectile radius", func(c *GameConfig) { c.Harpoon.ProjectileRadius = 0 }},
		{"negative stiffness", func(c *GameConfig) { c.Harpoon.SpringStiffness = -1 }},
		{"zero particle ttl", func(c *GameConfig) { c.Particles.TimeToLive = 0 }},
		{"obstacle radius", func(c *GameConfig) { c.Obstacles[0].Radius = 0 }},
		{"obstacle vertices", func(c *GameConfig) { c.Obstacles[1].Vertices = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.json")
	original := DefaultConfig()
	original.Debug = true
	original.Craft.X = 123

	require.NoError(t, SaveConfig(original, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, original.Craft, loaded.Craft)
	assert.Equal(t, original.Obstacles, loaded.Obstacles)
	assert.True(t, loaded.Debug)
}
