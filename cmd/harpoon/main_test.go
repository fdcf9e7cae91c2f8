package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-harpoon/pkg/config"
	"github.com/opd-ai/go-harpoon/pkg/input"
	"github.com/opd-ai/go-harpoon/pkg/logging"
	"github.com/opd-ai/go-harpoon/pkg/render"
)

func TestLoadConfig_FallsBackToDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	cfg, err = loadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harpoon.json")
	want := config.DefaultConfig()
	want.Debug = true
	require.NoError(t, config.SaveConfig(want, path))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
}

func TestNewHeadlessSurface(t *testing.T) {
	cfg := config.DefaultConfig()
	logger := logging.NewDiscardLogger()

	assert.IsType(t, &render.NullRenderer{}, newHeadlessSurface("null", cfg, logger))
	assert.IsType(t, &render.TerminalRenderer{}, newHeadlessSurface("terminal", cfg, logger))
}

func TestNewHeldKeys(t *testing.T) {
	tests := []struct {
		name string
		hold string
		want []input.Action
	}{
		{"empty", "", []input.Action{}},
		{"thrusters", "e, J", []input.Action{input.ActionThrustE, input.ActionThrustJ}},
		{"unbound skipped", "space,x,,", []input.Action{input.ActionHarpoon}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newHeldKeys(tt.hold).Held())
		})
	}
}
