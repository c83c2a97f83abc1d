package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-mol/common"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bg, err := cfg.Background()
	require.NoError(t, err)
	assert.Equal(t, common.DefaultBackground.Hex(), bg.Hex())
	_, ok := cfg.RecenterPoint()
	assert.False(t, ok)
	assert.Equal(t, 100*time.Millisecond, cfg.Interval())
}

func TestParseConfig_OverridesDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
window:
  width: 640
  height: 480
  title: ligands
scene:
  scale: 2.5
  recenter: [1, 2, 3]
  background: "#000000"
animation:
  interval: 0.05
  loops: infinite
  interpolate: true
viewer:
  frame_limit: 30
loader:
  bond_policy: explicit
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, "ligands", cfg.Window.Title)
	assert.True(t, cfg.Window.VSync, "unset fields keep their defaults")
	assert.Equal(t, 2.5, cfg.Scene.Scale)
	p, ok := cfg.RecenterPoint()
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, p)
	assert.Equal(t, 50*time.Millisecond, cfg.Interval())
	assert.Equal(t, LoopsInfinite, cfg.Animation.Loops)
	assert.True(t, cfg.Animation.Interpolate)
	assert.Equal(t, 30, cfg.Viewer.FrameLimit)
	assert.Equal(t, "explicit", cfg.Loader.BondPolicy)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoops_Decoding(t *testing.T) {
	tests := []struct {
		yaml    string
		want    Loops
		wantErr bool
	}{
		{yaml: "3", want: 3},
		{yaml: "0", want: 0},
		{yaml: "-1", want: LoopsInfinite},
		{yaml: "infinite", want: LoopsInfinite},
		{yaml: "Infinite", want: LoopsInfinite},
		{yaml: "forever", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.yaml, func(t *testing.T) {
			cfg, err := ParseConfig([]byte("animation:\n  loops: " + tt.yaml + "\n"))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Animation.Loops)
		})
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"negative height", func(c *Config) { c.Window.Height = -1 }},
		{"zero scale", func(c *Config) { c.Scene.Scale = 0 }},
		{"short recenter", func(c *Config) { c.Scene.Recenter = []float64{1, 2} }},
		{"bad background", func(c *Config) { c.Scene.Background = "teal" }},
		{"zero interval", func(c *Config) { c.Animation.Interval = 0 }},
		{"loops below infinite", func(c *Config) { c.Animation.Loops = -2 }},
		{"zero subdivisions", func(c *Config) { c.Animation.Subdivisions = 0 }},
		{"negative frame limit", func(c *Config) { c.Viewer.FrameLimit = -5 }},
		{"depth cue above one", func(c *Config) { c.Viewer.DepthCue = 1.5 }},
		{"unknown bond policy", func(c *Config) { c.Loader.BondPolicy = "guess" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Window.Width = 0
	cfg.Animation.Interval = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window size")
	assert.Contains(t, err.Error(), "animation.interval")
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "molview.yaml")
	cfg := DefaultConfig()
	cfg.Animation.Loops = LoopsInfinite
	cfg.Window.Title = "round trip"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
