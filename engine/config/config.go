package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-mol/common"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the YAML configuration of a molview session.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Scene     SceneConfig     `yaml:"scene"`
	Animation AnimationConfig `yaml:"animation"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Loader    LoaderConfig    `yaml:"loader"`
	LogLevel  string          `yaml:"log_level"`
}

type WindowConfig struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Title    string `yaml:"title"`
	Headless bool   `yaml:"headless"`
	VSync    bool   `yaml:"vsync"`
	// FallbackAdapter requests a software WebGPU adapter.
	FallbackAdapter bool `yaml:"fallback_adapter"`
}

type SceneConfig struct {
	Scale      float64   `yaml:"scale"`
	Recenter   []float64 `yaml:"recenter,omitempty"`
	Background string    `yaml:"background"` // #rrggbb
}

type AnimationConfig struct {
	Interval     float64 `yaml:"interval"` // seconds
	Loops        Loops   `yaml:"loops"`
	Interpolate  bool    `yaml:"interpolate"`
	Subdivisions int     `yaml:"subdivisions"`
}

type ViewerConfig struct {
	FrameLimit  int     `yaml:"frame_limit"` // 0 = uncapped
	Profiling   bool    `yaml:"profiling"`
	ClickBuffer int     `yaml:"click_buffer"`
	DepthCue    float64 `yaml:"depth_cue"`
	Workers     int     `yaml:"workers"`
}

type LoaderConfig struct {
	BondPolicy    string  `yaml:"bond_policy"` // infer, explicit
	BondTolerance float64 `yaml:"bond_tolerance"`
	SkipMalformed bool    `yaml:"skip_malformed"`
	Centered      bool    `yaml:"centered"`
}

// Loops is a loop count that reads "infinite" (or -1) as the infinite sentinel.
type Loops int

// LoopsInfinite plays until stopped.
const LoopsInfinite Loops = -1

func (l *Loops) UnmarshalYAML(value *yaml.Node) error {
	s := strings.ToLower(strings.TrimSpace(value.Value))
	if s == "infinite" || s == "inf" {
		*l = LoopsInfinite
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("config: loops: line %d: want a count or \"infinite\", got %q", value.Line, value.Value)
	}
	*l = Loops(n)
	return nil
}

func (l Loops) MarshalYAML() (any, error) {
	if l == LoopsInfinite {
		return "infinite", nil
	}
	return int(l), nil
}

func (l Loops) String() string {
	if l == LoopsInfinite {
		return "infinite"
	}
	return strconv.Itoa(int(l))
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "oxy-mol",
			VSync:  true,
		},
		Scene: SceneConfig{
			Scale:      1,
			Background: common.DefaultBackground.Hex(),
		},
		Animation: AnimationConfig{
			Interval:     0.1,
			Loops:        1,
			Subdivisions: 1,
		},
		Viewer: ViewerConfig{
			FrameLimit:  60,
			ClickBuffer: 64,
			DepthCue:    0.3,
		},
		Loader: LoaderConfig{
			BondPolicy:    "infer",
			BondTolerance: 0.45,
			Centered:      true,
		},
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML file over the defaults and validates the result.
//
// Parameters:
//   - filePath: the YAML file
//
// Returns:
//   - *Config: the configuration
//   - error: an error if the file cannot be read or parsed, or the result is invalid
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", filePath, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over the defaults and validates the result.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - *Config: the configuration
//   - error: an error if the document cannot be parsed or is invalid
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML.
//
// Parameters:
//   - cfg: the configuration
//   - filePath: the destination
//
// Returns:
//   - error: an error if encoding or writing fails
func SaveConfig(cfg *Config, filePath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", filePath, err)
	}
	return nil
}

// Validate checks every field and reports all problems at once.
//
// Returns:
//   - error: nil, or the joined problems, each wrapping ErrInvalid
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		bad("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Scene.Scale <= 0 {
		bad("scene.scale %v must be positive", c.Scene.Scale)
	}
	if n := len(c.Scene.Recenter); n != 0 && n != 3 {
		bad("scene.recenter needs 3 coordinates, got %d", n)
	}
	if _, err := c.Background(); err != nil {
		bad("scene.background: %v", err)
	}
	if c.Animation.Interval <= 0 {
		bad("animation.interval %v must be positive", c.Animation.Interval)
	}
	if c.Animation.Loops < LoopsInfinite {
		bad("animation.loops %d must be >= 0 or infinite", c.Animation.Loops)
	}
	if c.Animation.Subdivisions < 1 {
		bad("animation.subdivisions %d must be at least 1", c.Animation.Subdivisions)
	}
	if c.Viewer.FrameLimit < 0 {
		bad("viewer.frame_limit %d must not be negative", c.Viewer.FrameLimit)
	}
	if c.Viewer.DepthCue < 0 || c.Viewer.DepthCue > 1 {
		bad("viewer.depth_cue %v must be within [0, 1]", c.Viewer.DepthCue)
	}
	switch strings.ToLower(c.Loader.BondPolicy) {
	case "", "infer", "explicit":
	default:
		bad("loader.bond_policy %q must be infer or explicit", c.Loader.BondPolicy)
	}
	if c.Loader.BondTolerance < 0 {
		bad("loader.bond_tolerance %v must not be negative", c.Loader.BondTolerance)
	}
	return errors.Join(errs...)
}

// Background parses the background color.
func (c *Config) Background() (common.Color, error) {
	if c.Scene.Background == "" {
		return common.DefaultBackground, nil
	}
	return common.ParseHexColor(c.Scene.Background)
}

// RecenterPoint returns the configured recenter point and whether one is set.
func (c *Config) RecenterPoint() (mgl64.Vec3, bool) {
	if len(c.Scene.Recenter) != 3 {
		return mgl64.Vec3{}, false
	}
	return mgl64.Vec3{c.Scene.Recenter[0], c.Scene.Recenter[1], c.Scene.Recenter[2]}, true
}

// Interval returns the animation interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Animation.Interval * float64(time.Second))
}
