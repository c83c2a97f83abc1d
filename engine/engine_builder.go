package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/config"
	"github.com/Carmen-Shannon/oxy-mol/engine/loader"
	"github.com/Carmen-Shannon/oxy-mol/engine/window"

	"github.com/benbjohnson/clock"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig replaces the default configuration. NewEngine validates it.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg *config.Config) EngineBuilderOption {
	return func(e *engine) {
		if cfg != nil {
			e.cfg = cfg
		}
	}
}

// WithHeadless renders off-screen without opening a window.
//
// Parameters:
//   - headless: if true, no window is created
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithHeadless(headless bool) EngineBuilderOption {
	return func(e *engine) {
		e.headless = headless
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the tick callback rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.tickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithTickCallback registers the function called each engine tick.
func WithTickCallback(callback func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithLoader replaces the loader built from the config.
func WithLoader(l loader.Loader) EngineBuilderOption {
	return func(e *engine) {
		e.loader = l
	}
}

// WithClock sets the time source for animations, Drive, and the tick loop.
func WithClock(clk clock.Clock) EngineBuilderOption {
	return func(e *engine) {
		if clk != nil {
			e.clk = clk
		}
	}
}

// WithLogger installs l as the process-wide logger used by every package.
func WithLogger(l *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		common.SetLogger(l)
	}
}
