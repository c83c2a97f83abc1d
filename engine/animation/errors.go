package animation

import "errors"

var (
	// ErrNotIdle is returned when an operation that needs an idle animation (AddFrame, Play)
	// is called after playback started or stopped.
	ErrNotIdle = errors.New("animation: not idle")

	// ErrNoFrames is returned by Play on a frame animation without frames.
	ErrNoFrames = errors.New("animation: no frames")

	// ErrInvalidInterval is returned for a non-positive interval.
	ErrInvalidInterval = errors.New("animation: interval must be positive")

	// ErrInvalidLoops is returned for a loop count below Infinite.
	ErrInvalidLoops = errors.New("animation: loops must be >= 0 or Infinite")
)
