package animation

import (
	"time"

	"github.com/Carmen-Shannon/oxy-mol/engine/scene"

	"github.com/benbjohnson/clock"
)

// AnimationBuilderOption is a functional option applied to an animation during construction.
type AnimationBuilderOption func(*animation)

// WithInterval sets the time between frames. It must be positive.
//
// Parameters:
//   - interval: the frame interval
//
// Returns:
//   - AnimationBuilderOption: a function that applies the interval option to an animation
func WithInterval(interval time.Duration) AnimationBuilderOption {
	return func(a *animation) {
		a.interval = interval
	}
}

// WithLoops sets how many times the frames are played. 0 plays nothing; Infinite plays until Stop.
//
// Parameters:
//   - loops: the loop count
//
// Returns:
//   - AnimationBuilderOption: a function that applies the loop option to an animation
func WithLoops(loops int) AnimationBuilderOption {
	return func(a *animation) {
		a.loops = loops
	}
}

// WithInterpolation blends the two frames around the current time instead of holding each frame.
// Use it together with WithSubdivisions to get in-between states at regular ticks.
func WithInterpolation(enabled bool) AnimationBuilderOption {
	return func(a *animation) {
		a.interpolate = enabled
	}
}

// WithSubdivisions ticks n times per frame interval. Values below 1 are ignored.
//
// Parameters:
//   - n: ticks per frame
//
// Returns:
//   - AnimationBuilderOption: a function that applies the subdivision option to an animation
func WithSubdivisions(n int) AnimationBuilderOption {
	return func(a *animation) {
		if n >= 1 {
			a.subdivisions = n
		}
	}
}

// WithClock sets the time source. Tests pass clock.NewMock().
func WithClock(clk clock.Clock) AnimationBuilderOption {
	return func(a *animation) {
		a.clk = clk
	}
}

// WithFrames appends snapshots of each source as frames.
//
// Parameters:
//   - sources: Scenes or Snapshots
//
// Returns:
//   - AnimationBuilderOption: a function that applies the frames to an animation
func WithFrames(sources ...scene.SnapshotSource) AnimationBuilderOption {
	return func(a *animation) {
		for _, src := range sources {
			a.frames = append(a.frames, src.Snapshot())
		}
	}
}
