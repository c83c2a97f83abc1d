package animation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/scene"
	"github.com/Carmen-Shannon/oxy-mol/engine/viewer"

	"github.com/benbjohnson/clock"
)

// Generator produces the snapshot for a tick of a live animation. Returning false ends playback.
type Generator func(elapsed time.Duration, tick int) (scene.Snapshot, bool)

// Target is what an animation plays on. viewer.Viewer satisfies it.
type Target interface {
	// Lease acquires the exclusive update rights for the duration of playback.
	Lease() (viewer.Lease, error)
}

// Animation replays snapshots on a viewer at a fixed interval.
//
// A frame animation holds an ordered list of snapshots. The frame shown at a tick is
// chosen from the elapsed clock time, not from the number of ticks, so a slow viewer
// makes playback skip frames rather than run late. With interpolation enabled the
// shown state blends the two frames around the current time.
//
// A live animation asks a Generator for each tick instead.
//
// Animations move from StateIdle to StatePlaying, then StateLooping on later passes,
// and end in StateStopped. An animation plays once.
type Animation interface {
	// AddFrame appends a snapshot of src.
	//
	// Parameters:
	//   - src: a Scene or a Snapshot
	//
	// Returns:
	//   - error: ErrNotIdle once playback has started, or for a live animation
	AddFrame(src scene.SnapshotSource) error

	// Len returns the number of frames.
	Len() int

	// Interval returns the time between frames.
	Interval() time.Duration

	// Loops returns the loop count, or Infinite.
	Loops() int

	// Interpolate reports whether frames are blended.
	Interpolate() bool

	// Play leases target, shows the first frame before returning, and keeps playing on
	// its own goroutine.
	//
	// Parameters:
	//   - target: the viewer to play on
	//
	// Returns:
	//   - error: ErrNotIdle if already played, ErrNoFrames for an empty frame animation,
	//     or the lease error (viewer.ErrPlayerActive, viewer.ErrViewerClosed)
	Play(target Target) error

	// Stop ends playback at the next tick. No update reaches the viewer after Stop returns.
	// Stopping an idle animation moves it straight to StateStopped.
	Stop()

	// Wait blocks until playback stops.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: ctx.Err() on timeout, otherwise the error that ended playback early, or nil
	Wait(ctx context.Context) error

	// Done is closed once the animation reaches StateStopped.
	Done() <-chan struct{}

	// State returns the playback state.
	State() State

	// Updates returns how many snapshots were posted to the viewer.
	Updates() uint64

	// Err returns the error that ended playback early, such as the viewer closing, or nil.
	Err() error
}

type animation struct {
	frames       []scene.Snapshot
	generator    Generator
	interval     time.Duration
	loops        int
	interpolate  bool
	subdivisions int
	clk          clock.Clock

	// stepMu serializes ticks against Stop.
	stepMu     sync.Mutex
	lastCursor int

	mu       sync.Mutex
	state    State
	stopping bool
	cancel   context.CancelFunc
	lease    viewer.Lease
	err      error

	updates  atomic.Uint64
	done     chan struct{}
	doneOnce sync.Once
}

var _ Animation = &animation{}

// NewAnimation creates an idle frame animation. Defaults: 100ms interval, one loop,
// no interpolation, wall clock.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Animation: the animation
//   - error: ErrInvalidInterval or ErrInvalidLoops for bad options
func NewAnimation(options ...AnimationBuilderOption) (Animation, error) {
	a := &animation{
		interval:     100 * time.Millisecond,
		loops:        1,
		subdivisions: 1,
		lastCursor:   -1,
		done:         make(chan struct{}),
	}
	for _, option := range options {
		option(a)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// NewLiveAnimation creates an animation that calls gen once per interval. It runs until gen
// returns false or Stop is called.
//
// Parameters:
//   - gen: the snapshot generator
//   - options: functional options; frame and loop options are ignored
//
// Returns:
//   - Animation: the animation
//   - error: ErrInvalidInterval for a bad interval
func NewLiveAnimation(gen Generator, options ...AnimationBuilderOption) (Animation, error) {
	if gen == nil {
		return nil, errors.New("animation: nil generator")
	}
	a := &animation{
		interval:     100 * time.Millisecond,
		subdivisions: 1,
		lastCursor:   -1,
		done:         make(chan struct{}),
	}
	for _, option := range options {
		option(a)
	}
	a.generator = gen
	a.frames = nil
	a.loops = Infinite
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *animation) validate() error {
	if a.interval <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, a.interval)
	}
	if a.loops < Infinite {
		return fmt.Errorf("%w: %d", ErrInvalidLoops, a.loops)
	}
	return nil
}

func (a *animation) AddFrame(src scene.SnapshotSource) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateIdle || a.generator != nil {
		return ErrNotIdle
	}
	a.frames = append(a.frames, src.Snapshot())
	return nil
}

func (a *animation) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.frames)
}

func (a *animation) Interval() time.Duration { return a.interval }
func (a *animation) Loops() int              { return a.loops }
func (a *animation) Interpolate() bool       { return a.interpolate }

func (a *animation) Play(target Target) error {
	a.mu.Lock()
	if a.state != StateIdle {
		a.mu.Unlock()
		return ErrNotIdle
	}
	if a.generator == nil && len(a.frames) == 0 {
		a.mu.Unlock()
		return ErrNoFrames
	}
	if a.generator == nil && a.loops == 0 {
		a.state = StateStopped
		a.mu.Unlock()
		a.closeDone()
		common.Logger().Info("animation stopped", "reason", "zero loops")
		return nil
	}
	lease, err := target.Lease()
	if err != nil {
		a.mu.Unlock()
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.lease = lease
	a.cancel = cancel
	a.state = StatePlaying
	a.mu.Unlock()

	d, err := startDriver(a.clk, a.interval/time.Duration(a.subdivisions))
	if err != nil {
		a.finish(err)
		return err
	}
	common.Logger().Info("animation playing", "frames", len(a.frames), "interval", a.interval, "loops", a.loops, "interpolate", a.interpolate, "live", a.generator != nil)

	if !a.step(0, 0) {
		d.stop()
		a.finish(nil)
		return nil
	}
	go func() {
		defer d.stop()
		err := d.run(ctx, a.step)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		a.finish(err)
	}()
	return nil
}

// step handles one tick. It returns false when playback is over.
func (a *animation) step(elapsed time.Duration, tick int) bool {
	a.stepMu.Lock()
	defer a.stepMu.Unlock()

	a.mu.Lock()
	stopping, lease := a.stopping, a.lease
	a.mu.Unlock()
	if stopping {
		return false
	}

	var snap scene.Snapshot
	state := StatePlaying
	if a.generator != nil {
		var ok bool
		if snap, ok = a.generator(elapsed, tick); !ok {
			return false
		}
	} else {
		var ok, fresh bool
		snap, state, ok, fresh = a.frameAt(elapsed)
		if !ok {
			return false
		}
		if !fresh {
			return true
		}
	}

	a.mu.Lock()
	if a.state != state {
		common.Logger().Debug("animation state", "from", a.state, "to", state)
		a.state = state
	}
	a.mu.Unlock()

	if err := lease.Update(snap); err != nil {
		a.mu.Lock()
		a.err = err
		a.mu.Unlock()
		return false
	}
	a.updates.Add(1)
	return true
}

// frameAt picks the snapshot for elapsed. ok is false once every loop has been played;
// fresh is false when nothing changed since the last tick.
func (a *animation) frameAt(elapsed time.Duration) (snap scene.Snapshot, state State, ok, fresh bool) {
	n := len(a.frames)
	cursor := int(elapsed / a.interval)
	if a.loops != Infinite && cursor >= a.loops*n {
		return scene.Snapshot{}, StateStopped, false, false
	}

	state = StatePlaying
	if cursor >= n {
		state = StateLooping
	}
	current := a.frames[cursor%n]
	frac := float64(elapsed%a.interval) / float64(a.interval)

	if !a.interpolate || frac == 0 {
		if cursor == a.lastCursor {
			return current, state, true, false
		}
		a.lastCursor = cursor
		return current, state, true, true
	}

	a.lastCursor = cursor
	next := cursor + 1
	if a.loops != Infinite && next >= a.loops*n {
		return current, state, true, true
	}
	return scene.InterpolateSnapshots(current, a.frames[next%n], frac), state, true, true
}

func (a *animation) Stop() {
	a.stepMu.Lock()
	defer a.stepMu.Unlock()

	a.mu.Lock()
	switch {
	case a.state == StateIdle:
		a.state = StateStopped
		a.mu.Unlock()
		a.closeDone()
		return
	case a.state == StateStopped || a.stopping:
		a.mu.Unlock()
		return
	}
	a.stopping = true
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (a *animation) finish(err error) {
	a.mu.Lock()
	if err != nil && a.err == nil {
		a.err = err
	}
	a.state = StateStopped
	lease := a.lease
	a.lease = nil
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()

	if lease != nil {
		lease.Release()
	}
	a.closeDone()
	common.Logger().Info("animation stopped", "updates", a.updates.Load(), "err", a.Err())
}

func (a *animation) closeDone() {
	a.doneOnce.Do(func() { close(a.done) })
}

func (a *animation) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *animation) Done() <-chan struct{} { return a.done }

func (a *animation) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *animation) Updates() uint64 { return a.updates.Load() }

func (a *animation) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}
