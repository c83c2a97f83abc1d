package animation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-mol/engine/scene"
	"github.com/Carmen-Shannon/oxy-mol/engine/shape"
	"github.com/Carmen-Shannon/oxy-mol/engine/viewer"

	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	interval = 50 * time.Millisecond
	waitFor  = 2 * time.Second
	poll     = time.Millisecond
)

// recorder is a Target that keeps every snapshot it is sent.
type recorder struct {
	mu       sync.Mutex
	got      []scene.Snapshot
	leased   bool
	released bool
	fail     error
}

func (r *recorder) Lease() (viewer.Lease, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.leased && !r.released {
		return nil, viewer.ErrPlayerActive
	}
	r.leased, r.released = true, false
	return &recorderLease{r: r}, nil
}

func (r *recorder) snapshots() []scene.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scene.Snapshot(nil), r.got...)
}

func (r *recorder) versions() []uint64 {
	var out []uint64
	for _, s := range r.snapshots() {
		out = append(out, s.Version())
	}
	return out
}

func (r *recorder) isReleased() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

type recorderLease struct{ r *recorder }

func (l *recorderLease) Update(src scene.SnapshotSource) error {
	l.r.mu.Lock()
	defer l.r.mu.Unlock()
	if l.r.fail != nil {
		return l.r.fail
	}
	l.r.got = append(l.r.got, src.Snapshot())
	return nil
}

func (l *recorderLease) Viewer() viewer.Viewer { return nil }

func (l *recorderLease) Release() {
	l.r.mu.Lock()
	defer l.r.mu.Unlock()
	l.r.released = true
}

// frames returns n snapshots of one growing scene, so their versions increase.
func frames(t *testing.T, n int) []scene.SnapshotSource {
	t.Helper()
	sc := scene.NewScene("frames")
	out := make([]scene.SnapshotSource, n)
	for i := range n {
		_, err := sc.AddUnnamed(shape.MustSphere(mgl64.Vec3{float64(i), 0, 0}, 0.5))
		require.NoError(t, err)
		out[i] = sc.Snapshot()
	}
	return out
}

func versionsOf(srcs ...scene.SnapshotSource) []uint64 {
	out := make([]uint64, len(srcs))
	for i, s := range srcs {
		out[i] = s.Snapshot().Version()
	}
	return out
}

func advance(t *testing.T, mock *clock.Mock, a Animation, want uint64) {
	t.Helper()
	mock.Add(interval)
	require.Eventually(t, func() bool { return a.Updates() == want }, waitFor, poll)
}

func TestAnimation_PlaysEachFrameOnce(t *testing.T) {
	mock := clock.NewMock()
	fs := frames(t, 3)
	target := &recorder{}

	a, err := NewAnimation(WithInterval(interval), WithLoops(1), WithClock(mock), WithFrames(fs...))
	require.NoError(t, err)
	assert.Equal(t, StateIdle, a.State())

	require.NoError(t, a.Play(target))
	assert.Equal(t, uint64(1), a.Updates())
	assert.Equal(t, StatePlaying, a.State())

	advance(t, mock, a, 2)
	advance(t, mock, a, 3)

	mock.Add(interval)
	select {
	case <-a.Done():
	case <-time.After(waitFor):
		t.Fatal("animation did not stop")
	}
	assert.Equal(t, StateStopped, a.State())
	assert.Equal(t, uint64(3), a.Updates())
	assert.Equal(t, versionsOf(fs...), target.versions())
	assert.True(t, target.isReleased())
	assert.NoError(t, a.Wait(context.Background()))
}

func TestAnimation_FiniteLoopsDeliverLoopsTimesFrames(t *testing.T) {
	mock := clock.NewMock()
	fs := frames(t, 2)
	target := &recorder{}

	a, err := NewAnimation(WithInterval(interval), WithLoops(3), WithClock(mock), WithFrames(fs...))
	require.NoError(t, err)
	require.NoError(t, a.Play(target))

	for want := uint64(2); want <= 6; want++ {
		advance(t, mock, a, want)
		if want >= 3 {
			assert.Equal(t, StateLooping, a.State())
		}
	}
	mock.Add(interval)
	<-a.Done()

	v := versionsOf(fs...)
	assert.Equal(t, []uint64{v[0], v[1], v[0], v[1], v[0], v[1]}, target.versions())
}

func TestAnimation_InfiniteUntilStop(t *testing.T) {
	mock := clock.NewMock()
	target := &recorder{}

	a, err := NewAnimation(WithInterval(interval), WithLoops(Infinite), WithClock(mock), WithFrames(frames(t, 2)...))
	require.NoError(t, err)
	require.NoError(t, a.Play(target))

	for want := uint64(2); want <= 10; want++ {
		advance(t, mock, a, want)
	}
	assert.Equal(t, StateLooping, a.State())

	a.Stop()
	n := a.Updates()
	mock.Add(interval)
	mock.Add(interval)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, a.Wait(ctx))
	assert.Equal(t, StateStopped, a.State())
	assert.Equal(t, n, a.Updates())
	assert.True(t, target.isReleased())
}

func TestAnimation_SkipsFramesWhenLate(t *testing.T) {
	mock := clock.NewMock()
	fs := frames(t, 4)
	target := &recorder{}

	a, err := NewAnimation(WithInterval(interval), WithClock(mock), WithFrames(fs...))
	require.NoError(t, err)
	require.NoError(t, a.Play(target))
	defer a.Stop()

	impl := a.(*animation)
	// A tick that arrives two and a half intervals late shows frame 2; frame 1 is skipped.
	assert.True(t, impl.step(2*interval+interval/2, 1))
	// Another tick within the same frame posts nothing.
	assert.True(t, impl.step(2*interval+interval*3/4, 2))
	// Past the last loop playback ends.
	assert.False(t, impl.step(4*interval, 3))

	v := versionsOf(fs...)
	assert.Equal(t, []uint64{v[0], v[2]}, target.versions())
}

func TestAnimation_Interpolation(t *testing.T) {
	mock := clock.NewMock()
	sc := scene.NewScene("move", scene.WithShape("a", shape.MustSphere(mgl64.Vec3{}, 1)))
	start := sc.Snapshot()
	require.NoError(t, sc.Update("a", shape.MustSphere(mgl64.Vec3{10, 0, 0}, 1)))
	end := sc.Snapshot()

	target := &recorder{}
	a, err := NewAnimation(
		WithInterval(4*interval),
		WithSubdivisions(4),
		WithInterpolation(true),
		WithClock(mock),
		WithFrames(start, end),
	)
	require.NoError(t, err)
	require.NoError(t, a.Play(target))

	advance(t, mock, a, 2)
	got := target.snapshots()
	sh, ok := got[1].Get("a")
	require.True(t, ok)
	assert.InDelta(t, 2.5, sh.Center().X(), 1e-9)

	// The last frame has nothing to blend toward and is held.
	for want := uint64(3); want <= 8; want++ {
		advance(t, mock, a, want)
	}
	mock.Add(interval)
	<-a.Done()
	got = target.snapshots()
	last, _ := got[len(got)-1].Get("a")
	assert.InDelta(t, 10, last.Center().X(), 1e-9)
}

func TestAnimation_ZeroLoopsPlaysNothing(t *testing.T) {
	target := &recorder{}
	a, err := NewAnimation(WithLoops(0), WithFrames(frames(t, 2)...))
	require.NoError(t, err)

	require.NoError(t, a.Play(target))
	assert.Equal(t, StateStopped, a.State())
	assert.Zero(t, a.Updates())
	assert.Empty(t, target.snapshots())
	assert.False(t, target.leased)
}

func TestAnimation_IdleOnlyOperations(t *testing.T) {
	mock := clock.NewMock()
	a, err := NewAnimation(WithClock(mock))
	require.NoError(t, err)

	assert.ErrorIs(t, a.Play(&recorder{}), ErrNoFrames)
	require.NoError(t, a.AddFrame(scene.NewScene("one")))
	assert.Equal(t, 1, a.Len())

	require.NoError(t, a.Play(&recorder{}))
	defer a.Stop()
	assert.ErrorIs(t, a.AddFrame(scene.NewScene("two")), ErrNotIdle)
	assert.ErrorIs(t, a.Play(&recorder{}), ErrNotIdle)
}

func TestAnimation_StopWhileIdle(t *testing.T) {
	a, err := NewAnimation(WithFrames(frames(t, 1)...))
	require.NoError(t, err)
	a.Stop()
	assert.Equal(t, StateStopped, a.State())
	assert.ErrorIs(t, a.Play(&recorder{}), ErrNotIdle)
	<-a.Done()
}

func TestNewAnimation_Validation(t *testing.T) {
	tests := []struct {
		name    string
		options []AnimationBuilderOption
		want    error
	}{
		{name: "zero interval", options: []AnimationBuilderOption{WithInterval(0)}, want: ErrInvalidInterval},
		{name: "negative interval", options: []AnimationBuilderOption{WithInterval(-time.Second)}, want: ErrInvalidInterval},
		{name: "bad loops", options: []AnimationBuilderOption{WithLoops(-2)}, want: ErrInvalidLoops},
		{name: "infinite", options: []AnimationBuilderOption{WithLoops(Infinite)}},
		{name: "zero loops", options: []AnimationBuilderOption{WithLoops(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnimation(tt.options...)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestAnimation_LeaseHeldByAnotherPlayer(t *testing.T) {
	mock := clock.NewMock()
	target := &recorder{}
	first, err := NewAnimation(WithClock(mock), WithLoops(Infinite), WithFrames(frames(t, 1)...))
	require.NoError(t, err)
	second, err := NewAnimation(WithClock(mock), WithFrames(frames(t, 1)...))
	require.NoError(t, err)

	require.NoError(t, first.Play(target))
	assert.ErrorIs(t, second.Play(target), viewer.ErrPlayerActive)
	assert.Equal(t, StateIdle, second.State())

	first.Stop()
	<-first.Done()
	require.NoError(t, second.Play(target))
	second.Stop()
}

func TestAnimation_StopsWhenTargetFails(t *testing.T) {
	mock := clock.NewMock()
	target := &recorder{}
	a, err := NewAnimation(WithInterval(interval), WithClock(mock), WithLoops(Infinite), WithFrames(frames(t, 2)...))
	require.NoError(t, err)
	require.NoError(t, a.Play(target))

	target.mu.Lock()
	target.fail = viewer.ErrViewerClosed
	target.mu.Unlock()
	mock.Add(interval)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	assert.ErrorIs(t, a.Wait(ctx), viewer.ErrViewerClosed)
	assert.Equal(t, StateStopped, a.State())
}

func TestLiveAnimation_RunsUntilGeneratorEnds(t *testing.T) {
	mock := clock.NewMock()
	sc := scene.NewScene("live")
	var seen []int
	gen := func(elapsed time.Duration, tick int) (scene.Snapshot, bool) {
		if tick == 3 {
			return scene.Snapshot{}, false
		}
		seen = append(seen, tick)
		assert.NoError(t, sc.Replace("probe", shape.MustSphere(mgl64.Vec3{elapsed.Seconds(), 0, 0}, 1)))
		return sc.Snapshot(), true
	}
	require.NoError(t, sc.Add("probe", shape.MustSphere(mgl64.Vec3{}, 1)))

	target := &recorder{}
	a, err := NewLiveAnimation(gen, WithInterval(interval), WithClock(mock))
	require.NoError(t, err)
	assert.ErrorIs(t, a.AddFrame(sc), ErrNotIdle)

	require.NoError(t, a.Play(target))
	advance(t, mock, a, 2)
	advance(t, mock, a, 3)
	mock.Add(interval)
	<-a.Done()

	assert.Equal(t, []int{0, 1, 2}, seen)
	got := target.snapshots()
	require.Len(t, got, 3)
	probe, _ := got[2].Get("probe")
	assert.InDelta(t, 2*interval.Seconds(), probe.Center().X(), 1e-9)
}

func TestAnimation_PlaysOnViewer(t *testing.T) {
	mock := clock.NewMock()
	surface := viewer.NewHeadlessSurface(64, 48)
	fs := frames(t, 2)
	v, err := viewer.Render(fs[0], surface)
	require.NoError(t, err)
	defer v.Close()

	a, err := NewAnimation(WithInterval(interval), WithClock(mock), WithFrames(fs...))
	require.NoError(t, err)
	require.NoError(t, a.Play(v))
	assert.ErrorIs(t, v.Update(fs[0]), viewer.ErrPlayerActive)

	advance(t, mock, a, 2)
	mock.Add(interval)
	<-a.Done()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, v.Flush(ctx))
	assert.Equal(t, fs[1].Snapshot().Version(), v.Displayed().Version())
	assert.NoError(t, v.Update(fs[0]))
}
