package engine

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-mol/engine/animation"
	"github.com/Carmen-Shannon/oxy-mol/engine/config"
	"github.com/Carmen-Shannon/oxy-mol/engine/loader"
	"github.com/Carmen-Shannon/oxy-mol/engine/shape"

	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func headless(t *testing.T, options ...EngineBuilderOption) Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Window.Width, cfg.Window.Height = 160, 120
	e, err := NewEngine(append([]EngineBuilderOption{WithConfig(cfg), WithHeadless(true)}, options...)...)
	require.NoError(t, err)
	t.Cleanup(e.Quit)
	return e
}

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Animation.Interval = 0
	_, err := NewEngine(WithConfig(cfg), WithHeadless(true))
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestEngine_NewSceneUsesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scene.Scale = 3
	cfg.Scene.Recenter = []float64{1, 0, 0}
	cfg.Scene.Background = "#000000"
	e, err := NewEngine(WithConfig(cfg), WithHeadless(true))
	require.NoError(t, err)
	defer e.Quit()

	sc := e.NewScene("configured")
	assert.Equal(t, 3.0, sc.Scale())
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, sc.RecenterPoint())
	assert.Equal(t, "#000000", sc.Background().Hex())
}

func TestEngine_LoadScene(t *testing.T) {
	e := headless(t)

	sc, err := e.LoadScene("mixed",
		filepath.Join("loader", "testdata", "dipeptide.cif"),
		filepath.Join("loader", "testdata", "ligands.sdf"),
	)
	assert.ErrorIs(t, err, loader.ErrMalformedRecord)
	require.NotNil(t, sc)
	assert.Equal(t, []string{"dipeptide", "ligands/0", "ligands/1", "ligands/2"}, sc.IDs())

	p, ok := sc.Get("dipeptide")
	require.True(t, ok)
	_, isProtein := p.(*shape.Protein)
	assert.True(t, isProtein)
}

func TestEngine_RenderHeadlessViewers(t *testing.T) {
	e := headless(t)
	sc := e.NewScene("view")
	require.NoError(t, sc.Add("a", shape.MustSphere(mgl64.Vec3{}, 1)))

	v1, err := e.Render(sc)
	require.NoError(t, err)
	v2, err := e.Render(sc)
	require.NoError(t, err, "headless viewers each get a surface")
	assert.Len(t, e.Viewers(), 2)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, v1.Flush(ctx))
	img, err := v1.Capture()
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())

	require.NoError(t, v2.Close())
	assert.Eventually(t, func() bool { return len(e.Viewers()) == 1 }, waitFor, time.Millisecond)

	e.Quit()
	<-v1.Done()
	_, err = e.Render(sc)
	assert.Error(t, err)
}

func TestEngine_AnimateUsesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Animation.Interval = 0.25
	cfg.Animation.Loops = config.LoopsInfinite
	cfg.Animation.Interpolate = true
	e, err := NewEngine(WithConfig(cfg), WithHeadless(true))
	require.NoError(t, err)
	defer e.Quit()

	a, err := e.Animate(e.NewScene("f0"), e.NewScene("f1"))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, a.Interval())
	assert.Equal(t, animation.Infinite, a.Loops())
	assert.True(t, a.Interpolate())
	assert.Equal(t, 2, a.Len())
}

func TestEngine_DriveStopsOnQuit(t *testing.T) {
	mock := clock.NewMock()
	e := headless(t, WithClock(mock))

	var ticks atomic.Int64
	errc := make(chan error, 1)
	go func() {
		errc <- e.Drive(context.Background(), func(time.Duration, int) bool {
			ticks.Add(1)
			return true
		})
	}()
	require.Eventually(t, func() bool { return ticks.Load() == 1 }, waitFor, time.Millisecond)

	mock.Add(e.Config().Interval())
	require.Eventually(t, func() bool { return ticks.Load() == 2 }, waitFor, time.Millisecond)

	e.Quit()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitFor):
		t.Fatal("drive did not stop")
	}
}

func TestEngine_RunHeadlessUntilQuit(t *testing.T) {
	mock := clock.NewMock()
	var ticks atomic.Int64
	e := headless(t, WithClock(mock), WithTickRate(10), WithTickCallback(func(dt float32) {
		ticks.Add(1)
	}))

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	assert.Eventually(t, func() bool {
		mock.Add(100 * time.Millisecond)
		return ticks.Load() > 0
	}, waitFor, 5*time.Millisecond)

	e.Quit()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Run did not return")
	}
}

// lockedBuffer is a bytes.Buffer safe for concurrent log writes.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEngine_RunLogsTickFailure(t *testing.T) {
	var out lockedBuffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&out, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	// An infinite rate rounds to a zero interval, which the tick loop rejects.
	e := headless(t, WithTickRate(math.Inf(1)), WithTickCallback(func(float32) {}))

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), animation.ErrInvalidInterval.Error())
	}, waitFor, 5*time.Millisecond)

	e.Quit()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, 1, strings.Count(out.String(), animation.ErrInvalidInterval.Error()))
}
