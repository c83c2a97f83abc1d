package viewer

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/camera"
	"github.com/Carmen-Shannon/oxy-mol/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mol/engine/scene"
	"github.com/Carmen-Shannon/oxy-mol/engine/shape"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/iox/imagex"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

func frontCamera() camera.Camera {
	return camera.NewCamera(camera.WithController(
		camera.NewCameraController(camera.WithRadius(30), camera.WithElevation(0), camera.WithAzimuth(0)),
	))
}

func redBall(clickable bool) shape.Shape {
	return shape.MustSphere(mgl64.Vec3{}, 2, shape.WithClickable(clickable), shape.WithColor(common.RGB(1, 0, 0)))
}

func flush(t *testing.T, v Viewer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, v.Flush(ctx))
}

// gatedSurface blocks Present until the test opens the gate.
type gatedSurface struct {
	*HeadlessSurface
	entered chan struct{}
	gate    chan struct{}
	once    sync.Once
}

func (s *gatedSurface) Present(frame *renderer.Frame) error {
	s.once.Do(func() { close(s.entered) })
	<-s.gate
	return s.HeadlessSurface.Present(frame)
}

// flakyRenderer fails the next failures draws, then draws normally.
type flakyRenderer struct {
	renderer.Renderer
	failures atomic.Int32
	failed   atomic.Int32
}

func (r *flakyRenderer) Draw(snap scene.Snapshot, cam camera.Camera) (*renderer.Frame, error) {
	if r.failures.Add(-1) >= 0 {
		r.failed.Add(1)
		return nil, errors.New("draw failed")
	}
	return r.Renderer.Draw(snap, cam)
}

func TestRender_SurfaceBusyUntilClosed(t *testing.T) {
	surface := NewHeadlessSurface(160, 120)
	sc := scene.NewScene("busy")

	v1, err := Render(sc, surface)
	require.NoError(t, err)

	_, err = Render(sc, surface)
	assert.ErrorIs(t, err, ErrSurfaceBusy)

	require.NoError(t, v1.Close())
	<-v1.Done()

	v2, err := Render(sc, surface)
	require.NoError(t, err)
	assert.NotEqual(t, v1.ID(), v2.ID())
	assert.NoError(t, v2.Close())
}

func TestViewer_DrawsInitialSnapshot(t *testing.T) {
	surface := NewHeadlessSurface(200, 100)
	sc := scene.NewScene("initial", scene.WithShape("a", redBall(false)))

	v, err := Render(sc, surface, WithCamera(frontCamera()), WithAutoFit(false))
	require.NoError(t, err)
	defer v.Close()

	flush(t, v)
	assert.Equal(t, sc.Version(), v.Displayed().Version())
	assert.GreaterOrEqual(t, surface.Presented(), 1)

	img, err := v.Capture()
	require.NoError(t, err)
	px := img.RGBAAt(100, 50)
	assert.Greater(t, px.R, px.G)
}

func TestViewer_LatestWinsDropsIntermediates(t *testing.T) {
	surface := &gatedSurface{
		HeadlessSurface: NewHeadlessSurface(120, 80),
		entered:         make(chan struct{}),
		gate:            make(chan struct{}),
	}
	sc := scene.NewScene("mailbox")

	v, err := Render(sc, surface)
	require.NoError(t, err)
	defer v.Close()

	// The first frame is now stuck in Present.
	select {
	case <-surface.entered:
	case <-time.After(waitFor):
		t.Fatal("first frame never presented")
	}

	var last uint64
	for i := range 3 {
		require.NoError(t, sc.Add(string(rune('a'+i)), redBall(false)))
		require.NoError(t, v.Update(sc))
		last = sc.Version()
	}
	close(surface.gate)

	flush(t, v)
	assert.Equal(t, uint64(2), v.Dropped())
	assert.Equal(t, last, v.Displayed().Version())
	assert.Equal(t, 3, v.Displayed().Len())
}

func TestViewer_EventuallyShowsLatest(t *testing.T) {
	surface := NewHeadlessSurface(120, 80)
	sc := scene.NewScene("stream")

	v, err := Render(sc, surface)
	require.NoError(t, err)
	defer v.Close()

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 25 {
				sh := shape.MustSphere(mgl64.Vec3{float64(w), float64(i), 0}, 0.5)
				assert.NoError(t, sc.Add(string(rune('A'+w))+string(rune('a'+i)), sh))
				assert.NoError(t, v.Update(sc))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, v.Update(sc))

	flush(t, v)
	assert.Equal(t, sc.Version(), v.Displayed().Version())
	assert.Equal(t, 100, v.Displayed().Len())
}

func TestViewer_SaveImage(t *testing.T) {
	surface := &gatedSurface{
		HeadlessSurface: NewHeadlessSurface(64, 48),
		entered:         make(chan struct{}),
		gate:            make(chan struct{}),
	}
	v, err := Render(scene.NewScene("save"), surface)
	require.NoError(t, err)
	defer v.Close()

	dir := t.TempDir()
	<-surface.entered
	err = v.SaveImage(filepath.Join(dir, "early.png"))
	assert.ErrorIs(t, err, ErrCapture)
	close(surface.gate)

	flush(t, v)
	path := filepath.Join(dir, "frame.png")
	require.NoError(t, v.SaveImage(path))

	img, _, err := imagex.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())

	err = v.SaveImage(filepath.Join(dir, "frame.unknown"))
	assert.ErrorIs(t, err, ErrCapture)
}

func TestViewer_CloseIsIdempotent(t *testing.T) {
	surface := NewHeadlessSurface(64, 48)
	sc := scene.NewScene("close")
	v, err := Render(sc, surface)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, v.Close())
		}()
	}
	wg.Wait()

	assert.ErrorIs(t, v.Update(sc), ErrViewerClosed)
	assert.ErrorIs(t, v.SaveImage(filepath.Join(t.TempDir(), "x.png")), ErrViewerClosed)
	_, err = v.Capture()
	assert.ErrorIs(t, err, ErrViewerClosed)
	_, err = v.Lease()
	assert.ErrorIs(t, err, ErrViewerClosed)
	assert.ErrorIs(t, v.Flush(context.Background()), ErrViewerClosed)
	assert.NoError(t, v.Err())
}

func TestViewer_CloseRacesUpdates(t *testing.T) {
	surface := NewHeadlessSurface(64, 48)
	sc := scene.NewScene("race", scene.WithShape("a", redBall(false)))
	v, err := Render(sc, surface)
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if err := v.Update(sc); err != nil {
				assert.ErrorIs(t, err, ErrViewerClosed)
				return
			}
		}
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, v.Close())
	close(stop)
	wg.Wait()
}

func TestViewer_ClickDelivery(t *testing.T) {
	surface := NewHeadlessSurface(200, 100)
	sc := scene.NewScene("click",
		scene.WithShape("ball", redBall(true)),
		scene.WithShape("ghost", shape.MustSphere(mgl64.Vec3{6, 0, 0}, 1)),
	)

	clicks := make(chan ClickEvent, 4)
	v, err := Render(sc, surface,
		WithCamera(frontCamera()),
		WithAutoFit(false),
		WithClickHandler(func(ev ClickEvent) { clicks <- ev }),
	)
	require.NoError(t, err)
	defer v.Close()
	flush(t, v)

	surface.Click(100, 50)
	select {
	case ev := <-clicks:
		assert.Equal(t, "ball", ev.ShapeID)
		assert.Equal(t, -1, ev.AtomIndex)
		assert.InDelta(t, 100, ev.X, 1e-9)
	case <-time.After(waitFor):
		t.Fatal("click not delivered")
	}

	// Non-clickable shapes and empty space produce nothing.
	surface.Click(120, 50)
	surface.Click(5, 5)
	select {
	case ev := <-clicks:
		t.Fatalf("unexpected click %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestViewer_LeaseBlocksUpdate(t *testing.T) {
	surface := NewHeadlessSurface(64, 48)
	sc := scene.NewScene("lease")
	v, err := Render(sc, surface)
	require.NoError(t, err)
	defer v.Close()

	l, err := v.Lease()
	require.NoError(t, err)
	_, err = v.Lease()
	assert.ErrorIs(t, err, ErrPlayerActive)
	assert.ErrorIs(t, v.Update(sc), ErrPlayerActive)

	require.NoError(t, sc.Add("a", redBall(false)))
	require.NoError(t, l.Update(sc))
	flush(t, v)
	assert.Equal(t, 1, v.Displayed().Len())

	l.Release()
	l.Release()
	assert.ErrorIs(t, l.Update(sc), ErrLeaseReleased)
	assert.NoError(t, v.Update(sc))
}

func TestViewer_StopsWhenSurfaceCloses(t *testing.T) {
	surface := NewHeadlessSurface(64, 48)
	v, err := Render(scene.NewScene("gone"), surface)
	require.NoError(t, err)

	surface.Close()
	select {
	case <-v.Done():
	case <-time.After(waitFor):
		t.Fatal("viewer did not stop")
	}
	assert.True(t, errors.Is(v.Err(), ErrSurfaceClosed))
	assert.ErrorIs(t, v.Update(scene.NewScene("late")), ErrViewerClosed)
}

func TestViewer_InputMovesCamera(t *testing.T) {
	surface := NewHeadlessSurface(200, 100)
	sc := scene.NewScene("input", scene.WithShape("a", redBall(false)))
	cam := frontCamera()
	v, err := Render(sc, surface, WithCamera(cam), WithAutoFit(false))
	require.NoError(t, err)
	defer v.Close()
	flush(t, v)

	ctrl := cam.Controller()
	radius := ctrl.Radius()
	surface.Scroll(1)
	assert.Less(t, ctrl.Radius(), radius)

	azimuth := ctrl.Azimuth()
	surface.PressKey(common.KeyD)
	assert.NotEqual(t, azimuth, ctrl.Azimuth())

	target := ctrl.Target()
	surface.Drag(10, 0, true)
	assert.NotEqual(t, target, ctrl.Target())

	before := surface.Presented()
	assert.Eventually(t, func() bool { return surface.Presented() > before }, waitFor, tick)
}

func TestViewer_ResizeFollowsSurface(t *testing.T) {
	surface := NewHeadlessSurface(64, 48)
	v, err := Render(scene.NewScene("resize"), surface)
	require.NoError(t, err)
	defer v.Close()
	flush(t, v)

	surface.Resize(100, 80)
	assert.Eventually(t, func() bool {
		f := surface.Last()
		return f.Width() == 100 && f.Height() == 80
	}, waitFor, tick)
}

func TestViewer_FailedDrawKeepsLatest(t *testing.T) {
	surface := NewHeadlessSurface(120, 80)
	sc := scene.NewScene("flaky")
	r := &flakyRenderer{Renderer: renderer.NewRenderer()}

	v, err := Render(sc, surface, WithRenderer(r), WithCamera(frontCamera()), WithAutoFit(false))
	require.NoError(t, err)
	defer v.Close()
	flush(t, v)

	r.failures.Store(2)
	require.NoError(t, sc.Add("a", redBall(false)))
	require.NoError(t, v.Update(sc))

	flush(t, v)
	assert.Equal(t, int32(2), r.failed.Load())
	assert.Equal(t, sc.Version(), v.Displayed().Version())
	assert.Equal(t, 1, v.Displayed().Len())
	assert.Zero(t, v.Dropped())
}
