package renderer

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/camera"
	"github.com/Carmen-Shannon/oxy-mol/engine/scene"
	"github.com/Carmen-Shannon/oxy-mol/engine/shape"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frontCamera looks down -Z from (0, 0, 30) at the origin.
func frontCamera() camera.Camera {
	return camera.NewCamera(camera.WithController(
		camera.NewCameraController(camera.WithRadius(30), camera.WithElevation(0), camera.WithAzimuth(0)),
	))
}

func drawScene(t *testing.T, r Renderer, sc scene.Scene) *Frame {
	t.Helper()
	frame, err := r.Draw(sc.Snapshot(), frontCamera())
	require.NoError(t, err)
	require.NotNil(t, frame)
	return frame
}

func TestRenderer_EmptySnapshot(t *testing.T) {
	r := NewRenderer(WithSize(200, 100))
	defer r.Close()

	sc := scene.NewScene("empty", scene.WithBackground(common.Black))
	frame := drawScene(t, r, sc)

	assert.Equal(t, 200, frame.Width())
	assert.Equal(t, 100, frame.Height())
	assert.Zero(t, frame.Hits())
	assert.Equal(t, sc.Version(), frame.Version)

	px := frame.Image.RGBAAt(3, 3)
	assert.Equal(t, uint8(0), px.R)
	assert.Equal(t, uint8(255), px.A)

	_, ok := frame.Pick(100, 50)
	assert.False(t, ok)
}

func TestRenderer_PickSphere(t *testing.T) {
	r := NewRenderer(WithSize(200, 100))
	defer r.Close()

	sc := scene.NewScene("pick", scene.WithShape("a",
		shape.MustSphere(mgl64.Vec3{}, 2, shape.WithClickable(true), shape.WithColor(common.RGB(1, 0, 0)))))
	frame := drawScene(t, r, sc)
	require.Equal(t, 1, frame.Hits())

	hit, ok := frame.Pick(100, 50)
	require.True(t, ok)
	assert.Equal(t, "a", hit.ShapeID)
	assert.Equal(t, -1, hit.AtomIndex)
	assert.True(t, hit.Clickable)
	assert.InDelta(t, 30, hit.Depth, 1e-6)

	_, ok = frame.Pick(5, 5)
	assert.False(t, ok)

	center := frame.Image.RGBAAt(100, 50)
	corner := frame.Image.RGBAAt(5, 5)
	assert.NotEqual(t, corner, center)
	assert.Greater(t, center.R, center.G)
}

func TestRenderer_ScreenOrientation(t *testing.T) {
	r := NewRenderer(WithSize(200, 100))
	defer r.Close()

	sc := scene.NewScene("axes",
		scene.WithShape("right", shape.MustSphere(mgl64.Vec3{5, 0, 0}, 1)),
		scene.WithShape("up", shape.MustSphere(mgl64.Vec3{0, 5, 0}, 1)),
	)
	frame := drawScene(t, r, sc)

	// 5 units at depth 30 with a 45 degree field of view on a 100 px tall canvas is ~20 px.
	hit, ok := frame.Pick(120, 50)
	require.True(t, ok)
	assert.Equal(t, "right", hit.ShapeID)

	hit, ok = frame.Pick(100, 30)
	require.True(t, ok)
	assert.Equal(t, "up", hit.ShapeID)
}

func TestRenderer_FrontMostWins(t *testing.T) {
	r := NewRenderer(WithSize(200, 100))
	defer r.Close()

	// Inserted nearest first so the result depends on depth sorting, not insertion order.
	sc := scene.NewScene("depth",
		scene.WithShape("near", shape.MustSphere(mgl64.Vec3{0, 0, 10}, 1)),
		scene.WithShape("far", shape.MustSphere(mgl64.Vec3{}, 3)),
	)
	frame := drawScene(t, r, sc)
	require.Equal(t, 2, frame.Hits())

	hit, ok := frame.Pick(100, 50)
	require.True(t, ok)
	assert.Equal(t, "near", hit.ShapeID)

	// Outside the small near sphere but inside the large far one.
	hit, ok = frame.Pick(100, 40)
	require.True(t, ok)
	assert.Equal(t, "far", hit.ShapeID)
}

func TestRenderer_SkipsHiddenAndBehindCamera(t *testing.T) {
	r := NewRenderer(WithSize(200, 100))
	defer r.Close()

	sc := scene.NewScene("skip",
		scene.WithShape("hidden", shape.MustSphere(mgl64.Vec3{}, 2, shape.WithVisible(false))),
		scene.WithShape("behind", shape.MustSphere(mgl64.Vec3{0, 0, 40}, 2)),
		scene.WithShape("outside", shape.MustSphere(mgl64.Vec3{500, 0, 0}, 2)),
	)
	frame := drawScene(t, r, sc)
	assert.Zero(t, frame.Hits())
}

func TestRenderer_AppliesSceneTransform(t *testing.T) {
	r := NewRenderer(WithSize(200, 100))
	defer r.Close()

	sc := scene.NewScene("moved",
		scene.WithShape("a", shape.MustSphere(mgl64.Vec3{10, 0, 0}, 1)),
		scene.WithRecenter(mgl64.Vec3{10, 0, 0}),
		scene.WithScale(2),
	)
	frame := drawScene(t, r, sc)

	hit, ok := frame.Pick(100, 50)
	require.True(t, ok)
	assert.Equal(t, "a", hit.ShapeID)
	// Radius 1 scaled by 2 is ~8 px on screen.
	_, ok = frame.Pick(106, 50)
	assert.True(t, ok)
	_, ok = frame.Pick(110, 50)
	assert.False(t, ok)
}

func TestRenderer_StickAndWireframe(t *testing.T) {
	r := NewRenderer(WithSize(200, 100))
	defer r.Close()

	stick, err := shape.NewStick(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, 0.5)
	require.NoError(t, err)
	sc := scene.NewScene("stick",
		scene.WithShape("bond", stick),
		scene.WithShape("cage", shape.MustSphere(mgl64.Vec3{0, 10, 0}, 1, shape.WithWireframe(true))),
	)
	frame := drawScene(t, r, sc)
	require.Equal(t, 2, frame.Hits())

	hit, ok := frame.Pick(110, 50)
	require.True(t, ok)
	assert.Equal(t, "bond", hit.ShapeID)
	_, ok = frame.Pick(100, 45)
	assert.False(t, ok)
}

func TestRenderer_ParallelMatchesSerial(t *testing.T) {
	var opts []scene.SceneBuilderOption
	for i := range 30 {
		for j := range 30 {
			p := mgl64.Vec3{float64(i)*0.5 - 7.5, float64(j)*0.5 - 7.5, float64((i+j)%5) * 0.3}
			opts = append(opts, scene.WithShapes(shape.MustSphere(p, 0.2)))
		}
	}
	sc := scene.NewScene("grid", opts...)

	serial := NewRenderer(WithSize(160, 120), WithWorkers(1))
	defer serial.Close()
	parallel := NewRenderer(WithSize(160, 120), WithWorkers(4))
	defer parallel.Close()

	a := drawScene(t, serial, sc)
	b := drawScene(t, parallel, sc)
	assert.Equal(t, 900, a.Hits())
	assert.Equal(t, a.Hits(), b.Hits())
	assert.Equal(t, a.Image.Pix, b.Image.Pix)
}

func TestRenderer_NoWorkerLeak(t *testing.T) {
	var opts []scene.SceneBuilderOption
	for i := range parallelThreshold + 8 {
		opts = append(opts, scene.WithShapes(shape.MustSphere(mgl64.Vec3{float64(i%40)*0.3 - 6, float64(i/40)*0.3 - 2, 0}, 0.1)))
	}
	sc := scene.NewScene("many", opts...)

	warm := NewRenderer(WithSize(64, 48), WithWorkers(4))
	drawScene(t, warm, sc)
	require.NoError(t, warm.Close())
	before := runtime.NumGoroutine()

	for range 10 {
		r := NewRenderer(WithSize(64, 48), WithWorkers(4))
		drawScene(t, r, sc)
		require.NoError(t, r.Close())
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRenderer_ResizeAndClose(t *testing.T) {
	r := NewRenderer(WithSize(200, 100))

	require.NoError(t, r.Resize(0, 50))
	w, h := r.Size()
	assert.Equal(t, 200, w)
	assert.Equal(t, 100, h)

	require.NoError(t, r.Resize(64, 48))
	frame := drawScene(t, r, scene.NewScene("s"))
	assert.Equal(t, 64, frame.Width())
	assert.Equal(t, 48, frame.Height())

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	_, err := r.Draw(scene.NewScene("s").Snapshot(), frontCamera())
	assert.ErrorIs(t, err, ErrRendererClosed)
	assert.ErrorIs(t, r.Resize(10, 10), ErrRendererClosed)
}

func TestHit_Contains(t *testing.T) {
	cyl := Hit{kind: shape.PrimitiveCylinder, a: mgl64.Vec2{0, 0}, b: mgl64.Vec2{10, 0}, radius: 2}
	sphere := Hit{kind: shape.PrimitiveSphere, a: mgl64.Vec2{0, 0}, b: mgl64.Vec2{0, 0}, radius: 2}

	tests := []struct {
		name string
		hit  Hit
		x, y float64
		want bool
	}{
		{"cylinder body", cyl, 5, 1.5, true},
		{"cylinder side", cyl, 5, 2.5, false},
		{"cylinder cap", cyl, -1, 0, true},
		{"past cylinder end", cyl, 12.5, 0, false},
		{"sphere inside", sphere, 1, 1, true},
		{"sphere edge", sphere, 2, 0, true},
		{"sphere outside", sphere, 1.5, 1.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.hit.Contains(tt.x, tt.y))
		})
	}
}

func TestFrame_NilSafe(t *testing.T) {
	var f *Frame
	assert.Zero(t, f.Width())
	assert.Zero(t, f.Hits())
	_, ok := f.Pick(0, 0)
	assert.False(t, ok)
}

func TestWGPUPresenter_CloseWithoutHandles(t *testing.T) {
	p := &wgpuPresenter{mu: &sync.Mutex{}, staging: make([]byte, 16)}
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, p.closed)
	assert.Nil(t, p.instance)
	assert.Nil(t, p.staging)
	assert.ErrorIs(t, p.Present(nil), ErrPresenterClosed)
}
