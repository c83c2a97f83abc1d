package renderer

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/camera"
	"github.com/Carmen-Shannon/oxy-mol/engine/scene"
	"github.com/Carmen-Shannon/oxy-mol/engine/shape"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gg"
)

// ErrRendererClosed is returned by Draw and Resize after Close.
var ErrRendererClosed = errors.New("renderer: closed")

// parallelThreshold is the primitive count above which projection is spread over the worker pool.
const parallelThreshold = 512

// Renderer rasterizes scene snapshots into images.
//
// Spheres and cylinders are drawn as shaded impostors, back to front, onto a CPU canvas.
// Every drawn primitive is remembered in the resulting Frame so clicks can be mapped back
// to shapes and atoms.
type Renderer interface {
	// Size returns the canvas size in pixels.
	//
	// Returns:
	//   - int: width
	//   - int: height
	Size() (int, int)

	// Resize changes the canvas size. Non-positive sizes are ignored.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if the canvas could not be resized
	Resize(width, height int) error

	// Draw rasterizes snap as seen through cam. The camera's aspect ratio is updated to match the canvas.
	//
	// Parameters:
	//   - snap: the snapshot to draw
	//   - cam: the camera to project with
	//
	// Returns:
	//   - *Frame: the finished frame, owned by the caller
	//   - error: an error if drawing failed
	Draw(snap scene.Snapshot, cam camera.Camera) (*Frame, error)

	// Close releases the canvas. Further calls to Draw fail with ErrRendererClosed.
	//
	// Returns:
	//   - error: an error if releasing the canvas failed
	Close() error
}

// lighting holds Phong coefficients for a head light placed up and to the left of the viewer.
type lighting struct {
	ambient   float64
	diffuse   float64
	specular  float64
	shininess float64
}

type renderer struct {
	mu *sync.Mutex

	width, height int
	ctx           *gg.Context
	closed        bool

	workers int

	light    lighting
	depthCue float64 // fraction of the way toward the background for the farthest primitive
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer with an 800x600 canvas unless options say otherwise.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Renderer: the new renderer
func NewRenderer(options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:      &sync.Mutex{},
		width:   800,
		height:  600,
		workers: max(runtime.NumCPU()-1, 1),
		light: lighting{
			ambient:   0.25,
			diffuse:   0.75,
			specular:  0.35,
			shininess: 24,
		},
		depthCue: 0.3,
	}
	for _, option := range options {
		option(r)
	}
	r.ctx = gg.NewContext(r.width, r.height)
	return r
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRendererClosed
	}
	if width <= 0 || height <= 0 || (width == r.width && height == r.height) {
		return nil
	}
	if err := r.ctx.Resize(width, height); err != nil {
		return fmt.Errorf("renderer: resize to %dx%d: %w", width, height, err)
	}
	r.width, r.height = width, height
	return nil
}

func (r *renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.ctx.Close()
}

// item is a projected primitive waiting to be drawn.
type item struct {
	prim      shape.Primitive
	shapeID   string
	clickable bool
	wireframe bool

	a, b    mgl64.Vec2
	radius  float64 // pixels
	depth   float64
	visible bool
}

func (r *renderer) Draw(snap scene.Snapshot, cam camera.Camera) (*Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRendererClosed
	}

	cam.SetAspect(float64(r.width) / float64(r.height))
	items := r.collect(snap)
	r.project(items, cam)

	drawn := items[:0]
	for _, it := range items {
		if it.visible {
			drawn = append(drawn, it)
		}
	}
	// Far to near so nearer primitives paint over farther ones.
	slices.SortStableFunc(drawn, func(x, y item) int {
		return cmp.Compare(y.depth, x.depth)
	})

	bg := snap.Background()
	r.ctx.ClearWithColor(toRGBA(bg, 1))

	near, far := math.Inf(1), math.Inf(-1)
	for _, it := range drawn {
		near = math.Min(near, it.depth)
		far = math.Max(far, it.depth)
	}

	hits := make([]Hit, 0, len(drawn))
	for _, it := range drawn {
		c := it.prim.Color
		if r.depthCue > 0 && far > near {
			c = c.Lerp(bg, r.depthCue*(it.depth-near)/(far-near))
		}
		if err := r.drawItem(it, c); err != nil {
			return nil, fmt.Errorf("renderer: draw %q: %w", it.shapeID, err)
		}
		hits = append(hits, Hit{
			ShapeID:   it.shapeID,
			AtomIndex: it.prim.AtomIndex,
			Clickable: it.clickable,
			Depth:     it.depth,
			kind:      it.prim.Kind,
			a:         it.a,
			b:         it.b,
			radius:    it.radius,
		})
	}

	if err := r.ctx.FlushGPU(); err != nil {
		return nil, fmt.Errorf("renderer: flush: %w", err)
	}
	return &Frame{
		Image:   toRGBAImage(r.ctx.Image()),
		Version: snap.Version(),
		hits:    hits,
	}, nil
}

// collect flattens the visible shapes of snap into world-space primitives.
func (r *renderer) collect(snap scene.Snapshot) []item {
	scale, offset := snap.Scale(), snap.Offset()
	var items []item
	for id, sh := range snap.All() {
		st := sh.Style()
		if !st.Visible {
			continue
		}
		for _, p := range sh.Primitives() {
			items = append(items, item{
				prim:      p.Transformed(scale, offset),
				shapeID:   id,
				clickable: st.Clickable,
				wireframe: st.Wireframe,
			})
		}
	}
	return items
}

// project fills in screen geometry for every item, in parallel for large scenes.
func (r *renderer) project(items []item, cam camera.Camera) {
	vp := cam.ViewProjectionMatrix()
	frustum := common.ExtractFrustum(vp)
	p := projector{
		vp:      vp,
		frustum: frustum,
		near:    cam.Near(),
		width:   float64(r.width),
		height:  float64(r.height),
		focal:   float64(r.height) / (2 * math.Tan(cam.Fov()/2)),
	}

	if r.workers <= 1 || len(items) < parallelThreshold {
		for i := range items {
			p.project(&items[i])
		}
		return
	}

	common.ParallelRange(len(items), r.workers*4, func(from, to int) {
		for i := range items[from:to] {
			p.project(&items[from+i])
		}
	})
}

// projector maps world-space primitives to pixels. It is read-only and shared by workers.
type projector struct {
	vp      mgl64.Mat4
	frustum common.Frustum
	near    float64
	width   float64
	height  float64
	focal   float64
}

func (p projector) point(v mgl64.Vec3) (mgl64.Vec2, float64, bool) {
	clip := p.vp.Mul4x1(v.Vec4(1))
	w := clip.W()
	if w <= p.near {
		return mgl64.Vec2{}, w, false
	}
	x := (clip.X()/w + 1) / 2 * p.width
	y := (1 - clip.Y()/w) / 2 * p.height
	return mgl64.Vec2{x, y}, w, true
}

func (p projector) project(it *item) {
	prim := it.prim
	switch prim.Kind {
	case shape.PrimitiveSphere:
		if !p.frustum.IntersectsSphere(prim.A, prim.Radius) {
			return
		}
		a, w, ok := p.point(prim.A)
		if !ok {
			return
		}
		it.a, it.b = a, a
		it.depth = w
		it.radius = prim.Radius * p.focal / w
	case shape.PrimitiveCylinder:
		mid := prim.A.Add(prim.B).Mul(0.5)
		if !p.frustum.IntersectsSphere(mid, prim.B.Sub(prim.A).Len()/2+prim.Radius) {
			return
		}
		a, wa, okA := p.point(prim.A)
		b, wb, okB := p.point(prim.B)
		if !okA || !okB {
			return
		}
		it.a, it.b = a, b
		it.depth = (wa + wb) / 2
		it.radius = prim.Radius * p.focal / it.depth
	default:
		return
	}
	it.visible = it.radius > 0.05
}

func (r *renderer) drawItem(it item, c common.Color) error {
	alpha := it.prim.Opacity
	if it.wireframe {
		r.ctx.SetStrokeBrush(gg.Solid(toRGBA(c, alpha)))
		r.ctx.SetLineWidth(1)
		if it.prim.Kind == shape.PrimitiveSphere {
			r.ctx.DrawCircle(it.a.X(), it.a.Y(), it.radius)
		} else {
			r.ctx.MoveTo(it.a.X(), it.a.Y())
			r.ctx.LineTo(it.b.X(), it.b.Y())
		}
		return r.ctx.Stroke()
	}

	if it.prim.Kind == shape.PrimitiveCylinder && it.b.Sub(it.a).Len() >= 0.5 {
		return r.drawCylinder(it, c, alpha)
	}
	return r.drawSphere(it, c, alpha)
}

// drawSphere fills a disc with a radial gradient whose focus sits toward the light.
func (r *renderer) drawSphere(it item, c common.Color, alpha float64) error {
	x, y, rad := it.a.X(), it.a.Y(), it.radius
	brush := gg.NewRadialGradientBrush(x, y, 0, rad).SetFocus(x-0.35*rad, y-0.35*rad)
	for _, off := range []float64{0, 0.3, 0.6, 0.85, 1} {
		brush.AddColorStop(off, r.light.shade(c, math.Sqrt(1-off*off), alpha))
	}
	r.ctx.SetFillBrush(brush)
	r.ctx.DrawCircle(x, y, rad)
	return r.ctx.Fill()
}

// drawCylinder strokes the axis with round caps and a gradient across its width.
func (r *renderer) drawCylinder(it item, c common.Color, alpha float64) error {
	axis := it.b.Sub(it.a).Normalize()
	n := mgl64.Vec2{-axis.Y(), axis.X()}
	if n.Y() > 0 {
		n = n.Mul(-1) // lit side faces up
	}
	mid := it.a.Add(it.b).Mul(0.5)
	from := mid.Add(n.Mul(it.radius))
	to := mid.Sub(n.Mul(it.radius))

	// u runs across the cylinder from the lit edge (0) to the far edge (1); the
	// highlight sits a third of the way in.
	brush := gg.NewLinearGradientBrush(from.X(), from.Y(), to.X(), to.Y())
	for _, u := range []float64{0, 0.33, 0.66, 1} {
		s := (u - 0.33) / 0.67
		if u < 0.33 {
			s = (0.33 - u) / 0.33
		}
		brush.AddColorStop(u, r.light.shade(c, math.Sqrt(1-s*s), alpha))
	}
	r.ctx.SetStrokeBrush(brush)
	r.ctx.SetLineWidth(2 * it.radius)
	r.ctx.SetLineCap(gg.LineCapRound)
	r.ctx.MoveTo(it.a.X(), it.a.Y())
	r.ctx.LineTo(it.b.X(), it.b.Y())
	return r.ctx.Stroke()
}

// shade applies the Phong model for a surface point whose normal makes cos = ndotl with the light.
func (l lighting) shade(c common.Color, ndotl, alpha float64) gg.RGBA {
	ndotl = common.Clamp01(ndotl)
	intensity := l.ambient + l.diffuse*ndotl
	spec := l.specular * math.Pow(ndotl, l.shininess)
	return gg.RGBA{
		R: math.Min(c.R*intensity+spec, 1),
		G: math.Min(c.G*intensity+spec, 1),
		B: math.Min(c.B*intensity+spec, 1),
		A: alpha,
	}
}

func toRGBA(c common.Color, alpha float64) gg.RGBA {
	return gg.RGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}

// toRGBAImage returns img as *image.RGBA, converting if the canvas hands back another layout.
func toRGBAImage(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
