package viewer

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/camera"
	"github.com/Carmen-Shannon/oxy-mol/engine/profiler"
	"github.com/Carmen-Shannon/oxy-mol/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mol/engine/scene"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/iox/imagex"
	"github.com/google/uuid"
)

// ClickEvent describes a click on a clickable shape.
type ClickEvent struct {
	// ShapeID is the scene id of the clicked shape.
	ShapeID string
	// AtomIndex is the clicked atom for molecules and proteins, or -1.
	AtomIndex int
	// X and Y are the click position in frame pixels.
	X, Y float64
}

// Viewer draws scene snapshots onto a Surface from its own frame loop.
//
// Snapshots are handed over through a single-slot mailbox: posting never waits for
// drawing, a newer snapshot replaces one that has not been drawn yet, and the most
// recently posted snapshot is always drawn eventually.
type Viewer interface {
	// ID returns the viewer's unique id.
	//
	// Returns:
	//   - uuid.UUID: the id
	ID() uuid.UUID

	// Update takes a snapshot of src and posts it for display. It never waits for the frame.
	//
	// Parameters:
	//   - src: a Scene or a Snapshot
	//
	// Returns:
	//   - error: ErrPlayerActive while a Lease is held, ErrViewerClosed after Close
	Update(src scene.SnapshotSource) error

	// Flush waits until the most recently posted snapshot has been drawn.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: ctx.Err() on timeout, ErrViewerClosed if the viewer closes first
	Flush(ctx context.Context) error

	// SaveImage encodes the displayed frame to path. The format follows the extension:
	// png, jpg/jpeg, gif, tif/tiff, or bmp.
	//
	// Parameters:
	//   - path: the destination file
	//
	// Returns:
	//   - error: an error wrapping ErrCapture if nothing was drawn yet or encoding failed,
	//     ErrViewerClosed after Close
	SaveImage(path string) error

	// Capture returns a copy of the displayed frame.
	//
	// Returns:
	//   - *image.RGBA: the pixels
	//   - error: an error wrapping ErrCapture if nothing was drawn yet, ErrViewerClosed after Close
	Capture() (*image.RGBA, error)

	// Displayed returns the snapshot shown by the last drawn frame. Before the first frame
	// it is the snapshot the viewer was created with.
	//
	// Returns:
	//   - scene.Snapshot: the snapshot
	Displayed() scene.Snapshot

	// OnClick replaces the click handler. Handlers run on a dedicated goroutine; events
	// that arrive while the delivery queue is full are dropped.
	//
	// Parameters:
	//   - handler: the callback, or nil to stop delivery
	OnClick(handler func(ClickEvent))

	// Lease grants exclusive update rights. While the lease is held Update fails with ErrPlayerActive.
	//
	// Returns:
	//   - Lease: the lease
	//   - error: ErrPlayerActive if another lease is held, ErrViewerClosed after Close
	Lease() (Lease, error)

	// Camera returns the viewer's camera. Changes show on the next frame; call Redraw to force one.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Redraw schedules a frame of the displayed snapshot.
	Redraw()

	// Fit points the camera at the displayed snapshot so it fills the view.
	Fit()

	// Frames returns the number of frames drawn.
	Frames() uint64

	// Dropped returns the number of snapshots replaced in the mailbox before being drawn.
	Dropped() uint64

	// Done is closed once the viewer has shut down.
	//
	// Returns:
	//   - <-chan struct{}: the done channel
	Done() <-chan struct{}

	// Err returns why the frame loop stopped on its own (surface closed, panic), or nil.
	Err() error

	// Close stops the frame loop and frees the surface for another viewer. Close is idempotent
	// and safe to call concurrently with a frame in flight.
	//
	// Returns:
	//   - error: an error if releasing the renderer failed
	Close() error
}

// posted is a snapshot waiting in the mailbox. seq orders posts.
type posted struct {
	snap scene.Snapshot
	seq  uint64
}

type viewer struct {
	id       uuid.UUID
	surface  Surface
	renderer renderer.Renderer
	cam      camera.Camera

	// pre-creation config collected from builder options
	rendererOptions []renderer.RendererBuilderOption
	clickBuffer     int
	frameInterval   time.Duration
	autoFit         bool
	profile         bool

	// mu guards the fields below it.
	mu           sync.Mutex
	displayed    scene.Snapshot
	displayedSeq uint64
	drawnSeq     uint64
	frame        *renderer.Frame
	frameSignal  chan struct{}
	lease        *lease
	fitted       bool
	err          error

	// closeMu orders Close against in-flight Update, SaveImage, and Capture calls.
	closeMu sync.RWMutex
	closed  bool

	pending atomic.Pointer[posted]
	seq     atomic.Uint64
	resize  atomic.Pointer[[2]int]
	wake    chan struct{}

	onClick atomic.Pointer[func(ClickEvent)]
	clicks  chan ClickEvent

	frames  atomic.Uint64
	dropped atomic.Uint64

	profiler *profiler.Profiler

	quit      chan struct{}
	loopDone  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

var _ Viewer = &viewer{}

// drawRetryDelay is how long the frame loop waits before drawing again after a failed draw.
const drawRetryDelay = 50 * time.Millisecond
var _ InputSink = &viewer{}

// Render claims surface, takes the initial snapshot of src, and starts the frame loop.
//
// Parameters:
//   - src: the Scene or Snapshot to show first
//   - surface: where frames go
//   - options: functional options
//
// Returns:
//   - Viewer: the running viewer
//   - error: ErrSurfaceBusy if another live viewer draws on surface
func Render(src scene.SnapshotSource, surface Surface, options ...ViewerBuilderOption) (Viewer, error) {
	v := &viewer{
		id:          uuid.New(),
		surface:     surface,
		clickBuffer: 64,
		autoFit:     true,
		frameSignal: make(chan struct{}),
		wake:        make(chan struct{}, 1),
		quit:        make(chan struct{}),
		loopDone:    make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, option := range options {
		option(v)
	}

	if err := claimSurface(surface, v.id); err != nil {
		return nil, err
	}

	width, height := surface.Size()
	if v.renderer == nil {
		v.renderer = renderer.NewRenderer(append([]renderer.RendererBuilderOption{renderer.WithSize(width, height)}, v.rendererOptions...)...)
	} else if err := v.renderer.Resize(width, height); err != nil {
		releaseSurface(surface, v.id)
		return nil, fmt.Errorf("viewer: size renderer: %w", err)
	}
	if v.cam == nil {
		v.cam = camera.NewCamera()
	}
	v.cam.SetAspect(float64(width) / float64(max(height, 1)))
	v.clicks = make(chan ClickEvent, max(v.clickBuffer, 1))
	if v.profile {
		v.profiler = profiler.NewProfiler(v.id.String())
	}

	v.displayed = src.Snapshot()
	v.pending.Store(&posted{snap: v.displayed, seq: v.seq.Add(1)})

	surface.Attach(v)
	go v.loop()
	go v.dispatchClicks()
	v.Redraw()

	common.Logger().Info("viewer opened", "viewer", v.id, "surface", surface.Key(), "width", width, "height", height)
	return v, nil
}

func (v *viewer) ID() uuid.UUID { return v.id }

func (v *viewer) Update(src scene.SnapshotSource) error {
	v.closeMu.RLock()
	defer v.closeMu.RUnlock()

	if v.closed {
		return ErrViewerClosed
	}
	v.mu.Lock()
	leased := v.lease != nil
	v.mu.Unlock()
	if leased {
		return ErrPlayerActive
	}
	v.post(src.Snapshot())
	return nil
}

// post puts snap in the mailbox, replacing any snapshot that has not been drawn yet.
func (v *viewer) post(snap scene.Snapshot) {
	p := &posted{snap: snap, seq: v.seq.Add(1)}
	if old := v.pending.Swap(p); old != nil {
		v.dropped.Add(1)
		common.Logger().Debug("snapshot dropped", "viewer", v.id, "version", old.snap.Version())
	}
	v.Redraw()
}

func (v *viewer) Flush(ctx context.Context) error {
	v.closeMu.RLock()
	closed := v.closed
	v.closeMu.RUnlock()
	if closed {
		return ErrViewerClosed
	}

	target := v.seq.Load()
	for {
		v.mu.Lock()
		drawn, signal := v.drawnSeq, v.frameSignal
		v.mu.Unlock()
		if drawn >= target {
			return nil
		}
		select {
		case <-signal:
		case <-v.done:
			return ErrViewerClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (v *viewer) SaveImage(path string) error {
	v.closeMu.RLock()
	defer v.closeMu.RUnlock()

	if v.closed {
		return ErrViewerClosed
	}
	frame := v.lastFrame()
	if frame == nil {
		return fmt.Errorf("%w: no frame has been drawn yet", ErrCapture)
	}
	if err := imagex.Save(frame.Image, path); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrCapture, path, err)
	}
	common.Logger().Info("image saved", "viewer", v.id, "path", path, "version", frame.Version)
	return nil
}

func (v *viewer) Capture() (*image.RGBA, error) {
	v.closeMu.RLock()
	defer v.closeMu.RUnlock()

	if v.closed {
		return nil, ErrViewerClosed
	}
	frame := v.lastFrame()
	if frame == nil {
		return nil, fmt.Errorf("%w: no frame has been drawn yet", ErrCapture)
	}
	return imagex.CloneAsRGBA(frame.Image), nil
}

func (v *viewer) Displayed() scene.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.displayed
}

func (v *viewer) OnClick(handler func(ClickEvent)) {
	if handler == nil {
		v.onClick.Store(nil)
		return
	}
	v.onClick.Store(&handler)
}

func (v *viewer) Lease() (Lease, error) {
	v.closeMu.RLock()
	defer v.closeMu.RUnlock()

	if v.closed {
		return nil, ErrViewerClosed
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.lease != nil {
		return nil, ErrPlayerActive
	}
	v.lease = &lease{v: v}
	common.Logger().Debug("viewer leased", "viewer", v.id)
	return v.lease, nil
}

func (v *viewer) Camera() camera.Camera { return v.cam }

func (v *viewer) Redraw() {
	select {
	case v.wake <- struct{}{}:
	default:
	}
}

func (v *viewer) Fit() {
	b := v.Displayed().Bounds()
	if b.Empty() {
		return
	}
	v.cam.Fit(b)
	v.mu.Lock()
	v.fitted = true
	v.mu.Unlock()
	v.Redraw()
}

func (v *viewer) Frames() uint64  { return v.frames.Load() }
func (v *viewer) Dropped() uint64 { return v.dropped.Load() }

func (v *viewer) Done() <-chan struct{} { return v.done }

func (v *viewer) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *viewer) Close() error {
	v.closeOnce.Do(func() {
		v.closeMu.Lock()
		v.closed = true
		v.closeMu.Unlock()

		close(v.quit)
		<-v.loopDone

		v.surface.Attach(nil)
		releaseSurface(v.surface, v.id)
		v.mu.Lock()
		if v.lease != nil {
			v.lease.released.Store(true)
			v.lease = nil
		}
		v.mu.Unlock()

		v.closeErr = v.renderer.Close()
		close(v.done)
		common.Logger().Info("viewer closed", "viewer", v.id, "frames", v.frames.Load(), "dropped", v.dropped.Load())
	})
	return v.closeErr
}

func (v *viewer) lastFrame() *renderer.Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frame
}

func (v *viewer) fail(err error) {
	v.mu.Lock()
	if v.err == nil {
		v.err = err
	}
	v.mu.Unlock()
	// Close waits for the loop, so it cannot run on the loop goroutine.
	go func() { errors.Log(v.Close()) }()
}

// loop is the frame loop. It sleeps until woken by a post, input, or Redraw and then draws
// whatever is newest.
func (v *viewer) loop() {
	defer close(v.loopDone)
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("frame loop panic", "viewer", v.id, "panic", r)
			v.fail(fmt.Errorf("viewer: frame loop panic: %v", r))
		}
	}()

	var last time.Time
	for {
		select {
		case <-v.quit:
			return
		case <-v.surface.Done():
			common.Logger().Info("surface gone", "viewer", v.id)
			v.fail(ErrSurfaceClosed)
			return
		case <-v.wake:
		}

		if v.frameInterval > 0 && !last.IsZero() {
			if wait := v.frameInterval - time.Since(last); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-v.quit:
					timer.Stop()
					return
				case <-timer.C:
				}
			}
		}
		v.drawFrame()
		last = time.Now()
	}
}

func (v *viewer) drawFrame() {
	if size := v.resize.Swap(nil); size != nil {
		if err := v.renderer.Resize(size[0], size[1]); err != nil {
			common.Logger().Warn("resize", "viewer", v.id, "err", err)
		}
	}

	v.mu.Lock()
	snap, seq := v.displayed, v.displayedSeq
	v.mu.Unlock()
	p := v.pending.Swap(nil)
	if p != nil {
		snap, seq = p.snap, p.seq
	}

	v.mu.Lock()
	fit := v.autoFit && !v.fitted
	v.mu.Unlock()
	if fit {
		if b := snap.Bounds(); !b.Empty() {
			v.cam.Fit(b)
			v.mu.Lock()
			v.fitted = true
			v.mu.Unlock()
		}
	}

	frame, err := v.renderer.Draw(snap, v.cam)
	if err != nil {
		common.Logger().Warn("draw frame", "viewer", v.id, "err", err)
		if p != nil {
			// Put the snapshot back unless a newer one has arrived, and try again later.
			v.pending.CompareAndSwap(nil, p)
			time.AfterFunc(drawRetryDelay, v.Redraw)
		}
		return
	}
	if err := v.surface.Present(frame); err != nil {
		common.Logger().Warn("present frame", "viewer", v.id, "err", err)
	}

	v.mu.Lock()
	v.displayed, v.displayedSeq = snap, seq
	v.drawnSeq = seq
	v.frame = frame
	close(v.frameSignal)
	v.frameSignal = make(chan struct{})
	v.mu.Unlock()

	v.frames.Add(1)
	if v.profiler != nil {
		v.profiler.Tick(v.dropped.Load())
	}
}

// dispatchClicks delivers click events to the handler off the input goroutine.
func (v *viewer) dispatchClicks() {
	for {
		select {
		case <-v.quit:
			return
		case ev := <-v.clicks:
			if h := v.onClick.Load(); h != nil {
				(*h)(ev)
			}
		}
	}
}

func (v *viewer) Click(x, y float64) {
	hit, ok := v.lastFrame().Pick(x, y)
	if !ok || !hit.Clickable {
		return
	}
	ev := ClickEvent{ShapeID: hit.ShapeID, AtomIndex: hit.AtomIndex, X: x, Y: y}
	select {
	case v.clicks <- ev:
	default:
		common.Logger().Debug("click dropped", "viewer", v.id, "shape", hit.ShapeID)
	}
}

func (v *viewer) Drag(dx, dy float64, pan bool) {
	ctrl := v.cam.Controller()
	if pan {
		_, height := v.renderer.Size()
		ppu := v.cam.PixelsPerUnit(ctrl.Radius(), height)
		if ppu <= 0 {
			return
		}
		ctrl.PanRight(-dx / ppu)
		ctrl.PanUp(dy / ppu)
	} else {
		ctrl.Rotate(dx, dy)
	}
	v.cam.Update()
	v.Redraw()
}

func (v *viewer) Scroll(delta float64) {
	v.cam.Controller().Zoom(delta)
	v.cam.Update()
	v.Redraw()
}

func (v *viewer) Key(code uint32) {
	ctrl := v.cam.Controller()
	switch code {
	case common.KeyA, common.KeyLeft:
		ctrl.OrbitLeft()
	case common.KeyD, common.KeyRight:
		ctrl.OrbitRight()
	case common.KeyW, common.KeyUp:
		ctrl.OrbitUp()
	case common.KeyS, common.KeyDown:
		ctrl.OrbitDown()
	case common.KeyE, common.KeyEqual:
		ctrl.Zoom(1)
	case common.KeyQ, common.KeyMinus:
		ctrl.Zoom(-1)
	case common.KeyF:
		v.Fit()
		return
	default:
		return
	}
	v.cam.Update()
	v.Redraw()
}

func (v *viewer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	v.resize.Store(&[2]int{width, height})
	v.Redraw()
}
