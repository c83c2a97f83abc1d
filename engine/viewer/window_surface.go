package viewer

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mol/engine/window"

	"cogentcore.org/core/base/errors"
	"github.com/google/uuid"
)

// clickSlop is how far in pixels the pointer may travel between press and release
// for the gesture to still count as a click.
const clickSlop = 4.0

// WindowSurface shows frames in a desktop window through a WebGPU swapchain and turns
// window input into viewer input: left click picks, left drag orbits, right drag pans,
// and the wheel zooms.
type WindowSurface struct {
	key       string
	win       window.Window
	presenter renderer.Presenter

	sinkMu sync.Mutex
	sink   InputSink

	// Pointer state, touched only by the window's event goroutine.
	pressed       bool
	button        window.MouseButton
	downX, downY  float64
	lastX, lastY  float64
	dragged       bool

	done      chan struct{}
	closeOnce sync.Once
}

var _ Surface = &WindowSurface{}

// NewWindowSurface wraps win. It must be called on the goroutine that created the window,
// which must also call Run.
//
// Parameters:
//   - win: the window to draw into
//   - forceFallbackAdapter: true to request a software WebGPU adapter
//   - mode: the present mode
//
// Returns:
//   - *WindowSurface: the surface
//   - error: an error if the WebGPU surface could not be created or configured
func NewWindowSurface(win window.Window, forceFallbackAdapter bool, mode renderer.PresentMode) (*WindowSurface, error) {
	presenter, err := renderer.NewWGPUPresenter(win.SurfaceDescriptor(), forceFallbackAdapter, mode)
	if err != nil {
		return nil, err
	}
	if err := presenter.Configure(win.Width(), win.Height()); err != nil {
		return nil, errors.Join(err, presenter.Close())
	}
	s := &WindowSurface{
		key:       "window:" + uuid.NewString(),
		win:       win,
		presenter: presenter,
		done:      make(chan struct{}),
	}
	win.SetResizeCallback(s.onResize)
	win.SetScrollCallback(s.onScroll)
	win.SetKeyDownCallback(s.onKey)
	win.SetMouseDownCallback(s.onMouseDown)
	win.SetMouseUpCallback(s.onMouseUp)
	win.SetMouseMoveCallback(s.onMouseMove)
	return s, nil
}

func (s *WindowSurface) Key() string { return s.key }

func (s *WindowSurface) Size() (int, int) {
	return s.win.Width(), s.win.Height()
}

func (s *WindowSurface) Present(frame *renderer.Frame) error {
	return s.presenter.Present(frame.Image)
}

func (s *WindowSurface) Attach(sink InputSink) {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	s.sink = sink
}

func (s *WindowSurface) Done() <-chan struct{} { return s.done }

// SetTitle changes the window title. Safe to call from any goroutine.
func (s *WindowSurface) SetTitle(title string) {
	s.win.SetTitle(title)
}

// Run pumps window events until the window is closed, then releases the swapchain and
// destroys the window. It must run on the goroutine that created the window.
func (s *WindowSurface) Run() {
	s.win.ProcessMessages()
	s.closeOnce.Do(func() { close(s.done) })
	errors.Log(s.presenter.Close())
	errors.Log(s.win.Close())
	common.Logger().Debug("window surface closed", "key", s.key)
}

// Close asks the window to close. Run returns shortly after. Safe to call from any goroutine.
func (s *WindowSurface) Close() {
	s.win.RequestClose()
}

func (s *WindowSurface) attached() InputSink {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	return s.sink
}

func (s *WindowSurface) onResize(width, height int) {
	if err := s.presenter.Configure(width, height); err != nil {
		common.Logger().Warn("reconfigure surface", "width", width, "height", height, "err", err)
	}
	if sink := s.attached(); sink != nil {
		sink.Resize(width, height)
	}
}

func (s *WindowSurface) onScroll(delta float64) {
	if sink := s.attached(); sink != nil {
		sink.Scroll(delta)
	}
}

func (s *WindowSurface) onKey(code uint32) {
	if sink := s.attached(); sink != nil {
		sink.Key(code)
	}
}

func (s *WindowSurface) onMouseDown(button window.MouseButton, x, y float64) {
	if s.pressed {
		return
	}
	s.pressed = true
	s.button = button
	s.downX, s.downY = x, y
	s.lastX, s.lastY = x, y
	s.dragged = false
}

func (s *WindowSurface) onMouseUp(button window.MouseButton, x, y float64) {
	if !s.pressed || button != s.button {
		return
	}
	s.pressed = false
	if s.dragged || button != window.MouseButtonLeft {
		return
	}
	if sink := s.attached(); sink != nil {
		sink.Click(x, y)
	}
}

func (s *WindowSurface) onMouseMove(x, y float64) {
	if !s.pressed {
		return
	}
	if !s.dragged && math.Hypot(x-s.downX, y-s.downY) < clickSlop {
		return
	}
	s.dragged = true
	dx, dy := x-s.lastX, y-s.lastY
	s.lastX, s.lastY = x, y
	if sink := s.attached(); sink != nil {
		sink.Drag(dx, dy, s.button == window.MouseButtonRight)
	}
}
