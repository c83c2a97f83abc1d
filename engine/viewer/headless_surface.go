package viewer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-mol/engine/renderer"

	"github.com/google/uuid"
)

// HeadlessSurface keeps presented frames in memory. It backs off-screen rendering
// (batch screenshots, the CLI's --headless mode) and lets tests inject input.
type HeadlessSurface struct {
	key string

	mu        sync.Mutex
	width     int
	height    int
	sink      InputSink
	last      *renderer.Frame
	presented int

	done      chan struct{}
	closeOnce sync.Once
}

var _ Surface = &HeadlessSurface{}

// NewHeadlessSurface creates an off-screen surface of the given size.
// Non-positive sizes fall back to 800x600.
//
// Parameters:
//   - width: width in pixels
//   - height: height in pixels
//
// Returns:
//   - *HeadlessSurface: the surface
func NewHeadlessSurface(width, height int) *HeadlessSurface {
	if width <= 0 || height <= 0 {
		width, height = 800, 600
	}
	return &HeadlessSurface{
		key:    "headless:" + uuid.NewString(),
		width:  width,
		height: height,
		done:   make(chan struct{}),
	}
}

func (s *HeadlessSurface) Key() string { return s.key }

func (s *HeadlessSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *HeadlessSurface) Present(frame *renderer.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = frame
	s.presented++
	return nil
}

func (s *HeadlessSurface) Attach(sink InputSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

func (s *HeadlessSurface) Done() <-chan struct{} { return s.done }

// Last returns the most recently presented frame, or nil.
func (s *HeadlessSurface) Last() *renderer.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Presented returns how many frames have been presented.
func (s *HeadlessSurface) Presented() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented
}

// Click injects a click at pixel (x, y).
func (s *HeadlessSurface) Click(x, y float64) {
	if sink := s.attached(); sink != nil {
		sink.Click(x, y)
	}
}

// Drag injects a drag by (dx, dy) pixels.
func (s *HeadlessSurface) Drag(dx, dy float64, pan bool) {
	if sink := s.attached(); sink != nil {
		sink.Drag(dx, dy, pan)
	}
}

// Scroll injects wheel movement.
func (s *HeadlessSurface) Scroll(delta float64) {
	if sink := s.attached(); sink != nil {
		sink.Scroll(delta)
	}
}

// PressKey injects a key press.
func (s *HeadlessSurface) PressKey(code uint32) {
	if sink := s.attached(); sink != nil {
		sink.Key(code)
	}
}

// Resize changes the surface size and notifies the attached viewer.
func (s *HeadlessSurface) Resize(width, height int) {
	s.mu.Lock()
	if width > 0 && height > 0 {
		s.width, s.height = width, height
	}
	sink := s.sink
	s.mu.Unlock()
	if sink != nil {
		sink.Resize(width, height)
	}
}

// Close marks the surface as gone. A viewer drawing on it shuts down.
func (s *HeadlessSurface) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *HeadlessSurface) attached() InputSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink
}
