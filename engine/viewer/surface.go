package viewer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-mol/engine/renderer"

	"github.com/google/uuid"
)

// InputSink receives pointer and keyboard input from a Surface. Positions are in frame pixels.
// Implementations must be safe to call from the surface's event goroutine.
type InputSink interface {
	// Click reports a press and release without movement at (x, y).
	Click(x, y float64)
	// Drag reports pointer movement while a button is held. pan is true for the secondary button.
	Drag(dx, dy float64, pan bool)
	// Scroll reports wheel movement; positive values zoom in.
	Scroll(delta float64)
	// Key reports a key press using the codes in package common.
	Key(code uint32)
	// Resize reports a new drawable size.
	Resize(width, height int)
}

// Surface is a place frames are shown. A surface is drawn by at most one live viewer at a time.
type Surface interface {
	// Key identifies the surface in the claim registry.
	//
	// Returns:
	//   - string: a stable unique key
	Key() string

	// Size returns the drawable size in pixels.
	//
	// Returns:
	//   - int: width
	//   - int: height
	Size() (int, int)

	// Present shows a finished frame.
	//
	// Parameters:
	//   - frame: the frame to show
	//
	// Returns:
	//   - error: an error if the frame could not be shown
	Present(frame *renderer.Frame) error

	// Attach routes input to sink. Passing nil detaches the current sink.
	//
	// Parameters:
	//   - sink: the input receiver
	Attach(sink InputSink)

	// Done is closed when the surface goes away, for example when its window is closed.
	//
	// Returns:
	//   - <-chan struct{}: the done channel
	Done() <-chan struct{}
}

// claims maps surface keys to the id of the viewer drawing on them.
var claims = struct {
	mu      sync.Mutex
	holders map[string]uuid.UUID
}{holders: make(map[string]uuid.UUID)}

func claimSurface(s Surface, id uuid.UUID) error {
	claims.mu.Lock()
	defer claims.mu.Unlock()
	if _, held := claims.holders[s.Key()]; held {
		return ErrSurfaceBusy
	}
	claims.holders[s.Key()] = id
	return nil
}

func releaseSurface(s Surface, id uuid.UUID) {
	claims.mu.Lock()
	defer claims.mu.Unlock()
	if claims.holders[s.Key()] == id {
		delete(claims.holders, s.Key())
	}
}
