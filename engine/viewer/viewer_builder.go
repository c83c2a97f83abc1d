package viewer

import (
	"time"

	"github.com/Carmen-Shannon/oxy-mol/engine/camera"
	"github.com/Carmen-Shannon/oxy-mol/engine/renderer"
)

// ViewerBuilderOption is a functional option applied to a viewer during construction via Render.
type ViewerBuilderOption func(*viewer)

// WithCamera sets the camera. By default the viewer creates an orbit camera and fits it to
// the first non-empty snapshot.
//
// Parameters:
//   - cam: the camera to draw with
//
// Returns:
//   - ViewerBuilderOption: a function that applies the camera option to a viewer
func WithCamera(cam camera.Camera) ViewerBuilderOption {
	return func(v *viewer) {
		if cam != nil {
			v.cam = cam
		}
	}
}

// WithRenderer makes the viewer draw with r instead of creating its own renderer.
// The viewer resizes r to the surface and closes it on Close. Renderer options are
// ignored when a renderer is supplied.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - ViewerBuilderOption: a function that applies the renderer to a viewer
func WithRenderer(r renderer.Renderer) ViewerBuilderOption {
	return func(v *viewer) {
		if r != nil {
			v.renderer = r
		}
	}
}

// WithRendererOptions passes options through to the viewer's renderer. The size always
// follows the surface.
//
// Parameters:
//   - options: renderer options
//
// Returns:
//   - ViewerBuilderOption: a function that applies the renderer options to a viewer
func WithRendererOptions(options ...renderer.RendererBuilderOption) ViewerBuilderOption {
	return func(v *viewer) {
		v.rendererOptions = append(v.rendererOptions, options...)
	}
}

// WithClickHandler registers the click callback, same as calling OnClick after Render.
//
// Parameters:
//   - handler: the callback
//
// Returns:
//   - ViewerBuilderOption: a function that applies the click handler to a viewer
func WithClickHandler(handler func(ClickEvent)) ViewerBuilderOption {
	return func(v *viewer) {
		v.OnClick(handler)
	}
}

// WithClickBuffer sets how many click events may wait for the handler before new ones are dropped.
//
// Parameters:
//   - n: the queue length, at least 1
//
// Returns:
//   - ViewerBuilderOption: a function that applies the buffer option to a viewer
func WithClickBuffer(n int) ViewerBuilderOption {
	return func(v *viewer) {
		if n > 0 {
			v.clickBuffer = n
		}
	}
}

// WithFrameLimit caps how many frames per second the viewer draws. 0 means uncapped.
//
// Parameters:
//   - fps: the cap
//
// Returns:
//   - ViewerBuilderOption: a function that applies the frame limit to a viewer
func WithFrameLimit(fps int) ViewerBuilderOption {
	return func(v *viewer) {
		if fps > 0 {
			v.frameInterval = time.Second / time.Duration(fps)
		} else {
			v.frameInterval = 0
		}
	}
}

// WithProfiling logs frame statistics once per second.
func WithProfiling(enabled bool) ViewerBuilderOption {
	return func(v *viewer) {
		v.profile = enabled
	}
}

// WithAutoFit controls whether the camera is fitted to the first non-empty snapshot.
func WithAutoFit(enabled bool) ViewerBuilderOption {
	return func(v *viewer) {
		v.autoFit = enabled
	}
}
