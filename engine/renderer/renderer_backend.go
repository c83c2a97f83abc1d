package renderer

import (
	"image"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// Presenter puts finished frames on a display. The Renderer rasterizes on the CPU,
// so a Presenter only has to upload pixels and swap.
type Presenter interface {
	// Configure (re)creates the presentation target for the given size.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the target could not be configured
	Configure(width, height int) error

	// Present uploads img and shows it. The image bounds must match the configured size.
	//
	// Parameters:
	//   - img: the frame to display
	//
	// Returns:
	//   - error: an error if the frame could not be presented
	Present(img *image.RGBA) error

	// Close releases the presentation target. Further calls to Present fail.
	//
	// Returns:
	//   - error: an error if releasing failed
	Close() error
}
