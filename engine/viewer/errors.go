package viewer

import "errors"

var (
	// ErrSurfaceBusy is returned by Render when another live viewer already draws to the surface.
	ErrSurfaceBusy = errors.New("viewer: surface is held by another viewer")

	// ErrViewerClosed is returned by every operation on a viewer after Close.
	ErrViewerClosed = errors.New("viewer: closed")

	// ErrCapture wraps failures to read or encode the displayed frame.
	ErrCapture = errors.New("viewer: capture failed")

	// ErrPlayerActive is returned by Update and Lease while an animation player holds the viewer.
	ErrPlayerActive = errors.New("viewer: an animation player holds the viewer")

	// ErrLeaseReleased is returned by Lease.Update after Release.
	ErrLeaseReleased = errors.New("viewer: lease released")

	// ErrSurfaceClosed is reported by Err when the viewer stopped because its surface went away.
	ErrSurfaceClosed = errors.New("viewer: surface closed")
)
