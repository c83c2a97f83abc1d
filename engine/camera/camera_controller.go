package camera

import "github.com/go-gl/mathgl/mgl64"

// CameraController owns the positional state of a camera (position and target) and
// the input mappings that change it. It combines orbit controls, which move the camera
// on a sphere around the target, with planar controls, which slide camera and target
// together along the view plane.
type CameraController interface {
	orbitCameraController
	planarCameraController

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl64.Vec3: world-space camera position
	Position() mgl64.Vec3

	// Target returns the look-at point.
	//
	// Returns:
	//   - mgl64.Vec3: world-space target position
	Target() mgl64.Vec3

	// SetTarget sets the look-at/pivot point and recomputes position from spherical coordinates.
	//
	// Parameters:
	//   - target: world-space coordinates
	SetTarget(target mgl64.Vec3)

	// Zoom moves the camera toward (positive delta) or away from the target. Each unit
	// of delta scales the radius by a constant factor, so zooming feels the same for a
	// water molecule and a ribosome.
	//
	// Parameters:
	//   - delta: zoom steps, usually scroll wheel ticks
	Zoom(delta float64)
}

// orbitCameraController defines orbit-specific control methods using spherical
// coordinates (radius, azimuth, elevation) relative to the target.
type orbitCameraController interface {
	// OrbitLeft rotates the camera left around the target by one orbit speed step.
	OrbitLeft()

	// OrbitRight rotates the camera right around the target by one orbit speed step.
	OrbitRight()

	// OrbitUp tilts the camera upward by one orbit speed step, clamped to max elevation.
	OrbitUp()

	// OrbitDown tilts the camera downward by one orbit speed step, clamped to min elevation.
	OrbitDown()

	// Rotate orbits by a mouse drag, scaled by the mouse sensitivity.
	//
	// Parameters:
	//   - dx: horizontal drag in pixels, positive to the right
	//   - dy: vertical drag in pixels, positive downward
	Rotate(dx, dy float64)

	// Radius returns the current orbit radius (distance from target).
	Radius() float64

	// SetRadius sets the orbit radius directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float64)

	// Azimuth returns the horizontal angle around the Y axis in radians.
	Azimuth() float64

	// SetAzimuth sets the horizontal angle directly and recomputes position.
	//
	// Parameters:
	//   - azimuth: new horizontal angle in radians
	SetAzimuth(azimuth float64)

	// Elevation returns the vertical angle from the horizontal plane in radians.
	Elevation() float64

	// SetElevation sets the vertical angle directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - elevation: new vertical angle in radians
	SetElevation(elevation float64)
}

// planarCameraController defines planar translation control methods. Panning shifts
// both position and target by the same offset, preserving the orbit relationship.
type planarCameraController interface {
	// PanRight translates the camera along its local right axis.
	//
	// Parameters:
	//   - delta: pan amount scaled by the pan speed
	PanRight(delta float64)

	// PanUp translates the camera along its local up axis.
	//
	// Parameters:
	//   - delta: pan amount scaled by the pan speed
	PanUp(delta float64)
}
