package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// cameraControllerImpl is the single implementation of CameraController.
// Orbit methods modify spherical coordinates and recompute position; planar methods
// translate both position and target along local camera axes.
type cameraControllerImpl struct {
	mu sync.Mutex

	position mgl64.Vec3
	target   mgl64.Vec3

	radius    float64
	azimuth   float64 // around Y, 0 looks down -Z from +Z
	elevation float64

	minRadius    float64
	maxRadius    float64
	minElevation float64
	maxElevation float64

	orbitSpeed       float64
	mouseSensitivity float64
	zoomSpeed        float64
	panSpeed         float64
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new camera controller looking at the origin from 30
// units away, slightly from above.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		radius:    30,
		elevation: math.Pi / 12,

		minRadius:    0.5,
		maxRadius:    5000,
		minElevation: -math.Pi/2 + 0.01,
		maxElevation: math.Pi/2 - 0.01,

		orbitSpeed:       0.03,
		mouseSensitivity: 0.008,
		zoomSpeed:        0.1,
		panSpeed:         1,
	}
	for _, option := range options {
		option(cc)
	}
	cc.radius = clamp(cc.radius, cc.minRadius, cc.maxRadius)
	cc.elevation = clamp(cc.elevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
	return cc
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// updatePosition recomputes the camera position from spherical coordinates.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) updatePosition() {
	cosElev, sinElev := math.Cos(cc.elevation), math.Sin(cc.elevation)
	cosAzim, sinAzim := math.Cos(cc.azimuth), math.Sin(cc.azimuth)
	cc.position = cc.target.Add(mgl64.Vec3{
		cc.radius * cosElev * sinAzim,
		cc.radius * sinElev,
		cc.radius * cosElev * cosAzim,
	})
}

// localAxes returns the right and up axes consistent with a LookAt view matrix using
// world up +Y. Caller must hold the mutex.
func (cc *cameraControllerImpl) localAxes() (right, up mgl64.Vec3) {
	back := cc.position.Sub(cc.target)
	if back.Len() < 1e-12 {
		return mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}
	}
	back = back.Normalize()
	right = mgl64.Vec3{0, 1, 0}.Cross(back)
	if right.Len() < 1e-12 {
		right = mgl64.Vec3{1, 0, 0}
	}
	right = right.Normalize()
	return right, back.Cross(right)
}

func (cc *cameraControllerImpl) Position() mgl64.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) Target() mgl64.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *cameraControllerImpl) SetTarget(target mgl64.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Zoom(delta float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = clamp(cc.radius*math.Exp(-delta*cc.zoomSpeed), cc.minRadius, cc.maxRadius)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) OrbitLeft()  { cc.orbit(-cc.orbitSpeed, 0) }
func (cc *cameraControllerImpl) OrbitRight() { cc.orbit(cc.orbitSpeed, 0) }
func (cc *cameraControllerImpl) OrbitUp()    { cc.orbit(0, cc.orbitSpeed) }
func (cc *cameraControllerImpl) OrbitDown()  { cc.orbit(0, -cc.orbitSpeed) }

// Rotate maps a rightward drag to a leftward camera orbit so the scene appears to
// follow the pointer.
func (cc *cameraControllerImpl) Rotate(dx, dy float64) {
	cc.orbit(-dx*cc.mouseSensitivity, dy*cc.mouseSensitivity)
}

func (cc *cameraControllerImpl) orbit(dAzimuth, dElevation float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth = math.Remainder(cc.azimuth+dAzimuth, 2*math.Pi)
	cc.elevation = clamp(cc.elevation+dElevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Radius() float64 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *cameraControllerImpl) SetRadius(radius float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = clamp(radius, cc.minRadius, cc.maxRadius)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Azimuth() float64 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *cameraControllerImpl) SetAzimuth(azimuth float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth = azimuth
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Elevation() float64 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

func (cc *cameraControllerImpl) SetElevation(elevation float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.elevation = clamp(elevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) PanRight(delta float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	right, _ := cc.localAxes()
	offset := right.Mul(delta * cc.panSpeed)
	cc.target = cc.target.Add(offset)
	cc.position = cc.position.Add(offset)
}

func (cc *cameraControllerImpl) PanUp(delta float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	_, up := cc.localAxes()
	offset := up.Mul(delta * cc.panSpeed)
	cc.target = cc.target.Add(offset)
	cc.position = cc.position.Add(offset)
}
