package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-mol/common"

	"github.com/go-gl/mathgl/mgl64"
)

type cameraImpl struct {
	mu sync.Mutex

	up mgl64.Vec3

	fov    float64
	aspect float64
	near   float64
	far    float64

	viewMatrix           mgl64.Mat4
	projectionMatrix     mgl64.Mat4
	viewProjectionMatrix mgl64.Mat4

	controller CameraController
}

// Camera holds perspective settings and computes view/projection matrices from an
// attached CameraController each frame via Update(). It also maps world points to
// pixels for the software renderer and the picking pass.
type Camera interface {
	// Fov returns the vertical field of view in radians.
	Fov() float64

	// Aspect returns the aspect ratio (width / height).
	Aspect() float64

	// SetAspect sets the aspect ratio, usually after a surface resize.
	//
	// Parameters:
	//   - aspect: width / height
	SetAspect(aspect float64)

	// Near returns the near clipping plane distance.
	Near() float64

	// Far returns the far clipping plane distance.
	Far() float64

	// ViewMatrix returns the view matrix computed by the last Update.
	ViewMatrix() mgl64.Mat4

	// ProjectionMatrix returns the projection matrix computed by the last Update.
	ProjectionMatrix() mgl64.Mat4

	// ViewProjectionMatrix returns projection * view.
	ViewProjectionMatrix() mgl64.Mat4

	// Controller returns the attached controller.
	Controller() CameraController

	// SetController attaches a controller.
	//
	// Parameters:
	//   - ctrl: the controller providing position and target
	SetController(ctrl CameraController)

	// Update recomputes the matrices from the controller.
	Update()

	// Fit points the controller at the center of b and sets the radius so the whole
	// box is visible. The near and far planes follow the new distance.
	//
	// Parameters:
	//   - b: world-space bounds, ignored if empty
	Fit(b common.Bounds)

	// Project maps a world point to pixel coordinates on a width x height surface,
	// origin top-left. Depth is the distance along the view axis.
	//
	// Parameters:
	//   - p: world-space point
	//   - width, height: surface size in pixels
	//
	// Returns:
	//   - x, y: pixel coordinates
	//   - depth: view-space distance in front of the camera
	//   - ok: false if the point is behind the near plane
	Project(p mgl64.Vec3, width, height int) (x, y, depth float64, ok bool)

	// PixelsPerUnit returns how many pixels one world unit spans at the given depth on
	// a surface of the given height.
	//
	// Parameters:
	//   - depth: view-space distance
	//   - height: surface height in pixels
	//
	// Returns:
	//   - float64: pixels per world unit
	PixelsPerUnit(depth float64, height int) float64
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with a 45 degree field of view and applies options.
// Without a WithController option an orbit controller with default settings is attached.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		up:     mgl64.Vec3{0, 1, 0},
		fov:    45.0 * (math.Pi / 180.0),
		aspect: 1.0,
		near:   0.1,
		far:    1000.0,
	}
	for _, option := range options {
		option(c)
	}
	if c.controller == nil {
		c.controller = NewCameraController()
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Fov() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) SetAspect(aspect float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect > 0 {
		c.aspect = aspect
	}
	c.updateMatrices()
}

func (c *cameraImpl) Near() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() mgl64.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl64.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl64.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

func (c *cameraImpl) Fit(b common.Bounds) {
	if b.Empty() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	r := math.Max(b.Radius(), 1)
	// The tighter of the vertical and horizontal half-angles decides the distance.
	half := c.fov / 2
	if c.aspect < 1 {
		half = math.Atan(math.Tan(half) * c.aspect)
	}
	dist := r/math.Sin(half) + r*0.05

	c.controller.SetTarget(b.Center())
	c.controller.SetRadius(dist)
	c.near = math.Max(dist/1000, 1e-3)
	c.far = math.Max(c.far, dist+r*4)
	c.updateMatrices()
}

func (c *cameraImpl) Project(p mgl64.Vec3, width, height int) (x, y, depth float64, ok bool) {
	c.mu.Lock()
	vp := c.viewProjectionMatrix
	near := c.near
	c.mu.Unlock()

	clip := vp.Mul4x1(p.Vec4(1))
	w := clip.W()
	if w <= near {
		return 0, 0, w, false
	}
	ndcX, ndcY := clip.X()/w, clip.Y()/w
	x = (ndcX + 1) / 2 * float64(width)
	y = (1 - ndcY) / 2 * float64(height)
	return x, y, w, true
}

func (c *cameraImpl) PixelsPerUnit(depth float64, height int) float64 {
	c.mu.Lock()
	fov := c.fov
	c.mu.Unlock()
	if depth <= 0 {
		return 0
	}
	return float64(height) / (2 * math.Tan(fov/2) * depth)
}

// updateMatrices recalculates the view, projection, and view-projection matrices from
// the controller. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if c.controller == nil {
		return
	}
	c.viewMatrix = mgl64.LookAtV(c.controller.Position(), c.controller.Target(), c.up)
	c.projectionMatrix = mgl64.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
}
