package renderer

import (
	"image"

	"github.com/Carmen-Shannon/oxy-mol/engine/shape"

	"github.com/go-gl/mathgl/mgl64"
)

// Hit is the screen-space footprint of one drawn primitive, kept for picking.
type Hit struct {
	// ShapeID is the scene id of the shape the primitive belongs to.
	ShapeID string
	// AtomIndex is the atom the primitive depicts, or -1.
	AtomIndex int
	// Clickable mirrors the shape's hit-test flag.
	Clickable bool
	// Depth is the camera-space distance of the primitive.
	Depth float64

	kind   shape.PrimitiveKind
	a, b   mgl64.Vec2
	radius float64
}

// Contains reports whether the pixel position (x, y) lies inside the footprint.
//
// Parameters:
//   - x: horizontal pixel coordinate
//   - y: vertical pixel coordinate, top-down
//
// Returns:
//   - bool: true if the point is covered
func (h Hit) Contains(x, y float64) bool {
	p := mgl64.Vec2{x, y}
	if h.kind == shape.PrimitiveSphere {
		d := p.Sub(h.a)
		return d.Dot(d) <= h.radius*h.radius
	}
	return distanceToSegment(p, h.a, h.b) <= h.radius
}

// Frame is one rasterized snapshot.
type Frame struct {
	// Image holds the pixels. It is owned by the Frame and must not be modified.
	Image *image.RGBA
	// Version is the version of the snapshot the frame was drawn from.
	Version uint64

	// hits are stored back to front, in draw order.
	hits []Hit
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int {
	if f == nil || f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}

// Height returns the frame height in pixels.
func (f *Frame) Height() int {
	if f == nil || f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// Hits returns the number of primitives drawn into the frame.
func (f *Frame) Hits() int {
	if f == nil {
		return 0
	}
	return len(f.hits)
}

// Pick returns the front-most primitive covering the pixel (x, y).
//
// Parameters:
//   - x: horizontal pixel coordinate
//   - y: vertical pixel coordinate, top-down
//
// Returns:
//   - Hit: the front-most primitive
//   - bool: false if nothing was drawn there
func (f *Frame) Pick(x, y float64) (Hit, bool) {
	if f == nil {
		return Hit{}, false
	}
	for i := len(f.hits) - 1; i >= 0; i-- {
		if f.hits[i].Contains(x, y) {
			return f.hits[i], true
		}
	}
	return Hit{}, false
}

// distanceToSegment returns the distance from p to the segment ab.
func distanceToSegment(p, a, b mgl64.Vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Sub(a).Len()
	}
	t := p.Sub(a).Dot(ab) / l2
	t = max(0, min(1, t))
	return p.Sub(a.Add(ab.Mul(t))).Len()
}
