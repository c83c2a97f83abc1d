package shape

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-mol/common"

	"github.com/go-gl/mathgl/mgl64"
)

// Sphere is a single sphere. The zero value is not valid; use NewSphere.
type Sphere struct {
	center mgl64.Vec3
	radius float64
	style  Style
}

var _ Shape = Sphere{}

// NewSphere creates a sphere.
//
// Parameters:
//   - center: the sphere center
//   - radius: the sphere radius (must be > 0)
//   - options: style options
//
// Returns:
//   - Sphere: the new sphere
//   - error: ErrInvalidShape if radius is not positive
func NewSphere(center mgl64.Vec3, radius float64, options ...ShapeBuilderOption) (Sphere, error) {
	if !(radius > 0) {
		return Sphere{}, fmt.Errorf("%w: sphere radius %v must be > 0", ErrInvalidShape, radius)
	}
	return Sphere{center: center, radius: radius, style: newStyle(options)}, nil
}

// MustSphere is like NewSphere but panics on invalid input. Intended for literals in examples and tests.
func MustSphere(center mgl64.Vec3, radius float64, options ...ShapeBuilderOption) Sphere {
	s, err := NewSphere(center, radius, options...)
	if err != nil {
		panic(err)
	}
	return s
}

// Radius returns the sphere radius.
func (s Sphere) Radius() float64 { return s.radius }

// Position returns the sphere center. Same as Center.
func (s Sphere) Position() mgl64.Vec3 { return s.center }

// WithRadius returns a copy with a new radius. Non-positive radii keep the current one.
func (s Sphere) WithRadius(radius float64) Sphere {
	if radius > 0 {
		s.radius = radius
	}
	return s
}

// WithCenter returns a copy moved to center.
func (s Sphere) WithCenter(center mgl64.Vec3) Sphere {
	s.center = center
	return s
}

func (s Sphere) Kind() Kind         { return KindSphere }
func (s Sphere) Style() Style       { return s.style }
func (s Sphere) Center() mgl64.Vec3 { return s.center }

func (s Sphere) Bounds() common.Bounds {
	return common.Bounds{}.ExtendRadius(s.center, s.radius)
}

func (s Sphere) Primitives() []Primitive {
	return []Primitive{{
		Kind:      PrimitiveSphere,
		A:         s.center,
		B:         s.center,
		Radius:    s.radius,
		Color:     s.style.colorOr(common.White),
		Opacity:   s.style.Opacity,
		AtomIndex: -1,
	}}
}

func (s Sphere) Translated(offset mgl64.Vec3) Shape {
	s.center = s.center.Add(offset)
	return s
}

func (s Sphere) WithStyle(options ...ShapeBuilderOption) Shape {
	s.style = s.style.apply(options)
	return s
}
