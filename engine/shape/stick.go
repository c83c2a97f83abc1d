package shape

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-mol/common"

	"github.com/go-gl/mathgl/mgl64"
)

// Stick is a cylinder between two points.
type Stick struct {
	start  mgl64.Vec3
	end    mgl64.Vec3
	radius float64
	style  Style
}

var _ Shape = Stick{}

// NewStick creates a stick from start to end.
//
// Parameters:
//   - start: first endpoint
//   - end: second endpoint (must differ from start)
//   - radius: the cylinder radius (must be > 0)
//   - options: style options
//
// Returns:
//   - Stick: the new stick
//   - error: ErrInvalidShape on a non-positive radius or coincident endpoints
func NewStick(start, end mgl64.Vec3, radius float64, options ...ShapeBuilderOption) (Stick, error) {
	if !(radius > 0) {
		return Stick{}, fmt.Errorf("%w: stick radius %v must be > 0", ErrInvalidShape, radius)
	}
	if start.ApproxEqual(end) {
		return Stick{}, fmt.Errorf("%w: stick endpoints coincide at %v", ErrInvalidShape, start)
	}
	return Stick{start: start, end: end, radius: radius, style: newStyle(options)}, nil
}

// Start returns the first endpoint.
func (s Stick) Start() mgl64.Vec3 { return s.start }

// End returns the second endpoint.
func (s Stick) End() mgl64.Vec3 { return s.end }

// Radius returns the cylinder radius.
func (s Stick) Radius() float64 { return s.radius }

// Length returns the distance between the endpoints.
func (s Stick) Length() float64 { return s.end.Sub(s.start).Len() }

func (s Stick) Kind() Kind   { return KindStick }
func (s Stick) Style() Style { return s.style }

func (s Stick) Center() mgl64.Vec3 {
	return s.Bounds().Center()
}

func (s Stick) Bounds() common.Bounds {
	return common.Bounds{}.ExtendRadius(s.start, s.radius).ExtendRadius(s.end, s.radius)
}

func (s Stick) Primitives() []Primitive {
	return []Primitive{{
		Kind:      PrimitiveCylinder,
		A:         s.start,
		B:         s.end,
		Radius:    s.radius,
		Color:     s.style.colorOr(common.White),
		Opacity:   s.style.Opacity,
		AtomIndex: -1,
	}}
}

func (s Stick) Translated(offset mgl64.Vec3) Shape {
	s.start = s.start.Add(offset)
	s.end = s.end.Add(offset)
	return s
}

func (s Stick) WithStyle(options ...ShapeBuilderOption) Shape {
	s.style = s.style.apply(options)
	return s
}
