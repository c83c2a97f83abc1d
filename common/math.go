package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Lerp linearly interpolates between a and b by t.
//
// Parameters:
//   - a: value at t = 0
//   - b: value at t = 1
//   - t: interpolation weight
//
// Returns:
//   - float64: the interpolated value
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpVec3 linearly interpolates two points component-wise.
//
// Parameters:
//   - a: point at t = 0
//   - b: point at t = 1
//   - t: interpolation weight
//
// Returns:
//   - mgl64.Vec3: the interpolated point
func LerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Clamp01 clamps v into [0, 1].
func Clamp01(v float64) float64 {
	return mgl64.Clamp(v, 0, 1)
}

// Bounds is an axis-aligned bounding box. The zero value is empty.
type Bounds struct {
	Min   mgl64.Vec3
	Max   mgl64.Vec3
	valid bool
}

// NewBounds returns the bounding box of the given points.
//
// Parameters:
//   - points: the points to enclose
//
// Returns:
//   - Bounds: the enclosing box, empty when no points are given
func NewBounds(points ...mgl64.Vec3) Bounds {
	var b Bounds
	for _, p := range points {
		b = b.Extend(p)
	}
	return b
}

// Empty reports whether the box encloses nothing.
func (b Bounds) Empty() bool {
	return !b.valid
}

// Extend returns a box that also encloses p.
//
// Parameters:
//   - p: the point to include
//
// Returns:
//   - Bounds: the grown box
func (b Bounds) Extend(p mgl64.Vec3) Bounds {
	if !b.valid {
		return Bounds{Min: p, Max: p, valid: true}
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// ExtendRadius returns a box that also encloses a sphere of radius r around p.
func (b Bounds) ExtendRadius(p mgl64.Vec3, r float64) Bounds {
	return b.Extend(p.Sub(mgl64.Vec3{r, r, r})).Extend(p.Add(mgl64.Vec3{r, r, r}))
}

// Union returns a box enclosing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	if !o.valid {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Center returns the midpoint of the box, or the origin for an empty box.
func (b Bounds) Center() mgl64.Vec3 {
	if !b.valid {
		return mgl64.Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius returns half the length of the box diagonal.
func (b Bounds) Radius() float64 {
	if !b.valid {
		return 0
	}
	return b.Max.Sub(b.Min).Len() / 2
}

// Transform returns the box after scaling by scale and then translating by offset.
//
// Parameters:
//   - scale: uniform scale factor
//   - offset: translation applied after scaling
//
// Returns:
//   - Bounds: the transformed box
func (b Bounds) Transform(scale float64, offset mgl64.Vec3) Bounds {
	if !b.valid {
		return b
	}
	return NewBounds(b.Min.Mul(scale).Add(offset), b.Max.Mul(scale).Add(offset))
}

// Coalesce returns the first non-zero value, or the zero value if every value is zero.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
