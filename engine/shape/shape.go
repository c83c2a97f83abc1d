package shape

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-mol/common"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidShape is returned when shape geometry violates its construction rules
// (non-positive radius, degenerate stick, out-of-range bond index).
var ErrInvalidShape = errors.New("shape: invalid geometry")

// Kind identifies the concrete variant behind a Shape.
type Kind int

const (
	// KindSphere is a single sphere.
	KindSphere Kind = iota
	// KindStick is a cylinder between two points.
	KindStick
	// KindMolecule is a small molecule with explicit bonds.
	KindMolecule
	// KindProtein is a macromolecule with chains and residues.
	KindProtein
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindStick:
		return "stick"
	case KindMolecule:
		return "molecule"
	case KindProtein:
		return "protein"
	default:
		return "unknown"
	}
}

// Shape is an immutable renderable entity. Every method that would change a shape
// returns a new value instead, so a Shape can be shared freely between the scene,
// snapshots, and the render goroutine.
//
// The concrete variants are Sphere, Stick, *Molecule, and *Protein.
type Shape interface {
	// Kind returns the variant tag.
	//
	// Returns:
	//   - Kind: the shape variant
	Kind() Kind

	// Style returns the visual style.
	//
	// Returns:
	//   - Style: color, opacity, visibility, and hit-test settings
	Style() Style

	// Center returns the center of the shape's axis-aligned bounding box.
	//
	// Returns:
	//   - mgl64.Vec3: the bounding-box center
	Center() mgl64.Vec3

	// Bounds returns the axis-aligned bounding box including primitive radii.
	//
	// Returns:
	//   - common.Bounds: the bounding box
	Bounds() common.Bounds

	// Primitives returns the render primitives for the shape in model space.
	// The returned slice is shared and must not be modified.
	//
	// Returns:
	//   - []Primitive: spheres and cylinders making up the shape
	Primitives() []Primitive

	// Translated returns a copy of the shape moved by offset.
	//
	// Parameters:
	//   - offset: the translation
	//
	// Returns:
	//   - Shape: the moved copy
	Translated(offset mgl64.Vec3) Shape

	// WithStyle returns a copy of the shape with the given options applied to its style.
	//
	// Parameters:
	//   - options: style options
	//
	// Returns:
	//   - Shape: the restyled copy
	WithStyle(options ...ShapeBuilderOption) Shape
}

// PrimitiveKind distinguishes the two primitive solids the renderer knows how to draw.
type PrimitiveKind int

const (
	// PrimitiveSphere is a sphere at A with Radius.
	PrimitiveSphere PrimitiveKind = iota
	// PrimitiveCylinder is a capped cylinder from A to B with Radius.
	PrimitiveCylinder
)

// Primitive is a single sphere or cylinder ready for projection.
type Primitive struct {
	Kind    PrimitiveKind
	A       mgl64.Vec3
	B       mgl64.Vec3
	Radius  float64
	Color   common.Color
	Opacity float64

	// AtomIndex is the index of the atom this primitive depicts, or -1.
	AtomIndex int
}

// Transformed returns the primitive scaled by scale and then translated by offset.
//
// Parameters:
//   - scale: uniform scale factor
//   - offset: translation applied after scaling
//
// Returns:
//   - Primitive: the transformed primitive
func (p Primitive) Transformed(scale float64, offset mgl64.Vec3) Primitive {
	p.A = p.A.Mul(scale).Add(offset)
	p.B = p.B.Mul(scale).Add(offset)
	p.Radius *= scale
	return p
}
