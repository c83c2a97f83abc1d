package shape

import (
	"math"

	"github.com/Carmen-Shannon/oxy-mol/common"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	ballScale      = 0.45
	spaceFillScale = 1.6
	bondRadius     = 0.1
	multiBondScale = 0.6
)

// atomColor returns the style override or the element color.
func atomColor(style Style, a Atom) common.Color {
	if style.HasColor {
		return style.Color
	}
	e, _ := LookupElement(a.Element)
	return e.Color
}

// atomPrimitive returns the sphere depicting atom i at the given radius scale.
func atomPrimitive(style Style, atoms []Atom, i int, scale float64) Primitive {
	a := atoms[i]
	return Primitive{
		Kind:      PrimitiveSphere,
		A:         a.Position,
		B:         a.Position,
		Radius:    CovalentRadius(a.Element) * scale,
		Color:     atomColor(style, a),
		Opacity:   style.Opacity,
		AtomIndex: i,
	}
}

// ballAndStick builds atom spheres and bond cylinders for the atoms accepted by keep.
// A bond is drawn when both of its atoms are kept. Bonds of order two or three become
// parallel cylinders offset perpendicular to the bond axis, and each cylinder is split
// at its midpoint so each half carries its own atom's color.
func ballAndStick(style Style, atoms []Atom, bonds []Bond, keep func(int) bool) []Primitive {
	prims := make([]Primitive, 0, len(atoms)+2*len(bonds))
	for i := range atoms {
		if keep != nil && !keep(i) {
			continue
		}
		prims = append(prims, atomPrimitive(style, atoms, i, ballScale))
	}

	for _, b := range bonds {
		if keep != nil && (!keep(b.I) || !keep(b.J)) {
			continue
		}
		p1 := atoms[b.I].Position
		p2 := atoms[b.J].Position
		d := p2.Sub(p1)
		if d.Len() == 0 {
			continue
		}
		dNorm := d.Normalize()
		ref := mgl64.Vec3{0, 0, 1}
		if math.Abs(dNorm.Dot(ref)) > 0.9 {
			ref = mgl64.Vec3{0, 1, 0}
		}
		perp := dNorm.Cross(ref).Normalize()
		r1 := CovalentRadius(atoms[b.I].Element) * ballScale
		r2 := CovalentRadius(atoms[b.J].Element) * ballScale
		offMag := 0.4 * math.Min(r1, r2)

		var offsets []float64
		radius := bondRadius
		switch b.Order {
		case BondDouble:
			offsets = []float64{offMag, -offMag}
			radius *= multiBondScale
		case BondTriple:
			offsets = []float64{0, offMag, -offMag}
			radius *= multiBondScale
		case BondAromatic:
			offsets = []float64{0, offMag}
			radius *= multiBondScale
		default:
			offsets = []float64{0}
		}

		c1 := atomColor(style, atoms[b.I])
		c2 := atomColor(style, atoms[b.J])
		for _, off := range offsets {
			offset := perp.Mul(off)
			a := p1.Add(offset)
			z := p2.Add(offset)
			mid := a.Add(z).Mul(0.5)
			prims = append(prims,
				Primitive{Kind: PrimitiveCylinder, A: a, B: mid, Radius: radius, Color: c1, Opacity: style.Opacity, AtomIndex: b.I},
				Primitive{Kind: PrimitiveCylinder, A: mid, B: z, Radius: radius, Color: c2, Opacity: style.Opacity, AtomIndex: b.J},
			)
		}
	}
	return prims
}

// spaceFill builds one enlarged sphere per kept atom.
func spaceFill(style Style, atoms []Atom, keep func(int) bool) []Primitive {
	prims := make([]Primitive, 0, len(atoms))
	for i := range atoms {
		if keep != nil && !keep(i) {
			continue
		}
		prims = append(prims, atomPrimitive(style, atoms, i, spaceFillScale))
	}
	return prims
}

// primitiveBounds returns the bounding box of prims including their radii.
func primitiveBounds(prims []Primitive) common.Bounds {
	var b common.Bounds
	for _, p := range prims {
		b = b.ExtendRadius(p.A, p.Radius).ExtendRadius(p.B, p.Radius)
	}
	return b
}

// atomBounds returns the bounding box of the atom centers.
func atomBounds(atoms []Atom) common.Bounds {
	var b common.Bounds
	for _, a := range atoms {
		b = b.Extend(a.Position)
	}
	return b
}

func validPosition(p mgl64.Vec3) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func translateAtoms(atoms []Atom, offset mgl64.Vec3) []Atom {
	out := make([]Atom, len(atoms))
	for i, a := range atoms {
		a.Position = a.Position.Add(offset)
		out[i] = a
	}
	return out
}
