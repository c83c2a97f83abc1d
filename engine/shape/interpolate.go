package shape

import "github.com/Carmen-Shannon/oxy-mol/common"

// Interpolate blends two shapes by weight t in [0, 1]. Spheres and sticks blend
// geometry, color, and opacity. Molecules and proteins blend atom positions when
// both have the same atoms in the same order, keeping a's bonds and residues.
// Any other pairing snaps to the nearer keyframe: a below t = 0.5, b from there on.
//
// Parameters:
//   - a: the shape at t = 0
//   - b: the shape at t = 1
//   - t: the blend weight, clamped to [0, 1]
//
// Returns:
//   - Shape: the blended shape
func Interpolate(a, b Shape, t float64) Shape {
	t = common.Clamp01(t)
	if t == 0 || a == nil || b == nil {
		return a
	}
	nearer := a
	if t >= 0.5 {
		nearer = b
	}

	switch av := a.(type) {
	case Sphere:
		bv, ok := b.(Sphere)
		if !ok {
			return nearer
		}
		if t == 1 {
			return b
		}
		av.center = common.LerpVec3(av.center, bv.center, t)
		av.radius = common.Lerp(av.radius, bv.radius, t)
		av.style = lerpStyle(av.style, bv.style, t)
		return av
	case Stick:
		bv, ok := b.(Stick)
		if !ok {
			return nearer
		}
		if t == 1 {
			return b
		}
		av.start = common.LerpVec3(av.start, bv.start, t)
		av.end = common.LerpVec3(av.end, bv.end, t)
		av.radius = common.Lerp(av.radius, bv.radius, t)
		av.style = lerpStyle(av.style, bv.style, t)
		return av
	case *Molecule:
		bv, ok := b.(*Molecule)
		if !ok || !sameAtoms(av.atoms, bv.atoms) {
			return nearer
		}
		if t == 1 {
			return b
		}
		c := av.clone()
		c.atoms = lerpAtoms(av.atoms, bv.atoms, t)
		c.style = lerpStyle(av.style, bv.style, t)
		c.build()
		return c
	case *Protein:
		bv, ok := b.(*Protein)
		if !ok || !sameAtoms(av.atoms, bv.atoms) {
			return nearer
		}
		if t == 1 {
			return b
		}
		c := av.clone()
		c.atoms = lerpAtoms(av.atoms, bv.atoms, t)
		c.style = lerpStyle(av.style, bv.style, t)
		c.build()
		return c
	default:
		if t == 1 {
			return b
		}
		return nearer
	}
}

func lerpStyle(a, b Style, t float64) Style {
	out := a
	if a.HasColor && b.HasColor {
		out.Color = a.Color.Lerp(b.Color, t)
	}
	out.Opacity = common.Lerp(a.Opacity, b.Opacity, t)
	return out
}

func sameAtoms(a, b []Atom) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Element != b[i].Element {
			return false
		}
	}
	return true
}

func lerpAtoms(a, b []Atom, t float64) []Atom {
	out := make([]Atom, len(a))
	for i := range a {
		at := a[i]
		at.Position = common.LerpVec3(a[i].Position, b[i].Position, t)
		out[i] = at
	}
	return out
}
