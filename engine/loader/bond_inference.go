package loader

import (
	"cmp"
	"math"
	"slices"

	"github.com/Carmen-Shannon/oxy-mol/engine/shape"
)

// gridKey addresses one cell of the spatial hash used for neighbor search.
type gridKey struct{ x, y, z int }

// InferBonds returns a single bond for every pair of atoms closer than the sum of their
// covalent radii plus tolerance, and farther apart than MinBondDistance. The result is
// sorted by (I, J) with I < J, so it does not depend on the order atoms are visited.
//
// Parameters:
//   - atoms: the atoms to connect
//   - tolerance: distance added to the covalent radius sum, in angstroms
//
// Returns:
//   - []shape.Bond: the inferred bonds
func InferBonds(atoms []shape.Atom, tolerance float64) []shape.Bond {
	if len(atoms) < 2 {
		return nil
	}

	radii := make([]float64, len(atoms))
	maxRadius := 0.0
	for i, a := range atoms {
		radii[i] = shape.CovalentRadius(a.Element)
		maxRadius = math.Max(maxRadius, radii[i])
	}
	cell := 2*maxRadius + tolerance
	if cell <= 0 {
		return nil
	}

	key := func(i int) gridKey {
		p := atoms[i].Position
		return gridKey{
			int(math.Floor(p.X() / cell)),
			int(math.Floor(p.Y() / cell)),
			int(math.Floor(p.Z() / cell)),
		}
	}
	grid := make(map[gridKey][]int, len(atoms))
	for i := range atoms {
		k := key(i)
		grid[k] = append(grid[k], i)
	}

	var bonds []shape.Bond
	for i := range atoms {
		k := key(i)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for dz := -1; dz <= 1; dz++ {
					for _, j := range grid[gridKey{k.x + dx, k.y + dy, k.z + dz}] {
						if j <= i {
							continue
						}
						d := atoms[i].Position.Sub(atoms[j].Position).Len()
						if d < MinBondDistance || d > radii[i]+radii[j]+tolerance {
							continue
						}
						if atoms[i].Element == "H" && atoms[j].Element == "H" {
							continue
						}
						bonds = append(bonds, shape.Bond{I: i, J: j, Order: shape.BondSingle})
					}
				}
			}
		}
	}
	sortBonds(bonds)
	return bonds
}

// sortBonds orders bonds by (I, J).
func sortBonds(bonds []shape.Bond) {
	slices.SortFunc(bonds, func(a, b shape.Bond) int {
		if c := cmp.Compare(a.I, b.I); c != 0 {
			return c
		}
		return cmp.Compare(a.J, b.J)
	})
}

// mergeBonds returns explicit plus every inferred bond whose atom pair is not already
// explicit, sorted by (I, J).
func mergeBonds(explicit, inferred []shape.Bond) []shape.Bond {
	type pair struct{ i, j int }
	seen := make(map[pair]bool, len(explicit))
	out := make([]shape.Bond, 0, len(explicit)+len(inferred))
	for _, b := range explicit {
		if b.I > b.J {
			b.I, b.J = b.J, b.I
		}
		p := pair{b.I, b.J}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, b)
	}
	for _, b := range inferred {
		if !seen[pair{b.I, b.J}] {
			out = append(out, b)
		}
	}
	sortBonds(out)
	return out
}
