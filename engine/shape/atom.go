package shape

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Atom is a single atom of a Molecule or Protein.
type Atom struct {
	// Element is the canonical element symbol ("C", "Cl").
	Element  string
	Position mgl64.Vec3

	// Name is the atom name within its residue ("CA", "OG1"). Empty for ligands.
	Name string

	// Residue fields are populated for macromolecular atoms.
	ResidueName string
	ResidueSeq  int
	Chain       string
	Hetero      bool

	// Charge is the formal or partial charge when HasCharge is set.
	Charge    float64
	HasCharge bool
}

// BondOrder is the multiplicity of a bond.
type BondOrder int

const (
	BondSingle   BondOrder = 1
	BondDouble   BondOrder = 2
	BondTriple   BondOrder = 3
	BondAromatic BondOrder = 4
)

// String returns the bond order name.
func (o BondOrder) String() string {
	switch o {
	case BondSingle:
		return "single"
	case BondDouble:
		return "double"
	case BondTriple:
		return "triple"
	case BondAromatic:
		return "aromatic"
	default:
		return fmt.Sprintf("BondOrder(%d)", int(o))
	}
}

// Bond connects two atoms by index. I < J is not required on input but
// constructors normalize it.
type Bond struct {
	I, J  int
	Order BondOrder
}

// normalized returns the bond with I < J.
func (b Bond) normalized() Bond {
	if b.I > b.J {
		b.I, b.J = b.J, b.I
	}
	if b.Order == 0 {
		b.Order = BondSingle
	}
	return b
}

func validateBonds(atoms []Atom, bonds []Bond) ([]Bond, error) {
	out := make([]Bond, len(bonds))
	for i, b := range bonds {
		b = b.normalized()
		if b.I < 0 || b.J >= len(atoms) {
			return nil, fmt.Errorf("%w: bond %d references atom %d-%d of %d", ErrInvalidShape, i, b.I, b.J, len(atoms))
		}
		if b.I == b.J {
			return nil, fmt.Errorf("%w: bond %d connects atom %d to itself", ErrInvalidShape, i, b.I)
		}
		if b.Order < BondSingle || b.Order > BondAromatic {
			return nil, fmt.Errorf("%w: bond %d has order %d", ErrInvalidShape, i, int(b.Order))
		}
		out[i] = b
	}
	return out, nil
}
