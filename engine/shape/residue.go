package shape

import "strings"

// ResidueKind classifies a residue for rendering.
type ResidueKind int

const (
	// ResidueStandard is one of the standard amino acids or nucleotides.
	ResidueStandard ResidueKind = iota
	// ResidueHetero is a ligand or other hetero group.
	ResidueHetero
	// ResidueWater is a solvent molecule.
	ResidueWater
	// ResidueUnknown is a polymer residue with an unrecognized name. It is kept and drawn as ball-and-stick.
	ResidueUnknown
)

// String returns the kind name.
func (k ResidueKind) String() string {
	switch k {
	case ResidueStandard:
		return "standard"
	case ResidueHetero:
		return "hetero"
	case ResidueWater:
		return "water"
	default:
		return "unknown"
	}
}

// SecondaryStructure is the backbone conformation assigned to a residue.
type SecondaryStructure int

const (
	Coil SecondaryStructure = iota
	Helix
	Sheet
)

// String returns the one-letter DSSP-style code.
func (s SecondaryStructure) String() string {
	switch s {
	case Helix:
		return "H"
	case Sheet:
		return "E"
	default:
		return "C"
	}
}

// Residue groups the atoms of one monomer of a chain.
type Residue struct {
	Name          string
	Seq           int
	InsertionCode string
	Chain         string
	Kind          ResidueKind

	// Atoms are indices into the owning protein's atom list.
	Atoms []int

	Structure SecondaryStructure
}

// Chain is an ordered run of residues sharing a chain identifier.
type Chain struct {
	ID string

	// Residues are indices into the owning protein's residue list.
	Residues []int
}

var standardResidues = map[string]bool{
	"ALA": true, "ARG": true, "ASN": true, "ASP": true, "CYS": true,
	"GLN": true, "GLU": true, "GLY": true, "HIS": true, "ILE": true,
	"LEU": true, "LYS": true, "MET": true, "PHE": true, "PRO": true,
	"SER": true, "THR": true, "TRP": true, "TYR": true, "VAL": true,
	"MSE": true, "SEC": true, "PYL": true,
	"A": true, "C": true, "G": true, "U": true, "I": true,
	"DA": true, "DC": true, "DG": true, "DT": true, "DI": true,
}

var waterResidues = map[string]bool{"HOH": true, "WAT": true, "DOD": true, "H2O": true}

// ClassifyResidue returns the kind of a residue from its name and hetero flag.
//
// Parameters:
//   - name: the residue name, e.g. "ALA", "HOH", "ATP"
//   - hetero: true if the residue's atoms were HETATM records
//
// Returns:
//   - ResidueKind: the classification
func ClassifyResidue(name string, hetero bool) ResidueKind {
	name = strings.ToUpper(strings.TrimSpace(name))
	switch {
	case waterResidues[name]:
		return ResidueWater
	case standardResidues[name]:
		return ResidueStandard
	case hetero:
		return ResidueHetero
	default:
		return ResidueUnknown
	}
}

// atomNamed returns the index of the residue atom with the given name.
func (r Residue) atomNamed(atoms []Atom, name string) (int, bool) {
	for _, i := range r.Atoms {
		if atoms[i].Name == name {
			return i, true
		}
	}
	return -1, false
}
