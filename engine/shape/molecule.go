package shape

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-mol/common"

	"github.com/go-gl/mathgl/mgl64"
)

// Molecule is a small molecule: atoms plus explicit bonds, with optional
// key/value properties carried over from the source file.
type Molecule struct {
	name       string
	atoms      []Atom
	bonds      []Bond
	properties map[string]string
	style      Style

	prims  []Primitive
	bounds common.Bounds
}

var _ Shape = &Molecule{}

// NewMolecule creates a molecule. The atoms and bonds are copied; element symbols are
// normalized and bonds are validated against the atom list.
//
// Parameters:
//   - name: the molecule title
//   - atoms: the atoms (must have finite positions)
//   - bonds: the bonds, by atom index
//   - options: style options
//
// Returns:
//   - *Molecule: the new molecule
//   - error: ErrInvalidShape on a bad position or bond
func NewMolecule(name string, atoms []Atom, bonds []Bond, options ...ShapeBuilderOption) (*Molecule, error) {
	cp := make([]Atom, len(atoms))
	for i, a := range atoms {
		if !validPosition(a.Position) {
			return nil, fmt.Errorf("%w: atom %d has non-finite position %v", ErrInvalidShape, i, a.Position)
		}
		a.Element = NormalizeElement(a.Element)
		cp[i] = a
	}
	bs, err := validateBonds(cp, bonds)
	if err != nil {
		return nil, err
	}
	m := &Molecule{
		name:       name,
		atoms:      cp,
		bonds:      bs,
		properties: map[string]string{},
		style:      newStyle(options),
	}
	m.build()
	return m, nil
}

// build derives the primitives and bounds. Called once per constructed value.
func (m *Molecule) build() {
	switch m.style.Representation {
	case RepresentationSpaceFill:
		m.prims = spaceFill(m.style, m.atoms, nil)
	default:
		m.prims = ballAndStick(m.style, m.atoms, m.bonds, nil)
	}
	m.bounds = primitiveBounds(m.prims)
}

// clone returns a shallow copy sharing atoms, bonds, and properties. Callers replace
// whichever slices they change before calling build.
func (m *Molecule) clone() *Molecule {
	c := *m
	return &c
}

// Name returns the molecule title.
func (m *Molecule) Name() string { return m.name }

// NumAtoms returns the atom count.
func (m *Molecule) NumAtoms() int { return len(m.atoms) }

// NumBonds returns the bond count.
func (m *Molecule) NumBonds() int { return len(m.bonds) }

// Atom returns atom i.
func (m *Molecule) Atom(i int) Atom { return m.atoms[i] }

// Atoms returns a copy of the atom list.
func (m *Molecule) Atoms() []Atom { return slices.Clone(m.atoms) }

// Bonds returns a copy of the bond list.
func (m *Molecule) Bonds() []Bond { return slices.Clone(m.bonds) }

// Property returns a data item carried over from the source file.
func (m *Molecule) Property(key string) (string, bool) {
	v, ok := m.properties[key]
	return v, ok
}

// Properties returns a copy of every data item.
func (m *Molecule) Properties() map[string]string { return maps.Clone(m.properties) }

// WithProperties returns a copy with the given data items merged in.
//
// Parameters:
//   - props: the items to set
//
// Returns:
//   - *Molecule: the updated copy
func (m *Molecule) WithProperties(props map[string]string) *Molecule {
	c := m.clone()
	c.properties = maps.Clone(m.properties)
	maps.Copy(c.properties, props)
	return c
}

// WithName returns a copy with a new title.
func (m *Molecule) WithName(name string) *Molecule {
	c := m.clone()
	c.name = name
	return c
}

// Centered returns a copy translated so its Center is at the origin.
func (m *Molecule) Centered() *Molecule {
	return m.Translated(m.Center().Mul(-1)).(*Molecule)
}

func (m *Molecule) Kind() Kind            { return KindMolecule }
func (m *Molecule) Style() Style          { return m.style }
func (m *Molecule) Bounds() common.Bounds { return m.bounds }
func (m *Molecule) Primitives() []Primitive {
	return m.prims
}

// Center returns the center of the bounding box of the atom positions.
func (m *Molecule) Center() mgl64.Vec3 {
	return atomBounds(m.atoms).Center()
}

func (m *Molecule) Translated(offset mgl64.Vec3) Shape {
	c := m.clone()
	c.atoms = translateAtoms(m.atoms, offset)
	c.build()
	return c
}

func (m *Molecule) WithStyle(options ...ShapeBuilderOption) Shape {
	c := m.clone()
	c.style = m.style.apply(options)
	c.build()
	return c
}
