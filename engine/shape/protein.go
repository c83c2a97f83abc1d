package shape

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-mol/common"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	traceSphereRadius   = 0.35
	traceCylinderRadius = 0.25
	// traceLinkMax bounds the distance between consecutive trace atoms that are joined.
	traceLinkMax = 4.2
)

var (
	helixColor = common.Color{R: 0.90, G: 0.20, B: 0.30}
	sheetColor = common.Color{R: 0.95, G: 0.80, B: 0.10}
	coilColor  = common.Color{R: 0.65, G: 0.65, B: 0.65}
)

// Protein is a macromolecular structure: atoms, bonds, residues grouped into chains,
// and per-residue secondary structure.
type Protein struct {
	name     string
	atoms    []Atom
	bonds    []Bond
	residues []Residue
	chains   []Chain
	style    Style

	prims  []Primitive
	bounds common.Bounds
}

var _ Shape = &Protein{}

// NewProtein creates a protein. Residues must index into atoms. When every residue is
// coil on input, secondary structure is assigned from the backbone geometry.
//
// Parameters:
//   - name: the structure title (e.g. the mmCIF data block name)
//   - atoms: the atoms
//   - bonds: the bonds, by atom index
//   - residues: the residues in file order
//   - options: style options
//
// Returns:
//   - *Protein: the new protein
//   - error: ErrInvalidShape on a bad position, bond, or residue atom index
func NewProtein(name string, atoms []Atom, bonds []Bond, residues []Residue, options ...ShapeBuilderOption) (*Protein, error) {
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

	res := make([]Residue, len(residues))
	assigned := false
	for i, r := range residues {
		for _, ai := range r.Atoms {
			if ai < 0 || ai >= len(cp) {
				return nil, fmt.Errorf("%w: residue %s%d references atom %d of %d", ErrInvalidShape, r.Name, r.Seq, ai, len(cp))
			}
		}
		r.Atoms = slices.Clone(r.Atoms)
		if r.Structure != Coil {
			assigned = true
		}
		res[i] = r
	}
	if !assigned {
		for i, ss := range AssignSecondaryStructure(cp, res) {
			res[i].Structure = ss
		}
	}

	p := &Protein{
		name:     name,
		atoms:    cp,
		bonds:    bs,
		residues: res,
		chains:   buildChains(res),
		style:    newStyle(options),
	}
	p.build()
	return p, nil
}

func buildChains(residues []Residue) []Chain {
	var chains []Chain
	index := map[string]int{}
	for i, r := range residues {
		ci, ok := index[r.Chain]
		if !ok {
			ci = len(chains)
			index[r.Chain] = ci
			chains = append(chains, Chain{ID: r.Chain})
		}
		chains[ci].Residues = append(chains[ci].Residues, i)
	}
	return chains
}

func (p *Protein) build() {
	switch p.style.Representation {
	case RepresentationBallAndStick:
		p.prims = ballAndStick(p.style, p.atoms, p.bonds, nil)
	case RepresentationSpaceFill:
		p.prims = spaceFill(p.style, p.atoms, nil)
	default:
		p.prims = p.trace()
	}
	p.bounds = primitiveBounds(p.prims)
}

// trace draws one sphere per standard residue at its CA (or P for nucleotides), joins
// consecutive ones in the same chain, and draws hetero and unknown residues as
// ball-and-stick. Water is omitted.
func (p *Protein) trace() []Primitive {
	var prims []Primitive
	detailed := make([]bool, len(p.atoms))

	for _, ch := range p.chains {
		prev := -1
		var prevColor common.Color
		for _, ri := range ch.Residues {
			r := p.residues[ri]
			switch r.Kind {
			case ResidueStandard:
			case ResidueWater:
				prev = -1
				continue
			default:
				for _, ai := range r.Atoms {
					detailed[ai] = true
				}
				prev = -1
				continue
			}

			ai, ok := r.atomNamed(p.atoms, "CA")
			if !ok {
				ai, ok = r.atomNamed(p.atoms, "P")
			}
			if !ok {
				prev = -1
				continue
			}
			col := p.style.colorOr(structureColor(r.Structure))
			pos := p.atoms[ai].Position
			prims = append(prims, Primitive{
				Kind: PrimitiveSphere, A: pos, B: pos, Radius: traceSphereRadius,
				Color: col, Opacity: p.style.Opacity, AtomIndex: ai,
			})
			if prev >= 0 {
				prevPos := p.atoms[prev].Position
				if prevPos.Sub(pos).Len() <= traceLinkMax {
					mid := prevPos.Add(pos).Mul(0.5)
					prims = append(prims, Primitive{
						Kind: PrimitiveCylinder, A: mid, B: pos, Radius: traceCylinderRadius,
						Color: col, Opacity: p.style.Opacity, AtomIndex: ai,
					})
					prims = append(prims, Primitive{
						Kind: PrimitiveCylinder, A: prevPos, B: mid, Radius: traceCylinderRadius,
						Color: prevColor, Opacity: p.style.Opacity, AtomIndex: prev,
					})
				}
			}
			prev = ai
			prevColor = col
		}
	}

	prims = append(prims, ballAndStick(p.style, p.atoms, p.bonds, func(i int) bool { return detailed[i] })...)
	return prims
}

func structureColor(ss SecondaryStructure) common.Color {
	switch ss {
	case Helix:
		return helixColor
	case Sheet:
		return sheetColor
	default:
		return coilColor
	}
}

func (p *Protein) clone() *Protein {
	c := *p
	return &c
}

// Name returns the structure title.
func (p *Protein) Name() string { return p.name }

// NumAtoms returns the atom count.
func (p *Protein) NumAtoms() int { return len(p.atoms) }

// NumBonds returns the bond count.
func (p *Protein) NumBonds() int { return len(p.bonds) }

// Atom returns atom i.
func (p *Protein) Atom(i int) Atom { return p.atoms[i] }

// Atoms returns a copy of the atom list.
func (p *Protein) Atoms() []Atom { return slices.Clone(p.atoms) }

// Bonds returns a copy of the bond list.
func (p *Protein) Bonds() []Bond { return slices.Clone(p.bonds) }

// NumResidues returns the residue count.
func (p *Protein) NumResidues() int { return len(p.residues) }

// Residue returns residue i. The returned Atoms slice is shared and must not be modified.
func (p *Protein) Residue(i int) Residue { return p.residues[i] }

// Residues returns a copy of the residue list.
func (p *Protein) Residues() []Residue {
	out := make([]Residue, len(p.residues))
	for i, r := range p.residues {
		r.Atoms = slices.Clone(r.Atoms)
		out[i] = r
	}
	return out
}

// Chains returns a copy of the chain list.
func (p *Protein) Chains() []Chain {
	out := make([]Chain, len(p.chains))
	for i, c := range p.chains {
		c.Residues = slices.Clone(c.Residues)
		out[i] = c
	}
	return out
}

// Ligands returns the hetero residues, excluding water.
func (p *Protein) Ligands() []Residue {
	var out []Residue
	for _, r := range p.residues {
		if r.Kind == ResidueHetero {
			r.Atoms = slices.Clone(r.Atoms)
			out = append(out, r)
		}
	}
	return out
}

// SecondaryStructure returns the per-residue structure string, one code per residue
// ("HHHCCEEE"), useful for inspection and tests.
func (p *Protein) SecondaryStructure() string {
	b := make([]byte, len(p.residues))
	for i, r := range p.residues {
		b[i] = r.Structure.String()[0]
	}
	return string(b)
}

// Centered returns a copy translated so its Center is at the origin.
func (p *Protein) Centered() *Protein {
	return p.Translated(p.Center().Mul(-1)).(*Protein)
}

func (p *Protein) Kind() Kind              { return KindProtein }
func (p *Protein) Style() Style            { return p.style }
func (p *Protein) Bounds() common.Bounds   { return p.bounds }
func (p *Protein) Primitives() []Primitive { return p.prims }

// Center returns the center of the bounding box of the atom positions.
func (p *Protein) Center() mgl64.Vec3 {
	return atomBounds(p.atoms).Center()
}

func (p *Protein) Translated(offset mgl64.Vec3) Shape {
	c := p.clone()
	c.atoms = translateAtoms(p.atoms, offset)
	c.build()
	return c
}

func (p *Protein) WithStyle(options ...ShapeBuilderOption) Shape {
	c := p.clone()
	c.style = p.style.apply(options)
	c.build()
	return c
}
