package shape

import "github.com/go-gl/mathgl/mgl64"

const (
	// hbondCutoff is the DSSP electrostatic energy threshold in kcal/mol.
	hbondCutoff = -0.5
	// hbondCoupling is 0.084 * 332, the DSSP partial-charge coupling constant.
	hbondCoupling = 27.888
	// peptideBondMax bounds C(i-1)-N(i) for consecutive residues to be treated as linked.
	peptideBondMax = 2.0
	// neighborCutoff bounds the CA-CA distance of residue pairs tested for hydrogen bonds.
	neighborCutoff = 9.0
)

// backbone holds the positions DSSP needs for one residue.
type backbone struct {
	n, ca, c, o, h mgl64.Vec3
	hasH           bool
	segment        int
}

// AssignSecondaryStructure assigns helix, sheet, or coil to every residue using
// backbone hydrogen-bond energies in the manner of DSSP. Residues without a complete
// N/CA/C/O backbone are coil. Only alpha helices (i -> i+4 turns) and ladders of at
// least two bridged residues are recognized.
//
// Parameters:
//   - atoms: the atom list residues index into
//   - residues: the residues in chain order
//
// Returns:
//   - []SecondaryStructure: one entry per residue
func AssignSecondaryStructure(atoms []Atom, residues []Residue) []SecondaryStructure {
	out := make([]SecondaryStructure, len(residues))

	// Index the residues that have a full backbone, in order.
	var bb []backbone
	var resIdx []int
	segment := 0
	for ri, r := range residues {
		if r.Kind != ResidueStandard {
			continue
		}
		n, okN := r.atomNamed(atoms, "N")
		ca, okCA := r.atomNamed(atoms, "CA")
		c, okC := r.atomNamed(atoms, "C")
		o, okO := r.atomNamed(atoms, "O")
		if !okN || !okCA || !okC || !okO {
			segment++
			continue
		}
		cur := backbone{
			n:  atoms[n].Position,
			ca: atoms[ca].Position,
			c:  atoms[c].Position,
			o:  atoms[o].Position,
		}
		if len(bb) > 0 {
			prev := bb[len(bb)-1]
			prevRes := residues[resIdx[len(resIdx)-1]]
			if prevRes.Chain != r.Chain || prev.c.Sub(cur.n).Len() > peptideBondMax {
				segment++
			} else if prev.segment == segment {
				// Amide hydrogen placed 1 A from N, opposite the previous carbonyl.
				co := prev.c.Sub(prev.o).Normalize()
				cur.h = cur.n.Add(co)
				cur.hasH = true
			}
		}
		cur.segment = segment
		bb = append(bb, cur)
		resIdx = append(resIdx, ri)
	}

	count := len(bb)
	if count == 0 {
		return out
	}

	// hbond[i] holds the residues j whose N-H donates to the C=O of i.
	hbond := make([]map[int]bool, count)
	for i := range hbond {
		hbond[i] = map[int]bool{}
	}
	for i := 0; i < count; i++ {
		for j := 0; j < count; j++ {
			if i == j || !bb[j].hasH {
				continue
			}
			if j-i == 1 || i-j == 1 {
				continue
			}
			if bb[i].ca.Sub(bb[j].ca).Len() > neighborCutoff {
				continue
			}
			if hbondEnergy(bb[i], bb[j]) < hbondCutoff {
				hbond[i][j] = true
			}
		}
	}

	linked := func(a, b int) bool {
		return a >= 0 && b >= 0 && a < count && b < count && bb[a].segment == bb[b].segment
	}
	hb := func(i, j int) bool {
		return i >= 0 && j >= 0 && i < count && j < count && hbond[i][j]
	}
	turn4 := func(i int) bool {
		return linked(i, i+4) && hb(i, i+4)
	}

	local := make([]SecondaryStructure, count)
	for i := 1; i < count; i++ {
		if turn4(i-1) && turn4(i) {
			for k := i; k < i+4 && k < count; k++ {
				local[k] = Helix
			}
		}
	}

	bridged := make([]bool, count)
	for i := 1; i < count-1; i++ {
		if !linked(i-1, i+1) {
			continue
		}
		for j := 1; j < count-1; j++ {
			if j-i < 3 && i-j < 3 {
				continue
			}
			if !linked(j-1, j+1) {
				continue
			}
			parallel := (hb(i-1, j) && hb(j, i+1)) || (hb(j-1, i) && hb(i, j+1))
			antiparallel := (hb(i, j) && hb(j, i)) || (hb(i-1, j+1) && hb(j-1, i+1))
			if parallel || antiparallel {
				bridged[i] = true
				bridged[j] = true
			}
		}
	}
	for i := 0; i < count; i++ {
		if !bridged[i] || local[i] == Helix {
			continue
		}
		if (i > 0 && bridged[i-1] && linked(i-1, i)) || (i+1 < count && bridged[i+1] && linked(i, i+1)) {
			local[i] = Sheet
		}
	}

	for k, ri := range resIdx {
		out[ri] = local[k]
	}
	return out
}

// hbondEnergy returns the DSSP energy of the bond between the C=O of acceptor and the N-H of donor.
func hbondEnergy(acceptor, donor backbone) float64 {
	rON := acceptor.o.Sub(donor.n).Len()
	rCH := acceptor.c.Sub(donor.h).Len()
	rOH := acceptor.o.Sub(donor.h).Len()
	rCN := acceptor.c.Sub(donor.n).Len()
	if rON == 0 || rCH == 0 || rOH == 0 || rCN == 0 {
		return 0
	}
	return hbondCoupling * (1/rON + 1/rCH - 1/rOH - 1/rCN)
}
