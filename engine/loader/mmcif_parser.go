package loader

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-mol/engine/shape"

	"github.com/go-gl/mathgl/mgl64"
)

// Structure is the parsed content of an mmCIF file before it becomes a shape.
type Structure struct {
	Name     string
	Atoms    []shape.Atom
	Bonds    []shape.Bond
	Residues []shape.Residue

	// ExplicitBonds counts the bonds taken from _struct_conn.
	ExplicitBonds int

	// Skipped holds the rows dropped in skip-malformed mode.
	Skipped []*MalformedRecordError
}

// Protein converts the structure into a protein shape.
//
// Parameters:
//   - options: style options for the protein
//
// Returns:
//   - *shape.Protein: the protein
//   - error: error if the structure is inconsistent
func (s *Structure) Protein(options ...shape.ShapeBuilderOption) (*shape.Protein, error) {
	return shape.NewProtein(s.Name, s.Atoms, s.Bonds, s.Residues, options...)
}

// atomSiteColumns holds the resolved column indices of _atom_site.
type atomSiteColumns struct {
	group, id, symbol, atomName, altID, comp, chain, seq, insCode int
	x, y, z, charge, model                                      int
	labelChain, labelSeq                                         int
}

func resolveAtomSite(t *cifTable) (atomSiteColumns, error) {
	cols := atomSiteColumns{
		group:      t.column("group_pdb"),
		id:         t.column("id"),
		symbol:     t.column("type_symbol"),
		atomName:   t.column("label_atom_id", "auth_atom_id"),
		altID:      t.column("label_alt_id"),
		comp:       t.column("label_comp_id", "auth_comp_id"),
		chain:      t.column("auth_asym_id", "label_asym_id"),
		seq:        t.column("auth_seq_id", "label_seq_id"),
		insCode:    t.column("pdbx_pdb_ins_code"),
		x:          t.column("cartn_x"),
		y:          t.column("cartn_y"),
		z:          t.column("cartn_z"),
		charge:     t.column("pdbx_formal_charge"),
		model:      t.column("pdbx_pdb_model_num"),
		labelChain: t.column("label_asym_id", "auth_asym_id"),
		labelSeq:   t.column("label_seq_id", "auth_seq_id"),
	}
	required := []struct {
		idx  int
		name string
	}{
		{cols.id, "_atom_site.id"},
		{cols.symbol, "_atom_site.type_symbol"},
		{cols.x, "_atom_site.Cartn_x"},
		{cols.y, "_atom_site.Cartn_y"},
		{cols.z, "_atom_site.Cartn_z"},
		{cols.comp, "_atom_site.label_comp_id"},
		{cols.chain, "_atom_site.auth_asym_id"},
	}
	for _, r := range required {
		if r.idx < 0 {
			return cols, &MalformedRecordError{Format: FormatMMCIF, Record: -1, Line: t.line, Field: r.name, Reason: "required column missing"}
		}
	}
	return cols, nil
}

// residueKey identifies a residue in file order.
type residueKey struct {
	chain, comp, ins string
	seq              int
}

// ParseMMCIF parses PDBx/mmCIF text into a Structure. Only the first data block and,
// for multi-model files, the first model are read. Alternate locations keep the first
// conformer listed for each atom.
//
// Parameters:
//   - r: the mmCIF text
//   - options: parser options
//
// Returns:
//   - *Structure: the parsed structure
//   - error: a *MalformedRecordError when a required column is missing or, unless
//     WithSkipMalformed is set, when an atom row cannot be parsed
func ParseMMCIF(r io.Reader, options ...ParserOption) (*Structure, error) {
	cfg := newParserConfig(options)

	block, err := parseCIF(r)
	if err != nil {
		return nil, err
	}

	t := block.table("_atom_site")
	if t == nil || len(t.rows) == 0 {
		return nil, &MalformedRecordError{Format: FormatMMCIF, Record: -1, Field: "_atom_site", Reason: "no atom records"}
	}
	cols, err := resolveAtomSite(t)
	if err != nil {
		return nil, err
	}

	s := &Structure{Name: block.name}
	if entry := block.table("_entry"); entry != nil {
		if c := entry.column("id"); c >= 0 && !entry.rows[0][c].missing() {
			s.Name = entry.rows[0][c].text
		}
	}

	// Lookups keyed by label and auth identifiers so _struct_conn and secondary
	// structure records can find atoms and residues.
	atomIndex := map[string]int{}
	residueLabel := map[string]int{}
	seenAtom := map[string]bool{}
	firstModel := ""
	var current residueKey
	currentResidue := -1

	for ri, row := range t.rows {
		if mre := t.shortRow(ri); mre != nil {
			if cfg.skipMalformed {
				s.Skipped = append(s.Skipped, mre)
				continue
			}
			return nil, mre
		}
		if cols.model >= 0 {
			m := row[cols.model].text
			if firstModel == "" {
				firstModel = m
			} else if m != firstModel {
				continue
			}
		}

		atom, err := parseAtomRow(row, cols, ri)
		if err != nil {
			var mre *MalformedRecordError
			if cfg.skipMalformed && errors.As(err, &mre) {
				s.Skipped = append(s.Skipped, mre)
				continue
			}
			return nil, err
		}

		ins := field(row, cols.insCode)
		altKey := strings.Join([]string{atom.Chain, strconv.Itoa(atom.ResidueSeq), ins, atom.ResidueName, atom.Name}, "|")
		if cols.altID >= 0 && !row[cols.altID].missing() {
			if seenAtom[altKey] {
				continue
			}
		}
		seenAtom[altKey] = true

		idx := len(s.Atoms)
		s.Atoms = append(s.Atoms, atom)

		labelChain := field(row, cols.labelChain)
		labelSeq := field(row, cols.labelSeq)
		atomIndex[atomKey(labelChain, labelSeq, atom.ResidueName, atom.Name)] = idx
		atomIndex[atomKey(atom.Chain, strconv.Itoa(atom.ResidueSeq), atom.ResidueName, atom.Name)] = idx

		key := residueKey{chain: atom.Chain, comp: atom.ResidueName, ins: ins, seq: atom.ResidueSeq}
		if currentResidue < 0 || key != current {
			current = key
			currentResidue = len(s.Residues)
			s.Residues = append(s.Residues, shape.Residue{
				Name:          atom.ResidueName,
				Seq:           atom.ResidueSeq,
				InsertionCode: ins,
				Chain:         atom.Chain,
				Kind:          shape.ClassifyResidue(atom.ResidueName, atom.Hetero),
			})
			residueLabel[labelChain+"|"+labelSeq] = currentResidue
		}
		s.Residues[currentResidue].Atoms = append(s.Residues[currentResidue].Atoms, idx)
	}

	if len(s.Atoms) == 0 {
		return nil, &MalformedRecordError{Format: FormatMMCIF, Record: -1, Line: t.line, Field: "_atom_site", Reason: "no usable atom records"}
	}

	explicit := parseStructConn(block, atomIndex)
	s.ExplicitBonds = len(explicit)
	switch cfg.bondPolicy {
	case BondPolicyExplicitOnly:
		s.Bonds = mergeBonds(explicit, nil)
	default:
		s.Bonds = mergeBonds(explicit, InferBonds(s.Atoms, cfg.tolerance))
	}

	applySecondaryStructure(block, s.Residues, residueLabel)
	return s, nil
}

// ParseMMCIFProtein parses mmCIF text straight into a protein shape.
//
// Parameters:
//   - r: the mmCIF text
//   - options: parser options
//
// Returns:
//   - *shape.Protein: the protein
//   - error: a *MalformedRecordError or construction error
func ParseMMCIFProtein(r io.Reader, options ...ParserOption) (*shape.Protein, error) {
	s, err := ParseMMCIF(r, options...)
	if err != nil {
		return nil, err
	}
	return s.Protein()
}

func field(row []cifValue, col int) string {
	if col < 0 || row[col].missing() {
		return ""
	}
	return row[col].text
}

func atomKey(chain, seq, comp, name string) string {
	return chain + "|" + seq + "|" + comp + "|" + name
}

// parseCoordinate parses a finite decimal coordinate. NaN and infinities are rejected.
func parseCoordinate(text string) (float64, bool) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseAtomRow(row []cifValue, cols atomSiteColumns, ri int) (shape.Atom, error) {
	malformed := func(col int, name, reason string) error {
		return &MalformedRecordError{Format: FormatMMCIF, Record: ri, Line: row[col].line, Field: name, Reason: reason}
	}

	var pos mgl64.Vec3
	for axis, c := range []int{cols.x, cols.y, cols.z} {
		v, ok := parseCoordinate(row[c].text)
		if !ok || row[c].missing() {
			return shape.Atom{}, malformed(c, "Cartn_"+string(rune('x'+axis)), fmt.Sprintf("non-numeric coordinate %q", row[c].text))
		}
		pos[axis] = v
	}

	if row[cols.symbol].missing() {
		return shape.Atom{}, malformed(cols.symbol, "type_symbol", "missing element")
	}
	if row[cols.comp].missing() {
		return shape.Atom{}, malformed(cols.comp, "label_comp_id", "missing residue name")
	}

	atom := shape.Atom{
		Element:     shape.NormalizeElement(row[cols.symbol].text),
		Position:    pos,
		Name:        field(row, cols.atomName),
		ResidueName: strings.ToUpper(row[cols.comp].text),
		Chain:       field(row, cols.chain),
		Hetero:      strings.EqualFold(field(row, cols.group), "HETATM"),
	}

	if seq := field(row, cols.seq); seq != "" {
		n, err := strconv.Atoi(seq)
		if err != nil {
			return shape.Atom{}, malformed(cols.seq, "auth_seq_id", fmt.Sprintf("non-numeric sequence number %q", seq))
		}
		atom.ResidueSeq = n
	}

	if c := field(row, cols.charge); c != "" {
		q, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return shape.Atom{}, malformed(cols.charge, "pdbx_formal_charge", fmt.Sprintf("non-numeric charge %q", c))
		}
		atom.Charge = q
		atom.HasCharge = true
	}
	return atom, nil
}

// parseStructConn returns the covalent and disulfide bonds listed in _struct_conn whose
// partners resolve to parsed atoms. Other connection types (metal coordination,
// hydrogen bonds) are not covalent bonds and are ignored.
func parseStructConn(block *cifBlock, atomIndex map[string]int) []shape.Bond {
	t := block.table("_struct_conn")
	if t == nil {
		return nil
	}
	typ := t.column("conn_type_id")
	order := t.column("pdbx_value_order")
	partner := func(n string) [4]int {
		p := "ptnr" + n + "_"
		return [4]int{
			t.column(p+"label_asym_id", p+"auth_asym_id"),
			t.column(p+"label_seq_id", p+"auth_seq_id"),
			t.column(p+"label_comp_id", p+"auth_comp_id"),
			t.column(p+"label_atom_id", p+"auth_atom_id"),
		}
	}
	p1, p2 := partner("1"), partner("2")
	for _, c := range append(p1[:], p2[:]...) {
		if c < 0 {
			return nil
		}
	}

	var bonds []shape.Bond
	for _, row := range t.rows {
		kind := strings.ToLower(field(row, typ))
		if !strings.HasPrefix(kind, "covale") && kind != "disulf" {
			continue
		}
		i, ok1 := atomIndex[atomKey(field(row, p1[0]), field(row, p1[1]), strings.ToUpper(field(row, p1[2])), field(row, p1[3]))]
		j, ok2 := atomIndex[atomKey(field(row, p2[0]), field(row, p2[1]), strings.ToUpper(field(row, p2[2])), field(row, p2[3]))]
		if !ok1 || !ok2 || i == j {
			continue
		}
		b := shape.Bond{I: i, J: j, Order: shape.BondSingle}
		switch strings.ToLower(field(row, order)) {
		case "doub":
			b.Order = shape.BondDouble
		case "trip":
			b.Order = shape.BondTriple
		}
		bonds = append(bonds, b)
	}
	return bonds
}

// applySecondaryStructure marks residues covered by _struct_conf helices and
// _struct_sheet_range strands. Residues are matched by label chain and sequence id.
func applySecondaryStructure(block *cifBlock, residues []shape.Residue, residueLabel map[string]int) {
	mark := func(t *cifTable, ss shape.SecondaryStructure, filter func(row []cifValue) bool) {
		if t == nil {
			return
		}
		begChain := t.column("beg_label_asym_id")
		begSeq := t.column("beg_label_seq_id")
		endChain := t.column("end_label_asym_id")
		endSeq := t.column("end_label_seq_id")
		if begChain < 0 || begSeq < 0 || endSeq < 0 {
			return
		}
		for _, row := range t.rows {
			if filter != nil && !filter(row) {
				continue
			}
			start, ok1 := residueLabel[field(row, begChain)+"|"+field(row, begSeq)]
			endKey := field(row, begChain)
			if endChain >= 0 {
				endKey = field(row, endChain)
			}
			end, ok2 := residueLabel[endKey+"|"+field(row, endSeq)]
			if !ok1 || !ok2 || end < start {
				continue
			}
			for i := start; i <= end; i++ {
				if residues[i].Kind == shape.ResidueStandard {
					residues[i].Structure = ss
				}
			}
		}
	}

	conf := block.table("_struct_conf")
	if conf != nil {
		typ := conf.column("conf_type_id")
		mark(conf, shape.Helix, func(row []cifValue) bool {
			return strings.HasPrefix(strings.ToUpper(field(row, typ)), "HELX")
		})
	}
	mark(block.table("_struct_sheet_range"), shape.Sheet, nil)
}
