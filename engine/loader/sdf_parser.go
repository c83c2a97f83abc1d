package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/shape"

	"github.com/go-gl/mathgl/mgl64"
)

// SDFRecord is the outcome of parsing one MOL block of an SDF file. Exactly one of
// Molecule and Err is set.
type SDFRecord struct {
	// Index is the 0-based position of the record in the file.
	Index int
	// Line is the 1-based line the record starts on.
	Line     int
	Molecule *shape.Molecule
	Err      error
}

// sdfChunk is the raw text of one record.
type sdfChunk struct {
	index int
	line  int
	lines []string
}

// splitSDF cuts SDF text into records at "$$$$" separators. A trailing record made
// only of blank lines is dropped.
func splitSDF(r io.Reader) ([]sdfChunk, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var chunks []sdfChunk
	cur := sdfChunk{line: 1}
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, "$$$$") {
			cur.index = len(chunks)
			chunks = append(chunks, cur)
			cur = sdfChunk{line: lineNo + 1}
			continue
		}
		cur.lines = append(cur.lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read SDF: %w", err)
	}
	for _, l := range cur.lines {
		if strings.TrimSpace(l) != "" {
			cur.index = len(chunks)
			chunks = append(chunks, cur)
			break
		}
	}
	return chunks, nil
}

// ParseSDFRecords parses every record of an SDF file. Records are parsed in parallel
// on the shared worker pool and returned in file order; a malformed record does not
// affect its siblings.
//
// Parameters:
//   - r: the SDF text
//   - options: parser options (WithWorkers controls parallelism)
//
// Returns:
//   - []SDFRecord: one entry per record
//   - error: error only if the input cannot be read
func ParseSDFRecords(r io.Reader, options ...ParserOption) ([]SDFRecord, error) {
	cfg := newParserConfig(options)
	chunks, err := splitSDF(r)
	if err != nil {
		return nil, err
	}
	results := make([]SDFRecord, len(chunks))
	if len(chunks) == 0 {
		return results, nil
	}

	parse := func(c sdfChunk) {
		mol, err := parseMolBlock(c)
		results[c.index] = SDFRecord{Index: c.index, Line: c.line, Molecule: mol, Err: err}
	}

	workers := min(cfg.workers, len(chunks))
	if workers <= 1 {
		for _, c := range chunks {
			parse(c)
		}
		return results, nil
	}

	// Records are handed out in contiguous batches so the number of queued tasks
	// stays well under the pool's queue size regardless of file size.
	common.ParallelRange(len(chunks), workers*4, func(from, to int) {
		for _, c := range chunks[from:to] {
			parse(c)
		}
	})
	return results, nil
}

// ParseSDF parses every record of an SDF file and returns the well-formed molecules
// in file order. Malformed records are reported together as a joined error of
// *MalformedRecordError values; the molecules that parsed are still returned.
//
// Parameters:
//   - r: the SDF text
//   - options: parser options
//
// Returns:
//   - []*shape.Molecule: the molecules that parsed
//   - error: the joined record errors, or a read error
func ParseSDF(r io.Reader, options ...ParserOption) ([]*shape.Molecule, error) {
	records, err := ParseSDFRecords(r, options...)
	if err != nil {
		return nil, err
	}
	var mols []*shape.Molecule
	var errs []error
	for _, rec := range records {
		if rec.Err != nil {
			errs = append(errs, rec.Err)
			continue
		}
		mols = append(mols, rec.Molecule)
	}
	return mols, errors.Join(errs...)
}

// sdfCharges maps the V2000 atom-block charge code to a formal charge.
var sdfCharges = map[int]float64{1: 3, 2: 2, 3: 1, 5: -1, 6: -2, 7: -3}

func parseMolBlock(c sdfChunk) (*shape.Molecule, error) {
	malformed := func(offset int, field, reason string) error {
		return &MalformedRecordError{Format: FormatSDF, Record: c.index, Line: c.line + offset, Field: field, Reason: reason}
	}

	if len(c.lines) < 4 {
		return nil, malformed(len(c.lines), "counts", "record ends before the counts line")
	}
	name := strings.TrimSpace(c.lines[0])
	counts := c.lines[3]

	if strings.Contains(counts, "V3000") {
		return parseV3000(c, name)
	}

	nAtoms, err1 := fixedInt(counts, 0, 3)
	nBonds, err2 := fixedInt(counts, 3, 6)
	if err1 != nil || err2 != nil {
		fields := strings.Fields(counts)
		if len(fields) < 2 {
			return nil, malformed(3, "counts", fmt.Sprintf("unreadable counts line %q", counts))
		}
		var e1, e2 error
		nAtoms, e1 = strconv.Atoi(fields[0])
		nBonds, e2 = strconv.Atoi(fields[1])
		if e1 != nil || e2 != nil {
			return nil, malformed(3, "counts", fmt.Sprintf("unreadable counts line %q", counts))
		}
	}
	if nAtoms < 0 || nBonds < 0 {
		return nil, malformed(3, "counts", "negative count")
	}

	// The atom and bond blocks end at "M  END" or the first property line.
	body := 4
	end := body
	for end < len(c.lines) && !strings.HasPrefix(c.lines[end], "M  ") && !strings.HasPrefix(c.lines[end], ">") {
		end++
	}
	available := end - body
	for available > 0 && strings.TrimSpace(c.lines[body+available-1]) == "" {
		available--
	}
	if available != nAtoms+nBonds {
		return nil, malformed(end, "counts", fmt.Sprintf("declared %d atoms and %d bonds, found %d lines", nAtoms, nBonds, available))
	}

	atoms := make([]shape.Atom, nAtoms)
	for i := 0; i < nAtoms; i++ {
		off := body + i
		if isBondLine(c.lines[off]) {
			return nil, malformed(off, "counts", fmt.Sprintf("declared %d atoms and %d bonds, but atom %d is a bond line", nAtoms, nBonds, i+1))
		}
		a, err := parseV2000Atom(c.lines[off])
		if err != nil {
			return nil, malformed(off, err.field, err.reason)
		}
		atoms[i] = a
	}

	bonds := make([]shape.Bond, nBonds)
	for i := 0; i < nBonds; i++ {
		off := body + nAtoms + i
		if _, aerr := parseV2000Atom(c.lines[off]); aerr == nil {
			return nil, malformed(off, "counts", fmt.Sprintf("declared %d atoms and %d bonds, but bond %d is an atom line", nAtoms, nBonds, i+1))
		}
		b, err := parseV2000Bond(c.lines[off], nAtoms)
		if err != nil {
			return nil, malformed(off, err.field, err.reason)
		}
		bonds[i] = b
	}

	props := map[string]string{}
	for off := end; off < len(c.lines); off++ {
		line := c.lines[off]
		switch {
		case strings.HasPrefix(line, "M  CHG"):
			if err := applyCharges(line, atoms); err != nil {
				return nil, malformed(off, "M  CHG", err.Error())
			}
		case strings.HasPrefix(line, ">"):
			key := dataItemName(line)
			var vals []string
			for off+1 < len(c.lines) && strings.TrimSpace(c.lines[off+1]) != "" {
				off++
				vals = append(vals, c.lines[off])
			}
			if key != "" {
				props[key] = strings.Join(vals, "\n")
			}
		}
	}

	mol, err := shape.NewMolecule(name, atoms, bonds)
	if err != nil {
		return nil, &MalformedRecordError{Format: FormatSDF, Record: c.index, Line: c.line, Reason: "invalid molecule", Err: err}
	}
	if len(props) > 0 {
		mol = mol.WithProperties(props)
	}
	return mol, nil
}

// fieldError is a column-level problem inside a fixed-format line.
type fieldError struct {
	field  string
	reason string
}

func fixedInt(line string, from, to int) (int, error) {
	if len(line) < to {
		return 0, fmt.Errorf("line too short")
	}
	return strconv.Atoi(strings.TrimSpace(line[from:to]))
}

// parseV2000Atom reads an atom line. The fixed V2000 columns (x, y and z in 0-30,
// the element in 31-34, the charge code in 36-39) are tried first; lines that do not
// follow them are split on whitespace.
func parseV2000Atom(line string) (shape.Atom, *fieldError) {
	a, err := parseV2000AtomColumns(line)
	if err == nil {
		return a, nil
	}
	b, ferr := parseV2000AtomFields(line)
	if ferr == nil {
		return b, nil
	}
	if len(line) < 34 {
		return shape.Atom{}, ferr
	}
	return shape.Atom{}, err
}

func parseV2000AtomColumns(line string) (shape.Atom, *fieldError) {
	if len(line) < 34 {
		return shape.Atom{}, &fieldError{"atom", "atom line shorter than the element column"}
	}
	coords := []string{line[0:10], line[10:20], line[20:30]}
	code := ""
	if len(line) >= 39 {
		code = line[36:39]
	}
	return makeAtom(coords, line[31:34], code)
}

func parseV2000AtomFields(line string) (shape.Atom, *fieldError) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return shape.Atom{}, &fieldError{"atom", fmt.Sprintf("atom line has %d fields", len(fields))}
	}
	code := ""
	if len(fields) >= 6 {
		code = fields[5]
	}
	return makeAtom(fields[:3], fields[3], code)
}

func makeAtom(coords []string, element, chargeCode string) (shape.Atom, *fieldError) {
	var pos mgl64.Vec3
	for axis, text := range coords {
		text = strings.TrimSpace(text)
		v, ok := parseCoordinate(text)
		if !ok {
			return shape.Atom{}, &fieldError{string(rune('x' + axis)), fmt.Sprintf("non-numeric coordinate %q", text)}
		}
		pos[axis] = v
	}
	element = strings.TrimSpace(element)
	if !isElementSymbol(element) {
		return shape.Atom{}, &fieldError{"element", fmt.Sprintf("invalid element symbol %q", element)}
	}
	a := shape.Atom{Element: shape.NormalizeElement(element), Position: pos}
	if n, err := strconv.Atoi(strings.TrimSpace(chargeCode)); err == nil {
		if q, ok := sdfCharges[n]; ok {
			a.Charge = q
			a.HasCharge = true
		}
	}
	return a, nil
}

// isElementSymbol accepts one to three letters, plus the MDL query atoms "*" and "R#".
func isElementSymbol(s string) bool {
	switch s {
	case "*", "R#":
		return true
	}
	if s == "" || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// isBondLine reports whether line looks like a V2000 bond line: at least three
// fields, all integers.
func isBondLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return false
	}
	for _, f := range fields {
		if _, err := strconv.Atoi(f); err != nil {
			return false
		}
	}
	return true
}

func parseV2000Bond(line string, nAtoms int) (shape.Bond, *fieldError) {
	i, err1 := fixedInt(line, 0, 3)
	j, err2 := fixedInt(line, 3, 6)
	typ, err3 := fixedInt(line, 6, 9)
	if err1 != nil || err2 != nil || err3 != nil {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return shape.Bond{}, &fieldError{"bond", fmt.Sprintf("bond line has %d fields", len(fields))}
		}
		var e1, e2, e3 error
		i, e1 = strconv.Atoi(fields[0])
		j, e2 = strconv.Atoi(fields[1])
		typ, e3 = strconv.Atoi(fields[2])
		if e1 != nil || e2 != nil || e3 != nil {
			return shape.Bond{}, &fieldError{"bond", fmt.Sprintf("unreadable bond line %q", line)}
		}
	}
	return makeBond(i, j, typ, nAtoms)
}

// makeBond converts 1-based atom numbers and an MDL bond type to a Bond.
func makeBond(i, j, typ, nAtoms int) (shape.Bond, *fieldError) {
	if i < 1 || i > nAtoms || j < 1 || j > nAtoms {
		return shape.Bond{}, &fieldError{"bond", fmt.Sprintf("bond atom %d-%d out of range 1..%d", i, j, nAtoms)}
	}
	if i == j {
		return shape.Bond{}, &fieldError{"bond", fmt.Sprintf("bond joins atom %d to itself", i)}
	}
	order := shape.BondSingle
	switch typ {
	case 2:
		order = shape.BondDouble
	case 3:
		order = shape.BondTriple
	case 4:
		order = shape.BondAromatic
	}
	return shape.Bond{I: i - 1, J: j - 1, Order: order}, nil
}

// applyCharges reads "M  CHGnn8 aaa vvv ..." and overrides atom charges.
func applyCharges(line string, atoms []shape.Atom) error {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return fmt.Errorf("short charge line")
	}
	n, err := strconv.Atoi(fields[2])
	if err != nil || len(fields) < 3+2*n {
		return fmt.Errorf("charge count mismatch")
	}
	for k := 0; k < n; k++ {
		idx, err1 := strconv.Atoi(fields[3+2*k])
		q, err2 := strconv.Atoi(fields[4+2*k])
		if err1 != nil || err2 != nil || idx < 1 || idx > len(atoms) {
			return fmt.Errorf("bad charge entry %d", k+1)
		}
		atoms[idx-1].Charge = float64(q)
		atoms[idx-1].HasCharge = true
	}
	return nil
}

// dataItemName extracts NAME from a data header such as "> <NAME>" or ">  <NAME> (1)".
func dataItemName(line string) string {
	start := strings.IndexByte(line, '<')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(line[start:], '>')
	if end < 0 {
		return ""
	}
	return line[start+1 : start+end]
}
