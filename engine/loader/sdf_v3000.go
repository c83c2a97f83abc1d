package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-mol/engine/shape"

	"github.com/go-gl/mathgl/mgl64"
)

// parseV3000 reads an extended-format MOL block ("M  V30" lines). Only the counts,
// atom, and bond blocks are interpreted; collections and templates are ignored.
func parseV3000(c sdfChunk, name string) (*shape.Molecule, error) {
	malformed := func(offset int, field, reason string) error {
		return &MalformedRecordError{Format: FormatSDF, Record: c.index, Line: c.line + offset, Field: field, Reason: reason}
	}

	nAtoms, nBonds := -1, -1
	var atoms []shape.Atom
	var bonds []shape.Bond
	var bondLines []int
	var rawBonds [][3]int
	section := ""
	countsLine := 3

	for off := 4; off < len(c.lines); off++ {
		line := c.lines[off]
		if strings.HasPrefix(line, "M  END") {
			break
		}
		if !strings.HasPrefix(line, "M  V30 ") {
			continue
		}
		body := strings.TrimSpace(strings.TrimPrefix(line, "M  V30 "))
		// a trailing "-" continues the entry on the next line
		for strings.HasSuffix(body, "-") && off+1 < len(c.lines) {
			off++
			body = strings.TrimSuffix(body, "-") + strings.TrimSpace(strings.TrimPrefix(c.lines[off], "M  V30 "))
		}
		fields := strings.Fields(body)
		if len(fields) == 0 {
			continue
		}

		switch {
		case fields[0] == "COUNTS":
			countsLine = off
			if len(fields) < 3 {
				return nil, malformed(off, "counts", "short COUNTS line")
			}
			var e1, e2 error
			nAtoms, e1 = strconv.Atoi(fields[1])
			nBonds, e2 = strconv.Atoi(fields[2])
			if e1 != nil || e2 != nil || nAtoms < 0 || nBonds < 0 {
				return nil, malformed(off, "counts", fmt.Sprintf("unreadable COUNTS line %q", body))
			}
		case fields[0] == "BEGIN" && len(fields) > 1:
			section = fields[1]
		case fields[0] == "END":
			section = ""
		case section == "ATOM":
			if len(fields) < 5 {
				return nil, malformed(off, "atom", fmt.Sprintf("atom entry has %d fields", len(fields)))
			}
			var pos mgl64.Vec3
			for axis := 0; axis < 3; axis++ {
				v, ok := parseCoordinate(fields[2+axis])
				if !ok {
					return nil, malformed(off, string(rune('x'+axis)), fmt.Sprintf("non-numeric coordinate %q", fields[2+axis]))
				}
				pos[axis] = v
			}
			if !isElementSymbol(fields[1]) {
				return nil, malformed(off, "element", fmt.Sprintf("invalid element symbol %q", fields[1]))
			}
			a := shape.Atom{Element: shape.NormalizeElement(fields[1]), Position: pos}
			for _, kv := range fields[min(6, len(fields)):] {
				if v, ok := strings.CutPrefix(kv, "CHG="); ok {
					if q, err := strconv.Atoi(v); err == nil {
						a.Charge = float64(q)
						a.HasCharge = true
					}
				}
			}
			atoms = append(atoms, a)
		case section == "BOND":
			if len(fields) < 4 {
				return nil, malformed(off, "bond", fmt.Sprintf("bond entry has %d fields", len(fields)))
			}
			typ, e1 := strconv.Atoi(fields[1])
			i, e2 := strconv.Atoi(fields[2])
			j, e3 := strconv.Atoi(fields[3])
			if e1 != nil || e2 != nil || e3 != nil {
				return nil, malformed(off, "bond", fmt.Sprintf("unreadable bond entry %q", body))
			}
			rawBonds = append(rawBonds, [3]int{i, j, typ})
			bondLines = append(bondLines, off)
		}
	}

	if nAtoms < 0 {
		return nil, malformed(countsLine, "counts", "missing COUNTS line")
	}
	if len(atoms) != nAtoms || len(rawBonds) != nBonds {
		return nil, malformed(countsLine, "counts", fmt.Sprintf("declared %d atoms and %d bonds, found %d and %d", nAtoms, nBonds, len(atoms), len(rawBonds)))
	}
	for k, rb := range rawBonds {
		b, ferr := makeBond(rb[0], rb[1], rb[2], nAtoms)
		if ferr != nil {
			return nil, malformed(bondLines[k], ferr.field, ferr.reason)
		}
		bonds = append(bonds, b)
	}

	mol, err := shape.NewMolecule(name, atoms, bonds)
	if err != nil {
		return nil, &MalformedRecordError{Format: FormatSDF, Record: c.index, Line: c.line, Reason: "invalid molecule", Err: err}
	}
	return mol, nil
}
