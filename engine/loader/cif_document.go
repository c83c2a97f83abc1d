package loader

import (
	"fmt"
	"io"
	"strings"
)

// cifValue is one parsed CIF value with its source line.
type cifValue struct {
	text   string
	line   int
	quoted bool
}

// missing reports whether the value is one of the CIF null markers "?" or ".".
func (v cifValue) missing() bool {
	return !v.quoted && (v.text == "?" || v.text == ".")
}

// cifTable is a category laid out as columns and rows. Single-item categories
// become a table with one row.
type cifTable struct {
	name    string
	line    int
	columns map[string]int
	rows    [][]cifValue
	// short maps a row index to its real value count for loop rows that were
	// missing values. Such rows are padded with nulls.
	short map[int]int
}

// shortRow returns a *MalformedRecordError when row ri of the table was missing values.
func (t *cifTable) shortRow(ri int) *MalformedRecordError {
	n, ok := t.short[ri]
	if !ok {
		return nil
	}
	return &MalformedRecordError{
		Format: FormatMMCIF,
		Record: ri,
		Line:   t.rows[ri][0].line,
		Field:  t.name,
		Reason: fmt.Sprintf("loop row has %d of %d values", n, len(t.columns)),
	}
}

// column returns the index of the first present column among names, or -1.
func (t *cifTable) column(names ...string) int {
	for _, name := range names {
		if i, ok := t.columns[name]; ok {
			return i
		}
	}
	return -1
}

// cifBlock is one data_ block.
type cifBlock struct {
	name   string
	tables map[string]*cifTable
}

// table returns the category (e.g. "_atom_site"), or nil.
func (b *cifBlock) table(category string) *cifTable {
	return b.tables[strings.ToLower(category)]
}

// splitTag separates "_atom_site.cartn_x" into category and column.
func splitTag(tag string) (string, string) {
	if i := strings.IndexByte(tag, '.'); i >= 0 {
		return tag[:i], tag[i+1:]
	}
	return tag, ""
}

// parseCIF reads the first data block of a CIF file into categories.
//
// Parameters:
//   - r: the CIF text
//
// Returns:
//   - *cifBlock: the first data block
//   - error: a *MalformedRecordError for structural problems, or a read error
func parseCIF(r io.Reader) (*cifBlock, error) {
	tokens, err := lexCIF(r)
	if err != nil {
		return nil, err
	}

	var block *cifBlock
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		switch tok.kind {
		case tokenData:
			if block != nil {
				// only the first block is read
				return block, nil
			}
			block = &cifBlock{name: tok.text, tables: map[string]*cifTable{}}
			i++
		case tokenSave:
			i++
		case tokenLoop:
			if block == nil {
				return nil, &MalformedRecordError{Format: FormatMMCIF, Record: -1, Line: tok.line, Reason: "loop_ before data_ block"}
			}
			next, err := parseLoop(block, tokens, i+1, tok.line)
			if err != nil {
				return nil, err
			}
			i = next
		case tokenTag:
			if block == nil {
				return nil, &MalformedRecordError{Format: FormatMMCIF, Record: -1, Line: tok.line, Field: tok.text, Reason: "tag before data_ block"}
			}
			if i+1 >= len(tokens) || tokens[i+1].kind != tokenValue {
				return nil, &MalformedRecordError{Format: FormatMMCIF, Record: -1, Line: tok.line, Field: tok.text, Reason: "tag without value"}
			}
			val := tokens[i+1]
			category, col := splitTag(tok.text)
			t := block.tables[category]
			if t == nil {
				t = &cifTable{name: category, line: tok.line, columns: map[string]int{}, rows: [][]cifValue{{}}}
				block.tables[category] = t
			}
			t.columns[col] = len(t.rows[0])
			t.rows[0] = append(t.rows[0], cifValue{text: val.text, line: val.line, quoted: val.quote})
			i += 2
		default:
			return nil, &MalformedRecordError{Format: FormatMMCIF, Record: -1, Line: tok.line, Reason: fmt.Sprintf("unexpected value %q", tok.text)}
		}
	}
	if block == nil {
		return nil, &MalformedRecordError{Format: FormatMMCIF, Record: -1, Line: 1, Reason: "no data_ block"}
	}
	return block, nil
}

// parseLoop reads the tags and values of a loop_ starting at tokens[i] and returns
// the index of the first token after the loop.
func parseLoop(block *cifBlock, tokens []cifToken, i int, line int) (int, error) {
	t := &cifTable{line: line, columns: map[string]int{}}
	for i < len(tokens) && tokens[i].kind == tokenTag {
		category, col := splitTag(tokens[i].text)
		if t.name == "" {
			t.name = category
		} else if t.name != category {
			return 0, &MalformedRecordError{Format: FormatMMCIF, Record: -1, Line: tokens[i].line, Field: tokens[i].text, Reason: "loop mixes categories"}
		}
		t.columns[col] = len(t.columns)
		i++
	}
	if len(t.columns) == 0 {
		return 0, &MalformedRecordError{Format: FormatMMCIF, Record: -1, Line: line, Reason: "loop_ without tags"}
	}

	width := len(t.columns)
	start := i
	for i < len(tokens) && tokens[i].kind == tokenValue {
		i++
	}
	values := tokens[start:i]

	if groups, ok := rowsByLine(values, width); ok {
		for _, g := range groups {
			row := make([]cifValue, 0, width)
			for _, tok := range g {
				row = append(row, cifValue{text: tok.text, line: tok.line, quoted: tok.quote})
			}
			if len(row) < width {
				if t.short == nil {
					t.short = map[int]int{}
				}
				t.short[len(t.rows)] = len(row)
				for len(row) < width {
					row = append(row, cifValue{text: "?", line: g[0].line})
				}
			}
			t.rows = append(t.rows, row)
		}
		block.tables[t.name] = t
		return i, nil
	}

	var row []cifValue
	for _, tok := range values {
		row = append(row, cifValue{text: tok.text, line: tok.line, quoted: tok.quote})
		if len(row) == width {
			t.rows = append(t.rows, row)
			row = nil
		}
	}
	if len(row) != 0 {
		return 0, &MalformedRecordError{
			Format: FormatMMCIF,
			Record: len(t.rows),
			Line:   row[0].line,
			Field:  t.name,
			Reason: fmt.Sprintf("loop row has %d of %d values", len(row), width),
		}
	}
	block.tables[t.name] = t
	return i, nil
}

// rowsByLine splits loop values into rows at line breaks when the loop is laid out
// one row per line, which is how PDBx files are written. A row wrapped over several
// lines is joined back together. It reports false when most lines do not hold a full
// row, or a line holds more values than there are columns; the caller then falls back
// to counting values.
func rowsByLine(values []cifToken, width int) ([][]cifToken, bool) {
	var lines [][]cifToken
	for k, tok := range values {
		if k == 0 || tok.line != values[k-1].line {
			lines = append(lines, nil)
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], tok)
	}

	full := 0
	for _, l := range lines {
		if len(l) > width {
			return nil, false
		}
		if len(l) == width {
			full++
		}
	}
	if full*2 <= len(lines) {
		return nil, false
	}

	var rows [][]cifToken
	for k := 0; k < len(lines); {
		row := lines[k]
		k++
		for len(row) < width && k < len(lines) && len(row)+len(lines[k]) <= width {
			row = append(row, lines[k]...)
			k++
		}
		rows = append(rows, row)
	}
	return rows, true
}
