package loader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRecord matches every *MalformedRecordError via errors.Is.
var ErrMalformedRecord = errors.New("malformed record")

// ErrUnsupportedFormat is returned when a file extension maps to no parser.
var ErrUnsupportedFormat = errors.New("unsupported structure format")

// MalformedRecordError describes a record that could not be parsed. Record is the
// 0-based record index (atom_site row for mmCIF, molecule index for SDF), or -1 when
// the problem is not tied to a single record. Line is 1-based.
type MalformedRecordError struct {
	Format Format
	Record int
	Line   int
	Field  string
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: malformed record", e.Format)
	if e.Record >= 0 {
		fmt.Fprintf(&b, " %d", e.Record)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %s)", e.Field)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is ErrMalformedRecord.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// Format identifies a structure file format.
type Format int

const (
	// FormatUnknown is returned for unrecognized extensions.
	FormatUnknown Format = iota
	// FormatMMCIF is PDBx/mmCIF.
	FormatMMCIF
	// FormatSDF is an MDL structure-data file of one or more MOL blocks.
	FormatSDF
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatMMCIF:
		return "mmcif"
	case FormatSDF:
		return "sdf"
	default:
		return "unknown"
	}
}
