package loader

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-mol/engine/shape"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSDFRecords_Fixture(t *testing.T) {
	records, err := ParseSDFRecords(openFixture(t, "ligands.sdf"))
	require.NoError(t, err)
	require.Len(t, records, 5)

	for i, rec := range records {
		assert.Equal(t, i, rec.Index)
		assert.True(t, (rec.Molecule == nil) != (rec.Err == nil), "record %d", i)
	}

	water := records[0].Molecule
	require.NotNil(t, water)
	assert.Equal(t, "water", water.Name())
	assert.Equal(t, 3, water.NumAtoms())
	assert.Equal(t, 2, water.NumBonds())
	id, ok := water.Property("ID")
	assert.True(t, ok)
	assert.Equal(t, "W-1", id)

	var mre *MalformedRecordError
	require.True(t, errors.As(records[1].Err, &mre))
	assert.Equal(t, 1, mre.Record)
	assert.Equal(t, "y", mre.Field)
	assert.Equal(t, records[1].Line+4, mre.Line)

	acetate := records[2].Molecule
	require.NotNil(t, acetate)
	assert.Equal(t, shape.BondDouble, acetate.Bonds()[1].Order)
	assert.True(t, acetate.Atom(3).HasCharge)
	assert.Equal(t, -1.0, acetate.Atom(3).Charge)
	assert.False(t, acetate.Atom(0).HasCharge)
	name, _ := acetate.Property("NAME")
	assert.Equal(t, "acetate ion", name)

	require.True(t, errors.As(records[3].Err, &mre))
	assert.Equal(t, 3, mre.Record)
	assert.Equal(t, "counts", mre.Field)

	n2 := records[4].Molecule
	require.NotNil(t, n2)
	assert.Equal(t, "nitrogen", n2.Name())
	assert.Equal(t, "N", n2.Atom(1).Element)
	assert.InDelta(t, 1.1, n2.Atom(1).Position.X(), 1e-9)
	assert.Equal(t, []shape.Bond{{I: 0, J: 1, Order: shape.BondTriple}}, n2.Bonds())
}

func TestParseSDF_PartialResults(t *testing.T) {
	mols, err := ParseSDF(openFixture(t, "ligands.sdf"))
	require.Len(t, mols, 3)
	assert.Equal(t, "water", mols[0].Name())
	assert.Equal(t, "acetate", mols[1].Name())
	assert.Equal(t, "nitrogen", mols[2].Name())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRecord)
	assert.Contains(t, err.Error(), "record 1")
	assert.Contains(t, err.Error(), "record 3")
}

const sdfEthyne = `ethyne
  test

  2  1  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.2000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  3  0
M  END
$$$$
`

func TestParseSDF_BondErrors(t *testing.T) {
	tests := []struct {
		name   string
		bond   string
		reason string
	}{
		{"out of range", "  1  3  1  0", "out of range"},
		{"self bond", "  2  2  1  0", "itself"},
		{"unreadable", "  a  b  c", "unreadable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := strings.Replace(sdfEthyne, "  1  2  3  0", tt.bond, 1)
			mols, err := ParseSDF(strings.NewReader(in))
			assert.Empty(t, mols)
			var mre *MalformedRecordError
			require.True(t, errors.As(err, &mre))
			assert.Equal(t, "bond", mre.Field)
			assert.Equal(t, 7, mre.Line)
			assert.Contains(t, mre.Reason, tt.reason)
		})
	}
}

func TestParseSDF_BlocksSwapped(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		reason string
	}{
		{
			// 3 atoms and 2 bonds declared, 2 atoms and 3 bonds present.
			name: "bond line in atom block",
			input: `swapped
  test

  3  2  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.2000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0
  1  2  1  0
  2  1  1  0
M  END
$$$$
`,
			line:   7,
			reason: "atom 3 is a bond line",
		},
		{
			name: "atom line in bond block",
			input: `swapped
  test

  1  2  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.2000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0
M  END
$$$$
`,
			line:   6,
			reason: "bond 1 is an atom line",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mols, err := ParseSDF(strings.NewReader(tt.input))
			assert.Empty(t, mols)
			var mre *MalformedRecordError
			require.True(t, errors.As(err, &mre))
			assert.Equal(t, "counts", mre.Field)
			assert.Equal(t, tt.line, mre.Line)
			assert.Contains(t, mre.Reason, tt.reason)
		})
	}
}

func TestParseSDF_AtomLineChecks(t *testing.T) {
	tests := []struct {
		name  string
		atom  string
		field string
	}{
		{"numeric element", "    1.2000    0.0000    0.0000 7   0  0  0  0  0  0  0  0  0  0  0  0", "element"},
		{"not a number", "    1.2000    0.0000       NaN C   0  0  0  0  0  0  0  0  0  0  0  0", "z"},
		{"infinite", "       Inf    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := strings.Replace(sdfEthyne, "    1.2000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0", tt.atom, 1)
			_, err := ParseSDF(strings.NewReader(in))
			var mre *MalformedRecordError
			require.True(t, errors.As(err, &mre))
			assert.Equal(t, tt.field, mre.Field)
			assert.Equal(t, 6, mre.Line)
		})
	}
}

func TestParseSDF_WhitespaceAtomLine(t *testing.T) {
	in := strings.Replace(sdfEthyne, "    1.2000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0", "1.2 0 0 C 0 5", 1)
	mols, err := ParseSDF(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, mols, 1)
	assert.InDelta(t, 1.2, mols[0].Atom(1).Position.X(), 1e-9)
	assert.Equal(t, -1.0, mols[0].Atom(1).Charge)
}

func TestParseSDF_Empty(t *testing.T) {
	mols, err := ParseSDF(strings.NewReader("\n\n"))
	assert.NoError(t, err)
	assert.Empty(t, mols)
}

func TestParseSDF_NoTrailingSeparator(t *testing.T) {
	in := strings.TrimSuffix(sdfEthyne, "$$$$\n")
	mols, err := ParseSDF(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, mols, 1)
	assert.Equal(t, shape.BondTriple, mols[0].Bonds()[0].Order)
}

func TestParseSDF_TruncatedRecord(t *testing.T) {
	_, err := ParseSDF(strings.NewReader("name\n\n"))
	var mre *MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, "counts", mre.Field)
}

func TestParseSDFRecords_ParallelKeepsOrder(t *testing.T) {
	var b strings.Builder
	const n = 300
	for i := 0; i < n; i++ {
		rec := strings.Replace(sdfEthyne, "ethyne", fmt.Sprintf("mol-%03d", i), 1)
		if i%7 == 0 {
			rec = strings.Replace(rec, "1.2000", "bad   ", 1)
		}
		b.WriteString(rec)
	}

	records, err := ParseSDFRecords(strings.NewReader(b.String()), WithWorkers(4))
	require.NoError(t, err)
	require.Len(t, records, n)
	for i, rec := range records {
		assert.Equal(t, i, rec.Index)
		if i%7 == 0 {
			assert.ErrorIs(t, rec.Err, ErrMalformedRecord)
			continue
		}
		require.NoError(t, rec.Err)
		assert.Equal(t, fmt.Sprintf("mol-%03d", i), rec.Molecule.Name())
	}
}

func TestParseSDFRecords_NoWorkerLeak(t *testing.T) {
	in := strings.Repeat(sdfEthyne, 16)
	_, err := ParseSDFRecords(strings.NewReader(in), WithWorkers(4))
	require.NoError(t, err)
	before := runtime.NumGoroutine()

	for range 20 {
		records, err := ParseSDFRecords(strings.NewReader(in), WithWorkers(4))
		require.NoError(t, err)
		require.Len(t, records, 16)
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond)
}
