package loader

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-mol/engine/shape"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFixture(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open("testdata/" + name)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestParseMMCIF_Dipeptide(t *testing.T) {
	s, err := ParseMMCIF(openFixture(t, "dipeptide.cif"))
	require.NoError(t, err)

	assert.Equal(t, "TEST", s.Name)
	// 17 atom rows in model 1, minus the second alternate location of OG1.
	require.Len(t, s.Atoms, 16)
	assert.Len(t, s.Residues, 4)
	assert.Equal(t, "THR", s.Residues[0].Name)
	assert.Equal(t, 2, s.Residues[1].Seq)
	assert.Equal(t, shape.ResidueHetero, s.Residues[2].Kind)
	assert.Equal(t, shape.ResidueWater, s.Residues[3].Kind)

	og1 := s.Atoms[12]
	assert.Equal(t, "OG1", og1.Name)
	assert.InDelta(t, 13.308, og1.Position.X(), 1e-9)

	zn := s.Atoms[14]
	assert.Equal(t, "ZN", zn.Element)
	assert.True(t, zn.Hetero)
	assert.True(t, zn.HasCharge)
	assert.Equal(t, 2.0, zn.Charge)

	// 6 bonds per threonine, one peptide bond, and the covalent link to zinc.
	// The metal coordination row is not a covalent bond.
	assert.Equal(t, 1, s.ExplicitBonds)
	assert.Len(t, s.Bonds, 14)
	assert.Contains(t, s.Bonds, shape.Bond{I: 2, J: 7, Order: shape.BondSingle})
	assert.Contains(t, s.Bonds, shape.Bond{I: 5, J: 14, Order: shape.BondSingle})
	for _, b := range s.Bonds {
		assert.Less(t, b.I, b.J)
		assert.NotEqual(t, 15, b.J, "water must stay unbonded")
	}
}

func TestParseMMCIF_ExplicitOnly(t *testing.T) {
	s, err := ParseMMCIF(openFixture(t, "dipeptide.cif"), WithBondPolicy(BondPolicyExplicitOnly))
	require.NoError(t, err)
	assert.Equal(t, []shape.Bond{{I: 5, J: 14, Order: shape.BondSingle}}, s.Bonds)
}

func TestParseMMCIF_SecondaryStructureRecords(t *testing.T) {
	p, err := ParseMMCIFProtein(openFixture(t, "helix.cif"))
	require.NoError(t, err)
	assert.Equal(t, "HHCC", p.SecondaryStructure())
	require.Len(t, p.Ligands(), 1)
	assert.Equal(t, "ZN", p.Ligands()[0].Name)
}

const minimalCIF = `data_MIN
loop_
_atom_site.group_PDB
_atom_site.id
_atom_site.type_symbol
_atom_site.label_atom_id
_atom_site.label_comp_id
_atom_site.auth_asym_id
_atom_site.auth_seq_id
_atom_site.Cartn_x
_atom_site.Cartn_y
_atom_site.Cartn_z
ATOM 1 C CA GLY A 1 0.000 0.000 0.000
ATOM 2 C CA GLY A 2 3.800 0.000 0.000
`

func TestParseMMCIF_NameFallsBackToBlock(t *testing.T) {
	s, err := ParseMMCIF(strings.NewReader(minimalCIF))
	require.NoError(t, err)
	assert.Equal(t, "MIN", s.Name)
	assert.Len(t, s.Atoms, 2)
	assert.Empty(t, s.Bonds)
}

func TestParseMMCIF_MissingRequiredColumn(t *testing.T) {
	in := strings.Replace(minimalCIF, "_atom_site.Cartn_y\n", "", 1)
	in = strings.ReplaceAll(in, " 0.000 0.000 0.000", " 0.000 0.000")
	in = strings.ReplaceAll(in, " 3.800 0.000 0.000", " 3.800 0.000")

	_, err := ParseMMCIF(strings.NewReader(in))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRecord))

	var mre *MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, "_atom_site.Cartn_y", mre.Field)
	assert.Equal(t, FormatMMCIF, mre.Format)
}

func TestParseMMCIF_NonNumericCoordinate(t *testing.T) {
	in := strings.Replace(minimalCIF, "3.800", "x.800", 1)

	_, err := ParseMMCIF(strings.NewReader(in))
	var mre *MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, 1, mre.Record)
	assert.Equal(t, "Cartn_x", mre.Field)
	assert.Equal(t, 14, mre.Line)
	assert.Contains(t, mre.Error(), "x.800")
}

func TestParseMMCIF_SkipMalformed(t *testing.T) {
	in := strings.Replace(minimalCIF, "3.800", "?", 1)

	s, err := ParseMMCIF(strings.NewReader(in), WithSkipMalformed(true))
	require.NoError(t, err)
	assert.Len(t, s.Atoms, 1)
	require.Len(t, s.Skipped, 1)
	assert.Equal(t, 1, s.Skipped[0].Record)
}

// fourRowCIF has rows on lines 13 to 16; the row on line 14 lacks Cartn_z.
const fourRowCIF = `data_FOUR
loop_
_atom_site.group_PDB
_atom_site.id
_atom_site.type_symbol
_atom_site.label_atom_id
_atom_site.label_comp_id
_atom_site.auth_asym_id
_atom_site.auth_seq_id
_atom_site.Cartn_x
_atom_site.Cartn_y
_atom_site.Cartn_z
ATOM 1 C CA GLY A 1 0.000 0.000 0.000
ATOM 2 C CA GLY A 2 3.800 0.000
ATOM 3 C CA GLY A 3 7.600 0.000 0.000
ATOM 4 C CA GLY A 4 11.400 0.000 0.000
`

func TestParseMMCIF_ShortRowBlamesThatRow(t *testing.T) {
	_, err := ParseMMCIF(strings.NewReader(fourRowCIF))
	var mre *MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, 1, mre.Record)
	assert.Equal(t, 14, mre.Line)
	assert.Contains(t, mre.Reason, "9 of 10")
}

func TestParseMMCIF_SkipShortRow(t *testing.T) {
	s, err := ParseMMCIF(strings.NewReader(fourRowCIF), WithSkipMalformed(true))
	require.NoError(t, err)
	require.Len(t, s.Atoms, 3)
	assert.InDelta(t, 7.6, s.Atoms[1].Position.X(), 1e-9)
	assert.InDelta(t, 11.4, s.Atoms[2].Position.X(), 1e-9)
	require.Len(t, s.Skipped, 1)
	assert.Equal(t, 1, s.Skipped[0].Record)
	assert.Equal(t, 14, s.Skipped[0].Line)
}

func TestParseMMCIF_WrappedRows(t *testing.T) {
	in := strings.Replace(minimalCIF, "ATOM 2 C CA GLY A 2 3.800", "ATOM 2 C CA GLY A 2\n3.800", 1)
	s, err := ParseMMCIF(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, s.Atoms, 2)
	assert.InDelta(t, 3.8, s.Atoms[1].Position.X(), 1e-9)
}

func TestParseMMCIF_NonFiniteCoordinate(t *testing.T) {
	for _, bad := range []string{"NaN", "Inf", "-Inf"} {
		t.Run(bad, func(t *testing.T) {
			in := strings.Replace(minimalCIF, "3.800", bad, 1)
			_, err := ParseMMCIF(strings.NewReader(in))
			var mre *MalformedRecordError
			require.True(t, errors.As(err, &mre))
			assert.Equal(t, 1, mre.Record)
			assert.Equal(t, "Cartn_x", mre.Field)
		})
	}
}

func TestParseMMCIF_NoAtoms(t *testing.T) {
	_, err := ParseMMCIF(strings.NewReader("data_EMPTY\n_entry.id EMPTY\n"))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestParseMMCIF_Lexer(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated quote", "data_X\n_entry.id 'abc\n"},
		{"unterminated text field", "data_X\n_entry.id\n;abc\n"},
		{"partial loop row", "data_X\nloop_\n_a.x\n_a.y\n1 2 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMMCIF(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestInferBonds_OrderIndependent(t *testing.T) {
	atoms := []shape.Atom{
		{Element: "C", Position: mgl64.Vec3{0, 0, 0}},
		{Element: "C", Position: mgl64.Vec3{1.54, 0, 0}},
		{Element: "O", Position: mgl64.Vec3{2.1, 1.2, 0}},
		{Element: "H", Position: mgl64.Vec3{-0.6, 0.9, 0}},
		{Element: "H", Position: mgl64.Vec3{-0.6, -0.9, 0}},
		{Element: "C", Position: mgl64.Vec3{10, 10, 10}},
	}
	got := InferBonds(atoms, DefaultBondTolerance)
	assert.Equal(t, []shape.Bond{
		{I: 0, J: 1, Order: shape.BondSingle},
		{I: 0, J: 3, Order: shape.BondSingle},
		{I: 0, J: 4, Order: shape.BondSingle},
		{I: 1, J: 2, Order: shape.BondSingle},
	}, got)

	// Reversing the atom order yields the same bonds under the reversed indices.
	n := len(atoms)
	reversed := make([]shape.Atom, n)
	for i, a := range atoms {
		reversed[n-1-i] = a
	}
	mapped := make([]shape.Bond, 0, len(got))
	for _, b := range InferBonds(reversed, DefaultBondTolerance) {
		i, j := n-1-b.J, n-1-b.I
		mapped = append(mapped, shape.Bond{I: i, J: j, Order: b.Order})
	}
	sortBonds(mapped)
	assert.Equal(t, got, mapped)
}

func TestInferBonds_TooClose(t *testing.T) {
	atoms := []shape.Atom{
		{Element: "C", Position: mgl64.Vec3{0, 0, 0}},
		{Element: "C", Position: mgl64.Vec3{0.1, 0, 0}},
	}
	assert.Empty(t, InferBonds(atoms, DefaultBondTolerance))
	assert.Empty(t, InferBonds(atoms[:1], DefaultBondTolerance))
}

func TestMergeBonds(t *testing.T) {
	explicit := []shape.Bond{{I: 3, J: 1, Order: shape.BondDouble}}
	inferred := []shape.Bond{{I: 0, J: 1, Order: shape.BondSingle}, {I: 1, J: 3, Order: shape.BondSingle}}
	assert.Equal(t, []shape.Bond{
		{I: 0, J: 1, Order: shape.BondSingle},
		{I: 1, J: 3, Order: shape.BondDouble},
	}, mergeBonds(explicit, inferred))
}
