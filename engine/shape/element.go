package shape

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-mol/common"
)

// Element holds the per-element constants used for bonding and coloring.
type Element struct {
	Symbol string

	// CovalentRadius is the single-bond covalent radius in angstroms.
	CovalentRadius float64

	// Color is the CPK/Jmol color.
	Color common.Color
}

// UnknownElement is returned for symbols missing from the table.
var UnknownElement = Element{Symbol: "X", CovalentRadius: 1.50, Color: common.Color{R: 1, G: 0.08, B: 0.58}}

// Covalent radii from Cordero et al. (2008), colors from Jmol.
var elements = map[string]Element{
	"H":  {"H", 0.31, common.Color{R: 1, G: 1, B: 1}},
	"HE": {"He", 0.28, common.Color{R: 0.85, G: 1, B: 1}},
	"LI": {"Li", 1.28, common.Color{R: 0.80, G: 0.50, B: 1}},
	"BE": {"Be", 0.96, common.Color{R: 0.76, G: 1, B: 0}},
	"B":  {"B", 0.84, common.Color{R: 1, G: 0.71, B: 0.71}},
	"C":  {"C", 0.76, common.Color{R: 0.56, G: 0.56, B: 0.56}},
	"N":  {"N", 0.71, common.Color{R: 0.19, G: 0.31, B: 0.97}},
	"O":  {"O", 0.66, common.Color{R: 1, G: 0.05, B: 0.05}},
	"F":  {"F", 0.57, common.Color{R: 0.56, G: 0.88, B: 0.31}},
	"NE": {"Ne", 0.58, common.Color{R: 0.70, G: 0.89, B: 0.96}},
	"NA": {"Na", 1.66, common.Color{R: 0.67, G: 0.36, B: 0.95}},
	"MG": {"Mg", 1.41, common.Color{R: 0.54, G: 1, B: 0}},
	"AL": {"Al", 1.21, common.Color{R: 0.75, G: 0.65, B: 0.65}},
	"SI": {"Si", 1.11, common.Color{R: 0.94, G: 0.78, B: 0.63}},
	"P":  {"P", 1.07, common.Color{R: 1, G: 0.50, B: 0}},
	"S":  {"S", 1.05, common.Color{R: 1, G: 1, B: 0.19}},
	"CL": {"Cl", 1.02, common.Color{R: 0.12, G: 0.94, B: 0.12}},
	"AR": {"Ar", 1.06, common.Color{R: 0.50, G: 0.82, B: 0.89}},
	"K":  {"K", 2.03, common.Color{R: 0.56, G: 0.25, B: 0.83}},
	"CA": {"Ca", 1.76, common.Color{R: 0.24, G: 1, B: 0}},
	"MN": {"Mn", 1.39, common.Color{R: 0.61, G: 0.48, B: 0.78}},
	"FE": {"Fe", 1.32, common.Color{R: 0.88, G: 0.40, B: 0.20}},
	"CO": {"Co", 1.26, common.Color{R: 0.94, G: 0.56, B: 0.63}},
	"NI": {"Ni", 1.24, common.Color{R: 0.31, G: 0.82, B: 0.31}},
	"CU": {"Cu", 1.32, common.Color{R: 0.78, G: 0.50, B: 0.20}},
	"ZN": {"Zn", 1.22, common.Color{R: 0.49, G: 0.50, B: 0.69}},
	"SE": {"Se", 1.20, common.Color{R: 1, G: 0.63, B: 0}},
	"BR": {"Br", 1.20, common.Color{R: 0.65, G: 0.16, B: 0.16}},
	"I":  {"I", 1.39, common.Color{R: 0.58, G: 0, B: 0.58}},
}

// LookupElement returns the table entry for a symbol, case-insensitively.
// Unknown symbols return UnknownElement and false.
//
// Parameters:
//   - symbol: the element symbol, e.g. "C", "Cl", "FE"
//
// Returns:
//   - Element: the element entry
//   - bool: true if the symbol is known
func LookupElement(symbol string) (Element, bool) {
	e, ok := elements[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return UnknownElement, false
	}
	return e, true
}

// NormalizeElement returns the canonical capitalization of a symbol ("CL" -> "Cl").
// Unknown symbols are returned title-cased.
func NormalizeElement(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if e, ok := LookupElement(symbol); ok {
		return e.Symbol
	}
	if symbol == "" {
		return UnknownElement.Symbol
	}
	return strings.ToUpper(symbol[:1]) + strings.ToLower(symbol[1:])
}

// CovalentRadius returns the covalent radius for symbol, falling back to UnknownElement.
func CovalentRadius(symbol string) float64 {
	e, _ := LookupElement(symbol)
	return e.CovalentRadius
}
