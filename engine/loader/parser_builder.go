package loader

import "runtime"

// BondPolicy selects where mmCIF bonds come from.
type BondPolicy int

const (
	// BondPolicyInfer keeps explicit _struct_conn bonds and adds bonds inferred from covalent radii.
	BondPolicyInfer BondPolicy = iota
	// BondPolicyExplicitOnly keeps only the bonds listed in the file.
	BondPolicyExplicitOnly
)

const (
	// DefaultBondTolerance is added to the sum of covalent radii when inferring bonds.
	DefaultBondTolerance = 0.45
	// MinBondDistance is the distance below which two atoms are treated as overlapping, not bonded.
	MinBondDistance = 0.4
)

// parserConfig holds the settings shared by the mmCIF and SDF parsers.
type parserConfig struct {
	bondPolicy    BondPolicy
	tolerance     float64
	skipMalformed bool
	workers       int
}

func newParserConfig(options []ParserOption) parserConfig {
	cfg := parserConfig{
		bondPolicy: BondPolicyInfer,
		tolerance:  DefaultBondTolerance,
		workers:    max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(&cfg)
	}
	return cfg
}

// ParserOption is a functional option for ParseMMCIF, ParseSDF, and ParseSDFRecords.
type ParserOption func(*parserConfig)

// WithBondPolicy selects explicit-only or inferred mmCIF bonds.
//
// Parameters:
//   - policy: the bond policy
//
// Returns:
//   - ParserOption: option function to apply
func WithBondPolicy(policy BondPolicy) ParserOption {
	return func(c *parserConfig) {
		c.bondPolicy = policy
	}
}

// WithBondTolerance sets the distance added to the sum of covalent radii when inferring bonds.
// Negative values are ignored.
//
// Parameters:
//   - tolerance: the tolerance in angstroms
//
// Returns:
//   - ParserOption: option function to apply
func WithBondTolerance(tolerance float64) ParserOption {
	return func(c *parserConfig) {
		if tolerance >= 0 {
			c.tolerance = tolerance
		}
	}
}

// WithSkipMalformed makes the mmCIF parser drop malformed atom rows and keep going.
// Dropped rows are reported through Structure.Skipped.
//
// Parameters:
//   - skip: true to skip malformed rows instead of failing
//
// Returns:
//   - ParserOption: option function to apply
func WithSkipMalformed(skip bool) ParserOption {
	return func(c *parserConfig) {
		c.skipMalformed = skip
	}
}

// WithWorkers sets how many ways SDF records are split on the shared worker pool.
//
// Parameters:
//   - n: worker count, values < 1 are treated as 1
//
// Returns:
//   - ParserOption: option function to apply
func WithWorkers(n int) ParserOption {
	return func(c *parserConfig) {
		c.workers = max(n, 1)
	}
}
