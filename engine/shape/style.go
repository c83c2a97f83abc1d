package shape

import "github.com/Carmen-Shannon/oxy-mol/common"

// Representation selects how molecular shapes are turned into primitives.
type Representation int

const (
	// RepresentationAuto uses ball-and-stick for molecules and a backbone trace for proteins.
	RepresentationAuto Representation = iota
	// RepresentationBallAndStick draws every atom and bond.
	RepresentationBallAndStick
	// RepresentationSpaceFill draws atoms at their covalent radius without bonds.
	RepresentationSpaceFill
	// RepresentationTrace draws the alpha-carbon backbone colored by secondary structure.
	RepresentationTrace
)

// Style holds the appearance and interaction settings shared by every shape.
type Style struct {
	// Color overrides per-element or per-structure coloring when HasColor is set.
	Color    common.Color
	HasColor bool

	// Opacity is in [0, 1].
	Opacity float64

	Visible   bool
	Clickable bool
	Wireframe bool

	Representation Representation
}

// DefaultStyle returns an opaque, visible, non-clickable style with no color override.
//
// Returns:
//   - Style: the default style
func DefaultStyle() Style {
	return Style{
		Color:   common.White,
		Opacity: 1,
		Visible: true,
	}
}

func newStyle(options []ShapeBuilderOption) Style {
	s := DefaultStyle()
	return s.apply(options)
}

func (s Style) apply(options []ShapeBuilderOption) Style {
	for _, option := range options {
		option(&s)
	}
	s.Opacity = common.Clamp01(s.Opacity)
	return s
}

// colorOr returns the override color when set, otherwise fallback.
func (s Style) colorOr(fallback common.Color) common.Color {
	if s.HasColor {
		return s.Color
	}
	return fallback
}
