package shape

import "github.com/Carmen-Shannon/oxy-mol/common"

// ShapeBuilderOption is a functional option applied to a shape's Style.
type ShapeBuilderOption func(*Style)

// WithColor overrides the shape color.
//
// Parameters:
//   - c: the color
//
// Returns:
//   - ShapeBuilderOption: option function to apply
func WithColor(c common.Color) ShapeBuilderOption {
	return func(s *Style) {
		s.Color = c
		s.HasColor = true
	}
}

// WithElementColors removes any color override so molecular shapes fall back to
// element and secondary-structure coloring.
//
// Returns:
//   - ShapeBuilderOption: option function to apply
func WithElementColors() ShapeBuilderOption {
	return func(s *Style) {
		s.HasColor = false
	}
}

// WithOpacity sets the opacity, clamped to [0, 1].
//
// Parameters:
//   - opacity: the opacity
//
// Returns:
//   - ShapeBuilderOption: option function to apply
func WithOpacity(opacity float64) ShapeBuilderOption {
	return func(s *Style) {
		s.Opacity = opacity
	}
}

// WithVisible shows or hides the shape.
//
// Parameters:
//   - visible: false hides the shape without removing it
//
// Returns:
//   - ShapeBuilderOption: option function to apply
func WithVisible(visible bool) ShapeBuilderOption {
	return func(s *Style) {
		s.Visible = visible
	}
}

// WithClickable marks the shape as a hit-test target for viewer picking.
//
// Parameters:
//   - clickable: true to report clicks on this shape
//
// Returns:
//   - ShapeBuilderOption: option function to apply
func WithClickable(clickable bool) ShapeBuilderOption {
	return func(s *Style) {
		s.Clickable = clickable
	}
}

// WithWireframe draws the shape outline only.
//
// Parameters:
//   - wireframe: true to draw outlines
//
// Returns:
//   - ShapeBuilderOption: option function to apply
func WithWireframe(wireframe bool) ShapeBuilderOption {
	return func(s *Style) {
		s.Wireframe = wireframe
	}
}

// WithRepresentation selects the molecular representation.
//
// Parameters:
//   - r: the representation
//
// Returns:
//   - ShapeBuilderOption: option function to apply
func WithRepresentation(r Representation) ShapeBuilderOption {
	return func(s *Style) {
		s.Representation = r
	}
}
