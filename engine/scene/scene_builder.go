package scene

import (
	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/shape"

	"github.com/go-gl/mathgl/mgl64"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithShape adds an initial shape to the scene. A later option with the same id
// replaces the earlier shape in place. Nil shapes are ignored.
//
// Parameters:
//   - id: the shape id
//   - sh: the shape
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShape(id string, sh shape.Shape) SceneBuilderOption {
	return func(s *scene) {
		if sh == nil {
			return
		}
		s.shapes.Set(id, sh)
	}
}

// WithShapes adds initial shapes under generated "shape-N" ids.
//
// Parameters:
//   - shapes: the shapes to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShapes(shapes ...shape.Shape) SceneBuilderOption {
	return func(s *scene) {
		for _, sh := range shapes {
			if sh == nil {
				continue
			}
			s.AddUnnamed(sh)
		}
	}
}

// WithScale sets the initial global scale. Values that are not > 0 are ignored.
//
// Parameters:
//   - factor: the scale factor
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithScale(factor float64) SceneBuilderOption {
	return func(s *scene) {
		if factor > 0 {
			s.scale = factor
		}
	}
}

// WithRecenter sets the initial recenter point.
//
// Parameters:
//   - point: the scene-space point drawn at the origin
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRecenter(point mgl64.Vec3) SceneBuilderOption {
	return func(s *scene) {
		s.center = point
	}
}

// WithBackground sets the background color. Defaults to common.DefaultBackground.
//
// Parameters:
//   - c: the background color
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBackground(c common.Color) SceneBuilderOption {
	return func(s *scene) {
		s.background = c
	}
}
