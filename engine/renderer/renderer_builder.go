package renderer

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithSize sets the initial canvas size. Non-positive values are ignored.
//
// Parameters:
//   - width: canvas width in pixels
//   - height: canvas height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		if width > 0 && height > 0 {
			r.width, r.height = width, height
		}
	}
}

// WithWorkers sets how many ways projection of large scenes is split on the shared worker pool.
// A value of 1 or less projects on the drawing goroutine only.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker option to a renderer
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.workers = n
	}
}

// WithDepthCue sets how far the farthest primitive is faded toward the background color.
// 0 disables depth cueing.
//
// Parameters:
//   - amount: fade fraction in [0, 1]
//
// Returns:
//   - RendererBuilderOption: a function that applies the depth cue option to a renderer
func WithDepthCue(amount float64) RendererBuilderOption {
	return func(r *renderer) {
		r.depthCue = min(max(amount, 0), 1)
	}
}

// WithLighting overrides the Phong coefficients of the head light.
//
// Parameters:
//   - ambient: constant term
//   - diffuse: Lambert term weight
//   - specular: highlight weight
//   - shininess: highlight exponent
//
// Returns:
//   - RendererBuilderOption: a function that applies the lighting option to a renderer
func WithLighting(ambient, diffuse, specular, shininess float64) RendererBuilderOption {
	return func(r *renderer) {
		r.light = lighting{ambient: ambient, diffuse: diffuse, specular: specular, shininess: shininess}
	}
}
