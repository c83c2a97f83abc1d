package loader

import "github.com/Carmen-Shannon/oxy-mol/engine/shape"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithParserOptions sets the options forwarded to every parse.
//
// Parameters:
//   - options: parser options
//
// Returns:
//   - LoaderBuilderOption: a function that applies the parser options to a loader
func WithParserOptions(options ...ParserOption) LoaderBuilderOption {
	return func(l *loader) {
		l.parserOptions = append(l.parserOptions, options...)
	}
}

// WithShapeOptions sets style options applied to every loaded shape.
//
// Parameters:
//   - options: style options
//
// Returns:
//   - LoaderBuilderOption: a function that applies the style options to a loader
func WithShapeOptions(options ...shape.ShapeBuilderOption) LoaderBuilderOption {
	return func(l *loader) {
		l.shapeOptions = append(l.shapeOptions, options...)
	}
}

// WithCentered translates every loaded shape so its center is at the origin.
//
// Parameters:
//   - centered: true to recenter loaded shapes
//
// Returns:
//   - LoaderBuilderOption: a function that applies the centering option to a loader
func WithCentered(centered bool) LoaderBuilderOption {
	return func(l *loader) {
		l.centered = centered
	}
}

// WithShapes pre-populates the cache.
//
// Parameters:
//   - key: the cache key
//   - shapes: the shapes to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache entry to a loader
func WithShapes(key string, shapes []shape.Shape) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[key] = shapes
	}
}
