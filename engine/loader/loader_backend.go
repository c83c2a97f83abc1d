package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-mol/engine/shape"
)

// loaderBackend turns one file format into shapes. Concrete implementations
// (mmcifLoaderBackend, sdfLoaderBackend) wrap the package parse functions.
type loaderBackend interface {
	// Format returns the format this backend reads.
	//
	// Returns:
	//   - Format: the handled format
	Format() Format

	// Load parses the reader into shapes. A backend may return shapes together with
	// an error when some records failed and others did not.
	//
	// Parameters:
	//   - r: the file content
	//   - parserOptions: options forwarded to the parser
	//   - shapeOptions: style options applied to every produced shape
	//
	// Returns:
	//   - []shape.Shape: the parsed shapes
	//   - error: error if parsing fails
	Load(r io.Reader, parserOptions []ParserOption, shapeOptions []shape.ShapeBuilderOption) ([]shape.Shape, error)
}

type mmcifLoaderBackend struct{}

var _ loaderBackend = mmcifLoaderBackend{}

func (mmcifLoaderBackend) Format() Format { return FormatMMCIF }

func (mmcifLoaderBackend) Load(r io.Reader, parserOptions []ParserOption, shapeOptions []shape.ShapeBuilderOption) ([]shape.Shape, error) {
	s, err := ParseMMCIF(r, parserOptions...)
	if err != nil {
		return nil, err
	}
	p, err := s.Protein(shapeOptions...)
	if err != nil {
		return nil, err
	}
	return []shape.Shape{p}, nil
}

type sdfLoaderBackend struct{}

var _ loaderBackend = sdfLoaderBackend{}

func (sdfLoaderBackend) Format() Format { return FormatSDF }

func (sdfLoaderBackend) Load(r io.Reader, parserOptions []ParserOption, shapeOptions []shape.ShapeBuilderOption) ([]shape.Shape, error) {
	mols, err := ParseSDF(r, parserOptions...)
	shapes := make([]shape.Shape, 0, len(mols))
	for _, m := range mols {
		if len(shapeOptions) > 0 {
			shapes = append(shapes, m.WithStyle(shapeOptions...))
			continue
		}
		shapes = append(shapes, m)
	}
	return shapes, err
}
