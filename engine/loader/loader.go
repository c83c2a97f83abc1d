package loader

import (
	"compress/gzip"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/shape"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	cache map[string][]shape.Shape

	backends map[Format]loaderBackend

	parserOptions []ParserOption
	shapeOptions  []shape.ShapeBuilderOption
	centered      bool
}

// Loader reads structure files into shapes and caches the results by path.
// The parsers themselves are stateless; the Loader adds format detection by
// extension, transparent gzip decompression, and the cache.
type Loader interface {
	// Load parses a structure file and caches the result.
	// If the path is already cached, the cached shapes are returned.
	// The backend is selected from the file extension (.cif/.mmcif -> mmCIF,
	// .sdf/.sd/.mol -> SDF); a trailing .gz is decompressed first.
	// For SDF files with some malformed records, the good molecules are returned
	// along with the joined record errors and nothing is cached.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - []shape.Shape: the loaded shapes
	//   - error: error if loading fails
	Load(path string) ([]shape.Shape, error)

	// LoadProtein loads an mmCIF file and returns its protein.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - *shape.Protein: the protein
	//   - error: error if loading fails or the file is not mmCIF
	LoadProtein(path string) (*shape.Protein, error)

	// LoadMolecules loads an SDF file and returns its molecules.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - []*shape.Molecule: the molecules that parsed
	//   - error: error if loading fails or some records are malformed
	LoadMolecules(path string) ([]*shape.Molecule, error)

	// LoadReader parses a stream of the given format and caches it by name.
	//
	// Parameters:
	//   - name: the cache key
	//   - r: the file content
	//   - format: the file format
	//
	// Returns:
	//   - []shape.Shape: the loaded shapes
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, format Format) ([]shape.Shape, error)

	// Get retrieves cached shapes by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - []shape.Shape: the cached shapes or nil
	Get(name string) []shape.Shape

	// Shapes returns a copy of the whole cache.
	//
	// Returns:
	//   - map[string][]shape.Shape: all cached shapes keyed by name
	Shapes() map[string][]shape.Shape

	// Evict drops a cache entry.
	//
	// Parameters:
	//   - name: the cache key
	//
	// Returns:
	//   - bool: true if the entry existed
	Evict(name string) bool
}

var _ Loader = &loader{}

// NewLoader creates a Loader with the mmCIF and SDF backends registered and options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:    sync.RWMutex{},
		cache: make(map[string][]shape.Shape),
		backends: map[Format]loaderBackend{
			FormatMMCIF: mmcifLoaderBackend{},
			FormatSDF:   sdfLoaderBackend{},
		},
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// DetectFormat maps a file path to a format by extension, ignoring a trailing .gz.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Format: the detected format, or FormatUnknown
func DetectFormat(path string) Format {
	p := strings.TrimSuffix(strings.ToLower(path), ".gz")
	switch filepath.Ext(p) {
	case ".cif", ".mmcif":
		return FormatMMCIF
	case ".sdf", ".sd", ".mol":
		return FormatSDF
	default:
		return FormatUnknown
	}
}

func (l *loader) Load(path string) ([]shape.Shape, error) {
	l.mu.RLock()
	if cached, ok := l.cache[path]; ok {
		l.mu.RUnlock()
		common.Logger().Debug("loader cache hit", "path", path)
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(DetectFormat(path), path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	return l.load(path, r, backend)
}

func (l *loader) LoadProtein(path string) (*shape.Protein, error) {
	if f := DetectFormat(path); f != FormatMMCIF {
		return nil, fmt.Errorf("%w: %s is not mmCIF", ErrUnsupportedFormat, path)
	}
	shapes, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	p, ok := shapes[0].(*shape.Protein)
	if !ok {
		return nil, fmt.Errorf("loader: %s did not produce a protein", path)
	}
	return p, nil
}

func (l *loader) LoadMolecules(path string) ([]*shape.Molecule, error) {
	if f := DetectFormat(path); f != FormatSDF {
		return nil, fmt.Errorf("%w: %s is not SDF", ErrUnsupportedFormat, path)
	}
	shapes, err := l.Load(path)
	mols := make([]*shape.Molecule, 0, len(shapes))
	for _, s := range shapes {
		if m, ok := s.(*shape.Molecule); ok {
			mols = append(mols, m)
		}
	}
	return mols, err
}

func (l *loader) LoadReader(name string, r io.Reader, format Format) ([]shape.Shape, error) {
	l.mu.RLock()
	if cached, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(format, name)
	if err != nil {
		return nil, err
	}
	return l.load(name, r, backend)
}

// load runs the backend, applies centering, and caches a fully successful result.
func (l *loader) load(name string, r io.Reader, backend loaderBackend) ([]shape.Shape, error) {
	shapes, err := backend.Load(r, l.parserOptions, l.shapeOptions)
	if l.centered {
		for i, s := range shapes {
			shapes[i] = s.Translated(s.Center().Mul(-1))
		}
	}
	if err != nil {
		if len(shapes) == 0 {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		common.Logger().Warn("loaded with malformed records", "name", name, "shapes", len(shapes), "error", err)
		return shapes, fmt.Errorf("failed to load some records of %s: %w", name, err)
	}

	l.mu.Lock()
	l.cache[name] = shapes
	l.mu.Unlock()
	common.Logger().Debug("loaded structure", "name", name, "format", backend.Format(), "shapes", len(shapes))
	return shapes, nil
}

func (l *loader) Get(name string) []shape.Shape {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *loader) Shapes() map[string][]shape.Shape {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := maps.Clone(l.cache)
	for k, v := range result {
		result[k] = slices.Clone(v)
	}
	return result
}

func (l *loader) Evict(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.cache[name]
	delete(l.cache, name)
	return ok
}

// resolveBackend selects the backend registered for a format.
func (l *loader) resolveBackend(format Format, name string) (loaderBackend, error) {
	backend, ok := l.backends[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
	return backend, nil
}
