package scene

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"sync"

	"cogentcore.org/core/base/keylist"
	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/shape"

	"github.com/go-gl/mathgl/mgl64"
)

// Scene is an insertion-ordered collection of shapes keyed by string id, plus a global
// uniform scale, a recenter point, and a background color.
// Every mutation is atomic and safe from any goroutine, and none of them block on
// rendering: viewers only ever see Snapshots. A failed mutation leaves the scene unchanged.
type Scene interface {
	SnapshotSource

	// Name returns the scene's name.
	Name() string

	// SetName sets the scene's name.
	SetName(name string)

	// Add inserts a shape at the end of the scene.
	//
	// Parameters:
	//   - id: the shape id, unique within the scene
	//   - s: the shape
	//
	// Returns:
	//   - error: ErrDuplicateID if id is taken, ErrNilShape if s is nil
	Add(id string, s shape.Shape) error

	// AddUnnamed inserts a shape under a generated id of the form "shape-N".
	//
	// Parameters:
	//   - s: the shape
	//
	// Returns:
	//   - string: the generated id
	//   - error: ErrNilShape if s is nil
	AddUnnamed(s shape.Shape) (string, error)

	// Update swaps the shape stored under id, keeping its position in the scene.
	//
	// Parameters:
	//   - id: an existing shape id
	//   - s: the new shape
	//
	// Returns:
	//   - error: ErrUnknownID if id is absent, ErrNilShape if s is nil
	Update(id string, s shape.Shape) error

	// Replace is Update under the name used by callers that swap a shape for one of a
	// different kind.
	//
	// Parameters:
	//   - id: an existing shape id
	//   - s: the new shape
	//
	// Returns:
	//   - error: ErrUnknownID if id is absent, ErrNilShape if s is nil
	Replace(id string, s shape.Shape) error

	// Restyle applies style options to the shape stored under id.
	//
	// Parameters:
	//   - id: an existing shape id
	//   - options: style options
	//
	// Returns:
	//   - error: ErrUnknownID if id is absent
	Restyle(id string, options ...shape.ShapeBuilderOption) error

	// Remove deletes the shape stored under id.
	//
	// Parameters:
	//   - id: an existing shape id
	//
	// Returns:
	//   - error: ErrUnknownID if id is absent
	Remove(id string) error

	// Get returns the shape stored under id.
	//
	// Parameters:
	//   - id: the shape id
	//
	// Returns:
	//   - shape.Shape: the shape or nil
	//   - bool: true if present
	Get(id string) (shape.Shape, bool)

	// Has reports whether id is present.
	Has(id string) bool

	// IDs returns the shape ids in insertion order.
	IDs() []string

	// Len returns the number of shapes.
	Len() int

	// Clear removes every shape. The transform and background are kept.
	Clear()

	// Scale returns the global uniform scale.
	Scale() float64

	// SetScale sets the global uniform scale applied to every current and future shape.
	//
	// Parameters:
	//   - factor: the scale, finite and > 0
	//
	// Returns:
	//   - error: ErrInvalidScale for other values
	SetScale(factor float64) error

	// Recenter makes point the origin of the drawn scene, for every current and future shape.
	//
	// Parameters:
	//   - point: a scene-space point
	Recenter(point mgl64.Vec3)

	// RecenterOnShapes recenters on the current Center of the scene.
	RecenterOnShapes()

	// RecenterPoint returns the point set by the last Recenter.
	RecenterPoint() mgl64.Vec3

	// Background returns the background color.
	Background() common.Color

	// SetBackground sets the background color.
	SetBackground(c common.Color)

	// Bounds returns the untransformed bounds of every visible shape.
	Bounds() common.Bounds

	// Center returns the center of Bounds, or the origin for an empty scene.
	Center() mgl64.Vec3

	// Version returns a counter that increases with every successful mutation.
	Version() uint64
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu sync.RWMutex

	name   string
	shapes *keylist.List[string, shape.Shape]

	scale      float64
	center     mgl64.Vec3
	background common.Color

	version     uint64
	nextUnnamed int
}

var _ Scene = &scene{}

// NewScene creates an empty Scene with scale 1, no recentering, and the default
// background, then applies options.
//
// Parameters:
//   - name: the scene's name
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		name:       name,
		shapes:     keylist.New[string, shape.Shape](),
		scale:      1,
		background: common.DefaultBackground,
		version:    1,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	s.version++
}

func (s *scene) Add(id string, sh shape.Shape) error {
	if sh == nil {
		return fmt.Errorf("%w for id %q", ErrNilShape, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.shapes.Add(id, sh); err != nil {
		return fmt.Errorf("%w %q", ErrDuplicateID, id)
	}
	s.version++
	return nil
}

func (s *scene) AddUnnamed(sh shape.Shape) (string, error) {
	if sh == nil {
		return "", ErrNilShape
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		s.nextUnnamed++
		id := "shape-" + strconv.Itoa(s.nextUnnamed)
		if s.shapes.IndexByKey(id) < 0 {
			s.shapes.Add(id, sh)
			s.version++
			return id, nil
		}
	}
}

func (s *scene) Update(id string, sh shape.Shape) error {
	if sh == nil {
		return fmt.Errorf("%w for id %q", ErrNilShape, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.shapes.IndexByKey(id)
	if idx < 0 {
		return fmt.Errorf("%w %q", ErrUnknownID, id)
	}
	s.shapes.Values[idx] = sh
	s.version++
	return nil
}

func (s *scene) Replace(id string, sh shape.Shape) error {
	return s.Update(id, sh)
}

func (s *scene) Restyle(id string, options ...shape.ShapeBuilderOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.shapes.IndexByKey(id)
	if idx < 0 {
		return fmt.Errorf("%w %q", ErrUnknownID, id)
	}
	s.shapes.Values[idx] = s.shapes.Values[idx].WithStyle(options...)
	s.version++
	return nil
}

func (s *scene) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.shapes.DeleteByKey(id) {
		return fmt.Errorf("%w %q", ErrUnknownID, id)
	}
	s.version++
	return nil
}

func (s *scene) Get(id string) (shape.Shape, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shapes.AtTry(id)
}

func (s *scene) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shapes.IndexByKey(id) >= 0
}

func (s *scene) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.shapes.Keys)
}

func (s *scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shapes.Len()
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.shapes.Len()
	s.shapes.Reset()
	s.version++
	common.Logger().Debug("scene cleared", "scene", s.name, "removed", n)
}

func (s *scene) Scale() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scale
}

func (s *scene) SetScale(factor float64) error {
	if !(factor > 0) || math.IsInf(factor, 1) {
		return fmt.Errorf("%w %v", ErrInvalidScale, factor)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = factor
	s.version++
	return nil
}

func (s *scene) Recenter(point mgl64.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = point
	s.version++
}

func (s *scene) RecenterOnShapes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = s.boundsLocked().Center()
	s.version++
}

func (s *scene) RecenterPoint() mgl64.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.center
}

func (s *scene) Background() common.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

func (s *scene) SetBackground(c common.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = c
	s.version++
}

func (s *scene) Bounds() common.Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boundsLocked()
}

func (s *scene) Center() mgl64.Vec3 {
	return s.Bounds().Center()
}

func (s *scene) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot copies the shape list and transform under the read lock, so the result is
// consistent with exactly one version of the scene.
func (s *scene) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newSnapshot(
		s.name,
		slices.Clone(s.shapes.Keys),
		slices.Clone(s.shapes.Values),
		s.scale,
		s.center,
		s.background,
		s.version,
	)
}

// boundsLocked unions the bounds of visible shapes. Caller must hold the lock.
func (s *scene) boundsLocked() common.Bounds {
	b := common.Bounds{}
	for _, sh := range s.shapes.Values {
		if sh.Style().Visible {
			b = b.Union(sh.Bounds())
		}
	}
	return b
}
