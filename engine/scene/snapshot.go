package scene

import (
	"iter"
	"slices"

	"cogentcore.org/core/base/keylist"
	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/shape"

	"github.com/go-gl/mathgl/mgl64"
)

// SnapshotSource is anything a viewer can take a snapshot from: a live Scene, or a
// Snapshot itself.
type SnapshotSource interface {
	// Snapshot returns the state of the source at the moment of the call.
	//
	// Returns:
	//   - Snapshot: an immutable copy
	Snapshot() Snapshot
}

// Snapshot is an immutable point-in-time copy of a scene: its shapes in insertion
// order, the global transform, and the background. Snapshots are plain values and
// are safe to pass between goroutines; later scene mutations never affect them.
//
// The zero Snapshot is an empty scene with scale 1 and a black background.
type Snapshot struct {
	name       string
	shapes     *keylist.List[string, shape.Shape]
	scale      float64
	center     mgl64.Vec3
	background common.Color
	version    uint64
}

var _ SnapshotSource = Snapshot{}

// newSnapshot wraps ids and shapes that the caller no longer mutates.
func newSnapshot(name string, ids []string, shapes []shape.Shape, scale float64, center mgl64.Vec3, bg common.Color, version uint64) Snapshot {
	kl := &keylist.List[string, shape.Shape]{Keys: ids, Values: shapes}
	kl.UpdateIndexes()
	return Snapshot{name: name, shapes: kl, scale: scale, center: center, background: bg, version: version}
}

// Snapshot returns s, so a Snapshot can be passed wherever a SnapshotSource is accepted.
func (s Snapshot) Snapshot() Snapshot { return s }

// Name returns the name of the scene the snapshot was taken from.
func (s Snapshot) Name() string { return s.name }

// Version returns the scene version the snapshot was taken at. Versions of one scene
// increase with every mutation; the zero Snapshot has version 0.
func (s Snapshot) Version() uint64 { return s.version }

// IsZero reports whether s is the zero Snapshot.
func (s Snapshot) IsZero() bool { return s.shapes == nil && s.version == 0 }

// Len returns the number of shapes.
func (s Snapshot) Len() int { return s.shapes.Len() }

// IDs returns the shape ids in insertion order.
func (s Snapshot) IDs() []string {
	if s.shapes == nil {
		return nil
	}
	return slices.Clone(s.shapes.Keys)
}

// Get returns the shape stored under id.
//
// Parameters:
//   - id: the shape id
//
// Returns:
//   - shape.Shape: the shape, nil if absent
//   - bool: true if the id is present
func (s Snapshot) Get(id string) (shape.Shape, bool) {
	if s.shapes == nil {
		return nil, false
	}
	return s.shapes.AtTry(id)
}

// Has reports whether id is present.
func (s Snapshot) Has(id string) bool {
	return s.shapes != nil && s.shapes.IndexByKey(id) >= 0
}

// At returns the i-th shape in insertion order.
func (s Snapshot) At(i int) (string, shape.Shape) {
	return s.shapes.Keys[i], s.shapes.Values[i]
}

// All iterates the shapes in insertion order.
//
// Returns:
//   - iter.Seq2[string, shape.Shape]: id and shape pairs
func (s Snapshot) All() iter.Seq2[string, shape.Shape] {
	return func(yield func(string, shape.Shape) bool) {
		for i := 0; i < s.Len(); i++ {
			if !yield(s.shapes.Keys[i], s.shapes.Values[i]) {
				return
			}
		}
	}
}

// Scale returns the global uniform scale.
func (s Snapshot) Scale() float64 {
	if s.scale == 0 {
		return 1
	}
	return s.scale
}

// RecenterPoint returns the scene-space point that is drawn at the origin.
func (s Snapshot) RecenterPoint() mgl64.Vec3 { return s.center }

// Offset returns the translation applied after scaling, so that a scene-space point
// p is drawn at p*Scale() + Offset().
func (s Snapshot) Offset() mgl64.Vec3 { return s.center.Mul(-s.Scale()) }

// ToWorld maps a scene-space point through the global transform.
func (s Snapshot) ToWorld(p mgl64.Vec3) mgl64.Vec3 { return p.Mul(s.Scale()).Add(s.Offset()) }

// Background returns the background color.
func (s Snapshot) Background() common.Color { return s.background }

// Bounds returns the transformed bounds of every visible shape.
//
// Returns:
//   - common.Bounds: world-space bounds, empty if nothing is visible
func (s Snapshot) Bounds() common.Bounds {
	b := common.Bounds{}
	for _, sh := range s.All() {
		if sh.Style().Visible {
			b = b.Union(sh.Bounds())
		}
	}
	return b.Transform(s.Scale(), s.Offset())
}

// InterpolateSnapshots blends two snapshots by weight t in [0, 1]. Shapes present in
// both under the same id are blended with shape.Interpolate; the id set, order, name,
// and version follow the nearer snapshot. Scale, recenter point, and background blend
// linearly.
//
// Parameters:
//   - a: the snapshot at t = 0
//   - b: the snapshot at t = 1
//   - t: the blend weight, clamped to [0, 1]
//
// Returns:
//   - Snapshot: the blended snapshot
func InterpolateSnapshots(a, b Snapshot, t float64) Snapshot {
	t = common.Clamp01(t)
	if t == 0 {
		return a
	}
	if t == 1 {
		return b
	}

	near := a
	if t >= 0.5 {
		near = b
	}

	ids := near.IDs()
	shapes := make([]shape.Shape, len(ids))
	for i, id := range ids {
		sa, okA := a.Get(id)
		sb, okB := b.Get(id)
		switch {
		case okA && okB:
			shapes[i] = shape.Interpolate(sa, sb, t)
		case okA:
			shapes[i] = sa
		default:
			shapes[i] = sb
		}
	}

	return newSnapshot(
		near.name,
		ids,
		shapes,
		common.Lerp(a.Scale(), b.Scale(), t),
		common.LerpVec3(a.center, b.center, t),
		a.background.Lerp(b.background, t),
		near.version,
	)
}
