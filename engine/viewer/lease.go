package viewer

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-mol/common"
	"github.com/Carmen-Shannon/oxy-mol/engine/scene"
)

// Lease is the exclusive right to post snapshots to a viewer. While a lease is held,
// Viewer.Update is refused, so the lease holder is the only driver of what is shown.
type Lease interface {
	// Update posts a snapshot through the lease. It follows the same latest-wins rules as Viewer.Update.
	//
	// Parameters:
	//   - src: a Scene or a Snapshot
	//
	// Returns:
	//   - error: ErrLeaseReleased after Release, ErrViewerClosed after the viewer closed
	Update(src scene.SnapshotSource) error

	// Viewer returns the leased viewer.
	Viewer() Viewer

	// Release gives the update rights back. Release is idempotent.
	Release()
}

type lease struct {
	v        *viewer
	released atomic.Bool
}

var _ Lease = &lease{}

func (l *lease) Update(src scene.SnapshotSource) error {
	l.v.closeMu.RLock()
	defer l.v.closeMu.RUnlock()

	if l.v.closed {
		return ErrViewerClosed
	}
	if l.released.Load() {
		return ErrLeaseReleased
	}
	l.v.post(src.Snapshot())
	return nil
}

func (l *lease) Viewer() Viewer { return l.v }

func (l *lease) Release() {
	if l.released.Swap(true) {
		return
	}
	l.v.mu.Lock()
	if l.v.lease == l {
		l.v.lease = nil
	}
	l.v.mu.Unlock()
	common.Logger().Debug("viewer lease released", "viewer", l.v.id)
}
