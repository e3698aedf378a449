package snapshot

import (
	"sync/atomic"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
)

// Pointer is a per-dataset atomic pointer to the currently published
// Snapshot: the hot read path of publish/subscribe. atomic.Pointer[T]
// already gives Store release ordering and Load acquire ordering, so a
// reader that observes a new value also observes everything that went into
// building it.
type Pointer struct {
	p atomic.Pointer[dataset.Snapshot]
}

// Load performs a constant-time acquire-load of the published snapshot. It
// returns nil if nothing has been published yet.
func (ptr *Pointer) Load() *dataset.Snapshot {
	return ptr.p.Load()
}

func (ptr *Pointer) store(s *dataset.Snapshot) {
	ptr.p.Store(s)
}
