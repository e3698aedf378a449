package manager

import (
	"context"
	"time"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
	"github.com/sentineldb/datasetmgr/pkg/metrics"
	"github.com/sentineldb/datasetmgr/pkg/snapshot"
)

// SynchronizedDataset pairs an inbox sender with a read view over the same
// identity's published snapshot. Callers that want to push updates hold one
// of these; they never touch storage or the registry directly.
type SynchronizedDataset struct {
	id          dataset.Identity
	inbox       chan<- dataset.Update
	pointer     *snapshot.Pointer
	sendTimeout time.Duration
}

// Send enqueues u on the dataset's inbox. It blocks up to the manager's
// configured send timeout to exert backpressure; past that it fails with
// Backpressure and the caller may retry. u must match this dataset's kind —
// a mismatch is a programmer error, surfaced as UnknownKind rather than
// silently misrouted.
func (sd *SynchronizedDataset) Send(ctx context.Context, u dataset.Update) error {
	if dataset.KindOf(u) != sd.id.Kind() {
		return newError(CodeUnknownKind, "send", sd.id, nil)
	}

	timer := time.NewTimer(sd.sendTimeout)
	defer timer.Stop()

	select {
	case sd.inbox <- u:
		return nil
	case <-timer.C:
		metrics.BackpressureTotal.WithLabelValues(sd.id.TableName()).Inc()
		return newError(CodeBackpressure, "send", sd.id, dataset.ErrBackpressure)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the dataset's current published snapshot. Updates sent
// through Send are not immediately visible here — visibility is delayed by
// at most one debounce window plus one rebuild.
func (sd *SynchronizedDataset) Snapshot() *dataset.Snapshot {
	return sd.pointer.Load()
}

// Identity reports which dataset this handle was built for.
func (sd *SynchronizedDataset) Identity() dataset.Identity {
	return sd.id
}
