package storage

import (
	"context"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
)

// Storage is the durable-store side of the dataset manager. Implementations
// own schema creation, mutation application, and the full table scan that
// rebuilds an in-memory Snapshot. The manager never touches SQL directly —
// everything kind-specific lives behind this interface.
type Storage interface {
	// EnsureSchema idempotently creates the table(s) backing identity.
	EnsureSchema(ctx context.Context, id dataset.Identity) error

	// Apply applies a single mutation to identity's durable rows. Replace
	// is implemented as DELETE followed by bulk INSERT inside one
	// transaction: a partial replace is never observable.
	Apply(ctx context.Context, id dataset.Identity, update dataset.Update) error

	// Load performs a full scan of identity's table(s) and returns a fresh,
	// fully materialized Snapshot.
	Load(ctx context.Context, id dataset.Identity) (*dataset.Snapshot, error)

	// Close releases the underlying database handle.
	Close() error
}
