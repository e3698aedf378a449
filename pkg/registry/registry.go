package registry

import (
	"sync"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
)

// DefaultInboxCapacity is the bounded mutation inbox size used when a
// caller doesn't override it.
const DefaultInboxCapacity = 128

// Entry is one dataset's bookkeeping record: its mutation inbox and the
// wall-clock time (epoch milliseconds) of its last successful flush.
// Manager.Register sets LastFlushMillis once, right after the entry is
// created; after that only the manager's update-loop goroutine mutates it.
type Entry struct {
	Identity        dataset.Identity
	Inbox           chan dataset.Update
	LastFlushMillis int64
}

// Registry is the ordered identity -> Entry mapping that backs registration,
// the update loop's flush pass, and holder construction. The slice
// preserves registration order for deterministic iteration; the map gives
// O(1) lookup for sender and publisher wiring.
type Registry struct {
	mu      sync.RWMutex
	order   []dataset.Identity
	entries map[dataset.Identity]*Entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[dataset.Identity]*Entry)}
}

// Register adds identity with a fresh bounded inbox if it isn't already
// present. It is idempotent: registering twice returns the existing entry
// and reports created=false, leaving LastFlushMillis untouched.
func (r *Registry) Register(id dataset.Identity, inboxCapacity int) (entry *Entry, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok {
		return e, false
	}
	if inboxCapacity <= 0 {
		inboxCapacity = DefaultInboxCapacity
	}
	e := &Entry{Identity: id, Inbox: make(chan dataset.Update, inboxCapacity)}
	r.entries[id] = e
	r.order = append(r.order, id)
	return e, true
}

// Get returns identity's entry, if registered.
func (r *Registry) Get(id dataset.Identity) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// IterateForFlush returns the registered identities in registration order,
// the order the update loop's flush pass walks them in.
func (r *Registry) IterateForFlush() []dataset.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]dataset.Identity, len(r.order))
	copy(out, r.order)
	return out
}

// Len reports the number of registered datasets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
