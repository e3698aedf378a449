package snapshot

import (
	"sync"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
)

// Publisher owns the atomic pointer map and the owning snapshot map for
// every registered dataset. Register and Publish are called from the
// manager's update-loop goroutine and also from Manager.Register,
// Manager.SenderFor and Manager.Seed on their callers' goroutines; mu
// serializes those calls. Holder snapshots returned by Holder() are safe to
// hand to any number of reader goroutines.
type Publisher struct {
	mu       sync.Mutex
	pointers map[dataset.Identity]*Pointer
	owning   map[dataset.Identity]*dataset.Snapshot
	prior    map[dataset.Identity]*dataset.Snapshot
}

// NewPublisher returns an empty Publisher.
func NewPublisher() *Publisher {
	return &Publisher{
		pointers: make(map[dataset.Identity]*Pointer),
		owning:   make(map[dataset.Identity]*dataset.Snapshot),
		prior:    make(map[dataset.Identity]*dataset.Snapshot),
	}
}

// Register allocates identity's atomic pointer slot if it doesn't already
// exist, returning it either way.
func (p *Publisher) Register(id dataset.Identity) *Pointer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ptr, ok := p.pointers[id]; ok {
		return ptr
	}
	ptr := &Pointer{}
	p.pointers[id] = ptr
	return ptr
}

// Publish installs snap as identity's current snapshot. The owning map
// takes ownership first, then the atomic pointer is swapped to snap's
// address. The previously owned snapshot is kept in `prior` for one more
// publication cycle rather than dropped immediately: a reader that loaded
// the old pointer a moment before this swap still holds a live reference,
// and Go's GC only reclaims the value once nothing — including `prior` —
// points to it anymore.
func (p *Publisher) Publish(id dataset.Identity, snap *dataset.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prior[id] = p.owning[id]
	p.owning[id] = snap

	ptr, ok := p.pointers[id]
	if !ok {
		ptr = &Pointer{}
		p.pointers[id] = ptr
	}
	ptr.store(snap)
}

// Holder builds a fixed-slot reader bundle over the currently registered
// pointers. Datasets registered after this call are invisible to the
// returned Holder — registration is expected to complete before readers are
// wired up; callers that need visibility into later registrations must
// call Holder again.
func (p *Publisher) Holder() *Holder {
	p.mu.Lock()
	defer p.mu.Unlock()

	pointers := make(map[dataset.Identity]*Pointer, len(p.pointers))
	for id, ptr := range p.pointers {
		pointers[id] = ptr
	}
	return &Holder{pointers: pointers}
}
