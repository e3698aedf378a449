package snapshot

import "github.com/sentineldb/datasetmgr/pkg/dataset"

// Holder is the shared, fixed-slot bundle of published pointers handed to
// reader code. Its membership is set when it is built and never grows
// afterward.
type Holder struct {
	pointers map[dataset.Identity]*Pointer
}

// Get performs a constant-time acquire-load of identity's published
// snapshot. The bool is false if identity was not yet registered when this
// Holder was built.
func (h *Holder) Get(id dataset.Identity) (*dataset.Snapshot, bool) {
	ptr, ok := h.pointers[id]
	if !ok {
		return nil, false
	}
	return ptr.Load(), true
}

// Clone returns another reader view over the same live pointers as h. It is
// cheap: the pointer map is never mutated after Holder is built, so sharing
// it is safe.
func (h *Holder) Clone() *Holder {
	return &Holder{pointers: h.pointers}
}
