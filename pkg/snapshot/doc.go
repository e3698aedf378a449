// Package snapshot is the lock-free publish side of the publish/subscribe
// engine. A Pointer is a per-dataset atomic.Pointer[dataset.Snapshot]; a
// Publisher owns the set of pointers plus the owning map that keeps
// published snapshots reachable; a Holder is the fixed-slot reader bundle
// handed out to code that only ever reads.
package snapshot
