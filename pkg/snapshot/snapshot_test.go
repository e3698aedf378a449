package snapshot

import (
	"sync"
	"testing"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
	"github.com/stretchr/testify/require"
)

func TestHolderGetUnregisteredReturnsFalse(t *testing.T) {
	pub := NewPublisher()
	holder := pub.Holder()

	_, ok := holder.Get(dataset.WellKnown(dataset.BlockDomain))
	require.False(t, ok)
}

func TestPublishMakesSnapshotVisible(t *testing.T) {
	pub := NewPublisher()
	id := dataset.WellKnown(dataset.BlockDomain)
	pub.Register(id)
	holder := pub.Holder()

	snap := dataset.NewTextSetSnapshot(map[string]struct{}{"evil.example": {}})
	pub.Publish(id, snap)

	got, ok := holder.Get(id)
	require.True(t, ok)
	require.Same(t, snap, got)
}

func TestHolderFixedAtCreationTime(t *testing.T) {
	pub := NewPublisher()
	a := dataset.WellKnown(dataset.BlockDomain)
	pub.Register(a)
	holder := pub.Holder()

	b := dataset.WellKnown(dataset.BlockIP)
	pub.Register(b)
	pub.Publish(b, dataset.NewIPSetSnapshot(nil))

	_, ok := holder.Get(b)
	require.False(t, ok, "a holder built before a later registration must not see it")

	fresh := pub.Holder()
	_, ok = fresh.Get(b)
	require.True(t, ok)
}

func TestHolderCloneSharesLivePointers(t *testing.T) {
	pub := NewPublisher()
	id := dataset.WellKnown(dataset.BlockDomain)
	pub.Register(id)
	holder := pub.Holder()
	clone := holder.Clone()

	snap := dataset.NewTextSetSnapshot(map[string]struct{}{"a": {}})
	pub.Publish(id, snap)

	got, ok := clone.Get(id)
	require.True(t, ok)
	require.Same(t, snap, got)
}

// TestMonotonicPublication checks that two successive reads by one reader
// of the same identity never go backwards in version.
func TestMonotonicPublication(t *testing.T) {
	pub := NewPublisher()
	id := dataset.WellKnown(dataset.BlockIP)
	pub.Register(id)
	holder := pub.Holder()

	versions := make([]*dataset.Snapshot, 20)
	for i := range versions {
		versions[i] = dataset.NewIPSetSnapshot(nil)
		pub.Publish(id, versions[i])
	}

	seenIndex := -1
	for i, v := range versions {
		got, _ := holder.Get(id)
		if got == v {
			seenIndex = i
		}
	}
	require.GreaterOrEqual(t, seenIndex, 0)

	final, _ := holder.Get(id)
	require.Same(t, versions[len(versions)-1], final)
}

// TestAtomicityOfPublish checks that concurrent readers never observe a
// torn intermediate state, only one fully-built snapshot or another.
func TestAtomicityOfPublish(t *testing.T) {
	pub := NewPublisher()
	id := dataset.WellKnown(dataset.BlockDomain)
	pub.Register(id)
	holder := pub.Holder()

	withKey := dataset.NewTextSetSnapshot(map[string]struct{}{"k": {}})
	withoutKey := dataset.NewTextSetSnapshot(map[string]struct{}{})
	pub.Publish(id, withKey)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				snap, ok := holder.Get(id)
				if !ok || snap == nil {
					continue
				}
				if snap != withKey && snap != withoutKey {
					errs <- nil
				}
			}
		}()
	}
	pub.Publish(id, withoutKey)
	wg.Wait()
	close(errs)
	require.Empty(t, errs, "a reader observed a snapshot that was never published")
}
