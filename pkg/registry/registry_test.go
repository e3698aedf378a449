package registry

import (
	"testing"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotent(t *testing.T) {
	r := New()
	id := dataset.WellKnown(dataset.BlockDomain)

	e1, created1 := r.Register(id, 0)
	require.True(t, created1)

	e1.LastFlushMillis = 12345

	e2, created2 := r.Register(id, 0)
	require.False(t, created2)
	require.Same(t, e1, e2)
	require.Equal(t, int64(12345), e2.LastFlushMillis)
	require.Equal(t, 1, r.Len())
}

func TestIterateForFlushPreservesRegistrationOrder(t *testing.T) {
	r := New()
	a := dataset.WellKnown(dataset.BlockDomain)
	b := dataset.WellKnown(dataset.BlockIP)
	c := dataset.WellKnown(dataset.GeoIPTag)

	r.Register(a, 0)
	r.Register(b, 0)
	r.Register(c, 0)

	require.Equal(t, []dataset.Identity{a, b, c}, r.IterateForFlush())
}

func TestDefaultInboxCapacity(t *testing.T) {
	r := New()
	id := dataset.WellKnown(dataset.BlockDomain)
	e, _ := r.Register(id, 0)
	require.Equal(t, DefaultInboxCapacity, cap(e.Inbox))
}

func TestGetUnregisteredReturnsFalse(t *testing.T) {
	r := New()
	_, ok := r.Get(dataset.WellKnown(dataset.BlockDomain))
	require.False(t, ok)
}
