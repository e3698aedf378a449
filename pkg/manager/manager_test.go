package manager

import (
	"context"
	"net/netip"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
	"github.com/sentineldb/datasetmgr/pkg/metrics"
)

// newTestManager returns a running in-memory Manager with a short debounce
// window, so scenario tests don't need to literally wait out the 5s default.
func newTestManager(t *testing.T, debounce time.Duration) *Manager {
	t.Helper()
	mgr, err := New(Config{InMemory: true, DebounceInterval: debounce})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-done
		require.NoError(t, mgr.Close())
	})
	return mgr
}

// TestRegisterIsIdempotent checks that registering twice is a no-op and
// does not reset the dataset's debounce clock.
func TestRegisterIsIdempotent(t *testing.T) {
	mgr := newTestManager(t, 30*time.Millisecond)
	ctx := context.Background()
	id := dataset.WellKnown(dataset.BlockDomain)

	require.NoError(t, mgr.Register(ctx, id))
	entry, ok := mgr.registry.Get(id)
	require.True(t, ok)
	clock := entry.LastFlushMillis
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, mgr.Register(ctx, id))
	require.Equal(t, 1, mgr.registry.Len())
	require.Equal(t, clock, entry.LastFlushMillis)
}

func TestSenderForNotRegisteredFails(t *testing.T) {
	mgr := newTestManager(t, 30*time.Millisecond)
	_, err := mgr.SenderFor(dataset.WellKnown(dataset.BlockDomain))
	require.ErrorIs(t, err, dataset.ErrNotRegistered)
}

// TestIPMapAddAndRead adds one IP-keyed entry, waits past the debounce
// window, and reads it back; an unrelated key is absent.
func TestIPMapAddAndRead(t *testing.T) {
	mgr := newTestManager(t, 50*time.Millisecond)
	ctx := context.Background()
	id := dataset.WellKnown(dataset.IPMac)
	require.NoError(t, mgr.Register(ctx, id))

	sender, err := mgr.SenderFor(id)
	require.NoError(t, err)

	addr := netip.AddrFrom4([4]byte{0, 0, 7, 228}) // 2020 as a v4 address
	require.NoError(t, sender.Send(ctx, dataset.AddIPMap{IP: addr, Value: "default_ip"}))

	require.Eventually(t, func() bool {
		snap, ok := mgr.Holder().Get(id)
		if !ok {
			return false
		}
		v, ok := snap.LookupIP(addr)
		return ok && v == "default_ip"
	}, 2*time.Second, 10*time.Millisecond)

	snap, _ := mgr.Holder().Get(id)
	_, ok := snap.LookupIP(netip.AddrFrom4([4]byte{0, 0, 7, 229}))
	require.False(t, ok)
}

// TestTextSetBlockList adds two domains, removes one, and checks the
// survivor is the only one left in the published block list.
func TestTextSetBlockList(t *testing.T) {
	mgr := newTestManager(t, 50*time.Millisecond)
	ctx := context.Background()
	id := dataset.WellKnown(dataset.BlockDomain)
	require.NoError(t, mgr.Register(ctx, id))

	sender, err := mgr.SenderFor(id)
	require.NoError(t, err)
	require.NoError(t, sender.Send(ctx, dataset.AddText{Key: "evil.example"}))
	require.NoError(t, sender.Send(ctx, dataset.AddText{Key: "bad.test"}))
	require.NoError(t, sender.Send(ctx, dataset.RemoveText{Key: "evil.example"}))

	require.Eventually(t, func() bool {
		snap, ok := mgr.Holder().Get(id)
		return ok && snap.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	snap, _ := mgr.Holder().Get(id)
	require.True(t, snap.Contains("bad.test"))
	require.False(t, snap.Contains("evil.example"))
}

// TestTextMapListMerge adds two distinct keys, each once, and checks order
// is preserved within each key's value list.
func TestTextMapListMerge(t *testing.T) {
	mgr := newTestManager(t, 50*time.Millisecond)
	ctx := context.Background()
	id := dataset.WellKnown(dataset.UserTags)
	require.NoError(t, mgr.Register(ctx, id))

	sender, err := mgr.SenderFor(id)
	require.NoError(t, err)
	require.NoError(t, sender.Send(ctx, dataset.AddTextMapList{Key: "alice", Values: []string{"admin", "oncall"}}))
	require.NoError(t, sender.Send(ctx, dataset.AddTextMapList{Key: "bob", Values: []string{"dev"}}))

	require.Eventually(t, func() bool {
		snap, ok := mgr.Holder().Get(id)
		if !ok {
			return false
		}
		_, aliceOK := snap.LookupList("alice")
		_, bobOK := snap.LookupList("bob")
		return aliceOK && bobOK
	}, 2*time.Second, 10*time.Millisecond)

	snap, _ := mgr.Holder().Get(id)
	alice, _ := snap.LookupList("alice")
	require.Equal(t, []string{"admin", "oncall"}, alice)
	bob, _ := snap.LookupList("bob")
	require.Equal(t, []string{"dev"}, bob)
}

// TestGeoIPRange adds a range, reads it back, then removes it and checks
// the snapshot goes empty.
func TestGeoIPRange(t *testing.T) {
	mgr := newTestManager(t, 50*time.Millisecond)
	ctx := context.Background()
	id := dataset.WellKnown(dataset.GeoIPTag)
	require.NoError(t, mgr.Register(ctx, id))

	sender, err := mgr.SenderFor(id)
	require.NoError(t, err)

	prefix := netip.PrefixFrom(netip.AddrFrom4([4]byte{10, 0, 0, 0}), 8)
	record := dataset.GeoRecord{Country: "ZZ", City: "X", Latitude: 0, Longitude: 0, ISP: "Acme"}
	require.NoError(t, sender.Send(ctx, dataset.AddGeoIP{Prefix: prefix, Record: record}))

	require.Eventually(t, func() bool {
		snap, ok := mgr.Holder().Get(id)
		return ok && snap.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	snap, _ := mgr.Holder().Get(id)
	got, ok := snap.LookupGeo(netip.AddrFrom4([4]byte{10, 1, 2, 3}))
	require.True(t, ok)
	require.Equal(t, record, got)

	require.NoError(t, sender.Send(ctx, dataset.RemoveGeoIP{Prefix: prefix}))
	require.Eventually(t, func() bool {
		snap, ok := mgr.Holder().Get(id)
		return ok && snap.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

// TestDebounceCollapsesBurst sends a burst of updates well inside one
// debounce window and checks they collapse into a single rebuild.
func TestDebounceCollapsesBurst(t *testing.T) {
	// InboxCapacity comfortably above the burst size: the point of this
	// test is that the whole burst lands before the debounce window
	// elapses, not that the channel applies its own backpressure mid-burst.
	mgr, err := New(Config{InMemory: true, DebounceInterval: 5 * time.Second, InboxCapacity: 20_000})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		require.NoError(t, mgr.Close())
	})

	id := dataset.WellKnown(dataset.IPMac)
	require.NoError(t, mgr.Register(ctx, id))

	sender, err := mgr.SenderFor(id)
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.RebuildsTotal.WithLabelValues(id.TableName()))

	const n = 10_000
	deadline := time.Now().Add(4 * time.Second)
	for i := 0; i < n; i++ {
		addr := netip.AddrFrom4([4]byte{byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)})
		require.NoError(t, sender.Send(ctx, dataset.AddIPMap{IP: addr, Value: "IP:" + strconv.Itoa(i)}))
	}
	require.True(t, time.Now().Before(deadline), "burst took longer than the debounce window")

	// The debounce window (5s) hasn't elapsed yet: no rebuild should have
	// happened from this burst.
	require.Equal(t, before, testutil.ToFloat64(metrics.RebuildsTotal.WithLabelValues(id.TableName())))

	require.Eventually(t, func() bool {
		snap, ok := mgr.Holder().Get(id)
		return ok && snap.Len() == n
	}, 8*time.Second, 50*time.Millisecond)

	after := testutil.ToFloat64(metrics.RebuildsTotal.WithLabelValues(id.TableName()))
	require.Equal(t, before+1, after, "exactly one rebuild should have collapsed the whole burst")
}

// TestPersistenceAcrossReopen checks that state survives a manager reopen
// on the same path.
func TestPersistenceAcrossReopen(t *testing.T) {
	path := t.TempDir() + "/datasets.db"
	id := dataset.WellKnown(dataset.Configuration)

	func() {
		mgr, err := New(Config{Path: path, DebounceInterval: 30 * time.Millisecond})
		require.NoError(t, err)
		ctx := context.Background()
		require.NoError(t, mgr.Register(ctx, id))

		runCtx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- mgr.Run(runCtx) }()

		sender, err := mgr.SenderFor(id)
		require.NoError(t, err)
		require.NoError(t, sender.Send(ctx, dataset.AddTextMap{Key: "k", Value: "v"}))

		require.Eventually(t, func() bool {
			snap, ok := mgr.Holder().Get(id)
			return ok && snap.Len() == 1
		}, 2*time.Second, 10*time.Millisecond)

		cancel()
		<-done
		require.NoError(t, mgr.Close())
	}()

	mgr, err := New(Config{Path: path, DebounceInterval: 30 * time.Millisecond})
	require.NoError(t, err)
	defer mgr.Close()

	require.NoError(t, mgr.Register(context.Background(), id))
	snap, ok := mgr.Holder().Get(id)
	require.True(t, ok)
	v, ok := snap.Lookup("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
}

// TestBackpressureOnFullInbox checks that a full inbox returns Backpressure
// within the configured send timeout rather than blocking forever or
// silently dropping anything.
func TestBackpressureOnFullInbox(t *testing.T) {
	mgr, err := New(Config{InMemory: true, InboxCapacity: 1, SendTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer mgr.Close()

	ctx := context.Background()
	id := dataset.WellKnown(dataset.BlockIP)
	require.NoError(t, mgr.Register(ctx, id))
	sender, err := mgr.SenderFor(id)
	require.NoError(t, err)

	// Nothing is draining the inbox (Run isn't started), so the first send
	// fills the capacity-1 buffer and the second must time out.
	require.NoError(t, sender.Send(ctx, dataset.AddIP{IP: netip.MustParseAddr("1.2.3.4")}))
	err = sender.Send(ctx, dataset.AddIP{IP: netip.MustParseAddr("1.2.3.5")})
	require.ErrorIs(t, err, dataset.ErrBackpressure)
}

func TestSendWrongKindIsRejected(t *testing.T) {
	mgr := newTestManager(t, 50*time.Millisecond)
	ctx := context.Background()
	id := dataset.WellKnown(dataset.BlockDomain) // TextSet
	require.NoError(t, mgr.Register(ctx, id))
	sender, err := mgr.SenderFor(id)
	require.NoError(t, err)

	err = sender.Send(ctx, dataset.AddIP{IP: netip.MustParseAddr("1.2.3.4")})
	var mgrErr *Error
	require.ErrorAs(t, err, &mgrErr)
	require.Equal(t, CodeUnknownKind, mgrErr.Code)
}

func TestSeedBulkLoadsThenPublishes(t *testing.T) {
	mgr := newTestManager(t, 2*time.Second)
	ctx := context.Background()
	id := dataset.WellKnown(dataset.BlockDomain)
	require.NoError(t, mgr.Register(ctx, id))

	r := strings.NewReader("evil.example\nbad.test\n")
	require.NoError(t, mgr.Seed(ctx, id, r))

	snap, ok := mgr.Holder().Get(id)
	require.True(t, ok)
	require.True(t, snap.Contains("evil.example"))
	require.True(t, snap.Contains("bad.test"))
}
