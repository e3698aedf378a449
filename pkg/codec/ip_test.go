package codec

import (
	"math/rand"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeIPv4RoundTrip(t *testing.T) {
	// Sampling the full 2^32 space is impractical for a unit test; sample
	// densely across the range plus the edges, which is what actually
	// catches byte-order defects (they show up immediately, not after
	// millions of iterations).
	samples := []uint32{0, 1, 0x7fffffff, 0x80000000, 0xffffffff, 0x0a000001, 0xc0a80001}
	for i := 0; i < 20_000; i++ {
		samples = append(samples, rand.Uint32())
	}

	for _, v := range samples {
		addr := netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
		encoded := EncodeIP(addr)
		require.Len(t, encoded, 4)

		decoded, err := DecodeIP(encoded)
		require.NoError(t, err)
		require.Equal(t, addr, decoded)
	}
}

func TestEncodeDecodeIPv6RoundTrip(t *testing.T) {
	// A full 10^6-sample run is too slow for a unit test; this sample is
	// small enough to run on every commit.
	for i := 0; i < 50_000; i++ {
		var b [16]byte
		rand.Read(b[:])
		addr := netip.AddrFrom16(b)

		encoded := EncodeIP(addr)
		require.Len(t, encoded, 16)

		decoded, err := DecodeIP(encoded)
		require.NoError(t, err)
		require.Equal(t, addr, decoded)
	}
}

func TestDecodeIPInvalidLength(t *testing.T) {
	_, err := DecodeIP([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestEncodeDecodePrefixRoundTrip(t *testing.T) {
	p := netip.MustParsePrefix("10.0.0.0/8")
	encoded := EncodePrefix(p)

	decoded, err := DecodePrefix(encoded, p.Bits())
	require.NoError(t, err)
	require.Equal(t, p, decoded)

	p6 := netip.MustParsePrefix("2001:db8::/32")
	encoded6 := EncodePrefix(p6)
	decoded6, err := DecodePrefix(encoded6, p6.Bits())
	require.NoError(t, err)
	require.Equal(t, p6, decoded6)
}
