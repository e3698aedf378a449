// Package codec encodes and decodes the values that cross the boundary
// between in-memory dataset values and the durable row format storage
// writes to disk.
package codec

import (
	"fmt"
	"net/netip"
)

// EncodeIP renders addr as its raw network-byte-order representation: 4
// bytes for v4, 16 for v6. Length alone disambiguates on decode, so the two
// must never be confused with each other.
//
// The byte order is a single fixed choice, made here once: big-endian
// (network byte order), via netip.Addr.As4/As16, which already return bytes
// in that order. DecodeIP below is the only other place this order is used,
// and the two are kept next to each other on purpose — the classic defect in
// systems like this one is an encode/decode pair that silently drifts apart
// because someone "fixed" one arm without the other.
func EncodeIP(addr netip.Addr) []byte {
	if addr.Is4() {
		b := addr.As4()
		return b[:]
	}
	b := addr.As16()
	return b[:]
}

// DecodeIP reverses EncodeIP. It fails for any length other than 4 or 16.
func DecodeIP(b []byte) (netip.Addr, error) {
	switch len(b) {
	case 4:
		var a [4]byte
		copy(a[:], b)
		return netip.AddrFrom4(a), nil
	case 16:
		var a [16]byte
		copy(a[:], b)
		return netip.AddrFrom16(a), nil
	default:
		return netip.Addr{}, fmt.Errorf("codec: invalid IP byte length %d, want 4 or 16", len(b))
	}
}

// EncodePrefix renders a network prefix as its address bytes; the prefix
// length itself is stored as a separate integer column, not encoded into the
// byte string (a single byte would suffice for the 0-128 range, but a plain
// SQL integer column is simpler and just as correct).
func EncodePrefix(p netip.Prefix) []byte {
	return EncodeIP(p.Addr())
}

// DecodePrefix rebuilds a netip.Prefix from encoded address bytes and a
// prefix length column value.
func DecodePrefix(b []byte, bits int) (netip.Prefix, error) {
	addr, err := DecodeIP(b)
	if err != nil {
		return netip.Prefix{}, err
	}
	p := netip.PrefixFrom(addr, bits)
	if !p.IsValid() {
		return netip.Prefix{}, fmt.Errorf("codec: invalid prefix length %d for %s", bits, addr)
	}
	return p, nil
}
