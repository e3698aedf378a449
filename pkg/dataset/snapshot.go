package dataset

import (
	"net/netip"

	"github.com/gaissmai/bart"
)

// Snapshot is an immutable, fully materialized in-memory representation of
// one dataset. A Snapshot is never mutated in place: every rebuild produces
// a brand new value that the publisher swaps in atomically. Exactly one of
// the per-kind fields below is populated, matching Kind.
type Snapshot struct {
	kind Kind

	textSet     map[string]struct{}
	textMap     map[string]string
	textMapList map[string][]string

	ipSet     map[netip.Addr]struct{}
	ipMap     map[netip.Addr]string
	ipMapList map[netip.Addr][]string

	ipNet *bart.Table[string]
	geoIP *bart.Table[GeoRecord]
}

// Kind reports the shape of this snapshot.
func (s *Snapshot) Kind() Kind { return s.kind }

// NewTextSetSnapshot builds a TextSet snapshot from its full key set.
func NewTextSetSnapshot(keys map[string]struct{}) *Snapshot {
	return &Snapshot{kind: TextSet, textSet: keys}
}

// NewTextMapSnapshot builds a TextMap snapshot.
func NewTextMapSnapshot(m map[string]string) *Snapshot {
	return &Snapshot{kind: TextMap, textMap: m}
}

// NewTextMapListSnapshot builds a TextMapList snapshot.
func NewTextMapListSnapshot(m map[string][]string) *Snapshot {
	return &Snapshot{kind: TextMapList, textMapList: m}
}

// NewIPSetSnapshot builds an IPSet snapshot.
func NewIPSetSnapshot(ips map[netip.Addr]struct{}) *Snapshot {
	return &Snapshot{kind: IPSet, ipSet: ips}
}

// NewIPMapSnapshot builds an IPMap snapshot.
func NewIPMapSnapshot(m map[netip.Addr]string) *Snapshot {
	return &Snapshot{kind: IPMap, ipMap: m}
}

// NewIPMapListSnapshot builds an IPMapList snapshot.
func NewIPMapListSnapshot(m map[netip.Addr][]string) *Snapshot {
	return &Snapshot{kind: IPMapList, ipMapList: m}
}

// NewIPNetSnapshot builds an IPNet snapshot backed by a longest-prefix-match
// table.
func NewIPNetSnapshot(t *bart.Table[string]) *Snapshot {
	return &Snapshot{kind: IPNet, ipNet: t}
}

// NewGeoIPSnapshot builds a GeoIP snapshot backed by a longest-prefix-match
// table.
func NewGeoIPSnapshot(t *bart.Table[GeoRecord]) *Snapshot {
	return &Snapshot{kind: GeoIP, geoIP: t}
}

// Contains reports whether key is present in a TextSet snapshot.
func (s *Snapshot) Contains(key string) bool {
	_, ok := s.textSet[key]
	return ok
}

// Lookup returns the value for key in a TextMap snapshot.
func (s *Snapshot) Lookup(key string) (string, bool) {
	v, ok := s.textMap[key]
	return v, ok
}

// LookupList returns the ordered value list for key in a TextMapList
// snapshot.
func (s *Snapshot) LookupList(key string) ([]string, bool) {
	v, ok := s.textMapList[key]
	return v, ok
}

// ContainsIP reports whether ip is present in an IPSet snapshot.
func (s *Snapshot) ContainsIP(ip netip.Addr) bool {
	_, ok := s.ipSet[ip]
	return ok
}

// LookupIP returns the value for ip in an IPMap snapshot.
func (s *Snapshot) LookupIP(ip netip.Addr) (string, bool) {
	v, ok := s.ipMap[ip]
	return v, ok
}

// LookupIPList returns the ordered value list for ip in an IPMapList
// snapshot.
func (s *Snapshot) LookupIPList(ip netip.Addr) ([]string, bool) {
	v, ok := s.ipMapList[ip]
	return v, ok
}

// LookupNet returns the value of the longest matching network covering ip in
// an IPNet snapshot.
func (s *Snapshot) LookupNet(ip netip.Addr) (string, bool) {
	if s.ipNet == nil {
		return "", false
	}
	return s.ipNet.Lookup(ip)
}

// LookupGeo returns the geolocation record of the longest matching network
// covering ip in a GeoIP snapshot.
func (s *Snapshot) LookupGeo(ip netip.Addr) (GeoRecord, bool) {
	if s.geoIP == nil {
		return GeoRecord{}, false
	}
	return s.geoIP.Lookup(ip)
}

// Len reports the number of entries in the snapshot, regardless of kind.
func (s *Snapshot) Len() int {
	switch s.kind {
	case TextSet:
		return len(s.textSet)
	case TextMap:
		return len(s.textMap)
	case TextMapList:
		return len(s.textMapList)
	case IPSet:
		return len(s.ipSet)
	case IPMap:
		return len(s.ipMap)
	case IPMapList:
		return len(s.ipMapList)
	case IPNet:
		return s.ipNet.Size()
	case GeoIP:
		return s.geoIP.Size()
	default:
		return 0
	}
}
