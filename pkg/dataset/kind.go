// Package dataset defines the closed set of dataset kinds, the identity
// values that name a dataset, the mutation union applied to a dataset, and
// the immutable in-memory snapshot each kind materializes into.
package dataset

// Kind is the closed set of dataset shapes the manager understands. Adding a
// new kind is a deliberate, exhaustive change: every switch over Kind in this
// module must be extended together.
type Kind uint8

const (
	// TextSet is a set of text keys: blocklists, secret name sets.
	TextSet Kind = iota
	// TextMap is text key to text value: host<->user, mac<->host, config.
	TextMap
	// TextMapList is text key to an ordered list of text values: tags.
	TextMapList
	// IPSet is a set of IP addresses: blocked IPs.
	IPSet
	// IPMap is IP address to text value: IP->host, IP->mac.
	IPMap
	// IPMapList is IP address to an ordered list of text values: IP->DNS names.
	IPMapList
	// IPNet is IP network (address, prefix length) to text value: range labels.
	IPNet
	// GeoIP is IP network to a geolocation record.
	GeoIP
)

func (k Kind) String() string {
	switch k {
	case TextSet:
		return "TextSet"
	case TextMap:
		return "TextMap"
	case TextMapList:
		return "TextMapList"
	case IPSet:
		return "IpSet"
	case IPMap:
		return "IpMap"
	case IPMapList:
		return "IpMapList"
	case IPNet:
		return "IpNet"
	case GeoIP:
		return "GeoIp"
	default:
		return "Unknown"
	}
}

// listValued reports whether the kind stores an ordered list of values per
// key, and therefore owns a child table joined by the parent row id.
func (k Kind) listValued() bool {
	return k == TextMapList || k == IPMapList
}

// networkKeyed reports whether the kind is keyed by (address, prefix length)
// rather than a bare address or text key.
func (k Kind) networkKeyed() bool {
	return k == IPNet || k == GeoIP
}

// ipKeyed reports whether the kind's logical key is an IP address or network,
// as opposed to a text key.
func (k Kind) ipKeyed() bool {
	return k == IPSet || k == IPMap || k == IPMapList || k.networkKeyed()
}
