package dataset

import (
	"fmt"
	"regexp"
)

// nameRE is the non-negotiable validation applied to every custom dataset
// name before it is ever interpolated into SQL as a table name.
var nameRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Tag is a well-known dataset identity. The zero value is never valid on its
// own; Identity distinguishes a well-known tag from a custom one internally.
type Tag uint16

const (
	// TextSet-kind tags.
	BlockDomain Tag = iota + 1
	BlockCountry
	SecretNames

	// TextMap-kind tags.
	HostUser
	MacHost
	Configuration

	// TextMapList-kind tags.
	UserTags
	AssetTags
	HostVulnerabilities

	// IPSet-kind tags.
	BlockIP

	// IPMap-kind tags.
	IPHost
	IPMac

	// IPMapList-kind tags.
	IPDNSNames

	// IPNet-kind tags.
	CloudNetwork
	HqNetwork

	// GeoIP-kind tag.
	GeoIPTag
)

var wellKnownKind = map[Tag]Kind{
	BlockDomain:         TextSet,
	BlockCountry:        TextSet,
	SecretNames:         TextSet,
	HostUser:            TextMap,
	MacHost:             TextMap,
	Configuration:       TextMap,
	UserTags:            TextMapList,
	AssetTags:           TextMapList,
	HostVulnerabilities: TextMapList,
	BlockIP:             IPSet,
	IPHost:              IPMap,
	IPMac:               IPMap,
	IPDNSNames:          IPMapList,
	CloudNetwork:        IPNet,
	HqNetwork:           IPNet,
	GeoIPTag:            GeoIP,
}

var wellKnownName = map[Tag]string{
	BlockDomain:         "BlockDomain",
	BlockCountry:        "BlockCountry",
	SecretNames:         "SecretNames",
	HostUser:            "HostUser",
	MacHost:             "MacHost",
	Configuration:       "Configuration",
	UserTags:            "UserTags",
	AssetTags:           "AssetTags",
	HostVulnerabilities: "HostVulnerabilities",
	BlockIP:             "BlockIp",
	IPHost:              "IpHost",
	IPMac:               "IpMac",
	IPDNSNames:          "IpDnsNames",
	CloudNetwork:        "CloudNetwork",
	HqNetwork:           "HqNetwork",
	GeoIPTag:            "GeoIp",
}

// customTag marks an Identity as carrying a user-chosen name rather than one
// of the well-known tags above.
const customTag Tag = 0

// Identity names a dataset. It is either one of the well-known tags above, or
// a Custom(kind, name) pair. Identity is comparable and safe to use as a map
// key; Compare gives a total order for callers that need one (the registry
// iterates in registration order instead and does not call Compare).
type Identity struct {
	tag  Tag
	kind Kind
	name string
}

// WellKnown builds the Identity for a well-known tag. It panics if tag is not
// one of the constants declared in this file — that is a programming error,
// not a runtime condition callers need to recover from.
func WellKnown(tag Tag) Identity {
	kind, ok := wellKnownKind[tag]
	if !ok {
		panic(fmt.Sprintf("dataset: %d is not a well-known tag", tag))
	}
	return Identity{tag: tag, kind: kind}
}

// Custom builds an Identity for a per-tenant dataset of the given kind. name
// must match [A-Za-z0-9_]+ and must not collide with a well-known table name;
// both are rejected with ErrInvalidName-wrapped errors, not panics, since the
// name usually comes from outside the process.
func Custom(kind Kind, name string) (Identity, error) {
	if !nameRE.MatchString(name) {
		return Identity{}, fmt.Errorf("%w: custom dataset name %q must match [A-Za-z0-9_]+", ErrInvalidName, name)
	}
	for _, wellKnown := range wellKnownName {
		if wellKnown == name {
			return Identity{}, fmt.Errorf("%w: custom dataset name %q collides with a well-known identity", ErrInvalidName, name)
		}
	}
	return Identity{tag: customTag, kind: kind, name: name}, nil
}

// Kind reports the dataset shape this identity names.
func (id Identity) Kind() Kind { return id.kind }

// IsCustom reports whether this identity is a per-tenant Custom identity.
func (id Identity) IsCustom() bool { return id.tag == customTag }

// TableName is the deterministic identity-to-table-name mapping: the
// well-known tag spelled CamelCase, or the validated custom name.
func (id Identity) TableName() string {
	if id.tag == customTag {
		return id.name
	}
	return wellKnownName[id.tag]
}

func (id Identity) String() string {
	if id.tag == customTag {
		return fmt.Sprintf("Custom(%s, %s)", id.kind, id.name)
	}
	return wellKnownName[id.tag]
}

// Compare gives Identity a total order: well-known identities sort before
// custom ones, each group ordered by table name, then by kind.
func (id Identity) Compare(other Identity) int {
	aCustom, bCustom := id.tag == customTag, other.tag == customTag
	if aCustom != bCustom {
		if aCustom {
			return 1
		}
		return -1
	}
	an, bn := id.TableName(), other.TableName()
	switch {
	case an < bn:
		return -1
	case an > bn:
		return 1
	case id.kind < other.kind:
		return -1
	case id.kind > other.kind:
		return 1
	default:
		return 0
	}
}
