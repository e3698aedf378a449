package manager

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"strings"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
)

// Seed bulk-loads identity from r as a single Replace, then publishes the
// result. It is additive sugar over Apply+Load — no new invariant — for
// embedders that want to prime a dataset from a plain-text source (a file
// shipped alongside the binary, a fetched blocklist) without going through
// the inbox/debounce path one line at a time. identity must already be
// registered.
//
// The record format is implied by identity's kind, one record per line,
// blank lines skipped:
//
//	TextSet       key
//	TextMap       key<TAB>value
//	TextMapList   key<TAB>v1,v2,v3
//	IpSet         ip
//	IpMap         ip<TAB>value
//	IpMapList     ip<TAB>v1,v2,v3
//	IpNet         prefix<TAB>value
//	GeoIp         prefix<TAB>country<TAB>city<TAB>lat<TAB>lon<TAB>isp
func (m *Manager) Seed(ctx context.Context, id dataset.Identity, r io.Reader) error {
	if _, ok := m.registry.Get(id); !ok {
		return newError(CodeNotRegistered, "seed", id, dataset.ErrNotRegistered)
	}

	update, err := decodeSeed(id.Kind(), r)
	if err != nil {
		return newError(CodeInvalidName, "seed", id, err)
	}

	if err := m.store.Apply(ctx, id, update); err != nil {
		return newError(CodeStorageApplyFailed, "seed", id, err)
	}
	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return newError(CodeStorageLoadFailed, "seed", id, err)
	}

	m.publisher.Publish(id, snap)
	return nil
}

func decodeSeed(kind dataset.Kind, r io.Reader) (dataset.Update, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	switch kind {
	case dataset.TextSet:
		keys := []string{}
		return eachLine(scanner, func(line string) error {
			keys = append(keys, line)
			return nil
		}, func() dataset.Update { return dataset.ReplaceTextSet{Keys: keys} })

	case dataset.TextMap:
		entries := map[string]string{}
		return eachLine(scanner, func(line string) error {
			k, v, err := splitTab2(line)
			if err != nil {
				return err
			}
			entries[k] = v
			return nil
		}, func() dataset.Update { return dataset.ReplaceTextMap{Entries: entries} })

	case dataset.TextMapList:
		entries := map[string][]string{}
		return eachLine(scanner, func(line string) error {
			k, v, err := splitTab2(line)
			if err != nil {
				return err
			}
			entries[k] = strings.Split(v, ",")
			return nil
		}, func() dataset.Update { return dataset.ReplaceTextMapList{Entries: entries} })

	case dataset.IPSet:
		ips := []netip.Addr{}
		return eachLine(scanner, func(line string) error {
			addr, err := netip.ParseAddr(line)
			if err != nil {
				return err
			}
			ips = append(ips, addr)
			return nil
		}, func() dataset.Update { return dataset.ReplaceIPSet{IPs: ips} })

	case dataset.IPMap:
		entries := map[netip.Addr]string{}
		return eachLine(scanner, func(line string) error {
			k, v, err := splitTab2(line)
			if err != nil {
				return err
			}
			addr, err := netip.ParseAddr(k)
			if err != nil {
				return err
			}
			entries[addr] = v
			return nil
		}, func() dataset.Update { return dataset.ReplaceIPMap{Entries: entries} })

	case dataset.IPMapList:
		entries := map[netip.Addr][]string{}
		return eachLine(scanner, func(line string) error {
			k, v, err := splitTab2(line)
			if err != nil {
				return err
			}
			addr, err := netip.ParseAddr(k)
			if err != nil {
				return err
			}
			entries[addr] = strings.Split(v, ",")
			return nil
		}, func() dataset.Update { return dataset.ReplaceIPMapList{Entries: entries} })

	case dataset.IPNet:
		entries := map[netip.Prefix]string{}
		return eachLine(scanner, func(line string) error {
			k, v, err := splitTab2(line)
			if err != nil {
				return err
			}
			prefix, err := netip.ParsePrefix(k)
			if err != nil {
				return err
			}
			entries[prefix] = v
			return nil
		}, func() dataset.Update { return dataset.ReplaceIPNet{Entries: entries} })

	case dataset.GeoIP:
		entries := map[netip.Prefix]dataset.GeoRecord{}
		return eachLine(scanner, func(line string) error {
			fields := strings.Split(line, "\t")
			if len(fields) != 6 {
				return fmt.Errorf("seed: want 6 tab-separated fields, got %d", len(fields))
			}
			prefix, err := netip.ParsePrefix(fields[0])
			if err != nil {
				return err
			}
			lat, err := strconv.ParseFloat(fields[3], 32)
			if err != nil {
				return err
			}
			lon, err := strconv.ParseFloat(fields[4], 32)
			if err != nil {
				return err
			}
			entries[prefix] = dataset.GeoRecord{
				Country:   fields[1],
				City:      fields[2],
				Latitude:  float32(lat),
				Longitude: float32(lon),
				ISP:       fields[5],
			}
			return nil
		}, func() dataset.Update { return dataset.ReplaceGeoIP{Entries: entries} })

	default:
		return nil, fmt.Errorf("%w: %s", dataset.ErrUnknownKind, kind)
	}
}

func eachLine(scanner *bufio.Scanner, handle func(line string) error, build func() dataset.Update) (dataset.Update, error) {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := handle(line); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return build(), nil
}

func splitTab2(line string) (string, string, error) {
	idx := strings.IndexByte(line, '\t')
	if idx < 0 {
		return "", "", fmt.Errorf("seed: want a tab-separated key/value line, got %q", line)
	}
	return line[:idx], line[idx+1:], nil
}
