package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/netip"

	"github.com/gaissmai/bart"
	"github.com/sentineldb/datasetmgr/pkg/codec"
	"github.com/sentineldb/datasetmgr/pkg/dataset"
)

// Load performs a full table scan of identity's table(s) and materializes a
// brand new Snapshot. It never mutates an existing Snapshot: every call
// builds a fresh value for the publisher to swap in.
func (s *SQLiteStore) Load(ctx context.Context, id dataset.Identity) (*dataset.Snapshot, error) {
	table, err := validatedTableName(id)
	if err != nil {
		return nil, err
	}

	switch id.Kind() {
	case dataset.TextSet:
		return s.loadTextSet(ctx, id, table)
	case dataset.TextMap:
		return s.loadTextMap(ctx, id, table)
	case dataset.TextMapList:
		return s.loadTextMapList(ctx, id, table)
	case dataset.IPSet:
		return s.loadIPSet(ctx, id, table)
	case dataset.IPMap:
		return s.loadIPMap(ctx, id, table)
	case dataset.IPMapList:
		return s.loadIPMapList(ctx, id, table)
	case dataset.IPNet:
		return s.loadIPNet(ctx, id, table)
	case dataset.GeoIP:
		return s.loadGeoIP(ctx, id, table)
	default:
		return nil, fmt.Errorf("%w: kind %s", dataset.ErrUnknownKind, id.Kind())
	}
}

func (s *SQLiteStore) loadTextSet(ctx context.Context, id dataset.Identity, table string) (*dataset.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key_text FROM `+table)
	if err != nil {
		return nil, loadErr(id, err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, loadErr(id, err)
		}
		keys[k] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, loadErr(id, err)
	}
	return dataset.NewTextSetSnapshot(keys), nil
}

func (s *SQLiteStore) loadTextMap(ctx context.Context, id dataset.Identity, table string) (*dataset.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key_text, value_text FROM `+table)
	if err != nil {
		return nil, loadErr(id, err)
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, loadErr(id, err)
		}
		m[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, loadErr(id, err)
	}
	return dataset.NewTextMapSnapshot(m), nil
}

func (s *SQLiteStore) loadTextMapList(ctx context.Context, id dataset.Identity, table string) (*dataset.Snapshot, error) {
	listTable, err := validatedListTableName(id)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT p.key_text, c.value FROM `+table+` p
		LEFT JOIN `+listTable+` c ON c.parent_id = p.id
		ORDER BY p.key_text, c.ordinal`)
	if err != nil {
		return nil, loadErr(id, err)
	}
	defer rows.Close()

	m := make(map[string][]string)
	for rows.Next() {
		var k string
		var v sql.NullString
		if err := rows.Scan(&k, &v); err != nil {
			return nil, loadErr(id, err)
		}
		if _, ok := m[k]; !ok {
			m[k] = nil
		}
		if v.Valid {
			m[k] = append(m[k], v.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, loadErr(id, err)
	}
	return dataset.NewTextMapListSnapshot(m), nil
}

func (s *SQLiteStore) loadIPSet(ctx context.Context, id dataset.Identity, table string) (*dataset.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key_ip FROM `+table)
	if err != nil {
		return nil, loadErr(id, err)
	}
	defer rows.Close()

	ips := make(map[netip.Addr]struct{})
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, loadErr(id, err)
		}
		addr, err := codec.DecodeIP(b)
		if err != nil {
			return nil, loadErr(id, err)
		}
		ips[addr] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, loadErr(id, err)
	}
	return dataset.NewIPSetSnapshot(ips), nil
}

func (s *SQLiteStore) loadIPMap(ctx context.Context, id dataset.Identity, table string) (*dataset.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key_ip, value_text FROM `+table)
	if err != nil {
		return nil, loadErr(id, err)
	}
	defer rows.Close()

	m := make(map[netip.Addr]string)
	for rows.Next() {
		var b []byte
		var v string
		if err := rows.Scan(&b, &v); err != nil {
			return nil, loadErr(id, err)
		}
		addr, err := codec.DecodeIP(b)
		if err != nil {
			return nil, loadErr(id, err)
		}
		m[addr] = v
	}
	if err := rows.Err(); err != nil {
		return nil, loadErr(id, err)
	}
	return dataset.NewIPMapSnapshot(m), nil
}

func (s *SQLiteStore) loadIPMapList(ctx context.Context, id dataset.Identity, table string) (*dataset.Snapshot, error) {
	listTable, err := validatedListTableName(id)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT p.key_ip, c.value FROM `+table+` p
		LEFT JOIN `+listTable+` c ON c.parent_id = p.id
		ORDER BY p.key_ip, c.ordinal`)
	if err != nil {
		return nil, loadErr(id, err)
	}
	defer rows.Close()

	m := make(map[netip.Addr][]string)
	for rows.Next() {
		var b []byte
		var v sql.NullString
		if err := rows.Scan(&b, &v); err != nil {
			return nil, loadErr(id, err)
		}
		addr, err := codec.DecodeIP(b)
		if err != nil {
			return nil, loadErr(id, err)
		}
		if _, ok := m[addr]; !ok {
			m[addr] = nil
		}
		if v.Valid {
			m[addr] = append(m[addr], v.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, loadErr(id, err)
	}
	return dataset.NewIPMapListSnapshot(m), nil
}

func (s *SQLiteStore) loadIPNet(ctx context.Context, id dataset.Identity, table string) (*dataset.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key_ip, key_prefix, value_text FROM `+table)
	if err != nil {
		return nil, loadErr(id, err)
	}
	defer rows.Close()

	t := new(bart.Table[string])
	for rows.Next() {
		var b []byte
		var bits int
		var v string
		if err := rows.Scan(&b, &bits, &v); err != nil {
			return nil, loadErr(id, err)
		}
		prefix, err := codec.DecodePrefix(b, bits)
		if err != nil {
			return nil, loadErr(id, err)
		}
		t.Insert(prefix, v)
	}
	if err := rows.Err(); err != nil {
		return nil, loadErr(id, err)
	}
	return dataset.NewIPNetSnapshot(t), nil
}

func (s *SQLiteStore) loadGeoIP(ctx context.Context, id dataset.Identity, table string) (*dataset.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key_ip, key_prefix, country, city, latitude, longitude, isp FROM `+table)
	if err != nil {
		return nil, loadErr(id, err)
	}
	defer rows.Close()

	t := new(bart.Table[dataset.GeoRecord])
	for rows.Next() {
		var b []byte
		var bits int
		var rec dataset.GeoRecord
		if err := rows.Scan(&b, &bits, &rec.Country, &rec.City, &rec.Latitude, &rec.Longitude, &rec.ISP); err != nil {
			return nil, loadErr(id, err)
		}
		prefix, err := codec.DecodePrefix(b, bits)
		if err != nil {
			return nil, loadErr(id, err)
		}
		t.Insert(prefix, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, loadErr(id, err)
	}
	return dataset.NewGeoIPSnapshot(t), nil
}

func loadErr(id dataset.Identity, err error) error {
	return fmt.Errorf("%w: loading %s: %w", dataset.ErrStorageLoadFailed, id, err)
}
