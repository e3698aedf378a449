package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/netip"

	"github.com/sentineldb/datasetmgr/pkg/codec"
	"github.com/sentineldb/datasetmgr/pkg/dataset"
)

// Apply dispatches a single mutation to identity's table(s). Replace always
// runs as DELETE-then-bulk-INSERT inside one transaction, so a concurrent
// Load (there never is one, but the invariant holds regardless) can never
// observe a partially replaced table.
func (s *SQLiteStore) Apply(ctx context.Context, id dataset.Identity, update dataset.Update) error {
	if dataset.KindOf(update) != id.Kind() {
		return fmt.Errorf("%w: update for kind %s applied to identity %s", dataset.ErrUnknownKind, dataset.KindOf(update), id)
	}

	table, err := validatedTableName(id)
	if err != nil {
		return err
	}

	switch u := update.(type) {
	case dataset.AddText:
		return s.exec(ctx, id, `INSERT INTO `+table+` (key_text) VALUES (?) ON CONFLICT(key_text) DO NOTHING`, u.Key)
	case dataset.RemoveText:
		return s.exec(ctx, id, `DELETE FROM `+table+` WHERE key_text = ?`, u.Key)
	case dataset.ReplaceTextSet:
		return s.replaceSimple(ctx, id, table, "key_text", stringsToAny(u.Keys))

	case dataset.AddTextMap:
		return s.exec(ctx, id, `INSERT INTO `+table+` (key_text, value_text) VALUES (?, ?)
			ON CONFLICT(key_text) DO UPDATE SET value_text = excluded.value_text`, u.Key, u.Value)
	case dataset.RemoveTextMap:
		return s.exec(ctx, id, `DELETE FROM `+table+` WHERE key_text = ?`, u.Key)
	case dataset.ReplaceTextMap:
		return s.replaceMap(ctx, id, table, "key_text", "value_text", stringMapToPairs(u.Entries))

	case dataset.AddTextMapList:
		return s.replaceList(ctx, id, table, "key_text", u.Key, u.Values)
	case dataset.RemoveTextMapList:
		return s.exec(ctx, id, `DELETE FROM `+table+` WHERE key_text = ?`, u.Key)
	case dataset.ReplaceTextMapList:
		return s.replaceMapList(ctx, id, table, "key_text", stringListMapToPairs(u.Entries))

	case dataset.AddIP:
		return s.exec(ctx, id, `INSERT INTO `+table+` (key_ip) VALUES (?) ON CONFLICT(key_ip) DO NOTHING`, codec.EncodeIP(u.IP))
	case dataset.RemoveIP:
		return s.exec(ctx, id, `DELETE FROM `+table+` WHERE key_ip = ?`, codec.EncodeIP(u.IP))
	case dataset.ReplaceIPSet:
		return s.replaceSimple(ctx, id, table, "key_ip", ipsToAny(u.IPs))

	case dataset.AddIPMap:
		return s.exec(ctx, id, `INSERT INTO `+table+` (key_ip, value_text) VALUES (?, ?)
			ON CONFLICT(key_ip) DO UPDATE SET value_text = excluded.value_text`, codec.EncodeIP(u.IP), u.Value)
	case dataset.RemoveIPMap:
		return s.exec(ctx, id, `DELETE FROM `+table+` WHERE key_ip = ?`, codec.EncodeIP(u.IP))
	case dataset.ReplaceIPMap:
		return s.replaceMap(ctx, id, table, "key_ip", "value_text", ipMapToPairs(u.Entries))

	case dataset.AddIPMapList:
		return s.replaceList(ctx, id, table, "key_ip", codec.EncodeIP(u.IP), u.Values)
	case dataset.RemoveIPMapList:
		return s.exec(ctx, id, `DELETE FROM `+table+` WHERE key_ip = ?`, codec.EncodeIP(u.IP))
	case dataset.ReplaceIPMapList:
		return s.replaceMapList(ctx, id, table, "key_ip", ipListMapToPairs(u.Entries))

	case dataset.AddIPNet:
		addr, bits := codec.EncodePrefix(u.Prefix), u.Prefix.Bits()
		return s.exec(ctx, id, `INSERT INTO `+table+` (key_ip, key_prefix, value_text) VALUES (?, ?, ?)
			ON CONFLICT(key_ip, key_prefix) DO UPDATE SET value_text = excluded.value_text`, addr, bits, u.Value)
	case dataset.RemoveIPNet:
		return s.exec(ctx, id, `DELETE FROM `+table+` WHERE key_ip = ? AND key_prefix = ?`, codec.EncodePrefix(u.Prefix), u.Prefix.Bits())
	case dataset.ReplaceIPNet:
		return s.replaceNet(ctx, id, table, u.Entries)

	case dataset.AddGeoIP:
		addr, bits := codec.EncodePrefix(u.Prefix), u.Prefix.Bits()
		r := u.Record
		return s.exec(ctx, id, `INSERT INTO `+table+` (key_ip, key_prefix, country, city, latitude, longitude, isp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key_ip, key_prefix) DO UPDATE SET
				country = excluded.country, city = excluded.city,
				latitude = excluded.latitude, longitude = excluded.longitude, isp = excluded.isp`,
			addr, bits, r.Country, r.City, r.Latitude, r.Longitude, r.ISP)
	case dataset.RemoveGeoIP:
		return s.exec(ctx, id, `DELETE FROM `+table+` WHERE key_ip = ? AND key_prefix = ?`, codec.EncodePrefix(u.Prefix), u.Prefix.Bits())
	case dataset.ReplaceGeoIP:
		return s.replaceGeo(ctx, id, table, u.Entries)

	default:
		return fmt.Errorf("%w: unrecognized update type for %s", dataset.ErrUnknownKind, id)
	}
}

func (s *SQLiteStore) exec(ctx context.Context, id dataset.Identity, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: applying update to %s: %w", dataset.ErrStorageApplyFailed, id, err)
	}
	return nil
}

// replaceSimple replaces the full contents of a single-column table (TextSet,
// IPSet) inside one transaction.
func (s *SQLiteStore) replaceSimple(ctx context.Context, id dataset.Identity, table, column string, keys []any) error {
	return s.withTx(ctx, id, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (`+column+`) VALUES (?)`, k); err != nil {
				return err
			}
		}
		return nil
	})
}

// replaceMap replaces the full contents of a two-column key/value table
// (TextMap, IPMap) inside one transaction.
func (s *SQLiteStore) replaceMap(ctx context.Context, id dataset.Identity, table, keyCol, valCol string, entries []kvPair) error {
	return s.withTx(ctx, id, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (`+keyCol+`, `+valCol+`) VALUES (?, ?)`, e.key, e.value); err != nil {
				return err
			}
		}
		return nil
	})
}

// replaceList upserts a single key's list value: delete its child rows,
// insert the parent row if missing, then insert the new ordered children.
// Add on a list-valued kind replaces that key's whole list, it never
// appends.
func (s *SQLiteStore) replaceList(ctx context.Context, id dataset.Identity, table, keyCol string, key any, values []string) error {
	listTable, err := validatedListTableName(id)
	if err != nil {
		return err
	}
	return s.withTx(ctx, id, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (`+keyCol+`) VALUES (?) ON CONFLICT(`+keyCol+`) DO NOTHING`, key); err != nil {
			return err
		}
		var parentID int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE `+keyCol+` = ?`, key).Scan(&parentID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+listTable+` WHERE parent_id = ?`, parentID); err != nil {
			return err
		}
		for i, v := range values {
			if _, err := tx.ExecContext(ctx, `INSERT INTO `+listTable+` (parent_id, ordinal, value) VALUES (?, ?, ?)`, parentID, i, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// replaceMapList replaces the entire table (both parent and child rows) for a
// list-valued kind.
func (s *SQLiteStore) replaceMapList(ctx context.Context, id dataset.Identity, table, keyCol string, entries []kvListPair) error {
	listTable, err := validatedListTableName(id)
	if err != nil {
		return err
	}
	return s.withTx(ctx, id, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+listTable); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
		for _, e := range entries {
			res, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (`+keyCol+`) VALUES (?)`, e.key)
			if err != nil {
				return err
			}
			parentID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			for i, v := range e.values {
				if _, err := tx.ExecContext(ctx, `INSERT INTO `+listTable+` (parent_id, ordinal, value) VALUES (?, ?, ?)`, parentID, i, v); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *SQLiteStore) replaceNet(ctx context.Context, id dataset.Identity, table string, entries map[netip.Prefix]string) error {
	return s.withTx(ctx, id, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
		for p, v := range entries {
			if _, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (key_ip, key_prefix, value_text) VALUES (?, ?, ?)`,
				codec.EncodePrefix(p), p.Bits(), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) replaceGeo(ctx context.Context, id dataset.Identity, table string, entries map[netip.Prefix]dataset.GeoRecord) error {
	return s.withTx(ctx, id, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
		for p, r := range entries {
			if _, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (key_ip, key_prefix, country, city, latitude, longitude, isp)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				codec.EncodePrefix(p), p.Bits(), r.Country, r.City, r.Latitude, r.Longitude, r.ISP); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) withTx(ctx context.Context, id dataset.Identity, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: applying update to %s: %w", dataset.ErrStorageApplyFailed, id, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: applying update to %s: %w", dataset.ErrStorageApplyFailed, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: applying update to %s: %w", dataset.ErrStorageApplyFailed, id, err)
	}
	return nil
}

type kvPair struct {
	key   any
	value string
}

type kvListPair struct {
	key    any
	values []string
}

func stringsToAny(keys []string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

func ipsToAny(ips []netip.Addr) []any {
	out := make([]any, len(ips))
	for i, ip := range ips {
		out[i] = codec.EncodeIP(ip)
	}
	return out
}

func stringMapToPairs(m map[string]string) []kvPair {
	out := make([]kvPair, 0, len(m))
	for k, v := range m {
		out = append(out, kvPair{key: k, value: v})
	}
	return out
}

func ipMapToPairs(m map[netip.Addr]string) []kvPair {
	out := make([]kvPair, 0, len(m))
	for k, v := range m {
		out = append(out, kvPair{key: codec.EncodeIP(k), value: v})
	}
	return out
}

func stringListMapToPairs(m map[string][]string) []kvListPair {
	out := make([]kvListPair, 0, len(m))
	for k, v := range m {
		out = append(out, kvListPair{key: k, values: v})
	}
	return out
}

func ipListMapToPairs(m map[netip.Addr][]string) []kvListPair {
	out := make([]kvListPair, 0, len(m))
	for k, v := range m {
		out = append(out, kvListPair{key: codec.EncodeIP(k), values: v})
	}
	return out
}
