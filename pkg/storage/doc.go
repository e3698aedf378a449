/*
Package storage provides the durable, embedded-SQL half of the dataset
manager. It holds one table (two, for list-valued kinds) per registered
dataset identity, written by the manager's update loop (and by Manager.Seed
on the caller's goroutine) and read back in full on every rebuild.

# Architecture

	┌─────────────────────── SQLITE STORAGE ────────────────────────┐
	│                                                                  │
	│  ┌───────────────────────────────────────────────┐            │
	│  │              SQLiteStore                        │            │
	│  │  - File: <dataDir>/datasets.db, or in-memory    │            │
	│  │  - Driver: modernc.org/sqlite (pure Go, no cgo) │            │
	│  │  - Pool: SetMaxOpenConns(1) - single writer      │            │
	│  └──────────────────────┬────────────────────────┘            │
	│                         │                                        │
	│  ┌──────────────────────▼────────────────────────┐            │
	│  │               Table Layout                      │            │
	│  │  dataset_<name>        simple / keyed kinds     │            │
	│  │  dataset_list_<name>   child rows for list kinds │            │
	│  │    (parent_id, ordinal, value)                   │            │
	│  └──────────────────────┬────────────────────────┘            │
	│                         │                                        │
	│  ┌──────────────────────▼────────────────────────┐            │
	│  │            Apply / Load                         │            │
	│  │  Apply: Add/Remove as single statements,        │            │
	│  │         Replace as DELETE+INSERT in one tx      │            │
	│  │  Load:  full table scan -> dataset.Snapshot     │            │
	│  └────────────────────────────────────────────────┘            │
	└──────────────────────────────────────────────────────────────┘

# Table names

Identity.TableName() is validated twice before it ever reaches a query
string: once in dataset.Custom, again here in validatedTableName /
validatedListTableName. Both checks use the same [A-Za-z0-9_]+ pattern;
column values are always bound as query parameters, never interpolated.

# Kind-to-schema mapping

  - TextSet, IPSet: a single UNIQUE key column.
  - TextMap, IPMap: key + value columns, key UNIQUE.
  - TextMapList, IPMapList: parent table (key UNIQUE) plus a child table
    carrying (parent_id, ordinal, value); Add replaces the key's whole
    list rather than appending to it.
  - IPNet, GeoIP: key_ip + key_prefix, UNIQUE together; longest-prefix-match
    lookup is rebuilt into a bart.Table on Load, not performed in SQL.

# See also

  - pkg/dataset for the Identity, Kind, Update and Snapshot types this
    package reads and writes.
  - pkg/codec for the IP <-> BLOB encoding used on key_ip columns.
*/
package storage
