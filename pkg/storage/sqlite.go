package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
	_ "modernc.org/sqlite" // pure-Go SQLite driver, registered as "sqlite"
)

// SQLiteStore is the Storage implementation backing the dataset manager:
// a single SQLite database file (or an in-memory one for tests). The
// manager's update loop calls it, and so do Manager.Register and
// Manager.Seed on their callers' goroutines; the single pooled connection
// serializes those calls.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite-backed store at path. WAL mode is enabled
// so the store's single connection never blocks concurrent readers that
// might inspect the file directly (operational tooling, backups).
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dataset.ErrStorageOpenFailed, err)
	}
	return newStore(db)
}

// OpenInMemory creates an ephemeral store, for tests and for embedders that
// don't need the tables to survive a restart. Each call gets its own
// uniquely named shared-cache database, so two independently-opened
// in-memory stores in the same process never see each other's tables.
func OpenInMemory() (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:datasetmgr_%s?mode=memory&cache=shared&_pragma=foreign_keys(ON)", uuid.NewString())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dataset.ErrStorageOpenFailed, err)
	}
	return newStore(db)
}

func newStore(db *sql.DB) (*SQLiteStore, error) {
	// Storage methods are called from the update loop and from
	// Manager.Register/Seed on other goroutines; pinning the pool to one
	// connection serializes them at the driver level and avoids SQLITE_BUSY
	// from overlapping writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", dataset.ErrStorageOpenFailed, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EnsureSchema idempotently creates the table(s) backing id.
func (s *SQLiteStore) EnsureSchema(ctx context.Context, id dataset.Identity) error {
	table, err := validatedTableName(id)
	if err != nil {
		return err
	}

	var ddl []string
	switch id.Kind() {
	case dataset.TextSet:
		ddl = []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key_text TEXT NOT NULL UNIQUE
		)`, table)}

	case dataset.TextMap:
		ddl = []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key_text TEXT NOT NULL UNIQUE,
			value_text TEXT NOT NULL
		)`, table)}

	case dataset.TextMapList:
		listTable, lerr := validatedListTableName(id)
		if lerr != nil {
			return lerr
		}
		ddl = []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				key_text TEXT NOT NULL UNIQUE
			)`, table),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				parent_id INTEGER NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				ordinal INTEGER NOT NULL,
				value TEXT NOT NULL
			)`, listTable, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_parent_idx ON %s(parent_id)`, listTable, listTable),
		}

	case dataset.IPSet:
		ddl = []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key_ip BLOB NOT NULL UNIQUE
		)`, table)}

	case dataset.IPMap:
		ddl = []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key_ip BLOB NOT NULL UNIQUE,
			value_text TEXT NOT NULL
		)`, table)}

	case dataset.IPMapList:
		listTable, lerr := validatedListTableName(id)
		if lerr != nil {
			return lerr
		}
		ddl = []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				key_ip BLOB NOT NULL UNIQUE
			)`, table),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				parent_id INTEGER NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				ordinal INTEGER NOT NULL,
				value TEXT NOT NULL
			)`, listTable, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_parent_idx ON %s(parent_id)`, listTable, listTable),
		}

	case dataset.IPNet:
		ddl = []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key_ip BLOB NOT NULL,
			key_prefix INTEGER NOT NULL,
			value_text TEXT NOT NULL,
			UNIQUE(key_ip, key_prefix)
		)`, table)}

	case dataset.GeoIP:
		ddl = []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key_ip BLOB NOT NULL,
			key_prefix INTEGER NOT NULL,
			country TEXT NOT NULL,
			city TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			isp TEXT NOT NULL,
			UNIQUE(key_ip, key_prefix)
		)`, table)}

	default:
		return fmt.Errorf("%w: kind %s", dataset.ErrUnknownKind, id.Kind())
	}

	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: creating schema for %s: %w", dataset.ErrStorageOpenFailed, id, err)
		}
	}
	return nil
}
