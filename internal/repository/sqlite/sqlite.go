// Package sqlite implements the repository interfaces on SQLite.
//
// The default backend is in-memory (repository/memory). This package is the
// opt-in persistent alternative, selected by setting DB_PATH. Both backends
// sit behind the same interfaces, so nothing above the repository layer
// knows which one is running.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import: the driver registers itself with database/sql under the
	// name "sqlite" in its init().
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/forge.db" → file-based database (persistent)
//   - ":memory:"      → in-memory database (used by the tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open only creates the pool manager; Ping forces a real connection
	// so a bad path or permissions problem surfaces here, not on the first
	// query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// SQLite allows one writer at a time. A single connection sidesteps
	// SQLITE_BUSY under concurrent writes and gives every store the same
	// arrival-order total ordering the memory backend has.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: migrating schema: %w", err)
	}

	return db, nil
}

// migrate creates the schema if it doesn't exist.
//
// Uniqueness invariants live in the schema, mirroring the memory backend's
// in-lock checks: email is UNIQUE with COLLATE NOCASE (case-insensitive),
// provider_id is UNIQUE (NULLs, i.e. demo accounts, don't collide).
// AUTOINCREMENT gives the sequential user ids starting at 1.
func (db *DB) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		email       TEXT NOT NULL UNIQUE COLLATE NOCASE,
		username    TEXT NOT NULL,
		provider_id TEXT UNIQUE,
		created_at  TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS creatures (
		id         TEXT PRIMARY KEY,
		owner_id   INTEGER NOT NULL REFERENCES users(id),
		prompt     TEXT NOT NULL,
		image_url  TEXT NOT NULL,
		animals    TEXT NOT NULL DEFAULT '[]',
		abilities  TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_creatures_owner ON creatures(owner_id);

	CREATE TABLE IF NOT EXISTS shares (
		share_id   TEXT PRIMARY KEY,
		source_id  TEXT NOT NULL,
		owner_id   INTEGER NOT NULL,
		prompt     TEXT NOT NULL,
		image_url  TEXT NOT NULL,
		animals    TEXT NOT NULL DEFAULT '[]',
		abilities  TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		shared_at  TIMESTAMP NOT NULL
	);`

	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool. Called during graceful
// shutdown to flush pending writes and release the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}
