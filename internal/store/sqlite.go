// Package store provides SQLite-backed persistence for items and their
// structure index.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL,
	kind        TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	parent_id   TEXT,
	content     TEXT,
	attachments TEXT NOT NULL DEFAULT '[]',
	tags        TEXT NOT NULL DEFAULT '[]',
	version     INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_owner  ON items(owner_id);
CREATE INDEX IF NOT EXISTS idx_items_parent ON items(owner_id, parent_id);

CREATE TABLE IF NOT EXISTS index_nodes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id    TEXT NOT NULL,
	item_id     TEXT NOT NULL,
	kind        TEXT NOT NULL,
	level       INTEGER NOT NULL,
	text        TEXT NOT NULL DEFAULT '',
	path        TEXT NOT NULL DEFAULT '',
	parent_path TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL,
	indexed_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_nodes_item  ON index_nodes(item_id);
CREATE INDEX IF NOT EXISTS idx_nodes_owner ON index_nodes(owner_id);
`

// DB wraps a sql.DB with store-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
