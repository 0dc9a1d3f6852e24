// Package pagestore provides the SQLite-backed store of ordered document
// pages, each with a scanned JPEG and its annotations.
package pagestore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	image_path   TEXT NOT NULL UNIQUE,
	checksum     TEXT NOT NULL DEFAULT '',
	bit_depth    INTEGER NOT NULL,
	width        INTEGER NOT NULL,
	height       INTEGER NOT NULL,
	color_space  TEXT NOT NULL,
	density_unit TEXT NOT NULL,
	density_x    INTEGER NOT NULL,
	density_y    INTEGER NOT NULL,
	annotations  TEXT NOT NULL DEFAULT '{"annotations":[],"artifacts":[]}',
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_pages_checksum ON pages(checksum);
`

// DB wraps a sql.DB with page-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("pagestore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pagestore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pagestore: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
