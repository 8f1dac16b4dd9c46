package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var sqliteDialect = dialect{
	name:             "sqlite",
	driver:           "sqlite3",
	migrationsDir:    "migrations/sqlite",
	tableExistsQuery: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
}

// NewSQLiteStore creates a new SQLite store with the given database path.
func NewSQLiteStore(dbPath string, policy Policy) (*SQLStore, error) {
	db, err := sql.Open(sqliteDialect.driver, dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer, and every connection to ":memory:" gets its
	// own database, so keep exactly one.
	db.SetMaxOpenConns(1)

	return newSQLStore(db, sqliteDialect, policy)
}
