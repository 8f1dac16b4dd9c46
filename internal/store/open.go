package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ParseDriver maps a driver name, or one of its aliases, to DriverSQLite or
// DriverPostgres. An empty name selects DriverSQLite.
func ParseDriver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DriverSQLite, "sqlite3":
		return DriverSQLite, nil
	default:
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unknown database driver %q", name)
	}
}

// Options selects and configures a store backend.
type Options struct {
	Driver      string
	DBPath      string
	DatabaseURL string
	Policy      Policy
}

// Open creates the store described by opts. For SQLite the parent directory
// of the database file is created when missing.
func Open(opts Options) (*SQLStore, error) {
	driver, err := ParseDriver(opts.Driver)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverSQLite:
		if opts.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(opts.DBPath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return NewSQLiteStore(opts.DBPath, opts.Policy)
	default:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("database url is required for driver %q", opts.Driver)
		}
		return NewPostgresStore(opts.DatabaseURL, opts.Policy)
	}
}
