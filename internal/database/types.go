package database

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Sentinel errors for the database package.
var (
	// ErrStoreUnavailable means no durable backend could be opened
	ErrStoreUnavailable = errors.New("database: store unavailable")
	// ErrStoreCorrupt means a persisted record could not be decoded
	ErrStoreCorrupt = errors.New("database: corrupt record")
)

// Config describes which backend to open
type Config struct {
	Driver string // "sqlite3" (default) or "postgres"
	Path   string // SQLite database file
	DSN    string // PostgreSQL connection string
	Logger *slog.Logger
}

func (c Config) path() string {
	if c.Path == "" {
		return DefaultPath
	}
	return c.Path
}

// source resolves the driver name and data source name
func (c Config) source() (string, string, error) {
	switch strings.ToLower(c.Driver) {
	case "", "sqlite", DriverSQLite:
		return DriverSQLite, fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", c.path()), nil
	case DriverPostgres, "postgresql":
		if c.DSN == "" {
			return "", "", errors.New("postgres backend requires a connection string")
		}
		return DriverPostgres, c.DSN, nil
	}
	return "", "", fmt.Errorf("unsupported database driver %q", c.Driver)
}
