package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	// DefaultPath is used when no sqlite path is configured
	DefaultPath = "data/vocabdrill.db"
)

// Store is the durable review store: review items with a due-date index plus
// the settings table. It is safe for concurrent use.
type Store struct {
	*ReviewRepository
	*SettingsRepository

	db     *sqlx.DB
	logger *slog.Logger
}

// Open establishes a connection to the database and creates the schema if it
// is missing. Backend failures are reported as ErrStoreUnavailable.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	driver, dsn, err := cfg.source()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if driver == DriverSQLite {
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(cfg.path()); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("%w: failed to create data directory: %w", ErrStoreUnavailable, err)
			}
		}
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %w", ErrStoreUnavailable, err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	logger.Debug("review store opened", "driver", driver)

	return &Store{
		ReviewRepository:   NewReviewRepository(db, logger),
		SettingsRepository: NewSettingsRepository(db, logger),
		db:                 db,
		logger:             logger,
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DriverName returns the name of the backend driver in use
func (s *Store) DriverName() string {
	return s.db.DriverName()
}

// initializeSchema creates necessary tables and indexes if they don't exist
func initializeSchema(ctx context.Context, db *sqlx.DB) error {
	statements := sqliteSchema
	if db.DriverName() == DriverPostgres {
		statements = postgresSchema
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt.query); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}

type schemaStatement struct {
	name  string
	query string
}

// Rows keep their insertion sequence in seq, the upsert never rewrites it.
var sqliteSchema = []schemaStatement{
	{"reviews table", `
		CREATE TABLE IF NOT EXISTS reviews (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			interval_days INTEGER NOT NULL DEFAULT 0,
			repetition INTEGER NOT NULL DEFAULT 0,
			easiness_factor REAL NOT NULL DEFAULT 2.5,
			due_date INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`},
	{"due date index", `CREATE INDEX IF NOT EXISTS idx_reviews_due_date ON reviews (due_date, seq)`},
	{"settings table", `
		CREATE TABLE IF NOT EXISTS settings (
			setting_key TEXT PRIMARY KEY,
			setting_value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`},
}

var postgresSchema = []schemaStatement{
	{"reviews table", `
		CREATE TABLE IF NOT EXISTS reviews (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			interval_days INTEGER NOT NULL DEFAULT 0,
			repetition INTEGER NOT NULL DEFAULT 0,
			easiness_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
			due_date BIGINT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`},
	{"due date index", `CREATE INDEX IF NOT EXISTS idx_reviews_due_date ON reviews (due_date, seq)`},
	{"settings table", `
		CREATE TABLE IF NOT EXISTS settings (
			setting_key TEXT PRIMARY KEY,
			setting_value TEXT NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`},
}
