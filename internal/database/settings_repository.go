package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// SettingsRepository handles the key/value settings table. Values are
// stored JSON-encoded and are not covered by the due-date index.
type SettingsRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSettingsRepository creates a new repository instance
func NewSettingsRepository(db *sqlx.DB, logger *slog.Logger) *SettingsRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsRepository{db: db, logger: logger}
}

// GetSetting returns the decoded value stored under key and whether it exists.
// JSON numbers come back as float64.
func (r *SettingsRepository) GetSetting(ctx context.Context, key string) (interface{}, bool, error) {
	var raw string
	err := r.db.GetContext(ctx, &raw, r.db.Rebind(`SELECT setting_value FROM settings WHERE setting_key = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get setting %q: %w", key, err)
	}

	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		r.logger.Warn("corrupt setting", "key", key, "error", err)
		return nil, false, fmt.Errorf("%w: setting %q: %w", ErrStoreCorrupt, key, err)
	}
	return value, true, nil
}

// PutSetting stores value under key, replacing any previous value
func (r *SettingsRepository) PutSetting(ctx context.Context, key string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %q: %w", key, err)
	}

	query := r.db.Rebind(`
		INSERT INTO settings (setting_key, setting_value) VALUES (?, ?)
		ON CONFLICT (setting_key) DO UPDATE SET
			setting_value = excluded.setting_value,
			updated_at = CURRENT_TIMESTAMP
	`)
	if _, err := r.db.ExecContext(ctx, query, key, string(encoded)); err != nil {
		return fmt.Errorf("failed to save setting %q: %w", key, err)
	}
	return nil
}
