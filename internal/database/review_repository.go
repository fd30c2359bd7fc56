package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/vocabdrill/pkg/models"
)

const selectReviews = `SELECT seq, id, interval_days, repetition, easiness_factor, due_date FROM reviews`

// reviewRow is a reviews row with its insertion sequence. seq comes first in
// selectReviews so it is filled in even when a later column fails to scan.
type reviewRow struct {
	Seq int64 `db:"seq"`
	models.ReviewItem
}

// ReviewRepository handles database operations for review items
type ReviewRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewReviewRepository creates a new repository instance
func NewReviewRepository(db *sqlx.DB, logger *slog.Logger) *ReviewRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewRepository{db: db, logger: logger}
}

// Put inserts or replaces the item with the same id. The record and its
// due-date index entry are written by a single statement.
func (r *ReviewRepository) Put(ctx context.Context, item models.ReviewItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	query := r.db.Rebind(`
		INSERT INTO reviews (id, interval_days, repetition, easiness_factor, due_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			interval_days = excluded.interval_days,
			repetition = excluded.repetition,
			easiness_factor = excluded.easiness_factor,
			due_date = excluded.due_date,
			updated_at = CURRENT_TIMESTAMP
	`)
	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.Interval,
		item.Repetition,
		item.EasinessFactor,
		item.DueDate,
	)
	if err != nil {
		return fmt.Errorf("failed to save review %q: %w", item.ID, err)
	}
	return nil
}

// Get returns the item with the given id, or nil if it was never stored.
// A record that cannot be decoded yields ErrStoreCorrupt.
func (r *ReviewRepository) Get(ctx context.Context, id string) (*models.ReviewItem, error) {
	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(selectReviews+` WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review %q: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get review %q: %w", id, err)
		}
		return nil, nil
	}

	row, err := scanItem(rows)
	if err != nil {
		r.logger.Warn("corrupt review record", "seq", row.Seq, "id", id, "error", err)
		return nil, err
	}
	return &row.ReviewItem, nil
}

// GetAllDue returns every item due at or before asOf, earliest first.
// Ties keep insertion order. The scan runs on idx_reviews_due_date.
func (r *ReviewRepository) GetAllDue(ctx context.Context, asOf time.Time) ([]models.ReviewItem, error) {
	query := r.db.Rebind(selectReviews + ` WHERE due_date <= ? ORDER BY due_date ASC, seq ASC`)
	items, err := r.selectItems(ctx, query, asOf.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to get due reviews: %w", err)
	}
	return items, nil
}

// GetAll returns every stored item
func (r *ReviewRepository) GetAll(ctx context.Context) ([]models.ReviewItem, error) {
	items, err := r.selectItems(ctx, selectReviews+` ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	return items, nil
}

// Count returns the number of stored records
func (r *ReviewRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reviews`); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

// CountDue returns the number of records due at or before asOf
func (r *ReviewRepository) CountDue(ctx context.Context, asOf time.Time) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM reviews WHERE due_date <= ?`)
	if err := r.db.GetContext(ctx, &count, query, asOf.UnixMilli()); err != nil {
		return 0, fmt.Errorf("failed to count due reviews: %w", err)
	}
	return count, nil
}

// selectItems runs query and collects the decoded rows. Corrupt rows are
// logged and left out of the result.
func (r *ReviewRepository) selectItems(ctx context.Context, query string, args ...interface{}) ([]models.ReviewItem, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.ReviewItem, 0)
	for rows.Next() {
		row, err := scanItem(rows)
		if err != nil {
			r.logger.Warn("skipping corrupt review record", "seq", row.Seq, "id", row.ID, "error", err)
			continue
		}
		items = append(items, row.ReviewItem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanItem(rows *sqlx.Rows) (reviewRow, error) {
	var row reviewRow
	if err := rows.StructScan(&row); err != nil {
		return row, fmt.Errorf("%w: %w", ErrStoreCorrupt, err)
	}
	if err := row.Validate(); err != nil {
		return row, fmt.Errorf("%w: %w", ErrStoreCorrupt, err)
	}
	return row, nil
}
