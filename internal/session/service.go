// Package session wires the SM-2 scheduler to the review store. It is the
// surface used by front ends: fetch or create items, submit grades, list
// due items and pass settings through.
//
// Storage problems never reach the caller. Without a store every read is
// empty and every write is dropped, and store errors are logged and
// treated the same way. The only error returned is
// spaced_repetition.ErrInvalidGrade.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/vocabdrill/internal/spaced_repetition"
	"github.com/example/vocabdrill/pkg/models"
)

// Store is the persistence capability the service needs.
// *database.Store implements it.
type Store interface {
	Put(ctx context.Context, item models.ReviewItem) error
	Get(ctx context.Context, id string) (*models.ReviewItem, error)
	GetAllDue(ctx context.Context, asOf time.Time) ([]models.ReviewItem, error)
	GetAll(ctx context.Context) ([]models.ReviewItem, error)
	GetSetting(ctx context.Context, key string) (interface{}, bool, error)
	PutSetting(ctx context.Context, key string, value interface{}) error
}

// Service runs reviews against an optional store
type Service struct {
	store  Store
	algo   *spaced_repetition.SM2
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithAlgorithm replaces the default SM-2 settings
func WithAlgorithm(algo *spaced_repetition.SM2) Option {
	return func(s *Service) { s.algo = algo }
}

// WithClock sets the source of the review instant
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for degraded storage operations
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a service. A nil store runs it without persistence;
// it must be an untyped nil, not a nil *database.Store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		algo:   spaced_repetition.NewSM2(),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Persistent reports whether results are written to a durable store
func (s *Service) Persistent() bool {
	return s.store != nil
}

// Algorithm returns the scheduler in use
func (s *Service) Algorithm() *spaced_repetition.SM2 {
	return s.algo
}

// ItemState tells what EnsureItem did with an item
type ItemState int

const (
	// ItemExisting means the item was already stored
	ItemExisting ItemState = iota
	// ItemCreated means a fresh item was built and saved
	ItemCreated
	// ItemUnsaved means a fresh item was built but could not be saved,
	// either because there is no store or because the store failed
	ItemUnsaved
)

func (st ItemState) String() string {
	switch st {
	case ItemExisting:
		return "exists"
	case ItemCreated:
		return "created"
	case ItemUnsaved:
		return "not saved"
	}
	return fmt.Sprintf("ItemState(%d)", int(st))
}

// InitOrFetchItem returns the stored item, creating and saving a fresh one
// on first encounter
func (s *Service) InitOrFetchItem(ctx context.Context, id string) models.ReviewItem {
	item, _ := s.EnsureItem(ctx, id)
	return item
}

// EnsureItem is InitOrFetchItem that also reports whether the item was
// found, created or left unsaved
func (s *Service) EnsureItem(ctx context.Context, id string) (models.ReviewItem, ItemState) {
	item, found, ok := s.fetch(ctx, id)
	if found {
		return item, ItemExisting
	}
	if ok && s.put(ctx, item) {
		return item, ItemCreated
	}
	return item, ItemUnsaved
}

// SubmitGrade applies a review graded with quality to the item and saves
// the result. Invalid grades are rejected before anything is read or written.
func (s *Service) SubmitGrade(ctx context.Context, id string, quality int) (models.ReviewItem, error) {
	if !spaced_repetition.QualityResponse(quality).IsValid() {
		return models.ReviewItem{}, fmt.Errorf("%w: %d", spaced_repetition.ErrInvalidGrade, quality)
	}
	item, _, _ := s.fetch(ctx, id)
	return s.grade(ctx, item, quality)
}

// QueryDueItems returns the items due at or before asOf, earliest first
func (s *Service) QueryDueItems(ctx context.Context, asOf time.Time) []models.ReviewItem {
	if s.store == nil {
		return []models.ReviewItem{}
	}
	items, err := s.store.GetAllDue(ctx, asOf)
	if err != nil {
		s.logger.Error("failed to query due items", "as_of", asOf, "error", err)
		return []models.ReviewItem{}
	}
	return items
}

// AllItems returns every stored item
func (s *Service) AllItems(ctx context.Context) []models.ReviewItem {
	if s.store == nil {
		return []models.ReviewItem{}
	}
	items, err := s.store.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list items", "error", err)
		return []models.ReviewItem{}
	}
	return items
}

// GetSetting returns a preference value and whether it is set
func (s *Service) GetSetting(ctx context.Context, key string) (interface{}, bool) {
	if s.store == nil {
		return nil, false
	}
	value, ok, err := s.store.GetSetting(ctx, key)
	if err != nil {
		s.logger.Error("failed to read setting", "key", key, "error", err)
		return nil, false
	}
	return value, ok
}

// PutSetting stores a preference value
func (s *Service) PutSetting(ctx context.Context, key string, value interface{}) {
	if s.store == nil {
		return
	}
	if err := s.store.PutSetting(ctx, key, value); err != nil {
		s.logger.Error("failed to save setting", "key", key, "error", err)
	}
}

// fetch loads an item. found is false when a fresh item was built instead;
// ok is false when the store could not answer and nothing should be written
// on the item's behalf.
func (s *Service) fetch(ctx context.Context, id string) (item models.ReviewItem, found, ok bool) {
	if s.store == nil {
		return models.NewReviewItem(id, s.now()), false, false
	}
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.Warn("failed to load item, starting fresh", "id", id, "error", err)
		return models.NewReviewItem(id, s.now()), false, false
	}
	if stored == nil {
		return models.NewReviewItem(id, s.now()), false, true
	}
	return *stored, true, true
}

// grade runs the algorithm at the current instant and persists the result
func (s *Service) grade(ctx context.Context, item models.ReviewItem, quality int) (models.ReviewItem, error) {
	next, err := s.algo.ComputeNextReview(item, quality, s.now())
	if err != nil {
		return models.ReviewItem{}, err
	}
	s.put(ctx, next)
	s.logger.Debug("review graded",
		"id", next.ID,
		"quality", quality,
		"interval", next.Interval,
		"repetition", next.Repetition,
		"easiness_factor", next.EasinessFactor,
	)
	return next, nil
}

// put saves item and reports whether it reached the store
func (s *Service) put(ctx context.Context, item models.ReviewItem) bool {
	if s.store == nil {
		return false
	}
	if err := s.store.Put(ctx, item); err != nil {
		s.logger.Error("failed to save item", "id", item.ID, "error", err)
		return false
	}
	return true
}
