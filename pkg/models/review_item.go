package models

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultEasinessFactor is the easiness factor of a never-reviewed item
	DefaultEasinessFactor = 2.5

	// MinEasinessFactor is the lowest easiness factor an item may have
	MinEasinessFactor = 1.3

	// MaxIntervalDays is the longest interval an item may have, about 1000 years.
	// Due dates computed from it stay far inside int64 milliseconds.
	MaxIntervalDays = 365_000
)

// DayMillis is the length of one interval day in milliseconds
const DayMillis int64 = 86_400_000

// ErrInvalidItem is returned by Validate for items that break the scheduling invariants
var ErrInvalidItem = errors.New("models: invalid review item")

// ReviewItem holds the scheduling state of one vocabulary unit
type ReviewItem struct {
	ID             string  `json:"id" db:"id"`                          // Vocabulary unit key, immutable
	Interval       int     `json:"interval" db:"interval_days"`         // Current interval in days
	Repetition     int     `json:"repetition" db:"repetition"`          // Consecutive successful recalls
	EasinessFactor float64 `json:"easinessFactor" db:"easiness_factor"` // SM-2 EF parameter
	DueDate        int64   `json:"dueDate" db:"due_date"`               // Milliseconds since epoch
}

// NewReviewItem creates the state of an item seen for the first time
func NewReviewItem(id string, now time.Time) ReviewItem {
	return ReviewItem{
		ID:             id,
		Interval:       0,
		Repetition:     0,
		EasinessFactor: DefaultEasinessFactor,
		DueDate:        now.UnixMilli(),
	}
}

// Validate checks the invariants every persisted item must satisfy
func (i ReviewItem) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidItem)
	}
	if i.Interval < 0 {
		return fmt.Errorf("%w: %q has negative interval %d", ErrInvalidItem, i.ID, i.Interval)
	}
	if i.Interval > MaxIntervalDays {
		return fmt.Errorf("%w: %q has interval %d above %d days", ErrInvalidItem, i.ID, i.Interval, MaxIntervalDays)
	}
	if i.Repetition < 0 {
		return fmt.Errorf("%w: %q has negative repetition %d", ErrInvalidItem, i.ID, i.Repetition)
	}
	// NaN fails this comparison as well
	if !(i.EasinessFactor >= MinEasinessFactor) {
		return fmt.Errorf("%w: %q has easiness factor %v below %v", ErrInvalidItem, i.ID, i.EasinessFactor, MinEasinessFactor)
	}
	return nil
}

// DueTime returns the due date as a time.Time
func (i ReviewItem) DueTime() time.Time {
	return time.UnixMilli(i.DueDate)
}

// IsDue reports whether the item is eligible for review at asOf
func (i ReviewItem) IsDue(asOf time.Time) bool {
	return i.DueDate <= asOf.UnixMilli()
}
