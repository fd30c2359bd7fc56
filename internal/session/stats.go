package session

import (
	"context"
	"time"

	"github.com/example/vocabdrill/pkg/models"
)

// Stats summarises the learner's progress
type Stats struct {
	Total           int        `json:"total_words"`
	Due             int        `json:"due"`
	Mastered        int        `json:"mastered"`
	AverageEasiness float64    `json:"avg_easiness_factor"`
	NextDue         *time.Time `json:"next_due,omitempty"` // Earliest item not yet due
}

// Stats returns statistics about the stored items at asOf
func (s *Service) Stats(ctx context.Context, asOf time.Time) Stats {
	items := s.AllItems(ctx)

	stats := Stats{
		Total:           len(items),
		AverageEasiness: models.DefaultEasinessFactor,
	}
	if len(items) == 0 {
		return stats
	}

	var sumEF float64
	var upcoming *models.ReviewItem
	for i := range items {
		item := items[i]
		sumEF += item.EasinessFactor
		if s.algo.IsMastered(item) {
			stats.Mastered++
		}
		if item.IsDue(asOf) {
			stats.Due++
			continue
		}
		if upcoming == nil || item.DueDate < upcoming.DueDate {
			upcoming = &items[i]
		}
	}

	stats.AverageEasiness = sumEF / float64(len(items))
	if upcoming != nil {
		next := upcoming.DueTime()
		stats.NextDue = &next
	}
	return stats
}
