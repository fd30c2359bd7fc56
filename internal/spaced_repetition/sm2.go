package spaced_repetition

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/example/vocabdrill/pkg/models"
)

// ErrInvalidGrade is returned for quality grades outside [0, 5]
var ErrInvalidGrade = errors.New("spaced_repetition: invalid grade")

// EFUpdateRule selects when the easiness factor is recalculated.
//
// Two variants of the algorithm are in use: one updates the factor after
// every review, the other only after a passed review.
type EFUpdateRule int

const (
	// EFUpdateAlways recalculates the factor after every grade, failed ones included
	EFUpdateAlways EFUpdateRule = iota
	// EFUpdateOnPass recalculates the factor only when quality >= PassThreshold
	EFUpdateOnPass
)

// String returns the config name of the rule
func (r EFUpdateRule) String() string {
	switch r {
	case EFUpdateAlways:
		return "always"
	case EFUpdateOnPass:
		return "on_pass"
	}
	return fmt.Sprintf("EFUpdateRule(%d)", int(r))
}

// ParseEFUpdateRule converts a config value into a rule. Empty means the default.
func ParseEFUpdateRule(s string) (EFUpdateRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always":
		return EFUpdateAlways, nil
	case "on_pass", "onpass", "pass":
		return EFUpdateOnPass, nil
	}
	return 0, fmt.Errorf("unknown easiness factor update rule %q", s)
}

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Пороговое значение "хорошего ответа"
	PassThreshold int
	// Максимальный интервал повторения в днях, 0 означает models.MaxIntervalDays
	MaxInterval int
	// When the easiness factor is updated
	EFUpdate EFUpdateRule
}

// NewSM2 создает новый экземпляр SM2 с настройками по умолчанию
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold: int(QualityCorrectDifficult), // Ответы 3 и выше считаются успешными
		EFUpdate:      EFUpdateAlways,
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// IsValid reports whether q is a grade between QualityBlackout and QualityPerfect
func (q QualityResponse) IsValid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// ComputeNextReview returns the state of item after a review graded with quality at now.
// The input item is not modified. On error the zero item is returned.
func (sm *SM2) ComputeNextReview(item models.ReviewItem, quality int, now time.Time) (models.ReviewItem, error) {
	if !QualityResponse(quality).IsValid() {
		return models.ReviewItem{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidGrade, quality, QualityBlackout, QualityPerfect)
	}

	next := item
	passed := quality >= sm.PassThreshold

	if passed {
		switch next.Repetition {
		case 0:
			next.Interval = 1
		case 1:
			next.Interval = 6
		default:
			// Uses the factor from before this review
			next.Interval = sm.capInterval(math.Round(float64(item.Interval) * item.EasinessFactor))
		}
		if next.Interval > sm.maxInterval() {
			next.Interval = sm.maxInterval()
		}
		next.Repetition++
	} else {
		// Incorrect response - reset interval and repetition counter
		next.Repetition = 0
		next.Interval = 1
	}

	if passed || sm.EFUpdate == EFUpdateAlways {
		next.EasinessFactor = nextEasinessFactor(item.EasinessFactor, quality)
	}

	next.DueDate = now.UnixMilli() + int64(next.Interval)*models.DayMillis
	return next, nil
}

func (sm *SM2) maxInterval() int {
	if sm.MaxInterval <= 0 || sm.MaxInterval > models.MaxIntervalDays {
		return models.MaxIntervalDays
	}
	return sm.MaxInterval
}

// capInterval converts a computed interval to days, saturating at maxInterval
// before the float can overflow an int
func (sm *SM2) capInterval(days float64) int {
	limit := sm.maxInterval()
	if days >= float64(limit) {
		return limit
	}
	return int(days)
}

// nextEasinessFactor applies the SM-2 factor formula with the 1.3 floor
func nextEasinessFactor(ef float64, quality int) float64 {
	d := float64(5 - quality)
	newEF := ef + (0.1 - d*(0.08+d*0.02))
	if newEF < models.MinEasinessFactor {
		newEF = models.MinEasinessFactor // Не опускаем ниже 1.3
	}
	return newEF
}

// IsMastered determines if a word is considered "mastered"
func (sm *SM2) IsMastered(item models.ReviewItem) bool {
	// A word is considered mastered if:
	// 1. It has been recalled at least 5 times in a row
	// 2. The interval is at least 30 days
	return item.Repetition >= 5 && item.Interval >= 30
}
