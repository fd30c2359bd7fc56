package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/vocabdrill/pkg/models"
)

// ErrSessionFinished is returned by Answer when every item has been answered
var ErrSessionFinished = errors.New("session: no items left")

// Session is one review round over the items that were due when it started.
// The due list is read once; each answer is saved before the next item is served.
type Session struct {
	mu       sync.Mutex
	svc      *Service
	asOf     time.Time
	queue    []models.ReviewItem
	pos      int
	answered []models.ReviewItem
}

// StartSession snapshots the items due at asOf
func (s *Service) StartSession(ctx context.Context, asOf time.Time) *Session {
	return &Session{
		svc:   s,
		asOf:  asOf,
		queue: s.QueryDueItems(ctx, asOf),
	}
}

// Current returns the item awaiting an answer
func (ss *Session) Current() (models.ReviewItem, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.pos >= len(ss.queue) {
		return models.ReviewItem{}, false
	}
	return ss.queue[ss.pos], true
}

// Answer grades the current item, saves it and moves to the next one.
// An invalid grade leaves the session on the same item.
func (ss *Session) Answer(ctx context.Context, quality int) (models.ReviewItem, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.pos >= len(ss.queue) {
		return models.ReviewItem{}, ErrSessionFinished
	}

	next, err := ss.svc.grade(ctx, ss.queue[ss.pos], quality)
	if err != nil {
		return models.ReviewItem{}, err
	}
	ss.answered = append(ss.answered, next)
	ss.pos++
	return next, nil
}

// Remaining returns how many items are still unanswered
func (ss *Session) Remaining() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.queue) - ss.pos
}

// Len returns the size of the session
func (ss *Session) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.queue)
}

// Results returns the updated items in answer order
func (ss *Session) Results() []models.ReviewItem {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return append([]models.ReviewItem(nil), ss.answered...)
}

// AsOf returns the instant the due list was taken for
func (ss *Session) AsOf() time.Time {
	return ss.asOf
}
