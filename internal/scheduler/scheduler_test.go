package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocabdrill/pkg/models"
)

type fakeSource struct {
	items []models.ReviewItem
	asOf  time.Time
}

func (f *fakeSource) QueryDueItems(_ context.Context, asOf time.Time) []models.ReviewItem {
	f.asOf = asOf
	var due []models.ReviewItem
	for _, item := range f.items {
		if item.IsDue(asOf) {
			due = append(due, item)
		}
	}
	return due
}

type fakeNotifier struct {
	counts []int
	err    error
}

func (f *fakeNotifier) SendReminders(_ context.Context, count int) error {
	f.counts = append(f.counts, count)
	return f.err
}

func newTestScheduler(source DueSource, notifier Notifier, cfg Config, now time.Time) *Scheduler {
	s := New(source, notifier, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return now }
	return s
}

func at(hour int) time.Time {
	return time.Date(2025, 6, 15, hour, 30, 0, 0, time.UTC)
}

func sourceWithDue(now time.Time, due, later int) *fakeSource {
	src := &fakeSource{}
	for i := 0; i < due; i++ {
		src.items = append(src.items, models.NewReviewItem("due", now.Add(-time.Hour)))
	}
	for i := 0; i < later; i++ {
		src.items = append(src.items, models.NewReviewItem("later", now.Add(time.Hour)))
	}
	return src
}

func TestCheckSendsReminderInsideWindow(t *testing.T) {
	now := at(10)
	notifier := &fakeNotifier{}
	s := newTestScheduler(sourceWithDue(now, 3, 2), notifier, Config{StartHour: 8, EndHour: 22, Location: time.UTC}, now)

	count, err := s.checkAndSendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, []int{3}, notifier.counts)
}

func TestCheckSkipsOutsideWindow(t *testing.T) {
	now := at(23)
	notifier := &fakeNotifier{}
	s := newTestScheduler(sourceWithDue(now, 3, 0), notifier, Config{StartHour: 8, EndHour: 22, Location: time.UTC}, now)

	count, err := s.checkAndSendReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, notifier.counts)

	// manual checks ignore the window
	count, err = s.RunManualCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, []int{3}, notifier.counts)
}

func TestCheckWithNothingDue(t *testing.T) {
	now := at(12)
	notifier := &fakeNotifier{}
	src := sourceWithDue(now, 0, 4)
	s := newTestScheduler(src, notifier, Config{StartHour: 0, EndHour: 23, Location: time.UTC}, now)

	count, err := s.checkAndSendReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, notifier.counts)
	assert.True(t, src.asOf.Equal(now))
}

func TestCheckNotifierError(t *testing.T) {
	now := at(12)
	boom := errors.New("telegram down")
	notifier := &fakeNotifier{err: boom}
	s := newTestScheduler(sourceWithDue(now, 1, 0), notifier, Config{StartHour: 0, EndHour: 23, Location: time.UTC}, now)

	count, err := s.checkAndSendReminders(context.Background())
	assert.Equal(t, 1, count)
	assert.True(t, errors.Is(err, boom))
}

func TestInWindow(t *testing.T) {
	day := &Scheduler{cfg: Config{StartHour: 8, EndHour: 22}}
	night := &Scheduler{cfg: Config{StartHour: 22, EndHour: 2}}

	tests := []struct {
		hour           int
		inDay, inNight bool
	}{
		{0, false, true},
		{2, false, true},
		{3, false, false},
		{8, true, false},
		{15, true, false},
		{22, true, true},
		{23, false, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.inDay, day.inWindow(tt.hour), "day window, hour %d", tt.hour)
		assert.Equal(t, tt.inNight, night.inWindow(tt.hour), "overnight window, hour %d", tt.hour)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	s := New(&fakeSource{}, &fakeNotifier{}, Config{}, nil)
	assert.Equal(t, DefaultInterval, s.cfg.Interval)
	assert.Equal(t, time.Local, s.cfg.Location)
	assert.NotNil(t, s.logger)

	cfg := DefaultConfig()
	assert.Equal(t, DefaultNotificationStartHour, cfg.StartHour)
	assert.Equal(t, DefaultNotificationEndHour, cfg.EndHour)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler(&fakeSource{}, &fakeNotifier{}, Config{Interval: time.Hour, Location: time.UTC}, at(12))
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
