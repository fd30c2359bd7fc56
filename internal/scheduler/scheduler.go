package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/vocabdrill/pkg/models"
)

// Константы для настроек уведомлений по умолчанию
const (
	DefaultNotificationStartHour = 8  // Время начала уведомлений (8:00)
	DefaultNotificationEndHour   = 22 // Время окончания уведомлений (22:00)
	DefaultInterval              = time.Hour
)

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(ctx context.Context, count int) error
}

// DueSource lists the items due for review. *session.Service implements it.
type DueSource interface {
	QueryDueItems(ctx context.Context, asOf time.Time) []models.ReviewItem
}

// Config controls when reminders are checked and sent
type Config struct {
	Interval  time.Duration // How often to check for due items
	StartHour int           // First hour of the day reminders may be sent
	EndHour   int           // Last hour of the day reminders may be sent
	Location  *time.Location
}

// DefaultConfig returns the default reminder configuration
func DefaultConfig() Config {
	return Config{
		Interval:  DefaultInterval,
		StartHour: DefaultNotificationStartHour,
		EndHour:   DefaultNotificationEndHour,
		Location:  time.Local,
	}
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    DueSource
	notifier  Notifier
	cfg       Config
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a new scheduler instance
func New(source DueSource, notifier Notifier, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(cfg.Location),
		source:    source,
		notifier:  notifier,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}
}

// Start begins running all scheduled tasks. Jobs stop when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.cfg.Interval).Do(func() {
		if _, err := s.checkAndSendReminders(ctx); err != nil {
			s.logger.Error("reminder check failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder job: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.logger.Info("reminder scheduler started", "interval", s.cfg.Interval,
		"start_hour", s.cfg.StartHour, "end_hour", s.cfg.EndHour)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("reminder scheduler stopped")
}

// RunManualCheck counts due items and notifies regardless of the hour.
// It returns the number of due items.
func (s *Scheduler) RunManualCheck(ctx context.Context) (int, error) {
	return s.remind(ctx, s.now())
}

// checkAndSendReminders sends a reminder if items are due and the current
// hour is inside the notification window. It returns the number of due items.
func (s *Scheduler) checkAndSendReminders(ctx context.Context) (int, error) {
	now := s.now().In(s.cfg.Location)

	// Проверяем, находится ли текущий час в диапазоне времени для отправки уведомлений
	if !s.inWindow(now.Hour()) {
		s.logger.Debug("outside notification hours, skipping reminders",
			"hour", now.Hour(), "start_hour", s.cfg.StartHour, "end_hour", s.cfg.EndHour)
		return 0, nil
	}
	return s.remind(ctx, now)
}

func (s *Scheduler) remind(ctx context.Context, now time.Time) (int, error) {
	count := len(s.source.QueryDueItems(ctx, now))
	if count == 0 {
		return 0, nil
	}
	if err := s.notifier.SendReminders(ctx, count); err != nil {
		return count, fmt.Errorf("failed to send reminder for %d words: %w", count, err)
	}
	return count, nil
}

// inWindow reports whether hour falls between StartHour and EndHour
// inclusive. A window with StartHour > EndHour wraps past midnight.
func (s *Scheduler) inWindow(hour int) bool {
	if s.cfg.StartHour <= s.cfg.EndHour {
		return hour >= s.cfg.StartHour && hour <= s.cfg.EndHour
	}
	return hour >= s.cfg.StartHour || hour <= s.cfg.EndHour
}
