package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
)

type reminderEventLister interface {
	ListUpcomingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error)
}

type reminderRecipientLister interface {
	ListReminderRecipientsByEvent(ctx context.Context, eventID string) ([]models.User, error)
}

type reminderNotifier interface {
	NotifyReminder(user models.User, event models.Event)
}

// ReminderService emails registered students the day before an event. The
// reminder window is the whole of tomorrow, so every event starting tomorrow
// is picked up exactly once per daily run.
type ReminderService struct {
	events     reminderEventLister
	recipients reminderRecipientLister
	notifier   reminderNotifier
	hour       int
	logger     *zap.Logger
	now        func() time.Time
}

// NewReminderService constructs ReminderService. The hour is the local hour
// of day (0-23) at which the daily dispatch runs.
func NewReminderService(events reminderEventLister, recipients reminderRecipientLister, notifier reminderNotifier, hour int, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hour < 0 || hour > 23 {
		hour = 9
	}
	return &ReminderService{
		events:     events,
		recipients: recipients,
		notifier:   notifier,
		hour:       hour,
		logger:     logger,
		now:        time.Now,
	}
}

// DispatchTomorrow queues reminder emails for every event starting tomorrow.
func (s *ReminderService) DispatchTomorrow(ctx context.Context) error {
	tomorrow := startOfDay(s.now()).Add(24 * time.Hour)
	dayAfter := tomorrow.Add(24 * time.Hour)

	events, err := s.events.ListUpcomingBetween(ctx, tomorrow, dayAfter)
	if err != nil {
		return err
	}

	for _, event := range events {
		recipients, err := s.recipients.ListReminderRecipientsByEvent(ctx, event.ID)
		if err != nil {
			s.logger.Warn("failed to load reminder recipients",
				zap.String("event_id", event.ID), zap.Error(err))
			continue
		}
		for _, user := range recipients {
			s.notifier.NotifyReminder(user, event)
		}
		s.logger.Info("event reminders dispatched",
			zap.String("event_id", event.ID),
			zap.String("title", event.Title),
			zap.Int("recipients", len(recipients)),
		)
	}
	return nil
}

// Start runs a dispatch immediately, then once a day at the configured hour,
// until the context is cancelled.
func (s *ReminderService) Start(ctx context.Context) {
	if err := s.DispatchTomorrow(ctx); err != nil {
		s.logger.Warn("initial reminder dispatch failed", zap.Error(err))
	}

	go func() {
		for {
			timer := time.NewTimer(s.untilNextRun())
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				if err := s.DispatchTomorrow(ctx); err != nil {
					s.logger.Warn("reminder dispatch failed", zap.Error(err))
				}
			}
		}
	}()
}

func (s *ReminderService) untilNextRun() time.Duration {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
