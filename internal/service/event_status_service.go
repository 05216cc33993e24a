package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type eventStatusRepository interface {
	MarkCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	MarkOngoingBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// EventStatusService advances event statuses as calendar days pass. Events
// whose end boundary fell before today become completed and events starting
// today become ongoing. Completed and cancelled events are never touched.
type EventStatusService struct {
	repo     eventStatusRepository
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewEventStatusService constructs EventStatusService.
func NewEventStatusService(repo eventStatusRepository, interval time.Duration, logger *zap.Logger) *EventStatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventStatusService{repo: repo, interval: interval, logger: logger, now: time.Now}
}

// Recompute applies both transitions once.
func (s *EventStatusService) Recompute(ctx context.Context) error {
	today := startOfDay(s.now())
	tomorrow := today.Add(24 * time.Hour)

	completed, err := s.repo.MarkCompletedBefore(ctx, today)
	if err != nil {
		return err
	}
	ongoing, err := s.repo.MarkOngoingBetween(ctx, today, tomorrow)
	if err != nil {
		return err
	}

	if completed > 0 || ongoing > 0 {
		s.logger.Info("event statuses updated",
			zap.Int64("completed", completed),
			zap.Int64("ongoing", ongoing),
		)
	}
	return nil
}

// Start runs Recompute immediately and then on every tick until the context
// is cancelled.
func (s *EventStatusService) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	if err := s.Recompute(ctx); err != nil {
		s.logger.Warn("initial event status update failed", zap.Error(err))
	}
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Recompute(ctx); err != nil {
					s.logger.Warn("event status update failed", zap.Error(err))
				}
			}
		}
	}()
}
