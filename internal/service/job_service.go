package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type JobService struct {
	Repo   CompletionStore
	clock  Clock
	logger *zap.Logger
}

func NewJobService(repo CompletionStore, clock Clock, logger *zap.Logger) *JobService {
	return &JobService{Repo: repo, clock: clock, logger: logger}
}

// CompleteElapsedBookings marks approved bookings as completed once their slot
// has ended and their start window has closed, so a sweep never takes away a
// CanStart that would still be true. It only ever touches approved rows.
func (s *JobService) CompleteElapsedBookings(ctx context.Context) (int, error) {
	now := s.clock.Now()
	s.logger.Debug("completion sweep: checking for elapsed approved bookings", zap.Time("now", now))

	ids, err := s.Repo.ListApprovedFinishedBefore(ctx, now, StartWindowAfter)
	if err != nil {
		return 0, fmt.Errorf("completion sweep: failed to list elapsed bookings: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	s.logger.Info("completion sweep: found elapsed bookings", zap.Int("count", len(ids)), zap.Strings("ids", ids))

	updated, err := s.Repo.MarkCompleted(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("completion sweep: failed to update booking statuses: %w", err)
	}

	s.logger.Info("completion sweep: bookings completed", zap.Int("count", len(updated)))
	return len(updated), nil
}
