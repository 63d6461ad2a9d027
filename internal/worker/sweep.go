package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = 30 * time.Second

type Sweeper interface {
	CompleteElapsedBookings(ctx context.Context) (int, error)
}

// StartCompletionSweep schedules the sweeper on a cron spec such as "@every 1m".
// Overlapping runs are skipped.
func StartCompletionSweep(spec string, sweeper Sweeper, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		RunSweep(sweeper, logger)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid completion sweep schedule %q: %w", spec, err)
	}
	c.Start()
	logger.Info("completion sweep scheduled", zap.String("spec", spec))
	return c, nil
}

func RunSweep(sweeper Sweeper, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if _, err := sweeper.CompleteElapsedBookings(ctx); err != nil {
		logger.Error("completion sweep failed", zap.Error(err))
	}
}
