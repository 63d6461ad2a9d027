package service

import (
	"context"
	apperrors "streambook/internal/errors"
	"time"

	"go.uber.org/zap"
)

const defaultReadRetryBackoff = 100 * time.Millisecond

// readWithRetry runs an idempotent read and retries it once if the store
// reports a StorageError. Business errors are returned as they are.
func readWithRetry[T any](ctx context.Context, logger *zap.Logger, backoff time.Duration, op string, read func() (T, error)) (T, error) {
	v, err := read()
	if err == nil || !apperrors.IsStorage(err) {
		return v, err
	}
	logger.Warn("read failed, retrying once", zap.String("op", op), zap.Duration("backoff", backoff), zap.Error(err))

	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-timer.C:
	}
	return read()
}
