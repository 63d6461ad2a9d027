package repository

import (
	"context"
	"database/sql"
	"streambook/internal/db"
	apperrors "streambook/internal/errors"
	"streambook/internal/events"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type JobRepository struct {
	DB        *sql.DB
	publisher events.Publisher
	logger    *zap.Logger
}

func NewJobRepository(conn *sql.DB, publisher events.Publisher, logger *zap.Logger) *JobRepository {
	return &JobRepository{DB: conn, publisher: publisher, logger: logger}
}

// ListApprovedFinishedBefore returns approved bookings that can no longer be
// started or run as of t: the slot has ended and starts_at+startWindow has passed.
func (r *JobRepository) ListApprovedFinishedBefore(ctx context.Context, t time.Time, startWindow time.Duration) ([]string, error) {
	query := `
		SELECT id FROM streaming_bookings
		WHERE status = 'approved'
		  AND GREATEST(ends_at, starts_at + make_interval(secs => $2)) < $1`
	rows, err := r.DB.QueryContext(ctx, query, t, startWindow.Seconds())
	if err != nil {
		return nil, apperrors.NewStorageError("list elapsed bookings", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewStorageError("scan booking id", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate elapsed bookings", err)
	}
	return ids, nil
}

// MarkCompleted completes the given bookings that are still approved and
// returns the ones it changed. Re-running it on the same ids is a no-op.
func (r *JobRepository) MarkCompleted(ctx context.Context, ids []string) ([]db.Booking, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		UPDATE streaming_bookings
		SET status = 'completed', updated_at = NOW()
		WHERE id = ANY($1::uuid[]) AND status = 'approved'
		RETURNING ` + bookingColumns
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, apperrors.NewStorageError("complete bookings", err)
	}
	updated, err := scanBookings(rows)
	if err != nil {
		return nil, apperrors.NewStorageError("scan completed bookings", err)
	}
	for _, b := range updated {
		publishBookingEvent(ctx, r.publisher, r.logger, b)
	}
	return updated, nil
}
