package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"streambook/internal/db"
	"streambook/internal/entities"
	apperrors "streambook/internal/errors"
	"streambook/internal/events"
	"time"

	"go.uber.org/zap"
)

type BookingRepository struct {
	DB        *sql.DB
	publisher events.Publisher
	logger    *zap.Logger
}

func NewBookingRepository(conn *sql.DB, publisher events.Publisher, logger *zap.Logger) *BookingRepository {
	return &BookingRepository{DB: conn, publisher: publisher, logger: logger}
}

// InProviderLock runs fn inside a transaction holding the provider's advisory
// lock, so admissions for the same provider are serialized. The exclusion
// constraint on active slots backs this up if anything writes around it.
func (r *BookingRepository) InProviderLock(ctx context.Context, providerID string, fn func(tx AdmissionTx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("begin admission", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, providerID); err != nil {
		return apperrors.NewStorageError("lock provider", err)
	}

	atx := &pgAdmissionTx{tx: tx}
	if err := fn(atx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapWriteError("commit admission", err)
	}

	for _, b := range atx.inserted {
		r.publish(ctx, b)
	}
	return nil
}

type pgAdmissionTx struct {
	tx       *sql.Tx
	inserted []db.Booking
}

func (t *pgAdmissionTx) CountActiveOnDate(ctx context.Context, providerID, date string) (int, error) {
	query := `
		SELECT COUNT(*) FROM streaming_bookings
		WHERE provider_id = $1 AND scheduled_date = $2 AND status IN ('pending', 'approved')`
	var n int
	if err := t.tx.QueryRowContext(ctx, query, providerID, date).Scan(&n); err != nil {
		return 0, apperrors.NewStorageError("count bookings on date", err)
	}
	return n, nil
}

func (t *pgAdmissionTx) FindActiveOverlapping(ctx context.Context, providerID string, slot db.Slot) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM streaming_bookings
		WHERE provider_id = $1
		  AND status IN ('pending', 'approved')
		  AND starts_at < $3
		  AND ends_at > $2
		ORDER BY starts_at`
	rows, err := t.tx.QueryContext(ctx, query, providerID, slot.Start, slot.End)
	if err != nil {
		return nil, apperrors.NewStorageError("find overlapping bookings", err)
	}
	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, apperrors.NewStorageError("scan overlapping bookings", err)
	}
	return bookings, nil
}

func (t *pgAdmissionTx) Insert(ctx context.Context, b *db.Booking) error {
	query := `
		INSERT INTO streaming_bookings
			(id, provider_id, subscriber_id, duration_minutes, scheduled_date, scheduled_time,
			 starts_at, ends_at, price_cents, platform_fee_cents, provider_earnings_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`
	err := t.tx.QueryRowContext(ctx, query,
		b.ID,
		b.ProviderID,
		b.SubscriberID,
		b.DurationMinutes.Minutes(),
		b.ScheduledDate,
		b.ScheduledTime,
		b.StartsAt,
		b.EndsAt,
		b.PriceCharged.Cents(),
		b.PlatformFee.Cents(),
		b.ProviderEarnings.Cents(),
		string(b.Status),
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return mapWriteError("insert booking", err)
	}
	t.inserted = append(t.inserted, *b)
	return nil
}

func (r *BookingRepository) GetBooking(ctx context.Context, id string) (*db.Booking, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM streaming_bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == pqInvalidText {
			return nil, &apperrors.NotFoundError{Resource: "booking", ID: id}
		}
		return nil, apperrors.NewStorageError("get booking", err)
	}
	return b, nil
}

// UpdateStatus moves a booking from one status to another only if it is still
// in the expected one. A nil reason leaves the stored reason untouched.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to db.BookingStatus, reason *string) (*db.Booking, error) {
	query := `
		UPDATE streaming_bookings
		SET status = $3, rejection_reason = COALESCE($4, rejection_reason), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns
	var reasonArg sql.NullString
	if reason != nil {
		reasonArg = sql.NullString{String: *reason, Valid: true}
	}
	b, err := scanBooking(r.DB.QueryRowContext(ctx, query, id, string(from), string(to), reasonArg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, apperrors.NewStorageError("update booking status", err)
	}
	r.publish(ctx, *b)
	return b, nil
}

func (r *BookingRepository) ListByProvider(ctx context.Context, providerID string, filter entities.BookingFilter) ([]db.Booking, error) {
	return r.list(ctx, "provider_id", providerID, filter)
}

func (r *BookingRepository) ListBySubscriber(ctx context.Context, subscriberID string, filter entities.BookingFilter) ([]db.Booking, error) {
	return r.list(ctx, "subscriber_id", subscriberID, filter)
}

func (r *BookingRepository) list(ctx context.Context, ownerColumn, ownerID string, filter entities.BookingFilter) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM streaming_bookings WHERE ` + ownerColumn + ` = $1`
	args := []interface{}{ownerID}
	idx := 2

	if filter.Status != "" {
		query += " AND status = $" + strconv.Itoa(idx)
		args = append(args, filter.Status)
		idx++
	}
	if filter.Date != "" {
		query += " AND scheduled_date = $" + strconv.Itoa(idx)
		args = append(args, filter.Date)
		idx++
	}
	query += " ORDER BY starts_at ASC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("list bookings", err)
	}
	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, apperrors.NewStorageError("scan bookings", err)
	}
	return bookings, nil
}

func (r *BookingRepository) publish(ctx context.Context, b db.Booking) {
	publishBookingEvent(ctx, r.publisher, r.logger, b)
}

// publishBookingEvent is best-effort; the write it reports has already committed.
func publishBookingEvent(ctx context.Context, publisher events.Publisher, logger *zap.Logger, b db.Booking) {
	if publisher == nil {
		return
	}
	evt := entities.NewBookingEvent(b, time.Now().UTC())
	if err := publisher.Publish(ctx, evt); err != nil {
		logger.Warn("failed to publish booking event",
			zap.String("booking_id", b.ID),
			zap.String("status", b.Status.String()),
			zap.Error(fmt.Errorf("publish: %w", err)))
	}
}
