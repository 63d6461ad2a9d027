package repository

import (
	"context"
	"database/sql"
	"errors"
	"streambook/internal/db"
	apperrors "streambook/internal/errors"

	"github.com/lib/pq"
)

// ErrStatusChanged means a conditional status update found the booking in a
// different status than expected.
var ErrStatusChanged = errors.New("booking status changed concurrently")

// AdmissionTx is the view of bookings available while a provider's admission
// lock is held. Everything done through it commits or rolls back together.
type AdmissionTx interface {
	CountActiveOnDate(ctx context.Context, providerID, date string) (int, error)
	FindActiveOverlapping(ctx context.Context, providerID string, slot db.Slot) ([]db.Booking, error)
	Insert(ctx context.Context, b *db.Booking) error
}

const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
	pqInvalidText        = "22P02"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// mapWriteError turns slot constraint violations into SlotConflictError.
func mapWriteError(op string, err error) error {
	switch pqCode(err) {
	case pqUniqueViolation, pqExclusionViolation:
		return &apperrors.SlotConflictError{}
	}
	return apperrors.NewStorageError(op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

const bookingColumns = `id, provider_id, subscriber_id, duration_minutes,
	to_char(scheduled_date, 'YYYY-MM-DD'), to_char(scheduled_time, 'HH24:MI'),
	starts_at, ends_at, price_cents, platform_fee_cents, provider_earnings_cents,
	status, rejection_reason, created_at, updated_at`

func scanBooking(row rowScanner) (*db.Booking, error) {
	var (
		b                    db.Booking
		duration             int
		price, fee, earnings int64
		status               string
		reason               sql.NullString
	)
	err := row.Scan(
		&b.ID, &b.ProviderID, &b.SubscriberID, &duration,
		&b.ScheduledDate, &b.ScheduledTime,
		&b.StartsAt, &b.EndsAt, &price, &fee, &earnings,
		&status, &reason, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.DurationMinutes = db.SessionDuration(duration)
	b.PriceCharged = moneyFromCents(price)
	b.PlatformFee = moneyFromCents(fee)
	b.ProviderEarnings = moneyFromCents(earnings)
	b.Status = db.BookingStatus(status)
	if reason.Valid {
		r := reason.String
		b.RejectionReason = &r
	}
	return &b, nil
}

func scanBookings(rows *sql.Rows) ([]db.Booking, error) {
	defer rows.Close()
	var out []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
