package service

import (
	"context"
	"streambook/internal/db"
	"streambook/internal/entities"
	"streambook/internal/repository"
	"time"
)

type AvailabilityStore interface {
	GetAvailability(ctx context.Context, providerID string) (*db.AvailabilityConfig, error)
	UpsertAvailability(ctx context.Context, cfg db.AvailabilityConfig) (*db.AvailabilityConfig, error)
}

type BookingStore interface {
	InProviderLock(ctx context.Context, providerID string, fn func(tx repository.AdmissionTx) error) error
	GetBooking(ctx context.Context, id string) (*db.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to db.BookingStatus, reason *string) (*db.Booking, error)
	ListByProvider(ctx context.Context, providerID string, filter entities.BookingFilter) ([]db.Booking, error)
	ListBySubscriber(ctx context.Context, subscriberID string, filter entities.BookingFilter) ([]db.Booking, error)
}

type CompletionStore interface {
	ListApprovedFinishedBefore(ctx context.Context, t time.Time, startWindow time.Duration) ([]string, error)
	MarkCompleted(ctx context.Context, ids []string) ([]db.Booking, error)
}

type ContactDirectory interface {
	GetContact(ctx context.Context, accountID string) (*db.Contact, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, m *db.Message) error
}

// Notifier delivers one message to one account. Implementations are
// best-effort; callers log failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, n entities.NotificationPayload) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
