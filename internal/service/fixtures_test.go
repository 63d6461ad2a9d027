package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"streambook/internal/db"
	"streambook/internal/entities"
	"streambook/internal/money"
	"streambook/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDate = "2026-03-10"

var testNow = time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []entities.NotificationPayload
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, p entities.NotificationPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, p)
	return n.err
}

func (n *recordingNotifier) Sent() []entities.NotificationPayload {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]entities.NotificationPayload(nil), n.sent...)
}

type fixture struct {
	store        *repository.MemoryStore
	clock        *fixedClock
	notifier     *recordingNotifier
	availability *AvailabilityService
	scheduler    *SchedulerService
	lifecycle    *LifecycleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	store := repository.NewMemoryStore(nil, logger)
	clock := &fixedClock{now: testNow}
	notifier := &recordingNotifier{}
	availability := NewAvailabilityService(store, logger, time.Millisecond)
	return &fixture{
		store:        store,
		clock:        clock,
		notifier:     notifier,
		availability: availability,
		scheduler:    NewSchedulerService(availability, store, clock, time.UTC, logger),
		lifecycle:    NewLifecycleService(store, store, notifier, clock, time.UTC, logger, time.Millisecond),
	}
}

// enable turns streaming on for a provider with a 10-minute price of 90.00.
func (f *fixture) enable(t *testing.T, providerID string, maxPerDay int) {
	t.Helper()
	_, err := f.availability.Upsert(context.Background(), providerID, entities.AvailabilityUpdate{
		Enabled: true,
		Pricing: map[db.SessionDuration]money.Money{
			db.Duration5:  money.MustParse("50.00"),
			db.Duration10: money.MustParse("90.00"),
			db.Duration15: money.MustParse("120.00"),
			db.Duration30: money.MustParse("200.00"),
		},
		MaxBookingsPerDay: maxPerDay,
	})
	require.NoError(t, err)
}

func (f *fixture) book(providerID, subscriberID string, minutes int, clock string) (db.Booking, error) {
	return f.scheduler.RequestBooking(context.Background(), entities.BookingRequest{
		ProviderID:      providerID,
		SubscriberID:    subscriberID,
		DurationMinutes: minutes,
		ScheduledDate:   testDate,
		ScheduledTime:   clock,
	})
}

func (f *fixture) mustBook(t *testing.T, providerID, subscriberID string, minutes int, clock string) db.Booking {
	t.Helper()
	b, err := f.book(providerID, subscriberID, minutes, clock)
	require.NoError(t, err)
	return b
}
