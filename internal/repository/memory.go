package repository

import (
	"context"
	"sort"
	"streambook/internal/db"
	"streambook/internal/entities"
	apperrors "streambook/internal/errors"
	"streambook/internal/events"
	"streambook/internal/money"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryStore keeps every table in process memory. It backs STORAGE_DRIVER=memory
// and the service tests, and honours the same admission guarantees as Postgres.
type MemoryStore struct {
	mu           sync.RWMutex
	configs      map[string]db.AvailabilityConfig
	bookings     map[string]db.Booking
	contacts     map[string]db.Contact
	messages     []db.Message
	providerLock sync.Map

	publisher events.Publisher
	logger    *zap.Logger
}

func NewMemoryStore(publisher events.Publisher, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		configs:   make(map[string]db.AvailabilityConfig),
		bookings:  make(map[string]db.Booking),
		contacts:  make(map[string]db.Contact),
		publisher: publisher,
		logger:    logger,
	}
}

func (s *MemoryStore) GetAvailability(_ context.Context, providerID string) (*db.AvailabilityConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[providerID]
	if !ok {
		return nil, nil
	}
	out := copyConfig(cfg)
	return &out, nil
}

func (s *MemoryStore) UpsertAvailability(_ context.Context, cfg db.AvailabilityConfig) (*db.AvailabilityConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	saved := copyConfig(cfg)
	if prev, ok := s.configs[cfg.ProviderID]; ok {
		saved.CreatedAt = prev.CreatedAt
	} else {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now
	s.configs[cfg.ProviderID] = saved
	out := copyConfig(saved)
	return &out, nil
}

func (s *MemoryStore) InProviderLock(ctx context.Context, providerID string, fn func(tx AdmissionTx) error) error {
	lock, _ := s.providerLock.LoadOrStore(providerID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memoryAdmissionTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	if err := s.commit(tx.staged); err != nil {
		return err
	}
	for _, b := range tx.staged {
		publishBookingEvent(ctx, s.publisher, s.logger, b)
	}
	return nil
}

// commit applies staged inserts, enforcing the same no-overlap rule as the
// Postgres exclusion constraint.
func (s *MemoryStore) commit(staged []db.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range staged {
		for _, other := range staged[:i] {
			if b.ProviderID == other.ProviderID && b.Slot().Overlaps(other.Slot()) {
				return &apperrors.SlotConflictError{Start: other.StartsAt, End: other.EndsAt}
			}
		}
		for _, existing := range s.bookings {
			if existing.ProviderID == b.ProviderID && existing.Status.IsActive() && existing.Slot().Overlaps(b.Slot()) {
				return &apperrors.SlotConflictError{Start: existing.StartsAt, End: existing.EndsAt}
			}
		}
	}
	for _, b := range staged {
		s.bookings[b.ID] = b
	}
	return nil
}

type memoryAdmissionTx struct {
	store  *MemoryStore
	staged []db.Booking
}

func (t *memoryAdmissionTx) CountActiveOnDate(_ context.Context, providerID, date string) (int, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	n := 0
	for _, b := range t.store.bookings {
		if b.ProviderID == providerID && b.ScheduledDate == date && b.Status.IsActive() {
			n++
		}
	}
	for _, b := range t.staged {
		if b.ProviderID == providerID && b.ScheduledDate == date {
			n++
		}
	}
	return n, nil
}

func (t *memoryAdmissionTx) FindActiveOverlapping(_ context.Context, providerID string, slot db.Slot) ([]db.Booking, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	var out []db.Booking
	for _, b := range t.store.bookings {
		if b.ProviderID == providerID && b.Status.IsActive() && b.Slot().Overlaps(slot) {
			out = append(out, copyBooking(b))
		}
	}
	for _, b := range t.staged {
		if b.ProviderID == providerID && b.Slot().Overlaps(slot) {
			out = append(out, copyBooking(b))
		}
	}
	sortByStart(out)
	return out, nil
}

func (t *memoryAdmissionTx) Insert(_ context.Context, b *db.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	t.staged = append(t.staged, copyBooking(*b))
	return nil
}

func (s *MemoryStore) GetBooking(_ context.Context, id string) (*db.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "booking", ID: id}
	}
	out := copyBooking(b)
	return &out, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, from, to db.BookingStatus, reason *string) (*db.Booking, error) {
	s.mu.Lock()
	b, ok := s.bookings[id]
	if !ok || b.Status != from {
		s.mu.Unlock()
		return nil, ErrStatusChanged
	}
	b.Status = to
	if reason != nil {
		r := *reason
		b.RejectionReason = &r
	}
	b.UpdatedAt = time.Now().UTC()
	s.bookings[id] = b
	out := copyBooking(b)
	s.mu.Unlock()

	publishBookingEvent(ctx, s.publisher, s.logger, out)
	return &out, nil
}

func (s *MemoryStore) ListByProvider(_ context.Context, providerID string, filter entities.BookingFilter) ([]db.Booking, error) {
	return s.list(func(b db.Booking) bool { return b.ProviderID == providerID }, filter), nil
}

func (s *MemoryStore) ListBySubscriber(_ context.Context, subscriberID string, filter entities.BookingFilter) ([]db.Booking, error) {
	return s.list(func(b db.Booking) bool { return b.SubscriberID == subscriberID }, filter), nil
}

func (s *MemoryStore) list(owned func(db.Booking) bool, filter entities.BookingFilter) []db.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []db.Booking
	for _, b := range s.bookings {
		if !owned(b) {
			continue
		}
		if filter.Status != "" && string(b.Status) != filter.Status {
			continue
		}
		if filter.Date != "" && b.ScheduledDate != filter.Date {
			continue
		}
		out = append(out, copyBooking(b))
	}
	sortByStart(out)
	return out
}

func (s *MemoryStore) ListApprovedFinishedBefore(_ context.Context, t time.Time, startWindow time.Duration) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, b := range s.bookings {
		finish := b.EndsAt
		if lastStart := b.StartsAt.Add(startWindow); lastStart.After(finish) {
			finish = lastStart
		}
		if b.Status == db.StatusApproved && finish.Before(t) {
			ids = append(ids, b.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) MarkCompleted(ctx context.Context, ids []string) ([]db.Booking, error) {
	s.mu.Lock()
	var updated []db.Booking
	now := time.Now().UTC()
	for _, id := range ids {
		b, ok := s.bookings[id]
		if !ok || b.Status != db.StatusApproved {
			continue
		}
		b.Status = db.StatusCompleted
		b.UpdatedAt = now
		s.bookings[id] = b
		updated = append(updated, copyBooking(b))
	}
	s.mu.Unlock()

	for _, b := range updated {
		publishBookingEvent(ctx, s.publisher, s.logger, b)
	}
	return updated, nil
}

func (s *MemoryStore) PutContact(c db.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[c.AccountID] = c
}

func (s *MemoryStore) GetContact(_ context.Context, accountID string) (*db.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[accountID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *MemoryStore) CreateMessage(_ context.Context, m *db.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *m)
	return nil
}

// Messages returns the inbox of an account, oldest first.
func (s *MemoryStore) Messages(receiverID string) []db.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []db.Message
	for _, m := range s.messages {
		if m.ReceiverID == receiverID {
			out = append(out, m)
		}
	}
	return out
}

// Ping satisfies the health check.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func copyConfig(c db.AvailabilityConfig) db.AvailabilityConfig {
	out := c
	out.Pricing = make(map[db.SessionDuration]money.Money, len(c.Pricing))
	for k, v := range c.Pricing {
		out.Pricing[k] = v
	}
	return out
}

func copyBooking(b db.Booking) db.Booking {
	out := b
	if b.RejectionReason != nil {
		r := *b.RejectionReason
		out.RejectionReason = &r
	}
	return out
}

func sortByStart(bookings []db.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].StartsAt.Equal(bookings[j].StartsAt) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].StartsAt.Before(bookings[j].StartsAt)
	})
}
