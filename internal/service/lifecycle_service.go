package service

import (
	"context"
	"errors"
	"strings"
	"streambook/internal/db"
	"streambook/internal/entities"
	apperrors "streambook/internal/errors"
	"streambook/internal/repository"
	"streambook/internal/utils"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// StartWindowBefore is how early an approved session may be started.
	StartWindowBefore = 5 * time.Minute
	// StartWindowAfter is how late an approved session may still be started.
	StartWindowAfter = 10 * time.Minute

	maxReasonLength = 500
)

type LifecycleService struct {
	bookings     BookingStore
	contacts     ContactDirectory
	notifier     Notifier
	clock        Clock
	loc          *time.Location
	logger       *zap.Logger
	retryBackoff time.Duration
}

func NewLifecycleService(bookings BookingStore, contacts ContactDirectory, notifier Notifier, clock Clock, loc *time.Location, logger *zap.Logger, retryBackoff time.Duration) *LifecycleService {
	if loc == nil {
		loc = time.UTC
	}
	if retryBackoff <= 0 {
		retryBackoff = defaultReadRetryBackoff
	}
	return &LifecycleService{
		bookings:     bookings,
		contacts:     contacts,
		notifier:     notifier,
		clock:        clock,
		loc:          loc,
		logger:       logger,
		retryBackoff: retryBackoff,
	}
}

func (s *LifecycleService) getBooking(ctx context.Context, id string) (*db.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("booking_id", "required")
	}
	return readWithRetry(ctx, s.logger, s.retryBackoff, "get booking", func() (*db.Booking, error) {
		return s.bookings.GetBooking(ctx, id)
	})
}

// Get returns a booking to its provider or subscriber. Anyone else gets NotFound.
func (s *LifecycleService) Get(ctx context.Context, bookingID, accountID string) (db.Booking, error) {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return db.Booking{}, err
	}
	if b.ProviderID != accountID && b.SubscriberID != accountID {
		return db.Booking{}, &apperrors.NotFoundError{Resource: "booking", ID: bookingID}
	}
	return *b, nil
}

func (s *LifecycleService) ListForProvider(ctx context.Context, providerID string, filter entities.BookingFilter) (entities.BookingsList, error) {
	if err := validateFilter(filter); err != nil {
		return entities.BookingsList{}, err
	}
	bookings, err := readWithRetry(ctx, s.logger, s.retryBackoff, "list provider bookings", func() ([]db.Booking, error) {
		return s.bookings.ListByProvider(ctx, providerID, filter)
	})
	if err != nil {
		return entities.BookingsList{}, err
	}
	return newBookingsList(bookings), nil
}

func (s *LifecycleService) ListForSubscriber(ctx context.Context, subscriberID string, filter entities.BookingFilter) (entities.BookingsList, error) {
	if err := validateFilter(filter); err != nil {
		return entities.BookingsList{}, err
	}
	bookings, err := readWithRetry(ctx, s.logger, s.retryBackoff, "list subscriber bookings", func() ([]db.Booking, error) {
		return s.bookings.ListBySubscriber(ctx, subscriberID, filter)
	})
	if err != nil {
		return entities.BookingsList{}, err
	}
	return newBookingsList(bookings), nil
}

func newBookingsList(bookings []db.Booking) entities.BookingsList {
	if bookings == nil {
		bookings = []db.Booking{}
	}
	return entities.BookingsList{Total: len(bookings), Bookings: bookings}
}

func validateFilter(f entities.BookingFilter) error {
	if f.Status != "" {
		if _, err := db.ParseBookingStatus(f.Status); err != nil {
			return apperrors.NewValidationError("status", err.Error())
		}
	}
	if f.Date != "" {
		if _, err := time.Parse(utils.DateLayout, f.Date); err != nil {
			return apperrors.NewValidationError("date", "must be YYYY-MM-DD")
		}
	}
	return nil
}

// Approve accepts a pending booking and tells the subscriber.
func (s *LifecycleService) Approve(ctx context.Context, bookingID, actingProviderID string) (db.Booking, error) {
	b, err := s.transition(ctx, bookingID, actingProviderID, db.StatusApproved, nil)
	if err != nil {
		return db.Booking{}, err
	}
	s.notifySubscriber(ctx, b, "")
	return b, nil
}

// Reject declines a pending booking. The subscriber is not messaged.
func (s *LifecycleService) Reject(ctx context.Context, bookingID, actingProviderID, reason string) (db.Booking, error) {
	reason, err := validateReason(reason)
	if err != nil {
		return db.Booking{}, err
	}
	return s.transition(ctx, bookingID, actingProviderID, db.StatusRejected, &reason)
}

// Cancel calls off an approved booking and tells the subscriber why.
func (s *LifecycleService) Cancel(ctx context.Context, bookingID, actingProviderID, reason string) (db.Booking, error) {
	reason, err := validateReason(reason)
	if err != nil {
		return db.Booking{}, err
	}
	b, err := s.transition(ctx, bookingID, actingProviderID, db.StatusCancelled, &reason)
	if err != nil {
		return db.Booking{}, err
	}
	s.notifySubscriber(ctx, b, reason)
	return b, nil
}

func validateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperrors.NewValidationError("reason", "required")
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return "", apperrors.NewValidationError("reason", "too long")
	}
	return reason, nil
}

func (s *LifecycleService) transition(ctx context.Context, bookingID, actingProviderID string, to db.BookingStatus, reason *string) (db.Booking, error) {
	current, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return db.Booking{}, err
	}
	if current.ProviderID != actingProviderID {
		return db.Booking{}, &apperrors.NotOwnerError{BookingID: bookingID}
	}
	if !current.Status.CanTransitionTo(to) {
		return db.Booking{}, &apperrors.InvalidTransitionError{From: current.Status.String(), To: to.String()}
	}

	updated, err := s.bookings.UpdateStatus(ctx, bookingID, current.Status, to, reason)
	if errors.Is(err, repository.ErrStatusChanged) {
		from := current.Status.String()
		if latest, getErr := s.bookings.GetBooking(ctx, bookingID); getErr == nil {
			from = latest.Status.String()
		}
		return db.Booking{}, &apperrors.InvalidTransitionError{From: from, To: to.String()}
	}
	if err != nil {
		return db.Booking{}, err
	}

	s.logger.Info("booking status changed",
		zap.String("booking_id", updated.ID),
		zap.String("provider_id", updated.ProviderID),
		zap.String("from", current.Status.String()),
		zap.String("status", updated.Status.String()))
	return *updated, nil
}

// CanStart reports whether the session-launch control should be active.
func CanStart(b db.Booking, now time.Time) bool {
	if b.Status != db.StatusApproved {
		return false
	}
	untilStart := b.StartsAt.Sub(now)
	return untilStart <= StartWindowBefore && untilStart >= -StartWindowAfter
}

// CanStart loads the booking for one of its parties and checks it against the clock.
func (s *LifecycleService) CanStart(ctx context.Context, bookingID, accountID string) (bool, error) {
	b, err := s.Get(ctx, bookingID, accountID)
	if err != nil {
		return false, err
	}
	return CanStart(b, s.clock.Now()), nil
}

func (s *LifecycleService) notifySubscriber(ctx context.Context, b db.Booking, reason string) {
	if s.notifier == nil {
		return
	}
	data := entities.BookingNotificationData{
		BookingID:       b.ID,
		DurationMinutes: b.DurationMinutes.Minutes(),
		Reason:          reason,
		Status:          b.Status.String(),
		Language:        "en",
	}
	local := b.StartsAt.In(s.loc)
	data.DateFormatted = local.Format("02/01/2006")
	data.TimeFormatted = local.Format("15:04")

	if s.contacts != nil {
		contact, err := s.contacts.GetContact(ctx, b.SubscriberID)
		if err != nil {
			s.logger.Warn("contact lookup failed", zap.String("account_id", b.SubscriberID), zap.Error(err))
		} else if contact != nil {
			data.RecipientName = contact.Name
			if contact.Language != "" {
				data.Language = contact.Language
			}
		}
	}

	subject, body := ComposeBookingMessage(data)
	payload := entities.NotificationPayload{
		SenderID:    b.ProviderID,
		RecipientID: b.SubscriberID,
		Subject:     subject,
		Body:        body,
		BookingID:   b.ID,
	}
	if err := s.notifier.Notify(ctx, payload); err != nil {
		s.logger.Warn("booking notification failed",
			zap.String("booking_id", b.ID),
			zap.String("status", b.Status.String()),
			zap.Error(err))
	}
}
