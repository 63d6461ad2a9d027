package service

import (
	"context"
	"strings"
	"streambook/internal/db"
	"streambook/internal/entities"
	apperrors "streambook/internal/errors"
	"streambook/internal/money"
	"streambook/internal/repository"
	"streambook/internal/utils"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MinLeadTime is the minimum gap between a request and the session start.
const MinLeadTime = 5 * time.Minute

type SchedulerService struct {
	availability *AvailabilityService
	bookings     BookingStore
	clock        Clock
	loc          *time.Location
	fees         money.FeePolicy
	logger       *zap.Logger
}

func NewSchedulerService(availability *AvailabilityService, bookings BookingStore, clock Clock, loc *time.Location, logger *zap.Logger) *SchedulerService {
	if loc == nil {
		loc = time.UTC
	}
	return &SchedulerService{
		availability: availability,
		bookings:     bookings,
		clock:        clock,
		loc:          loc,
		fees:         money.SessionFee,
		logger:       logger,
	}
}

// Quote returns the price of a session of the given length with this provider.
func (s *SchedulerService) Quote(ctx context.Context, providerID string, durationMinutes int) (money.Money, error) {
	cfg, err := s.availability.lookup(ctx, providerID)
	if err != nil {
		return 0, err
	}
	if cfg == nil || !cfg.Enabled {
		return 0, &apperrors.ConfigNotFoundError{ProviderID: providerID}
	}
	price, ok := cfg.Price(db.SessionDuration(durationMinutes))
	if !ok {
		return 0, &apperrors.InvalidDurationError{Minutes: durationMinutes}
	}
	return price, nil
}

// QuoteDetails adds the fee split to Quote.
func (s *SchedulerService) QuoteDetails(ctx context.Context, providerID string, durationMinutes int) (entities.QuoteResponse, error) {
	price, err := s.Quote(ctx, providerID, durationMinutes)
	if err != nil {
		return entities.QuoteResponse{}, err
	}
	split := s.fees.Split(price)
	return entities.QuoteResponse{
		ProviderID:       providerID,
		DurationMinutes:  durationMinutes,
		Price:            split.Charged,
		PlatformFee:      split.PlatformFee,
		ProviderEarnings: split.CreatorEarnings,
	}, nil
}

// RequestBooking admits a new pending booking. Checks run in a fixed order and
// the first failure is returned: provider availability, lead time, daily
// capacity, then slot conflicts. Capacity, conflict scan and insert happen
// under the provider's admission lock.
func (s *SchedulerService) RequestBooking(ctx context.Context, req entities.BookingRequest) (db.Booking, error) {
	duration, start, err := s.validateRequest(req)
	if err != nil {
		return db.Booking{}, err
	}

	cfg, err := s.availability.lookup(ctx, req.ProviderID)
	if err != nil {
		return db.Booking{}, err
	}
	if cfg == nil || !cfg.Enabled {
		return db.Booking{}, &apperrors.ProviderUnavailableError{ProviderID: req.ProviderID}
	}

	earliest := s.clock.Now().Add(MinLeadTime)
	if start.Before(earliest) {
		return db.Booking{}, &apperrors.LeadTimeError{Start: start, Earliest: earliest.In(s.loc)}
	}

	slot := db.NewSlot(start, duration)
	price, _ := cfg.Price(duration)
	split := s.fees.Split(price)
	date, timeOfDay := utils.FormatSchedule(start, s.loc)

	booking := db.Booking{
		ID:               uuid.NewString(),
		ProviderID:       req.ProviderID,
		SubscriberID:     req.SubscriberID,
		DurationMinutes:  duration,
		ScheduledDate:    date,
		ScheduledTime:    timeOfDay,
		StartsAt:         slot.Start,
		EndsAt:           slot.End,
		PriceCharged:     split.Charged,
		PlatformFee:      split.PlatformFee,
		ProviderEarnings: split.CreatorEarnings,
		Status:           db.StatusPending,
	}

	err = s.bookings.InProviderLock(ctx, req.ProviderID, func(tx repository.AdmissionTx) error {
		n, err := tx.CountActiveOnDate(ctx, req.ProviderID, date)
		if err != nil {
			return err
		}
		if n >= cfg.MaxBookingsPerDay {
			return &apperrors.DailyCapacityError{Date: date, Max: cfg.MaxBookingsPerDay}
		}

		conflicts, err := tx.FindActiveOverlapping(ctx, req.ProviderID, slot)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &apperrors.SlotConflictError{
				Start: conflicts[0].StartsAt.In(s.loc),
				End:   conflicts[0].EndsAt.In(s.loc),
			}
		}
		return tx.Insert(ctx, &booking)
	})
	if err != nil {
		s.logger.Info("booking request refused",
			zap.String("provider_id", req.ProviderID),
			zap.String("subscriber_id", req.SubscriberID),
			zap.Time("starts_at", start),
			zap.Error(err))
		return db.Booking{}, err
	}

	s.logger.Info("booking requested",
		zap.String("booking_id", booking.ID),
		zap.String("provider_id", booking.ProviderID),
		zap.Time("starts_at", booking.StartsAt),
		zap.Int("duration_minutes", booking.DurationMinutes.Minutes()),
		zap.Stringer("price", booking.PriceCharged))
	return booking, nil
}

func (s *SchedulerService) validateRequest(req entities.BookingRequest) (db.SessionDuration, time.Time, error) {
	if strings.TrimSpace(req.ProviderID) == "" {
		return 0, time.Time{}, apperrors.NewValidationError("provider_id", "required")
	}
	if strings.TrimSpace(req.SubscriberID) == "" {
		return 0, time.Time{}, apperrors.NewValidationError("subscriber_id", "required")
	}
	if req.ProviderID == req.SubscriberID {
		return 0, time.Time{}, apperrors.NewValidationError("provider_id", "cannot book a session with yourself")
	}
	duration := db.SessionDuration(req.DurationMinutes)
	if !duration.IsValid() {
		return 0, time.Time{}, &apperrors.InvalidDurationError{Minutes: req.DurationMinutes}
	}
	start, err := utils.ParseSchedule(req.ScheduledDate, req.ScheduledTime, s.loc)
	if err != nil {
		return 0, time.Time{}, apperrors.NewValidationError("schedule", err.Error())
	}
	return duration, start, nil
}
