package service

import (
	"context"
	"fmt"
	"streambook/internal/db"
	"streambook/internal/entities"
	apperrors "streambook/internal/errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

type AvailabilityService struct {
	store        AvailabilityStore
	logger       *zap.Logger
	retryBackoff time.Duration
}

func NewAvailabilityService(store AvailabilityStore, logger *zap.Logger, retryBackoff time.Duration) *AvailabilityService {
	if retryBackoff <= 0 {
		retryBackoff = defaultReadRetryBackoff
	}
	return &AvailabilityService{store: store, logger: logger, retryBackoff: retryBackoff}
}

// Get returns the provider's settings, or the disabled defaults if none were saved.
func (s *AvailabilityService) Get(ctx context.Context, providerID string) (db.AvailabilityConfig, error) {
	cfg, err := s.lookup(ctx, providerID)
	if err != nil {
		return db.AvailabilityConfig{}, err
	}
	if cfg == nil {
		return db.DefaultAvailabilityConfig(providerID), nil
	}
	return *cfg, nil
}

// lookup distinguishes "never configured" (nil) from saved settings.
func (s *AvailabilityService) lookup(ctx context.Context, providerID string) (*db.AvailabilityConfig, error) {
	if strings.TrimSpace(providerID) == "" {
		return nil, apperrors.NewValidationError("provider_id", "required")
	}
	return readWithRetry(ctx, s.logger, s.retryBackoff, "get availability", func() (*db.AvailabilityConfig, error) {
		return s.store.GetAvailability(ctx, providerID)
	})
}

// Upsert replaces the whole configuration. Durations missing from the
// pricing map are stored with a zero price.
func (s *AvailabilityService) Upsert(ctx context.Context, providerID string, update entities.AvailabilityUpdate) (db.AvailabilityConfig, error) {
	if strings.TrimSpace(providerID) == "" {
		return db.AvailabilityConfig{}, apperrors.NewValidationError("provider_id", "required")
	}
	if update.MaxBookingsPerDay < 1 {
		return db.AvailabilityConfig{}, apperrors.NewValidationError("max_bookings_per_day", "must be a positive integer")
	}

	cfg := db.DefaultAvailabilityConfig(providerID)
	cfg.Enabled = update.Enabled
	cfg.MaxBookingsPerDay = update.MaxBookingsPerDay
	for d, price := range update.Pricing {
		if !d.IsValid() {
			return db.AvailabilityConfig{}, apperrors.NewValidationError("pricing", fmt.Sprintf("%d minutes is not an offered duration", d.Minutes()))
		}
		if price.IsNegative() {
			return db.AvailabilityConfig{}, apperrors.NewValidationError("pricing", fmt.Sprintf("price for %d minutes must not be negative", d.Minutes()))
		}
		cfg.Pricing[d] = price
	}

	saved, err := s.store.UpsertAvailability(ctx, cfg)
	if err != nil {
		return db.AvailabilityConfig{}, err
	}
	s.logger.Info("availability updated",
		zap.String("provider_id", providerID),
		zap.Bool("enabled", saved.Enabled),
		zap.Int("max_bookings_per_day", saved.MaxBookingsPerDay))
	return *saved, nil
}

// PublicView is what subscribers see in the booking form.
func (s *AvailabilityService) PublicView(ctx context.Context, providerID string) (entities.AvailabilityView, error) {
	cfg, err := s.Get(ctx, providerID)
	if err != nil {
		return entities.AvailabilityView{}, err
	}
	return entities.AvailabilityView{
		ProviderID:        cfg.ProviderID,
		Enabled:           cfg.Enabled,
		Pricing:           cfg.Pricing,
		MaxBookingsPerDay: cfg.MaxBookingsPerDay,
		MinLeadMinutes:    int(MinLeadTime / time.Minute),
	}, nil
}
