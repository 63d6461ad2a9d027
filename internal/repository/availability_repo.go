package repository

import (
	"context"
	"database/sql"
	"errors"
	"streambook/internal/db"
	apperrors "streambook/internal/errors"
	"streambook/internal/money"
)

type AvailabilityRepository struct {
	DB *sql.DB
}

func NewAvailabilityRepository(conn *sql.DB) *AvailabilityRepository {
	return &AvailabilityRepository{DB: conn}
}

// GetAvailability returns nil without error when the provider never saved settings.
func (r *AvailabilityRepository) GetAvailability(ctx context.Context, providerID string) (*db.AvailabilityConfig, error) {
	query := `
		SELECT provider_id, enabled,
		       price_5min_cents, price_10min_cents, price_15min_cents, price_30min_cents,
		       max_bookings_per_day, created_at, updated_at
		FROM availability_configs
		WHERE provider_id = $1`

	var (
		cfg               db.AvailabilityConfig
		p5, p10, p15, p30 int64
	)
	err := r.DB.QueryRowContext(ctx, query, providerID).Scan(
		&cfg.ProviderID, &cfg.Enabled, &p5, &p10, &p15, &p30,
		&cfg.MaxBookingsPerDay, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("get availability", err)
	}
	cfg.Pricing = map[db.SessionDuration]money.Money{
		db.Duration5:  moneyFromCents(p5),
		db.Duration10: moneyFromCents(p10),
		db.Duration15: moneyFromCents(p15),
		db.Duration30: moneyFromCents(p30),
	}
	return &cfg, nil
}

// UpsertAvailability replaces every field of the provider's settings.
func (r *AvailabilityRepository) UpsertAvailability(ctx context.Context, cfg db.AvailabilityConfig) (*db.AvailabilityConfig, error) {
	query := `
		INSERT INTO availability_configs
			(provider_id, enabled, price_5min_cents, price_10min_cents, price_15min_cents, price_30min_cents, max_bookings_per_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			price_5min_cents = EXCLUDED.price_5min_cents,
			price_10min_cents = EXCLUDED.price_10min_cents,
			price_15min_cents = EXCLUDED.price_15min_cents,
			price_30min_cents = EXCLUDED.price_30min_cents,
			max_bookings_per_day = EXCLUDED.max_bookings_per_day,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	saved := cfg
	err := r.DB.QueryRowContext(ctx, query,
		cfg.ProviderID,
		cfg.Enabled,
		cfg.Pricing[db.Duration5].Cents(),
		cfg.Pricing[db.Duration10].Cents(),
		cfg.Pricing[db.Duration15].Cents(),
		cfg.Pricing[db.Duration30].Cents(),
		cfg.MaxBookingsPerDay,
	).Scan(&saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, apperrors.NewStorageError("upsert availability", err)
	}
	return &saved, nil
}

func moneyFromCents(c int64) money.Money {
	return money.FromCents(c)
}
