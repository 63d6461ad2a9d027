package repository

import (
	"context"
	"encoding/json"
	"errors"
	"streambook/internal/db"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type availabilitySource interface {
	GetAvailability(ctx context.Context, providerID string) (*db.AvailabilityConfig, error)
	UpsertAvailability(ctx context.Context, cfg db.AvailabilityConfig) (*db.AvailabilityConfig, error)
}

// CachedAvailabilityRepository is a read-through Redis cache in front of the
// availability store. Cache failures fall back to the store.
type CachedAvailabilityRepository struct {
	source availabilitySource
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedAvailabilityRepository(source availabilitySource, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedAvailabilityRepository {
	return &CachedAvailabilityRepository{source: source, client: client, ttl: ttl, logger: logger}
}

func availabilityKey(providerID string) string {
	return "availability:" + providerID
}

// GetAvailability fills the cache with SETNX so a read that raced an upsert
// never replaces the entry the upsert wrote.
func (r *CachedAvailabilityRepository) GetAvailability(ctx context.Context, providerID string) (*db.AvailabilityConfig, error) {
	key := availabilityKey(providerID)
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cfg db.AvailabilityConfig
		if jsonErr := json.Unmarshal(raw, &cfg); jsonErr == nil {
			return &cfg, nil
		}
		r.logger.Warn("discarding corrupt availability cache entry", zap.String("provider_id", providerID))
		r.invalidate(ctx, providerID)
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("availability cache read failed", zap.String("provider_id", providerID), zap.Error(err))
	}

	cfg, err := r.source.GetAvailability(ctx, providerID)
	if err != nil || cfg == nil {
		return cfg, err
	}
	if payload, err := json.Marshal(cfg); err == nil {
		if err := r.client.SetNX(ctx, key, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("availability cache write failed", zap.String("provider_id", providerID), zap.Error(err))
		}
	}
	return cfg, nil
}

// UpsertAvailability writes the saved config through to the cache, replacing
// anything a concurrent read filled from the previous row.
func (r *CachedAvailabilityRepository) UpsertAvailability(ctx context.Context, cfg db.AvailabilityConfig) (*db.AvailabilityConfig, error) {
	saved, err := r.source.UpsertAvailability(ctx, cfg)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(saved)
	if err == nil {
		err = r.client.Set(ctx, availabilityKey(saved.ProviderID), payload, r.ttl).Err()
	}
	if err != nil {
		r.logger.Warn("availability cache refresh failed", zap.String("provider_id", saved.ProviderID), zap.Error(err))
		r.invalidate(ctx, saved.ProviderID)
	}
	return saved, nil
}

func (r *CachedAvailabilityRepository) invalidate(ctx context.Context, providerID string) {
	if err := r.client.Del(ctx, availabilityKey(providerID)).Err(); err != nil {
		r.logger.Warn("availability cache invalidation failed", zap.String("provider_id", providerID), zap.Error(err))
	}
}
