package repository

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"streambook/internal/db"
	"streambook/internal/money"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSource struct {
	*MemoryStore
	reads     atomic.Int32
	afterRead func()
}

func (s *countingSource) GetAvailability(ctx context.Context, providerID string) (*db.AvailabilityConfig, error) {
	s.reads.Add(1)
	cfg, err := s.MemoryStore.GetAvailability(ctx, providerID)
	if s.afterRead != nil {
		hook := s.afterRead
		s.afterRead = nil
		hook()
	}
	return cfg, err
}

func newCachedRepo(t *testing.T) (*CachedAvailabilityRepository, *countingSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	source := &countingSource{MemoryStore: NewMemoryStore(nil, zap.NewNop())}
	return NewCachedAvailabilityRepository(source, client, time.Minute, zap.NewNop()), source, mr
}

func enabledConfig(providerID string) db.AvailabilityConfig {
	cfg := db.DefaultAvailabilityConfig(providerID)
	cfg.Enabled = true
	cfg.Pricing[db.Duration10] = money.MustParse("90.00")
	return cfg
}

func TestCachedAvailabilityReadThrough(t *testing.T) {
	repo, source, mr := newCachedRepo(t)
	ctx := context.Background()

	_, err := repo.UpsertAvailability(ctx, enabledConfig("prov-1"))
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	first, err := repo.GetAvailability(ctx, "prov-1")
	require.NoError(t, err)
	second, err := repo.GetAvailability(ctx, "prov-1")
	require.NoError(t, err)

	assert.Equal(t, int32(1), source.reads.Load())
	assert.True(t, mr.Exists("availability:prov-1"))
	assert.Equal(t, first.Pricing, second.Pricing)
	assert.Equal(t, money.MustParse("90.00"), second.Pricing[db.Duration10])
	assert.True(t, second.Enabled)

	mr.FastForward(2 * time.Minute)
	_, err = repo.GetAvailability(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), source.reads.Load())
}

func TestCachedAvailabilityUpsertRefreshesEntry(t *testing.T) {
	repo, source, _ := newCachedRepo(t)
	ctx := context.Background()

	_, err := repo.UpsertAvailability(ctx, enabledConfig("prov-1"))
	require.NoError(t, err)
	_, err = repo.GetAvailability(ctx, "prov-1")
	require.NoError(t, err)

	updated := enabledConfig("prov-1")
	updated.Enabled = false
	_, err = repo.UpsertAvailability(ctx, updated)
	require.NoError(t, err)

	cfg, err := repo.GetAvailability(ctx, "prov-1")
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, int32(0), source.reads.Load())
}

func TestCachedAvailabilityStaleFillDoesNotOverwriteUpsert(t *testing.T) {
	repo, source, mr := newCachedRepo(t)
	ctx := context.Background()
	_, err := repo.UpsertAvailability(ctx, enabledConfig("prov-1"))
	require.NoError(t, err)
	mr.Del("availability:prov-1")

	// The provider disables bookings between the store read and the cache fill.
	disabled := enabledConfig("prov-1")
	disabled.Enabled = false
	source.afterRead = func() {
		_, err := repo.UpsertAvailability(ctx, disabled)
		require.NoError(t, err)
	}

	stale, err := repo.GetAvailability(ctx, "prov-1")
	require.NoError(t, err)
	assert.True(t, stale.Enabled)

	cfg, err := repo.GetAvailability(ctx, "prov-1")
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, int32(1), source.reads.Load())
}

func TestCachedAvailabilityDoesNotCacheMissingConfig(t *testing.T) {
	repo, source, mr := newCachedRepo(t)

	cfg, err := repo.GetAvailability(context.Background(), "prov-1")
	require.NoError(t, err)
	assert.Nil(t, cfg)
	assert.False(t, mr.Exists("availability:prov-1"))
	assert.Equal(t, int32(1), source.reads.Load())
}

func TestCachedAvailabilityFallsBackWhenRedisIsDown(t *testing.T) {
	repo, source, mr := newCachedRepo(t)
	ctx := context.Background()
	_, err := repo.UpsertAvailability(ctx, enabledConfig("prov-1"))
	require.NoError(t, err)

	mr.Close()

	cfg, err := repo.GetAvailability(ctx, "prov-1")
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, int32(1), source.reads.Load())
}

func TestCachedAvailabilityDiscardsCorruptEntries(t *testing.T) {
	repo, source, mr := newCachedRepo(t)
	ctx := context.Background()
	_, err := repo.UpsertAvailability(ctx, enabledConfig("prov-1"))
	require.NoError(t, err)
	require.NoError(t, mr.Set("availability:prov-1", "{not json"))

	cfg, err := repo.GetAvailability(ctx, "prov-1")
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, int32(1), source.reads.Load())
}
