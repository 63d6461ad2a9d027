package service

import (
	"context"
	"testing"
	"time"

	"streambook/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCompleteElapsedBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.enable(t, "prov-1", 5)
	jobs := NewJobService(f.store, f.clock, zap.NewNop())

	early := f.mustBook(t, "prov-1", "sub-1", 10, "14:00")
	late := f.mustBook(t, "prov-1", "sub-2", 30, "15:00")
	pending := f.mustBook(t, "prov-1", "sub-3", 5, "14:20")
	for _, id := range []string{early.ID, late.ID} {
		_, err := f.lifecycle.Approve(ctx, id, "prov-1")
		require.NoError(t, err)
	}

	// Ends exactly now: not elapsed yet.
	f.clock.Set(early.EndsAt)
	n, err := jobs.CompleteElapsedBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f.clock.Set(early.EndsAt.Add(time.Minute))
	n, err = jobs.CompleteElapsedBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.lifecycle.Get(ctx, early.ID, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, db.StatusCompleted, got.Status)

	f.clock.Set(late.EndsAt.Add(time.Hour))
	n, err = jobs.CompleteElapsedBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = f.lifecycle.Get(ctx, pending.ID, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, db.StatusPending, got.Status)

	n, err = jobs.CompleteElapsedBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCompletionSweepKeepsStartWindowOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.enable(t, "prov-1", 5)
	jobs := NewJobService(f.store, f.clock, zap.NewNop())

	short := f.mustBook(t, "prov-1", "sub-1", 5, "14:00")
	_, err := f.lifecycle.Approve(ctx, short.ID, "prov-1")
	require.NoError(t, err)

	// The slot ended at 14:05 but the session may still be started until 14:10.
	for _, at := range []time.Duration{7 * time.Minute, StartWindowAfter} {
		f.clock.Set(short.StartsAt.Add(at))
		n, err := jobs.CompleteElapsedBookings(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		ok, err := f.lifecycle.CanStart(ctx, short.ID, "sub-1")
		require.NoError(t, err)
		assert.True(t, ok, "can start at T+%s", at)
	}

	f.clock.Set(short.StartsAt.Add(StartWindowAfter + time.Minute))
	n, err := jobs.CompleteElapsedBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.lifecycle.Get(ctx, short.ID, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, db.StatusCompleted, got.Status)
}
