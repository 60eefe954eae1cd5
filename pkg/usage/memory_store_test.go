package usage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/subscription"
	"github.com/dmitrymomot/gatekit/pkg/usage"
)

func TestMemoryStore_IncrementDecrement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := usage.NewMemoryStore()
	userID := uuid.New()
	resetAt := time.Now().UTC().AddDate(0, 1, 0)

	count, err := store.Increment(ctx, userID, subscription.FeatureExport, "2025-03-01", 1, 3, resetAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.Increment(ctx, userID, subscription.FeatureExport, "2025-03-01", 2, 3, resetAt)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = store.Decrement(ctx, userID, subscription.FeatureExport, "2025-03-01", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	rec, err := store.Get(ctx, userID, subscription.FeatureExport, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Count)
	assert.Equal(t, int64(3), rec.Limit)
	assert.WithinDuration(t, resetAt, rec.ResetAt, time.Second)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	t.Parallel()

	store := usage.NewMemoryStore()
	_, err := store.Get(context.Background(), uuid.New(), subscription.FeatureExport, "2025-03-01")
	assert.ErrorIs(t, err, usage.ErrRecordNotFound)

	_, err = store.Decrement(context.Background(), uuid.New(), subscription.FeatureExport, "2025-03-01", 1)
	assert.ErrorIs(t, err, usage.ErrRecordNotFound)
}

func TestMemoryStore_ConcurrentIncrementsLoseNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := usage.NewMemoryStore()
	userID := uuid.New()

	const workers = 32
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Increment(ctx, userID, subscription.FeatureExport, "2025-03-01", 1, 100, time.Now().Add(time.Hour))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := store.Get(ctx, userID, subscription.FeatureExport, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), rec.Count)
}

func TestMemoryStore_MarkThreshold(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := usage.NewMemoryStore()
	userID := uuid.New()

	first, err := store.MarkThreshold(ctx, userID, subscription.FeatureExport, "2025-03-01", 80)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkThreshold(ctx, userID, subscription.FeatureExport, "2025-03-01", 80)
	require.NoError(t, err)
	assert.False(t, again)

	// Different threshold and different period are independent.
	first, err = store.MarkThreshold(ctx, userID, subscription.FeatureExport, "2025-03-01", 90)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = store.MarkThreshold(ctx, userID, subscription.FeatureExport, "2025-04-01", 80)
	require.NoError(t, err)
	assert.True(t, first)
}

func TestMemoryStore_ArchivePeriods(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := usage.NewMemoryStore()
	userID := uuid.New()
	other := uuid.New()
	resetAt := time.Now().Add(time.Hour)

	_, err := store.Increment(ctx, userID, subscription.FeatureExport, "2025-02-01", 3, 3, resetAt)
	require.NoError(t, err)
	_, err = store.Increment(ctx, userID, subscription.FeatureExport, "2025-03-01", 1, 3, resetAt)
	require.NoError(t, err)
	_, err = store.Increment(ctx, other, subscription.FeatureExport, "2025-02-01", 2, 3, resetAt)
	require.NoError(t, err)

	require.NoError(t, store.ArchivePeriods(ctx, userID, "2025-03-01"))

	// Prior period is archived, current survives, other users untouched.
	_, err = store.Get(ctx, userID, subscription.FeatureExport, "2025-02-01")
	assert.ErrorIs(t, err, usage.ErrRecordNotFound)

	archived, ok := store.Archived(userID, subscription.FeatureExport, "2025-02-01")
	require.True(t, ok)
	assert.Equal(t, int64(3), archived.Count)

	rec, err := store.Get(ctx, userID, subscription.FeatureExport, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Count)

	rec, err = store.Get(ctx, other, subscription.FeatureExport, "2025-02-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Count)

	// Idempotent: a second archive changes nothing.
	require.NoError(t, store.ArchivePeriods(ctx, userID, "2025-03-01"))
	rec, err = store.Get(ctx, userID, subscription.FeatureExport, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Count)
}
