package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/cache"
)

// newTestShared creates a Redis cache tier backed by a miniredis server.
func newTestShared(t *testing.T) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewRedis(client, 5*time.Minute), mr
}

func TestTiered_L2HitPopulatesL1(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shared, _ := newTestShared(t)

	// Write through one process's cache, read through another's.
	writer := cache.NewTiered(cache.NewLocal(10, time.Minute), shared)
	reader := cache.NewTiered(cache.NewLocal(10, time.Minute), shared)

	entry := cache.Entry{Value: []byte("denied"), Revision: 7, WrittenAt: time.Now().UTC()}
	require.NoError(t, writer.Put(ctx, "gate:u1:export", entry))

	got, ok, err := reader.Get(ctx, "gate:u1:export")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("denied"), got.Value)
	assert.Equal(t, int64(7), got.Revision)

	// Second read must come from the reader's local tier even if the
	// shared tier loses the key.
	require.NoError(t, shared.Invalidate(ctx, "gate:u1:export"))
	_, ok, err = reader.Get(ctx, "gate:u1:export")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTiered_InvalidateRemovesBothTiers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shared, _ := newTestShared(t)
	c := cache.NewTiered(cache.NewLocal(10, time.Minute), shared)

	require.NoError(t, c.Put(ctx, "gate:u1:export", cache.Entry{Revision: 1}))
	require.NoError(t, c.Invalidate(ctx, "gate:u1:export"))

	_, ok, err := c.Get(ctx, "gate:u1:export")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = shared.Get(ctx, "gate:u1:export")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTiered_InvalidatePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shared, _ := newTestShared(t)
	c := cache.NewTiered(cache.NewLocal(10, time.Minute), shared)

	require.NoError(t, c.Put(ctx, "gate:u1:export", cache.Entry{Revision: 1}))
	require.NoError(t, c.Put(ctx, "gate:u1:ai_review", cache.Entry{Revision: 1}))
	require.NoError(t, c.Put(ctx, "gate:u2:export", cache.Entry{Revision: 4}))

	require.NoError(t, c.InvalidatePrefix(ctx, "gate:u1:"))

	_, ok, _ := c.Get(ctx, "gate:u1:export")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "gate:u1:ai_review")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "gate:u2:export")
	assert.True(t, ok)
}

func TestTiered_SharedTierDownDegradesToMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shared, mr := newTestShared(t)
	c := cache.NewTiered(cache.NewLocal(10, 10*time.Millisecond), shared)

	require.NoError(t, c.Put(ctx, "k", cache.Entry{Revision: 2}))

	// Let the local entry expire, then take the shared tier down.
	time.Sleep(30 * time.Millisecond)
	mr.Close()

	// Degraded shared tier must read as a miss, never an error: the caller
	// recomputes from the authoritative stores.
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Invalidation soft-fails with a warning instead of failing the caller.
	require.NoError(t, c.Invalidate(ctx, "k"))
	require.NoError(t, c.InvalidatePrefix(ctx, "gate:"))
}

func TestTiered_WithoutSharedTier(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewTiered(cache.NewLocal(10, time.Minute), nil)

	require.NoError(t, c.Put(ctx, "k", cache.Entry{Revision: 9}))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(9), got.Revision)

	require.NoError(t, c.Invalidate(ctx, "k"))
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
}
