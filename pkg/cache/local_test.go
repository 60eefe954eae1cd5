package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/cache"
)

func TestLocal_PutGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewLocal(10, time.Minute)

	entry := cache.Entry{Value: []byte("granted"), Revision: 3, WrittenAt: time.Now()}
	require.NoError(t, c.Put(ctx, "gate:u1:export", entry))

	got, ok, err := c.Get(ctx, "gate:u1:export")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("granted"), got.Value)
	assert.Equal(t, int64(3), got.Revision)

	_, ok, err = c.Get(ctx, "gate:u1:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocal_TTLExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewLocal(10, 10*time.Millisecond)

	require.NoError(t, c.Put(ctx, "k", cache.Entry{Value: []byte("v")}))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLocal_EvictsLRU(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewLocal(2, time.Minute)

	require.NoError(t, c.Put(ctx, "a", cache.Entry{Revision: 1}))
	require.NoError(t, c.Put(ctx, "b", cache.Entry{Revision: 2}))

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok, _ := c.Get(ctx, "a")
	require.True(t, ok)

	require.NoError(t, c.Put(ctx, "c", cache.Entry{Revision: 3}))
	assert.Equal(t, 2, c.Len())

	_, ok, _ = c.Get(ctx, "b")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "a")
	assert.True(t, ok)
	_, ok, _ = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestLocal_InvalidatePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewLocal(10, time.Minute)

	require.NoError(t, c.Put(ctx, "gate:u1:export", cache.Entry{}))
	require.NoError(t, c.Put(ctx, "gate:u1:ai_review", cache.Entry{}))
	require.NoError(t, c.Put(ctx, "gate:u2:export", cache.Entry{}))

	require.NoError(t, c.InvalidatePrefix(ctx, "gate:u1:"))

	_, ok, _ := c.Get(ctx, "gate:u1:export")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "gate:u1:ai_review")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "gate:u2:export")
	assert.True(t, ok)
}

func TestNewLocal_PanicsOnInvalidCapacity(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { cache.NewLocal(0, time.Second) })
}
