package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "token", "abc123", 0))

	value, err := store.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc123", value)

	require.NoError(t, store.Delete(ctx, "token"))

	_, err = store.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GetMissingKey(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ExpiredKeyNotReturned(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SetOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "one", 0))
	require.NoError(t, store.Set(ctx, "k", "two", 0))

	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", value)
}

func TestMemoryStore_IncrCountsWithinWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.Incr(ctx, "counter", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMemoryStore_IncrResetsAfterWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Incr(ctx, "counter", time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	got, err := store.Incr(ctx, "counter", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
