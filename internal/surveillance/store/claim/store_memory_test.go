package claim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClaim(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	newStore := func() *MemoryStore {
		store := NewMemory()
		store.now = func() time.Time { return now }
		return store
	}

	t.Run("second claim on a held key loses", func(t *testing.T) {
		store := newStore()

		won, err := store.Claim(ctx, "sweep:claim:abc", time.Minute)
		require.NoError(t, err)
		assert.True(t, won)

		won, err = store.Claim(ctx, "sweep:claim:abc", time.Minute)
		require.NoError(t, err)
		assert.False(t, won)
	})

	t.Run("release frees the key", func(t *testing.T) {
		store := newStore()

		_, err := store.Claim(ctx, "sweep:claim:abc", time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "sweep:claim:abc"))

		won, err := store.Claim(ctx, "sweep:claim:abc", time.Minute)
		require.NoError(t, err)
		assert.True(t, won)
	})

	t.Run("expired claim can be retaken", func(t *testing.T) {
		store := newStore()

		_, err := store.Claim(ctx, "sweep:claim:abc", time.Minute)
		require.NoError(t, err)

		store.now = func() time.Time { return now.Add(2 * time.Minute) }
		won, err := store.Claim(ctx, "sweep:claim:abc", time.Minute)
		require.NoError(t, err)
		assert.True(t, won)
	})

	t.Run("distinct keys are independent", func(t *testing.T) {
		store := newStore()

		_, err := store.Claim(ctx, "sweep:claim:abc", time.Minute)
		require.NoError(t, err)
		won, err := store.Claim(ctx, "sweep:claim:def", time.Minute)
		require.NoError(t, err)
		assert.True(t, won)
	})
}
