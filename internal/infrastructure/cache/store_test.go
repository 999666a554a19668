package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/infrastructure/config"
)

func TestOpenIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("redis disabled uses memory", func(t *testing.T) {
		store, err := OpenIdempotencyStore(ctx, config.RedisConfig{}, true, nil)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		store, err := OpenIdempotencyStore(ctx, unreachable, false, zap.NewNop())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unreachable redis when required fails", func(t *testing.T) {
		store, err := OpenIdempotencyStore(ctx, unreachable, true, nil)
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}
