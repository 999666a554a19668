package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/infrastructure/config"
)

const dialTimeout = 5 * time.Second

// DialRedis connects to the configured Redis and pings it once
func DialRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	addr := cfg.Addr()
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// OpenIdempotencyStore returns the Redis store when Redis is enabled and the
// in-memory store when it is not. An enabled but unreachable Redis is an
// error when requireRedis is set; otherwise the process falls back to memory
// and claims stop being shared between instances.
func OpenIdempotencyStore(ctx context.Context, cfg config.RedisConfig, requireRedis bool, log *zap.Logger) (shared.IdempotencyStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Enabled {
		log.Info("Redis disabled, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}

	client, err := DialRedis(ctx, cfg)
	if err != nil {
		if requireRedis {
			return nil, err
		}
		log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		return NewInMemoryIdempotencyStore(), nil
	}

	log.Info("Using Redis idempotency store", zap.String("addr", client.Options().Addr))
	return NewRedisIdempotencyStore(client, DefaultKeyPrefix), nil
}
