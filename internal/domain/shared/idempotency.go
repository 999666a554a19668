package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already handled so that a repeated
// event or notification is processed only once within the TTL window.
type IdempotencyStore interface {
	// MarkProcessed claims key. It returns true if the key was newly marked and
	// false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release drops a claim so the key can be processed again, e.g. after the
	// work it guarded failed.
	Release(ctx context.Context, key string) error

	Close() error
}
