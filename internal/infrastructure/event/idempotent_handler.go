package event

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/domain/shared"
)

// DefaultIdempotencyTTL is how long a handled key is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

// KeyedEvent is implemented by events that carry their own deduplication key.
// Two events with the same key are treated as one even if their IDs differ.
type KeyedEvent interface {
	IdempotencyKey() string
}

// KeyFunc derives the deduplication key of an event
type KeyFunc func(shared.DomainEvent) string

// DefaultKey uses the event's own key when it has one, otherwise its ID
func DefaultKey(evt shared.DomainEvent) string {
	if keyed, ok := evt.(KeyedEvent); ok {
		if key := keyed.IdempotencyKey(); key != "" {
			return key
		}
	}
	return "event:" + evt.EventID().String()
}

// IdempotencyStats is a snapshot of an IdempotentHandler's counters
type IdempotencyStats struct {
	Processed  int64 `json:"processed"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// IdempotentHandler wraps an EventHandler so that each key is handled once
// within the TTL. A key whose handling failed is released so a redelivery
// can retry it.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	keyFn   KeyFunc
	ttl     time.Duration
	logger  *zap.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithTTL overrides DefaultIdempotencyTTL
func WithTTL(ttl time.Duration) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		if ttl > 0 {
			h.ttl = ttl
		}
	}
}

// WithKeyFunc overrides DefaultKey
func WithKeyFunc(fn KeyFunc) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		if fn != nil {
			h.keyFn = fn
		}
	}
}

// NewIdempotentHandler wraps handler
func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	log *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		keyFn:   DefaultKey,
		ttl:     DefaultIdempotencyTTL,
		logger:  log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes delegates to the wrapped handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle claims the event's key and runs the wrapped handler. When the store
// is unavailable the event is handled anyway.
func (h *IdempotentHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	key := h.keyFn(evt)

	claimed, err := h.store.MarkProcessed(ctx, key, h.ttl)
	switch {
	case err != nil:
		h.logger.Warn("idempotency store unavailable, handling anyway",
			zap.String("key", key),
			zap.String("event_type", evt.EventType()),
			zap.Error(err),
		)
	case !claimed:
		h.duplicates.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("key", key),
			zap.String("event_type", evt.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, evt); err != nil {
		h.failed.Add(1)
		if claimed {
			if relErr := h.store.Release(context.WithoutCancel(ctx), key); relErr != nil {
				h.logger.Warn("failed to release idempotency key",
					zap.String("key", key),
					zap.Error(relErr),
				)
			}
		}
		return err
	}

	h.processed.Add(1)
	return nil
}

// Stats returns the handler's counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed:  h.processed.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
