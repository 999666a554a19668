package notification

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/domain/notification"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/infrastructure/logger"
	"github.com/quoteflow/backend/internal/infrastructure/telemetry"
)

// Recorder observes delivery outcomes
type Recorder interface {
	RecordNotification(ctx context.Context, kind notification.Kind, outcome string)
}

// Delivery outcomes reported to the Recorder
const (
	OutcomeSent      = "sent"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
)

// DispatcherConfig tunes the dispatcher
type DispatcherConfig struct {
	SendTimeout time.Duration
	DedupTTL    time.Duration
}

// Dispatcher applies post-commit effects in the background. Each send gets its
// own timeout and is detached from the caller's cancellation. Effects with a
// DedupKey are claimed in the idempotency store first and released again if
// delivery fails.
type Dispatcher struct {
	gateway  notification.Gateway
	store    shared.IdempotencyStore
	cfg      DispatcherConfig
	recorder Recorder
	logger   *zap.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. store may be nil to disable de-duplication.
func NewDispatcher(gateway notification.Gateway, store shared.IdempotencyStore, cfg DispatcherConfig, log *zap.Logger) *Dispatcher {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 24 * time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		gateway: gateway,
		store:   store,
		cfg:     cfg,
		logger:  log,
	}
}

// SetRecorder sets the delivery outcome recorder
func (d *Dispatcher) SetRecorder(r Recorder) {
	d.recorder = r
}

// Dispatch sends effects without blocking the caller
func (d *Dispatcher) Dispatch(ctx context.Context, effects notification.Effects) {
	if len(effects) == 0 {
		return
	}
	detached := context.WithoutCancel(ctx)
	batch := append(notification.Effects(nil), effects...)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for _, e := range batch {
			d.deliver(detached, e)
		}
	}()
}

// Wait blocks until every dispatched effect has been handled or ctx is done
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, e notification.Effect) {
	log := logger.WithTraceContext(ctx, d.logger).With(
		zap.String("tenant_id", e.TenantID.String()),
		zap.String("recipient_id", e.RecipientID.String()),
		zap.String("kind", string(e.Kind)))

	claimed := false
	if e.DedupKey != "" && d.store != nil {
		ok, err := d.store.MarkProcessed(ctx, e.DedupKey, d.cfg.DedupTTL)
		switch {
		case err != nil:
			// deliver anyway; a duplicate beats a lost notice
			log.Warn("notification de-duplication unavailable", zap.Error(err))
		case !ok:
			log.Debug("notification already delivered", zap.String("dedup_key", e.DedupKey))
			d.record(ctx, e.Kind, OutcomeDuplicate)
			return
		default:
			claimed = true
		}
	}

	sendCtx, span := telemetry.StartSpan(ctx, "notification.send",
		attribute.String("notification.kind", string(e.Kind)))
	sendCtx, cancel := context.WithTimeout(sendCtx, d.cfg.SendTimeout)
	err := d.gateway.Send(sendCtx, e.RecipientID, e.Kind, e.Payload)
	cancel()
	telemetry.EndSpan(span, err)

	if err != nil {
		log.Warn("notification not delivered", zap.Error(err))
		if claimed {
			if relErr := d.store.Release(ctx, e.DedupKey); relErr != nil {
				log.Warn("failed to release notification claim", zap.Error(relErr))
			}
		}
		d.record(ctx, e.Kind, OutcomeFailed)
		return
	}
	d.record(ctx, e.Kind, OutcomeSent)
}

func (d *Dispatcher) record(ctx context.Context, kind notification.Kind, outcome string) {
	if d.recorder != nil {
		d.recorder.RecordNotification(ctx, kind, outcome)
	}
}

var _ notification.Dispatcher = (*Dispatcher)(nil)
