// Package scheduler runs periodic background jobs next to the HTTP server.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSchedulerNotRunning is returned when triggering a job on a stopped scheduler
var ErrSchedulerNotRunning = errors.New("scheduler is not running")

// UnlinkedQuoteCounter counts accepted quotes without an order, per tenant
type UnlinkedQuoteCounter interface {
	CountAcceptedWithoutOrder(ctx context.Context, acceptedBefore time.Time) (map[uuid.UUID]int64, error)
}

// UnlinkedRecorder receives the per-tenant counts of each audit
type UnlinkedRecorder interface {
	RecordUnlinked(ctx context.Context, tenantID string, count int64)
}

// LinkAuditConfig holds configuration for the link audit
type LinkAuditConfig struct {
	Enabled bool

	// Interval between audits
	Interval time.Duration

	// GracePeriod excludes acceptances still being materialized
	GracePeriod time.Duration

	// Timeout bounds a single audit run
	Timeout time.Duration
}

// DefaultLinkAuditConfig returns default configuration
func DefaultLinkAuditConfig() LinkAuditConfig {
	return LinkAuditConfig{
		Enabled:     true,
		Interval:    15 * time.Minute,
		GracePeriod: 5 * time.Minute,
		Timeout:     time.Minute,
	}
}

// LinkAuditScheduler periodically looks for accepted quotes that never got
// their work order, which only happens when a failed acceptance could not be
// rolled back. Every tenant with such quotes is logged at error level until an
// operator repairs them.
type LinkAuditScheduler struct {
	counter  UnlinkedQuoteCounter
	recorder UnlinkedRecorder
	logger   *zap.Logger
	config   LinkAuditConfig
	now      func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	reported  map[uuid.UUID]struct{}
}

// NewLinkAuditScheduler creates a new link audit scheduler. recorder may be nil.
func NewLinkAuditScheduler(counter UnlinkedQuoteCounter, recorder UnlinkedRecorder, logger *zap.Logger, config LinkAuditConfig) *LinkAuditScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultLinkAuditConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = defaults.GracePeriod
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	return &LinkAuditScheduler{
		counter:  counter,
		recorder: recorder,
		logger:   logger,
		config:   config,
		now:      time.Now,
		reported: make(map[uuid.UUID]struct{}),
	}
}

// Start starts the audit loop
func (s *LinkAuditScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Link audit scheduler is disabled")
		return nil
	}
	s.isRunning = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx)

	s.logger.Info("Link audit scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("grace_period", s.config.GracePeriod),
	)
	return nil
}

// Stop stops the loop and waits for a running audit to finish
func (s *LinkAuditScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Link audit scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Link audit scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the scheduler is running
func (s *LinkAuditScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// TriggerImmediate runs one audit now in the background
func (s *LinkAuditScheduler) TriggerImmediate(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.Audit(ctx)
	}()
	return nil
}

func (s *LinkAuditScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Audit(ctx)
		}
	}
}

// Audit runs a single pass and returns the per-tenant counts it found
func (s *LinkAuditScheduler) Audit(ctx context.Context) map[uuid.UUID]int64 {
	auditCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	started := s.now()
	counts, err := s.counter.CountAcceptedWithoutOrder(auditCtx, started.Add(-s.config.GracePeriod))
	if err != nil {
		s.logger.Error("Link audit failed", zap.Error(err))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for tenantID, count := range counts {
		s.logger.Error("Accepted quotes without work order",
			zap.String("tenant_id", tenantID.String()),
			zap.Int64("count", count),
		)
		if s.recorder != nil {
			s.recorder.RecordUnlinked(ctx, tenantID.String(), count)
		}
		s.reported[tenantID] = struct{}{}
	}

	// Tenants that were repaired since the last pass drop back to zero
	for tenantID := range s.reported {
		if _, still := counts[tenantID]; still {
			continue
		}
		if s.recorder != nil {
			s.recorder.RecordUnlinked(ctx, tenantID.String(), 0)
		}
		delete(s.reported, tenantID)
	}

	s.logger.Debug("Link audit completed",
		zap.Int("tenants", len(counts)),
		zap.Duration("duration", s.now().Sub(started)),
	)
	return counts
}
