package telemetry

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/quoteflow/backend/internal/domain/notification"
)

var (
	attrReason   = attribute.Key("reason")
	attrROT      = attribute.Key("rot")
	attrOverride = attribute.Key("identifier_override")
	attrKind     = attribute.Key("kind")
	attrOutcome  = attribute.Key("outcome")
	attrTenant   = attribute.Key("tenant_id")
)

// AcceptanceMetrics counts acceptance outcomes and notification deliveries
type AcceptanceMetrics struct {
	accepted      metric.Int64Counter
	rejected      metric.Int64Counter
	rotAmount     metric.Float64Histogram
	notifications metric.Int64Counter
	unlinked      metric.Int64Gauge
}

// NewAcceptanceMetrics creates the instruments on meter
func NewAcceptanceMetrics(meter metric.Meter) (*AcceptanceMetrics, error) {
	m := &AcceptanceMetrics{}
	var err error

	if m.accepted, err = meter.Int64Counter("quote.acceptances",
		metric.WithDescription("Quotes accepted by customers")); err != nil {
		return nil, fmt.Errorf("failed to create quote.acceptances: %w", err)
	}
	if m.rejected, err = meter.Int64Counter("quote.acceptance_rejections",
		metric.WithDescription("Acceptance attempts refused, by reason")); err != nil {
		return nil, fmt.Errorf("failed to create quote.acceptance_rejections: %w", err)
	}
	if m.rotAmount, err = meter.Float64Histogram("quote.rot_amount",
		metric.WithDescription("ROT deduction granted at acceptance"),
		metric.WithUnit("SEK"),
		metric.WithExplicitBucketBoundaries(AmountBuckets...)); err != nil {
		return nil, fmt.Errorf("failed to create quote.rot_amount: %w", err)
	}
	if m.notifications, err = meter.Int64Counter("notification.deliveries",
		metric.WithDescription("Notification deliveries by kind and outcome")); err != nil {
		return nil, fmt.Errorf("failed to create notification.deliveries: %w", err)
	}
	if m.unlinked, err = meter.Int64Gauge("quote.unlinked_acceptances",
		metric.WithDescription("Accepted quotes with no work order, per tenant, at the last audit")); err != nil {
		return nil, fmt.Errorf("failed to create quote.unlinked_acceptances: %w", err)
	}
	return m, nil
}

// RecordAccepted counts an acceptance and, with a deduction, its amount
func (m *AcceptanceMetrics) RecordAccepted(ctx context.Context, rotAmount *decimal.Decimal, overridesPreset bool) {
	m.accepted.Add(ctx, 1, metric.WithAttributes(
		attrROT.Bool(rotAmount != nil),
		attrOverride.Bool(overridesPreset),
	))
	if rotAmount != nil {
		amount, _ := rotAmount.Float64()
		m.rotAmount.Record(ctx, amount)
	}
}

// RecordRejected counts a refused acceptance
func (m *AcceptanceMetrics) RecordRejected(ctx context.Context, reason string) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(attrReason.String(reason)))
}

// RecordNotification counts a delivery outcome
func (m *AcceptanceMetrics) RecordNotification(ctx context.Context, kind notification.Kind, outcome string) {
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attrKind.String(string(kind)),
		attrOutcome.String(outcome),
	))
}

// RecordUnlinked reports the number of accepted quotes of a tenant that have no order
func (m *AcceptanceMetrics) RecordUnlinked(ctx context.Context, tenantID string, count int64) {
	m.unlinked.Record(ctx, count, metric.WithAttributes(attrTenant.String(tenantID)))
}
