package acceptance

import (
	"context"

	"github.com/shopspring/decimal"
)

// Rejection reasons reported to Recorder
const (
	ReasonTokenNotFound  = "token_not_found"
	ReasonTokenExpired   = "token_expired"
	ReasonAlreadyHandled = "already_handled"
	ReasonValidation     = "validation"
	ReasonTransient      = "transient"
	ReasonFatal          = "fatal"
)

// Recorder receives acceptance outcomes
type Recorder interface {
	RecordAccepted(ctx context.Context, rotAmount *decimal.Decimal, overridesPreset bool)
	RecordRejected(ctx context.Context, reason string)
}

type noopRecorder struct{}

func (noopRecorder) RecordAccepted(context.Context, *decimal.Decimal, bool) {}
func (noopRecorder) RecordRejected(context.Context, string)                 {}
