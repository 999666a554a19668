package notification

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/domain/notification"
	"github.com/quoteflow/backend/internal/infrastructure/logger"
)

// LogGateway writes notices to the log instead of delivering them. It is the
// default outside environments with a message broker.
type LogGateway struct {
	logger *zap.Logger
}

// NewLogGateway creates a LogGateway
func NewLogGateway(log *zap.Logger) *LogGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogGateway{logger: log}
}

// Send logs the notice at info level
func (g *LogGateway) Send(ctx context.Context, recipientID uuid.UUID, kind notification.Kind, payload notification.Payload) error {
	fields := []zap.Field{
		zap.String("recipient_id", recipientID.String()),
		zap.String("kind", string(kind)),
		zap.Any("payload", map[string]string(payload)),
	}
	if rid := logger.GetRequestID(ctx); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	g.logger.Info("notification", fields...)
	return nil
}

// Close is a no-op
func (g *LogGateway) Close() error { return nil }

var _ notification.Gateway = (*LogGateway)(nil)
