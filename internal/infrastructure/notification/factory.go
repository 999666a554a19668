package notification

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/domain/notification"
	"github.com/quoteflow/backend/internal/infrastructure/config"
)

// ClosableGateway is a gateway holding resources
type ClosableGateway interface {
	notification.Gateway
	io.Closer
}

// NewGateway selects the gateway named by cfg.Driver
func NewGateway(cfg config.NotificationConfig, producer string, log *zap.Logger) (ClosableGateway, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Driver {
	case "", "log":
		return NewLogGateway(log.Named("notification")), nil
	case "amqp":
		return NewAMQPGateway(AMQPConfig{
			URL:      cfg.AMQPURL,
			Exchange: cfg.Exchange,
			Producer: producer,
		}, log.Named("notification"))
	default:
		return nil, fmt.Errorf("unknown notification driver %q", cfg.Driver)
	}
}
