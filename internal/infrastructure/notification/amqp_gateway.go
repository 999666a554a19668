package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/domain/notification"
	"github.com/quoteflow/backend/internal/infrastructure/logger"
)

// AMQPConfig configures the RabbitMQ gateway
type AMQPConfig struct {
	URL      string
	Exchange string
	Producer string
}

// publisher is the part of *amqp.Channel the gateway uses
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPGateway publishes notices as persistent JSON envelopes to a topic
// exchange. A downstream service renders and delivers them.
type AMQPGateway struct {
	exchange    string
	producer    string
	openChannel func() (publisher, error)
	closeConn   func() error
	now         func() time.Time
	logger      *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewAMQPGateway dials RabbitMQ and declares the exchange
func NewAMQPGateway(cfg AMQPConfig, log *zap.Logger) (*AMQPGateway, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("amqp url is required")
	}
	if cfg.Exchange == "" {
		return nil, fmt.Errorf("amqp exchange is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	host := ""
	if u, err := url.Parse(cfg.URL); err == nil {
		host = u.Host
	}
	log.Info("connecting to rabbitmq", zap.String("host", host), zap.String("exchange", cfg.Exchange))

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", cfg.Exchange, err)
	}
	_ = ch.Close()

	g := newAMQPGateway(cfg, func() (publisher, error) {
		return conn.Channel()
	}, log)
	g.closeConn = conn.Close
	return g, nil
}

func newAMQPGateway(cfg AMQPConfig, open func() (publisher, error), log *zap.Logger) *AMQPGateway {
	producer := cfg.Producer
	if producer == "" {
		producer = "quoteflow"
	}
	return &AMQPGateway{
		exchange:    cfg.Exchange,
		producer:    producer,
		openChannel: open,
		closeConn:   func() error { return nil },
		now:         time.Now,
		logger:      log,
	}
}

// Send publishes one notice. The request id on ctx, if any, becomes the
// correlation id.
func (g *AMQPGateway) Send(ctx context.Context, recipientID uuid.UUID, kind notification.Kind, payload notification.Payload) error {
	g.mu.Lock()
	closed := g.closed
	g.mu.Unlock()
	if closed {
		return fmt.Errorf("amqp gateway is closed")
	}

	env := newEnvelope(g.producer, logger.GetRequestID(ctx), recipientID, kind, payload, g.now())
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	ch, err := g.openChannel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	key := RoutingKey(kind)
	err = ch.PublishWithContext(ctx, g.exchange, key, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     env.Meta.ID,
		CorrelationId: env.Meta.CorrelationID,
		Timestamp:     env.Meta.Time,
		Type:          env.Meta.Type,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	g.logger.Debug("notification published",
		zap.String("exchange", g.exchange),
		zap.String("routing_key", key),
		zap.String("message_id", env.Meta.ID))
	return nil
}

// Close closes the connection
func (g *AMQPGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	return g.closeConn()
}

var _ notification.Gateway = (*AMQPGateway)(nil)
