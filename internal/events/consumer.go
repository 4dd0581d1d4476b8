package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultPrefetch bounds how many unacknowledged events a consumer holds
const DefaultPrefetch = 10

// ErrDeliveriesClosed is returned by Run when the broker stops delivering
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Handler processes one decoded event. A returned error rejects the delivery.
type Handler func(ctx context.Context, event *Event) error

// acknowledger is the subset of amqp.Delivery used to settle a message
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// RabbitMQConsumer reads events from the audit queue
type RabbitMQConsumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQConsumer connects to RabbitMQ and declares the same topology the publisher uses
func NewRabbitMQConsumer(amqpURL string, logger *zap.Logger) (*RabbitMQConsumer, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch, DefaultExchangeName, DefaultQueueName); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup exchange: %w", err)
	}

	return &RabbitMQConsumer{
		conn:      conn,
		channel:   ch,
		queueName: DefaultQueueName,
		logger:    logger,
	}, nil
}

// ConnectConsumerWithRetry dials a consumer with the same backoff as ConnectWithRetry
func ConnectConsumerWithRetry(ctx context.Context, amqpURL string, maxRetries int, initialDelay time.Duration, logger *zap.Logger) (*RabbitMQConsumer, error) {
	return dialWithRetry(ctx, maxRetries, initialDelay, logger, func() (*RabbitMQConsumer, error) {
		return NewRabbitMQConsumer(amqpURL, logger)
	})
}

// Run consumes until ctx is cancelled or the broker closes the delivery channel.
// Successful deliveries are acked. Undecodable ones and handler failures are
// nacked without requeue so a poison message cannot loop.
func (c *RabbitMQConsumer) Run(ctx context.Context, prefetch int, handler Handler) error {
	if prefetch <= 0 {
		prefetch = DefaultPrefetch
	}
	if err := c.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := c.channel.Consume(
		c.queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			settle(ctx, d.Body, d, handler, c.logger)
		}
	}
}

// Close closes the channel and connection
func (c *RabbitMQConsumer) Close() error {
	var err error
	if c.channel != nil {
		err = c.channel.Close()
	}
	if c.conn != nil {
		if closeErr := c.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// DecodeEvent parses a delivery body into an Event
func DecodeEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Type == "" {
		return nil, errors.New("event has no type")
	}
	return &event, nil
}

func settle(ctx context.Context, body []byte, ack acknowledger, handler Handler, logger *zap.Logger) {
	event, err := DecodeEvent(body)
	if err != nil {
		logger.Warn("event_rejected", zap.Error(err), zap.Int("body_bytes", len(body)))
		if nackErr := ack.Nack(false, false); nackErr != nil {
			logger.Error("event_nack_failed", zap.Error(nackErr))
		}
		return
	}

	if err := handler(ctx, event); err != nil {
		logger.Error("event_handler_failed",
			zap.Error(err),
			zap.String("event_id", event.ID.String()),
			zap.String("event_type", string(event.Type)),
		)
		if nackErr := ack.Nack(false, false); nackErr != nil {
			logger.Error("event_nack_failed", zap.Error(nackErr))
		}
		return
	}

	if err := ack.Ack(false); err != nil {
		logger.Error("event_ack_failed", zap.Error(err), zap.String("event_id", event.ID.String()))
	}
}
