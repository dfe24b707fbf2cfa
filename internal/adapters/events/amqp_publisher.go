package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher delivers transition events to a RabbitMQ topic exchange.
// One channel is shared under a mutex; the outbox worker retries on our
// behalf, so a closed channel only needs to surface as an error.
type AMQPPublisher struct {
	logger   *slog.Logger
	conn     *amqp.Connection
	exchange string

	mu      sync.Mutex
	channel *amqp.Channel
}

// NewAMQPPublisher dials the broker and declares the durable exchange.
func NewAMQPPublisher(logger *slog.Logger, amqpURL, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{
		logger:   logger.With("module", "events.amqp_publisher", "layer", "adapter"),
		conn:     conn,
		exchange: exchange,
		channel:  ch,
	}, nil
}

// Publish routes the payload by event type. The message is persistent so the
// audit feed survives broker restarts.
func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || p.channel.IsClosed() {
		ch, err := p.conn.Channel()
		if err != nil {
			return fmt.Errorf("reopen amqp channel: %w", err)
		}
		p.channel = ch
	}

	err := p.channel.PublishWithContext(ctx, p.exchange, eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

// Close shuts down the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	return p.conn.Close()
}
