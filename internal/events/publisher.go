package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"hallslot/internal/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	KeyBookingCreated = "booking.created"
	KeyBookingRemoved = "booking.removed"
	KeyCancelRequest  = "booking.cancel_requested"
	statusKeyPrefix   = "booking.status."
)

// StatusKey is the routing key for a booking entering status.
func StatusKey(status string) string {
	return statusKeyPrefix + strings.ToLower(strings.TrimSpace(status))
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends JSON messages to a durable topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		metrics.RecordEvent(key, "encode_failed")
		return fmt.Errorf("encode %s: %w", key, err)
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
	if err != nil {
		metrics.RecordEvent(key, "failed")
		return fmt.Errorf("publish %s: %w", key, err)
	}
	metrics.RecordEvent(key, "published")
	return nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
