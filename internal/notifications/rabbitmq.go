package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/olosevents/backend/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends a JSON document to a routing key.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// RabbitPublisher publishes persistent JSON messages to a topic exchange.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
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
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
}

func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// HostNotifier routes reservation notifications to the host messaging
// pipeline, keyed by notification type.
type HostNotifier struct {
	publisher Publisher
}

func NewHostNotifier(publisher Publisher) *HostNotifier {
	return &HostNotifier{publisher: publisher}
}

func (n *HostNotifier) NotifyHostOfJoin(ctx context.Context, notification models.ReservationNotification) error {
	notification.Type = models.ReservationEventJoined
	return n.publish(ctx, notification)
}

func (n *HostNotifier) NotifyHostOfCancellation(ctx context.Context, notification models.ReservationNotification) error {
	notification.Type = models.ReservationEventCancelled
	return n.publish(ctx, notification)
}

func (n *HostNotifier) publish(ctx context.Context, notification models.ReservationNotification) error {
	if err := n.publisher.PublishJSON(ctx, notification.Type, notification); err != nil {
		return fmt.Errorf("publish %s for event %s: %w", notification.Type, notification.EventID, err)
	}
	return nil
}
