package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/snackway/partner/internal/interfaces"
	amqp "github.com/rabbitmq/amqp091-go"
)

const eventsExchange = "partner_events"

type publisher struct {
	conn Connection
}

func NewPublisher(conn Connection) interfaces.EventPublisher {
	return &publisher{conn: conn}
}

// PublishOrderAlert fans out a new-order alert so the push-notification
// sender can reach devices where the app is backgrounded.
func (p *publisher) PublishOrderAlert(ctx context.Context, msg interfaces.OrderAlertMessage) error {
	return p.publish("order.alert", msg)
}

func (p *publisher) PublishStatusChanged(ctx context.Context, msg interfaces.StatusChangedMessage) error {
	return p.publish("order.status_changed", msg)
}

func (p *publisher) publish(eventType string, payload any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(eventsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.Publish(eventsExchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Type:        eventType,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}
