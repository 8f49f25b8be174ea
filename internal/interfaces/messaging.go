package interfaces

import (
	"context"
	"time"

	"github.com/snackway/partner/internal/domain"
)

// RabbitMQ messages
type OrderAlertMessage struct {
	OrderID      string    `json:"order_id"`
	ReceiverName string    `json:"receiver_name"`
	FoodTotal    float64   `json:"food_total"`
	ItemCount    int       `json:"item_count"`
	RaisedAt     time.Time `json:"raised_at"`
}

type StatusChangedMessage struct {
	OrderID     string        `json:"order_id"`
	OldStatus   domain.Status `json:"old_status"`
	NewStatus   domain.Status `json:"new_status"`
	PrepMinutes int           `json:"prep_minutes,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// DecisionMessage arrives from the push-notification side when staff accept
// or reject straight from a notification.
type DecisionMessage struct {
	OrderID     string `json:"order_id"`
	Action      string `json:"action"` // "accept" or "reject"
	PrepMinutes int    `json:"prep_minutes,omitempty"`
}

const (
	DecisionActionAccept = "accept"
	DecisionActionReject = "reject"
)

// Messaging interfaces (Adapter/RabbitMQ)
type EventPublisher interface {
	PublishOrderAlert(ctx context.Context, msg OrderAlertMessage) error
	PublishStatusChanged(ctx context.Context, msg StatusChangedMessage) error
}

type DecisionConsumer interface {
	ConsumeDecisions(ctx context.Context, handler DecisionHandler) error
}

type DecisionHandler func(ctx context.Context, body []byte) error
