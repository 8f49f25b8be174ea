package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/snackway/partner/internal/adapter/logger"
	"github.com/snackway/partner/internal/interfaces"
)

const (
	decisionsExchange = "partner_decisions"
	decisionsQueue    = "partner_decisions_agent"
)

type consumer struct {
	conn   Connection
	logger logger.Logger
}

func NewConsumer(conn Connection, lgr logger.Logger) interfaces.DecisionConsumer {
	return &consumer{conn: conn, logger: lgr}
}

// ConsumeDecisions delivers accept/reject messages issued from push
// notifications. The loop reconnects with a fixed delay and only stops when
// ctx is cancelled.
func (c *consumer) ConsumeDecisions(ctx context.Context, handler interfaces.DecisionHandler) error {
	for {
		err := c.consumeWithReconnect(ctx, handler)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			return nil
		}

		c.logger.Error("consumer_disconnected", "Decisions consumer disconnected, reconnecting", "", map[string]interface{}{
			"delay_seconds": 5,
		}, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *consumer) consumeWithReconnect(ctx context.Context, handler interfaces.DecisionHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(decisionsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare decisions exchange: %w", err)
	}

	q, err := ch.QueueDeclare(decisionsQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare decisions queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", decisionsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind decisions queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				// A decision that cannot be applied is not retryable from
				// the queue side: drop it rather than loop forever.
				msg.Nack(false, false)
			} else {
				msg.Ack(false)
			}
		}
	}
}
