package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/snackway/partner/internal/adapter/logger"
	"github.com/snackway/partner/internal/domain"
	"github.com/snackway/partner/internal/interfaces"
)

var (
	ErrInvalidPrepTime = errors.New("preparation time must be a positive number of minutes")
	ErrOrderNotFound   = errors.New("order not found")
	ErrAlreadyHandled  = errors.New("order was already handled")
)

// Service applies staff decisions to pending orders. Every decision path
// (modal buttons, push notification, countdown expiry) lands here, so the
// transition protocol exists exactly once: validate, re-check the order is
// still pending, release the alert, then patch the store with the new status
// and one appended audit entry.
type Service struct {
	repo      interfaces.OrderRepository
	alerts    interfaces.AlertClearer
	publisher interfaces.EventPublisher
	logger    logger.Logger

	// Serializes decisions so a countdown expiry racing a user decision
	// cannot both observe pending: the loser re-fetches after the winner's
	// synchronous-visibility mutation and sees the order handled.
	mu sync.Mutex
}

func NewService(
	repo interfaces.OrderRepository,
	alerts interfaces.AlertClearer,
	publisher interfaces.EventPublisher,
	lgr logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		alerts:    alerts,
		publisher: publisher,
		logger:    lgr,
	}
}

// Accept moves the order into preparing with the given estimate. Validation
// failures mutate nothing and leave the alert (and its sound) untouched:
// only a valid decision resolves an alert.
func (s *Service) Accept(ctx context.Context, orderID string, prepMinutes int) error {
	if prepMinutes < 1 {
		return ErrInvalidPrepTime
	}
	return s.decide(ctx, orderID, domain.StatusPreparing, prepMinutes)
}

// Reject cancels the order. No preparation time applies.
func (s *Service) Reject(ctx context.Context, orderID string) error {
	return s.decide(ctx, orderID, domain.StatusCancelled, 0)
}

func (s *Service) decide(ctx context.Context, orderID string, target domain.Status, prepMinutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := domain.TrimDraftID(orderID)

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("re-check order: %w", err)
	}
	if order == nil {
		s.alerts.Clear(id)
		return ErrOrderNotFound
	}

	// Conflict / duplicate-tap guard: if another device (or an earlier call)
	// already moved the order, dismiss the stale alert and append nothing.
	if order.Status != domain.StatusPending {
		s.alerts.Clear(id)
		s.logger.Info("decision_stale", "Order already handled, dismissing alert", "", map[string]interface{}{
			"order_id": id,
			"status":   string(order.Status),
		})
		return ErrAlreadyHandled
	}

	if !order.Status.CanTransitionTo(target) {
		return domain.ErrInvalidStatusTransition
	}

	// The decision is made: the alert resolves now. A store failure below is
	// surfaced as a retryable error, not by resurrecting the popup.
	s.alerts.Clear(id)

	entry := domain.StatusUpdate{
		Key:       uuid.NewString(),
		Status:    target,
		Timestamp: time.Now().UTC(),
	}

	if err := s.repo.ApplyDecision(ctx, id, target, prepMinutes, entry); err != nil {
		s.logger.Error("decision_patch_failed", "Failed to apply order decision", "", map[string]interface{}{
			"order_id": id,
			"status":   string(target),
		}, err)
		return fmt.Errorf("apply decision: %w", err)
	}

	s.logger.Info("decision_applied", "Order decision applied", "", map[string]interface{}{
		"order_id":     id,
		"status":       string(target),
		"prep_minutes": prepMinutes,
	})

	notification := interfaces.StatusChangedMessage{
		OrderID:     id,
		OldStatus:   domain.StatusPending,
		NewStatus:   target,
		PrepMinutes: prepMinutes,
		Timestamp:   entry.Timestamp,
	}
	if err := s.publisher.PublishStatusChanged(ctx, notification); err != nil {
		s.logger.Error("event_publish_failed", "Failed to publish status change", "", nil, err)
		// The transition itself succeeded; the event is best effort.
	}

	return nil
}
