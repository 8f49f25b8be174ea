package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/snackway/partner/internal/adapter/logger"
	"github.com/snackway/partner/internal/domain"
	"github.com/snackway/partner/internal/interfaces"
)

// Service watches for pending orders and owns the alert slot. Three sources
// feed it: the store's change stream, a periodic poll, and a one-shot
// re-check after the app returns to the foreground. All of them funnel into
// the same AlertState machine, so an order raises its alert exactly once no
// matter which source sees it first, and no source failure ever raises or
// clears an alert on its own.
type Service struct {
	repo      interfaces.OrderRepository
	feed      interfaces.OrderFeed
	sound     interfaces.SoundController
	presenter interfaces.Presenter
	publisher interfaces.EventPublisher
	logger    logger.Logger

	restaurantID    string
	pollInterval    time.Duration
	resumeSettle    time.Duration
	decisionTimeout time.Duration

	mu            sync.Mutex
	state         domain.AlertState
	current       *domain.Order
	decider       interfaces.Decider
	decisionTimer *time.Timer
	sessionCancel context.CancelFunc
	sourceCancel  context.CancelFunc
	resumeCancel  context.CancelFunc
	sessionCtx    context.Context
}

func NewService(
	repo interfaces.OrderRepository,
	feed interfaces.OrderFeed,
	sound interfaces.SoundController,
	presenter interfaces.Presenter,
	publisher interfaces.EventPublisher,
	lgr logger.Logger,
	restaurantID string,
	pollInterval, resumeSettle, decisionTimeout time.Duration,
) *Service {
	return &Service{
		repo:            repo,
		feed:            feed,
		sound:           sound,
		presenter:       presenter,
		publisher:       publisher,
		logger:          lgr,
		restaurantID:    restaurantID,
		pollInterval:    pollInterval,
		resumeSettle:    resumeSettle,
		decisionTimeout: decisionTimeout,
		state:           domain.IdleAlert(),
	}
}

// SetDecider wires the countdown auto-reject path. Must be called before
// Start; the Coordinator is constructed after the Monitor because it also
// holds the Monitor as its AlertClearer.
func (s *Service) SetDecider(d interfaces.Decider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decider = d
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.sessionCancel != nil {
		s.mu.Unlock()
		return fmt.Errorf("monitor already started")
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	s.sessionCtx = sessionCtx
	s.sessionCancel = cancel
	s.mu.Unlock()

	if err := s.startSources(sessionCtx); err != nil {
		cancel()
		s.mu.Lock()
		s.sessionCancel = nil
		s.mu.Unlock()
		return err
	}

	s.logger.Info("monitor_started", "Incoming-order monitor started", "", map[string]interface{}{
		"restaurant_id":         s.restaurantID,
		"poll_interval_seconds": int(s.pollInterval.Seconds()),
	})
	return nil
}

// Shutdown tears the session down: sources stopped, alert cleared, sound
// released.
func (s *Service) Shutdown() {
	s.mu.Lock()
	cancel := s.sessionCancel
	s.sessionCancel = nil
	s.sourceCancel = nil
	s.resumeCancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if id := s.currentID(); id != "" {
		s.Clear(id)
	}
	s.sound.Stop()
	s.logger.Info("monitor_stopped", "Incoming-order monitor stopped", "", nil)
}

// Pause stops the poll and unsubscribes the change stream, e.g. when the app
// is backgrounded. The alert slot is left as is.
func (s *Service) Pause() {
	s.mu.Lock()
	cancel := s.sourceCancel
	s.sourceCancel = nil
	resumeCancel := s.resumeCancel
	s.resumeCancel = nil
	s.mu.Unlock()

	// A resume still settling is abandoned too.
	if resumeCancel != nil {
		resumeCancel()
	}
	if cancel != nil {
		cancel()
		s.logger.Debug("monitor_paused", "Event sources paused", "", nil)
	}
}

// Resume re-establishes the sources after a short settle delay, then runs a
// one-shot re-check so a pending order that arrived while paused is noticed
// without waiting a full poll interval.
func (s *Service) Resume() {
	s.mu.Lock()
	sessionCtx := s.sessionCtx
	if sessionCtx == nil || sessionCtx.Err() != nil || s.sourceCancel != nil || s.resumeCancel != nil {
		s.mu.Unlock()
		return
	}
	// Claim the resume before sleeping, so a second Resume inside the
	// settle window cannot start a second set of sources.
	resumeCtx, cancel := context.WithCancel(sessionCtx)
	s.resumeCancel = cancel
	s.mu.Unlock()

	go func() {
		select {
		case <-resumeCtx.Done():
			return
		case <-time.After(s.resumeSettle):
		}

		// A Pause (or Shutdown) during the settle delay wins.
		s.mu.Lock()
		if resumeCtx.Err() != nil || s.resumeCancel == nil {
			s.mu.Unlock()
			return
		}
		s.resumeCancel = nil
		s.mu.Unlock()
		cancel()

		if err := s.startSources(sessionCtx); err != nil {
			s.logger.Error("monitor_resume_failed", "Failed to resume event sources", "", nil, err)
			return
		}
		s.pollOnce(sessionCtx)
	}()
}

// Clear releases the alert slot for the given order: sound stopped, timer
// disarmed, presentation dismissed. Returns false if the slot holds a
// different order (or none), in which case nothing changes.
func (s *Service) Clear(orderID string) bool {
	s.mu.Lock()
	next, ok := s.state.Clear(orderID)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.state = next
	s.current = nil
	if s.decisionTimer != nil {
		s.decisionTimer.Stop()
		s.decisionTimer = nil
	}
	s.mu.Unlock()

	s.sound.Stop()
	s.presenter.OnAlertCleared()
	s.logger.Debug("alert_cleared", "Alert cleared", "", map[string]interface{}{
		"order_id": domain.TrimDraftID(orderID),
	})
	return true
}

// Current returns the order being alerted, or nil.
func (s *Service) Current() *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	order := *s.current
	return &order
}

func (s *Service) startSources(sessionCtx context.Context) error {
	sourceCtx, cancel := context.WithCancel(sessionCtx)

	changes, err := s.feed.PendingChanges(sourceCtx, s.restaurantID)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe pending orders: %w", err)
	}

	s.mu.Lock()
	s.sourceCancel = cancel
	s.mu.Unlock()

	go s.run(sourceCtx, changes)
	return nil
}

func (s *Service) run(ctx context.Context, changes <-chan interfaces.OrderChange) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case change, ok := <-changes:
			if !ok {
				return
			}
			s.handleChange(ctx, change)

		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Service) handleChange(ctx context.Context, change interfaces.OrderChange) {
	switch change.Transition {
	case interfaces.TransitionAppear, interfaces.TransitionUpdate:
		if change.Status != domain.StatusPending {
			return
		}
		s.offer(ctx, change.OrderID)

	case interfaces.TransitionDisappear:
		// The feed is filtered on pending, so leaving it means the order
		// was handled (possibly on another device).
		s.Clear(change.OrderID)
	}
}

// pollOnce is the periodic source: verify a live alert is still pending, or
// look for the oldest pending order when idle.
func (s *Service) pollOnce(ctx context.Context) {
	if id := s.currentID(); id != "" {
		order, err := s.repo.FindByID(ctx, id)
		if err != nil {
			s.logger.Error("poll_failed", "Failed to re-check alerting order", "", nil, err)
			return
		}
		if order == nil || order.Status != domain.StatusPending {
			s.Clear(id)
		}
		return
	}

	order, err := s.repo.OldestPending(ctx, s.restaurantID)
	if err != nil {
		s.logger.Error("poll_failed", "Failed to poll pending orders", "", nil, err)
		return
	}
	if order == nil {
		return
	}
	s.offer(ctx, order.ID)
}

// offer runs a candidate through the state machine. The full order is
// fetched before committing, and the slot is re-checked afterwards: by the
// time the fetch resolves a decision may already have been made.
func (s *Service) offer(ctx context.Context, orderID string) {
	s.mu.Lock()
	_, would := s.state.Offer(orderID)
	s.mu.Unlock()
	if !would {
		return
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		s.logger.Error("alert_fetch_failed", "Failed to fetch candidate order", "", map[string]interface{}{
			"order_id": domain.TrimDraftID(orderID),
		}, err)
		return
	}
	if order == nil || order.Status != domain.StatusPending || order.IsDraft() {
		return
	}

	s.mu.Lock()
	next, ok := s.state.Offer(order.ID)
	if !ok {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.current = order
	s.armDecisionTimer(order.DocumentID())
	// The sound outlives a Pause; only session teardown may kill it.
	soundCtx := s.sessionCtx
	s.mu.Unlock()

	if soundCtx == nil {
		soundCtx = ctx
	}
	s.sound.Start(soundCtx)

	// A decision may have landed while the sound was starting. The slot is
	// already released then, so reap the loop and present nothing.
	s.mu.Lock()
	stillAlerting := s.state.Alerting(order.ID)
	s.mu.Unlock()
	if !stillAlerting {
		s.sound.Stop()
		return
	}

	s.presenter.OnNewOrderAlert(*order)

	if err := s.publisher.PublishOrderAlert(ctx, interfaces.OrderAlertMessage{
		OrderID:      order.DocumentID(),
		ReceiverName: order.ReceiverName,
		FoodTotal:    order.FoodTotal,
		ItemCount:    len(order.OrderedItems),
		RaisedAt:     time.Now().UTC(),
	}); err != nil {
		s.logger.Error("alert_publish_failed", "Failed to publish order alert", "", nil, err)
	}

	s.logger.Info("alert_raised", "New order alert raised", "", map[string]interface{}{
		"order_id": order.DocumentID(),
	})
}

// armDecisionTimer schedules the countdown auto-reject. Expiry goes through
// the Coordinator like any other decision. Caller holds s.mu.
func (s *Service) armDecisionTimer(orderID string) {
	if s.decisionTimer != nil {
		s.decisionTimer.Stop()
	}
	if s.decisionTimeout <= 0 || s.decider == nil {
		return
	}
	decider := s.decider
	sessionCtx := s.sessionCtx
	s.decisionTimer = time.AfterFunc(s.decisionTimeout, func() {
		if sessionCtx != nil && sessionCtx.Err() != nil {
			return
		}
		s.logger.Info("alert_timeout", "Decision countdown expired, auto-rejecting", "", map[string]interface{}{
			"order_id": orderID,
		})
		if err := decider.Reject(context.Background(), orderID); err != nil {
			s.logger.Error("auto_reject_failed", "Failed to auto-reject order", "", map[string]interface{}{
				"order_id": orderID,
			}, err)
		}
	})
}

func (s *Service) currentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.OrderID()
}
