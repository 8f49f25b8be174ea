package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/snackway/partner/internal/adapter/logger"
	"github.com/snackway/partner/internal/interfaces"
)

// DecisionHandler routes notification-issued decisions into the Coordinator,
// so there is no mutation path parallel to the in-app one.
type DecisionHandler struct {
	coordinator interfaces.CoordinatorService
	logger      logger.Logger
}

func NewDecisionHandler(coordinator interfaces.CoordinatorService, lgr logger.Logger) *DecisionHandler {
	return &DecisionHandler{
		coordinator: coordinator,
		logger:      lgr,
	}
}

func (h *DecisionHandler) HandleDecision(ctx context.Context, body []byte) error {
	var msg interfaces.DecisionMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse decision message", "", nil, err)
		return err
	}

	var err error
	switch msg.Action {
	case interfaces.DecisionActionAccept:
		err = h.coordinator.Accept(ctx, msg.OrderID, msg.PrepMinutes)
	case interfaces.DecisionActionReject:
		err = h.coordinator.Reject(ctx, msg.OrderID)
	default:
		err = fmt.Errorf("unknown decision action: %s", msg.Action)
	}

	if err != nil {
		h.logger.Error("decision_failed", "Failed to apply notification decision", "", map[string]interface{}{
			"order_id": msg.OrderID,
			"action":   msg.Action,
		}, err)
	}
	return err
}
