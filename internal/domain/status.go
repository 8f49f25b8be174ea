package domain

import "errors"

type Status string

const (
	StatusPending        Status = "pending"
	StatusPreparing      Status = "preparing"
	StatusReadyForPickup Status = "readyForPickup"
	StatusAssigned       Status = "assigned"
	StatusOnTheWay       Status = "onTheWay"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// ActiveStatuses are the statuses counted towards the partner's active-order
// badge: everything that is not terminal.
var ActiveStatuses = []Status{
	StatusPending, StatusPreparing, StatusReadyForPickup, StatusAssigned, StatusOnTheWay,
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReadyForPickup,
		StatusAssigned, StatusOnTheWay, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further action applies to the order.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo checks if an order may move from s to newStatus.
// Later stages (assignment, courier handoff) belong to the delivery side;
// the partner only ever drives pending and preparing forward.
func (s Status) CanTransitionTo(newStatus Status) bool {
	validTransitions := map[Status][]Status{
		StatusPending:        {StatusPreparing, StatusCancelled},
		StatusPreparing:      {StatusReadyForPickup, StatusCancelled},
		StatusReadyForPickup: {StatusAssigned, StatusCancelled},
		StatusAssigned:       {StatusOnTheWay, StatusCancelled},
		StatusOnTheWay:       {StatusCompleted, StatusCancelled},
		StatusCompleted:      {},
		StatusCancelled:      {},
	}

	for _, next := range validTransitions[s] {
		if next == newStatus {
			return true
		}
	}
	return false
}

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrUnknownStatus           = errors.New("unknown order status")
)
