package domain

// AlertState is the incoming-order alert slot: either idle, or alerting for
// exactly one order. Transitions are pure so the dedup logic is testable
// without timers or the store.
type AlertState struct {
	orderID string
}

func IdleAlert() AlertState {
	return AlertState{}
}

func (a AlertState) Idle() bool {
	return a.orderID == ""
}

// Alerting reports whether the slot currently holds the given order.
func (a AlertState) Alerting(orderID string) bool {
	return a.orderID != "" && a.orderID == TrimDraftID(orderID)
}

func (a AlertState) OrderID() string {
	return a.orderID
}

// Offer proposes a candidate pending order. First wins: the transition is
// accepted only from the idle state; re-offers of the current order and
// offers of a second order while alerting are both no-ops.
func (a AlertState) Offer(orderID string) (AlertState, bool) {
	id := TrimDraftID(orderID)
	if id == "" || !a.Idle() {
		return a, false
	}
	return AlertState{orderID: id}, true
}

// Clear releases the slot if it holds the given order. Clearing a different
// order's alert is refused so a stale resolution cannot cancel a newer one.
func (a AlertState) Clear(orderID string) (AlertState, bool) {
	if !a.Alerting(orderID) {
		return a, false
	}
	return AlertState{}, true
}
