package domain

import (
	"strings"
	"time"
)

const draftPrefix = "drafts."

// Order mirrors a foodOrder document from the content store. The store is
// the source of truth; instances here are read snapshots, never written back
// as a whole.
type Order struct {
	ID              string
	Status          Status
	OrderedItems    []OrderItem
	FoodTotal       float64
	DeliveryFee     float64
	PreparationTime int
	StatusUpdates   []StatusUpdate
	ReceiverName    string
	DeliveryAddress string
	CreatedAt       time.Time
}

type OrderItem struct {
	Name      string
	UnitPrice float64
	Quantity  int
}

// StatusUpdate is one entry of the order's append-only audit trail.
type StatusUpdate struct {
	Key       string
	Status    Status
	Timestamp time.Time
}

func (i OrderItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// ItemsTotal sums line totals over all ordered items.
func (o *Order) ItemsTotal() float64 {
	total := 0.0
	for _, item := range o.OrderedItems {
		total += item.LineTotal()
	}
	return total
}

// GrandTotal is the customer-facing total: food plus delivery fee.
func (o *Order) GrandTotal() float64 {
	return o.FoodTotal + o.DeliveryFee
}

// DocumentID strips the draft prefix so mutations always target the
// published document.
func (o *Order) DocumentID() string {
	return TrimDraftID(o.ID)
}

// IsDraft reports whether the snapshot came from an unpublished draft.
func (o *Order) IsDraft() bool {
	return strings.HasPrefix(o.ID, draftPrefix)
}

// ShortID is the human-facing order reference (last six characters,
// uppercased), matching what customers see on their receipt.
func (o *Order) ShortID() string {
	id := o.DocumentID()
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return strings.ToUpper(id)
}

func TrimDraftID(id string) string {
	return strings.TrimPrefix(id, draftPrefix)
}
