package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderTotals(t *testing.T) {
	order := Order{
		FoodTotal:   42.50,
		DeliveryFee: 5.99,
		OrderedItems: []OrderItem{
			{Name: "Margherita", UnitPrice: 12.50, Quantity: 2},
			{Name: "Tiramisu", UnitPrice: 8.75, Quantity: 2},
		},
	}

	assert.InDelta(t, 25.0, order.OrderedItems[0].LineTotal(), 0.001)
	assert.InDelta(t, 42.50, order.ItemsTotal(), 0.001)
	assert.InDelta(t, 48.49, order.GrandTotal(), 0.001)
}

func TestOrderDraftHandling(t *testing.T) {
	draft := Order{ID: "drafts.abc123"}
	assert.True(t, draft.IsDraft())
	assert.Equal(t, "abc123", draft.DocumentID())

	published := Order{ID: "abc123"}
	assert.False(t, published.IsDraft())
	assert.Equal(t, "abc123", published.DocumentID())

	assert.Equal(t, "abc123", TrimDraftID("drafts.abc123"))
	assert.Equal(t, "abc123", TrimDraftID("abc123"))
}

func TestOrderShortID(t *testing.T) {
	order := Order{ID: "drafts.f81aa2c99e1d4b7f"}
	assert.Equal(t, "1D4B7F", order.ShortID())

	short := Order{ID: "ab12"}
	assert.Equal(t, "AB12", short.ShortID())
}
