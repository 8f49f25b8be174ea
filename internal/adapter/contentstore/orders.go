package contentstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/snackway/partner/internal/domain"
	"github.com/snackway/partner/internal/interfaces"
)

const orderProjection = `{
  _id, foodTotal, deliveryFee, orderStatus, receiverName, deliveryAddress,
  _createdAt, preparationTime,
  "statusUpdates": statusUpdates[]{ _key, status, timestamp },
  "orderedItems": orderedItems[]{
    "name": @.item->name,
    "unitPrice": @.item->price,
    "quantity": @.quantity
  }
}`

const pendingFilter = `_type == "foodOrder" && restaurant._ref == $restaurantId && orderStatus == "pending" && !(_id in path("drafts.**"))`

type orderDoc struct {
	ID              string      `json:"_id"`
	Status          string      `json:"orderStatus"`
	FoodTotal       float64     `json:"foodTotal"`
	DeliveryFee     float64     `json:"deliveryFee"`
	ReceiverName    string      `json:"receiverName"`
	DeliveryAddress string      `json:"deliveryAddress"`
	PreparationTime int         `json:"preparationTime"`
	CreatedAt       time.Time   `json:"_createdAt"`
	OrderedItems    []itemDoc   `json:"orderedItems"`
	StatusUpdates   []updateDoc `json:"statusUpdates"`
}

type itemDoc struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

type updateDoc struct {
	Key       string    `json:"_key"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderRepository implements typed order access on top of the store client.
// No business logic lives here; failures propagate to the caller.
type OrderRepository struct {
	client *Client
}

func NewOrderRepository(client *Client) *OrderRepository {
	return &OrderRepository{client: client}
}

func (r *OrderRepository) FindByStatus(ctx context.Context, restaurantID string, status domain.Status) ([]domain.Order, error) {
	groq := fmt.Sprintf(`*[_type == "foodOrder" && restaurant._ref == $restaurantId && orderStatus == $status] | order(_createdAt desc)%s`, orderProjection)
	var docs []orderDoc
	err := r.client.Query(ctx, groq, map[string]any{"restaurantId": restaurantID, "status": string(status)}, &docs)
	if err != nil {
		return nil, fmt.Errorf("find orders by status: %w", err)
	}
	return toOrders(docs), nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	groq := fmt.Sprintf(`*[_type == "foodOrder" && _id == $id][0]%s`, orderProjection)
	var doc *orderDoc
	err := r.client.Query(ctx, groq, map[string]any{"id": domain.TrimDraftID(id)}, &doc)
	if err != nil {
		return nil, fmt.Errorf("find order by id: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	order := toOrder(*doc)
	return &order, nil
}

func (r *OrderRepository) OldestPending(ctx context.Context, restaurantID string) (*domain.Order, error) {
	groq := fmt.Sprintf(`*[%s] | order(_createdAt asc)[0]%s`, pendingFilter, orderProjection)
	var doc *orderDoc
	err := r.client.Query(ctx, groq, map[string]any{"restaurantId": restaurantID}, &doc)
	if err != nil {
		return nil, fmt.Errorf("find oldest pending order: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	order := toOrder(*doc)
	return &order, nil
}

func (r *OrderRepository) FindRecent(ctx context.Context, restaurantID string, limit int) ([]domain.Order, error) {
	groq := fmt.Sprintf(`*[_type == "foodOrder" && restaurant._ref == $restaurantId] | order(_createdAt desc)[0...%d]%s`, limit, orderProjection)
	var docs []orderDoc
	err := r.client.Query(ctx, groq, map[string]any{"restaurantId": restaurantID}, &docs)
	if err != nil {
		return nil, fmt.Errorf("find recent orders: %w", err)
	}
	return toOrders(docs), nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context, restaurantID string) (map[domain.Status]int, error) {
	groq := `{
	  "pending": count(*[_type == "foodOrder" && restaurant._ref == $restaurantId && orderStatus == "pending"]),
	  "preparing": count(*[_type == "foodOrder" && restaurant._ref == $restaurantId && orderStatus == "preparing"]),
	  "readyForPickup": count(*[_type == "foodOrder" && restaurant._ref == $restaurantId && orderStatus == "readyForPickup"]),
	  "assigned": count(*[_type == "foodOrder" && restaurant._ref == $restaurantId && orderStatus == "assigned"]),
	  "onTheWay": count(*[_type == "foodOrder" && restaurant._ref == $restaurantId && orderStatus == "onTheWay"]),
	  "completed": count(*[_type == "foodOrder" && restaurant._ref == $restaurantId && orderStatus == "completed"]),
	  "cancelled": count(*[_type == "foodOrder" && restaurant._ref == $restaurantId && orderStatus == "cancelled"])
	}`
	var counts map[string]int
	err := r.client.Query(ctx, groq, map[string]any{"restaurantId": restaurantID}, &counts)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	result := make(map[domain.Status]int, len(counts))
	for status, n := range counts {
		result[domain.Status(status)] = n
	}
	return result, nil
}

func (r *OrderRepository) CompletedBetween(ctx context.Context, restaurantID string, from, to time.Time) ([]domain.Order, error) {
	groq := fmt.Sprintf(`*[_type == "foodOrder" && restaurant._ref == $restaurantId && orderStatus == "completed" && _createdAt >= $from && _createdAt <= $to] | order(_createdAt desc)%s`, orderProjection)
	params := map[string]any{
		"restaurantId": restaurantID,
		"from":         from.UTC().Format(time.RFC3339),
		"to":           to.UTC().Format(time.RFC3339),
	}
	var docs []orderDoc
	if err := r.client.Query(ctx, groq, params, &docs); err != nil {
		return nil, fmt.Errorf("find completed orders: %w", err)
	}
	return toOrders(docs), nil
}

// CreatedBetween returns the day's non-cancelled orders for dashboard stats.
func (r *OrderRepository) CreatedBetween(ctx context.Context, restaurantID string, from, to time.Time) ([]domain.Order, error) {
	groq := fmt.Sprintf(`*[_type == "foodOrder" && restaurant._ref == $restaurantId && orderStatus != "cancelled" && _createdAt >= $from && _createdAt <= $to] | order(_createdAt desc)%s`, orderProjection)
	params := map[string]any{
		"restaurantId": restaurantID,
		"from":         from.UTC().Format(time.RFC3339),
		"to":           to.UTC().Format(time.RFC3339),
	}
	var docs []orderDoc
	if err := r.client.Query(ctx, groq, params, &docs); err != nil {
		return nil, fmt.Errorf("find created orders: %w", err)
	}
	return toOrders(docs), nil
}

// ApplyDecision performs the status transition as a single mutation: scalar
// sets plus a native append to the audit trail. The trail array is seeded
// when missing so the append cannot fail on older documents.
func (r *OrderRepository) ApplyDecision(ctx context.Context, id string, status domain.Status, prepMinutes int, entry domain.StatusUpdate) error {
	patch := NewPatch(domain.TrimDraftID(id)).
		Set("orderStatus", string(status)).
		SetIfMissing("statusUpdates", []any{}).
		Append("statusUpdates", map[string]any{
			"_key":      entry.Key,
			"status":    string(entry.Status),
			"timestamp": entry.Timestamp.UTC().Format(time.RFC3339),
		})
	if status == domain.StatusPreparing {
		patch.Set("preparationTime", prepMinutes)
	}

	if err := r.client.Mutate(ctx, patch.Mutation()); err != nil {
		return fmt.Errorf("apply order decision: %w", err)
	}
	return nil
}

// PendingChanges implements interfaces.OrderFeed over the listen stream.
func (r *OrderRepository) PendingChanges(ctx context.Context, restaurantID string) (<-chan interfaces.OrderChange, error) {
	groq := fmt.Sprintf(`*[%s]`, pendingFilter)
	raw, err := r.client.Listen(ctx, groq, map[string]any{"restaurantId": restaurantID})
	if err != nil {
		return nil, fmt.Errorf("listen pending orders: %w", err)
	}

	changes := make(chan interfaces.OrderChange)
	go func() {
		defer close(changes)
		for evt := range raw {
			change, ok := toChange(evt)
			if !ok {
				continue
			}
			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return changes, nil
}

func toChange(evt ChangeEvent) (interfaces.OrderChange, bool) {
	change := interfaces.OrderChange{
		Transition: evt.Transition,
		OrderID:    evt.DocumentID,
	}
	if len(evt.Result) > 0 {
		var doc struct {
			ID     string `json:"_id"`
			Status string `json:"orderStatus"`
		}
		if err := json.Unmarshal(evt.Result, &doc); err != nil {
			return change, false
		}
		if doc.ID != "" {
			change.OrderID = doc.ID
		}
		change.Status = domain.Status(doc.Status)
	}
	if change.OrderID == "" {
		return change, false
	}
	return change, true
}

// RestaurantRepository covers the partner's own restaurant document.
type RestaurantRepository struct {
	client *Client
}

func NewRestaurantRepository(client *Client) *RestaurantRepository {
	return &RestaurantRepository{client: client}
}

func (r *RestaurantRepository) SetOpen(ctx context.Context, restaurantID string, open bool) error {
	patch := NewPatch(restaurantID).Set("isOpen", open)
	if err := r.client.Mutate(ctx, patch.Mutation()); err != nil {
		return fmt.Errorf("set restaurant open: %w", err)
	}
	return nil
}

func toOrders(docs []orderDoc) []domain.Order {
	orders := make([]domain.Order, len(docs))
	for i, doc := range docs {
		orders[i] = toOrder(doc)
	}
	return orders
}

func toOrder(doc orderDoc) domain.Order {
	order := domain.Order{
		ID:              doc.ID,
		Status:          domain.Status(doc.Status),
		FoodTotal:       doc.FoodTotal,
		DeliveryFee:     doc.DeliveryFee,
		ReceiverName:    doc.ReceiverName,
		DeliveryAddress: doc.DeliveryAddress,
		PreparationTime: doc.PreparationTime,
		CreatedAt:       doc.CreatedAt,
	}
	for _, item := range doc.OrderedItems {
		order.OrderedItems = append(order.OrderedItems, domain.OrderItem{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	for _, update := range doc.StatusUpdates {
		order.StatusUpdates = append(order.StatusUpdates, domain.StatusUpdate{
			Key:       update.Key,
			Status:    domain.Status(update.Status),
			Timestamp: update.Timestamp,
		})
	}
	return order
}
