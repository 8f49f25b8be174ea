package interfaces

import (
	"context"
	"time"

	"github.com/snackway/partner/internal/domain"
)

// Repository interfaces (Adapter/ContentStore)
type OrderRepository interface {
	FindByStatus(ctx context.Context, restaurantID string, status domain.Status) ([]domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	OldestPending(ctx context.Context, restaurantID string) (*domain.Order, error)
	FindRecent(ctx context.Context, restaurantID string, limit int) ([]domain.Order, error)
	CountByStatus(ctx context.Context, restaurantID string) (map[domain.Status]int, error)
	CompletedBetween(ctx context.Context, restaurantID string, from, to time.Time) ([]domain.Order, error)
	CreatedBetween(ctx context.Context, restaurantID string, from, to time.Time) ([]domain.Order, error)
	ApplyDecision(ctx context.Context, id string, status domain.Status, prepMinutes int, entry domain.StatusUpdate) error
}

type RestaurantRepository interface {
	SetOpen(ctx context.Context, restaurantID string, open bool) error
}

// OrderChange is one event from the store's change feed on pending orders.
type OrderChange struct {
	Transition string // "appear", "update" or "disappear"
	OrderID    string
	Status     domain.Status
}

const (
	TransitionAppear    = "appear"
	TransitionUpdate    = "update"
	TransitionDisappear = "disappear"
)

// OrderFeed subscribes to pending-order changes for one restaurant. The
// channel stays open across reconnects and closes when ctx is cancelled.
type OrderFeed interface {
	PendingChanges(ctx context.Context, restaurantID string) (<-chan OrderChange, error)
}
