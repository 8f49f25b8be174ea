package interfaces

import (
	"context"
	"time"

	"github.com/snackway/partner/internal/domain"
)

// Service interfaces (Business Logic)
type MonitorService interface {
	Start(ctx context.Context) error
	Shutdown()
	Pause()
	Resume()
	Clear(orderID string) bool
	Current() *domain.Order
}

type CoordinatorService interface {
	Accept(ctx context.Context, orderID string, prepMinutes int) error
	Reject(ctx context.Context, orderID string) error
}

type ReportService interface {
	EarningsBetween(ctx context.Context, from, to time.Time) (*EarningsReport, error)
	Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error)
	SetOpen(ctx context.Context, open bool) error
}

// AlertClearer is the Coordinator's handle on the Monitor: it may ask for the
// alert slot to be released but never writes it directly.
type AlertClearer interface {
	Clear(orderID string) bool
}

// Decider routes timeout-driven decisions (the countdown auto-reject) through
// the same path as user decisions.
type Decider interface {
	Reject(ctx context.Context, orderID string) error
}

// SoundController owns the single looping alert playback resource.
type SoundController interface {
	Start(ctx context.Context)
	Stop()
}

// Presenter is the surface the core publishes alerts to.
type Presenter interface {
	OnNewOrderAlert(order domain.Order)
	OnAlertCleared()
}

type EarningsReport struct {
	From   time.Time
	To     time.Time
	Orders []EarningsRow
	Total  float64
}

type EarningsRow struct {
	OrderID   string
	CreatedAt time.Time
	FoodTotal float64
}

type DashboardStats struct {
	TodayOrders   int
	TodayRevenue  float64
	PendingOrders int
	RecentOrders  []domain.Order
}
