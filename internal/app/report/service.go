package report

import (
	"context"
	"time"

	"github.com/snackway/partner/internal/adapter/logger"
	"github.com/snackway/partner/internal/domain"
	"github.com/snackway/partner/internal/interfaces"
)

const recentOrdersLimit = 3

// Service provides the read-only dashboard and earnings views. Everything is
// computed from fresh store queries; nothing is cached locally.
type Service struct {
	orderRepo      interfaces.OrderRepository
	restaurantRepo interfaces.RestaurantRepository
	logger         logger.Logger
	restaurantID   string
}

func NewService(
	orderRepo interfaces.OrderRepository,
	restaurantRepo interfaces.RestaurantRepository,
	lgr logger.Logger,
	restaurantID string,
) *Service {
	return &Service{
		orderRepo:      orderRepo,
		restaurantRepo: restaurantRepo,
		logger:         lgr,
		restaurantID:   restaurantID,
	}
}

// EarningsBetween sums completed-order food totals over the inclusive date
// range. foodTotal is authoritative for earnings; delivery fees belong to
// the platform.
func (s *Service) EarningsBetween(ctx context.Context, from, to time.Time) (*interfaces.EarningsReport, error) {
	orders, err := s.orderRepo.CompletedBetween(ctx, s.restaurantID, from, to)
	if err != nil {
		return nil, err
	}

	rep := &interfaces.EarningsReport{From: from, To: to}
	for _, order := range orders {
		rep.Orders = append(rep.Orders, interfaces.EarningsRow{
			OrderID:   order.DocumentID(),
			CreatedAt: order.CreatedAt,
			FoodTotal: order.FoodTotal,
		})
		rep.Total += order.FoodTotal
	}
	return rep, nil
}

// Dashboard gathers the home-screen stats: today's order count, completed
// revenue, the pending backlog and the latest few orders.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (*interfaces.DashboardStats, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	today, err := s.orderRepo.CreatedBetween(ctx, s.restaurantID, startOfDay, now)
	if err != nil {
		return nil, err
	}

	counts, err := s.orderRepo.CountByStatus(ctx, s.restaurantID)
	if err != nil {
		return nil, err
	}

	recent, err := s.orderRepo.FindRecent(ctx, s.restaurantID, recentOrdersLimit)
	if err != nil {
		return nil, err
	}

	stats := &interfaces.DashboardStats{
		TodayOrders:   len(today),
		PendingOrders: counts[domain.StatusPending],
		RecentOrders:  recent,
	}
	for _, order := range today {
		if order.Status == domain.StatusCompleted {
			stats.TodayRevenue += order.FoodTotal
		}
	}
	return stats, nil
}

// SetOpen flips the restaurant's accepting-orders switch.
func (s *Service) SetOpen(ctx context.Context, open bool) error {
	if err := s.restaurantRepo.SetOpen(ctx, s.restaurantID, open); err != nil {
		s.logger.Error("status_toggle_failed", "Failed to update restaurant status", "", nil, err)
		return err
	}
	s.logger.Info("status_toggled", "Restaurant status updated", "", map[string]interface{}{
		"open": open,
	})
	return nil
}
