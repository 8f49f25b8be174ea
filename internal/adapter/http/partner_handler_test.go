package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/snackway/partner/internal/app/coordinator"
	"github.com/snackway/partner/internal/domain"
	"github.com/snackway/partner/internal/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(action, message, requestID string, details map[string]interface{})  {}
func (nopLogger) Debug(action, message, requestID string, details map[string]interface{}) {}
func (nopLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
}

type stubRepo struct {
	byStatus []domain.Order
	byID     *domain.Order
}

func (s *stubRepo) FindByStatus(ctx context.Context, restaurantID string, status domain.Status) ([]domain.Order, error) {
	return s.byStatus, nil
}
func (s *stubRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return s.byID, nil
}
func (s *stubRepo) OldestPending(ctx context.Context, restaurantID string) (*domain.Order, error) {
	return nil, nil
}
func (s *stubRepo) FindRecent(ctx context.Context, restaurantID string, limit int) ([]domain.Order, error) {
	return nil, nil
}
func (s *stubRepo) CountByStatus(ctx context.Context, restaurantID string) (map[domain.Status]int, error) {
	return nil, nil
}
func (s *stubRepo) CompletedBetween(ctx context.Context, restaurantID string, from, to time.Time) ([]domain.Order, error) {
	return nil, nil
}
func (s *stubRepo) CreatedBetween(ctx context.Context, restaurantID string, from, to time.Time) ([]domain.Order, error) {
	return nil, nil
}
func (s *stubRepo) ApplyDecision(ctx context.Context, id string, status domain.Status, prepMinutes int, entry domain.StatusUpdate) error {
	return nil
}

type stubMonitor struct {
	current *domain.Order
	paused  int
	resumed int
}

func (s *stubMonitor) Start(ctx context.Context) error { return nil }
func (s *stubMonitor) Shutdown()                       {}
func (s *stubMonitor) Pause()                          { s.paused++ }
func (s *stubMonitor) Resume()                         { s.resumed++ }
func (s *stubMonitor) Clear(orderID string) bool       { return false }
func (s *stubMonitor) Current() *domain.Order          { return s.current }

type stubCoordinator struct {
	acceptErr error
	rejectErr error

	acceptedID   string
	acceptedPrep int
	rejectedID   string
}

func (s *stubCoordinator) Accept(ctx context.Context, orderID string, prepMinutes int) error {
	s.acceptedID = orderID
	s.acceptedPrep = prepMinutes
	return s.acceptErr
}

func (s *stubCoordinator) Reject(ctx context.Context, orderID string) error {
	s.rejectedID = orderID
	return s.rejectErr
}

type stubReports struct {
	stats *interfaces.DashboardStats
}

func (s *stubReports) EarningsBetween(ctx context.Context, from, to time.Time) (*interfaces.EarningsReport, error) {
	return &interfaces.EarningsReport{From: from, To: to}, nil
}
func (s *stubReports) Dashboard(ctx context.Context, now time.Time) (*interfaces.DashboardStats, error) {
	return s.stats, nil
}
func (s *stubReports) SetOpen(ctx context.Context, open bool) error { return nil }

func newHandler(coord *stubCoordinator, monitor *stubMonitor, repo *stubRepo) *PartnerHandler {
	if coord == nil {
		coord = &stubCoordinator{}
	}
	if monitor == nil {
		monitor = &stubMonitor{}
	}
	if repo == nil {
		repo = &stubRepo{}
	}
	return NewPartnerHandler(repo, monitor, coord, &stubReports{stats: &interfaces.DashboardStats{}}, nopLogger{}, "restaurant-1")
}

func TestHandleOrdersRejectsUnknownStatus(t *testing.T) {
	h := newHandler(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/orders?status=bogus", nil)
	rec := httptest.NewRecorder()
	h.HandleOrders(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleOrdersReturnsList(t *testing.T) {
	repo := &stubRepo{byStatus: []domain.Order{
		{ID: "order-1", Status: domain.StatusPending, FoodTotal: 42.50, DeliveryFee: 5.99},
	}}
	h := newHandler(nil, nil, repo)

	req := httptest.NewRequest(http.MethodGet, "/orders?status=pending", nil)
	rec := httptest.NewRecorder()
	h.HandleOrders(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []orderResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "order-1", resp[0].ID)
	assert.InDelta(t, 48.49, resp[0].GrandTotal, 0.001)
}

func TestPostDecisionAccept(t *testing.T) {
	coord := &stubCoordinator{}
	h := newHandler(coord, nil, nil)

	body := strings.NewReader(`{"action": "accept", "prep_minutes": 25}`)
	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/decision", body)
	rec := httptest.NewRecorder()
	h.HandleOrder(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "order-1", coord.acceptedID)
	assert.Equal(t, 25, coord.acceptedPrep)
}

func TestPostDecisionErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"invalid prep time", coordinator.ErrInvalidPrepTime, http.StatusBadRequest},
		{"already handled", coordinator.ErrAlreadyHandled, http.StatusConflict},
		{"not found", coordinator.ErrOrderNotFound, http.StatusNotFound},
		{"store failure", assert.AnError, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coord := &stubCoordinator{acceptErr: tt.err}
			h := newHandler(coord, nil, nil)

			body := strings.NewReader(`{"action": "accept", "prep_minutes": 25}`)
			req := httptest.NewRequest(http.MethodPost, "/orders/order-1/decision", body)
			rec := httptest.NewRecorder()
			h.HandleOrder(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestPostDecisionUnknownAction(t *testing.T) {
	h := newHandler(nil, nil, nil)

	body := strings.NewReader(`{"action": "maybe"}`)
	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/decision", body)
	rec := httptest.NewRecorder()
	h.HandleOrder(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAlert(t *testing.T) {
	h := newHandler(nil, &stubMonitor{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/alert", nil)
	rec := httptest.NewRecorder()
	h.HandleAlert(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, false, resp["alerting"])

	h = newHandler(nil, &stubMonitor{current: &domain.Order{ID: "order-1", Status: domain.StatusPending}}, nil)
	rec = httptest.NewRecorder()
	h.HandleAlert(rec, httptest.NewRequest(http.MethodGet, "/alert", nil))

	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, true, resp["alerting"])
	order := resp["order"].(map[string]any)
	assert.Equal(t, "order-1", order["id"])
}

func TestHandleSessionPauseAndResume(t *testing.T) {
	monitor := &stubMonitor{}
	h := newHandler(nil, monitor, nil)

	rec := httptest.NewRecorder()
	h.HandleSessionPause(rec, httptest.NewRequest(http.MethodPost, "/session/pause", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, monitor.paused)

	rec = httptest.NewRecorder()
	h.HandleSessionResume(rec, httptest.NewRequest(http.MethodPost, "/session/resume", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, monitor.resumed)

	// Only POST flips session state.
	rec = httptest.NewRecorder()
	h.HandleSessionPause(rec, httptest.NewRequest(http.MethodGet, "/session/pause", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, 1, monitor.paused)
}

func TestHandleOrderNotFound(t *testing.T) {
	h := newHandler(nil, nil, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/orders/missing", nil)
	rec := httptest.NewRecorder()
	h.HandleOrder(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleEarningsRejectsBadDates(t *testing.T) {
	h := newHandler(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/reports/earnings?from=yesterday", nil)
	rec := httptest.NewRecorder()
	h.HandleEarnings(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
