package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/snackway/partner/internal/adapter/logger"
	"github.com/snackway/partner/internal/app/coordinator"
	"github.com/snackway/partner/internal/domain"
	"github.com/snackway/partner/internal/interfaces"
)

// PartnerHandler is the presentation surface: order lists, the current alert
// slot, decisions and reports. It holds no state of its own beyond wiring.
type PartnerHandler struct {
	orders      interfaces.OrderRepository
	monitor     interfaces.MonitorService
	coordinator interfaces.CoordinatorService
	reports     interfaces.ReportService
	logger      logger.Logger

	restaurantID string
}

func NewPartnerHandler(
	orders interfaces.OrderRepository,
	monitor interfaces.MonitorService,
	coord interfaces.CoordinatorService,
	reports interfaces.ReportService,
	lgr logger.Logger,
	restaurantID string,
) *PartnerHandler {
	return &PartnerHandler{
		orders:       orders,
		monitor:      monitor,
		coordinator:  coord,
		reports:      reports,
		logger:       lgr,
		restaurantID: restaurantID,
	}
}

type decisionRequest struct {
	Action      string `json:"action"` // "accept" or "reject"
	PrepMinutes int    `json:"prep_minutes,omitempty"`
}

type orderResponse struct {
	ID              string                 `json:"id"`
	ShortID         string                 `json:"short_id"`
	Status          string                 `json:"status"`
	ReceiverName    string                 `json:"receiver_name,omitempty"`
	DeliveryAddress string                 `json:"delivery_address,omitempty"`
	FoodTotal       float64                `json:"food_total"`
	DeliveryFee     float64                `json:"delivery_fee"`
	GrandTotal      float64                `json:"grand_total"`
	PreparationTime int                    `json:"preparation_time,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	Items           []orderItemResponse    `json:"items"`
	StatusUpdates   []statusUpdateResponse `json:"status_updates,omitempty"`
}

type orderItemResponse struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

type statusUpdateResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleOrders serves GET /orders?status=pending.
func (h *PartnerHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := domain.Status(r.URL.Query().Get("status"))
	if !status.Valid() {
		h.respondError(w, "Unknown status", http.StatusBadRequest)
		return
	}

	orders, err := h.orders.FindByStatus(r.Context(), h.restaurantID, status)
	if err != nil {
		h.logger.Error("orders_fetch_failed", "Failed to fetch orders", "", nil, err)
		h.respondError(w, "Failed to fetch orders", http.StatusBadGateway)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, order := range orders {
		resp[i] = toOrderResponse(order)
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// HandleOrder serves GET /orders/{id} and POST /orders/{id}/decision.
func (h *PartnerHandler) HandleOrder(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 {
		h.respondError(w, "Invalid path", http.StatusBadRequest)
		return
	}
	orderID := parts[1]

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.getOrder(w, r, orderID)
	case len(parts) == 3 && parts[2] == "decision" && r.Method == http.MethodPost:
		h.postDecision(w, r, orderID)
	default:
		h.respondError(w, "Not found", http.StatusNotFound)
	}
}

func (h *PartnerHandler) getOrder(w http.ResponseWriter, r *http.Request, orderID string) {
	order, err := h.orders.FindByID(r.Context(), orderID)
	if err != nil {
		h.logger.Error("order_fetch_failed", "Failed to fetch order", "", nil, err)
		h.respondError(w, "Failed to fetch order", http.StatusBadGateway)
		return
	}
	if order == nil {
		h.respondError(w, "Order not found", http.StatusNotFound)
		return
	}
	h.respondJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *PartnerHandler) postDecision(w http.ResponseWriter, r *http.Request, orderID string) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var err error
	switch req.Action {
	case interfaces.DecisionActionAccept:
		err = h.coordinator.Accept(r.Context(), orderID, req.PrepMinutes)
	case interfaces.DecisionActionReject:
		err = h.coordinator.Reject(r.Context(), orderID)
	default:
		h.respondError(w, "Action must be accept or reject", http.StatusBadRequest)
		return
	}

	switch {
	case err == nil:
		h.respondJSON(w, http.StatusOK, map[string]string{"result": "applied"})
	case errors.Is(err, coordinator.ErrInvalidPrepTime):
		h.respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, coordinator.ErrAlreadyHandled):
		h.respondJSON(w, http.StatusConflict, map[string]string{"result": "already_handled"})
	case errors.Is(err, coordinator.ErrOrderNotFound):
		h.respondError(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("decision_failed", "Failed to apply decision", "", map[string]interface{}{
			"order_id": orderID,
		}, err)
		h.respondError(w, "Failed to apply decision, please retry", http.StatusBadGateway)
	}
}

// HandleAlert serves GET /alert: the order currently raising an alert, if any.
func (h *PartnerHandler) HandleAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	order := h.monitor.Current()
	if order == nil {
		h.respondJSON(w, http.StatusOK, map[string]any{"alerting": false})
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"alerting": true,
		"order":    toOrderResponse(*order),
	})
}

// HandleDashboard serves GET /dashboard.
func (h *PartnerHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.reports.Dashboard(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("dashboard_failed", "Failed to gather dashboard stats", "", nil, err)
		h.respondError(w, "Failed to gather dashboard stats", http.StatusBadGateway)
		return
	}

	recent := make([]orderResponse, len(stats.RecentOrders))
	for i, order := range stats.RecentOrders {
		recent[i] = toOrderResponse(order)
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"today_orders":   stats.TodayOrders,
		"today_revenue":  stats.TodayRevenue,
		"pending_orders": stats.PendingOrders,
		"recent_orders":  recent,
	})
}

// HandleEarnings serves GET /reports/earnings?from=2026-08-01&to=2026-08-31.
func (h *PartnerHandler) HandleEarnings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	from, err := parseDate(r.URL.Query().Get("from"), time.Now().AddDate(0, 0, -7))
	if err != nil {
		h.respondError(w, "Invalid from date", http.StatusBadRequest)
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"), time.Now())
	if err != nil {
		h.respondError(w, "Invalid to date", http.StatusBadRequest)
		return
	}
	// Cover the whole end day.
	to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, to.Location())

	rep, err := h.reports.EarningsBetween(r.Context(), from, to)
	if err != nil {
		h.logger.Error("earnings_failed", "Failed to generate earnings report", "", nil, err)
		h.respondError(w, "Failed to generate report", http.StatusBadGateway)
		return
	}
	h.respondJSON(w, http.StatusOK, rep)
}

// HandleSessionPause serves POST /session/pause: the app went to the
// background, so the poll and the change stream are suspended. The alert
// slot is left as is.
func (h *PartnerHandler) HandleSessionPause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.monitor.Pause()
	h.respondJSON(w, http.StatusOK, map[string]string{"session": "paused"})
}

// HandleSessionResume serves POST /session/resume: the app is back in the
// foreground; sources re-establish after the settle delay with a one-shot
// pending re-check.
func (h *PartnerHandler) HandleSessionResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.monitor.Resume()
	h.respondJSON(w, http.StatusOK, map[string]string{"session": "resuming"})
}

// HandleRestaurantStatus serves PUT /restaurant/status.
func (h *PartnerHandler) HandleRestaurantStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		h.respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Open bool `json:"open"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.reports.SetOpen(r.Context(), req.Open); err != nil {
		h.respondError(w, "Failed to update status", http.StatusBadGateway)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"open": req.Open})
}

func parseDate(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", value)
}

func toOrderResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:              order.DocumentID(),
		ShortID:         order.ShortID(),
		Status:          string(order.Status),
		ReceiverName:    order.ReceiverName,
		DeliveryAddress: order.DeliveryAddress,
		FoodTotal:       order.FoodTotal,
		DeliveryFee:     order.DeliveryFee,
		GrandTotal:      order.GrandTotal(),
		PreparationTime: order.PreparationTime,
		CreatedAt:       order.CreatedAt,
	}
	for _, item := range order.OrderedItems {
		resp.Items = append(resp.Items, orderItemResponse{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}
	for _, update := range order.StatusUpdates {
		resp.StatusUpdates = append(resp.StatusUpdates, statusUpdateResponse{
			Status:    string(update.Status),
			Timestamp: update.Timestamp,
		})
	}
	return resp
}

func (h *PartnerHandler) respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func (h *PartnerHandler) respondError(w http.ResponseWriter, message string, statusCode int) {
	h.respondJSON(w, statusCode, errorResponse{Error: message})
}
