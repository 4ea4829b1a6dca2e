package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"medicart/internal/model"
	"medicart/internal/service"
)

type orderStore interface {
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	List(ctx context.Context, query string) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*model.Order, error)
	Delete(ctx context.Context, id string) error
}

type quotaChecker interface {
	Ensure(ctx context.Context, mobile string, metered bool) error
}

type createOrderRequest struct {
	Customer      model.Customer    `json:"customer"`
	PreferredDate string            `json:"preferredDate"`
	PreferredTime string            `json:"preferredTime"`
	Items         []model.OrderItem `json:"items"`
	Totals        *model.Totals     `json:"totals"`
}

// CreateOrderHandler accepts a new order. The SMS quota is checked before
// anything is persisted: a metered customer at their cap gets 429 and no
// order. Confirmation itself happens later, off the request path.
func CreateOrderHandler(orders orderStore, quota quotaChecker, partnerLabID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if len(req.Items) == 0 {
			writeError(w, http.StatusBadRequest, "Customer info and at least one item are required")
			return
		}
		if field := missingCustomerField(req.Customer); field != "" {
			writeError(w, http.StatusBadRequest, "Missing customer field: "+field)
			return
		}
		if req.Totals != nil && req.Totals.Final > req.Totals.Original {
			writeError(w, http.StatusBadRequest, "Final total cannot exceed original total")
			return
		}

		order := &model.Order{
			Customer:      req.Customer,
			PreferredDate: req.PreferredDate,
			PreferredTime: req.PreferredTime,
			Items:         req.Items,
		}
		order.Customer.Mobile = strings.TrimSpace(order.Customer.Mobile)
		if req.Totals != nil {
			order.Totals = *req.Totals
		}

		metered := order.TouchesLab(partnerLabID)
		if err := quota.Ensure(r.Context(), order.Customer.Mobile, metered); err != nil {
			if errors.Is(err, service.ErrQuotaExceeded) {
				writeError(w, http.StatusTooManyRequests, "SMS limit reached for this number. Please try again later.")
				return
			}
			slog.Error("quota check failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to create order")
			return
		}

		created, err := orders.Create(r.Context(), order)
		if err != nil {
			slog.Error("order create failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to create order")
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

func missingCustomerField(c model.Customer) string {
	fields := []struct{ name, value string }{
		{"name", c.Name},
		{"mobile", c.Mobile},
		{"age", c.Age},
		{"city", c.City},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return f.name
		}
	}
	return ""
}

// ListOrdersHandler returns orders, optionally filtered by the customer's
// mobile number or email via ?mobile=.
func ListOrdersHandler(orders orderStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := orders.List(r.Context(), r.URL.Query().Get("mobile"))
		if err != nil {
			slog.Error("order list failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch orders")
			return
		}
		if list == nil {
			list = []model.Order{}
		}
		writeJSON(w, http.StatusOK, map[string][]model.Order{"orders": list})
	}
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func UpdateOrderStatusHandler(orders orderStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if !model.ValidStatus(req.Status) {
			writeError(w, http.StatusBadRequest, "Invalid status value")
			return
		}

		order, err := orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
		if err != nil {
			if errors.Is(err, service.ErrOrderNotFound) {
				writeError(w, http.StatusNotFound, "Order not found")
				return
			}
			slog.Error("order status update failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to update order status")
			return
		}

		writeJSON(w, http.StatusOK, order)
	}
}

func DeleteOrderHandler(orders orderStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := orders.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, service.ErrOrderNotFound) {
				writeError(w, http.StatusNotFound, "Order not found")
				return
			}
			slog.Error("order delete failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to delete order")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Order deleted successfully"})
	}
}
