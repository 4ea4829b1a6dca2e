package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"medicart/internal/model"
	"medicart/internal/service"
)

const testLabID = "partner-lab"

type stubOrderStore struct {
	created     *model.Order
	createErr   error
	orders      []model.Order
	updateErr   error
	deleteErr   error
	createCalls int
}

func (s *stubOrderStore) Create(_ context.Context, order *model.Order) (*model.Order, error) {
	s.createCalls++
	if s.createErr != nil {
		return nil, s.createErr
	}
	order.ID = "order-1"
	order.Status = model.StatusPending
	s.created = order
	return order, nil
}

func (s *stubOrderStore) List(_ context.Context, _ string) ([]model.Order, error) {
	return s.orders, nil
}

func (s *stubOrderStore) UpdateStatus(_ context.Context, id, status string) (*model.Order, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &model.Order{ID: id, Status: status}, nil
}

func (s *stubOrderStore) Delete(_ context.Context, _ string) error {
	return s.deleteErr
}

type stubQuota struct {
	err   error
	calls []bool
}

func (s *stubQuota) Ensure(_ context.Context, _ string, metered bool) error {
	s.calls = append(s.calls, metered)
	if metered {
		return s.err
	}
	return nil
}

func validOrderBody(labID string) []byte {
	body, _ := json.Marshal(map[string]any{
		"customer": map[string]string{
			"name":   "Test Customer",
			"mobile": "03001234567",
			"age":    "30",
			"city":   "Lahore",
		},
		"items": []map[string]any{
			{"testId": "t1", "testName": "CBC", "labId": labID, "labName": "Partner Lab", "quantity": 1, "price": 900, "discountedPrice": 700},
		},
	})
	return body
}

func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        []byte
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "invalid_json",
			body:       []byte(`{"customer":`),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "empty_items",
			body:        []byte(`{"customer":{"name":"A","mobile":"1","age":"2","city":"C"},"items":[]}`),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Customer info and at least one item are required",
		},
		{
			name:        "missing_mobile",
			body:        []byte(`{"customer":{"name":"A","age":"2","city":"C"},"items":[{"testId":"t1"}]}`),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Missing customer field: mobile",
		},
		{
			name:        "blank_city",
			body:        []byte(`{"customer":{"name":"A","mobile":"1","age":"2","city":"  "},"items":[{"testId":"t1"}]}`),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Missing customer field: city",
		},
		{
			name:        "final_exceeds_original",
			body:        []byte(`{"customer":{"name":"A","mobile":"1","age":"2","city":"C"},"items":[{"testId":"t1"}],"totals":{"original":100,"final":200}}`),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Final total cannot exceed original total",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &stubOrderStore{}
			h := CreateOrderHandler(store, &stubQuota{}, testLabID)

			req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(tt.body))
			w := httptest.NewRecorder()
			h(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if store.createCalls != 0 {
				t.Errorf("Create must not be called on validation failure")
			}
			if tt.wantMessage == "" {
				return
			}

			var resp map[string]string
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp["message"] != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, resp["message"])
			}
		})
	}
}

func TestCreateOrderQuotaExceeded(t *testing.T) {
	t.Parallel()

	store := &stubOrderStore{}
	quota := &stubQuota{err: service.ErrQuotaExceeded}
	h := CreateOrderHandler(store, quota, testLabID)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(validOrderBody(testLabID)))
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if store.createCalls != 0 {
		t.Error("order must not be created when quota is exceeded")
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["message"] == "" {
		t.Error("429 response must carry a message")
	}
}

func TestCreateOrderMeteringDecision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		labID       string
		wantMetered bool
	}{
		{name: "partner_lab_order_is_metered", labID: testLabID, wantMetered: true},
		{name: "other_lab_order_is_not_metered", labID: "city-lab", wantMetered: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &stubOrderStore{}
			quota := &stubQuota{err: service.ErrQuotaExceeded}
			h := CreateOrderHandler(store, quota, testLabID)

			req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(validOrderBody(tt.labID)))
			w := httptest.NewRecorder()
			h(w, req)

			if len(quota.calls) != 1 || quota.calls[0] != tt.wantMetered {
				t.Fatalf("expected quota call with metered=%v, got %v", tt.wantMetered, quota.calls)
			}
			if !tt.wantMetered && w.Code != http.StatusCreated {
				t.Errorf("non-metered order must not be capped, got %d", w.Code)
			}
		})
	}
}

func TestCreateOrderSuccess(t *testing.T) {
	t.Parallel()

	store := &stubOrderStore{}
	h := CreateOrderHandler(store, &stubQuota{}, testLabID)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(validOrderBody(testLabID)))
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	var resp model.Order
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != model.StatusPending {
		t.Errorf("expected status Pending, got %q", resp.Status)
	}
	if resp.ID == "" {
		t.Error("expected created order id in response")
	}
}

func newOrderRouter(store *stubOrderStore) *chi.Mux {
	r := chi.NewRouter()
	r.Patch("/api/orders/{id}/status", UpdateOrderStatusHandler(store))
	r.Delete("/api/orders/{id}", DeleteOrderHandler(store))
	r.Get("/api/orders", ListOrdersHandler(store))
	return r
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		updateErr  error
		wantStatus int
	}{
		{name: "ok", body: `{"status":"Completed"}`, wantStatus: http.StatusOK},
		{name: "invalid_status", body: `{"status":"Shipped"}`, wantStatus: http.StatusBadRequest},
		{name: "lowercase_rejected", body: `{"status":"completed"}`, wantStatus: http.StatusBadRequest},
		{name: "not_found", body: `{"status":"Completed"}`, updateErr: service.ErrOrderNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newOrderRouter(&stubOrderStore{updateErr: tt.updateErr})

			req := httptest.NewRequest(http.MethodPatch, "/api/orders/order-1/status", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestDeleteOrder(t *testing.T) {
	t.Parallel()

	r := newOrderRouter(&stubOrderStore{deleteErr: service.ErrOrderNotFound})

	req := httptest.NewRequest(http.MethodDelete, "/api/orders/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListOrdersEmpty(t *testing.T) {
	t.Parallel()

	r := newOrderRouter(&stubOrderStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/orders?mobile=03001234567", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string][]model.Order
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["orders"] == nil {
		t.Error("orders must be an empty array, not null")
	}
}
