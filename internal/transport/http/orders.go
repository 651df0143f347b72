package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/romariomartinez/ApiEcommerce/internal/app"
	"github.com/romariomartinez/ApiEcommerce/internal/domain"
	"github.com/romariomartinez/ApiEcommerce/internal/events"
)

// OrderService is the subset of the order core the HTTP layer needs.
type OrderService interface {
	CreateOrder(ctx context.Context, caller domain.CallerContext, lines []app.OrderLine) (domain.Order, error)
	GetOrder(ctx context.Context, caller domain.CallerContext, orderID string) (domain.Order, error)
	ListMyOrders(ctx context.Context, caller domain.CallerContext, page int) ([]domain.Order, error)
	CancelOrder(ctx context.Context, caller domain.CallerContext, orderID string) (domain.Order, error)
}

type OrdersHandler struct {
	Svc    OrderService
	Events events.Publisher
	Cache  *redis.Client
	Logger *log.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
	r.Get("/orders/{id}/status", h.getStatus)
	r.Post("/orders/{id}/cancel", h.cancel)
}

type createOrderRequest struct {
	Items []orderLineRequest `json:"items"`
}

type orderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type orderResponse struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Status    string            `json:"status"`
	Total     string            `json:"total"`
	CreatedAt time.Time         `json:"created_at"`
	Items     []itemResponse    `json:"items,omitempty"`
	Payments  []paymentResponse `json:"payments,omitempty"`
}

type itemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type paymentResponse struct {
	ID            string `json:"id"`
	Provider      string `json:"provider"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing identity")
		return
	}

	var req createOrderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "items are required")
		return
	}

	lines := make([]app.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, app.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.Svc.CreateOrder(r.Context(), caller, lines)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.Events.PublishOrderEvent(r.Context(), events.TypeOrderCreated, order.ID, events.OrderCreatedPayload{
		OrderID: order.ID,
		UserID:  order.UserID,
		Total:   order.Total.StringFixed(2),
		Items:   toItemPayloads(order.Items),
	})
	writeStatusCache(r.Context(), h.Cache, h.Logger, order.ID, order.UserID, order.Status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toOrderResponse(order))
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing identity")
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "invalid page")
			return
		}
		page = parsed
	}

	orders, err := h.Svc.ListMyOrders(r.Context(), caller, page)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, toOrderResponse(order))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing identity")
		return
	}

	order, err := h.Svc.GetOrder(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toOrderResponse(order))
}

// getStatus serves the status poll the payment flow runs on. It reads
// through the cache; the database stays the source of truth. Cache hits go
// through the same ownership check as the database path.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing identity")
		return
	}
	orderID := chi.URLParam(r, "id")

	if entry, ok := readStatusCache(r.Context(), h.Cache, orderID); ok {
		if !caller.IsAdmin() && entry.UserID != caller.UserID {
			writeError(w, http.StatusForbidden, codeAccessDenied, "access denied")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": orderID, "status": entry.Status})
		return
	}

	order, err := h.Svc.GetOrder(r.Context(), caller, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeStatusCache(r.Context(), h.Cache, h.Logger, order.ID, order.UserID, order.Status)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"id": order.ID, "status": string(order.Status)})
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing identity")
		return
	}

	order, err := h.Svc.CancelOrder(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.Events.PublishOrderEvent(r.Context(), events.TypeOrderCancelled, order.ID, events.OrderStatusPayload{
		OrderID: order.ID,
		Status:  string(order.Status),
	})
	writeStatusCache(r.Context(), h.Cache, h.Logger, order.ID, order.UserID, order.Status)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toOrderResponse(order))
}

func toOrderResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:        order.ID,
		UserID:    order.UserID,
		Status:    string(order.Status),
		Total:     order.Total.StringFixed(2),
		CreatedAt: order.CreatedAt,
		Items:     toItemResponses(order.Items),
	}
	for _, p := range order.Payments {
		resp.Payments = append(resp.Payments, paymentResponse{
			ID:            p.ID,
			Provider:      p.Provider,
			Status:        string(p.Status),
			TransactionID: p.TransactionID,
			Amount:        p.Amount.StringFixed(2),
		})
	}
	return resp
}

func toItemResponses(items []domain.OrderItem) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, itemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}
	return out
}

func toItemPayloads(items []domain.OrderItem) []events.OrderItemPayload {
	out := make([]events.OrderItemPayload, 0, len(items))
	for _, item := range items {
		out = append(out, events.OrderItemPayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}
	return out
}
