package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/romariomartinez/ApiEcommerce/internal/app"
	"github.com/romariomartinez/ApiEcommerce/internal/domain"
	"github.com/romariomartinez/ApiEcommerce/internal/events"
)

// StatusUpdater is the admin path over the order state machine.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, caller domain.CallerContext, orderID string, to domain.OrderStatus) (domain.Order, error)
}

// CatalogService is the admin surface for products and inventory records.
type CatalogService interface {
	CreateProduct(ctx context.Context, caller domain.CallerContext, in app.CreateProductInput) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type AdminHandler struct {
	Orders  StatusUpdater
	Catalog CatalogService
	Events  events.Publisher
	Cache   *redis.Client
	Logger  *log.Logger
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Patch("/admin/orders/{id}/status", h.updateStatus)
	r.Post("/admin/products", h.createProduct)
	r.Get("/admin/products", h.listProducts)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing identity")
		return
	}

	var req updateStatusRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "unknown status")
		return
	}

	order, err := h.Orders.UpdateStatus(r.Context(), caller, chi.URLParam(r, "id"), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	eventType := events.TypeOrderStatusChanged
	if order.Status == domain.OrderStatusCancelled {
		eventType = events.TypeOrderCancelled
	}
	h.Events.PublishOrderEvent(r.Context(), eventType, order.ID, events.OrderStatusPayload{
		OrderID: order.ID,
		Status:  string(order.Status),
	})
	writeStatusCache(r.Context(), h.Cache, h.Logger, order.ID, order.UserID, order.Status)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toOrderResponse(order))
}

type createProductRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock int    `json:"stock"`
}

type productResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing identity")
		return
	}

	var req createProductRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "invalid price")
		return
	}

	product, err := h.Catalog.CreateProduct(r.Context(), caller, app.CreateProductInput{
		Name:  req.Name,
		Price: price,
		Stock: req.Stock,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toProductResponse(product))
}

func (h *AdminHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.ListProducts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price.StringFixed(2),
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
	}
}
