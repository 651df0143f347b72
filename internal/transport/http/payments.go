package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/romariomartinez/ApiEcommerce/internal/app"
	"github.com/romariomartinez/ApiEcommerce/internal/domain"
)

// PaymentCreator opens a provider charge for an order.
type PaymentCreator interface {
	CreatePayment(ctx context.Context, caller domain.CallerContext, orderID string) (app.CreatePaymentResult, error)
}

type PaymentsHandler struct {
	Svc PaymentCreator
}

func (h *PaymentsHandler) Register(r chi.Router) {
	r.Post("/payments", h.create)
}

type createPaymentRequest struct {
	OrderID string `json:"order_id"`
}

type createPaymentResponse struct {
	PaymentID    string `json:"payment_id"`
	ClientSecret string `json:"client_secret"`
}

func (h *PaymentsHandler) create(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing identity")
		return
	}

	var req createPaymentRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "order_id is required")
		return
	}

	result, err := h.Svc.CreatePayment(r.Context(), caller, req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(createPaymentResponse{
		PaymentID:    result.Payment.ID,
		ClientSecret: result.ClientSecret,
	})
}
