package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/romariomartinez/ApiEcommerce/internal/domain"
)

const (
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeValidationFailed   = "validation_failed"
	codeInvalidID          = "invalid_id"
	codeInsufficientStock  = "insufficient_stock"
	codeOrderNotFound      = "order_not_found"
	codeProductNotFound    = "product_not_found"
	codeAccessDenied       = "access_denied"
	codeInvalidTransition  = "invalid_transition"
	codeOrderNotPayable    = "order_not_payable"
	codeUnauthorized       = "unauthorized"
	codeInvalidSignature   = "invalid_signature"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	ProductID string `json:"product_id,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps core failures to HTTP responses. Business-rule
// failures were already rolled back by the service; nothing here carries
// partial state.
func writeDomainError(w http.ResponseWriter, err error) {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeErrorResponse(w, http.StatusConflict, errorResponse{
			Error:     stockErr.Error(),
			Code:      codeInsufficientStock,
			ProductID: stockErr.ProductID,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, codeInsufficientStock, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
	case errors.Is(err, domain.ErrAccessDenied):
		writeError(w, http.StatusForbidden, codeAccessDenied, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, domain.ErrOrderNotPayable):
		writeError(w, http.StatusConflict, codeOrderNotPayable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
