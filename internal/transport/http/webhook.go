package http

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/romariomartinez/ApiEcommerce/internal/app"
	"github.com/romariomartinez/ApiEcommerce/internal/domain"
	"github.com/romariomartinez/ApiEcommerce/internal/events"
)

const maxWebhookBody = 64 * 1024

// EventApplier reconciles a verified provider event with order state.
type EventApplier interface {
	HandleProviderEvent(ctx context.Context, event app.ProviderEvent) (app.ApplyResult, error)
}

// WebhookHandler terminates the Stripe webhook. Signature verification is the
// only rejection path; once an event is authentic the provider always gets a
// success acknowledgment, even when reconciliation fails internally, so a
// broken deploy cannot trigger an unbounded retry storm.
type WebhookHandler struct {
	Svc    EventApplier
	Secret string
	Events events.Publisher
	Cache  *redis.Client
	Logger *log.Logger
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/webhooks/stripe", h.handle)
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "unreadable body")
		return
	}

	// Stripe sends events pinned to the account's API version, which may
	// trail the SDK's; the signature check alone decides authenticity.
	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidSignature, "invalid signature")
		return
	}

	if event.Type != app.EventTypePaymentSucceeded {
		h.ack(w)
		return
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		// Corrupt payload on an authentic event: acknowledge so the
		// provider stops retrying, surface it in the logs.
		h.logf("stripe webhook %s: decode payment intent: %v", event.ID, err)
		h.ack(w)
		return
	}

	result, err := h.Svc.HandleProviderEvent(r.Context(), app.ProviderEvent{
		Type:          string(event.Type),
		TransactionID: intent.ID,
		OrderID:       intent.Metadata["order_id"],
	})
	if err != nil {
		h.logf("stripe webhook %s: %v", event.ID, err)
		h.ack(w)
		return
	}

	if result.OrderPaid {
		h.Events.PublishOrderEvent(r.Context(), events.TypeOrderPaid, result.OrderID, events.OrderStatusPayload{
			OrderID: result.OrderID,
			Status:  string(domain.OrderStatusPaid),
		})
		writeStatusCache(r.Context(), h.Cache, h.Logger, result.OrderID, result.UserID, domain.OrderStatusPaid)
	}
	h.ack(w)
}

func (h *WebhookHandler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
}

func (h *WebhookHandler) logf(format string, args ...any) {
	if h.Logger != nil {
		h.Logger.Printf(format, args...)
	}
}
