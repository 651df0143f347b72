package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	TypeOrderCreated       = "OrderCreated"
	TypeOrderPaid          = "OrderPaid"
	TypeOrderCancelled     = "OrderCancelled"
	TypeOrderStatusChanged = "OrderStatusChanged"
)

// Envelope wraps every published order event. Payload holds the
// event-specific body.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	OrderID      string          `json:"order_id"`
	Payload      json.RawMessage `json:"payload"`
}

// Publisher emits order lifecycle events. Publishing is best-effort and never
// gates the transaction that produced the state change.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, eventType, orderID string, payload any)
}

type OrderCreatedPayload struct {
	OrderID string             `json:"order_id"`
	UserID  string             `json:"user_id"`
	Total   string             `json:"total"`
	Items   []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type OrderStatusPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Nop discards every event; used in tests and when Kafka is not configured.
type Nop struct{}

func (Nop) PublishOrderEvent(context.Context, string, string, any) {}
