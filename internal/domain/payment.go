package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
)

// ProviderStripe is the only payment provider currently wired.
const ProviderStripe = "STRIPE"

// Payment links an order to a provider charge. TransactionID is the
// provider-issued correlation key and the idempotency key for the reconciler:
// at most one CONFIRMED transition ever happens per transaction id.
type Payment struct {
	ID            string
	OrderID       string
	Provider      string
	Status        PaymentStatus
	TransactionID string
	Amount        decimal.Decimal
	CreatedAt     time.Time
}
