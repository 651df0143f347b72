package app

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/romariomartinez/ApiEcommerce/internal/clock"
	"github.com/romariomartinez/ApiEcommerce/internal/domain"
)

type PaymentRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	CreatePayment(ctx context.Context, payment domain.Payment) error
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus) error
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
}

// PaymentIntent is the provider-side handle for a pending charge.
type PaymentIntent struct {
	TransactionID string
	ClientSecret  string
}

// IntentCreator creates a charge at the payment provider. The returned
// transaction id becomes the reconciler's idempotency key.
type IntentCreator interface {
	CreateIntent(ctx context.Context, orderID string, amount decimal.Decimal) (PaymentIntent, error)
}

type PaymentService struct {
	repo    PaymentRepository
	gateway IntentCreator
	clock   clock.Clock
	logger  *log.Logger
}

func NewPaymentService(repo PaymentRepository, gateway IntentCreator, clk clock.Clock, logger *log.Logger) *PaymentService {
	if logger == nil {
		logger = log.Default()
	}
	return &PaymentService{
		repo:    repo,
		gateway: gateway,
		clock:   clk,
		logger:  logger,
	}
}

// CreatePaymentResult carries the client secret the frontend needs to finish
// the charge with the provider.
type CreatePaymentResult struct {
	Payment      domain.Payment
	ClientSecret string
}

// CreatePayment opens a provider charge for a PENDING order owned by the
// caller and records the payment row that the reconciler will later match by
// transaction id. Orders that don't exist or belong to someone else are both
// reported as not found.
func (s *PaymentService) CreatePayment(ctx context.Context, caller domain.CallerContext, orderID string) (CreatePaymentResult, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return CreatePaymentResult{}, err
	}
	if order.UserID != caller.UserID {
		return CreatePaymentResult{}, domain.ErrOrderNotFound
	}
	if order.Status != domain.OrderStatusPending {
		return CreatePaymentResult{}, domain.ErrOrderNotPayable
	}

	// The provider call stays outside the transaction so a slow provider
	// never holds a row lock.
	intent, err := s.gateway.CreateIntent(ctx, order.ID, order.Total)
	if err != nil {
		return CreatePaymentResult{}, fmt.Errorf("create intent: %w", err)
	}

	payment := domain.Payment{
		ID:            uuid.NewString(),
		OrderID:       order.ID,
		Provider:      domain.ProviderStripe,
		Status:        domain.PaymentStatusPending,
		TransactionID: intent.TransactionID,
		Amount:        order.Total,
		CreatedAt:     s.clock.Now(),
	}
	// Re-check the status under lock: the order may have been cancelled
	// while the provider call was in flight. The intent is then dropped and
	// expires at the provider unconfirmed.
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetOrderForUpdate(txCtx, order.ID)
		if err != nil {
			return err
		}
		if current.Status != domain.OrderStatusPending {
			return domain.ErrOrderNotPayable
		}
		return s.repo.CreatePayment(txCtx, payment)
	})
	if err != nil {
		return CreatePaymentResult{}, err
	}

	return CreatePaymentResult{Payment: payment, ClientSecret: intent.ClientSecret}, nil
}

// EventTypePaymentSucceeded is the only provider event the reconciler acts on.
const EventTypePaymentSucceeded = "payment_intent.succeeded"

// ProviderEvent is a verified payment-provider notification. Signature
// verification happens in the transport layer; an event that failed
// verification never reaches the reconciler.
type ProviderEvent struct {
	Type          string
	TransactionID string
	OrderID       string
}

// ApplyResult reports what a provider event actually changed. UserID is the
// order's owner, carried so callers can update owner-scoped caches.
type ApplyResult struct {
	OrderID   string
	UserID    string
	OrderPaid bool
}

// HandleProviderEvent applies a provider event to payment and order state
// exactly once. Duplicates, unknown transaction ids, and events with missing
// order metadata are deliberate no-ops: the caller still acknowledges them so
// the provider stops retrying. A confirmation that arrives after the order
// was cancelled marks the payment CONFIRMED for audit but never resurrects
// the order; the mismatch is logged for manual reconciliation.
func (s *PaymentService) HandleProviderEvent(ctx context.Context, event ProviderEvent) (ApplyResult, error) {
	if event.Type != EventTypePaymentSucceeded {
		return ApplyResult{}, nil
	}
	if event.TransactionID == "" || event.OrderID == "" {
		return ApplyResult{}, nil
	}

	var result ApplyResult
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		payment, err := s.repo.GetPaymentByTransactionID(txCtx, event.TransactionID)
		if err != nil {
			return err
		}
		if payment == nil || payment.Status == domain.PaymentStatusConfirmed {
			return nil
		}

		if err := s.repo.UpdatePaymentStatus(txCtx, payment.ID, domain.PaymentStatusConfirmed); err != nil {
			return err
		}

		order, err := s.repo.GetOrderForUpdate(txCtx, payment.OrderID)
		if err != nil {
			return err
		}
		result.OrderID = order.ID
		result.UserID = order.UserID
		if order.Status == domain.OrderStatusPaid {
			return nil
		}
		if !domain.CanTransition(order.Status, domain.OrderStatusPaid) {
			s.logger.Printf("payment %s confirmed but order %s is %s; left for manual reconciliation",
				payment.ID, order.ID, order.Status)
			return nil
		}

		if err := s.repo.UpdateOrderStatus(txCtx, order.ID, domain.OrderStatusPaid); err != nil {
			return err
		}
		result.OrderPaid = true
		return nil
	})
	if err != nil {
		return ApplyResult{}, fmt.Errorf("apply payment event %s: %w", event.TransactionID, err)
	}
	return result, nil
}
