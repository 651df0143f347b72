package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/romariomartinez/ApiEcommerce/internal/domain"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *PaymentRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	const query = `SELECT id, user_id, status, total, created_at FROM orders WHERE id = $1`
	return r.scanOrder(r.queryRow(ctx, query, orderID))
}

func (r *PaymentRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	const query = `
SELECT id, user_id, status, total, created_at
FROM orders
WHERE id = $1
FOR UPDATE`

	return r.scanOrder(r.queryRow(ctx, query, orderID))
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, payment domain.Payment) error {
	const stmt = `
INSERT INTO payments (id, order_id, provider, status, transaction_id, amount, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		payment.ID,
		payment.OrderID,
		payment.Provider,
		payment.Status,
		payment.TransactionID,
		payment.Amount,
		payment.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrOrderNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("create payment: transaction %s already recorded", payment.TransactionID)
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// GetPaymentByTransactionID locks the payment row matching the provider's
// correlation id. A missing row is not an error: the reconciler treats it as
// a no-op event.
func (r *PaymentRepository) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	const query = `
SELECT id, order_id, provider, status, transaction_id, amount, created_at
FROM payments
WHERE transaction_id = $1
FOR UPDATE`

	var p domain.Payment
	var status string
	err := r.queryRow(ctx, query, transactionID).
		Scan(&p.ID, &p.OrderID, &p.Provider, &status, &p.TransactionID, &p.Amount, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by transaction id: %w", err)
	}
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}

func (r *PaymentRepository) UpdatePaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus) error {
	const stmt = `UPDATE payments SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, paymentID, status)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update payment status: payment %s not found", paymentID)
	}
	return nil
}

func (r *PaymentRepository) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	const stmt = `UPDATE orders SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *PaymentRepository) scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.UserID, &status, &o.Total, &o.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}

func (r *PaymentRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PaymentRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
