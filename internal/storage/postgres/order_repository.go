package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/romariomartinez/ApiEcommerce/internal/domain"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetStockForUpdate locks the inventory rows for the given products in
// ascending product id order. Every call site that touches multiple rows
// relies on this ordering to stay deadlock-free.
func (r *OrderRepository) GetStockForUpdate(ctx context.Context, productIDs []string) ([]domain.ProductStock, error) {
	const query = `
SELECT i.product_id, i.stock, p.price
FROM inventory i
JOIN products p ON p.id = i.product_id
WHERE i.product_id = ANY($1)
ORDER BY i.product_id
FOR UPDATE OF i`

	rows, err := r.query(ctx, query, productIDs)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	defer rows.Close()

	var stocks []domain.ProductStock
	for rows.Next() {
		var st domain.ProductStock
		if err := rows.Scan(&st.ProductID, &st.Stock, &st.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		stocks = append(stocks, st)
	}
	if rows.Err() != nil {
		if isInvalidUUID(rows.Err()) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate stock: %w", rows.Err())
	}
	return stocks, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, user_id, status, total, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, order.ID, order.UserID, order.Status, order.Total, order.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) CreateOrderItems(ctx context.Context, items []domain.OrderItem) error {
	const stmt = `
INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5)`

	for _, item := range items {
		_, err := r.exec(ctx, stmt, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrProductNotFound
			}
			return fmt.Errorf("create order item: %w", err)
		}
	}
	return nil
}

// DecrementStock reserves qty units. The stock >= $2 guard makes the check
// and the mutation one atomic statement; the table's stock >= 0 constraint
// backstops it.
func (r *OrderRepository) DecrementStock(ctx context.Context, productID string, qty int) error {
	const stmt = `UPDATE inventory SET stock = stock - $2 WHERE product_id = $1 AND stock >= $2`

	tag, err := r.exec(ctx, stmt, productID, qty)
	if err != nil {
		if isCheckViolation(err) {
			return &domain.InsufficientStockError{ProductID: productID}
		}
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.InsufficientStockError{ProductID: productID}
	}
	return nil
}

func (r *OrderRepository) IncrementStock(ctx context.Context, productID string, qty int) error {
	const stmt = `UPDATE inventory SET stock = stock + $2 WHERE product_id = $1`

	tag, err := r.exec(ctx, stmt, productID, qty)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *OrderRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	const query = `
SELECT id, user_id, status, total, created_at
FROM orders
WHERE id = $1
FOR UPDATE`

	return r.scanOrder(r.queryRow(ctx, query, orderID))
}

func (r *OrderRepository) GetOrderWithItems(ctx context.Context, orderID string) (domain.Order, error) {
	const query = `SELECT id, user_id, status, total, created_at FROM orders WHERE id = $1`

	order, err := r.scanOrder(r.queryRow(ctx, query, orderID))
	if err != nil {
		return domain.Order{}, err
	}
	if order.Items, err = r.ListOrderItems(ctx, orderID); err != nil {
		return domain.Order{}, err
	}
	if order.Payments, err = r.listPayments(ctx, orderID); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// ListOrderItems returns the order's items in ascending product id order so
// release paths lock inventory rows the same way reserve paths do.
func (r *OrderRepository) ListOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const query = `
SELECT id, order_id, product_id, quantity, unit_price
FROM order_items
WHERE order_id = $1
ORDER BY product_id`

	rows, err := r.query(ctx, query, orderID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate order items: %w", rows.Err())
	}
	return items, nil
}

func (r *OrderRepository) ListOrdersByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	const query = `
SELECT id, user_id, status, total, created_at
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.query(ctx, query, userID, limit, offset)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &status, &o.Total, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = domain.OrderStatus(status)
		orders = append(orders, o)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate orders: %w", rows.Err())
	}
	return orders, nil
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
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

func (r *OrderRepository) listPayments(ctx context.Context, orderID string) ([]domain.Payment, error) {
	const query = `
SELECT id, order_id, provider, status, transaction_id, amount, created_at
FROM payments
WHERE order_id = $1
ORDER BY created_at`

	rows, err := r.query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		var status string
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Provider, &status, &p.TransactionID, &p.Amount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Status = domain.PaymentStatus(status)
		payments = append(payments, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate payments: %w", rows.Err())
	}
	return payments, nil
}

func (r *OrderRepository) scanOrder(row pgx.Row) (domain.Order, error) {
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

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
