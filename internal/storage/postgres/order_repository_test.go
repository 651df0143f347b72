package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/romariomartinez/ApiEcommerce/internal/domain"
	"github.com/romariomartinez/ApiEcommerce/internal/testutil"
)

func TestOrderRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	repo := NewOrderRepository(pool)

	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	t.Run("GetStockForUpdate returns rows in ascending product id order", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		p1 := testutil.InsertProduct(t, ctx, pool, "alpha", price("1.50"), 3)
		p2 := testutil.InsertProduct(t, ctx, pool, "beta", price("2.75"), 7)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			stocks, err := repo.GetStockForUpdate(txCtx, []string{p2, p1})
			if err != nil {
				return err
			}
			if len(stocks) != 2 {
				t.Fatalf("expected 2 rows, got %d", len(stocks))
			}
			if stocks[0].ProductID > stocks[1].ProductID {
				t.Fatalf("expected ascending product id order, got %s then %s", stocks[0].ProductID, stocks[1].ProductID)
			}
			byID := map[string]domain.ProductStock{}
			for _, st := range stocks {
				byID[st.ProductID] = st
			}
			if byID[p1].Stock != 3 || !byID[p1].UnitPrice.Equal(price("1.50")) {
				t.Fatalf("unexpected row for p1: %+v", byID[p1])
			}
			if byID[p2].Stock != 7 || !byID[p2].UnitPrice.Equal(price("2.75")) {
				t.Fatalf("unexpected row for p2: %+v", byID[p2])
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx: %v", err)
		}
	})

	t.Run("GetStockForUpdate skips unknown ids", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		p1 := testutil.InsertProduct(t, ctx, pool, "alpha", price("1.00"), 1)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			stocks, err := repo.GetStockForUpdate(txCtx, []string{p1, uuid.NewString()})
			if err != nil {
				return err
			}
			if len(stocks) != 1 || stocks[0].ProductID != p1 {
				t.Fatalf("expected only the known product, got %+v", stocks)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx: %v", err)
		}
	})

	t.Run("DecrementStock refuses to go negative", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		p1 := testutil.InsertProduct(t, ctx, pool, "alpha", price("1.00"), 2)

		if err := repo.DecrementStock(ctx, p1, 2); err != nil {
			t.Fatalf("expected decrement to 0 to succeed: %v", err)
		}
		if got := testutil.Stock(t, ctx, pool, p1); got != 0 {
			t.Fatalf("expected stock 0, got %d", got)
		}

		err := repo.DecrementStock(ctx, p1, 1)
		var stockErr *domain.InsufficientStockError
		if !errors.As(err, &stockErr) || stockErr.ProductID != p1 {
			t.Fatalf("expected InsufficientStockError for %s, got %v", p1, err)
		}
		if got := testutil.Stock(t, ctx, pool, p1); got != 0 {
			t.Fatalf("expected stock unchanged, got %d", got)
		}
	})

	t.Run("IncrementStock restores units and rejects unknown products", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		p1 := testutil.InsertProduct(t, ctx, pool, "alpha", price("1.00"), 1)

		if err := repo.IncrementStock(ctx, p1, 4); err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got := testutil.Stock(t, ctx, pool, p1); got != 5 {
			t.Fatalf("expected stock 5, got %d", got)
		}

		if err := repo.IncrementStock(ctx, uuid.NewString(), 1); !errors.Is(err, domain.ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("create and read back an order with items", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		p1 := testutil.InsertProduct(t, ctx, pool, "alpha", price("3.00"), 10)
		p2 := testutil.InsertProduct(t, ctx, pool, "beta", price("4.00"), 10)

		order := domain.Order{
			ID:        uuid.NewString(),
			UserID:    uuid.NewString(),
			Status:    domain.OrderStatusPending,
			Total:     price("10.00"),
			CreatedAt: time.Now().UTC(),
		}
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			if err := repo.CreateOrder(txCtx, order); err != nil {
				return err
			}
			return repo.CreateOrderItems(txCtx, []domain.OrderItem{
				{ID: uuid.NewString(), OrderID: order.ID, ProductID: p1, Quantity: 2, UnitPrice: price("3.00")},
				{ID: uuid.NewString(), OrderID: order.ID, ProductID: p2, Quantity: 1, UnitPrice: price("4.00")},
			})
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		got, err := repo.GetOrderWithItems(ctx, order.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.UserID != order.UserID || got.Status != domain.OrderStatusPending {
			t.Fatalf("unexpected order: %+v", got)
		}
		if !got.Total.Equal(price("10.00")) {
			t.Fatalf("expected total 10.00, got %s", got.Total)
		}
		if len(got.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(got.Items))
		}
	})

	t.Run("order items referencing a missing product are rejected", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		orderID := testutil.InsertOrder(t, ctx, pool, uuid.NewString(), domain.OrderStatusPending, price("1.00"))

		err := repo.CreateOrderItems(ctx, []domain.OrderItem{
			{ID: uuid.NewString(), OrderID: orderID, ProductID: uuid.NewString(), Quantity: 1, UnitPrice: price("1.00")},
		})
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("ListOrderItems orders by product id", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		p1 := testutil.InsertProduct(t, ctx, pool, "alpha", price("1.00"), 10)
		p2 := testutil.InsertProduct(t, ctx, pool, "beta", price("2.00"), 10)
		orderID := testutil.InsertOrder(t, ctx, pool, uuid.NewString(), domain.OrderStatusPending, price("3.00"))
		testutil.InsertOrderItem(t, ctx, pool, orderID, p2, 1, price("2.00"))
		testutil.InsertOrderItem(t, ctx, pool, orderID, p1, 1, price("1.00"))

		items, err := repo.ListOrderItems(ctx, orderID)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if items[0].ProductID > items[1].ProductID {
			t.Fatalf("expected ascending product id order, got %s then %s", items[0].ProductID, items[1].ProductID)
		}
	})

	t.Run("ListOrdersByUser pages newest first", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		userID := uuid.NewString()
		first := testutil.InsertOrder(t, ctx, pool, userID, domain.OrderStatusPending, price("1.00"))
		if _, err := pool.Exec(ctx, `UPDATE orders SET created_at = created_at - interval '1 hour' WHERE id = $1`, first); err != nil {
			t.Fatalf("backdate: %v", err)
		}
		second := testutil.InsertOrder(t, ctx, pool, userID, domain.OrderStatusPending, price("2.00"))
		testutil.InsertOrder(t, ctx, pool, uuid.NewString(), domain.OrderStatusPending, price("9.00"))

		orders, err := repo.ListOrdersByUser(ctx, userID, 10, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(orders) != 2 {
			t.Fatalf("expected 2 orders, got %d", len(orders))
		}
		if orders[0].ID != second || orders[1].ID != first {
			t.Fatalf("expected newest first, got %s then %s", orders[0].ID, orders[1].ID)
		}

		page2, err := repo.ListOrdersByUser(ctx, userID, 1, 1)
		if err != nil {
			t.Fatalf("list page 2: %v", err)
		}
		if len(page2) != 1 || page2[0].ID != first {
			t.Fatalf("expected second page to hold the older order, got %+v", page2)
		}
	})

	t.Run("UpdateOrderStatus on a missing order", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		if err := repo.UpdateOrderStatus(ctx, uuid.NewString(), domain.OrderStatusPaid); !errors.Is(err, domain.ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("rollback undoes every write in the transaction", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		p1 := testutil.InsertProduct(t, ctx, pool, "alpha", price("1.00"), 5)
		boom := errors.New("boom")

		orderID := uuid.NewString()
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			if err := repo.CreateOrder(txCtx, domain.Order{
				ID: orderID, UserID: uuid.NewString(), Status: domain.OrderStatusPending,
				Total: price("1.00"), CreatedAt: time.Now().UTC(),
			}); err != nil {
				return err
			}
			if err := repo.DecrementStock(txCtx, p1, 3); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if got := testutil.Stock(t, ctx, pool, p1); got != 5 {
			t.Fatalf("expected stock restored to 5, got %d", got)
		}
		if _, err := repo.GetOrderWithItems(ctx, orderID); !errors.Is(err, domain.ErrOrderNotFound) {
			t.Fatalf("expected order rolled back, got %v", err)
		}
	})

	t.Run("malformed id maps to ErrInvalidID", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		if _, err := repo.GetOrderWithItems(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})
}
