package app

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/romariomartinez/ApiEcommerce/internal/clock"
	"github.com/romariomartinez/ApiEcommerce/internal/domain"
)

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetStockForUpdate(ctx context.Context, productIDs []string) ([]domain.ProductStock, error)
	CreateOrder(ctx context.Context, order domain.Order) error
	CreateOrderItems(ctx context.Context, items []domain.OrderItem) error
	DecrementStock(ctx context.Context, productID string, qty int) error
	IncrementStock(ctx context.Context, productID string, qty int) error
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	GetOrderWithItems(ctx context.Context, orderID string) (domain.Order, error)
	ListOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error)
	ListOrdersByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
}

type OrderService struct {
	repo  OrderRepository
	clock clock.Clock
}

func NewOrderService(repo OrderRepository, clk clock.Clock) *OrderService {
	return &OrderService{
		repo:  repo,
		clock: clk,
	}
}

// OrderLine is one requested (product, quantity) pair. Duplicate product ids
// in a request are merged as additive demand for that product.
type OrderLine struct {
	ProductID string
	Quantity  int
}

const listPageSize = 10

// CreateOrder turns the requested lines into a persisted PENDING order,
// snapshotting unit prices and decrementing stock, all inside one
// transaction. Inventory rows are locked in ascending product id order so
// concurrent orders over overlapping product sets cannot deadlock. Any
// failure leaves inventory and order state untouched.
func (s *OrderService) CreateOrder(ctx context.Context, caller domain.CallerContext, lines []OrderLine) (domain.Order, error) {
	if len(lines) == 0 {
		return domain.Order{}, domain.ErrValidationFailed
	}

	demand := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.Quantity <= 0 {
			return domain.Order{}, domain.ErrValidationFailed
		}
		demand[line.ProductID] += line.Quantity
	}

	productIDs := make([]string, 0, len(demand))
	for id := range demand {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	now := s.clock.Now()
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		stocks, err := s.repo.GetStockForUpdate(txCtx, productIDs)
		if err != nil {
			return err
		}
		byProduct := make(map[string]domain.ProductStock, len(stocks))
		for _, st := range stocks {
			byProduct[st.ProductID] = st
		}

		// Validate every line before mutating anything.
		total := decimal.Zero
		for _, id := range productIDs {
			st, ok := byProduct[id]
			if !ok || st.Stock < demand[id] {
				return &domain.InsufficientStockError{ProductID: id}
			}
			total = total.Add(st.UnitPrice.Mul(decimal.NewFromInt(int64(demand[id]))))
		}

		order := domain.Order{
			ID:        uuid.NewString(),
			UserID:    caller.UserID,
			Status:    domain.OrderStatusPending,
			Total:     total,
			CreatedAt: now,
		}
		if err := s.repo.CreateOrder(txCtx, order); err != nil {
			return err
		}

		items := make([]domain.OrderItem, 0, len(productIDs))
		for _, id := range productIDs {
			items = append(items, domain.OrderItem{
				ID:        uuid.NewString(),
				OrderID:   order.ID,
				ProductID: id,
				Quantity:  demand[id],
				UnitPrice: byProduct[id].UnitPrice,
			})
		}
		if err := s.repo.CreateOrderItems(txCtx, items); err != nil {
			return err
		}
		for _, item := range items {
			if err := s.repo.DecrementStock(txCtx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		order.Items = items
		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

// GetOrder returns an order with items and payments. Customers only see
// their own orders; administrators see any.
func (s *OrderService) GetOrder(ctx context.Context, caller domain.CallerContext, orderID string) (domain.Order, error) {
	order, err := s.repo.GetOrderWithItems(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !caller.IsAdmin() && order.UserID != caller.UserID {
		return domain.Order{}, domain.ErrAccessDenied
	}
	return order, nil
}

// ListMyOrders returns the caller's orders, newest first, ten per page.
func (s *OrderService) ListMyOrders(ctx context.Context, caller domain.CallerContext, page int) ([]domain.Order, error) {
	if page < 1 {
		page = 1
	}
	orders, err := s.repo.ListOrdersByUser(ctx, caller.UserID, listPageSize, (page-1)*listPageSize)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := s.repo.ListOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// CancelOrder is the owner cancellation path: only the owning user, and only
// while the order is still PENDING.
func (s *OrderService) CancelOrder(ctx context.Context, caller domain.CallerContext, orderID string) (domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderStatusCancelled, caller.UserID)
}

// UpdateStatus is the administrator path over the same state machine. Setting
// PAID is reserved to the payment reconciler and rejected here.
func (s *OrderService) UpdateStatus(ctx context.Context, caller domain.CallerContext, orderID string, to domain.OrderStatus) (domain.Order, error) {
	if !caller.IsAdmin() {
		return domain.Order{}, domain.ErrAccessDenied
	}
	if to == domain.OrderStatusPaid {
		return domain.Order{}, domain.ErrInvalidTransition
	}
	return s.transition(ctx, orderID, to, "")
}

// transition re-reads the order under lock, checks legality against the
// current status, writes the new status, and releases reserved stock when
// entering CANCELLED. Owner-driven calls pass a non-empty ownerID and are
// limited to cancelling PENDING orders.
func (s *OrderService) transition(ctx context.Context, orderID string, to domain.OrderStatus, ownerID string) (domain.Order, error) {
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if ownerID != "" {
			if order.UserID != ownerID {
				return domain.ErrAccessDenied
			}
			if order.Status != domain.OrderStatusPending {
				return domain.ErrInvalidTransition
			}
		}
		if !domain.CanTransition(order.Status, to) {
			return domain.ErrInvalidTransition
		}

		if to.ReleasesStock() {
			items, err := s.repo.ListOrderItems(txCtx, orderID)
			if err != nil {
				return err
			}
			for _, item := range items {
				if err := s.repo.IncrementStock(txCtx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			order.Items = items
		}

		if err := s.repo.UpdateOrderStatus(txCtx, orderID, to); err != nil {
			return err
		}

		order.Status = to
		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}
