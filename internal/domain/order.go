package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a purchase with its immutable line items. Total equals the sum of
// unit_price * quantity over the items, using prices captured at creation.
type Order struct {
	ID        string
	UserID    string
	Status    OrderStatus
	Total     decimal.Decimal
	CreatedAt time.Time
	Items     []OrderItem
	Payments  []Payment
}

// OrderItem is one line of an order. Items are never updated after the order
// exists; UnitPrice is the snapshot taken when the order was created.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}
