package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. The order core only reads its price; writes go
// through the catalog service. Stock lives in the inventory table and is
// populated on catalog reads.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Stock     int
	CreatedAt time.Time
}

// ProductStock is the per-product view read under row lock during order
// creation: current stock plus the unit price snapshotted into the order.
type ProductStock struct {
	ProductID string
	Stock     int
	UnitPrice decimal.Decimal
}
