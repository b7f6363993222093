package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a committed customer order. Orders are immutable once
// committed; items keep the price snapshot taken at validation time.
type Order struct {
	ID         string
	Items      []OrderItem
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

// OrderItem is a single line of an order. ProductID is a weak reference: the
// product may have been deleted since, and display logic must tolerate that.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Repository defines persistence operations for orders.
//
// Commit applies demand (required quantity per distinct product) to the stock
// ledger and appends the order as one atomic transition: no observer may see
// the decrements without the order record or the record without the
// decrements. On insufficient stock it returns *stock.InsufficientStockError
// and leaves every stock value untouched.
type Repository interface {
	List(ctx context.Context) ([]Order, error)
	Commit(ctx context.Context, o *Order, demand map[string]int) error
}
