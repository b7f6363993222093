package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item tracked by the inventory.
type Product struct {
	ID                string
	Name              string
	Description       string
	Price             decimal.Decimal
	Stock             int
	LowStockThreshold int
	CreatedAt         time.Time
}

// ValidationError reports a malformed or missing product field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the product field invariants: non-empty name, non-negative
// price, stock and threshold.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if p.Price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if p.Stock < 0 {
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	if p.LowStockThreshold < 0 {
		return &ValidationError{Field: "lowStockThreshold", Reason: "must not be negative"}
	}
	return nil
}

// Update holds a partial set of product fields. Nil pointers mean
// "leave unchanged".
type Update struct {
	Name              *string
	Description       *string
	Price             *decimal.Decimal
	Stock             *int
	LowStockThreshold *int
}

// Repository defines persistence operations for the product catalog.
//
// Replace persists every field except Stock; stock mutations go through the
// stock.Ledger so they cannot clobber concurrent order commits.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Replace(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
