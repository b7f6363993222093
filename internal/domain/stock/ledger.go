// Package stock defines the ledger contract that keeps per-product
// availability counts correct under concurrent order commits.
package stock

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// InvalidQuantityError reports an attempt to set a negative stock value or
// request a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
	Value     int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for product %s", e.Value, e.ProductID)
}

// Shortage describes one product whose available stock could not cover the
// requested quantity.
type Shortage struct {
	ProductID string
	Requested int
	Available int
}

// InsufficientStockError reports the products that lacked stock during a
// decrement. The ledger guarantees no stock was mutated when it is returned.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("%s (requested %d, available %d)", s.ProductID, s.Requested, s.Available)
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// Ledger is the single source of truth for product availability.
//
// Decrement is atomic across every product in demand: either all stock values
// are reduced or none are. Implementations must serialize decrements against
// concurrent decrements and SetStock calls on the same product, so two orders
// competing for the last units cannot both succeed.
type Ledger interface {
	Stock(ctx context.Context, productID string) (int, error)
	SetStock(ctx context.Context, productID string, value int) error
	Decrement(ctx context.Context, demand map[string]int) error
}

// SortedIDs returns the demand's product IDs in ascending order. Ledger
// implementations lock or update products in this order so concurrent
// multi-product commits cannot deadlock.
func SortedIDs(demand map[string]int) []string {
	ids := make([]string, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
