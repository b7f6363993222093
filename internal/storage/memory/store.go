// Package memory provides an in-process implementation of the product, order
// and stock ledger interfaces. It backs unit and handler tests and the
// dependency-free "memory" storage driver.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/velsh/stockdeck/internal/domain/order"
	"github.com/velsh/stockdeck/internal/domain/product"
	"github.com/velsh/stockdeck/internal/domain/stock"
)

var (
	_ product.Repository = (*Store)(nil)
	_ stock.Ledger       = (*Store)(nil)
	_ order.Repository   = (*OrderStore)(nil)
)

// Store holds products and orders in maps guarded by a single RWMutex.
//
// Concurrency model: mu serializes every mutation, so an order commit is one
// critical section — the cumulative stock check, the decrements and the order
// append are observed together or not at all. Reads snapshot under RLock and
// never return interior pointers into the maps.
type Store struct {
	mu       sync.RWMutex
	products map[string]product.Product
	orders   []order.Order
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{products: make(map[string]product.Product)}
}

// Orders returns the order.Repository facet of the store.
func (s *Store) Orders() *OrderStore {
	return &OrderStore{s: s}
}

// List returns all products, sorted by ID for deterministic output.
func (s *Store) List(_ context.Context) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.products[id])
	}
	return out, nil
}

// GetByID returns a copy of the product with the given ID.
func (s *Store) GetByID(_ context.Context, id string) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// GetByIDs returns the products matching any of the given IDs. Missing IDs
// are simply absent from the result; duplicates are returned once.
func (s *Store) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Create inserts a new product.
func (s *Store) Create(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[p.ID] = *p
	return nil
}

// Replace persists every field of p except Stock, which is owned by the
// ledger operations.
func (s *Store) Replace(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.products[p.ID]
	if !ok {
		return product.ErrNotFound
	}
	next := *p
	next.Stock = current.Stock
	s.products[p.ID] = next
	return nil
}

// Delete removes a product. Historical orders keep their item snapshots.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return product.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

// Stock returns the current stock level for a product.
func (s *Store) Stock(_ context.Context, productID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return 0, product.ErrNotFound
	}
	return p.Stock, nil
}

// SetStock sets a product's stock to an absolute non-negative value.
func (s *Store) SetStock(_ context.Context, productID string, value int) error {
	if value < 0 {
		return &stock.InvalidQuantityError{ProductID: productID, Value: value}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return product.ErrNotFound
	}
	p.Stock = value
	s.products[productID] = p
	return nil
}

// Decrement atomically reduces stock for every product in demand, or none.
func (s *Store) Decrement(_ context.Context, demand map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.decrementLocked(demand)
}

// decrementLocked checks the full demand before mutating anything. Must be
// called with mu held for writing.
func (s *Store) decrementLocked(demand map[string]int) error {
	var shortages []stock.Shortage
	for _, id := range stock.SortedIDs(demand) {
		need := demand[id]
		if need <= 0 {
			return &stock.InvalidQuantityError{ProductID: id, Value: need}
		}
		p, ok := s.products[id]
		if !ok {
			return product.ErrNotFound
		}
		if p.Stock < need {
			shortages = append(shortages, stock.Shortage{
				ProductID: id,
				Requested: need,
				Available: p.Stock,
			})
		}
	}
	if len(shortages) > 0 {
		return &stock.InsufficientStockError{Shortages: shortages}
	}

	for id, need := range demand {
		p := s.products[id]
		p.Stock -= need
		s.products[id] = p
	}
	return nil
}

// OrderStore is the order.Repository facet of a Store.
type OrderStore struct {
	s *Store
}

// List returns all committed orders in commit order.
func (o *OrderStore) List(_ context.Context) ([]order.Order, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	out := make([]order.Order, len(o.s.orders))
	copy(out, o.s.orders)
	return out, nil
}

// Commit applies the demanded decrements and appends the order in one
// critical section: a failed check leaves stock untouched and no order
// recorded.
func (o *OrderStore) Commit(_ context.Context, ord *order.Order, demand map[string]int) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	if err := o.s.decrementLocked(demand); err != nil {
		return err
	}
	o.s.orders = append(o.s.orders, *ord)
	return nil
}
