package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velsh/stockdeck/internal/domain/stock"
)

// CreateRequest holds the input for creating a catalog product.
type CreateRequest struct {
	Name              string
	Description       string
	Price             decimal.Decimal
	Stock             int
	LowStockThreshold int
}

// Service encapsulates catalog commands. Stock edits go through the Ledger so
// the non-negative invariant has a single enforcement point.
type Service struct {
	products Repository
	ledger   stock.Ledger
	now      func() time.Time
}

// NewService creates a product Service.
func NewService(products Repository, ledger stock.Ledger) *Service {
	return &Service{products: products, ledger: ledger, now: time.Now}
}

// List returns the full catalog.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.products.List(ctx)
}

// Get returns a single product by ID.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.products.GetByID(ctx, id)
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Product, error) {
	p := &Product{
		ID:                uuid.New().String(),
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
		CreatedAt:         s.now(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// ApplyUpdate patches the given fields onto a copy of p and validates the
// result. It does not persist.
func ApplyUpdate(p Product, upd Update) (Product, error) {
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Stock != nil {
		p.Stock = *upd.Stock
	}
	if upd.LowStockThreshold != nil {
		p.LowStockThreshold = *upd.LowStockThreshold
	}
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Update applies a partial update to an existing product. A stock change is
// routed through the Ledger; the remaining fields are replaced in one write.
func (s *Service) Update(ctx context.Context, id string, upd Update) (*Product, error) {
	current, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := ApplyUpdate(*current, upd)
	if err != nil {
		return nil, err
	}

	if upd.Stock != nil && *upd.Stock != current.Stock {
		if err := s.ledger.SetStock(ctx, id, *upd.Stock); err != nil {
			return nil, err
		}
	}
	if err := s.products.Replace(ctx, &next); err != nil {
		return nil, errors.Wrap(err, "replace product")
	}
	return &next, nil
}

// Delete removes a product from the catalog. Historical orders keep their
// stored price and quantity snapshots; they are not rewritten.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}
