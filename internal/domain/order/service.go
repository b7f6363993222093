package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velsh/stockdeck/internal/domain/product"
	"github.com/velsh/stockdeck/internal/domain/stock"
)

// ErrEmptyItems is returned when an order request has no line items.
var ErrEmptyItems = errors.New("items required")

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s, got %d", e.ProductID, e.Quantity)
}

// RequestItem is one requested (product, quantity) pair. The same product may
// appear on multiple lines; commit checks the summed demand.
type RequestItem struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Items []RequestItem
}

// Service encapsulates order validation and the commit protocol.
type Service struct {
	products product.Repository
	orders   Repository
	now      func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(products product.Repository, orders Repository) *Service {
	return &Service{products: products, orders: orders, now: time.Now}
}

// List returns all committed orders.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// PlaceOrder validates the requested items, snapshots unit prices, computes
// the total, and commits the order atomically against the stock ledger.
//
// The per-line stock check against the snapshot read is advisory only; the
// authoritative check happens inside Commit, which sees the summed demand per
// product. Two lines of the same product can each pass the advisory check and
// still fail the commit when their combined demand exceeds availability.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID, Quantity: item.Quantity}
		}
		ids[i] = item.ProductID
	}

	// Batch fetch all referenced products in a single read.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	// Resolve every line, snapshot prices, and sum the total.
	items := make([]OrderItem, len(req.Items))
	total := decimal.Zero
	for i, item := range req.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		// Advisory pre-check against the snapshot read. Per-line only: the
		// authoritative cumulative check happens inside Commit.
		if item.Quantity > p.Stock {
			return nil, &stock.InsufficientStockError{Shortages: []stock.Shortage{{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: p.Stock,
			}}}
		}
		items[i] = OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     p.Price,
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	total = total.Round(2)

	// Aggregate duplicate lines so commit checks total demand per product.
	demand := make(map[string]int, len(req.Items))
	for _, item := range req.Items {
		demand[item.ProductID] += item.Quantity
	}

	o := &Order{
		ID:         uuid.New().String(),
		Items:      items,
		TotalPrice: total,
		CreatedAt:  s.now(),
	}
	if err := s.orders.Commit(ctx, o, demand); err != nil {
		return nil, err
	}
	return o, nil
}
