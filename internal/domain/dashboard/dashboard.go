// Package dashboard computes the read-side summary projection over the
// current product and order snapshots. It retains no state between queries.
package dashboard

import (
	"context"
	"sort"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/velsh/stockdeck/internal/domain/order"
	"github.com/velsh/stockdeck/internal/domain/product"
)

// recentOrderLimit is how many of the newest orders the dashboard shows.
const recentOrderLimit = 5

// Stats is the aggregated dashboard view.
type Stats struct {
	TotalProducts    int
	TotalOrders      int
	LowStockCount    int
	RecentOrders     []order.Order
	LowStockProducts []product.Product
}

// Service aggregates catalog and order snapshots into dashboard statistics.
type Service struct {
	products product.Repository
	orders   order.Repository
}

// NewService creates a dashboard Service.
func NewService(products product.Repository, orders order.Repository) *Service {
	return &Service{products: products, orders: orders}
}

// Stats recomputes the dashboard from the current snapshots. The product and
// order reads run concurrently; the result is a pure function of what they
// return.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var (
		products []product.Product
		orders   []order.Order
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.List(ctx)
		return errors.Wrap(err, "list products")
	})
	g.Go(func() error {
		var err error
		orders, err = s.orders.List(ctx)
		return errors.Wrap(err, "list orders")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	low := make([]product.Product, 0)
	for _, p := range products {
		if product.Classify(p.Stock, p.LowStockThreshold).NeedsAttention() {
			low = append(low, p)
		}
	}

	recent := make([]order.Order, len(orders))
	copy(recent, orders)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > recentOrderLimit {
		recent = recent[:recentOrderLimit]
	}

	return &Stats{
		TotalProducts:    len(products),
		TotalOrders:      len(orders),
		LowStockCount:    len(low),
		RecentOrders:     recent,
		LowStockProducts: low,
	}, nil
}
