package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velsh/stockdeck/internal/domain/order"
)

const (
	listOrdersSQL = `SELECT id, items, total_price, created_at FROM orders ORDER BY created_at DESC, id`

	insertOrderSQL = `INSERT INTO orders (id, items, total_price, created_at)
		VALUES ($1, $2, $3, $4)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// List returns all committed orders, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Commit decrements stock for the aggregated demand and inserts the order row
// in a single transaction. A shortage on any product rolls back every
// decrement and no order row is written.
func (r *OrderRepository) Commit(ctx context.Context, o *order.Order, demand map[string]int) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := decrementAll(ctx, tx, demand); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, insertOrderSQL, o.ID, itemsJSON, o.TotalPrice, o.CreatedAt)
		if err != nil {
			return fmt.Errorf("creating order %q: %w", o.ID, err)
		}
		return nil
	})
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
	)
	err := row.Scan(&o.ID, &itemsJSON, &o.TotalPrice, &o.CreatedAt)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling items for order %q: %w", o.ID, err)
	}
	return o, nil
}
