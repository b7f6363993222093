package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velsh/stockdeck/internal/domain/product"
	"github.com/velsh/stockdeck/internal/domain/stock"
)

const (
	listProductsSQL = `SELECT id, name, description, price, stock, low_stock_threshold, created_at
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, name, description, price, stock, low_stock_threshold, created_at
		FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT id, name, description, price, stock, low_stock_threshold, created_at
		FROM products WHERE id = ANY($1)`

	insertProductSQL = `INSERT INTO products (id, name, description, price, stock, low_stock_threshold, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	replaceProductSQL = `UPDATE products
		SET name = $2, description = $3, price = $4, low_stock_threshold = $5
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	getStockSQL = `SELECT stock FROM products WHERE id = $1`

	setStockSQL = `UPDATE products SET stock = $2 WHERE id = $1`

	// Guarded decrement: matches zero rows when the product is missing or its
	// stock cannot cover the demand, so the caller can distinguish and abort.
	decrementStockSQL = `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`
)

var (
	_ product.Repository = (*ProductRepository)(nil)
	_ stock.Ledger       = (*ProductRepository)(nil)
)

// ProductRepository implements product.Repository and stock.Ledger backed by
// PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a new product row.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.LowStockThreshold, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Replace updates every product field except stock, which only the ledger
// operations touch.
func (r *ProductRepository) Replace(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, replaceProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.LowStockThreshold,
	)
	if err != nil {
		return fmt.Errorf("replacing product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product row. Order rows keep their item snapshots.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Stock returns the current stock level for a product.
func (r *ProductRepository) Stock(ctx context.Context, productID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, getStockSQL, productID).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, product.ErrNotFound
		}
		return 0, fmt.Errorf("getting stock for %q: %w", productID, err)
	}
	return n, nil
}

// SetStock sets a product's stock to an absolute non-negative value.
func (r *ProductRepository) SetStock(ctx context.Context, productID string, value int) error {
	if value < 0 {
		return &stock.InvalidQuantityError{ProductID: productID, Value: value}
	}

	tag, err := r.pool.Exec(ctx, setStockSQL, productID, value)
	if err != nil {
		return fmt.Errorf("setting stock for %q: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Decrement reduces stock for every product in demand inside one transaction,
// or rolls back without touching anything.
func (r *ProductRepository) Decrement(ctx context.Context, demand map[string]int) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return decrementAll(ctx, tx, demand)
	})
}

// decrementAll performs the guarded decrement for each demanded product inside
// tx. Products are updated in sorted-ID order so concurrent multi-product
// commits acquire row locks in the same order and cannot deadlock. Any
// shortage aborts the transaction via the returned error.
func decrementAll(ctx context.Context, tx pgx.Tx, demand map[string]int) error {
	var shortages []stock.Shortage
	for _, id := range stock.SortedIDs(demand) {
		need := demand[id]
		if need <= 0 {
			return &stock.InvalidQuantityError{ProductID: id, Value: need}
		}

		tag, err := tx.Exec(ctx, decrementStockSQL, id, need)
		if err != nil {
			return fmt.Errorf("decrementing stock for %q: %w", id, err)
		}
		if tag.RowsAffected() == 1 {
			continue
		}

		// Distinguish "missing product" from "not enough stock". The re-read
		// runs in the same transaction, so the reported availability is the
		// value the decrement saw.
		var available int
		err = tx.QueryRow(ctx, getStockSQL, id).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return product.ErrNotFound
			}
			return fmt.Errorf("getting stock for %q: %w", id, err)
		}
		shortages = append(shortages, stock.Shortage{
			ProductID: id,
			Requested: need,
			Available: available,
		})
	}
	if len(shortages) > 0 {
		return &stock.InsufficientStockError{Shortages: shortages}
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price,
		&p.Stock, &p.LowStockThreshold, &p.CreatedAt,
	)
	return p, err
}
