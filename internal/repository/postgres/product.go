package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/domain"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/database"
	apperrors "github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/errors"
)

// insertStockMovementQuery appends one ledger entry per stock change. The id
// and timestamp are generated by the caller; the column list must cover every
// non-defaulted column of the stock_movements table.
const insertStockMovementQuery = `
	INSERT INTO stock_movements (id, product_id, tenant_id, quantity_change, reason, reference_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, tenant_id, name, sku, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.TenantID,
		p.Name,
		p.SKU,
		p.Price,
		p.Stock,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByIDAndTenant retrieves a product by its ID within a tenant.
func (r *ProductRepository) GetByIDAndTenant(ctx context.Context, id, tenantID string) (*domain.Product, error) {
	query := `
		SELECT id, tenant_id, name, sku, price, stock, created_at, updated_at
		FROM products
		WHERE id = $1 AND tenant_id = $2`

	var p domain.Product
	err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(
		&p.ID,
		&p.TenantID,
		&p.Name,
		&p.SKU,
		&p.Price,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// GetByIDs retrieves the products matching the given ids. Missing ids are
// simply absent from the result; tenant checks happen in the service layer so
// cross-tenant references can be told apart from unknown products.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	query := `
		SELECT id, tenant_id, name, sku, price, stock, created_at, updated_at
		FROM products
		WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.TenantID,
			&p.Name,
			&p.SKU,
			&p.Price,
			&p.Stock,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// Reserve decrements stock for a single product under an exclusive row lock,
// held only for the duration of the check-and-decrement.
func (r *ProductRepository) Reserve(ctx context.Context, productID, tenantID string, quantity int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stock int
	err = tx.QueryRow(ctx,
		`SELECT stock FROM products WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
		productID, tenantID,
	).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("product", productID)
		}
		return fmt.Errorf("lock product row: %w", err)
	}

	if stock < quantity {
		return apperrors.InsufficientStock(productID, quantity, stock)
	}

	_, err = tx.Exec(ctx,
		`UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4`,
		quantity, time.Now().UTC(), productID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// AdjustStock changes a product's stock by delta and records a stock
// movement, atomically. Restocks use a positive delta, corrections may be
// negative but must not take stock below zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, productID, tenantID string, delta int, reason string, referenceID *string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stock int
	err = tx.QueryRow(ctx,
		`SELECT stock FROM products WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
		productID, tenantID,
	).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("product", productID)
		}
		return fmt.Errorf("lock product row: %w", err)
	}

	if stock+delta < 0 {
		return apperrors.InsufficientStock(productID, -delta, stock)
	}

	_, err = tx.Exec(ctx,
		`UPDATE products SET stock = stock + $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4`,
		delta, time.Now().UTC(), productID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}

	_, err = tx.Exec(ctx, insertStockMovementQuery,
		uuid.New().String(), productID, tenantID, delta, reason, referenceID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
