package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/domain"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/database"
	apperrors "github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order and its items atomically within a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderQuery := `
		INSERT INTO orders (id, tenant_id, buyer_id, status, total_amount, currency, canceled_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.TenantID,
		o.BuyerID,
		o.Status,
		o.TotalAmount,
		o.Currency,
		o.CanceledReason,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.UnitPrice,
			item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByIDAndTenant retrieves an order by its ID within a tenant, eagerly
// loading its items via a single JSONB_AGG query.
func (r *OrderRepository) GetByIDAndTenant(ctx context.Context, id, tenantID string) (*domain.Order, error) {
	query := `
		SELECT
			o.id, o.tenant_id, o.buyer_id, o.status, o.total_amount, o.currency,
			o.canceled_reason, o.created_at, o.updated_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'order_id', oi.order_id,
						'product_id', oi.product_id,
						'name', oi.name,
						'unit_price', oi.unit_price,
						'quantity', oi.quantity
					) ORDER BY oi.product_id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.id = $1 AND o.tenant_id = $2
		GROUP BY o.id, o.tenant_id, o.buyer_id, o.status, o.total_amount, o.currency,
			o.canceled_reason, o.created_at, o.updated_at`

	var (
		o         domain.Order
		itemsJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(
		&o.ID,
		&o.TenantID,
		&o.BuyerID,
		&o.Status,
		&o.TotalAmount,
		&o.Currency,
		&o.CanceledReason,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if len(itemsJSON) > 0 && string(itemsJSON) != "null" && string(itemsJSON) != "[]" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	} else {
		o.Items = []domain.OrderItem{}
	}

	return &o, nil
}

// UpdateStatus moves a pending order to a terminal status and optionally sets
// a cancel reason. Terminal statuses are immutable: the UPDATE only matches
// rows still pending, so an order that was confirmed in the meantime fails
// with ErrOrderNotPending instead of being overwritten.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, tenantID, status, reason string) error {
	query := `
		UPDATE orders
		SET status = $1, canceled_reason = $2, updated_at = $3
		WHERE id = $4 AND tenant_id = $5 AND status = $6`

	ct, err := r.pool.Exec(ctx, query, status, reason, time.Now().UTC(), id, tenantID, domain.OrderStatusPending)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		var current string
		err := r.pool.QueryRow(ctx,
			`SELECT status FROM orders WHERE id = $1 AND tenant_id = $2`,
			id, tenantID,
		).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("order", id)
		}
		if err != nil {
			return fmt.Errorf("check order status: %w", err)
		}
		return apperrors.OrderNotPending(id)
	}

	return nil
}

// ConfirmPending reserves stock for every item of a pending order and marks
// the order confirmed, all within one transaction. The order row is locked
// first, then each product row in sorted product-id order so that two
// checkouts spanning the same products cannot deadlock.
func (r *OrderRepository) ConfirmPending(ctx context.Context, orderID, tenantID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM orders WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
		orderID, tenantID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("order", orderID)
		}
		return fmt.Errorf("lock order row: %w", err)
	}

	if status != domain.OrderStatusPending {
		return apperrors.OrderNotPending(orderID)
	}

	// Items are already aggregated per product at order creation; ordering by
	// product_id fixes the lock acquisition order across concurrent checkouts.
	rows, err := tx.Query(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id = $1 ORDER BY product_id`,
		orderID,
	)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}

	type line struct {
		productID string
		quantity  int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			rows.Close()
			return fmt.Errorf("scan order item: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order items: %w", err)
	}

	now := time.Now().UTC()

	for _, l := range lines {
		var stock int
		err = tx.QueryRow(ctx,
			`SELECT stock FROM products WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
			l.productID, tenantID,
		).Scan(&stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("product", l.productID)
			}
			return fmt.Errorf("lock product row: %w", err)
		}

		if stock < l.quantity {
			return apperrors.InsufficientStock(l.productID, l.quantity, stock)
		}

		_, err = tx.Exec(ctx,
			`UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4`,
			l.quantity, now, l.productID, tenantID,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}

		_, err = tx.Exec(ctx, insertStockMovementQuery,
			uuid.New().String(), l.productID, tenantID, -l.quantity, domain.MovementReasonOrder, orderID, now,
		)
		if err != nil {
			return fmt.Errorf("insert stock movement: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4`,
		domain.OrderStatusConfirmed, now, orderID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("confirm order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
