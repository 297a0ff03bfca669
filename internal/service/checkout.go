package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/domain"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/payment"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/repository"
	apperrors "github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/errors"
)

// PaymentClient is the interface to the external payment provider. Expected
// payment failures come back as outcomes, not errors.
type PaymentClient interface {
	Authorize(ctx context.Context, tenantID, orderID, buyerID string, amount int64) payment.Outcome
	Cancel(ctx context.Context, tenantID, orderID string) payment.Outcome
}

// OrderEventPublisher publishes order lifecycle events. Publishing is best
// effort; failures are logged, never surfaced to the buyer.
type OrderEventPublisher interface {
	PublishOrderConfirmed(ctx context.Context, order *domain.Order) error
	PublishOrderCanceled(ctx context.Context, order *domain.Order, reason string) error
}

// CheckoutService drives the checkout saga: create a pending order, authorize
// payment, reserve stock and confirm, or compensate on failure. Each
// state-changing step is its own atomic unit; no database lock is held while
// the payment call is in flight.
type CheckoutService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	payments PaymentClient
	producer OrderEventPublisher
	logger   *slog.Logger
	currency string
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	payments PaymentClient,
	producer OrderEventPublisher,
	logger *slog.Logger,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		orders:   orders,
		products: products,
		payments: payments,
		producer: producer,
		logger:   logger,
		currency: currency,
	}
}

// CheckoutInput holds the parameters for a checkout request.
type CheckoutInput struct {
	Items []CheckoutItemInput `json:"items" validate:"required,min=1,dive"`
}

// CheckoutItemInput is a single requested line: which product, how many.
type CheckoutItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// Checkout runs the full saga and returns the confirmed order. On any
// failure past order creation the order ends canceled and the original
// failure is returned; the final order status is always queryable afterwards.
func (s *CheckoutService) Checkout(ctx context.Context, tenantID, buyerID string, input *CheckoutInput) (*domain.Order, error) {
	if tenantID == "" {
		return nil, apperrors.InvalidInput("tenant id is required")
	}
	if buyerID == "" {
		return nil, apperrors.InvalidInput("buyer id is required")
	}
	if input == nil || len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("at least one item is required")
	}
	for i, item := range input.Items {
		if item.ProductID == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("item %d: product_id is required", i))
		}
		if item.Quantity <= 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("item %d: quantity must be greater than 0", i))
		}
	}

	// Step 1: resolve products, snapshot prices, persist the pending order.
	order, err := s.createPendingOrder(ctx, tenantID, buyerID, input.Items)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("buyer_id", buyerID),
		slog.Int64("total_amount", order.TotalAmount),
	)

	// Step 2: authorize payment. Runs outside any transaction; Step 1 has
	// committed and released its locks before this call goes out.
	outcome := s.payments.Authorize(ctx, tenantID, order.ID, buyerID, order.TotalAmount)
	switch {
	case outcome.Unavailable():
		s.cancelOrder(ctx, order, "payment unavailable")
		return nil, apperrors.PaymentUnavailable("payment service is unavailable, order canceled")
	case !outcome.Authorized():
		s.cancelOrder(ctx, order, "payment declined")
		msg := outcome.Message
		if msg == "" {
			msg = "payment was declined"
		}
		return nil, apperrors.PaymentDeclined(msg)
	}

	s.logger.InfoContext(ctx, "payment authorized",
		slog.String("order_id", order.ID),
	)

	// Step 3: reserve stock and confirm, atomically. Failure here triggers
	// the compensating payment cancellation before the error surfaces.
	if err := s.orders.ConfirmPending(ctx, order.ID, tenantID); err != nil {
		s.compensate(ctx, order, err)
		return nil, err
	}

	// Step 4: return the confirmed order and announce it.
	confirmed, err := s.orders.GetByIDAndTenant(ctx, order.ID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("reload confirmed order: %w", err)
	}

	if err := s.producer.PublishOrderConfirmed(ctx, confirmed); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.confirmed event",
			slog.String("order_id", confirmed.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("order_id", confirmed.ID),
		slog.Int64("total_amount", confirmed.TotalAmount),
	)

	return confirmed, nil
}

// GetOrder retrieves an order scoped to a tenant.
func (s *CheckoutService) GetOrder(ctx context.Context, tenantID, orderID string) (*domain.Order, error) {
	return s.orders.GetByIDAndTenant(ctx, orderID, tenantID)
}

// createPendingOrder is Step 1 of the saga. Duplicate product references are
// aggregated by summing quantities, prices are snapshotted at this instant,
// and the order plus its items are persisted in one transaction. Stock is
// deliberately not checked here; that happens under lock in Step 3.
func (s *CheckoutService) createPendingOrder(ctx context.Context, tenantID, buyerID string, items []CheckoutItemInput) (*domain.Order, error) {
	quantities := make(map[string]int, len(items))
	for _, item := range items {
		quantities[item.ProductID] += item.Quantity
	}

	ids := make([]string, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	now := time.Now().UTC()
	orderID := uuid.New().String()

	orderItems := make([]domain.OrderItem, 0, len(ids))
	var total int64
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, apperrors.NotFound("product", id)
		}
		if p.TenantID != tenantID {
			return nil, apperrors.Forbidden(fmt.Sprintf("product %s belongs to another tenant", id))
		}

		qty := quantities[id]
		orderItems = append(orderItems, domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  qty,
		})
		total += p.Price * int64(qty)
	}

	order := &domain.Order{
		ID:          orderID,
		TenantID:    tenantID,
		BuyerID:     buyerID,
		Status:      domain.OrderStatusPending,
		Items:       orderItems,
		TotalAmount: total,
		Currency:    s.currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create pending order: %w", err)
	}

	return order, nil
}

// compensate undoes the payment authorization after a Step 3 failure. The
// cancellation is best effort and the order is marked canceled either way;
// compensation problems are logged but never mask the original failure.
func (s *CheckoutService) compensate(ctx context.Context, order *domain.Order, cause error) {
	outcome := s.payments.Cancel(ctx, order.TenantID, order.ID)
	if !outcome.Authorized() {
		s.logger.ErrorContext(ctx, "payment cancellation failed",
			slog.String("order_id", order.ID),
			slog.String("status", outcome.Status),
			slog.String("message", outcome.Message),
		)
	}

	s.cancelOrder(ctx, order, cause.Error())
}

// cancelOrder marks the order canceled and announces it. Errors are logged
// only; the caller is already on a failure path.
func (s *CheckoutService) cancelOrder(ctx context.Context, order *domain.Order, reason string) {
	if err := s.orders.UpdateStatus(ctx, order.ID, order.TenantID, domain.OrderStatusCanceled, reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark order canceled",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.producer.PublishOrderCanceled(ctx, order, reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.canceled event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order canceled",
		slog.String("order_id", order.ID),
		slog.String("reason", reason),
	)
}
