package repository

import (
	"context"

	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/domain"
)

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts a new order and its items into the store atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByIDAndTenant retrieves an order scoped to a tenant, including items.
	GetByIDAndTenant(ctx context.Context, id, tenantID string) (*domain.Order, error)

	// UpdateStatus moves a pending order to a terminal status, optionally
	// recording a cancel reason. Orders that already reached a terminal
	// status are immutable; updating one fails with ErrOrderNotPending.
	UpdateStatus(ctx context.Context, id, tenantID, status, reason string) error

	// ConfirmPending atomically reserves stock for every item of a pending
	// order and marks the order confirmed, all in one transaction. The order
	// row and each product row are locked for the duration; product rows are
	// locked in deterministic (sorted) order. Fails with ErrOrderNotPending
	// if the order already reached a terminal status and ErrInsufficientStock
	// if any product cannot cover its requested quantity, leaving no writes
	// behind in either case.
	ConfirmPending(ctx context.Context, orderID, tenantID string) error
}

// ProductRepository defines the interface for catalog and stock persistence.
type ProductRepository interface {
	// Create inserts a new product.
	Create(ctx context.Context, product *domain.Product) error

	// GetByIDAndTenant retrieves a product scoped to a tenant.
	GetByIDAndTenant(ctx context.Context, id, tenantID string) (*domain.Product, error)

	// GetByIDs retrieves the products matching the given ids across tenants.
	// Missing ids are simply absent from the result; callers decide whether a
	// product from another tenant is visible.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)

	// Reserve atomically decrements stock for a single product under an
	// exclusive row lock. Fails with ErrInsufficientStock when stock is
	// lower than the requested quantity.
	Reserve(ctx context.Context, productID, tenantID string, quantity int) error

	// AdjustStock changes a product's stock by delta and records a stock
	// movement, atomically.
	AdjustStock(ctx context.Context, productID, tenantID string, delta int, reason string, referenceID *string) error
}

// ExamRepository defines the interface for exam persistence operations.
type ExamRepository interface {
	// Create inserts a new exam with its questions.
	Create(ctx context.Context, exam *domain.Exam) error

	// GetByIDAndTenant retrieves an exam scoped to a tenant, including questions.
	GetByIDAndTenant(ctx context.Context, id, tenantID string) (*domain.Exam, error)

	// UpdateState persists a lifecycle state change as a compare-and-swap:
	// the row is only updated while still in fromState. A lost race fails
	// with ErrConflict so concurrent transitions cannot both win.
	UpdateState(ctx context.Context, id, tenantID, fromState, toState string) error
}

// SubmissionRepository defines the interface for exam submission persistence.
type SubmissionRepository interface {
	// Create inserts a submission. Fails with ErrConflict if a submission
	// already exists for the same (exam, student, tenant).
	Create(ctx context.Context, submission *domain.Submission) error

	// GetByExamAndStudent retrieves a student's submission for an exam.
	GetByExamAndStudent(ctx context.Context, examID, studentID, tenantID string) (*domain.Submission, error)
}
