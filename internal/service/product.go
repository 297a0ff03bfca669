package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/domain"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/repository"
	apperrors "github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/errors"
)

// ProductService implements catalog and stock management operations.
type ProductService struct {
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(products repository.ProductRepository, logger *slog.Logger) *ProductService {
	return &ProductService{products: products, logger: logger}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name  string `json:"name" validate:"required"`
	SKU   string `json:"sku" validate:"required"`
	Price int64  `json:"price" validate:"required,gt=0"`
	Stock int    `json:"stock" validate:"gte=0"`
}

// CreateProduct adds a product to a tenant's catalog.
func (s *ProductService) CreateProduct(ctx context.Context, tenantID string, input *CreateProductInput) (*domain.Product, error) {
	if tenantID == "" {
		return nil, apperrors.InvalidInput("tenant id is required")
	}
	if input == nil {
		return nil, apperrors.InvalidInput("product input is required")
	}
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Price <= 0 {
		return nil, apperrors.InvalidInput("price must be greater than 0")
	}
	if input.Stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      input.Name,
		SKU:       input.SKU,
		Price:     input.Price,
		Stock:     input.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("sku", product.SKU),
	)

	return product, nil
}

// GetProduct retrieves a product scoped to a tenant.
func (s *ProductService) GetProduct(ctx context.Context, tenantID, productID string) (*domain.Product, error) {
	return s.products.GetByIDAndTenant(ctx, productID, tenantID)
}

// AdjustStock changes a product's stock level, recording the movement.
func (s *ProductService) AdjustStock(ctx context.Context, tenantID, productID string, delta int, reason string, referenceID *string) error {
	if delta == 0 {
		return apperrors.InvalidInput("delta must not be zero")
	}
	if !domain.IsValidMovementReason(reason) {
		return apperrors.InvalidInput(fmt.Sprintf("unknown movement reason %q", reason))
	}

	if err := s.products.AdjustStock(ctx, productID, tenantID, delta, reason, referenceID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "stock adjusted",
		slog.String("product_id", productID),
		slog.Int("delta", delta),
		slog.String("reason", reason),
	)

	return nil
}
