package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/domain"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/database"
	apperrors "github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/errors"
)

func newTestProductRepo(t *testing.T) (*ProductRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewProductRepository(mock)
	return repo, mock
}

func TestProductRepository_Reserve_Success(t *testing.T) {
	repo, mock := newTestProductRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT stock FROM products").
		WithArgs("prod-001", "tenant-001").
		WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(10))
	mock.ExpectExec("UPDATE products SET stock").
		WithArgs(4, pgxmock.AnyArg(), "prod-001", "tenant-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.Reserve(context.Background(), "prod-001", "tenant-001", 4)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Reserve_InsufficientStock(t *testing.T) {
	repo, mock := newTestProductRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT stock FROM products").
		WithArgs("prod-001", "tenant-001").
		WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Reserve(context.Background(), "prod-001", "tenant-001", 2)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Reserve_ProductNotFound(t *testing.T) {
	repo, mock := newTestProductRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT stock FROM products").
		WithArgs("missing", "tenant-001").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Reserve(context.Background(), "missing", "tenant-001", 1)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByIDs_Empty(t *testing.T) {
	repo, _ := newTestProductRepo(t)

	products, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductRepository_AdjustStock_RecordsMovement(t *testing.T) {
	repo, mock := newTestProductRepo(t)

	refID := "restock-42"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT stock FROM products").
		WithArgs("prod-001", "tenant-001").
		WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(2))
	mock.ExpectExec("UPDATE products SET stock").
		WithArgs(5, pgxmock.AnyArg(), "prod-001", "tenant-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO stock_movements").
		WithArgs(pgxmock.AnyArg(), "prod-001", "tenant-001", 5, domain.MovementReasonRestock, &refID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.AdjustStock(context.Background(), "prod-001", "tenant-001", 5, domain.MovementReasonRestock, &refID)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_AdjustStock_WouldGoNegative(t *testing.T) {
	repo, mock := newTestProductRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT stock FROM products").
		WithArgs("prod-001", "tenant-001").
		WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.AdjustStock(context.Background(), "prod-001", "tenant-001", -3, domain.MovementReasonAdjustment, nil)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))

	assert.NoError(t, mock.ExpectationsWereMet())
}
