package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/repository"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/database"
	apperrors "github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/errors"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func setupRepo(t *testing.T) (*ProductRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewProductRepository(mock)
	return repo, mock
}

func sampleProduct() *domain.Product {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Product{
		ID:          uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7"),
		SKU:         "SKU-001",
		Name:        "Wireless Mouse",
		Description: "Ergonomic wireless mouse",
		Price:       decimal.NewFromFloat(29.99),
		Category:    "peripherals",
		Status:      domain.StatusActive,
		ImageURL:    "http://cdn.local/mouse.png",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func productRowColumns() []string {
	return []string{
		"id", "sku", "name", "description", "price", "category", "status",
		"image_url", "created_at", "updated_at", "deleted_at",
	}
}

func productRow(p *domain.Product) *pgxmock.Rows {
	return pgxmock.NewRows(productRowColumns()).
		AddRow(
			p.ID, p.SKU, p.Name, p.Description, p.Price, p.Category, p.Status,
			p.ImageURL, p.CreatedAt, p.UpdatedAt, p.DeletedAt,
		)
}

func productListRow(p *domain.Product, totalCount int) *pgxmock.Rows {
	return pgxmock.NewRows(append(productRowColumns(), "total_count")).
		AddRow(
			p.ID, p.SKU, p.Name, p.Description, p.Price, p.Category, p.Status,
			p.ImageURL, p.CreatedAt, p.UpdatedAt, p.DeletedAt,
			totalCount,
		)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestProductRepository_Create_Success(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, p.SKU, p.Name, p.Description, p.Price, p.Category, p.Status,
			p.ImageURL, p.CreatedAt, p.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Create_DuplicateSKU(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, p.SKU, p.Name, p.Description, p.Price, p.Category, p.Status,
			p.ImageURL, p.CreatedAt, p.UpdatedAt,
		).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint \"idx_products_sku_live\" (SQLSTATE 23505)"))

	err := repo.Create(context.Background(), p)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Create_ExecError(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, p.SKU, p.Name, p.Description, p.Price, p.Category, p.Status,
			p.ImageURL, p.CreatedAt, p.UpdatedAt,
		).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), p)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert product")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetByID
// ---------------------------------------------------------------------------

func TestProductRepository_GetByID_Success(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectQuery("FROM products").
		WithArgs(p.ID).
		WillReturnRows(productRow(p))

	result, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, result.ID)
	assert.Equal(t, p.SKU, result.SKU)
	assert.True(t, result.Price.Equal(p.Price))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	id := uuid.New()

	mock.ExpectQuery("FROM products").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(productRowColumns()))

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestProductRepository_List_NoFilter(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectQuery("FROM products").
		WithArgs(15, 0).
		WillReturnRows(productListRow(p, 42))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{Page: 1, PerPage: 15})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 42, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_WithFilters(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	p := sampleProduct()
	category := "peripherals"
	status := domain.StatusActive

	mock.ExpectQuery("FROM products").
		WithArgs(category, status, 10, 10).
		WillReturnRows(productListRow(p, 11))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{
		Category: &category,
		Status:   &status,
		Page:     2,
		PerPage:  10,
	})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_PriceRangeAndSort(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	p := sampleProduct()
	minPrice, maxPrice := 10.0, 100.0

	mock.ExpectQuery("ORDER BY price ASC").
		WithArgs(minPrice, maxPrice, 15, 0).
		WillReturnRows(productListRow(p, 1))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
		SortBy:   "price",
		Order:    "asc",
		Page:     1,
		PerPage:  15,
	})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_UnknownSortFallsBack(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	p := sampleProduct()

	// Arbitrary sort input never reaches the query; it falls back to created_at.
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(15, 0).
		WillReturnRows(productListRow(p, 1))

	_, _, err := repo.List(context.Background(), repository.ProductFilter{
		SortBy:  "name; DROP TABLE products",
		Page:    1,
		PerPage: 15,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_Empty(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	mock.ExpectQuery("FROM products").
		WithArgs(15, 0).
		WillReturnRows(pgxmock.NewRows(append(productRowColumns(), "total_count")))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{Page: 1, PerPage: 15})
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestProductRepository_Update_Success(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectExec("UPDATE products").
		WithArgs(
			p.SKU, p.Name, p.Description, p.Price, p.Category, p.Status,
			p.ImageURL, pgxmock.AnyArg(), p.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Update(context.Background(), p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_NotFound(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectExec("UPDATE products").
		WithArgs(
			p.SKU, p.Name, p.Description, p.Price, p.Category, p.Status,
			p.ImageURL, pgxmock.AnyArg(), p.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), p)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_DuplicateSKU(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectExec("UPDATE products").
		WithArgs(
			p.SKU, p.Name, p.Description, p.Price, p.Category, p.Status,
			p.ImageURL, pgxmock.AnyArg(), p.ID,
		).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := repo.Update(context.Background(), p)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// SoftDelete / Restore
// ---------------------------------------------------------------------------

func TestProductRepository_SoftDelete_Success(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	p := sampleProduct()
	deletedAt := time.Now().UTC()
	deleted := *p
	deleted.DeletedAt = &deletedAt

	mock.ExpectQuery("UPDATE products").
		WithArgs(pgxmock.AnyArg(), p.ID).
		WillReturnRows(productRow(&deleted))

	result, err := repo.SoftDelete(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, result.DeletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_SoftDelete_NotFound(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	id := uuid.New()

	mock.ExpectQuery("UPDATE products").
		WithArgs(pgxmock.AnyArg(), id).
		WillReturnRows(pgxmock.NewRows(productRowColumns()))

	_, err := repo.SoftDelete(context.Background(), id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Restore_Success(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectQuery("UPDATE products").
		WithArgs(pgxmock.AnyArg(), p.ID).
		WillReturnRows(productRow(p))

	result, err := repo.Restore(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, result.DeletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Restore_SKUConflict(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	id := uuid.New()

	mock.ExpectQuery("UPDATE products").
		WithArgs(pgxmock.AnyArg(), id).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint \"idx_products_sku_live\" (SQLSTATE 23505)"))

	_, err := repo.Restore(context.Background(), id)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Restore_NotFound(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	id := uuid.New()

	mock.ExpectQuery("UPDATE products").
		WithArgs(pgxmock.AnyArg(), id).
		WillReturnRows(pgxmock.NewRows(productRowColumns()))

	_, err := repo.Restore(context.Background(), id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// SKUExists
// ---------------------------------------------------------------------------

func TestProductRepository_SKUExists(t *testing.T) {
	repo, mock := setupRepo(t)
	defer mock.Close()

	id := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("SKU-001", id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.SKUExists(context.Background(), "SKU-001", id)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
