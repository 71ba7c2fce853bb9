package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
)

// ProductFilter holds optional filters for listing products.
type ProductFilter struct {
	Category *string
	Status   *string
	SKU      *string
	MinPrice *float64
	MaxPrice *float64
	SortBy   string
	Order    string
	Page     int
	PerPage  int

	// IncludeDeleted returns soft-deleted rows as well. Used by admin
	// tooling and the restore flow.
	IncludeDeleted bool
}

// ProductRepository defines data access for products. Postgres is the system
// of record; all reads exclude soft-deleted rows unless stated otherwise.
type ProductRepository interface {
	// Create inserts a new product. Returns a duplicate error if the SKU
	// is already taken by a live product.
	Create(ctx context.Context, p *domain.Product) error

	// GetByID retrieves a live product by ID. Soft-deleted products are
	// reported as not found.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// List returns products matching the filter plus the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update modifies an existing live product.
	Update(ctx context.Context, p *domain.Product) error

	// SoftDelete marks a product deleted without removing the row.
	SoftDelete(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// Restore clears the deleted flag on a soft-deleted product. Fails
	// with a duplicate error if another live product took the SKU in the
	// meantime.
	Restore(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// SKUExists reports whether a live product other than excludeID holds
	// the given SKU.
	SKUExists(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error)
}
