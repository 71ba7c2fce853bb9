package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/repository"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/database"
	apperrors "github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/errors"
)

const productColumns = `id, sku, name, description, price, category, status, image_url, created_at, updated_at, deleted_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, sku, name, description, price, category, status, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.SKU,
		p.Name,
		p.Description,
		p.Price,
		p.Category,
		p.Status,
		p.ImageURL,
		p.CreatedAt,
		p.UpdatedAt,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Duplicate("product", "sku", p.SKU)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a live product by its ID. Soft-deleted rows are treated
// as not found.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE id = $1 AND deleted_at IS NULL`, productColumns)

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	p, err := r.scanProduct(ctx, query, id)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id.String())
		}
		return nil, err
	}
	return p, nil
}

// List returns products matching the given filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.SKU != nil {
		conditions = append(conditions, fmt.Sprintf("sku = $%d", argIndex))
		args = append(args, *filter.SKU)
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// count(*) OVER() gives the total count in a single query.
	query := fmt.Sprintf(`
		SELECT %s,
			   count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, sortColumn(filter.SortBy), sortDirection(filter.Order),
		argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 15
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		end(err)
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)

	for rows.Next() {
		var p domain.Product

		if err := rows.Scan(
			&p.ID,
			&p.SKU,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.Category,
			&p.Status,
			&p.ImageURL,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.DeletedAt,
			&totalCount,
		); err != nil {
			end(err)
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		end(err)
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}
	end(nil)

	if products == nil {
		products = []domain.Product{}
	}

	return products, totalCount, nil
}

// Update modifies an existing live product in the database.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET sku = $1, name = $2, description = $3, price = $4, category = $5,
		    status = $6, image_url = $7, updated_at = $8
		WHERE id = $9 AND deleted_at IS NULL`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	ct, err := r.db.Exec(ctx, query,
		p.SKU,
		p.Name,
		p.Description,
		p.Price,
		p.Category,
		p.Status,
		p.ImageURL,
		p.UpdatedAt,
		p.ID,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Duplicate("product", "sku", p.SKU)
		}
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID.String())
	}

	return nil
}

// SoftDelete marks a product as deleted and returns its final state.
func (r *ProductRepository) SoftDelete(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`
		UPDATE products
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING %s`, productColumns)

	ctx, end := database.TraceQuery(ctx, "SoftDeleteProduct", query)
	p, err := r.scanProduct(ctx, query, time.Now().UTC(), id)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id.String())
		}
		return nil, fmt.Errorf("soft delete product: %w", err)
	}

	return p, nil
}

// Restore clears the deleted flag on a soft-deleted product and returns the
// restored row. The partial unique index on sku rejects the restore if a
// live product took the SKU in the meantime.
func (r *ProductRepository) Restore(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`
		UPDATE products
		SET deleted_at = NULL, updated_at = $1
		WHERE id = $2 AND deleted_at IS NOT NULL
		RETURNING %s`, productColumns)

	ctx, end := database.TraceQuery(ctx, "RestoreProduct", query)
	p, err := r.scanProduct(ctx, query, time.Now().UTC(), id)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id.String())
		}
		if isUniqueViolation(err) {
			return nil, apperrors.Duplicate("product", "sku", id.String())
		}
		return nil, fmt.Errorf("restore product: %w", err)
	}

	return p, nil
}

// SKUExists reports whether a live product other than excludeID holds the SKU.
func (r *ProductRepository) SKUExists(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM products
			WHERE sku = $1 AND id != $2 AND deleted_at IS NULL
		)`

	var exists bool
	ctx, end := database.TraceQuery(ctx, "SKUExists", query)
	err := r.db.QueryRow(ctx, query, sku, excludeID).Scan(&exists)
	end(err)
	if err != nil {
		return false, fmt.Errorf("check sku exists: %w", err)
	}

	return exists, nil
}

// scanProduct is a helper that executes a query expected to return a single product row.
func (r *ProductRepository) scanProduct(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	var p domain.Product

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.SKU,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Category,
		&p.Status,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

// sortColumn maps a requested sort field onto a real column. Unknown fields
// fall back to created_at so user input never reaches the query verbatim.
func sortColumn(field string) string {
	switch field {
	case "name", "price", "created_at", "updated_at":
		return field
	default:
		return "created_at"
	}
}

// sortDirection whitelists the sort direction, defaulting to DESC.
func sortDirection(order string) string {
	if strings.EqualFold(order, "asc") {
		return "ASC"
	}
	return "DESC"
}
