package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/cache"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/index"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/repository"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/storage"
	apperrors "github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/errors"
)

// MaxImageSize is the upload limit for product images.
const MaxImageSize = 2 << 20 // 2 MiB

// Propagator publishes product change events for asynchronous index
// propagation. Implemented by event.Producer; tests substitute a recorder.
// Publish failures never fail the originating write: Postgres is the system
// of record and the index self-heals on the next mutation.
type Propagator interface {
	ProductCreated(ctx context.Context, p *domain.Product) error
	ProductUpdated(ctx context.Context, p *domain.Product) error
	ProductDeleted(ctx context.Context, id uuid.UUID) error
	ProductRestored(ctx context.Context, p *domain.Product) error
}

// CatalogService implements the business logic for catalog operations.
// Every mutation writes to the store, emits exactly one propagation event,
// and flushes the search cache group.
type CatalogService struct {
	repo       repository.ProductRepository
	cache      cache.Cache
	engine     index.Engine
	propagator Propagator
	storage    storage.Storage
	logger     *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	repo repository.ProductRepository,
	c cache.Cache,
	engine index.Engine,
	propagator Propagator,
	store storage.Storage,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		repo:       repo,
		cache:      c,
		engine:     engine,
		propagator: propagator,
		storage:    store,
		logger:     logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Status      string
}

// UpdateProductInput holds the parameters for a partial product update.
type UpdateProductInput struct {
	SKU         *string
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Status      *string
}

// CreateProduct creates a new product with the given input.
func (s *CatalogService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.InvalidField("price", "must be greater than zero")
	}

	status := input.Status
	if status == "" {
		status = domain.StatusActive
	}
	if !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidField("status", fmt.Sprintf("must be active or inactive, got %q", status))
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New(),
		SKU:         strings.TrimSpace(input.SKU),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Category:    strings.TrimSpace(input.Category),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.afterMutation(ctx, product.ID)

	if err := s.propagator.ProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID.String()),
		slog.String("sku", product.SKU),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID, reading through the cache.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return cache.GetOrLoad(ctx, s.cache, s.logger, "", cache.ProductKey(id), cache.ProductTTL,
		func(ctx context.Context) (*domain.Product, bool, error) {
			product, err := s.repo.GetByID(ctx, id)
			if err != nil {
				return nil, false, fmt.Errorf("get product by id: %w", err)
			}
			return product, true, nil
		},
	)
}

// ListProducts returns a filtered, paginated list of products from the store.
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 15
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

// UpdateProduct applies partial updates to an existing product.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input *UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, apperrors.InvalidField("sku", "must not be empty")
		}
		if sku != product.SKU {
			taken, err := s.repo.SKUExists(ctx, sku, product.ID)
			if err != nil {
				return nil, fmt.Errorf("check sku uniqueness: %w", err)
			}
			if taken {
				return nil, apperrors.Duplicate("product", "sku", sku)
			}
		}
		product.SKU = sku
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.InvalidField("name", "must not be empty")
		}
		product.Name = name
	}

	if input.Description != nil {
		product.Description = *input.Description
	}

	if input.Price != nil {
		if input.Price.LessThanOrEqual(decimal.Zero) {
			return nil, apperrors.InvalidField("price", "must be greater than zero")
		}
		product.Price = *input.Price
	}

	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}

	if input.Status != nil {
		if !domain.IsValidStatus(*input.Status) {
			return nil, apperrors.InvalidField("status", fmt.Sprintf("must be active or inactive, got %q", *input.Status))
		}
		product.Status = *input.Status
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.afterMutation(ctx, product.ID)

	if err := s.propagator.ProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID.String()),
		slog.String("sku", product.SKU),
	)

	return product, nil
}

// DeleteProduct soft deletes a product by its ID. The row stays in the
// store for restore; the search index drops the document asynchronously.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.afterMutation(ctx, id)

	if err := s.propagator.ProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id.String()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id.String()),
		slog.String("sku", product.SKU),
	)

	return nil
}

// RestoreProduct brings a soft-deleted product back. Fails with a duplicate
// error if another live product took its SKU.
func (s *CatalogService) RestoreProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.repo.Restore(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("restore product: %w", err)
	}

	s.afterMutation(ctx, id)

	if err := s.propagator.ProductRestored(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.restored event",
			slog.String("product_id", id.String()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product restored",
		slog.String("product_id", id.String()),
		slog.String("sku", product.SKU),
	)

	return product, nil
}

// Search runs a product search through the cache. Results for pages beyond
// MaxCachedSearchPage bypass the cache. When the search backend is down the
// call degrades to an empty result instead of failing, and the degraded
// result is never cached.
func (s *CatalogService) Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error) {
	query = query.Normalize()

	load := func(ctx context.Context) (*domain.SearchResult, bool, error) {
		result, err := s.engine.Search(ctx, query)
		if err != nil {
			s.logger.ErrorContext(ctx, "search backend unavailable, degrading to empty result",
				slog.String("term", query.Term),
				slog.String("error", err.Error()),
			)
			return domain.EmptyResult(query), false, nil
		}
		return result, true, nil
	}

	if query.Page > cache.MaxCachedSearchPage {
		result, _, err := load(ctx)
		return result, err
	}

	return cache.GetOrLoad(ctx, s.cache, s.logger, cache.SearchGroup, cache.SearchKey(query), cache.SearchTTL, load)
}

// UploadImageInput holds the parameters for a product image upload.
type UploadImageInput struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// UploadImage stores a product image and records its URL on the product.
func (s *CatalogService) UploadImage(ctx context.Context, id uuid.UUID, input *UploadImageInput) (*domain.Product, error) {
	if input.Size > MaxImageSize {
		return nil, apperrors.InvalidField("image", "exceeds the 2MB size limit")
	}
	if !strings.HasPrefix(input.ContentType, "image/") {
		return nil, apperrors.InvalidField("image", fmt.Sprintf("unsupported content type %q", input.ContentType))
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for image upload: %w", err)
	}

	key := fmt.Sprintf("products/%s/%s%s", id, uuid.New(), path.Ext(input.Filename))
	result, err := s.storage.Upload(ctx, &storage.UploadInput{
		Key:         key,
		ContentType: input.ContentType,
		Size:        input.Size,
		Data:        input.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("upload product image: %w", err)
	}

	product.ImageURL = result.URL
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("record product image: %w", err)
	}

	s.afterMutation(ctx, id)

	if err := s.propagator.ProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", id.String()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product image uploaded",
		slog.String("product_id", id.String()),
		slog.String("key", key),
	)

	return product, nil
}

// afterMutation invalidates the product's cache entry and flushes all
// cached search results. Cache failures are logged, never surfaced: the
// entries expire on their own TTL.
func (s *CatalogService) afterMutation(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.ProductKey(id)); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate product cache",
			slog.String("product_id", id.String()),
			slog.String("error", err.Error()),
		)
	}
	if err := s.cache.FlushGroup(ctx, cache.SearchGroup); err != nil {
		s.logger.WarnContext(ctx, "failed to flush search cache group",
			slog.String("error", err.Error()),
		)
	}
}
