package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProductDocument is the denormalized product representation stored in the
// search index. Prices are stored as float64 for range filtering; the
// authoritative decimal value lives in Postgres.
type ProductDocument struct {
	ID          uuid.UUID `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// DeletedAt is part of the index mapping for completeness. Deleted
	// products are removed from the index, so it is nil on live documents.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// DocumentFromProduct builds the index document for a product.
func DocumentFromProduct(p *Product) ProductDocument {
	price, _ := p.Price.Float64()
	return ProductDocument{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Category:    p.Category,
		Status:      p.Status,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Sort fields accepted by SearchQuery. Anything else falls back to the
// default sort.
var allowedSortFields = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
	"price":      {},
	"name":       {},
}

const (
	DefaultSortField = "created_at"
	DefaultSortOrder = "desc"

	// MaxSearchPerPage caps per_page on search queries.
	MaxSearchPerPage = 100
)

// SearchQuery holds the normalized parameters of a product search.
type SearchQuery struct {
	Term     string   `json:"term"`
	Category string   `json:"category"`
	Status   string   `json:"status"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	SortBy   string   `json:"sort_by"`
	Order    string   `json:"order"`
	Page     int      `json:"page"`
	PerPage  int      `json:"per_page"`
}

// Normalize clamps pagination, applies the sort whitelist, and fills in
// defaults. It returns the query so callers can chain it.
func (q SearchQuery) Normalize() SearchQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 15
	}
	if q.PerPage > MaxSearchPerPage {
		q.PerPage = MaxSearchPerPage
	}
	if _, ok := allowedSortFields[q.SortBy]; !ok {
		q.SortBy = DefaultSortField
		q.Order = DefaultSortOrder
	}
	if q.Order != "asc" && q.Order != "desc" {
		q.Order = DefaultSortOrder
	}
	return q
}

// Offset returns the result offset for the query's page.
func (q SearchQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// SearchResult is the outcome of a product search.
type SearchResult struct {
	Hits    []ProductDocument `json:"hits"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
	TookMs  int64             `json:"took_ms"`
}

// EmptyResult returns a zero-hit result for the given query. Used when the
// search backend is unavailable and the API degrades instead of failing.
func EmptyResult(q SearchQuery) *SearchResult {
	return &SearchResult{
		Hits:    []ProductDocument{},
		Total:   0,
		Page:    q.Page,
		PerPage: q.PerPage,
	}
}
