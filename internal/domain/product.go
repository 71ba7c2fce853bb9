package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product statuses. Only active products are visible in search.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// IsValidStatus reports whether s is a known product status.
func IsValidStatus(s string) bool {
	return s == StatusActive || s == StatusInactive
}

// Product is the catalog aggregate. Postgres is the system of record; the
// search index and cache hold derived copies.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Status      string          `json:"status"`
	ImageURL    string          `json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the product has been soft deleted.
func (p *Product) IsDeleted() bool {
	return p.DeletedAt != nil
}
