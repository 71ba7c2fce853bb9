package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
)

func doc(name, category, status string, price float64) domain.ProductDocument {
	return domain.ProductDocument{
		ID:        uuid.New(),
		SKU:       "SKU-" + name,
		Name:      name,
		Price:     price,
		Category:  category,
		Status:    status,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestEngine_UpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	e := New()

	require.NoError(t, e.Upsert(ctx, doc("Wireless Mouse", "peripherals", "active", 29.99)))
	require.NoError(t, e.Upsert(ctx, doc("Mechanical Keyboard", "peripherals", "active", 89.99)))

	result, err := e.Search(ctx, domain.SearchQuery{Term: "mouse"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, "Wireless Mouse", result.Hits[0].Name)
}

func TestEngine_UpsertReplacesDocument(t *testing.T) {
	ctx := context.Background()
	e := New()

	d := doc("Mouse", "peripherals", "active", 29.99)
	require.NoError(t, e.Upsert(ctx, d))

	d.Name = "Mouse v2"
	require.NoError(t, e.Upsert(ctx, d))

	assert.Equal(t, 1, e.Len())

	result, err := e.Search(ctx, domain.SearchQuery{Term: "v2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
}

func TestEngine_Remove(t *testing.T) {
	ctx := context.Background()
	e := New()

	d := doc("Mouse", "peripherals", "active", 29.99)
	require.NoError(t, e.Upsert(ctx, d))
	require.NoError(t, e.Remove(ctx, d.ID))
	assert.Zero(t, e.Len())

	// Removing a missing document is a no-op.
	assert.NoError(t, e.Remove(ctx, uuid.New()))
}

func TestEngine_Search_Filters(t *testing.T) {
	ctx := context.Background()
	e := New()

	require.NoError(t, e.Upsert(ctx, doc("Mouse", "peripherals", "active", 29.99)))
	require.NoError(t, e.Upsert(ctx, doc("Desk", "furniture", "active", 199.99)))
	require.NoError(t, e.Upsert(ctx, doc("Old Mouse", "peripherals", "inactive", 9.99)))

	result, err := e.Search(ctx, domain.SearchQuery{Category: "peripherals", Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, "Mouse", result.Hits[0].Name)
}

func TestEngine_Search_PriceRange(t *testing.T) {
	ctx := context.Background()
	e := New()

	require.NoError(t, e.Upsert(ctx, doc("Cheap", "misc", "active", 5)))
	require.NoError(t, e.Upsert(ctx, doc("Mid", "misc", "active", 50)))
	require.NoError(t, e.Upsert(ctx, doc("Pricey", "misc", "active", 500)))

	minP, maxP := 10.0, 100.0
	result, err := e.Search(ctx, domain.SearchQuery{MinPrice: &minP, MaxPrice: &maxP})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, "Mid", result.Hits[0].Name)
}

func TestEngine_Search_SortByPrice(t *testing.T) {
	ctx := context.Background()
	e := New()

	require.NoError(t, e.Upsert(ctx, doc("B", "misc", "active", 20)))
	require.NoError(t, e.Upsert(ctx, doc("A", "misc", "active", 10)))
	require.NoError(t, e.Upsert(ctx, doc("C", "misc", "active", 30)))

	result, err := e.Search(ctx, domain.SearchQuery{SortBy: "price", Order: "asc"})
	require.NoError(t, err)
	require.Equal(t, int64(3), result.Total)
	assert.Equal(t, "A", result.Hits[0].Name)
	assert.Equal(t, "C", result.Hits[2].Name)
}

func TestEngine_Search_Pagination(t *testing.T) {
	ctx := context.Background()
	e := New()

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		require.NoError(t, e.Upsert(ctx, doc(name, "misc", "active", 10)))
	}

	result, err := e.Search(ctx, domain.SearchQuery{SortBy: "name", Order: "asc", Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Total)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "C", result.Hits[0].Name)
	assert.Equal(t, "D", result.Hits[1].Name)
}

func TestEngine_Search_PageBeyondResults(t *testing.T) {
	ctx := context.Background()
	e := New()

	require.NoError(t, e.Upsert(ctx, doc("A", "misc", "active", 10)))

	result, err := e.Search(ctx, domain.SearchQuery{Page: 10, PerPage: 15})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	assert.Empty(t, result.Hits)
}
