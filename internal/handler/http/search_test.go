package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/cache"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/index"
	memindex "github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/index/memory"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/service"
	memstorage "github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/storage/memory"
)

// failingEngine always reports the search backend as down.
type failingEngine struct{}

func (failingEngine) EnsureIndex(context.Context) error                   { return nil }
func (failingEngine) Ping(context.Context) error                          { return errors.New("down") }
func (failingEngine) Upsert(context.Context, domain.ProductDocument) error { return nil }
func (failingEngine) Remove(context.Context, uuid.UUID) error              { return nil }

func (failingEngine) Search(context.Context, domain.SearchQuery) (*domain.SearchResult, error) {
	return nil, index.Transient(errors.New("connection refused"))
}

func searchRouter(eng index.Engine) *chi.Mux {
	svc := service.NewCatalogService(
		new(mockProductRepo),
		cache.NewMemoryCache(),
		eng,
		noopPropagator{},
		memstorage.New("http://cdn.local"),
		testLogger(),
	)
	h := NewSearchHandler(svc, testLogger())
	r := chi.NewRouter()
	r.Get("/api/v1/search/products", h.Search)
	return r
}

func seedEngine(t *testing.T, eng index.Engine) {
	t.Helper()
	now := time.Now().UTC()
	docs := []domain.ProductDocument{
		{ID: uuid.New(), SKU: "SKU-001", Name: "Wireless Mouse", Price: 29.99, Category: "peripherals", Status: "active", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), SKU: "SKU-002", Name: "Mechanical Keyboard", Price: 89.99, Category: "peripherals", Status: "active", CreatedAt: now, UpdatedAt: now},
	}
	for _, d := range docs {
		require.NoError(t, eng.Upsert(context.Background(), d))
	}
}

func TestSearch_Success(t *testing.T) {
	eng := memindex.New()
	seedEngine(t, eng)
	router := searchRouter(eng)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/products?q=mouse", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	var result domain.SearchResult
	data, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, "Wireless Mouse", result.Hits[0].Name)
}

func TestSearch_Filters(t *testing.T) {
	eng := memindex.New()
	seedEngine(t, eng)
	router := searchRouter(eng)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/products?category=peripherals&min_price=50", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)

	var result domain.SearchResult
	data, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, "Mechanical Keyboard", result.Hits[0].Name)
}

func TestSearch_InvalidPriceRange(t *testing.T) {
	router := searchRouter(memindex.New())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/products?min_price=100&max_price=10", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_InvalidStatus(t *testing.T) {
	router := searchRouter(memindex.New())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/products?status=archived", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_BackendDownDegradesToEmpty(t *testing.T) {
	router := searchRouter(failingEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/products?q=mouse", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	// Degraded, not failed: clients get an empty page instead of a 5xx.
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	var result domain.SearchResult
	data, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, int64(0), result.Total)
	assert.Empty(t, result.Hits)
}
