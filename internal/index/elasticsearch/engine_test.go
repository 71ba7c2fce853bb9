package elasticsearch

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/index"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New("http://localhost:9200", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return e
}

func TestNew_DefaultsIndexName(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, DefaultIndexName, e.indexName)
}

func TestBuildSearchQuery_WithTerm(t *testing.T) {
	e := newTestEngine(t)

	q := e.buildSearchQuery(domain.SearchQuery{Term: "mouse", Page: 1, PerPage: 15}.Normalize())

	boolQuery := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)

	multiMatch := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "mouse", multiMatch["query"])
	assert.Equal(t, []string{"name^3", "name.autocomplete^2", "description"}, multiMatch["fields"])
	assert.Equal(t, "AUTO", multiMatch["fuzziness"])
}

func TestBuildSearchQuery_EmptyTermMatchesAll(t *testing.T) {
	e := newTestEngine(t)

	q := e.buildSearchQuery(domain.SearchQuery{}.Normalize())

	boolQuery := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	_, ok := must[0].(map[string]interface{})["match_all"]
	assert.True(t, ok)
	// No filters means no filter clause at all.
	_, ok = boolQuery["filter"]
	assert.False(t, ok)
}

func TestBuildSearchQuery_Pagination(t *testing.T) {
	e := newTestEngine(t)

	q := e.buildSearchQuery(domain.SearchQuery{Page: 3, PerPage: 20}.Normalize())

	assert.Equal(t, 40, q["from"])
	assert.Equal(t, 20, q["size"])
	assert.Equal(t, true, q["track_total_hits"])
}

func TestBuildFilters(t *testing.T) {
	e := newTestEngine(t)

	minP, maxP := 10.0, 100.0
	filters := e.buildFilters(domain.SearchQuery{
		Category: "peripherals",
		Status:   "active",
		MinPrice: &minP,
		MaxPrice: &maxP,
	})

	require.Len(t, filters, 3)

	term := filters[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "peripherals", term["category"])

	term = filters[1].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "active", term["status"])

	rangeFilter := filters[2].(map[string]interface{})["range"].(map[string]interface{})["price"].(map[string]interface{})
	assert.Equal(t, 10.0, rangeFilter["gte"])
	assert.Equal(t, 100.0, rangeFilter["lte"])
}

func TestBuildSort_NameUsesKeywordSubfield(t *testing.T) {
	e := newTestEngine(t)

	sort := e.buildSort(domain.SearchQuery{SortBy: "name", Order: "asc"})
	require.Len(t, sort, 1)
	assert.Equal(t, "asc", sort[0].(map[string]interface{})["name.keyword"])

	sort = e.buildSort(domain.SearchQuery{SortBy: "price", Order: "desc"})
	assert.Equal(t, "desc", sort[0].(map[string]interface{})["price"])
}

func TestClassify(t *testing.T) {
	e := newTestEngine(t)
	err := errors.New("boom")

	assert.True(t, index.IsTransient(e.classify(500, err)))
	assert.True(t, index.IsTransient(e.classify(503, err)))
	assert.True(t, index.IsTransient(e.classify(429, err)))
	assert.False(t, index.IsTransient(e.classify(400, err)))
	assert.False(t, index.IsTransient(e.classify(404, err)))
}

func TestBuildIndexMapping_IsValidJSON(t *testing.T) {
	mapping := buildIndexMapping()
	assert.Contains(t, mapping, "name.autocomplete")
	assert.Contains(t, mapping, "edge_ngram")
	assert.Contains(t, mapping, `"price"`)
}
