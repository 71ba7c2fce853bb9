package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/index"
)

// requestTimeout bounds every individual Elasticsearch call.
const requestTimeout = 3 * time.Second

// Engine is an Elasticsearch-backed implementation of the index.Engine interface.
// The index is created lazily on the first EnsureIndex call so the service can
// start while Elasticsearch is still warming up.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger

	mu      sync.Mutex
	ensured bool
}

// esSearchResponse is the structure used to decode Elasticsearch search responses.
type esSearchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source domain.ProductDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates a new Elasticsearch engine connected to the given URL.
// If indexName is empty, DefaultIndexName ("products") is used.
func New(esURL string, indexName string, logger *slog.Logger) (*Engine, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	return &Engine{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the products index with its mapping if it does not
// exist. The first success is cached, so subsequent calls are free.
func (e *Engine) EnsureIndex(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ensured {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := e.client.Indices.Exists(
		[]string{e.indexName},
		e.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return index.Transient(fmt.Errorf("check index exists: %w", err))
	}
	_ = res.Body.Close()

	if res.StatusCode == 200 {
		e.ensured = true
		return nil
	}

	mapping := buildIndexMapping()
	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(mapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return index.Transient(fmt.Errorf("create index: %w", err))
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		// A concurrent worker may have created the index first.
		if errType, reason := e.decodeError(res.Body); errType != "" {
			if errType == "resource_already_exists_exception" {
				e.ensured = true
				return nil
			}
			return e.classify(res.StatusCode, fmt.Errorf("create index: %s: %s", errType, reason))
		}
		return e.classify(res.StatusCode, fmt.Errorf("create index: unexpected status %s", res.Status()))
	}

	e.ensured = true
	e.logger.Info("elasticsearch index created", "index", e.indexName)
	return nil
}

// Upsert adds or fully replaces a product document, keyed by product ID.
func (e *Engine) Upsert(ctx context.Context, doc domain.ProductDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("elasticsearch upsert: marshal document: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(doc.ID.String()),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return index.Transient(fmt.Errorf("elasticsearch upsert: %w", err))
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		if errType, reason := e.decodeError(res.Body); errType != "" {
			return e.classify(res.StatusCode, fmt.Errorf("elasticsearch upsert: %s: %s", errType, reason))
		}
		return e.classify(res.StatusCode, fmt.Errorf("elasticsearch upsert: unexpected status %s", res.Status()))
	}

	e.logger.Debug("indexed product document", "id", doc.ID.String(), "name", doc.Name)
	return nil
}

// Remove deletes a product document by its ID. A missing document (404) is
// treated as success so removals are idempotent.
func (e *Engine) Remove(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := e.client.Delete(
		e.indexName,
		id.String(),
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return index.Transient(fmt.Errorf("elasticsearch delete: %w", err))
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		if errType, reason := e.decodeError(res.Body); errType != "" {
			return e.classify(res.StatusCode, fmt.Errorf("elasticsearch delete: %s: %s", errType, reason))
		}
		return e.classify(res.StatusCode, fmt.Errorf("elasticsearch delete: unexpected status %s", res.Status()))
	}

	e.logger.Debug("deleted product document", "id", id.String())
	return nil
}

// Search executes a search query against Elasticsearch and returns matching documents.
func (e *Engine) Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error) {
	query = query.Normalize()

	esQuery := e.buildSearchQuery(query)

	data, err := json.Marshal(esQuery)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
		e.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, index.Transient(fmt.Errorf("elasticsearch search: %w", err))
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		if errType, reason := e.decodeError(res.Body); errType != "" {
			return nil, e.classify(res.StatusCode, fmt.Errorf("elasticsearch search: %s: %s", errType, reason))
		}
		return nil, e.classify(res.StatusCode, fmt.Errorf("elasticsearch search: unexpected status %s", res.Status()))
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	hits := make([]domain.ProductDocument, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		hits = append(hits, hit.Source)
	}

	return &domain.SearchResult{
		Hits:    hits,
		Total:   esResp.Hits.Total.Value,
		Page:    query.Page,
		PerPage: query.PerPage,
		TookMs:  int64(esResp.Took),
	}, nil
}

// buildSearchQuery constructs the Elasticsearch query DSL as a map.
func (e *Engine) buildSearchQuery(query domain.SearchQuery) map[string]interface{} {
	var mustClause interface{}
	if query.Term != "" {
		mustClause = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":         query.Term,
				"fields":        []string{"name^3", "name.autocomplete^2", "description"},
				"type":          "best_fields",
				"fuzziness":     "AUTO",
				"prefix_length": 1,
			},
		}
	} else {
		mustClause = map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	}

	filters := e.buildFilters(query)

	boolQuery := map[string]interface{}{
		"must": []interface{}{mustClause},
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
		"sort":             e.buildSort(query),
		"from":             query.Offset(),
		"size":             query.PerPage,
		"track_total_hits": true,
	}
}

// buildFilters constructs the filter clauses based on the search query.
func (e *Engine) buildFilters(query domain.SearchQuery) []interface{} {
	var filters []interface{}

	if query.Category != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{
				"category": query.Category,
			},
		})
	}

	if query.Status != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{
				"status": query.Status,
			},
		})
	}

	if query.MinPrice != nil || query.MaxPrice != nil {
		rangeFilter := map[string]interface{}{}
		if query.MinPrice != nil {
			rangeFilter["gte"] = *query.MinPrice
		}
		if query.MaxPrice != nil {
			rangeFilter["lte"] = *query.MaxPrice
		}
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{
				"price": rangeFilter,
			},
		})
	}

	return filters
}

// buildSort constructs the sort clause. Text sorting on name uses the keyword
// subfield since text fields are not sortable.
func (e *Engine) buildSort(query domain.SearchQuery) []interface{} {
	field := query.SortBy
	if field == "name" {
		field = "name.keyword"
	}
	return []interface{}{
		map[string]interface{}{field: query.Order},
	}
}

// DeleteIndex removes the entire Elasticsearch index.
// It is intended for testing and administrative operations only.
// A 404 response is treated as success (index already absent).
func (e *Engine) DeleteIndex(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := e.client.Indices.Delete(
		[]string{e.indexName},
		e.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return index.Transient(fmt.Errorf("elasticsearch delete index: %w", err))
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return e.classify(res.StatusCode, fmt.Errorf("elasticsearch delete index: unexpected status %s", res.Status()))
	}

	e.mu.Lock()
	e.ensured = false
	e.mu.Unlock()

	e.logger.Info("elasticsearch index deleted", "index", e.indexName)
	return nil
}

// decodeError extracts the error type and reason from an ES error body.
func (e *Engine) decodeError(body interface{ Read([]byte) (int, error) }) (string, string) {
	var errResp esErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err != nil {
		return "", ""
	}
	return errResp.Error.Type, errResp.Error.Reason
}

// classify wraps err as transient when the status code indicates a server
// side problem. 4xx responses are terminal: the request itself is bad and
// retrying will not change the outcome.
func (e *Engine) classify(status int, err error) error {
	if status >= 500 || status == 429 {
		return index.Transient(err)
	}
	return err
}
