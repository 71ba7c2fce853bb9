package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
)

// Engine is an in-memory implementation of the index.Engine interface.
// It provides simple substring matching on name and description fields.
// Thread-safe via sync.RWMutex.
type Engine struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]domain.ProductDocument
}

// New creates a new in-memory search engine.
func New() *Engine {
	return &Engine{
		docs: make(map[uuid.UUID]domain.ProductDocument),
	}
}

// EnsureIndex is a no-op for the in-memory engine.
func (e *Engine) EnsureIndex(_ context.Context) error {
	return nil
}

// Ping always succeeds for the in-memory engine.
func (e *Engine) Ping(_ context.Context) error {
	return nil
}

// Upsert adds or replaces a single document in the in-memory index.
func (e *Engine) Upsert(_ context.Context, doc domain.ProductDocument) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.docs[doc.ID] = doc
	return nil
}

// Remove deletes a document from the in-memory index by its ID.
// Removing a missing document is a no-op.
func (e *Engine) Remove(_ context.Context, id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.docs, id)
	return nil
}

// Search executes a search query against the in-memory index.
func (e *Engine) Search(_ context.Context, query domain.SearchQuery) (*domain.SearchResult, error) {
	start := time.Now()
	query = query.Normalize()

	e.mu.RLock()
	defer e.mu.RUnlock()

	matched := make([]domain.ProductDocument, 0)

	termLower := strings.ToLower(query.Term)

	for _, d := range e.docs {
		if !e.matches(d, query, termLower) {
			continue
		}
		matched = append(matched, d)
	}

	e.sortDocs(matched, query.SortBy, query.Order)

	total := len(matched)

	offset := query.Offset()
	if offset > total {
		offset = total
	}
	end := offset + query.PerPage
	if end > total {
		end = total
	}

	return &domain.SearchResult{
		Hits:    matched[offset:end],
		Total:   int64(total),
		Page:    query.Page,
		PerPage: query.PerPage,
		TookMs:  time.Since(start).Milliseconds(),
	}, nil
}

// Len returns the number of documents in the index.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// matches checks whether a document matches the given search query filters.
func (e *Engine) matches(d domain.ProductDocument, query domain.SearchQuery, termLower string) bool {
	if termLower != "" {
		nameLower := strings.ToLower(d.Name)
		descLower := strings.ToLower(d.Description)
		if !strings.Contains(nameLower, termLower) && !strings.Contains(descLower, termLower) {
			return false
		}
	}

	if query.Category != "" && d.Category != query.Category {
		return false
	}

	if query.Status != "" && d.Status != query.Status {
		return false
	}

	if query.MinPrice != nil && d.Price < *query.MinPrice {
		return false
	}
	if query.MaxPrice != nil && d.Price > *query.MaxPrice {
		return false
	}

	return true
}

// sortDocs sorts the matched documents by the whitelisted sort field.
func (e *Engine) sortDocs(docs []domain.ProductDocument, sortBy, order string) {
	asc := order == "asc"

	less := func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) }
	switch sortBy {
	case "updated_at":
		less = func(i, j int) bool { return docs[i].UpdatedAt.Before(docs[j].UpdatedAt) }
	case "price":
		less = func(i, j int) bool { return docs[i].Price < docs[j].Price }
	case "name":
		less = func(i, j int) bool { return docs[i].Name < docs[j].Name }
	}

	sort.Slice(docs, func(i, j int) bool {
		if asc {
			return less(i, j)
		}
		return less(j, i)
	})
}
