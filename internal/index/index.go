package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
)

// Engine defines the interface for indexing and searching product documents.
// Implementations may use Elasticsearch, in-memory storage, or other backends.
type Engine interface {
	// EnsureIndex creates the backing index with its mapping if it does
	// not exist yet. Safe to call repeatedly; implementations cache the
	// result after the first success.
	EnsureIndex(ctx context.Context) error

	// Upsert adds or fully replaces a single document, keyed by product
	// ID. Applying the same document twice is a no-op.
	Upsert(ctx context.Context, doc domain.ProductDocument) error

	// Remove deletes a document by product ID. Removing a missing
	// document is not an error.
	Remove(ctx context.Context, id uuid.UUID) error

	// Search executes a query and returns matching documents.
	Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error)

	// Ping checks backend reachability.
	Ping(ctx context.Context) error
}

// TransientError marks an index failure as retryable: network errors,
// timeouts, and backend 5xx responses. Anything else (bad mapping, malformed
// document) is terminal and retrying will not help.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient index error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable. Returns nil if err is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
