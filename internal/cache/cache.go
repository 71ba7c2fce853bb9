package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

const (
	// ProductTTL is the lifetime of single-product cache entries.
	ProductTTL = 120 * time.Second

	// SearchTTL is the lifetime of search-result cache entries.
	SearchTTL = 60 * time.Second

	// SearchGroup is the tag group holding every cached search result.
	// Any product mutation flushes the whole group.
	SearchGroup = "product_search"

	// MaxCachedSearchPage is the highest page number worth caching. Deep
	// pages are rarely revisited, so caching them only churns Redis.
	MaxCachedSearchPage = 50
)

// Cache is a byte-oriented cache with optional tag groups. Keys written via
// SetTagged are tracked under a group name so the whole group can be flushed
// in one call.
type Cache interface {
	// Get returns the value for key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetTagged stores value under key and records the key in group.
	SetTagged(ctx context.Context, group, key string, value []byte, ttl time.Duration) error

	// Delete removes a single key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// FlushGroup deletes every key recorded in group.
	FlushGroup(ctx context.Context, group string) error
}

// ProductKey returns the cache key for a single product.
func ProductKey(id uuid.UUID) string {
	return "product:" + id.String()
}

// SearchKey returns the cache key for a search query. The key is a hash of
// the normalized query so equivalent requests share an entry.
func SearchKey(q domain.SearchQuery) string {
	data, _ := json.Marshal(q.Normalize())
	sum := sha256.Sum256(data)
	return "search:" + hex.EncodeToString(sum[:])
}

// GetOrLoad reads a JSON value of type T from the cache, falling back to
// load on a miss. Loaded values are written back with the given TTL unless
// store is false. Cache errors are logged and treated as misses so the
// cache never takes down a read path.
func GetOrLoad[T any](
	ctx context.Context,
	c Cache,
	logger *slog.Logger,
	group, key string,
	ttl time.Duration,
	load func(ctx context.Context) (T, bool, error),
) (T, error) {
	var zero T

	data, err := c.Get(ctx, key)
	if err == nil {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		// Corrupt entry: drop it and reload.
		_ = c.Delete(ctx, key)
	} else if !errors.Is(err, ErrMiss) {
		logger.WarnContext(ctx, "cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	v, store, err := load(ctx)
	if err != nil {
		return zero, err
	}

	if store {
		data, err := json.Marshal(v)
		if err != nil {
			return zero, fmt.Errorf("marshal cache value: %w", err)
		}
		if group != "" {
			err = c.SetTagged(ctx, group, key, data, ttl)
		} else {
			err = c.Set(ctx, key, data, ttl)
		}
		if err != nil {
			logger.WarnContext(ctx, "cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	return v, nil
}
