package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingStore simulates an unreachable idempotency backend.
type failingStore struct{}

func (failingStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("store unreachable")
}
func (failingStore) Add(context.Context, string) error { return errors.New("store unreachable") }

func newTestEvent(t *testing.T, id string) *Event {
	t.Helper()
	event, err := NewEvent("catalog.product.created", "prod-1", "product", "catalog-api", nil)
	require.NoError(t, err)
	event.EventID = id
	return event
}

func TestMemoryIdempotencyStore(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	ctx := context.Background()

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))

	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewMemoryIdempotencyStore(-time.Second)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "evt-1"))

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, 0, store.Len())
}

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	calls := 0
	handler := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return nil
	}, testLogger())

	event := newTestEvent(t, "evt-1")

	require.NoError(t, handler(context.Background(), event))
	require.NoError(t, handler(context.Background(), event))

	assert.Equal(t, 1, calls)
}

func TestIdempotentHandler_FailedProcessingIsNotRecorded(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	calls := 0
	handler := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		if calls == 1 {
			return errors.New("transient failure")
		}
		return nil
	}, testLogger())

	event := newTestEvent(t, "evt-1")

	require.Error(t, handler(context.Background(), event))
	// The retry must not be deduplicated since the first attempt failed.
	require.NoError(t, handler(context.Background(), event))
	assert.Equal(t, 2, calls)
}

func TestIdempotentHandler_MissingEventIDPassesThrough(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	calls := 0
	handler := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return nil
	}, testLogger())

	event := newTestEvent(t, "")

	require.NoError(t, handler(context.Background(), event))
	require.NoError(t, handler(context.Background(), event))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, store.Len())
}

func TestIdempotentHandler_StoreFailureProcessesAnyway(t *testing.T) {
	calls := 0
	handler := IdempotentHandler(failingStore{}, func(context.Context, *Event) error {
		calls++
		return nil
	}, testLogger())

	require.NoError(t, handler(context.Background(), newTestEvent(t, "evt-1")))
	assert.Equal(t, 1, calls)
}
