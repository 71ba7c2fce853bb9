package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCache_GetMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, err := c.Get(ctx, "absent")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), -time.Second))

	_, err := c.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrMiss))

	// Deleting a missing key is not an error.
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestMemoryCache_FlushGroup(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.SetTagged(ctx, "grp", "a", []byte("1"), time.Minute))
	require.NoError(t, c.SetTagged(ctx, "grp", "b", []byte("2"), time.Minute))
	require.NoError(t, c.Set(ctx, "other", []byte("3"), time.Minute))

	require.NoError(t, c.FlushGroup(ctx, "grp"))

	_, err := c.Get(ctx, "a")
	assert.True(t, errors.Is(err, ErrMiss))
	_, err = c.Get(ctx, "b")
	assert.True(t, errors.Is(err, ErrMiss))

	// Untagged keys survive a group flush.
	got, err := c.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
}

func TestSearchKey_EquivalentQueriesShareKey(t *testing.T) {
	// Queries that normalize identically hash to the same key.
	a := SearchKey(domain.SearchQuery{Term: "mouse"})
	b := SearchKey(domain.SearchQuery{Term: "mouse", Page: 1, PerPage: 15, SortBy: "created_at", Order: "desc"})
	assert.Equal(t, a, b)

	c := SearchKey(domain.SearchQuery{Term: "keyboard"})
	assert.NotEqual(t, a, c)
}

func TestProductKey(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, "product:"+id.String(), ProductKey(id))
}

func TestGetOrLoad_MissLoadsAndStores(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	calls := 0
	load := func(ctx context.Context) (string, bool, error) {
		calls++
		return "loaded", true, nil
	}

	v, err := GetOrLoad(ctx, c, newTestLogger(), "", "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)
	assert.Equal(t, 1, calls)

	v, err = GetOrLoad(ctx, c, newTestLogger(), "", "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)
	assert.Equal(t, 1, calls)
}

func TestGetOrLoad_StoreFalseSkipsWriteBack(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	calls := 0
	load := func(ctx context.Context) (string, bool, error) {
		calls++
		return "transient", false, nil
	}

	for range 2 {
		v, err := GetOrLoad(ctx, c, newTestLogger(), "", "k", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, "transient", v)
	}
	assert.Equal(t, 2, calls)
	assert.Zero(t, c.Len())
}

func TestGetOrLoad_LoadErrorPropagates(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	wantErr := errors.New("boom")
	_, err := GetOrLoad(ctx, c, newTestLogger(), "", "k", time.Minute,
		func(ctx context.Context) (string, bool, error) {
			return "", false, wantErr
		})
	assert.True(t, errors.Is(err, wantErr))
}

func TestGetOrLoad_CorruptEntryReloads(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", []byte("{not json"), time.Minute))

	type payload struct {
		Name string `json:"name"`
	}

	v, err := GetOrLoad(ctx, c, newTestLogger(), "", "k", time.Minute,
		func(ctx context.Context) (payload, bool, error) {
			return payload{Name: "fresh"}, true, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "fresh", v.Name)
}

func TestGetOrLoad_TaggedEntriesFlushWithGroup(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	calls := 0
	load := func(ctx context.Context) (string, bool, error) {
		calls++
		return "v", true, nil
	}

	_, err := GetOrLoad(ctx, c, newTestLogger(), SearchGroup, "k", time.Minute, load)
	require.NoError(t, err)
	require.NoError(t, c.FlushGroup(ctx, SearchGroup))

	_, err = GetOrLoad(ctx, c, newTestLogger(), SearchGroup, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
