package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nordlabs/datacache/internal/cache"
	"github.com/nordlabs/datacache/internal/cache/cachetest"
)

func newTestManager(t *testing.T, store cache.Store) *cache.Manager {
	t.Helper()

	m, err := cache.NewManager(store, "demo", cache.DefaultDefinitions(time.Minute))
	require.NoError(t, err)
	return m
}

func TestNewManagerValidation(t *testing.T) {
	store := cachetest.NewMemoryStore()

	_, err := cache.NewManager(nil, "demo", cache.DefaultDefinitions(time.Minute))
	require.Error(t, err)

	_, err = cache.NewManager(store, "", cache.DefaultDefinitions(time.Minute))
	require.Error(t, err)

	_, err = cache.NewManager(store, "demo", nil)
	require.Error(t, err)

	_, err = cache.NewManager(store, "demo", []cache.Definition{
		{Name: "a", TTL: time.Minute},
		{Name: "a", TTL: time.Minute},
	})
	require.Error(t, err)

	_, err = cache.NewManager(store, "demo", []cache.Definition{{Name: "bad:name", TTL: time.Minute}})
	require.Error(t, err)
}

func TestManagerKeyConstruction(t *testing.T) {
	m := newTestManager(t, cachetest.NewMemoryStore())

	require.Equal(t, "demo:dataItems:42", m.Key(cache.CacheDataItems, "42"))
	require.Equal(t, "demo:dataItems:", m.KeyPrefix(cache.CacheDataItems))
	require.Equal(t, "demo:allDataItems:", m.Key(cache.CacheAllDataItems, cache.CollectionKey))
	require.Equal(t, "42", m.StripPrefix(cache.CacheDataItems, "demo:dataItems:42"))

	name, key, ok := m.SplitKey("demo:dataItems:42")
	require.True(t, ok)
	require.Equal(t, cache.CacheDataItems, name)
	require.Equal(t, "42", key)

	_, _, ok = m.SplitKey("other:dataItems:42")
	require.False(t, ok)

	_, _, ok = m.SplitKey("demo:unregistered:42")
	require.False(t, ok)
}

func TestManagerReadWriteEvict(t *testing.T) {
	store := cachetest.NewMemoryStore()
	m := newTestManager(t, store)
	ctx := context.Background()

	_, hit := m.Read(ctx, cache.CacheDataItems, "1")
	require.False(t, hit)

	m.Write(ctx, cache.CacheDataItems, "1", []byte(`{"id":"1"}`))
	require.True(t, store.Has("demo:dataItems:1"))

	value, hit := m.Read(ctx, cache.CacheDataItems, "1")
	require.True(t, hit)
	require.Equal(t, []byte(`{"id":"1"}`), value)

	m.Evict(ctx, cache.CacheDataItems, "1")
	_, hit = m.Read(ctx, cache.CacheDataItems, "1")
	require.False(t, hit)
}

func TestManagerNeverStoresNil(t *testing.T) {
	store := cachetest.NewMemoryStore()
	m := newTestManager(t, store)

	m.Write(context.Background(), cache.CacheDataItems, "absent", nil)
	require.Zero(t, store.Len())
}

func TestManagerUnknownCacheDegradesOrErrors(t *testing.T) {
	m := newTestManager(t, cachetest.NewMemoryStore())
	ctx := context.Background()

	_, hit := m.Read(ctx, "nope", "1")
	require.False(t, hit)

	_, err := m.Clear(ctx, "nope")
	require.ErrorIs(t, err, cache.ErrUnknownCache)

	_, err = m.SizeOf(ctx, "nope")
	require.ErrorIs(t, err, cache.ErrUnknownCache)

	_, err = m.Expire(ctx, "nope", "1", time.Minute)
	require.ErrorIs(t, err, cache.ErrUnknownCache)

	_, err = m.EvictChecked(ctx, "nope", "1")
	require.ErrorIs(t, err, cache.ErrUnknownCache)
}

func TestManagerClearCountsAndScopes(t *testing.T) {
	store := cachetest.NewMemoryStore()
	m := newTestManager(t, store)
	ctx := context.Background()

	m.Write(ctx, cache.CacheDataItems, "1", []byte("a"))
	m.Write(ctx, cache.CacheDataItems, "2", []byte("b"))
	m.Write(ctx, cache.CacheAllDataItems, cache.CollectionKey, []byte("c"))

	cleared, err := m.Clear(ctx, cache.CacheDataItems)
	require.NoError(t, err)
	require.EqualValues(t, 2, cleared)

	// The collection cache is untouched by a scoped clear.
	_, hit := m.Read(ctx, cache.CacheAllDataItems, cache.CollectionKey)
	require.True(t, hit)

	m.Write(ctx, cache.CacheDataItems, "3", []byte("d"))
	total, err := m.ClearAll(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Zero(t, store.Len())
}

func TestManagerSizeAndKeys(t *testing.T) {
	m := newTestManager(t, cachetest.NewMemoryStore())
	ctx := context.Background()

	m.Write(ctx, cache.CacheDataItems, "a", []byte("1"))
	m.Write(ctx, cache.CacheDataItems, "b", []byte("2"))

	size, err := m.SizeOf(ctx, cache.CacheDataItems)
	require.NoError(t, err)
	require.Equal(t, 2, size)

	keys, err := m.EntityKeys(ctx, cache.CacheDataItems)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, keys)

	total, err := m.TotalSize(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total)
}

func TestManagerExpireUsesSingleSeparator(t *testing.T) {
	store := cachetest.NewMemoryStore()
	m := newTestManager(t, store)
	ctx := context.Background()

	m.Write(ctx, cache.CacheDataItems, "42", []byte("v"))

	// The TTL path addresses the same key as every other operation; a doubled
	// separator would miss the entry.
	rearmed, err := m.Expire(ctx, cache.CacheDataItems, "42", time.Minute)
	require.NoError(t, err)
	require.True(t, rearmed)
	require.True(t, store.Has("demo:dataItems:42"))

	rearmed, err = m.Expire(ctx, cache.CacheDataItems, "missing", time.Minute)
	require.NoError(t, err)
	require.False(t, rearmed)
}

func TestManagerDegradesWhenBackendDown(t *testing.T) {
	m := newTestManager(t, cachetest.FailingStore{})
	ctx := context.Background()

	_, hit := m.Read(ctx, cache.CacheDataItems, "1")
	require.False(t, hit)

	// Writes and evictions are best-effort: no panic, no error surfaced.
	m.Write(ctx, cache.CacheDataItems, "1", []byte("v"))
	m.Evict(ctx, cache.CacheDataItems, "1")
	m.Invalidate(ctx, cache.CacheAllDataItems)

	_, err := m.Clear(ctx, cache.CacheDataItems)
	require.ErrorIs(t, err, cache.ErrBackendUnavailable)

	require.ErrorIs(t, m.Ping(ctx), cache.ErrBackendUnavailable)
}
