package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nordlabs/datacache/internal/cache"
	"github.com/nordlabs/datacache/internal/cache/cachetest"
	"github.com/nordlabs/datacache/internal/database/testutil"
	"github.com/nordlabs/datacache/internal/models"
	"github.com/nordlabs/datacache/internal/repository"
	"github.com/nordlabs/datacache/internal/services"
)

// countingStore wraps the real repository so tests can assert which persistent
// operations a cache-aside flow actually reached.
type countingStore struct {
	repository.PersistentStore

	findByIDCalls int
	findAllCalls  int
}

func (c *countingStore) FindByID(ctx context.Context, id string) (*models.DataItem, error) {
	c.findByIDCalls++
	return c.PersistentStore.FindByID(ctx, id)
}

func (c *countingStore) FindAll(ctx context.Context) ([]models.DataItem, error) {
	c.findAllCalls++
	return c.PersistentStore.FindAll(ctx)
}

func newDataServiceFixture(t *testing.T, store cache.Store) (*services.DataService, *countingStore, *cache.Manager) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	repo, err := repository.NewDataItemRepository(db)
	require.NoError(t, err)

	counting := &countingStore{PersistentStore: repo}

	manager, err := cache.NewManager(store, "demo", cache.DefaultDefinitions(time.Minute))
	require.NoError(t, err)

	svc, err := services.NewDataService(counting, manager)
	require.NoError(t, err)

	return svc, counting, manager
}

func TestDataServiceCreateValidatesName(t *testing.T) {
	svc, _, _ := newDataServiceFixture(t, cachetest.NewMemoryStore())

	_, err := svc.Create(context.Background(), services.CreateDataItemInput{Name: "   "})
	require.ErrorIs(t, err, services.ErrNameRequired)
}

func TestDataServiceCreatePopulatesCache(t *testing.T) {
	memory := cachetest.NewMemoryStore()
	svc, counting, _ := newDataServiceFixture(t, memory)
	ctx := context.Background()

	created, err := svc.Create(ctx, services.CreateDataItemInput{ID: "42", Name: "Answer"})
	require.NoError(t, err)
	require.Equal(t, "42", created.ID)
	require.NotZero(t, created.Timestamp)
	require.True(t, memory.Has("demo:dataItems:42"))

	// The entity was cached on create, so the read never reaches the database.
	got, err := svc.Get(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, "Answer", got.Name)
	require.Zero(t, counting.findByIDCalls)
}

func TestDataServiceCreateAssignsID(t *testing.T) {
	svc, _, _ := newDataServiceFixture(t, cachetest.NewMemoryStore())

	created, err := svc.Create(context.Background(), services.CreateDataItemInput{Name: "unnamed"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Len(t, created.ID, 36)
}

func TestDataServiceGetReadThrough(t *testing.T) {
	memory := cachetest.NewMemoryStore()
	svc, counting, manager := newDataServiceFixture(t, memory)
	ctx := context.Background()

	_, err := svc.Create(ctx, services.CreateDataItemInput{ID: "1", Name: "Sample"})
	require.NoError(t, err)

	// Evict so the first read must hit the database and repopulate the cache.
	manager.Evict(ctx, cache.CacheDataItems, "1")

	_, err = svc.Get(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, 1, counting.findByIDCalls)
	require.True(t, memory.Has("demo:dataItems:1"))

	_, err = svc.Get(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, 1, counting.findByIDCalls)
}

func TestDataServiceGetMissing(t *testing.T) {
	svc, _, _ := newDataServiceFixture(t, cachetest.NewMemoryStore())

	_, err := svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, services.ErrDataItemNotFound)
}

func TestDataServiceGetDropsCorruptEntry(t *testing.T) {
	memory := cachetest.NewMemoryStore()
	svc, counting, manager := newDataServiceFixture(t, memory)
	ctx := context.Background()

	_, err := svc.Create(ctx, services.CreateDataItemInput{ID: "1", Name: "Sample"})
	require.NoError(t, err)

	manager.Write(ctx, cache.CacheDataItems, "1", []byte("not json"))

	got, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "Sample", got.Name)
	require.Equal(t, 1, counting.findByIDCalls)

	// The corrupt entry was replaced with a decodable one.
	raw, hit := manager.Read(ctx, cache.CacheDataItems, "1")
	require.True(t, hit)
	var cached models.DataItem
	require.NoError(t, json.Unmarshal(raw, &cached))
	require.Equal(t, *got, cached)
}

func TestDataServiceListCachesNonEmptyOnly(t *testing.T) {
	memory := cachetest.NewMemoryStore()
	svc, counting, _ := newDataServiceFixture(t, memory)
	ctx := context.Background()

	// Empty collections are never cached, so every list re-checks the database.
	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, items)

	items, err = svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
	require.Equal(t, 2, counting.findAllCalls)
	require.False(t, memory.Has("demo:allDataItems:"))

	_, err = svc.Create(ctx, services.CreateDataItemInput{ID: "1", Name: "Sample"})
	require.NoError(t, err)

	items, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, memory.Has("demo:allDataItems:"))

	// Cached collection: the next list skips the database.
	items, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 3, counting.findAllCalls)
}

func TestDataServiceUpdateInvalidatesCollection(t *testing.T) {
	memory := cachetest.NewMemoryStore()
	svc, _, _ := newDataServiceFixture(t, memory)
	ctx := context.Background()

	_, err := svc.Create(ctx, services.CreateDataItemInput{ID: "1", Name: "Before"})
	require.NoError(t, err)

	_, err = svc.List(ctx)
	require.NoError(t, err)
	require.True(t, memory.Has("demo:allDataItems:"))

	updated, err := svc.Update(ctx, "1", services.UpdateDataItemInput{Name: "After", Description: "changed"})
	require.NoError(t, err)
	require.Equal(t, "After", updated.Name)
	require.False(t, memory.Has("demo:allDataItems:"))

	// The entity cache holds the fresh value.
	got, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "After", got.Name)
	require.Equal(t, "changed", got.Description)
}

func TestDataServiceUpdateMissing(t *testing.T) {
	svc, _, _ := newDataServiceFixture(t, cachetest.NewMemoryStore())

	_, err := svc.Update(context.Background(), "nope", services.UpdateDataItemInput{Name: "x"})
	require.ErrorIs(t, err, services.ErrDataItemNotFound)
}

func TestDataServiceDeleteIsIdempotent(t *testing.T) {
	memory := cachetest.NewMemoryStore()
	svc, _, _ := newDataServiceFixture(t, memory)
	ctx := context.Background()

	_, err := svc.Create(ctx, services.CreateDataItemInput{ID: "1", Name: "Sample"})
	require.NoError(t, err)
	_, err = svc.List(ctx)
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, "1")
	require.NoError(t, err)
	require.True(t, deleted)
	require.False(t, memory.Has("demo:dataItems:1"))
	require.False(t, memory.Has("demo:allDataItems:"))

	deleted, err = svc.Delete(ctx, "1")
	require.NoError(t, err)
	require.False(t, deleted)

	_, err = svc.Get(ctx, "1")
	require.ErrorIs(t, err, services.ErrDataItemNotFound)
}

func TestDataServiceDegradesWithoutBackend(t *testing.T) {
	svc, counting, _ := newDataServiceFixture(t, cachetest.FailingStore{})
	ctx := context.Background()

	created, err := svc.Create(ctx, services.CreateDataItemInput{ID: "1", Name: "Sample"})
	require.NoError(t, err)
	require.Equal(t, "1", created.ID)

	// Every read falls through to the database; results stay correct.
	got, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "Sample", got.Name)

	_, err = svc.Get(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, 2, counting.findByIDCalls)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	updated, err := svc.Update(ctx, "1", services.UpdateDataItemInput{Name: "Renamed"})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)

	deleted, err := svc.Delete(ctx, "1")
	require.NoError(t, err)
	require.True(t, deleted)
}

func TestDataServiceCount(t *testing.T) {
	svc, _, _ := newDataServiceFixture(t, cachetest.NewMemoryStore())
	ctx := context.Background()

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	_, err = svc.Create(ctx, services.CreateDataItemInput{Name: "a"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, services.CreateDataItemInput{Name: "b"})
	require.NoError(t, err)

	count, err = svc.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}
