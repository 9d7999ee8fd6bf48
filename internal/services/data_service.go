package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nordlabs/datacache/internal/cache"
	"github.com/nordlabs/datacache/internal/models"
	"github.com/nordlabs/datacache/internal/repository"
	"github.com/nordlabs/datacache/pkg/logger"
)

// DataService implements the cache-aside pattern around the persistent store:
// reads populate the cache on miss, writes persist first and then update the
// cache, mutations invalidate the collection view. Cache failures never reach
// the caller; the persistent store stays authoritative.
type DataService struct {
	repo   repository.PersistentStore
	caches *cache.Manager
	log    *zap.Logger
}

// NewDataService wires the decorator around a persistent store and the cache
// manager.
func NewDataService(repo repository.PersistentStore, caches *cache.Manager) (*DataService, error) {
	if repo == nil {
		return nil, errors.New("data service: repository is required")
	}
	if caches == nil {
		return nil, errors.New("data service: cache manager is required")
	}
	return &DataService{
		repo:   repo,
		caches: caches,
		log:    logger.WithModule("data-service"),
	}, nil
}

// CreateDataItemInput captures the fields accepted when creating an item. The
// identifier is optional; a UUID is assigned when absent.
type CreateDataItemInput struct {
	ID          string
	Name        string
	Description string
}

// UpdateDataItemInput captures the mutable fields of an item.
type UpdateDataItemInput struct {
	Name        string
	Description string
}

// Create persists a new item, then populates the entity cache and invalidates
// the collection cache so the next list is rebuilt from the database.
func (s *DataService) Create(ctx context.Context, input CreateDataItemInput) (*models.DataItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	item := &models.DataItem{
		ID:          strings.TrimSpace(input.ID),
		Name:        name,
		Description: input.Description,
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.Touch()

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}

	s.cacheItem(ctx, item)
	s.caches.Invalidate(ctx, cache.CacheAllDataItems)

	s.log.Info("item created", zap.String("id", item.ID))
	return item, nil
}

// Get is the read-through path: cache first, database on miss, lazy
// population after a database hit.
func (s *DataService) Get(ctx context.Context, id string) (*models.DataItem, error) {
	if raw, hit := s.caches.Read(ctx, cache.CacheDataItems, id); hit {
		var item models.DataItem
		if err := json.Unmarshal(raw, &item); err == nil {
			return &item, nil
		}
		// Corrupt entry: drop it and fall through to the database.
		s.log.Warn("discarding undecodable cache entry", zap.String("id", id))
		s.caches.Evict(ctx, cache.CacheDataItems, id)
	}

	item, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrDataItemNotFound) {
		return nil, ErrDataItemNotFound
	}
	if err != nil {
		return nil, err
	}

	s.cacheItem(ctx, item)
	return item, nil
}

// List is the collection read-through path. An empty result is never cached:
// until at least one item exists, every call re-checks the database.
func (s *DataService) List(ctx context.Context) ([]models.DataItem, error) {
	if raw, hit := s.caches.Read(ctx, cache.CacheAllDataItems, cache.CollectionKey); hit {
		var items []models.DataItem
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
		s.log.Warn("discarding undecodable collection cache entry")
		s.caches.Evict(ctx, cache.CacheAllDataItems, cache.CollectionKey)
	}

	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	if len(items) > 0 {
		if raw, err := json.Marshal(items); err == nil {
			s.caches.Write(ctx, cache.CacheAllDataItems, cache.CollectionKey, raw)
		}
	}

	return items, nil
}

// Update fails fast when the item does not exist, merges the mutable fields,
// persists, and only then refreshes the cache.
func (s *DataService) Update(ctx context.Context, id string, input UpdateDataItemInput) (*models.DataItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	item, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrDataItemNotFound) {
		return nil, ErrDataItemNotFound
	}
	if err != nil {
		return nil, err
	}

	item.Name = name
	item.Description = input.Description
	item.Touch()

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}

	s.cacheItem(ctx, item)
	s.caches.Invalidate(ctx, cache.CacheAllDataItems)

	s.log.Info("item updated", zap.String("id", id))
	return item, nil
}

// Delete evicts both cache views before touching the database so the cache is
// invalidated regardless of the persistent outcome, then deletes the row.
// Deleting a missing id reports false, not an error.
func (s *DataService) Delete(ctx context.Context, id string) (bool, error) {
	s.caches.Evict(ctx, cache.CacheDataItems, id)
	s.caches.Evict(ctx, cache.CacheAllDataItems, cache.CollectionKey)

	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return false, err
	}

	s.log.Info("item deleted", zap.String("id", id))
	return true, nil
}

// Count intentionally bypasses the cache: the count query is cheap and stays
// always fresh.
func (s *DataService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// cacheItem serializes an item into the entity cache, best-effort.
func (s *DataService) cacheItem(ctx context.Context, item *models.DataItem) {
	raw, err := json.Marshal(item)
	if err != nil {
		s.log.Warn("item not cacheable", zap.String("id", item.ID), zap.Error(err))
		return
	}
	s.caches.Write(ctx, cache.CacheDataItems, item.ID, raw)
}
