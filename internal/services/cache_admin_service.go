package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nordlabs/datacache/internal/cache"
	"github.com/nordlabs/datacache/pkg/logger"
)

// CacheAdminService exposes cache introspection and maintenance operations.
// It talks to the cache manager directly, bypassing the cache-aside data path.
type CacheAdminService struct {
	caches *cache.Manager
	log    *zap.Logger
}

// NewCacheAdminService wires the admin surface onto the cache manager.
func NewCacheAdminService(caches *cache.Manager) (*CacheAdminService, error) {
	if caches == nil {
		return nil, errors.New("cache admin: cache manager is required")
	}
	return &CacheAdminService{
		caches: caches,
		log:    logger.WithModule("cache-admin"),
	}, nil
}

// CacheStats aggregates per-cache sizes and backend reachability.
type CacheStats struct {
	CacheCount     int            `json:"cacheCount"`
	CacheNames     []string       `json:"cacheNames"`
	CacheSizes     map[string]int `json:"cacheSizes"`
	RedisConnected bool           `json:"redisConnected"`
	Error          string         `json:"error,omitempty"`
	Timestamp      int64          `json:"timestamp"`
}

// Stats reports approximate per-cache sizes. A size failure for one cache is
// reported as -1 for that cache without failing the whole call.
func (s *CacheAdminService) Stats(ctx context.Context) *CacheStats {
	names := s.caches.Names()
	stats := &CacheStats{
		CacheCount: len(names),
		CacheNames: names,
		CacheSizes: make(map[string]int, len(names)),
		Timestamp:  time.Now().UnixMilli(),
	}

	for _, name := range names {
		size, err := s.caches.SizeOf(ctx, name)
		if err != nil {
			s.log.Warn("could not size cache", zap.String("cache", name), zap.Error(err))
			stats.CacheSizes[name] = -1
			continue
		}
		stats.CacheSizes[name] = size
	}

	if err := s.caches.Ping(ctx); err != nil {
		stats.RedisConnected = false
		stats.Error = "cache backend unreachable"
	} else {
		stats.RedisConnected = true
	}

	return stats
}

// KeyListing groups cached entity keys by cache name.
type KeyListing struct {
	CacheKeys map[string][]string `json:"cacheKeys"`
	TotalKeys int                 `json:"totalKeys"`
}

// ListKeys enumerates every cached key, grouped by cache and with the
// namespace prefix stripped.
func (s *CacheAdminService) ListKeys(ctx context.Context) (*KeyListing, error) {
	listing := &KeyListing{CacheKeys: make(map[string][]string)}

	for _, name := range s.caches.Names() {
		keys, err := s.caches.EntityKeys(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			continue
		}
		listing.CacheKeys[name] = keys
		listing.TotalKeys += len(keys)
	}

	return listing, nil
}

// KeySearch holds pattern-match results grouped by cache name.
type KeySearch struct {
	Pattern      string              `json:"pattern"`
	MatchingKeys map[string][]string `json:"matchingKeys"`
	TotalMatches int                 `json:"totalMatches"`
}

// SearchKeys matches cached keys against a substring-style pattern across all
// caches. A blank pattern is rejected.
func (s *CacheAdminService) SearchKeys(ctx context.Context, pattern string) (*KeySearch, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, ErrEmptyPattern
	}

	matches, err := s.caches.SearchKeys(ctx, pattern)
	if err != nil {
		return nil, err
	}

	result := &KeySearch{
		Pattern:      pattern,
		MatchingKeys: make(map[string][]string),
	}
	for _, fullKey := range matches {
		name, entityKey, ok := s.caches.SplitKey(fullKey)
		if !ok {
			continue
		}
		result.MatchingKeys[name] = append(result.MatchingKeys[name], entityKey)
		result.TotalMatches++
	}

	return result, nil
}

// ClearAll clears every registered cache, returning the total entries removed.
func (s *CacheAdminService) ClearAll(ctx context.Context) (int64, error) {
	cleared, err := s.caches.ClearAll(ctx)
	if err != nil {
		return cleared, err
	}
	s.log.Info("all caches cleared", zap.Int64("entries", cleared))
	return cleared, nil
}

// Clear clears one cache; an unregistered name yields cache.ErrUnknownCache.
func (s *CacheAdminService) Clear(ctx context.Context, cacheName string) (int64, error) {
	return s.caches.Clear(ctx, cacheName)
}

// Evict removes a single entry. The cache name must be registered, the key
// must be non-blank, and a missing entry is reported as ErrEntryNotFound.
func (s *CacheAdminService) Evict(ctx context.Context, cacheName, key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	existed, err := s.caches.EvictChecked(ctx, cacheName, key)
	if err != nil {
		return err
	}
	if !existed {
		return ErrEntryNotFound
	}

	s.log.Info("cache entry evicted", zap.String("cache", cacheName), zap.String("key", key))
	return nil
}

// TTLUpdate confirms a TTL re-arm.
type TTLUpdate struct {
	Success   bool   `json:"success"`
	CacheName string `json:"cacheName"`
	Key       string `json:"key"`
	TTL       int64  `json:"ttl"`
	Message   string `json:"message"`
}

// SetTTL re-arms the expiry of an existing entry without changing its value.
// A non-positive TTL or blank key is invalid; a missing key is a negative
// result (ErrEntryNotFound), not a backend failure.
func (s *CacheAdminService) SetTTL(ctx context.Context, cacheName, key string, ttlSeconds int64) (*TTLUpdate, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrEmptyKey
	}
	if ttlSeconds <= 0 {
		return nil, ErrInvalidTTL
	}

	rearmed, err := s.caches.Expire(ctx, cacheName, key, time.Duration(ttlSeconds)*time.Second)
	if err != nil {
		return nil, err
	}
	if !rearmed {
		return nil, ErrEntryNotFound
	}

	s.log.Info("cache entry ttl updated",
		zap.String("cache", cacheName),
		zap.String("key", key),
		zap.Int64("ttl_seconds", ttlSeconds),
	)

	return &TTLUpdate{
		Success:   true,
		CacheName: cacheName,
		Key:       key,
		TTL:       ttlSeconds,
		Message:   "TTL updated successfully",
	}, nil
}

// BackendInfo reports cache backend health and total key count.
type BackendInfo struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
	TotalKeys int    `json:"totalKeys"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Info pings the backend and counts keys under the global prefix. It never
// returns an error; unreachability is part of the report.
func (s *CacheAdminService) Info(ctx context.Context) *BackendInfo {
	info := &BackendInfo{Timestamp: time.Now().UnixMilli()}

	if err := s.caches.Ping(ctx); err != nil {
		s.log.Warn("cache backend ping failed", zap.Error(err))
		info.Connected = false
		info.Error = "cache backend unreachable"
		return info
	}

	info.Connected = true
	info.Message = "cache backend is connected and operational"

	total, err := s.caches.TotalSize(ctx)
	if err != nil {
		info.Error = "could not count cached keys"
		return info
	}
	info.TotalKeys = total

	return info
}
