package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nordlabs/datacache/internal/models"
)

// DatabaseStore implements the cache Store interface using the primary SQL
// database. It keeps cache semantics (TTL, pattern enumeration) intact when
// Redis is disabled, at the cost of hitting the relational store.
type DatabaseStore struct {
	db *gorm.DB
}

var _ Store = (*DatabaseStore)(nil)

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB) (*DatabaseStore, error) {
	if db == nil {
		return nil, errors.New("cache: db is required")
	}
	return &DatabaseStore{db: db}, nil
}

// Get retrieves a value by key, respecting expiry.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry models.CacheEntry
	err := s.db.WithContext(ctx).Take(&entry, "cache_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, Unavailable(err)
	}

	if entryExpired(entry, time.Now()) {
		// Lazy expiry: drop the stale row and report a miss.
		_ = s.db.WithContext(ctx).Delete(&models.CacheEntry{}, "cache_key = ?", key).Error
		return nil, false, nil
	}

	return entry.Value, true, nil
}

// Put upserts the value for a given key with expiry.
func (s *DatabaseStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiry := time.Time{}
	if ttl > 0 {
		expiry = time.Now().Add(ttl)
	}

	entry := models.CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: expiry,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).Create(&entry).Error
	if err != nil {
		return Unavailable(err)
	}
	return nil
}

// Delete removes a single key, reporting whether it existed.
func (s *DatabaseStore) Delete(ctx context.Context, key string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&models.CacheEntry{}, "cache_key = ?", key)
	if res.Error != nil {
		return false, Unavailable(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteMatching removes every key matching the glob-style pattern.
func (s *DatabaseStore) DeleteMatching(ctx context.Context, pattern string) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&models.CacheEntry{}, "cache_key LIKE ? ESCAPE '\\'", globToLike(pattern))
	if res.Error != nil {
		return 0, Unavailable(res.Error)
	}
	return res.RowsAffected, nil
}

// KeysMatching enumerates unexpired keys matching the glob-style pattern.
func (s *DatabaseStore) KeysMatching(ctx context.Context, pattern string) ([]string, error) {
	var entries []models.CacheEntry
	err := s.db.WithContext(ctx).
		Select("cache_key", "expires_at").
		Where("cache_key LIKE ? ESCAPE '\\'", globToLike(pattern)).
		Find(&entries).Error
	if err != nil {
		return nil, Unavailable(err)
	}

	now := time.Now()
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entryExpired(entry, now) {
			continue
		}
		keys = append(keys, entry.Key)
	}
	return keys, nil
}

// Expire re-arms the TTL on an existing, unexpired entry.
func (s *DatabaseStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	var entry models.CacheEntry
	err := s.db.WithContext(ctx).Take(&entry, "cache_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, Unavailable(err)
	}
	if entryExpired(entry, time.Now()) {
		_ = s.db.WithContext(ctx).Delete(&models.CacheEntry{}, "cache_key = ?", key).Error
		return false, nil
	}

	res := s.db.WithContext(ctx).
		Model(&models.CacheEntry{}).
		Where("cache_key = ?", key).
		Update("expires_at", time.Now().Add(ttl))
	if res.Error != nil {
		return false, Unavailable(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Ping verifies the underlying database connection.
func (s *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return Unavailable(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return Unavailable(err)
	}
	return nil
}

// Close is a no-op; the database connection is owned by the caller.
func (s *DatabaseStore) Close() error {
	return nil
}

func entryExpired(entry models.CacheEntry, now time.Time) bool {
	return !entry.ExpiresAt.IsZero() && entry.ExpiresAt.Before(now)
}

// globToLike converts a Redis-style glob pattern to a SQL LIKE pattern. Only
// '*' wildcards are supported; literal '%' and '_' are escaped, and queries
// must carry an explicit ESCAPE '\' clause (SQLite has none by default).
func globToLike(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	for i := 0; i < len(pattern); i++ {
		switch ch := pattern[i]; ch {
		case '*':
			b.WriteByte('%')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteByte(ch)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
