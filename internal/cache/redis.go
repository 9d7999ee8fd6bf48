package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisConfig captures connection and pool parameters for the Redis store.
type RedisConfig struct {
	Address      string
	Username     string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	PoolTimeout  time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

const (
	defaultPoolSize    = 20
	defaultMinIdle     = 5
	defaultPoolTimeout = 2 * time.Second
	defaultOpTimeout   = 5 * time.Second
)

// RedisStore implements Store on top of go-redis. The client maintains a
// bounded connection pool; callers waiting on an exhausted pool time out and
// the failed operation degrades at the manager layer instead of blocking the
// request.
type RedisStore struct {
	rdb *goredis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore dials Redis eagerly so misconfiguration surfaces during
// application start-up rather than on the first request.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	cfg.Address = strings.TrimSpace(cfg.Address)
	if cfg.Address == "" {
		return nil, errors.New("cache: redis address is required")
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaultPoolSize
	}
	if cfg.MinIdleConns <= 0 {
		cfg.MinIdleConns = defaultMinIdle
	}
	if cfg.PoolTimeout <= 0 {
		cfg.PoolTimeout = defaultPoolTimeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultOpTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultOpTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultOpTimeout
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Address,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		PoolTimeout:  cfg.PoolTimeout,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, Unavailable(err)
	}

	return &RedisStore{rdb: rdb}, nil
}

// Get retrieves the value associated with a key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, Unavailable(err)
	}
	return val, true, nil
}

// Put stores a value with the supplied TTL, overwriting any previous value.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 0 // no expiry
	}
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return Unavailable(err)
	}
	return nil
}

// Delete removes a single key, reporting whether it existed.
func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := s.rdb.Del(ctx, key).Result()
	if err != nil {
		return false, Unavailable(err)
	}
	return removed > 0, nil
}

// DeleteMatching removes every key matching the pattern and returns the count.
func (s *RedisStore) DeleteMatching(ctx context.Context, pattern string) (int64, error) {
	keys, err := s.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return 0, Unavailable(err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := s.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, Unavailable(err)
	}
	return removed, nil
}

// KeysMatching enumerates keys matching the pattern. KEYS is acceptable at
// demo key-space sizes; a larger deployment would switch to SCAN.
func (s *RedisStore) KeysMatching(ctx context.Context, pattern string) ([]string, error) {
	keys, err := s.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, Unavailable(err)
	}
	return keys, nil
}

// Expire re-arms the TTL of an existing key, reporting false when absent.
func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, Unavailable(err)
	}
	return ok, nil
}

// Ping probes backend reachability.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return Unavailable(err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
