// Package cachetest provides in-memory cache.Store implementations for tests.
package cachetest

import (
	"context"
	"errors"
	"path"
	"sync"
	"time"

	"github.com/nordlabs/datacache/internal/cache"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a map-backed cache.Store with real TTL semantics, standing in
// for Redis in tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
}

var _ cache.Store = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if expired(e, time.Now()) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

func (s *MemoryStore) DeleteMatching(_ context.Context, pattern string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key := range s.entries {
		if matches(pattern, key) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) KeysMatching(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var keys []string
	for key, e := range s.entries {
		if expired(e, now) {
			continue
		}
		if matches(pattern, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || expired(e, time.Now()) {
		return false, nil
	}
	e.expiresAt = time.Now().Add(ttl)
	s.entries[key] = e
	return true, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// Len reports the number of unexpired entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	count := 0
	for _, e := range s.entries {
		if !expired(e, now) {
			count++
		}
	}
	return count
}

// Has reports whether the exact backend key is present and unexpired.
func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	return ok && !expired(e, time.Now())
}

func expired(e entry, now time.Time) bool {
	return !e.expiresAt.IsZero() && e.expiresAt.Before(now)
}

// matches applies Redis-style glob matching. Cache keys never contain '/',
// so path.Match's wildcard semantics line up.
func matches(pattern, key string) bool {
	ok, err := path.Match(pattern, key)
	return err == nil && ok
}

// FailingStore simulates an unreachable backend: every operation reports
// cache.ErrBackendUnavailable.
type FailingStore struct{}

var _ cache.Store = (*FailingStore)(nil)

var errDown = errors.New("connection refused")

func (FailingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, cache.Unavailable(errDown)
}

func (FailingStore) Put(context.Context, string, []byte, time.Duration) error {
	return cache.Unavailable(errDown)
}

func (FailingStore) Delete(context.Context, string) (bool, error) {
	return false, cache.Unavailable(errDown)
}

func (FailingStore) DeleteMatching(context.Context, string) (int64, error) {
	return 0, cache.Unavailable(errDown)
}

func (FailingStore) KeysMatching(context.Context, string) ([]string, error) {
	return nil, cache.Unavailable(errDown)
}

func (FailingStore) Expire(context.Context, string, time.Duration) (bool, error) {
	return false, cache.Unavailable(errDown)
}

func (FailingStore) Ping(context.Context) error { return cache.Unavailable(errDown) }

func (FailingStore) Close() error { return nil }
