package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nordlabs/datacache/pkg/logger"
)

// Registered cache names. The registry is fixed at startup; there is no ad hoc
// cache creation at runtime.
const (
	// CacheDataItems holds individual entities keyed by their identifier.
	CacheDataItems = "dataItems"
	// CacheAllDataItems holds the full collection under a single sentinel key.
	CacheAllDataItems = "allDataItems"
)

// CollectionKey is the sentinel entity key used by single-value collection
// caches, which have no natural per-row key.
const CollectionKey = ""

// separator joins prefix, cache name and entity key. Exactly one separator is
// used on every path, including TTL updates.
const separator = ":"

// ErrUnknownCache reports an operation against a cache name that is not in the
// registry.
var ErrUnknownCache = errors.New("cache: unknown cache name")

// Definition describes one named cache: its registry name and entry TTL.
type Definition struct {
	Name string
	TTL  time.Duration
}

// Manager owns the fixed registry of named caches on top of a Store. Read,
// Write and Evict never fail from the caller's perspective: backend errors are
// logged and degrade to a miss or a skipped best-effort write, keeping the
// persistent store authoritative.
type Manager struct {
	store  Store
	prefix string
	caches map[string]Definition
	names  []string
	log    *zap.Logger
}

// NewManager builds the registry. The global prefix partitions the backend
// key-space so several applications can share one Redis instance.
func NewManager(store Store, prefix string, defs []Definition) (*Manager, error) {
	if store == nil {
		return nil, errors.New("cache: store is required")
	}
	prefix = strings.TrimSpace(strings.Trim(prefix, separator))
	if prefix == "" {
		return nil, errors.New("cache: key prefix is required")
	}
	if len(defs) == 0 {
		return nil, errors.New("cache: at least one cache definition is required")
	}

	m := &Manager{
		store:  store,
		prefix: prefix,
		caches: make(map[string]Definition, len(defs)),
		log:    logger.WithModule("cache"),
	}

	for _, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, errors.New("cache: definition name must not be empty")
		}
		if strings.Contains(name, separator) {
			return nil, errors.New("cache: definition name must not contain the key separator")
		}
		if _, dup := m.caches[name]; dup {
			return nil, errors.New("cache: duplicate definition for " + name)
		}
		def.Name = name
		m.caches[name] = def
		m.names = append(m.names, name)
	}

	return m, nil
}

// DefaultDefinitions returns the registry used by the demo service: one cache
// for entities by id, one for the collection view, both sharing a TTL.
func DefaultDefinitions(ttl time.Duration) []Definition {
	return []Definition{
		{Name: CacheDataItems, TTL: ttl},
		{Name: CacheAllDataItems, TTL: ttl},
	}
}

// Names lists the registered cache names in registration order.
func (m *Manager) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Contains reports whether a cache name is registered.
func (m *Manager) Contains(name string) bool {
	_, ok := m.caches[name]
	return ok
}

// Key builds the full backend key for an entity key within a named cache:
// "{prefix}:{cacheName}:{entityKey}".
func (m *Manager) Key(cacheName, entityKey string) string {
	return m.prefix + separator + cacheName + separator + entityKey
}

// KeyPrefix returns the namespace prefix shared by every key of a cache.
func (m *Manager) KeyPrefix(cacheName string) string {
	return m.prefix + separator + cacheName + separator
}

// GlobalPrefix returns the prefix shared by every key the manager owns.
func (m *Manager) GlobalPrefix() string {
	return m.prefix + separator
}

// StripPrefix removes the cache namespace from a full backend key, returning
// the caller-facing entity key.
func (m *Manager) StripPrefix(cacheName, fullKey string) string {
	return strings.TrimPrefix(fullKey, m.KeyPrefix(cacheName))
}

// Read returns the cached value for an entity key. Unknown caches and backend
// failures both degrade to a miss; the failure is logged, never raised.
func (m *Manager) Read(ctx context.Context, cacheName, entityKey string) ([]byte, bool) {
	def, ok := m.caches[cacheName]
	if !ok {
		return nil, false
	}

	value, found, err := m.store.Get(ctx, m.Key(def.Name, entityKey))
	if err != nil {
		m.log.Warn("cache read failed, degrading to miss",
			zap.String("cache", def.Name),
			zap.String("key", entityKey),
			zap.Error(err),
		)
		return nil, false
	}
	if !found {
		m.log.Debug("cache miss", zap.String("cache", def.Name), zap.String("key", entityKey))
		return nil, false
	}

	m.log.Debug("cache hit", zap.String("cache", def.Name), zap.String("key", entityKey))
	return value, true
}

// Write stores a value with the cache's configured TTL. The write is
// best-effort: backend failures are logged and swallowed. Nil values are never
// stored; absence is represented by key-not-found.
func (m *Manager) Write(ctx context.Context, cacheName, entityKey string, value []byte) {
	def, ok := m.caches[cacheName]
	if !ok {
		m.log.Warn("cache write against unknown cache", zap.String("cache", cacheName))
		return
	}
	if value == nil {
		return
	}

	if err := m.store.Put(ctx, m.Key(def.Name, entityKey), value, def.TTL); err != nil {
		m.log.Warn("cache write failed, skipping",
			zap.String("cache", def.Name),
			zap.String("key", entityKey),
			zap.Error(err),
		)
		return
	}
	m.log.Debug("cache put", zap.String("cache", def.Name), zap.String("key", entityKey))
}

// Evict removes one entry. Backend failures are logged and swallowed; the
// entry's TTL bounds any resulting staleness.
func (m *Manager) Evict(ctx context.Context, cacheName, entityKey string) {
	def, ok := m.caches[cacheName]
	if !ok {
		return
	}

	if _, err := m.store.Delete(ctx, m.Key(def.Name, entityKey)); err != nil {
		m.log.Warn("cache evict failed, skipping",
			zap.String("cache", def.Name),
			zap.String("key", entityKey),
			zap.Error(err),
		)
		return
	}
	m.log.Debug("cache evict", zap.String("cache", def.Name), zap.String("key", entityKey))
}

// EvictChecked removes one entry and reports whether it existed. Used by the
// admin API, which surfaces backend failures instead of swallowing them.
func (m *Manager) EvictChecked(ctx context.Context, cacheName, entityKey string) (bool, error) {
	def, ok := m.caches[cacheName]
	if !ok {
		return false, ErrUnknownCache
	}
	return m.store.Delete(ctx, m.Key(def.Name, entityKey))
}

// Clear removes every entry of one cache, returning the number cleared.
func (m *Manager) Clear(ctx context.Context, cacheName string) (int64, error) {
	def, ok := m.caches[cacheName]
	if !ok {
		return 0, ErrUnknownCache
	}
	cleared, err := m.store.DeleteMatching(ctx, m.KeyPrefix(def.Name)+"*")
	if err != nil {
		return 0, err
	}
	m.log.Info("cache cleared", zap.String("cache", def.Name), zap.Int64("entries", cleared))
	return cleared, nil
}

// Invalidate clears one cache best-effort, for data-path invalidation where a
// backend failure must not surface. Staleness is bounded by the entry TTL.
func (m *Manager) Invalidate(ctx context.Context, cacheName string) {
	if _, err := m.Clear(ctx, cacheName); err != nil {
		m.log.Warn("cache invalidation failed, relying on TTL expiry",
			zap.String("cache", cacheName),
			zap.Error(err),
		)
	}
}

// ClearAll clears every registered cache and returns the total entries removed.
func (m *Manager) ClearAll(ctx context.Context) (int64, error) {
	var total int64
	for _, name := range m.names {
		cleared, err := m.Clear(ctx, name)
		if err != nil {
			return total, err
		}
		total += cleared
	}
	return total, nil
}

// SizeOf counts the keys currently stored under a cache's prefix. The count is
// a snapshot, not transactionally consistent with concurrent writers.
func (m *Manager) SizeOf(ctx context.Context, cacheName string) (int, error) {
	keys, err := m.EntityKeys(ctx, cacheName)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// EntityKeys lists the entity keys cached under a cache name, with the
// namespace prefix stripped.
func (m *Manager) EntityKeys(ctx context.Context, cacheName string) ([]string, error) {
	def, ok := m.caches[cacheName]
	if !ok {
		return nil, ErrUnknownCache
	}
	keys, err := m.store.KeysMatching(ctx, m.KeyPrefix(def.Name)+"*")
	if err != nil {
		return nil, err
	}
	stripped := make([]string, 0, len(keys))
	for _, key := range keys {
		stripped = append(stripped, m.StripPrefix(def.Name, key))
	}
	return stripped, nil
}

// SearchKeys returns all backend keys under the global prefix whose stripped
// form contains the pattern, for the admin key-search endpoint.
func (m *Manager) SearchKeys(ctx context.Context, pattern string) ([]string, error) {
	return m.store.KeysMatching(ctx, m.GlobalPrefix()+"*"+pattern+"*")
}

// TotalSize counts every key under the global prefix across all caches.
func (m *Manager) TotalSize(ctx context.Context) (int, error) {
	keys, err := m.store.KeysMatching(ctx, m.GlobalPrefix()+"*")
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Expire re-arms the TTL of one entry without touching its value. It reports
// false when the key is absent, which callers treat as a negative result
// rather than an error.
func (m *Manager) Expire(ctx context.Context, cacheName, entityKey string, ttl time.Duration) (bool, error) {
	def, ok := m.caches[cacheName]
	if !ok {
		return false, ErrUnknownCache
	}
	return m.store.Expire(ctx, m.Key(def.Name, entityKey), ttl)
}

// Ping reports cache backend reachability.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

// SplitKey resolves a full backend key into (cacheName, entityKey). The
// boolean is false when the key does not belong to a registered cache.
func (m *Manager) SplitKey(fullKey string) (string, string, bool) {
	rest, ok := strings.CutPrefix(fullKey, m.GlobalPrefix())
	if !ok {
		return "", "", false
	}
	name, entityKey, ok := strings.Cut(rest, separator)
	if !ok {
		return "", "", false
	}
	if !m.Contains(name) {
		return "", "", false
	}
	return name, entityKey, true
}
