package cache

import (
	"context"
	"errors"
	"time"
)

// ErrBackendUnavailable marks transport-level failures talking to the cache
// backend. It is deliberately distinct from a miss: a miss is reported via the
// boolean return, never as an error.
var ErrBackendUnavailable = errors.New("cache: backend unavailable")

// Store is the thin contract over a remote key/value cache with TTL support,
// pattern-based key enumeration and expiry control.
type Store interface {
	// Get returns the raw value for key. The boolean reports whether the key
	// existed; a backend failure is returned as an error wrapping
	// ErrBackendUnavailable.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put overwrites the value for key and resets its TTL.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a single key, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// DeleteMatching removes every key matching the glob-style pattern and
	// returns the number of keys removed.
	DeleteMatching(ctx context.Context, pattern string) (int64, error)
	// KeysMatching enumerates keys matching the glob-style pattern.
	KeysMatching(ctx context.Context, pattern string) ([]string, error)
	// Expire re-arms the TTL of an existing key without touching its value.
	// It reports false when the key does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Ping probes backend reachability.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// Unavailable wraps a transport error so callers can match it with errors.Is.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return &unavailableError{cause: err}
}

type unavailableError struct {
	cause error
}

func (e *unavailableError) Error() string {
	return "cache: backend unavailable: " + e.cause.Error()
}

func (e *unavailableError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

func (e *unavailableError) Unwrap() error {
	return e.cause
}
