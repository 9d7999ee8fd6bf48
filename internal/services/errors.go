package services

import "errors"

var (
	// ErrDataItemNotFound indicates the requested item does not exist in the
	// system of record.
	ErrDataItemNotFound = errors.New("data service: item not found")

	// ErrNameRequired rejects items without a name.
	ErrNameRequired = errors.New("data service: name is required")

	// ErrEmptyPattern rejects blank key-search patterns.
	ErrEmptyPattern = errors.New("cache admin: pattern must not be empty")

	// ErrEmptyKey rejects blank cache keys.
	ErrEmptyKey = errors.New("cache admin: key must not be empty")

	// ErrInvalidTTL rejects non-positive TTL values.
	ErrInvalidTTL = errors.New("cache admin: ttl must be a positive number of seconds")

	// ErrEntryNotFound indicates the addressed cache entry does not exist.
	ErrEntryNotFound = errors.New("cache admin: cache entry not found")
)
