package models

import (
	"time"
)

// CacheEntry represents a cached value stored in the database fallback store.
// It exists so the service keeps its cache semantics when Redis is disabled.
type CacheEntry struct {
	// The column is named cache_key because KEY is reserved in MySQL.
	Key       string    `gorm:"column:cache_key;primaryKey;size:256"`
	Value     []byte
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
