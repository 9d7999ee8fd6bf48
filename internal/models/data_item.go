package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DataItem is the demo entity persisted in the relational store and mirrored
// into the cache. Timestamp is kept as unix milliseconds so cached copies
// round-trip through JSON without precision loss.
type DataItem struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"not null;size:255" json:"name"`
	Description string `gorm:"size:1000" json:"description,omitempty"`
	Timestamp   int64  `gorm:"not null" json:"timestamp"`
}

// BeforeCreate assigns a UUID identifier and creation timestamp when the
// caller did not supply them.
func (d *DataItem) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Timestamp == 0 {
		d.Timestamp = time.Now().UnixMilli()
	}
	return nil
}

// Touch refreshes the modification timestamp.
func (d *DataItem) Touch() {
	d.Timestamp = time.Now().UnixMilli()
}
