package database

import (
	"gorm.io/gorm"

	"github.com/nordlabs/datacache/internal/models"
)

// AutoMigrate applies the schema for all persistent models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.DataItem{},
		&models.CacheEntry{},
	)
}

// SeedData inserts the demo rows on first start. Existing rows are left
// untouched so restarts do not duplicate data.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.DataItem{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	items := []models.DataItem{
		{ID: "1", Name: "Sample Item 1", Description: "This is a sample item stored in the database"},
		{ID: "2", Name: "Sample Item 2", Description: "Another sample item from the database"},
		{ID: "3", Name: "Cache Demo", Description: "Demo item for the cache-aside walkthrough"},
	}

	for _, item := range items {
		if err := db.Create(&item).Error; err != nil {
			return err
		}
	}

	return nil
}
