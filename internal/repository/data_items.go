package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nordlabs/datacache/internal/models"
)

// ErrDataItemNotFound indicates the requested item does not exist in the store.
var ErrDataItemNotFound = errors.New("repository: data item not found")

// PersistentStore is the narrow contract the caching layer decorates. The
// relational database behind it is the system of record; cache contents are
// always reconstructible from it.
type PersistentStore interface {
	Save(ctx context.Context, item *models.DataItem) error
	FindByID(ctx context.Context, id string) (*models.DataItem, error)
	FindAll(ctx context.Context) ([]models.DataItem, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	DeleteByID(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// DataItemRepository implements PersistentStore on top of gorm.
type DataItemRepository struct {
	db *gorm.DB
}

// NewDataItemRepository constructs the gorm-backed repository.
func NewDataItemRepository(db *gorm.DB) (*DataItemRepository, error) {
	if db == nil {
		return nil, errors.New("repository: db is required")
	}
	return &DataItemRepository{db: db}, nil
}

// Save upserts the supplied item.
func (r *DataItemRepository) Save(ctx context.Context, item *models.DataItem) error {
	if item == nil {
		return errors.New("repository: item is required")
	}
	return r.db.WithContext(ctx).Save(item).Error
}

// FindByID loads a single item, returning ErrDataItemNotFound when absent.
func (r *DataItemRepository) FindByID(ctx context.Context, id string) (*models.DataItem, error) {
	var item models.DataItem
	err := r.db.WithContext(ctx).Take(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDataItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindAll returns every stored item ordered by identifier.
func (r *DataItemRepository) FindAll(ctx context.Context) ([]models.DataItem, error) {
	var items []models.DataItem
	if err := r.db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ExistsByID reports whether an item with the given identifier is stored.
func (r *DataItemRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DataItem{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteByID removes an item. Deleting a missing id is not an error.
func (r *DataItemRepository) DeleteByID(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.DataItem{}, "id = ?", id).Error
}

// Count returns the total number of stored items.
func (r *DataItemRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DataItem{}).Count(&count).Error
	return count, err
}
