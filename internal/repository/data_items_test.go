package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordlabs/datacache/internal/database/testutil"
	"github.com/nordlabs/datacache/internal/models"
	"github.com/nordlabs/datacache/internal/repository"
)

func newRepository(t *testing.T) *repository.DataItemRepository {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	repo, err := repository.NewDataItemRepository(db)
	require.NoError(t, err)
	return repo
}

func TestNewDataItemRepositoryRequiresDB(t *testing.T) {
	_, err := repository.NewDataItemRepository(nil)
	require.Error(t, err)
}

func TestDataItemRepositorySaveAndFind(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	item := &models.DataItem{ID: "1", Name: "Sample", Description: "first"}
	require.NoError(t, repo.Save(ctx, item))

	found, err := repo.FindByID(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "Sample", found.Name)

	// Save is an upsert: a second save updates in place.
	item.Name = "Renamed"
	require.NoError(t, repo.Save(ctx, item))

	found, err = repo.FindByID(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", found.Name)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestDataItemRepositoryFindMissing(t *testing.T) {
	repo := newRepository(t)

	_, err := repo.FindByID(context.Background(), "absent")
	require.ErrorIs(t, err, repository.ErrDataItemNotFound)
}

func TestDataItemRepositoryFindAllOrdered(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.DataItem{ID: "b", Name: "second"}))
	require.NoError(t, repo.Save(ctx, &models.DataItem{ID: "a", Name: "first"}))

	items, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "a", items[0].ID)
	require.Equal(t, "b", items[1].ID)
}

func TestDataItemRepositoryExistsAndDelete(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	exists, err := repo.ExistsByID(ctx, "1")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, repo.Save(ctx, &models.DataItem{ID: "1", Name: "Sample"}))

	exists, err = repo.ExistsByID(ctx, "1")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, repo.DeleteByID(ctx, "1"))

	exists, err = repo.ExistsByID(ctx, "1")
	require.NoError(t, err)
	require.False(t, exists)

	// Deleting an absent row is not an error.
	require.NoError(t, repo.DeleteByID(ctx, "1"))
}
