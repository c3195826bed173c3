package badger

import (
	"context"
	"testing"

	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupItemRepo(t *testing.T) (storage.ItemRepository, func()) {
	t.Helper()
	_, itemRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	return itemRepo, func() {
		itemRepo.Close()
		backend.Close()
	}
}

func testItem(externalID int64, collectionID core.ID) *core.Item {
	return &core.Item{
		ExternalID:   externalID,
		CollectionID: collectionID,
		Title:        "title",
		Content:      "extracted content body",
		Type:         core.ContentTypeDocument,
	}
}

func TestItemUpsertAndGet(t *testing.T) {
	repo, cleanup := setupItemRepo(t)
	defer cleanup()
	ctx := context.Background()

	collectionID := core.IDFromContent("collection:test")
	item := testItem(101, collectionID)

	stored, err := repo.UpsertItems(ctx, item)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].InsertedAt.IsZero())

	got, err := repo.GetItem(ctx, item.StorageID())
	require.NoError(t, err)
	assert.Equal(t, int64(101), got.ExternalID)
	assert.Equal(t, "extracted content body", got.Content)
}

func TestItemTimestampsRoundTrip(t *testing.T) {
	repo, cleanup := setupItemRepo(t)
	defer cleanup()
	ctx := context.Background()

	collectionID := core.IDFromContent("collection:test")
	stored, err := repo.UpsertItems(ctx, testItem(303, collectionID))
	require.NoError(t, err)
	require.Len(t, stored, 1)

	// Stamped timestamps must survive the wire format exactly, not
	// just to within its microsecond precision.
	got, err := repo.GetItem(ctx, stored[0].StorageID())
	require.NoError(t, err)
	assert.True(t, got.InsertedAt.Equal(stored[0].InsertedAt),
		"stored %v, read back %v", stored[0].InsertedAt, got.InsertedAt)
	assert.True(t, got.UpdatedAt.Equal(stored[0].UpdatedAt),
		"stored %v, read back %v", stored[0].UpdatedAt, got.UpdatedAt)
}

func TestItemUpsertCollapsesDuplicates(t *testing.T) {
	repo, cleanup := setupItemRepo(t)
	defer cleanup()
	ctx := context.Background()

	collectionID := core.IDFromContent("collection:test")

	first := testItem(202, collectionID)
	_, err := repo.UpsertItems(ctx, first)
	require.NoError(t, err)

	second := testItem(202, collectionID)
	second.Content = "newer content"
	_, err = repo.UpsertItems(ctx, second)
	require.NoError(t, err)

	// Same external identifier at different times collapses to one
	// record holding the latest content.
	ids, err := repo.ListExternalIDs(ctx, collectionID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	got, err := repo.GetItem(ctx, second.StorageID())
	require.NoError(t, err)
	assert.Equal(t, "newer content", got.Content)
	assert.Equal(t, first.InsertedAt, got.InsertedAt)
}

func TestItemUpsertRejectsEmptyContent(t *testing.T) {
	repo, cleanup := setupItemRepo(t)
	defer cleanup()

	item := testItem(303, core.IDFromContent("collection:test"))
	item.Content = ""
	_, err := repo.UpsertItems(context.Background(), item)
	assert.ErrorIs(t, err, core.ErrEmptyContent)
}

func TestItemListExternalIDs(t *testing.T) {
	repo, cleanup := setupItemRepo(t)
	defer cleanup()
	ctx := context.Background()

	first := core.IDFromContent("collection:first")
	second := core.IDFromContent("collection:second")

	_, err := repo.UpsertItems(ctx,
		testItem(1, first), testItem(2, first), testItem(3, second))
	require.NoError(t, err)

	ids, err := repo.ListExternalIDs(ctx, first)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)

	count, err := repo.CountItems(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountItems(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestItemUpdate(t *testing.T) {
	repo, cleanup := setupItemRepo(t)
	defer cleanup()
	ctx := context.Background()

	item := testItem(404, core.IDFromContent("collection:test"))
	_, err := repo.UpsertItems(ctx, item)
	require.NoError(t, err)

	item.Vector = []float32{0.5, 0.5}
	_, err = repo.UpdateItems(ctx, item)
	require.NoError(t, err)

	got, err := repo.GetItem(ctx, item.StorageID())
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, got.Vector)
}

func TestItemUpdateMissing(t *testing.T) {
	repo, cleanup := setupItemRepo(t)
	defer cleanup()

	item := testItem(505, core.IDFromContent("collection:test"))
	_, err := repo.UpdateItems(context.Background(), item)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestItemGetMissing(t *testing.T) {
	repo, cleanup := setupItemRepo(t)
	defer cleanup()

	_, err := repo.GetItem(context.Background(), core.ID(999))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestItemGetAllItems(t *testing.T) {
	repo, cleanup := setupItemRepo(t)
	defer cleanup()
	ctx := context.Background()

	collectionID := core.IDFromContent("collection:test")
	_, err := repo.UpsertItems(ctx, testItem(1, collectionID), testItem(2, collectionID))
	require.NoError(t, err)

	all, err := repo.GetAllItems(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
