package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/storage"
	"github.com/poiesic/boardvec/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) storage.ItemRepository {
	t.Helper()
	_, itemRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return itemRepo
}

func seedItems(t *testing.T, repo storage.ItemRepository, n int) {
	t.Helper()
	items := make([]*core.Item, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, &core.Item{
			ExternalID:   int64(i),
			CollectionID: core.IDFromContent("collection:reembed-test"),
			Title:        fmt.Sprintf("item %d", i),
			Type:         core.ContentTypeText,
			Content:      fmt.Sprintf("content for item %d", i),
			Vector:       []float32{1, 0, 0},
		})
	}
	_, err := repo.UpsertItems(context.Background(), items...)
	require.NoError(t, err)
}

func TestItemIterator_Basic(t *testing.T) {
	repo := setupTestRepo(t)
	seedItems(t, repo, 3)

	iter := NewItemIterator(repo, 2)
	count := 0
	batches := 0

	err := iter.ForEach(context.Background(), func(items []*core.Item) error {
		batches++
		count += len(items)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, count, "should iterate all 3 items")
	assert.Equal(t, 2, batches, "batch size 2 over 3 items gives 2 batches")
}

func TestItemIterator_EmptyStore(t *testing.T) {
	repo := setupTestRepo(t)

	iter := NewItemIterator(repo, 10)
	called := false

	err := iter.ForEach(context.Background(), func(items []*core.Item) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.False(t, called, "fn should not be called for an empty store")
}

func TestItemIterator_StopsOnError(t *testing.T) {
	repo := setupTestRepo(t)
	seedItems(t, repo, 10)

	iter := NewItemIterator(repo, 3)
	batchErr := errors.New("batch failed")
	batches := 0

	err := iter.ForEach(context.Background(), func(items []*core.Item) error {
		batches++
		if batches == 2 {
			return batchErr
		}
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, batchErr)
	assert.Equal(t, 2, batches, "should stop after the failing batch")
}

func TestItemIterator_ContextCanceled(t *testing.T) {
	repo := setupTestRepo(t)
	seedItems(t, repo, 10)

	ctx, cancel := context.WithCancel(context.Background())
	iter := NewItemIterator(repo, 2)
	batches := 0

	err := iter.ForEach(ctx, func(items []*core.Item) error {
		batches++
		if batches == 1 {
			cancel()
		}
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, batches, "should stop after the batch during which cancellation happened")
}

func TestItemIterator_DefaultBatchSize(t *testing.T) {
	repo := setupTestRepo(t)
	iter := NewItemIterator(repo, 0)
	assert.Equal(t, DefaultBatchSize, iter.batchSize)

	iter = NewItemIterator(repo, -5)
	assert.Equal(t, DefaultBatchSize, iter.batchSize)
}
