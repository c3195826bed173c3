package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/storage"
)

// ItemRepository implements storage.ItemRepository for BadgerDB.
type ItemRepository struct {
	backend *Backend
}

var _ storage.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(backend *Backend) *ItemRepository {
	return &ItemRepository{backend: backend}
}

// Close implements storage.Repository.
func (r *ItemRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ItemRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// FindSimilar delegates to the backend.
func (r *ItemRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// UpsertItems inserts or updates items keyed by their external
// identifier. An item synced again at a later time overwrites the
// earlier record rather than duplicating it.
func (r *ItemRepository) UpsertItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error) {
	for _, item := range items {
		if err := core.ValidateItem(item); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := stampNow()
		for _, item := range items {
			key := makeItemKey(item.StorageID())

			existing, err := r.readItem(tx, key)
			if err != nil {
				return err
			}

			if existing != nil {
				item.InsertedAt = existing.InsertedAt
				// Membership index entry from a previous collection is
				// removed if the item moved.
				if existing.CollectionID != item.CollectionID {
					oldIndex := makeItemCollectionKey(existing.CollectionID, item.StorageID())
					if err := tx.Delete(oldIndex); err != nil {
						return err
					}
				}
			} else {
				item.InsertedAt = now
			}
			item.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalItem(item)); err != nil {
				return err
			}

			indexKey := makeItemCollectionKey(item.CollectionID, item.StorageID())
			if err := tx.Set(indexKey, storage.MarshalExternalID(item.ExternalID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return items, err
}

// UpdateItems updates existing items in place.
func (r *ItemRepository) UpdateItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, item := range items {
			key := makeItemKey(item.StorageID())

			existing, err := r.readItem(tx, key)
			if err != nil {
				return err
			}
			if existing == nil {
				return storage.ErrNotFound
			}

			item.InsertedAt = existing.InsertedAt
			item.UpdatedAt = stampNow()

			if err := tx.Set(key, storage.MarshalItem(item)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return items, err
}

// GetItem retrieves a single item by storage ID.
func (r *ItemRepository) GetItem(ctx context.Context, id core.ID) (*core.Item, error) {
	var result *core.Item
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readItem(tx, makeItemKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetItems retrieves multiple items by their storage IDs.
// Missing items are skipped rather than reported as errors.
func (r *ItemRepository) GetItems(ctx context.Context, ids ...core.ID) ([]*core.Item, error) {
	var result []*core.Item
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := r.readItem(tx, makeItemKey(id))
			if err != nil {
				return err
			}
			if item != nil {
				result = append(result, item)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetAllItems retrieves every stored item.
func (r *ItemRepository) GetAllItems(ctx context.Context) ([]*core.Item, error) {
	var results []*core.Item
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var item *core.Item
			err := iter.Item().Value(func(val []byte) error {
				var err error
				item, err = storage.UnmarshalItem(val)
				return err
			})
			if err != nil {
				return err
			}
			if item != nil {
				results = append(results, item)
			}
		}
		return nil
	}, false)
	return results, err
}

// ListExternalIDs returns the external identifiers of all items stored
// for a collection, read from the membership index.
func (r *ItemRepository) ListExternalIDs(ctx context.Context, collectionID core.ID) ([]int64, error) {
	var results []int64
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialItemCollectionKey(collectionID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var externalID int64
			err := iter.Item().Value(func(val []byte) error {
				var err error
				externalID, err = storage.UnmarshalExternalID(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, externalID)
		}
		return nil
	}, false)
	return results, err
}

// CountItems returns the number of items stored for a collection.
func (r *ItemRepository) CountItems(ctx context.Context, collectionID core.ID) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialItemCollectionKey(collectionID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// readItem reads and unmarshals an item, returning nil if the key does
// not exist.
func (r *ItemRepository) readItem(tx *badger.Txn, key []byte) (*core.Item, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var result *core.Item
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		result, unmarshalErr = storage.UnmarshalItem(val)
		return unmarshalErr
	})
	return result, err
}
