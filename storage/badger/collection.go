package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/storage"
)

// CollectionRepository implements storage.CollectionRepository for BadgerDB.
type CollectionRepository struct {
	backend *Backend
}

var _ storage.CollectionRepository = (*CollectionRepository)(nil)

// NewCollectionRepository creates a new CollectionRepository.
func NewCollectionRepository(backend *Backend) *CollectionRepository {
	return &CollectionRepository{backend: backend}
}

// Close implements storage.Repository. Collections hold no sequences
// or other per-repository resources.
func (r *CollectionRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *CollectionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertCollection inserts or updates a collection keyed by its slug.
func (r *CollectionRepository) UpsertCollection(ctx context.Context, collection *core.Collection) (*core.Collection, error) {
	if err := core.ValidateCollection(collection); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCollectionKey(collection.StorageID())

		existing, err := r.readCollection(tx, key)
		if err != nil {
			return err
		}

		now := stampNow()
		if existing != nil {
			collection.InsertedAt = existing.InsertedAt
		} else {
			collection.InsertedAt = now
		}
		collection.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalCollection(collection)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return collection, err
}

// GetCollection retrieves a collection by storage ID.
func (r *CollectionRepository) GetCollection(ctx context.Context, id core.ID) (*core.Collection, error) {
	var result *core.Collection
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readCollection(tx, makeCollectionKey(id))
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

// GetCollectionBySlug retrieves a collection by its provider slug.
// Collection storage IDs are derived from the slug, so this is a direct
// key lookup rather than an index scan.
func (r *CollectionRepository) GetCollectionBySlug(ctx context.Context, slug string) (*core.Collection, error) {
	lookup := core.Collection{Slug: slug}
	return r.GetCollection(ctx, lookup.StorageID())
}

// readCollection reads and unmarshals a collection, returning nil if the
// key does not exist.
func (r *CollectionRepository) readCollection(tx *badger.Txn, key []byte) (*core.Collection, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var collection *core.Collection
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		collection, unmarshalErr = storage.UnmarshalCollection(val)
		return unmarshalErr
	})
	return collection, err
}
