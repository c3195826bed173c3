package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/storage"
)

// UsageRepository implements storage.UsageRepository for BadgerDB.
type UsageRepository struct {
	backend *Backend
}

var _ storage.UsageRepository = (*UsageRepository)(nil)

// NewUsageRepository creates a new UsageRepository.
func NewUsageRepository(backend *Backend) *UsageRepository {
	return &UsageRepository{backend: backend}
}

// Close implements storage.Repository.
func (r *UsageRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *UsageRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// GetUsage retrieves the usage record for one (identity, collection) pair.
func (r *UsageRepository) GetUsage(ctx context.Context, identityKey string, collectionID core.ID) (*core.UsageRecord, error) {
	var result *core.UsageRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeUsageKey(identityKey, collectionID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalUsageRecord(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// AddUsage increments the cumulative counter for one
// (identity, collection) pair, creating the record on first use.
func (r *UsageRepository) AddUsage(ctx context.Context, identityKey string, collectionID core.ID, count int, freeTier bool) (*core.UsageRecord, error) {
	if count < 0 {
		return nil, storage.ErrInvalidQuery
	}

	var result *core.UsageRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeUsageKey(identityKey, collectionID)
		now := stampNow()

		record := &core.UsageRecord{
			IdentityKey:    identityKey,
			CollectionID:   collectionID,
			FreeTier:       freeTier,
			FirstProcessed: now,
		}

		item, err := tx.Get(key)
		if err == nil {
			if err := item.Value(func(val []byte) error {
				var unmarshalErr error
				record, unmarshalErr = storage.UnmarshalUsageRecord(val)
				return unmarshalErr
			}); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		record.ItemsProcessed += count
		record.LastProcessed = now

		if err := tx.Set(key, storage.MarshalUsageRecord(record)); err != nil {
			return err
		}
		result = record
		return tx.Commit()
	}, true)

	return result, err
}

// TotalUsage returns the lifetime items processed across all
// collections for an identity.
func (r *UsageRepository) TotalUsage(ctx context.Context, identityKey string) (int, error) {
	records, err := r.ListUsageByPrefix(ctx, identityKey)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, record := range records {
		// Prefix scans can overmatch when one identity key is a prefix
		// of another; count exact matches only.
		if record.IdentityKey == identityKey {
			total += record.ItemsProcessed
		}
	}
	return total, nil
}

// ListUsageByPrefix returns all usage records whose identity key starts
// with the given prefix.
func (r *UsageRepository) ListUsageByPrefix(ctx context.Context, identityPrefix string) ([]*core.UsageRecord, error) {
	var results []*core.UsageRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialUsageKey(identityPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.UsageRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalUsageRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetMonthlyUsage retrieves a paid account's usage record for one
// calendar month.
func (r *UsageRepository) GetMonthlyUsage(ctx context.Context, identityKey, month string) (*core.MonthlyUsage, error) {
	var result *core.MonthlyUsage
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMonthlyUsageKey(identityKey, month))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalMonthlyUsage(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// AddMonthlyUsage increments a paid account's monthly counter, creating
// the record on first use in a month.
func (r *UsageRepository) AddMonthlyUsage(ctx context.Context, identityKey, month string, count int, tier core.Tier, limit int) (*core.MonthlyUsage, error) {
	if count < 0 {
		return nil, storage.ErrInvalidQuery
	}

	var result *core.MonthlyUsage
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMonthlyUsageKey(identityKey, month)

		usage := &core.MonthlyUsage{
			IdentityKey: identityKey,
			Month:       month,
		}

		item, err := tx.Get(key)
		if err == nil {
			if err := item.Value(func(val []byte) error {
				var unmarshalErr error
				usage, unmarshalErr = storage.UnmarshalMonthlyUsage(val)
				return unmarshalErr
			}); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		usage.ItemsProcessed += count
		usage.Tier = tier
		usage.Limit = limit
		usage.UpdatedAt = stampNow()

		if err := tx.Set(key, storage.MarshalMonthlyUsage(usage)); err != nil {
			return err
		}
		result = usage
		return tx.Commit()
	}, true)

	return result, err
}

// GetChannelLimits retrieves the free tier's chat/generation counters
// for one (identity, collection, month).
func (r *UsageRepository) GetChannelLimits(ctx context.Context, identityKey string, collectionID core.ID, month string) (*core.ChannelLimits, error) {
	var result *core.ChannelLimits
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChannelLimitsKey(identityKey, collectionID, month))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalChannelLimits(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// AddChannelUsage increments the chat or generation counter, creating
// the record with the given limits on first use.
func (r *UsageRepository) AddChannelUsage(ctx context.Context, identityKey string, collectionID core.ID, month string, chatDelta, generationDelta, chatLimit, generationLimit int) (*core.ChannelLimits, error) {
	if chatDelta < 0 || generationDelta < 0 {
		return nil, storage.ErrInvalidQuery
	}

	var result *core.ChannelLimits
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChannelLimitsKey(identityKey, collectionID, month)

		limits := &core.ChannelLimits{
			IdentityKey:     identityKey,
			CollectionID:    collectionID,
			Month:           month,
			ChatLimit:       chatLimit,
			GenerationLimit: generationLimit,
		}

		item, err := tx.Get(key)
		if err == nil {
			if err := item.Value(func(val []byte) error {
				var unmarshalErr error
				limits, unmarshalErr = storage.UnmarshalChannelLimits(val)
				return unmarshalErr
			}); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		limits.ChatUsed += chatDelta
		limits.GenerationUsed += generationDelta
		limits.UpdatedAt = stampNow()

		if err := tx.Set(key, storage.MarshalChannelLimits(limits)); err != nil {
			return err
		}
		result = limits
		return tx.Commit()
	}, true)

	return result, err
}
