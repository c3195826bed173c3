package storage

import (
	"context"

	"github.com/poiesic/boardvec/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// CollectionRepository provides operations for managing synced collections.
type CollectionRepository interface {
	Repository

	// UpsertCollection inserts or updates a collection keyed by its slug.
	// InsertedAt is preserved across updates; UpdatedAt is refreshed.
	// Returns the stored collection with timestamps populated.
	UpsertCollection(ctx context.Context, collection *core.Collection) (*core.Collection, error)

	// GetCollection retrieves a collection by storage ID.
	// Returns ErrNotFound if the collection doesn't exist.
	GetCollection(ctx context.Context, id core.ID) (*core.Collection, error)

	// GetCollectionBySlug retrieves a collection by its provider slug.
	// Returns ErrNotFound if the collection doesn't exist.
	GetCollectionBySlug(ctx context.Context, slug string) (*core.Collection, error)
}

// ItemRepository provides operations for managing ingested items.
type ItemRepository interface {
	Repository

	// UpsertItems inserts or updates items keyed by their external
	// identifier. Two items with the same external identifier collapse
	// to one record holding the latest content. InsertedAt is preserved
	// across updates. Returns the items with timestamps populated.
	UpsertItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error)

	// UpdateItems updates existing items in place (used by re-embedding).
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any item doesn't exist.
	UpdateItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error)

	// GetItem retrieves a single item by storage ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, id core.ID) (*core.Item, error)

	// GetItems retrieves multiple items by their storage IDs.
	// Returns only the items that exist (no error for missing items).
	GetItems(ctx context.Context, ids ...core.ID) ([]*core.Item, error)

	// GetAllItems retrieves every stored item. Used by batch
	// re-embedding; not intended for request paths.
	GetAllItems(ctx context.Context) ([]*core.Item, error)

	// ListExternalIDs returns the external identifiers of all items
	// stored for a collection. This is the diff input for incremental
	// sync.
	ListExternalIDs(ctx context.Context, collectionID core.ID) ([]int64, error)

	// CountItems returns the number of items stored for a collection.
	CountItems(ctx context.Context, collectionID core.ID) (int, error)

	// FindSimilar finds items similar to the given vector.
	// Returns items with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)
}

// UsageRepository provides operations for quota records. Quota records
// are owned exclusively by the quota engine; no other component reads
// or writes them.
type UsageRepository interface {
	Repository

	// GetUsage retrieves the usage record for one (identity, collection)
	// pair. Returns ErrNotFound if no usage has been recorded yet.
	GetUsage(ctx context.Context, identityKey string, collectionID core.ID) (*core.UsageRecord, error)

	// AddUsage increments the cumulative counter for one
	// (identity, collection) pair, creating the record on first use.
	// The counter only increases. Returns the updated record.
	AddUsage(ctx context.Context, identityKey string, collectionID core.ID, count int, freeTier bool) (*core.UsageRecord, error)

	// TotalUsage returns the lifetime items processed across all
	// collections for an identity.
	TotalUsage(ctx context.Context, identityKey string) (int, error)

	// ListUsageByPrefix returns all usage records whose identity key
	// starts with the given prefix. Used for dashboard aggregation of
	// anonymous sessions sharing a timestamp prefix, never for
	// enforcement.
	ListUsageByPrefix(ctx context.Context, identityPrefix string) ([]*core.UsageRecord, error)

	// GetMonthlyUsage retrieves a paid account's usage record for one
	// calendar month. Returns ErrNotFound if no usage has been recorded
	// that month.
	GetMonthlyUsage(ctx context.Context, identityKey, month string) (*core.MonthlyUsage, error)

	// AddMonthlyUsage increments a paid account's monthly counter,
	// creating the record on first use in a month. The tier and its
	// ceiling are snapshotted on the record. Returns the updated record.
	AddMonthlyUsage(ctx context.Context, identityKey, month string, count int, tier core.Tier, limit int) (*core.MonthlyUsage, error)

	// GetChannelLimits retrieves the free tier's chat/generation
	// counters for one (identity, collection, month). Returns
	// ErrNotFound if no counters exist yet.
	GetChannelLimits(ctx context.Context, identityKey string, collectionID core.ID, month string) (*core.ChannelLimits, error)

	// AddChannelUsage increments the chat or generation counter,
	// creating the record with the given limits on first use.
	// Returns the updated record.
	AddChannelUsage(ctx context.Context, identityKey string, collectionID core.ID, month string, chatDelta, generationDelta, chatLimit, generationLimit int) (*core.ChannelLimits, error)
}
