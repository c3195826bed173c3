package ingestion

import (
	"context"

	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/quota"
)

// BoardClient is the slice of the provider client the orchestrator
// needs. Satisfied by provider.Client.
type BoardClient interface {
	// FetchCollection resolves a collection by slug.
	FetchCollection(ctx context.Context, slug string) (*core.Collection, error)

	// FetchAllItems retrieves every item in the collection.
	FetchAllItems(ctx context.Context, slug string) ([]*core.Item, error)

	// FetchItemDetails enriches items of one content type in place.
	FetchItemDetails(ctx context.Context, items []*core.Item, typeFilter core.ContentType) ([]*core.Item, error)
}

// ContentExtractor produces text content for one item.
// Satisfied by extract.Extractor.
type ContentExtractor interface {
	Extract(ctx context.Context, item *core.Item) (string, error)
}

// QuotaGate is the slice of the quota engine the orchestrator uses.
// Satisfied by quota.Engine.
type QuotaGate interface {
	// CheckUsageLimit is the read-only pre-flight check.
	CheckUsageLimit(ctx context.Context, identity core.Identity, tier core.Tier, collectionID core.ID, requestedCount int) (*quota.CheckResult, error)

	// RecordUsage consumes quota for items actually stored.
	RecordUsage(ctx context.Context, identity core.Identity, tier core.Tier, collectionID core.ID, count int) error
}
