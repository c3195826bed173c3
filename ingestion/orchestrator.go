package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/boardvec/ai"
	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/storage"
)

// detailTypes are the content types whose detail fetches run
// concurrently with each other. They partition the item set, so the
// goroutines never touch the same item.
var detailTypes = []core.ContentType{
	core.ContentTypeDocument,
	core.ContentTypeImage,
	core.ContentTypeVideo,
	core.ContentTypeAttachment,
	core.ContentTypeText,
}

// SyncResult is the terminal outcome of one sync invocation.
type SyncResult struct {
	Success        bool
	TotalNewItems  int
	ProcessedCount int
	SkippedCount   int
	Errors         []string
	Duration       time.Duration
}

// Orchestrator drives the end-to-end pipeline for one collection:
// fetch, diff against stored items, extract, embed, store. One
// orchestrator serves concurrent syncs of different collections; the
// store is the only shared state.
type Orchestrator struct {
	board       BoardClient
	extractor   ContentExtractor
	embedProc   *embeddingProcessor
	collections storage.CollectionRepository
	items       storage.ItemRepository
	quota       QuotaGate
	detailPool  *ants.Pool
	logger      *slog.Logger
	chunkSize   int
	embedDelay  time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithChunkSize overrides the per-chunk character ceiling.
func WithChunkSize(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be positive")
		}
		o.chunkSize = size
		return nil
	}
}

// WithEmbedDelay overrides the delay between sequential embedding
// calls. Tests set this to zero.
func WithEmbedDelay(delay time.Duration) Option {
	return func(o *Orchestrator) error {
		if delay < 0 {
			return fmt.Errorf("embed delay must be non-negative")
		}
		o.embedDelay = delay
		return nil
	}
}

// NewOrchestrator creates a sync orchestrator. All collaborators are
// injected and validated here, once, at startup.
func NewOrchestrator(
	board BoardClient,
	extractor ContentExtractor,
	embedder ai.Embedder,
	collections storage.CollectionRepository,
	items storage.ItemRepository,
	quotaGate QuotaGate,
	opts ...Option,
) (*Orchestrator, error) {
	if board == nil {
		return nil, ErrBoardClientRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if collections == nil {
		return nil, ErrCollectionRepositoryRequired
	}
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if quotaGate == nil {
		return nil, ErrQuotaEngineRequired
	}

	detailPool, err := ants.NewPool(len(detailTypes))
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		board:       board,
		extractor:   extractor,
		collections: collections,
		items:       items,
		quota:       quotaGate,
		detailPool:  detailPool,
		logger:      slog.Default().With("component", "sync"),
		chunkSize:   defaultChunkSize,
		embedDelay:  defaultEmbedDelay,
	}

	for _, opt := range opts {
		if optErr := opt(o); optErr != nil {
			o.Release()
			return nil, optErr
		}
	}

	embedProc, err := newEmbeddingProcessor(embedder, o.chunkSize, o.embedDelay, o.logger)
	if err != nil {
		o.Release()
		return nil, err
	}
	o.embedProc = embedProc

	return o, nil
}

// Release frees the detail-fetch worker pool. The orchestrator should
// not be used after calling Release.
func (o *Orchestrator) Release() {
	if o.detailPool != nil {
		o.detailPool.Release()
	}
}

// Sync runs the full pipeline for one collection slug on behalf of an
// identity. Progress events stream to monitor; pass nil to discard
// them. Cancellation is honored between items at every stage boundary.
//
// Per-item failures are collected into the result's Errors and never
// abort the sync. Stage-level failures (unresolvable collection,
// quota rejection) abort with Success=false and a non-nil error.
func (o *Orchestrator) Sync(ctx context.Context, slug string, identity core.Identity, tier core.Tier, monitor SyncMonitor) (*SyncResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	start := time.Now()
	result := &SyncResult{}
	monitor.Start(slug)

	fail := func(err error) (*SyncResult, error) {
		result.Errors = append(result.Errors, err.Error())
		result.Duration = time.Since(start)
		monitor.Progress(Progress{Stage: StageError, Message: err.Error(), Percent: 100})
		monitor.Finish(result)
		o.logger.Error("sync failed", "slug", slug, "err", err)
		return result, err
	}

	// Fetching: 0-30.
	monitor.Progress(Progress{Stage: StageFetching, Message: "resolving collection", Percent: 0})
	collection, err := o.board.FetchCollection(ctx, slug)
	if err != nil {
		return fail(fmt.Errorf("failed to resolve collection %q: %w", slug, err))
	}
	collection.LastSynced = time.Now().UTC()

	stored, err := o.collections.UpsertCollection(ctx, collection)
	if err != nil {
		return fail(fmt.Errorf("failed to store collection: %w", err))
	}
	collectionID := stored.StorageID()

	monitor.Progress(Progress{Stage: StageFetching, Message: "fetching items", Percent: 10})
	items, err := o.board.FetchAllItems(ctx, slug)
	if err != nil {
		return fail(fmt.Errorf("failed to fetch items: %w", err))
	}

	monitor.Progress(Progress{
		Stage: StageFetching, Message: "fetching item details", Percent: 20,
		TotalItems: len(items),
	})
	o.fetchDetails(ctx, items)

	existing, err := o.items.ListExternalIDs(ctx, collectionID)
	if err != nil {
		return fail(fmt.Errorf("failed to list stored items: %w", err))
	}
	newItems := diffItems(items, existing)
	result.TotalNewItems = len(newItems)
	result.SkippedCount = len(items) - len(newItems)

	if len(newItems) == 0 {
		result.Success = true
		result.Duration = time.Since(start)
		monitor.Progress(Progress{
			Stage: StageComplete, Message: "collection is up to date", Percent: 100,
			TotalItems: len(items),
		})
		monitor.Finish(result)
		return result, nil
	}

	check, err := o.quota.CheckUsageLimit(ctx, identity, tier, collectionID, len(newItems))
	if err != nil {
		return fail(fmt.Errorf("quota check failed: %w", err))
	}
	if !check.CanProcess {
		return fail(fmt.Errorf("%w: %s", ErrQuotaExceeded, check.Message))
	}
	if check.CappedCount < len(newItems) {
		o.logger.Info("sync capped by quota",
			"slug", slug, "requested", len(newItems), "capped", check.CappedCount)
		newItems = newItems[:check.CappedCount]
	}

	monitor.Progress(Progress{
		Stage: StageFetching, Message: fmt.Sprintf("%d new items to process", len(newItems)),
		Percent: fetchingEnd, TotalItems: len(newItems),
	})

	// Extracting: 30-70. Strictly sequential; failures skip the item.
	type extractedItem struct {
		item    *core.Item
		content string
	}
	ready := make([]extractedItem, 0, len(newItems))
	for i, item := range newItems {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		content, extractErr := o.extractor.Extract(ctx, item)
		if extractErr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("block %d: %v", item.ExternalID, extractErr))
			monitor.ItemSkipped(item.ExternalID, extractErr)
		} else {
			ready = append(ready, extractedItem{item: item, content: content})
		}

		monitor.Progress(Progress{
			Stage:          StageExtracting,
			Message:        fmt.Sprintf("extracted %d of %d items", i+1, len(newItems)),
			Percent:        stageProgress(fetchingEnd, extractingEnd, i+1, len(newItems)),
			TotalItems:     len(newItems),
			ProcessedItems: i + 1,
		})
	}

	// Embedding and storing: 70-95. An item with any failed chunk is
	// skipped whole, never partially stored.
	processed := 0
	for i, ex := range ready {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		chunks, embedErr := o.embedProc.embed(ctx, ex.content)
		if embedErr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("block %d: %v", ex.item.ExternalID, embedErr))
			monitor.ItemSkipped(ex.item.ExternalID, embedErr)
		} else {
			ex.item.Content = ex.content
			ex.item.Vector = chunks[0].Vector
			if _, upsertErr := o.items.UpsertItems(ctx, ex.item); upsertErr != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("block %d: %v", ex.item.ExternalID, upsertErr))
				monitor.ItemSkipped(ex.item.ExternalID, upsertErr)
			} else {
				processed++
			}
		}

		monitor.Progress(Progress{
			Stage:          StageEmbedding,
			Message:        fmt.Sprintf("embedded %d of %d items", i+1, len(ready)),
			Percent:        stageProgress(extractingEnd, embeddingEnd, i+1, len(ready)),
			TotalItems:     len(ready),
			ProcessedItems: i + 1,
		})
	}
	result.ProcessedCount = processed

	// Storing: 95-100. Quota is consumed by what was actually stored.
	monitor.Progress(Progress{Stage: StageStoring, Message: "recording usage", Percent: embeddingEnd})
	if recordErr := o.quota.RecordUsage(ctx, identity, tier, collectionID, processed); recordErr != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("usage recording: %v", recordErr))
		o.logger.Error("failed to record usage", "slug", slug, "err", recordErr)
	}

	result.Success = processed > 0 || len(result.Errors) == 0
	result.Duration = time.Since(start)

	monitor.Progress(Progress{
		Stage:   StageComplete,
		Message: fmt.Sprintf("processed %d of %d new items", processed, result.TotalNewItems),
		Percent: 100, TotalItems: result.TotalNewItems, ProcessedItems: processed,
	})
	monitor.Finish(result)

	o.logger.Info("sync complete", "slug", slug,
		"processed", processed, "new", result.TotalNewItems,
		"skipped", result.SkippedCount, "errors", len(result.Errors),
		"duration", result.Duration)
	return result, nil
}

// fetchDetails runs the per-type detail fetches concurrently. The
// types partition the item set, so each goroutine mutates a disjoint
// subset. A failed type is logged and its items keep list data.
func (o *Orchestrator) fetchDetails(ctx context.Context, items []*core.Item) {
	var wg sync.WaitGroup
	for _, t := range detailTypes {
		wg.Add(1)
		t := t
		if err := o.detailPool.Submit(func() {
			defer wg.Done()
			if _, err := o.board.FetchItemDetails(ctx, items, t); err != nil {
				o.logger.Warn("detail fetch failed for type", "type", t.String(), "err", err)
			}
		}); err != nil {
			wg.Done()
			o.logger.Warn("failed to submit detail fetch", "type", t.String(), "err", err)
		}
	}
	wg.Wait()
}

// diffItems returns the items whose external IDs are not yet stored.
func diffItems(items []*core.Item, existing []int64) []*core.Item {
	seen := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		seen[id] = struct{}{}
	}

	var fresh []*core.Item
	for _, item := range items {
		if _, ok := seen[item.ExternalID]; !ok {
			fresh = append(fresh, item)
		}
	}
	return fresh
}
