package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/boardvec/ai/mock"
	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/quota"
	"github.com/poiesic/boardvec/storage"
	"github.com/poiesic/boardvec/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBoard is a canned content board. FetchAllItems returns fresh
// copies so one sync's mutations never leak into the next.
type mockBoard struct {
	collection         *core.Collection
	items              []*core.Item
	fetchCollectionErr error

	mu          sync.Mutex
	detailCalls int
}

func (m *mockBoard) FetchCollection(ctx context.Context, slug string) (*core.Collection, error) {
	if m.fetchCollectionErr != nil {
		return nil, m.fetchCollectionErr
	}
	col := *m.collection
	return &col, nil
}

func (m *mockBoard) FetchAllItems(ctx context.Context, slug string) ([]*core.Item, error) {
	out := make([]*core.Item, len(m.items))
	for i, item := range m.items {
		copied := *item
		out[i] = &copied
	}
	return out, nil
}

func (m *mockBoard) FetchItemDetails(ctx context.Context, items []*core.Item, typeFilter core.ContentType) ([]*core.Item, error) {
	m.mu.Lock()
	m.detailCalls++
	m.mu.Unlock()
	return nil, nil
}

// mockExtractor wraps a function; the default passes item content
// through like the text strategy.
type mockExtractor struct {
	extractFunc func(ctx context.Context, item *core.Item) (string, error)
	calls       int
}

func (m *mockExtractor) Extract(ctx context.Context, item *core.Item) (string, error) {
	m.calls++
	if m.extractFunc != nil {
		return m.extractFunc(ctx, item)
	}
	return item.Content, nil
}

// recordingMonitor captures the progress stream for assertions.
type recordingMonitor struct {
	started  string
	events   []Progress
	skipped  []int64
	finished *SyncResult
}

func (r *recordingMonitor) Start(slug string)             { r.started = slug }
func (r *recordingMonitor) Progress(p Progress)           { r.events = append(r.events, p) }
func (r *recordingMonitor) ItemSkipped(id int64, _ error) { r.skipped = append(r.skipped, id) }
func (r *recordingMonitor) Finish(result *SyncResult)     { r.finished = result }

func makeBoard(n int) *mockBoard {
	col := &core.Collection{ExternalID: 1, Title: "Test Board", Slug: "test-board"}
	items := make([]*core.Item, n)
	for i := range items {
		items[i] = &core.Item{
			ExternalID:   int64(i + 1),
			CollectionID: col.StorageID(),
			Title:        fmt.Sprintf("item %d", i+1),
			Type:         core.ContentTypeText,
			Content:      fmt.Sprintf("Content body for item %d with enough words to embed meaningfully.", i+1),
		}
	}
	return &mockBoard{collection: col, items: items}
}

type testEnv struct {
	orchestrator *Orchestrator
	board        *mockBoard
	extractor    *mockExtractor
	embedder     *mock.MockEmbedder
	collections  storage.CollectionRepository
	items        storage.ItemRepository
	usage        storage.UsageRepository
}

func newTestEnv(t *testing.T, board *mockBoard) *testEnv {
	t.Helper()

	collectionRepo, itemRepo, usageRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	engine, err := quota.NewEngine(usageRepo)
	require.NoError(t, err)

	extractor := &mockExtractor{}
	embedder := mock.NewMockEmbedder()

	orchestrator, err := NewOrchestrator(board, extractor, embedder,
		collectionRepo, itemRepo, engine, WithEmbedDelay(0))
	require.NoError(t, err)
	t.Cleanup(orchestrator.Release)

	return &testEnv{
		orchestrator: orchestrator,
		board:        board,
		extractor:    extractor,
		embedder:     embedder,
		collections:  collectionRepo,
		items:        itemRepo,
		usage:        usageRepo,
	}
}

var syncIdentity = core.Identity{AccountID: "42"}

func TestNewOrchestratorValidation(t *testing.T) {
	_, _, usageRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	engine, err := quota.NewEngine(usageRepo)
	require.NoError(t, err)

	_, err = NewOrchestrator(nil, &mockExtractor{}, mock.NewMockEmbedder(), nil, nil, engine)
	assert.ErrorIs(t, err, ErrBoardClientRequired)
}

func TestSyncFirstRun(t *testing.T) {
	env := newTestEnv(t, makeBoard(10))
	ctx := context.Background()

	result, err := env.orchestrator.Sync(ctx, "test-board", syncIdentity, core.TierFree, nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 10, result.TotalNewItems)
	assert.Equal(t, 10, result.ProcessedCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.Empty(t, result.Errors)
	assert.Greater(t, result.Duration.Nanoseconds(), int64(0))

	// Collection stored with LastSynced set.
	col, err := env.collections.GetCollectionBySlug(ctx, "test-board")
	require.NoError(t, err)
	assert.False(t, col.LastSynced.IsZero())

	// Every stored item carries its representative embedding.
	count, err := env.items.CountItems(ctx, col.StorageID())
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	stored, err := env.items.GetItem(ctx, core.IDFromExternal(1))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Vector)
	assert.NotEmpty(t, stored.Content)

	// Quota consumed by actual count.
	usage, err := env.usage.GetUsage(ctx, syncIdentity.Key(), col.StorageID())
	require.NoError(t, err)
	assert.Equal(t, 10, usage.ItemsProcessed)
}

func TestSyncIdempotent(t *testing.T) {
	env := newTestEnv(t, makeBoard(10))
	ctx := context.Background()

	_, err := env.orchestrator.Sync(ctx, "test-board", syncIdentity, core.TierFree, nil)
	require.NoError(t, err)
	firstCalls := env.extractor.calls

	result, err := env.orchestrator.Sync(ctx, "test-board", syncIdentity, core.TierFree, nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ProcessedCount)
	assert.Equal(t, 0, result.TotalNewItems)
	assert.Equal(t, 10, result.SkippedCount)
	assert.Empty(t, result.Errors)

	// No extraction or embedding re-ran for stored items.
	assert.Equal(t, firstCalls, env.extractor.calls)

	col, err := env.collections.GetCollectionBySlug(ctx, "test-board")
	require.NoError(t, err)
	count, err := env.items.CountItems(ctx, col.StorageID())
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestSyncPicksUpNewItems(t *testing.T) {
	board := makeBoard(5)
	env := newTestEnv(t, board)
	ctx := context.Background()

	_, err := env.orchestrator.Sync(ctx, "test-board", syncIdentity, core.TierFree, nil)
	require.NoError(t, err)

	// Two more items appear upstream.
	board.items = append(board.items,
		&core.Item{ExternalID: 6, CollectionID: board.collection.StorageID(), Type: core.ContentTypeText, Content: "Fresh content number six arrives."},
		&core.Item{ExternalID: 7, CollectionID: board.collection.StorageID(), Type: core.ContentTypeText, Content: "Fresh content number seven arrives."},
	)

	result, err := env.orchestrator.Sync(ctx, "test-board", syncIdentity, core.TierFree, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalNewItems)
	assert.Equal(t, 2, result.ProcessedCount)
	assert.Equal(t, 5, result.SkippedCount)
}

func TestSyncFreeTierCappedAtChannelLimit(t *testing.T) {
	env := newTestEnv(t, makeBoard(120))
	ctx := context.Background()

	result, err := env.orchestrator.Sync(ctx, "test-board", syncIdentity, core.TierFree, nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 120, result.TotalNewItems)
	assert.Equal(t, 25, result.ProcessedCount)

	col, err := env.collections.GetCollectionBySlug(ctx, "test-board")
	require.NoError(t, err)
	count, err := env.items.CountItems(ctx, col.StorageID())
	require.NoError(t, err)
	assert.Equal(t, 25, count)
}

func TestSyncExtractionFailuresIsolated(t *testing.T) {
	env := newTestEnv(t, makeBoard(10))
	env.extractor.extractFunc = func(ctx context.Context, item *core.Item) (string, error) {
		if item.ExternalID == 3 || item.ExternalID == 7 {
			return "", errors.New("reader service down")
		}
		return item.Content, nil
	}

	monitor := &recordingMonitor{}
	result, err := env.orchestrator.Sync(context.Background(), "test-board", syncIdentity, core.TierFree, monitor)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 8, result.ProcessedCount)
	assert.Len(t, result.Errors, 2)
	assert.ElementsMatch(t, []int64{3, 7}, monitor.skipped)

	// Quota charged for the 8 actually stored, not the 10 requested.
	col, err := env.collections.GetCollectionBySlug(context.Background(), "test-board")
	require.NoError(t, err)
	usage, err := env.usage.GetUsage(context.Background(), syncIdentity.Key(), col.StorageID())
	require.NoError(t, err)
	assert.Equal(t, 8, usage.ItemsProcessed)
}

func TestSyncEmbeddingFailureIsolated(t *testing.T) {
	env := newTestEnv(t, makeBoard(5))
	env.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "item 2") {
			return nil, errors.New("embedding provider overloaded")
		}
		return []float32{0.1, 0.2, 0.3}, nil
	}

	result, err := env.orchestrator.Sync(context.Background(), "test-board", syncIdentity, core.TierFree, nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 4, result.ProcessedCount)
	assert.Len(t, result.Errors, 1)

	// The failed item was not partially stored.
	_, err = env.items.GetItem(context.Background(), core.IDFromExternal(2))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSyncAllExtractionsFailed(t *testing.T) {
	env := newTestEnv(t, makeBoard(4))
	env.extractor.extractFunc = func(ctx context.Context, item *core.Item) (string, error) {
		return "", errors.New("total outage")
	}

	result, err := env.orchestrator.Sync(context.Background(), "test-board", syncIdentity, core.TierFree, nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.ProcessedCount)
	assert.Len(t, result.Errors, 4)
}

func TestSyncQuotaExhausted(t *testing.T) {
	env := newTestEnv(t, makeBoard(5))
	ctx := context.Background()

	// Burn the whole lifetime budget on other collections.
	engine, err := quota.NewEngine(env.usage)
	require.NoError(t, err)
	require.NoError(t, engine.RecordUsage(ctx, syncIdentity, core.TierFree, core.IDFromContent("collection:a"), 25))
	require.NoError(t, engine.RecordUsage(ctx, syncIdentity, core.TierFree, core.IDFromContent("collection:b"), 25))

	result, err := env.orchestrator.Sync(ctx, "test-board", syncIdentity, core.TierFree, nil)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "50")

	// Nothing was extracted or stored.
	assert.Equal(t, 0, env.extractor.calls)
}

func TestSyncCollectionNotFound(t *testing.T) {
	board := makeBoard(0)
	board.fetchCollectionErr = errors.New("channel not found")
	env := newTestEnv(t, board)

	result, err := env.orchestrator.Sync(context.Background(), "missing", syncIdentity, core.TierFree, nil)
	require.Error(t, err)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
}

func TestSyncProgressStream(t *testing.T) {
	env := newTestEnv(t, makeBoard(6))
	monitor := &recordingMonitor{}

	result, err := env.orchestrator.Sync(context.Background(), "test-board", syncIdentity, core.TierFree, monitor)
	require.NoError(t, err)

	assert.Equal(t, "test-board", monitor.started)
	require.NotNil(t, monitor.finished)
	assert.Equal(t, result, monitor.finished)

	// Stages appear in pipeline order, percent never regresses, and
	// every event carries a message.
	stageRank := map[Stage]int{
		StageFetching: 0, StageExtracting: 1, StageEmbedding: 2, StageStoring: 3, StageComplete: 4,
	}
	lastRank, lastPercent := 0, 0
	for _, ev := range monitor.events {
		rank, ok := stageRank[ev.Stage]
		require.True(t, ok, "unexpected stage %s", ev.Stage)
		assert.GreaterOrEqual(t, rank, lastRank)
		assert.GreaterOrEqual(t, ev.Percent, lastPercent)
		assert.NotEmpty(t, ev.Message)
		lastRank, lastPercent = rank, ev.Percent
	}

	last := monitor.events[len(monitor.events)-1]
	assert.Equal(t, StageComplete, last.Stage)
	assert.Equal(t, 100, last.Percent)
}

func TestSyncUpToDateShortCircuits(t *testing.T) {
	env := newTestEnv(t, makeBoard(3))
	ctx := context.Background()

	_, err := env.orchestrator.Sync(ctx, "test-board", syncIdentity, core.TierFree, nil)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	result, err := env.orchestrator.Sync(ctx, "test-board", syncIdentity, core.TierFree, monitor)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ProcessedCount)
	assert.Equal(t, 3, result.SkippedCount)

	last := monitor.events[len(monitor.events)-1]
	assert.Equal(t, StageComplete, last.Stage)
}

func TestSyncCancelledBetweenItems(t *testing.T) {
	env := newTestEnv(t, makeBoard(5))

	ctx, cancel := context.WithCancel(context.Background())
	env.extractor.extractFunc = func(_ context.Context, item *core.Item) (string, error) {
		if item.ExternalID == 2 {
			cancel()
		}
		return item.Content, nil
	}

	result, err := env.orchestrator.Sync(ctx, "test-board", syncIdentity, core.TierFree, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, result.Success)
}

func TestSyncDetailFetchesAllTypes(t *testing.T) {
	env := newTestEnv(t, makeBoard(2))

	_, err := env.orchestrator.Sync(context.Background(), "test-board", syncIdentity, core.TierFree, nil)
	require.NoError(t, err)

	assert.Equal(t, len(detailTypes), env.board.detailCalls)
}
