package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/boardvec/ai"
	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/storage"
)

// defaultMinSimilarity is the similarity floor for vector matches.
const defaultMinSimilarity = 0.60

// Searcher provides semantic search over ingested items.
type Searcher struct {
	itemRepository storage.ItemRepository
	embedder       ai.Embedder
	minSimilarity  float32
	logger         *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity overrides the similarity floor for vector matches.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = min
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(itemRepository storage.ItemRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if itemRepository == nil {
		return nil, ErrItemRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		itemRepository: itemRepository,
		embedder:       embedder,
		minSimilarity:  defaultMinSimilarity,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches for items similar to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for items similar to the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	matches, err := s.itemRepository.FindSimilar(ctx, embedding, s.minSimilarity, maxHits)
	if err != nil {
		s.logger.Error("error querying for similar items", "err", err)
		return nil, err
	}

	ids := make([]uint64, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, uint64(match.Item.StorageID()))
	}
	monitor.AfterSemanticSearch(ids)

	// Verbatim boost: an item whose title, description, or content
	// carries every query word ranks above a purely semantic match.
	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		score := match.Score
		searchable := match.Item.Title + " " + match.Item.Description + " " + match.Item.Content
		if containsAllQueryWords(searchable, query) {
			score += 0.3
			monitor.VerbatimHit(match.Item)
		}
		results = append(results, &core.SearchResult{Item: match.Item, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}
