package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/boardvec/ai"
	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/storage"
)

// BatchProcessor handles embedding generation for batches of items.
type BatchProcessor struct {
	repo           storage.ItemRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.ItemRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of items and updates them in
// the store. Vectors are normalized after embedding so they stay
// compatible with dot-product similarity.
func (bp *BatchProcessor) Process(ctx context.Context, items []*core.Item) error {
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = embeddingText(item)
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(items) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(items), len(embeddings))
	}

	for i := range items {
		items[i].Vector = NormalizeVector(embeddings[i])
	}

	_, err = bp.repo.UpdateItems(ctx, items...)
	if err != nil {
		return fmt.Errorf("failed to update items: %w", err)
	}

	return nil
}

// embeddingText picks the text an item is embedded from. Extracted
// content is preferred; items that never got content fall back to their
// title and description so they still get a usable vector.
func embeddingText(item *core.Item) string {
	if item.Content != "" {
		return item.Content
	}
	if item.Description != "" {
		return item.Title + " " + item.Description
	}
	return item.Title
}
