package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/boardvec/ai"
	"github.com/poiesic/boardvec/core"
)

// defaultEmbedDelay spaces sequential embedding calls so a long item
// does not hammer the provider.
const defaultEmbedDelay = 100 * time.Millisecond

// embeddingProcessor converts extracted text into chunk vectors. Calls
// are strictly sequential with a fixed delay between them; any single
// failure aborts the whole item so a partially embedded item is never
// stored.
type embeddingProcessor struct {
	embedder  ai.Embedder
	chunkSize int
	delay     time.Duration
	logger    *slog.Logger
}

func newEmbeddingProcessor(embedder ai.Embedder, chunkSize int, delay time.Duration, logger *slog.Logger) (*embeddingProcessor, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		embedder:  embedder,
		chunkSize: chunkSize,
		delay:     delay,
		logger:    logger.With("processor", "embeddings"),
	}, nil
}

// embed chunks the content and generates one vector per chunk. The
// first chunk's vector is the item's representative embedding.
func (ep *embeddingProcessor) embed(ctx context.Context, content string) ([]core.Chunk, error) {
	chunks := ChunkText(content, ep.chunkSize)
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	for i := range chunks {
		if i > 0 && ep.delay > 0 {
			timer := time.NewTimer(ep.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		vector, err := ep.embedder.EmbedText(ctx, chunks[i].Text)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d/%d failed: %w", i+1, len(chunks), err)
		}
		chunks[i].Vector = vector
	}

	ep.logger.Debug("embedded content", "chunks", len(chunks))
	return chunks, nil
}
