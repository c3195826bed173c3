// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/boardvec/ai"
	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of items to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of items)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates the reembedding of all items in a store.
type Reembedder struct {
	repo      storage.ItemRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ItemIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.ItemRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewItemIterator(repo, config.BatchSize)

	return &Reembedder{
		repo:      repo,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: processor,
		iterator:  iterator,
	}
}

// Run executes the reembedding operation. Every item in the store is
// reembedded with the configured embedder. Progress is reported to the
// configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	allItems, err := r.repo.GetAllItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to query items: %w", err)
	}

	totalItems := len(allItems)
	if totalItems == 0 {
		fmt.Fprintf(r.progress, "No items found in store (0 items)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d items (batch size: %d)\n",
		totalItems, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, totalItems, r.config.ReportInterval)
	tracker.Start()

	processed := 0

	err = r.iterator.ForEach(ctx, func(items []*core.Item) error {
		if err := r.processor.Process(ctx, items); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(items)
		tracker.Update(processed)

		return nil
	})

	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d items in %v (%.1f items/sec)\n",
		totalItems, elapsed.Round(time.Second), float64(totalItems)/elapsed.Seconds())

	return nil
}
