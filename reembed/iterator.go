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

	"github.com/poiesic/boardvec/core"
	"github.com/poiesic/boardvec/storage"
)

const (
	// DefaultBatchSize is the default number of items to process in each batch
	DefaultBatchSize = 100
)

// ItemIterator walks all stored items in batches.
type ItemIterator struct {
	repo      storage.ItemRepository
	batchSize int
}

// NewItemIterator creates a new item iterator.
// batchSize: number of items handed to fn per call (must be > 0)
func NewItemIterator(repo storage.ItemRepository, batchSize int) *ItemIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ItemIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over all items, calling fn for each batch.
// Iteration stops on the first error from fn or when all items are
// processed. Context cancellation is checked between batches.
func (it *ItemIterator) ForEach(ctx context.Context, fn func([]*core.Item) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	items, err := it.repo.GetAllItems(ctx)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		return nil
	}

	for i := 0; i < len(items); i += it.batchSize {
		end := i + it.batchSize
		if end > len(items) {
			end = len(items)
		}

		if err := fn(items[i:end]); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}
