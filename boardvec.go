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


package boardvec

import (
	"io"
	"log/slog"

	"github.com/poiesic/boardvec/ai"
	"github.com/poiesic/boardvec/ai/openai"
	"github.com/poiesic/boardvec/ingestion"
	"github.com/poiesic/boardvec/quota"
	"github.com/poiesic/boardvec/reembed"
	"github.com/poiesic/boardvec/search"
	"github.com/poiesic/boardvec/storage"
	"github.com/poiesic/boardvec/storage/badger"
)

// Database bundles the storage backend, its repositories, the AI
// provider, and the quota engine behind one handle. It is the
// recommended entry point for embedding the library.
type Database struct {
	backend        *badger.Backend
	collectionRepo storage.CollectionRepository
	itemRepo       storage.ItemRepository
	usageRepo      storage.UsageRepository
	provider       ai.AIProvider
	quotaEngine    *quota.Engine
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	inMemory bool
	limits   quota.Limits
}

// WithAIConfig sets the AI service configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithInMemory opens the storage backend in memory, discarding all data
// on close. Intended for tests and throwaway environments.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithQuotaLimits overrides the default quota tier limits.
func WithQuotaLimits(limits quota.Limits) DatabaseOption {
	return func(o *databaseOptions) {
		o.limits = limits
	}
}

// NewDatabase opens the storage backend at filePath and wires up the
// repositories, AI provider, and quota engine.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		limits:   quota.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	collectionRepo := badger.NewCollectionRepository(backend)
	itemRepo := badger.NewItemRepository(backend)
	usageRepo := badger.NewUsageRepository(backend)

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		backend.Close()
		return nil, err
	}

	quotaEngine, err := quota.NewEngine(usageRepo, quota.WithLimits(options.limits))
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:        backend,
		collectionRepo: collectionRepo,
		itemRepo:       itemRepo,
		usageRepo:      usageRepo,
		provider:       provider,
		quotaEngine:    quotaEngine,
		logger:         slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) CollectionRepository() storage.CollectionRepository {
	return db.collectionRepo
}

func (db *Database) ItemRepository() storage.ItemRepository {
	return db.itemRepo
}

func (db *Database) UsageRepository() storage.UsageRepository {
	return db.usageRepo
}

// QuotaEngine returns the shared usage-quota engine.
func (db *Database) QuotaEngine() *quota.Engine {
	return db.quotaEngine
}

// Embedder returns the configured text embedding service.
func (db *Database) Embedder() ai.Embedder {
	return db.provider.Embedder()
}

// ImageAnalyzer returns the configured image analysis service.
func (db *Database) ImageAnalyzer() ai.ImageAnalyzer {
	return db.provider.ImageAnalyzer()
}

// NewOrchestrator creates a sync orchestrator backed by this database.
// The board client and extractor carry their own external endpoints and
// are supplied by the caller.
func (db *Database) NewOrchestrator(board ingestion.BoardClient, extractor ingestion.ContentExtractor, opts ...ingestion.Option) (*ingestion.Orchestrator, error) {
	return ingestion.NewOrchestrator(board, extractor, db.provider.Embedder(), db.collectionRepo, db.itemRepo, db.quotaEngine, opts...)
}

// NewSearcher creates a semantic searcher over this database's items.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.itemRepo, db.provider.Embedder(), opts...)
}

// NewReembedder creates a reembedder over this database's items.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.itemRepo, db.provider.Embedder(), config, progress)
}
