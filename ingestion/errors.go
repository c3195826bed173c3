package ingestion

import "errors"

var (
	// ErrBoardClientRequired is returned when a board client is not provided.
	ErrBoardClientRequired = errors.New("board client required")

	// ErrExtractorRequired is returned when an extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrCollectionRepositoryRequired is returned when a collection repository is not provided.
	ErrCollectionRepositoryRequired = errors.New("collection repository required")

	// ErrItemRepositoryRequired is returned when an item repository is not provided.
	ErrItemRepositoryRequired = errors.New("item repository required")

	// ErrQuotaEngineRequired is returned when a quota engine is not provided.
	ErrQuotaEngineRequired = errors.New("quota engine required")

	// ErrQuotaExceeded is returned when the quota check rejects a sync
	// outright. The sync ends before extraction begins.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrNoChunks is returned when extracted content produced no
	// embeddable chunks.
	ErrNoChunks = errors.New("no chunks produced")
)
