// Package reembed regenerates embeddings for every stored item, for use
// after switching or upgrading the embedding model.
//
// Items are processed in batches with progress reporting, retry with
// exponential backoff around the embedding API, and vector normalization
// so stored vectors stay compatible with dot-product similarity search.
package reembed
