// Package ingestion orchestrates the sync pipeline for one collection.
//
// A sync moves through strictly ordered stages: fetching (resolve the
// collection, page through its items, enrich them with detail
// fetches), extracting (type-specific text extraction per item),
// embedding (chunk and vectorize), and storing, ending in complete or
// error. Re-running a sync on an unchanged collection is an idempotent
// no-op: the diff against stored external IDs yields nothing to
// process.
//
// The quota engine gates the batch before extraction begins and is
// charged after storing with the count actually ingested. Per-item
// failures at any stage are collected and skipped, never fatal;
// stage-level failures abort the sync.
package ingestion
