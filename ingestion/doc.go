// Package ingestion provides pipeline orchestration for indexing formulas.
//
// The Pipeline type manages the ingestion workflow, including:
//   - Parsing JSONL corpus files
//   - Storing formulas with their structural fingerprints
//   - Generating embeddings asynchronously
//   - Building path postings and concept assignments asynchronously
//
// Processing is performed concurrently using worker pools to maximize
// throughput. Errors during async processing are logged but do not fail
// the ingestion operation. Each processor persists a checkpoint so
// interrupted runs can resume.
package ingestion
