// Package reembed provides functionality for reembedding indexed formulas
// with new or updated embedding models.
//
// This package supports batch processing of formulas, progress tracking,
// retry logic with exponential backoff, checkpoint-based resumption, and
// vector normalization to ensure compatibility with cosine similarity
// search.
package reembed
