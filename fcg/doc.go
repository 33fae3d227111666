// Package fcg maintains the formula concept graph: deterministic concept
// extraction from normalized LaTeX, an in-memory co-occurrence graph over
// the stored corpus, and a graph-based re-ranker for search results.
//
// Concepts are identified by a fixed rule table keyed on LaTeX tokens, so
// extraction is reproducible across runs and needs no model calls. The
// graph links concepts that appear in the same formula; the re-ranker
// boosts results that share concepts with the query directly, and more
// weakly those connected through a co-occurrence edge.
package fcg
