// Package eval measures retrieval quality against TREC-style relevance
// judgments.
//
// It loads qrel files and query sets, runs a query set through a
// searcher with per-query failure isolation, computes Recall@K, MAP and
// nDCG@K, and writes runs in the standard TREC format for use with
// external evaluation tooling.
package eval
