package rank

import (
	"github.com/jonewei/me-ir/core"
)

// DefaultConfidenceThreshold is the minimum semantic similarity for a
// result to pass the high-confidence filter.
const DefaultConfidenceThreshold = 0.7

// ConfidenceFilter keeps only results whose semantic similarity clears a
// threshold. When no result clears it, the input is returned unchanged so
// a strict threshold never empties the result list.
type ConfidenceFilter struct {
	threshold float32
}

// NewConfidenceFilter creates a filter with the given similarity threshold.
// A non-positive threshold disables filtering.
func NewConfidenceFilter(threshold float32) *ConfidenceFilter {
	return &ConfidenceFilter{threshold: threshold}
}

// Filter applies the threshold to the similarity values, which must be
// parallel to results. Results without a similarity entry are treated as
// below threshold.
func (f *ConfidenceFilter) Filter(results []*core.SearchResult, similarities map[core.ID]float32) []*core.SearchResult {
	if f.threshold <= 0 || len(results) == 0 {
		return results
	}

	kept := make([]*core.SearchResult, 0, len(results))
	for _, result := range results {
		if result == nil || result.Formula == nil {
			continue
		}
		if similarities[result.Formula.Id] >= f.threshold {
			kept = append(kept, result)
		}
	}

	// Fall back to the unfiltered list rather than returning nothing
	if len(kept) == 0 {
		return results
	}
	return kept
}
