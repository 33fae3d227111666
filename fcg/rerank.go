package fcg

import (
	"sort"

	"github.com/jonewei/me-ir/core"
)

// Boost factors applied during graph re-ranking. A result sharing a
// concept with the query keeps the direct boost; a result connected only
// through the graph gets a damped neighbor boost scaled by edge weight.
const (
	directBoost      = 1.5
	neighborBoostMax = 0.3
)

// Reranker adjusts result scores using the concept graph.
type Reranker struct {
	graph *Graph
}

// NewReranker creates a re-ranker over the given concept graph.
func NewReranker(graph *Graph) *Reranker {
	return &Reranker{graph: graph}
}

// Rerank re-scores results against the query's concepts and returns them
// in descending score order. Results sharing a concept with the query are
// boosted by directBoost; results whose concepts neighbor a query concept
// in the graph get a smaller boost proportional to the edge weight. The
// input slice is modified in place.
func (r *Reranker) Rerank(queryConcepts []core.ConceptRef, results []*core.SearchResult) []*core.SearchResult {
	if len(queryConcepts) == 0 || len(results) == 0 {
		return results
	}

	querySet := make(map[core.ID]bool, len(queryConcepts))
	for _, ref := range queryConcepts {
		querySet[ref.ConceptId] = true
	}

	for _, result := range results {
		if result.Formula == nil {
			continue
		}

		shared := false
		var bestEdge float32
		for _, ref := range result.Formula.Concepts {
			if querySet[ref.ConceptId] {
				shared = true
				break
			}
			for _, q := range queryConcepts {
				if w := r.graph.EdgeWeight(q.ConceptId, ref.ConceptId); w > bestEdge {
					bestEdge = w
				}
			}
		}

		if shared {
			result.Score *= directBoost
		} else if bestEdge > 0 {
			result.Score *= 1.0 + neighborBoostMax*damp(bestEdge)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// damp squashes an unbounded edge weight into (0, 1).
func damp(w float32) float32 {
	return w / (1.0 + w)
}
