package fcg

import (
	"testing"

	"github.com/jonewei/me-ir/core"
)

func TestRerankDirectBoost(t *testing.T) {
	g := NewGraph()
	reranker := NewReranker(g)

	query := []core.ConceptRef{{ConceptId: 1, Weight: 0.9}}
	results := []*core.SearchResult{
		{
			Formula: &core.Formula{Id: 10, Concepts: []core.ConceptRef{{ConceptId: 2, Weight: 0.5}}},
			Score:   0.8,
		},
		{
			Formula: &core.Formula{Id: 11, Concepts: []core.ConceptRef{{ConceptId: 1, Weight: 0.9}}},
			Score:   0.7,
		},
	}

	reranked := reranker.Rerank(query, results)

	// The concept-sharing result overtakes despite a lower base score
	if reranked[0].Formula.Id != 11 {
		t.Fatalf("Expected formula 11 first, got %d", reranked[0].Formula.Id)
	}
	if reranked[0].Score != 0.7*1.5 {
		t.Fatalf("Expected boosted score %f, got %f", 0.7*1.5, reranked[0].Score)
	}
	// Unrelated result keeps its base score
	if reranked[1].Score != 0.8 {
		t.Fatalf("Expected unboosted score 0.8, got %f", reranked[1].Score)
	}
}

func TestRerankNeighborBoost(t *testing.T) {
	g := NewGraph()
	// Concepts 1 and 2 co-occur in the corpus
	g.AddFormula([]core.ConceptRef{
		{ConceptId: 1, Weight: 1.0},
		{ConceptId: 2, Weight: 1.0},
	})
	reranker := NewReranker(g)

	query := []core.ConceptRef{{ConceptId: 1, Weight: 1.0}}
	results := []*core.SearchResult{
		{
			Formula: &core.Formula{Id: 10, Concepts: []core.ConceptRef{{ConceptId: 2, Weight: 1.0}}},
			Score:   0.5,
		},
		{
			Formula: &core.Formula{Id: 11, Concepts: []core.ConceptRef{{ConceptId: 3, Weight: 1.0}}},
			Score:   0.5,
		},
	}

	reranked := reranker.Rerank(query, results)

	// Graph neighbor gets a boost smaller than the direct boost
	if reranked[0].Formula.Id != 10 {
		t.Fatalf("Expected neighbor-boosted formula 10 first, got %d", reranked[0].Formula.Id)
	}
	if reranked[0].Score <= 0.5 {
		t.Fatalf("Expected boosted score above 0.5, got %f", reranked[0].Score)
	}
	if reranked[0].Score >= 0.5*1.5 {
		t.Fatalf("Expected neighbor boost below direct boost, got %f", reranked[0].Score)
	}
	if reranked[1].Score != 0.5 {
		t.Fatalf("Expected disconnected result unboosted, got %f", reranked[1].Score)
	}
}

func TestRerankEmptyQuery(t *testing.T) {
	reranker := NewReranker(NewGraph())

	results := []*core.SearchResult{
		{Formula: &core.Formula{Id: 1}, Score: 0.9},
	}
	reranked := reranker.Rerank(nil, results)

	if len(reranked) != 1 || reranked[0].Score != 0.9 {
		t.Fatal("Expected results untouched for empty query concepts")
	}
}
