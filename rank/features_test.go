package rank

import (
	"testing"

	"github.com/jonewei/me-ir/core"
)

func TestFeatureRankerScore(t *testing.T) {
	ranker := NewFeatureRanker(Weights{
		Structural:     0.25,
		Semantic:       0.45,
		ExactHash:      0.20,
		ConceptOverlap: 0.10,
	})

	score := ranker.Score(Features{
		Structural:     1.0,
		Semantic:       0.8,
		ExactHash:      1.0,
		ConceptOverlap: 0.5,
	})

	expected := float32(0.25*1.0 + 0.45*0.8 + 0.20*1.0 + 0.10*0.5)
	if score != expected {
		t.Fatalf("Expected score %f, got %f", expected, score)
	}
}

func TestFeatureRankerRank(t *testing.T) {
	ranker := NewFeatureRanker(DefaultWeights())

	candidates := []Scored{
		{
			Result:   result(1, 0),
			Features: Features{Semantic: 0.5},
		},
		{
			Result:   result(2, 0),
			Features: Features{Semantic: 0.5, ExactHash: 1.0},
		},
	}

	ranked := ranker.Rank(candidates)

	if len(ranked) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(ranked))
	}
	// The exact-hash candidate wins on the same semantic score
	if ranked[0].Formula.Id != 2 {
		t.Fatalf("Expected formula 2 first, got %d", ranked[0].Formula.Id)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Fatal("Expected descending scores")
	}
}

func TestConceptOverlap(t *testing.T) {
	a := []core.ConceptRef{{ConceptId: 1}, {ConceptId: 2}}
	b := []core.ConceptRef{{ConceptId: 2}, {ConceptId: 3}}

	// |{2}| / |{1,2,3}|
	overlap := ConceptOverlap(a, b)
	expected := float32(1.0) / 3
	if overlap != expected {
		t.Fatalf("Expected overlap %f, got %f", expected, overlap)
	}

	if ConceptOverlap(a, nil) != 0 {
		t.Fatal("Expected zero overlap with empty set")
	}
	if ConceptOverlap(a, a) != 1.0 {
		t.Fatal("Expected full overlap with itself")
	}
}
