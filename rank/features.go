// Copyright 2025 The me-ir Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rank

import (
	"sort"

	"github.com/jonewei/me-ir/core"
)

// Features holds the per-candidate ranking signals.
type Features struct {
	// Structural is the recall-stage score (exact/skeleton/path/fuzzy).
	Structural float32

	// Semantic is the embedding cosine similarity to the query.
	Semantic float32

	// ExactHash is 1 when the candidate's fingerprint equals the query's.
	ExactHash float32

	// ConceptOverlap is the Jaccard overlap between the query's and the
	// candidate's concept sets.
	ConceptOverlap float32
}

// Weights are the linear coefficients of the feature ranker.
type Weights struct {
	Structural     float32
	Semantic       float32
	ExactHash      float32
	ConceptOverlap float32
	Bias           float32
}

// DefaultWeights favor semantic similarity with a strong exact-match prior,
// tuned on held-out relevance judgments.
func DefaultWeights() Weights {
	return Weights{
		Structural:     0.25,
		Semantic:       0.45,
		ExactHash:      0.20,
		ConceptOverlap: 0.10,
		Bias:           0.0,
	}
}

// FeatureRanker scores candidates with a linear model over ranking
// features. It is the final scoring stage of the cascade; swapping the
// weights swaps the ranking policy without touching retrieval.
type FeatureRanker struct {
	weights Weights
}

// NewFeatureRanker creates a ranker with the given weights.
func NewFeatureRanker(weights Weights) *FeatureRanker {
	return &FeatureRanker{weights: weights}
}

// Score computes the linear combination of features.
func (r *FeatureRanker) Score(f Features) float32 {
	w := r.weights
	return w.Bias +
		w.Structural*f.Structural +
		w.Semantic*f.Semantic +
		w.ExactHash*f.ExactHash +
		w.ConceptOverlap*f.ConceptOverlap
}

// Scored pairs a result with its extracted features.
type Scored struct {
	Result   *core.SearchResult
	Features Features
}

// Rank scores each candidate and returns results ordered by descending
// model score. The Score field of each result is overwritten.
func (r *FeatureRanker) Rank(candidates []Scored) []*core.SearchResult {
	results := make([]*core.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		if c.Result == nil {
			continue
		}
		c.Result.Score = r.Score(c.Features)
		results = append(results, c.Result)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// ConceptOverlap computes the Jaccard overlap of two concept reference
// sets. Both empty yields zero.
func ConceptOverlap(a, b []core.ConceptRef) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[core.ID]bool, len(a))
	for _, ref := range a {
		setA[ref.ConceptId] = true
	}

	intersection := 0
	setB := make(map[core.ID]bool, len(b))
	for _, ref := range b {
		if setB[ref.ConceptId] {
			continue
		}
		setB[ref.ConceptId] = true
		if setA[ref.ConceptId] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float32(intersection) / float32(union)
}
