package rank

import (
	"sort"

	"github.com/jonewei/me-ir/core"
)

// DefaultRRFConstant is the smoothing constant in the reciprocal rank
// formula 1/(k+rank). Larger values flatten the contribution of top ranks.
const DefaultRRFConstant = 60

// ReciprocalRankFusion merges ranked result lists by summing reciprocal
// rank contributions. A formula appearing high in several lists outranks
// one appearing high in only one. Scores from the input lists are ignored;
// only positions matter. The fused scores are the RRF sums.
func ReciprocalRankFusion(k int, lists ...[]*core.SearchResult) []*core.SearchResult {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	fused := make(map[core.ID]*core.SearchResult)
	for _, list := range lists {
		for rank, result := range list {
			if result == nil || result.Formula == nil {
				continue
			}
			contribution := float32(1.0) / float32(k+rank+1)
			if existing, ok := fused[result.Formula.Id]; ok {
				existing.Score += contribution
			} else {
				fused[result.Formula.Id] = &core.SearchResult{
					Formula: result.Formula,
					Score:   contribution,
				}
			}
		}
	}

	results := make([]*core.SearchResult, 0, len(fused))
	for _, result := range fused {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Formula.Id < results[j].Formula.Id
	})
	return results
}

// WeightedFusion blends two result lists after min-max normalizing each
// list's scores to [0, 1]. The fused score of a formula is
// alpha*scoreA + (1-alpha)*scoreB, with a missing entry contributing zero.
func WeightedFusion(alpha float32, listA, listB []*core.SearchResult) []*core.SearchResult {
	normA := normalizeScores(listA)
	normB := normalizeScores(listB)

	formulas := make(map[core.ID]*core.Formula)
	for _, r := range listA {
		if r != nil && r.Formula != nil {
			formulas[r.Formula.Id] = r.Formula
		}
	}
	for _, r := range listB {
		if r != nil && r.Formula != nil {
			formulas[r.Formula.Id] = r.Formula
		}
	}

	results := make([]*core.SearchResult, 0, len(formulas))
	for id, formula := range formulas {
		score := alpha*normA[id] + (1-alpha)*normB[id]
		results = append(results, &core.SearchResult{Formula: formula, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Formula.Id < results[j].Formula.Id
	})
	return results
}

// normalizeScores min-max normalizes a list's scores into [0, 1].
// A constant list maps every entry to 1.
func normalizeScores(list []*core.SearchResult) map[core.ID]float32 {
	norm := make(map[core.ID]float32, len(list))
	if len(list) == 0 {
		return norm
	}

	minScore, maxScore := list[0].Score, list[0].Score
	for _, r := range list {
		if r == nil || r.Formula == nil {
			continue
		}
		if r.Score < minScore {
			minScore = r.Score
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}

	span := maxScore - minScore
	for _, r := range list {
		if r == nil || r.Formula == nil {
			continue
		}
		if span == 0 {
			norm[r.Formula.Id] = 1.0
		} else {
			norm[r.Formula.Id] = (r.Score - minScore) / span
		}
	}
	return norm
}
