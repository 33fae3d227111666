package eval

import (
	"math"
	"sort"
)

// RunEntry is one retrieved document with its retrieval score.
type RunEntry struct {
	DocId string
	Score float32
}

// Run maps query IDs to their ranked result lists.
type Run map[string][]RunEntry

// Metrics holds averaged retrieval quality measures over a run.
type Metrics struct {
	// RecallAtK is the fraction of queries with at least one judged
	// document anywhere in the result list.
	RecallAtK float64

	// MAP is the mean average precision, counting documents with
	// relevance > 0 as relevant.
	MAP float64

	// NDCGAtK uses exponential gain (2^rel - 1) with the ideal DCG
	// truncated at the result-list length.
	NDCGAtK float64

	// Evaluated is the number of queries that had judgments.
	Evaluated int
}

// Calculate computes Recall@K, MAP and nDCG@K for a run against graded
// judgments. Queries absent from the qrels contribute nothing to the
// averages.
func Calculate(run Run, qrels Qrels) Metrics {
	var recalls, maps, ndcgs []float64

	for qid, entries := range run {
		judged, ok := qrels[qid]
		if !ok {
			continue
		}

		// Binary recall: any judged document retrieved
		hit := 0.0
		for _, e := range entries {
			if _, ok := judged[e.DocId]; ok {
				hit = 1.0
				break
			}
		}
		recalls = append(recalls, hit)

		// Average precision over relevance > 0
		ap := 0.0
		relevantFound := 0
		for i, e := range entries {
			if judged[e.DocId] > 0 {
				relevantFound++
				ap += float64(relevantFound) / float64(i+1)
			}
		}
		totalRelevant := 0
		for _, rel := range judged {
			if rel > 0 {
				totalRelevant++
			}
		}
		if totalRelevant < 1 {
			totalRelevant = 1
		}
		maps = append(maps, ap/float64(totalRelevant))

		ndcgs = append(ndcgs, ndcg(entries, judged))
	}

	return Metrics{
		RecallAtK: mean(recalls),
		MAP:       mean(maps),
		NDCGAtK:   mean(ndcgs),
		Evaluated: len(recalls),
	}
}

// ndcg computes normalized discounted cumulative gain with exponential
// gain. The ideal ranking is truncated to the result-list length so a
// system returning K results is compared against the best possible K.
func ndcg(entries []RunEntry, judged map[string]int) float64 {
	dcg := 0.0
	for i, e := range entries {
		rel := judged[e.DocId]
		dcg += (math.Pow(2, float64(rel)) - 1) / math.Log2(float64(i)+2)
	}

	ideal := make([]int, 0, len(judged))
	for _, rel := range judged {
		ideal = append(ideal, rel)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ideal)))
	if len(ideal) > len(entries) {
		ideal = ideal[:len(entries)]
	}

	idcg := 0.0
	for i, rel := range ideal {
		idcg += (math.Pow(2, float64(rel)) - 1) / math.Log2(float64(i)+2)
	}

	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
