// Package rank combines and re-scores candidate lists produced by the
// retrieval stages. It provides reciprocal rank fusion and weighted score
// fusion for merging structural and semantic rankings, a linear feature
// ranker for final scoring, and a confidence filter that drops low
// similarity results while never emptying the list.
package rank
