package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	run := Run{
		"q1": {
			{DocId: "d1", Score: 0.9},
			{DocId: "dX", Score: 0.8},
			{DocId: "d2", Score: 0.7},
		},
		"q2": {
			{DocId: "dA", Score: 0.5},
		},
		// No judgments for q3; it must not count
		"q3": {
			{DocId: "d1", Score: 0.4},
		},
	}
	qrels := Qrels{
		"q1": {"d1": 3, "d2": 1, "d3": 2},
		"q2": {"dB": 1},
	}

	m := Calculate(run, qrels)

	assert.Equal(t, 2, m.Evaluated)

	// q1 hits, q2 does not
	assert.InDelta(t, 0.5, m.RecallAtK, 1e-9)

	// q1: AP = (1/1 + 2/3) / 3 = 0.555...; q2: AP = 0
	assert.InDelta(t, 0.2777778, m.MAP, 1e-6)

	// q1: DCG = 7/log2(2) + 0 + 1/log2(4) = 7.5
	//     IDCG over [3,2,1] = 7 + 3/log2(3) + 0.5 = 9.392789...
	//     nDCG = 0.798486...; q2: 0
	assert.InDelta(t, 0.3992431, m.NDCGAtK, 1e-6)
}

func TestCalculateEmptyRun(t *testing.T) {
	m := Calculate(Run{}, Qrels{"q1": {"d1": 1}})
	assert.Zero(t, m.Evaluated)
	assert.Zero(t, m.RecallAtK)
	assert.Zero(t, m.MAP)
	assert.Zero(t, m.NDCGAtK)
}

func TestNDCGTruncatesIdealAtListLength(t *testing.T) {
	// One result, three judged documents. The ideal is truncated to a
	// single entry, so returning the best document scores a perfect 1.
	entries := []RunEntry{{DocId: "best", Score: 1}}
	judged := map[string]int{"best": 3, "good": 2, "fair": 1}

	assert.InDelta(t, 1.0, ndcg(entries, judged), 1e-9)
}

func TestNDCGNoJudgedRelevance(t *testing.T) {
	entries := []RunEntry{{DocId: "d1", Score: 1}}
	judged := map[string]int{"d2": 0}
	assert.Zero(t, ndcg(entries, judged))
}
