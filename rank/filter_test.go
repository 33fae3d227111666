package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonewei/me-ir/core"
)

func confResult(id core.ID, score float32) *core.SearchResult {
	return &core.SearchResult{Formula: &core.Formula{Id: id}, Score: score}
}

func TestConfidenceFilter(t *testing.T) {
	results := []*core.SearchResult{
		confResult(1, 0.9),
		confResult(2, 0.8),
		confResult(3, 0.7),
	}
	similarities := map[core.ID]float32{1: 0.95, 2: 0.5, 3: 0.75}

	f := NewConfidenceFilter(DefaultConfidenceThreshold)
	kept := f.Filter(results, similarities)

	assert.Len(t, kept, 2)
	assert.Equal(t, core.ID(1), kept[0].Formula.Id)
	assert.Equal(t, core.ID(3), kept[1].Formula.Id)
}

func TestConfidenceFilterFallback(t *testing.T) {
	results := []*core.SearchResult{confResult(1, 0.3)}
	similarities := map[core.ID]float32{1: 0.1}

	f := NewConfidenceFilter(0.9)
	kept := f.Filter(results, similarities)

	assert.Equal(t, results, kept, "a threshold that rejects everything keeps the input")
}

func TestConfidenceFilterDisabled(t *testing.T) {
	results := []*core.SearchResult{confResult(1, 0.3)}

	f := NewConfidenceFilter(0)
	assert.Equal(t, results, f.Filter(results, nil))
}

func TestConfidenceFilterMissingSimilarity(t *testing.T) {
	results := []*core.SearchResult{
		confResult(1, 0.9),
		confResult(2, 0.8),
	}
	// No entry for formula 2: treated as below threshold
	similarities := map[core.ID]float32{1: 0.9}

	f := NewConfidenceFilter(0.7)
	kept := f.Filter(results, similarities)

	assert.Len(t, kept, 1)
	assert.Equal(t, core.ID(1), kept[0].Formula.Id)
}
