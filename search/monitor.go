package search

import (
	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/index"
)

// SearchMonitor provides hooks to observe the retrieval cascade.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterNormalization(latexNorm string)
	AfterStructuralRecall(candidates []index.Candidate)
	AfterSemanticScoring(ids []uint64)
	SemanticFallback()
	AfterFusion(results []*core.SearchResult)
	AfterConceptRerank(results []*core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterNormalization(_ string)               {}
func (n *noopMonitor) AfterStructuralRecall(_ []index.Candidate) {}
func (n *noopMonitor) AfterSemanticScoring(_ []uint64)           {}
func (n *noopMonitor) SemanticFallback()                         {}
func (n *noopMonitor) AfterFusion(_ []*core.SearchResult)        {}
func (n *noopMonitor) AfterConceptRerank(_ []*core.SearchResult) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)             {}
