package index

import (
	"context"
	"testing"

	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/latex"
	"github.com/jonewei/me-ir/storage"
	badgerstore "github.com/jonewei/me-ir/storage/badger"
)

// indexFormula stores a formula with its fingerprints and path postings,
// the way ingestion does.
func indexFormula(t *testing.T, formulas storage.FormulaRepository, paths storage.PathRepository, docID, latexStr string) *core.Formula {
	t.Helper()
	ctx := context.Background()

	norm, _ := latex.Normalize(latexStr)
	pathCounts := latex.PathCounts(norm, latex.DefaultPathLength)
	totalPaths := 0
	for _, tf := range pathCounts {
		totalPaths += tf
	}

	formula := &core.Formula{
		DocId:     docID,
		Latex:     latexStr,
		LatexNorm: norm,
		LatexHash: core.HashContent(norm),
		PathCount: totalPaths,
	}
	added, err := formulas.AddFormulas(ctx, formula)
	if err != nil {
		t.Fatalf("Failed to add formula: %v", err)
	}
	if err := paths.AddPostings(ctx, added[0].Id, pathCounts); err != nil {
		t.Fatalf("Failed to add postings: %v", err)
	}
	return added[0]
}

func parseQuery(latexStr string) *ParsedQuery {
	norm, _ := latex.Normalize(latexStr)
	return &ParsedQuery{
		LatexNorm:  norm,
		LatexHash:  core.HashContent(norm),
		PathCounts: latex.PathCounts(norm, latex.DefaultPathLength),
	}
}

func TestRecallExactMatch(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	target := indexFormula(t, formulaRepo, pathRepo, "doc-1", `\frac{a}{b}`)
	indexFormula(t, formulaRepo, pathRepo, "doc-2", `x^2+y^2`)

	recall, err := NewRecall(formulaRepo, pathRepo)
	if err != nil {
		t.Fatalf("Failed to create recall: %v", err)
	}

	// Whitespace variants normalize to the same fingerprint
	candidates, err := recall.Candidates(context.Background(), parseQuery(`\frac{a}{b}`))
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}

	if len(candidates) == 0 {
		t.Fatal("Expected candidates")
	}
	if candidates[0].Id != target.Id {
		t.Fatalf("Expected formula %d first, got %d", target.Id, candidates[0].Id)
	}
	if candidates[0].Source != SourceExact {
		t.Fatalf("Expected exact source, got %s", candidates[0].Source)
	}
	if candidates[0].Score != 1.0 {
		t.Fatalf("Expected score 1.0, got %f", candidates[0].Score)
	}
}

func TestRecallSkeletonMatch(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	ctx := context.Background()
	skel := "mfrac,mi,mi"
	skelHash := core.HashContent(skel)

	added, err := formulaRepo.AddFormulas(ctx, &core.Formula{
		DocId:      "doc-1",
		Latex:      `\frac{x}{y}`,
		LatexNorm:  `\frac{x}{y}`,
		LatexHash:  core.HashContent(`\frac{x}{y}`),
		MathMLSkel: skel,
		SkelHash:   skelHash,
	})
	if err != nil {
		t.Fatalf("Failed to add formula: %v", err)
	}

	recall, err := NewRecall(formulaRepo, pathRepo)
	if err != nil {
		t.Fatalf("Failed to create recall: %v", err)
	}

	// Different LaTeX, same skeleton
	query := &ParsedQuery{
		LatexNorm: `\frac{a}{b}`,
		LatexHash: core.HashContent(`\frac{a}{b}`),
		SkelHash:  skelHash,
	}
	candidates, err := recall.Candidates(ctx, query)
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}

	if len(candidates) == 0 {
		t.Fatal("Expected skeleton candidate")
	}
	if candidates[0].Id != added[0].Id || candidates[0].Source != SourceSkeleton {
		t.Fatalf("Expected skeleton match for %d, got %+v", added[0].Id, candidates[0])
	}
}

func TestRecallPathStage(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	// Close structural variant shares most paths with the query; the
	// unrelated formula shares none.
	variant := indexFormula(t, formulaRepo, pathRepo, "doc-1", `\frac{a}{c}`)
	unrelated := indexFormula(t, formulaRepo, pathRepo, "doc-2", `\sum_n z_n`)
	// Padding raises the corpus size so shared paths get positive IDF
	indexFormula(t, formulaRepo, pathRepo, "doc-3", `e^{i\pi}`)
	indexFormula(t, formulaRepo, pathRepo, "doc-4", `\lim_n w_n`)

	recall, err := NewRecall(formulaRepo, pathRepo)
	if err != nil {
		t.Fatalf("Failed to create recall: %v", err)
	}

	candidates, err := recall.Candidates(context.Background(), parseQuery(`\frac{a}{b}`))
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}

	var foundVariant, foundUnrelated bool
	for _, c := range candidates {
		if c.Id == variant.Id {
			foundVariant = true
			if c.Source == SourceExact {
				t.Fatal("Variant must not be an exact match")
			}
		}
		if c.Id == unrelated.Id && c.Source == SourcePath {
			foundUnrelated = true
		}
	}
	if !foundVariant {
		t.Fatal("Expected structural variant among candidates")
	}
	if foundUnrelated {
		t.Fatal("Unrelated formula must not be a path match")
	}
}

func TestRecallPathStageLengthNormalized(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	// Both formulas share the same query paths. The repetitive one holds
	// them at a higher term frequency, but scoring counts each shared
	// path once, so the shorter variant must come out ahead.
	short := indexFormula(t, formulaRepo, pathRepo, "doc-1", `x+y+z`)
	repetitive := indexFormula(t, formulaRepo, pathRepo, "doc-2", `x+y+x+y+x+y`)
	// Padding raises the corpus size so shared paths get positive IDF
	indexFormula(t, formulaRepo, pathRepo, "doc-3", `e^{i\pi}`)
	indexFormula(t, formulaRepo, pathRepo, "doc-4", `\lim_n w_n`)

	recall, err := NewRecall(formulaRepo, pathRepo)
	if err != nil {
		t.Fatalf("Failed to create recall: %v", err)
	}

	candidates, err := recall.Candidates(context.Background(), parseQuery(`x+y`))
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}

	var shortScore, repetitiveScore float32
	for _, c := range candidates {
		if c.Source != SourcePath {
			continue
		}
		switch c.Id {
		case short.Id:
			shortScore = c.Score
		case repetitive.Id:
			repetitiveScore = c.Score
		}
	}
	if shortScore == 0 || repetitiveScore == 0 {
		t.Fatalf("Expected both formulas as path candidates, got %+v", candidates)
	}
	if shortScore <= repetitiveScore {
		t.Fatalf("Expected shorter formula to score higher: %f <= %f", shortScore, repetitiveScore)
	}
}

func TestRecallDeduplicates(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	target := indexFormula(t, formulaRepo, pathRepo, "doc-1", `\frac{a}{b}`)

	recall, err := NewRecall(formulaRepo, pathRepo)
	if err != nil {
		t.Fatalf("Failed to create recall: %v", err)
	}

	// The target matches both the exact and the path stage; it must
	// appear once, attributed to the exact stage.
	candidates, err := recall.Candidates(context.Background(), parseQuery(`\frac{a}{b}`))
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}

	occurrences := 0
	for _, c := range candidates {
		if c.Id == target.Id {
			occurrences++
			if c.Source != SourceExact {
				t.Fatalf("Expected exact source, got %s", c.Source)
			}
		}
	}
	if occurrences != 1 {
		t.Fatalf("Expected target once, got %d occurrences", occurrences)
	}
}

func TestRecallFuzzyStage(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	ctx := context.Background()

	// Store a formula whose fingerprint is one bit away from the query's
	queryHash := core.HashContent(`\frac{a}{b}`)
	nearHash := core.Hash(uint64(queryHash) ^ 1)

	added, err := formulaRepo.AddFormulas(ctx, &core.Formula{
		DocId:     "doc-1",
		Latex:     `\frac{a}{b'}`,
		LatexNorm: `\frac{a}{b'}`,
		LatexHash: nearHash,
	})
	if err != nil {
		t.Fatalf("Failed to add formula: %v", err)
	}

	recall, err := NewRecall(formulaRepo, pathRepo)
	if err != nil {
		t.Fatalf("Failed to create recall: %v", err)
	}

	query := &ParsedQuery{LatexNorm: `\frac{a}{b}`, LatexHash: queryHash}
	candidates, err := recall.Candidates(ctx, query)
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 fuzzy candidate, got %d", len(candidates))
	}
	if candidates[0].Id != added[0].Id || candidates[0].Source != SourceFuzzy {
		t.Fatalf("Expected fuzzy match for %d, got %+v", added[0].Id, candidates[0])
	}
}

func TestRecallFuzzyDistanceBound(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	ctx := context.Background()

	queryHash := core.HashContent(`\frac{a}{b}`)
	// Three bits away: beyond the default distance of 2
	farHash := core.Hash(uint64(queryHash) ^ 0b111)

	_, err = formulaRepo.AddFormulas(ctx, &core.Formula{
		DocId:     "doc-1",
		Latex:     "x",
		LatexNorm: "x",
		LatexHash: farHash,
	})
	if err != nil {
		t.Fatalf("Failed to add formula: %v", err)
	}

	recall, err := NewRecall(formulaRepo, pathRepo)
	if err != nil {
		t.Fatalf("Failed to create recall: %v", err)
	}

	query := &ParsedQuery{LatexNorm: `\frac{a}{b}`, LatexHash: queryHash}
	candidates, err := recall.Candidates(ctx, query)
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}

	if len(candidates) != 0 {
		t.Fatalf("Expected no candidates beyond the distance bound, got %d", len(candidates))
	}
}

func TestRecallTopKCap(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	for i := 0; i < 5; i++ {
		indexFormula(t, formulaRepo, pathRepo, "doc", `\frac{a}{b}`)
	}

	recall, err := NewRecall(formulaRepo, pathRepo, WithTopK(3))
	if err != nil {
		t.Fatalf("Failed to create recall: %v", err)
	}

	candidates, err := recall.Candidates(context.Background(), parseQuery(`\frac{a}{b}`))
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("Expected 3 candidates, got %d", len(candidates))
	}
}

func TestRecallOptionValidation(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	if _, err := NewRecall(nil, pathRepo); err != ErrFormulaRepositoryRequired {
		t.Fatalf("Expected ErrFormulaRepositoryRequired, got %v", err)
	}
	if _, err := NewRecall(formulaRepo, nil); err != ErrPathRepositoryRequired {
		t.Fatalf("Expected ErrPathRepositoryRequired, got %v", err)
	}
	if _, err := NewRecall(formulaRepo, pathRepo, WithTopK(0)); err != ErrInvalidTopK {
		t.Fatalf("Expected ErrInvalidTopK, got %v", err)
	}
	if _, err := NewRecall(formulaRepo, pathRepo, WithFuzzyDistance(-1)); err != ErrInvalidFuzzyDistance {
		t.Fatalf("Expected ErrInvalidFuzzyDistance, got %v", err)
	}
	if _, err := NewRecall(formulaRepo, pathRepo, WithMaxFuzzyBuckets(0)); err != ErrInvalidMaxFuzzyBuckets {
		t.Fatalf("Expected ErrInvalidMaxFuzzyBuckets, got %v", err)
	}
}
