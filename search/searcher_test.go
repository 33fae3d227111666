package search

import (
	"context"
	"testing"

	"github.com/jonewei/me-ir/ai/mock"
	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/fcg"
	"github.com/jonewei/me-ir/index"
	"github.com/jonewei/me-ir/latex"
	"github.com/jonewei/me-ir/rank"
	"github.com/jonewei/me-ir/storage"
	badgerstore "github.com/jonewei/me-ir/storage/badger"
)

// testEnv bundles the pieces a searcher test needs.
type testEnv struct {
	formulas storage.FormulaRepository
	concepts storage.ConceptRepository
	paths    storage.PathRepository
	backend  *badgerstore.Backend
	embedder *mock.MockEmbedder
	vectors  map[string][]float32
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	t.Cleanup(func() {
		pathRepo.Close()
		conceptRepo.Close()
		formulaRepo.Close()
		backend.Close()
	})

	env := &testEnv{
		formulas: formulaRepo,
		concepts: conceptRepo,
		paths:    pathRepo,
		backend:  backend,
		embedder: mock.NewMockEmbedder(),
		vectors:  make(map[string][]float32),
	}

	// Embeddings come from a fixed table so tests control similarity
	env.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if v, ok := env.vectors[text]; ok {
			return v, nil
		}
		return []float32{0, 0, 1}, nil
	}

	return env
}

func (env *testEnv) newSearcher(t *testing.T, opts ...Option) *Searcher {
	t.Helper()

	recall, err := index.NewRecall(env.formulas, env.paths)
	if err != nil {
		t.Fatalf("Failed to create recall: %v", err)
	}

	provider := mock.NewMockProviderWithEmbedder(env.embedder)
	searcher, err := NewSearcher(env.formulas, env.concepts, recall, provider, opts...)
	if err != nil {
		t.Fatalf("Failed to create searcher: %v", err)
	}
	return searcher
}

// index stores a formula with fingerprints, postings and the given vector.
func (env *testEnv) index(t *testing.T, docID, latexStr string, vector []float32) *core.Formula {
	t.Helper()
	ctx := context.Background()

	norm, _ := latex.Normalize(latexStr)
	pathCounts := latex.PathCounts(norm, latex.DefaultPathLength)
	env.vectors[norm] = vector
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
		Vector:    vector,
	}
	added, err := env.formulas.AddFormulas(ctx, formula)
	if err != nil {
		t.Fatalf("Failed to add formula: %v", err)
	}
	if err := env.paths.AddPostings(ctx, added[0].Id, pathCounts); err != nil {
		t.Fatalf("Failed to add postings: %v", err)
	}
	return added[0]
}

func TestFindMatchesExact(t *testing.T) {
	env := newTestEnv(t)

	target := env.index(t, "doc-1", `\frac{a}{b}`, []float32{1, 0, 0})
	env.index(t, "doc-2", `x^2+y^2`, []float32{0, 1, 0})

	searcher := env.newSearcher(t)

	results, err := searcher.FindMatches(context.Background(), &core.Query{Latex: `\frac{a}{b}`}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) == 0 {
		t.Fatal("Expected results")
	}
	if results[0].Formula.Id != target.Id {
		t.Fatalf("Expected formula %d first, got %d", target.Id, results[0].Formula.Id)
	}
}

func TestFindMatchesSemanticFallback(t *testing.T) {
	env := newTestEnv(t)

	// Structurally unrelated to the query, but the vectors line up
	target := env.index(t, "doc-1", `\sum_n a_n`, []float32{1, 0, 0})

	searcher := env.newSearcher(t)

	// The query shares no fingerprint or paths with the corpus; give
	// its normalized form the same embedding as the target
	norm, _ := latex.Normalize("qqq")
	env.vectors[norm] = []float32{1, 0, 0}

	monitor := &recordingMonitor{}
	results, err := searcher.FindMatchesWithMonitor(context.Background(), &core.Query{Latex: "qqq"}, 10, monitor)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if !monitor.fellBack {
		t.Fatal("Expected semantic fallback")
	}
	if len(results) != 1 || results[0].Formula.Id != target.Id {
		t.Fatalf("Expected fallback hit for formula %d, got %v", target.Id, results)
	}
}

func TestFindMatchesMaxHits(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 5; i++ {
		env.index(t, "doc", `\frac{a}{b}`, []float32{1, 0, 0})
	}

	searcher := env.newSearcher(t)

	results, err := searcher.FindMatches(context.Background(), &core.Query{Latex: `\frac{a}{b}`}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
}

func TestFindMatchesEmptyQuery(t *testing.T) {
	env := newTestEnv(t)
	searcher := env.newSearcher(t)

	if _, err := searcher.FindMatches(context.Background(), &core.Query{Latex: "  "}, 10); err != ErrEmptyQuery {
		t.Fatalf("Expected ErrEmptyQuery, got %v", err)
	}
	if _, err := searcher.FindMatches(context.Background(), nil, 10); err != ErrEmptyQuery {
		t.Fatalf("Expected ErrEmptyQuery, got %v", err)
	}
}

func TestFindMatchesNoHits(t *testing.T) {
	env := newTestEnv(t)
	searcher := env.newSearcher(t)

	results, err := searcher.FindMatches(context.Background(), &core.Query{Latex: `\frac{a}{b}`}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("Expected no results on an empty corpus, got %d", len(results))
	}
}

func TestFindMatchesConceptRerank(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Store the concepts the query will extract
	integral, err := env.concepts.GetOrCreateConcept(ctx, "integral", core.ConceptTypeOperator, nil)
	if err != nil {
		t.Fatalf("Failed to create concept: %v", err)
	}

	// Two structural variants with equal-looking scores; only one
	// carries the integral concept
	withConcept := env.index(t, "doc-1", `\int\frac{a}{c}dx`, []float32{1, 0, 0})
	withConcept.Concepts = []core.ConceptRef{{ConceptId: integral.Id, Weight: 0.9}}
	if _, err := env.formulas.UpdateFormulas(ctx, withConcept); err != nil {
		t.Fatalf("Failed to update formula: %v", err)
	}
	env.index(t, "doc-2", `\frac{a}{d}`, []float32{1, 0, 0})
	// Padding so shared paths keep positive IDF
	env.index(t, "doc-3", `e^{i\pi}`, []float32{0, 0, 1})
	env.index(t, "doc-4", `\lim_n w_n`, []float32{0, 0, 1})

	graph := fcg.NewGraph()
	searcher := env.newSearcher(t, WithReranker(fcg.NewReranker(graph)))

	norm, _ := latex.Normalize(`\int\frac{a}{b}dx`)
	env.vectors[norm] = []float32{1, 0, 0}

	results, err := searcher.FindMatches(ctx, &core.Query{Latex: `\int\frac{a}{b}dx`}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) < 2 {
		t.Fatalf("Expected both variants, got %d results", len(results))
	}
	if results[0].Formula.Id != withConcept.Id {
		t.Fatalf("Expected concept-sharing formula %d first, got %d", withConcept.Id, results[0].Formula.Id)
	}
}

func TestFindMatchesFeatureRanking(t *testing.T) {
	env := newTestEnv(t)

	exact := env.index(t, "doc-1", `\frac{a}{b}`, []float32{1, 0, 0})
	env.index(t, "doc-2", `\frac{a}{c}`, []float32{1, 0, 0})

	searcher := env.newSearcher(t, WithFeatureRanking(rank.DefaultWeights()))

	norm, _ := latex.Normalize(`\frac{a}{b}`)
	env.vectors[norm] = []float32{1, 0, 0}

	results, err := searcher.FindMatches(context.Background(), &core.Query{Latex: `\frac{a}{b}`}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) == 0 {
		t.Fatal("Expected results")
	}
	// Equal semantics, but the exact-hash feature breaks the tie
	if results[0].Formula.Id != exact.Id {
		t.Fatalf("Expected exact match %d first, got %d", exact.Id, results[0].Formula.Id)
	}
}

func TestFindMatchesConfidenceFilter(t *testing.T) {
	env := newTestEnv(t)

	strong := env.index(t, "doc-1", `\frac{a}{c}`, []float32{1, 0, 0})
	env.index(t, "doc-2", `\frac{a}{d}`, []float32{0, 1, 0})
	// Padding so shared paths keep positive IDF
	env.index(t, "doc-3", `e^{i\pi}`, []float32{0, 0, 1})
	env.index(t, "doc-4", `\lim_n w_n`, []float32{0, 0, 1})

	searcher := env.newSearcher(t, WithConfidenceThreshold(0.9))

	norm, _ := latex.Normalize(`\frac{a}{b}`)
	env.vectors[norm] = []float32{1, 0, 0}

	results, err := searcher.FindMatches(context.Background(), &core.Query{Latex: `\frac{a}{b}`}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 high-confidence result, got %d", len(results))
	}
	if results[0].Formula.Id != strong.Id {
		t.Fatalf("Expected formula %d, got %d", strong.Id, results[0].Formula.Id)
	}
}

func TestNewSearcherValidation(t *testing.T) {
	env := newTestEnv(t)

	recall, err := index.NewRecall(env.formulas, env.paths)
	if err != nil {
		t.Fatalf("Failed to create recall: %v", err)
	}
	provider := mock.NewMockProvider()

	if _, err := NewSearcher(nil, env.concepts, recall, provider); err != ErrFormulaRepositoryRequired {
		t.Fatalf("Expected ErrFormulaRepositoryRequired, got %v", err)
	}
	if _, err := NewSearcher(env.formulas, nil, recall, provider); err != ErrConceptRepositoryRequired {
		t.Fatalf("Expected ErrConceptRepositoryRequired, got %v", err)
	}
	if _, err := NewSearcher(env.formulas, env.concepts, nil, provider); err != ErrRecallRequired {
		t.Fatalf("Expected ErrRecallRequired, got %v", err)
	}
	if _, err := NewSearcher(env.formulas, env.concepts, recall, nil); err != ErrAIProviderRequired {
		t.Fatalf("Expected ErrAIProviderRequired, got %v", err)
	}
}

// recordingMonitor captures which cascade stages ran.
type recordingMonitor struct {
	started  bool
	norm     string
	recalled int
	fellBack bool
	fused    int
	finished int
}

var _ SearchMonitor = (*recordingMonitor)(nil)

func (m *recordingMonitor) Start(_ string)                 { m.started = true }
func (m *recordingMonitor) AfterNormalization(norm string) { m.norm = norm }
func (m *recordingMonitor) AfterStructuralRecall(cs []index.Candidate) {
	m.recalled = len(cs)
}
func (m *recordingMonitor) AfterSemanticScoring(_ []uint64) {}
func (m *recordingMonitor) SemanticFallback()               { m.fellBack = true }
func (m *recordingMonitor) AfterFusion(rs []*core.SearchResult) {
	m.fused = len(rs)
}
func (m *recordingMonitor) AfterConceptRerank(_ []*core.SearchResult) {}
func (m *recordingMonitor) Finish(rs []*core.SearchResult) {
	m.finished = len(rs)
}

func TestSearchMonitorCallbacks(t *testing.T) {
	env := newTestEnv(t)
	env.index(t, "doc-1", `\frac{a}{b}`, []float32{1, 0, 0})

	searcher := env.newSearcher(t)

	monitor := &recordingMonitor{}
	results, err := searcher.FindMatchesWithMonitor(context.Background(), &core.Query{Latex: `\frac{a}{b}`}, 10, monitor)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if !monitor.started {
		t.Fatal("Expected Start callback")
	}
	if monitor.norm == "" {
		t.Fatal("Expected AfterNormalization callback")
	}
	if monitor.recalled == 0 {
		t.Fatal("Expected recall candidates")
	}
	if monitor.finished != len(results) {
		t.Fatalf("Expected Finish with %d results, got %d", len(results), monitor.finished)
	}
}
