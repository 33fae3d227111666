package ingestion

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonewei/me-ir/ai/mock"
	badgerstore "github.com/jonewei/me-ir/storage/badger"
)

func TestReadCorpus(t *testing.T) {
	input := `{"doc_id":"arxiv-1","latex":"\\frac{a}{b}"}

{"doc_id":"arxiv-2","latex":"x^2","mathml":"<math><msup><mi>x</mi><mn>2</mn></msup></math>"}
`
	entries, err := ReadCorpus(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to read corpus: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].DocId != "arxiv-1" || entries[0].Latex != `\frac{a}{b}` {
		t.Fatalf("Unexpected first entry: %+v", entries[0])
	}
	if entries[1].MathML == "" {
		t.Fatal("Expected MathML on second entry")
	}
}

func TestReadCorpusFormulaId(t *testing.T) {
	input := `{"formula_id":"q_42","doc_id":"arxiv-1","latex":"x+y"}
{"formula_id":"q_43","latex":"x-y"}
`
	entries, err := ReadCorpus(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to read corpus: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].FormulaId != "q_42" {
		t.Fatalf("Expected formula_id q_42, got %q", entries[0].FormulaId)
	}
	// formula_id alone satisfies the identifier requirement
	if entries[1].DocId != "" {
		t.Fatalf("Expected empty doc_id, got %q", entries[1].DocId)
	}
}

func TestReadCorpusErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed json", `{"doc_id":"a","latex":`},
		{"missing latex", `{"doc_id":"a"}`},
		{"missing doc_id", `{"latex":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCorpus(strings.NewReader(tt.input)); err == nil {
				t.Fatal("Expected error")
			}
		})
	}
}

func TestPipelineIngest(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	checkpointRepo := badgerstore.NewCheckpointRepository(backend)
	provider := mock.NewMockProvider()

	pipeline, err := NewPipeline(formulaRepo, conceptRepo, pathRepo, checkpointRepo, provider, WithPoolSize(1))
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}
	defer pipeline.Release()

	ctx := context.Background()
	entries := []CorpusEntry{
		{DocId: "doc-1", Latex: `\int_0^1 x\,dx`},
		{FormulaId: "q_7", DocId: "doc-2", Latex: `\frac{\pi}{2}`, MathML: "<math><mfrac><mi>&pi;</mi><mn>2</mn></mfrac></math>"},
	}

	added, err := pipeline.Ingest(ctx, entries)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("Expected 2 formulas, got %d", len(added))
	}

	// Fingerprints are set synchronously
	for _, formula := range added {
		if formula.Id == 0 {
			t.Fatal("Expected non-zero ID")
		}
		if formula.LatexNorm == "" || formula.LatexHash == 0 {
			t.Fatalf("Expected fingerprints on %+v", formula)
		}
	}
	if added[1].SkelHash == 0 {
		t.Fatal("Expected skeleton hash from MathML")
	}
	if added[0].DocId != "doc-1" {
		t.Fatalf("Expected doc_id as identifier, got %q", added[0].DocId)
	}
	// An explicit formula_id takes over as the retrieval identifier
	if added[1].DocId != "q_7" {
		t.Fatalf("Expected formula_id as identifier, got %q", added[1].DocId)
	}

	pipeline.Wait()

	// Async enrichment populated vectors, paths and concepts
	enriched, err := formulaRepo.GetFormula(ctx, added[1].Id)
	if err != nil {
		t.Fatalf("Failed to get formula: %v", err)
	}
	if len(enriched.Vector) == 0 {
		t.Fatal("Expected embedding vector")
	}
	if enriched.PathCount == 0 {
		t.Fatal("Expected path count")
	}
	if len(enriched.Concepts) == 0 {
		t.Fatal("Expected concepts for a fraction formula")
	}

	// Unit-normalized vector
	var sumSquares float32
	for _, x := range enriched.Vector {
		sumSquares += x * x
	}
	if sumSquares < 0.99 || sumSquares > 1.01 {
		t.Fatalf("Expected unit vector, got norm^2 %f", sumSquares)
	}

	// Postings are queryable
	postings, err := pathRepo.GetPostings(ctx, `\frac->{`)
	if err != nil {
		t.Fatalf("Failed to get postings: %v", err)
	}
	if len(postings) != 1 || postings[0].FormulaId != added[1].Id {
		t.Fatalf("Expected posting for formula %d, got %v", added[1].Id, postings)
	}

	// Checkpoints recorded progress
	chk, err := checkpointRepo.LoadCheckpoint(ctx, "embedding")
	if err != nil {
		t.Fatalf("Failed to load checkpoint: %v", err)
	}
	if chk == nil || chk.LastId == 0 {
		t.Fatal("Expected embedding checkpoint")
	}
	chk, err = checkpointRepo.LoadCheckpoint(ctx, "structure")
	if err != nil {
		t.Fatalf("Failed to load checkpoint: %v", err)
	}
	if chk == nil || chk.LastId == 0 {
		t.Fatal("Expected structure checkpoint")
	}
}

func TestPipelineIngestEmpty(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	checkpointRepo := badgerstore.NewCheckpointRepository(backend)
	pipeline, err := NewPipeline(formulaRepo, conceptRepo, pathRepo, checkpointRepo, mock.NewMockProvider())
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}
	defer pipeline.Release()

	added, err := pipeline.Ingest(context.Background(), nil)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(added) != 0 {
		t.Fatalf("Expected no formulas, got %d", len(added))
	}
}

func TestPipelineIngestAfterRelease(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	checkpointRepo := badgerstore.NewCheckpointRepository(backend)
	pipeline, err := NewPipeline(formulaRepo, conceptRepo, pathRepo, checkpointRepo, mock.NewMockProvider())
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}
	pipeline.Release()

	// Submitting to released pools fails; the failed submits must not
	// leave Wait blocked.
	added, err := pipeline.Ingest(context.Background(), []CorpusEntry{
		{DocId: "doc-1", Latex: `x+y`},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("Expected 1 formula, got %d", len(added))
	}

	done := make(chan struct{})
	go func() {
		pipeline.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after failed submits")
	}
}

func TestNewPipelineValidation(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	checkpointRepo := badgerstore.NewCheckpointRepository(backend)
	provider := mock.NewMockProvider()

	if _, err := NewPipeline(nil, conceptRepo, pathRepo, checkpointRepo, provider); err != ErrFormulaRepositoryRequired {
		t.Fatalf("Expected ErrFormulaRepositoryRequired, got %v", err)
	}
	if _, err := NewPipeline(formulaRepo, nil, pathRepo, checkpointRepo, provider); err != ErrConceptRepositoryRequired {
		t.Fatalf("Expected ErrConceptRepositoryRequired, got %v", err)
	}
	if _, err := NewPipeline(formulaRepo, conceptRepo, nil, checkpointRepo, provider); err != ErrPathRepositoryRequired {
		t.Fatalf("Expected ErrPathRepositoryRequired, got %v", err)
	}
	if _, err := NewPipeline(formulaRepo, conceptRepo, pathRepo, nil, provider); err != ErrCheckpointRepositoryRequired {
		t.Fatalf("Expected ErrCheckpointRepositoryRequired, got %v", err)
	}
	if _, err := NewPipeline(formulaRepo, conceptRepo, pathRepo, checkpointRepo, nil); err != ErrAIProviderRequired {
		t.Fatalf("Expected ErrAIProviderRequired, got %v", err)
	}
}
