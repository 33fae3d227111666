package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/jonewei/me-ir/ai"
	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/latex"
	"github.com/jonewei/me-ir/storage"
)

// Pipeline orchestrates the ingestion and enrichment of formulas.
// It manages concurrent processing of embeddings and structural indexing.
type Pipeline struct {
	formulaRepository storage.FormulaRepository
	embeddingPool     *ants.Pool
	structurePool     *ants.Pool
	embeddingProc     processor
	structureProc     processor
	pathLength        int
	logger            *slog.Logger

	wg sync.WaitGroup
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pools
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}
		if p.structurePool != nil {
			p.structurePool.Release()
		}

		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		structurePool, err := ants.NewPool(size)
		if err != nil {
			embeddingPool.Release()
			return err
		}

		p.embeddingPool = embeddingPool
		p.structurePool = structurePool
		return nil
	}
}

// WithPathLength sets the path n-gram length for structural indexing.
// Default is latex.DefaultPathLength.
func WithPathLength(length int) Option {
	return func(p *Pipeline) error {
		if length < 1 {
			length = latex.DefaultPathLength
		}
		p.pathLength = length
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	formulaRepository storage.FormulaRepository,
	conceptRepository storage.ConceptRepository,
	pathRepository storage.PathRepository,
	checkpointRepository storage.CheckpointRepository,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if formulaRepository == nil {
		return nil, ErrFormulaRepositoryRequired
	}
	if conceptRepository == nil {
		return nil, ErrConceptRepositoryRequired
	}
	if pathRepository == nil {
		return nil, ErrPathRepositoryRequired
	}
	if checkpointRepository == nil {
		return nil, ErrCheckpointRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	structurePool, err := ants.NewPool(poolSize)
	if err != nil {
		embeddingPool.Release()
		return nil, err
	}

	p := &Pipeline{
		formulaRepository: formulaRepository,
		embeddingPool:     embeddingPool,
		structurePool:     structurePool,
		pathLength:        latex.DefaultPathLength,
		logger:            slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create processors after options are applied (so they get final config)
	embeddingProc, err := newEmbeddingProcessor(formulaRepository, checkpointRepository, provider.Embedder(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	structureProc, err := newStructureProcessor(formulaRepository, conceptRepository,
		pathRepository, checkpointRepository, p.pathLength, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	p.embeddingProc = embeddingProc
	p.structureProc = structureProc

	return p, nil
}

// Ingest stores corpus entries as formulas and enriches them
// asynchronously. The stored record carries the normalized LaTeX and its
// fingerprints immediately; embeddings, path postings and concepts follow
// on the worker pools. Errors during async processing are logged but do
// not fail the ingestion. Call Wait to block until enrichment settles.
func (p *Pipeline) Ingest(ctx context.Context, entries []CorpusEntry) ([]*core.Formula, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	formulas := make([]*core.Formula, len(entries))
	for i, entry := range entries {
		norm, _ := latex.Normalize(entry.Latex)

		// Qrels judge individual formulas, so an explicit formula_id
		// takes over as the retrieval identifier.
		docID := entry.DocId
		if entry.FormulaId != "" {
			docID = entry.FormulaId
		}

		formula := &core.Formula{
			DocId:     docID,
			Latex:     entry.Latex,
			LatexNorm: norm,
			LatexHash: core.HashContent(norm),
		}
		if entry.MathML != "" {
			skel := latex.Skeleton(entry.MathML)
			if skel == "" {
				p.logger.Warn("no skeleton extracted", "docID", entry.DocId)
			} else {
				formula.MathMLSkel = skel
				formula.SkelHash = core.HashContent(skel)
			}
		}
		formulas[i] = formula
	}

	added, err := p.formulaRepository.AddFormulas(ctx, formulas...)
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return added, nil
	}

	ids := make([]core.ID, len(added))
	for i, formula := range added {
		ids[i] = formula.Id
	}

	// Submit for async processing. A failed submit must release its
	// waitgroup slot or Wait would block forever.
	p.wg.Add(1)
	if err := p.embeddingPool.Submit(func() {
		defer p.wg.Done()
		if err := p.embeddingProc.process(context.Background(), ids...); err != nil {
			p.logger.Error("error processing embeddings", "err", err)
			return
		}
		if err := p.embeddingProc.checkpoint(context.Background()); err != nil {
			p.logger.Error("error applying embedding checkpoint", "err", err)
		}
	}); err != nil {
		p.wg.Done()
		p.logger.Error("error submitting embedding work", "err", err)
	}

	p.wg.Add(1)
	if err := p.structurePool.Submit(func() {
		defer p.wg.Done()
		if err := p.structureProc.process(context.Background(), ids...); err != nil {
			p.logger.Error("error processing structure", "err", err)
			return
		}
		if err := p.structureProc.checkpoint(context.Background()); err != nil {
			p.logger.Error("error applying structure checkpoint", "err", err)
		}
	}); err != nil {
		p.wg.Done()
		p.logger.Error("error submitting structure work", "err", err)
	}

	return added, nil
}

// Wait blocks until all submitted enrichment work has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
	if p.structurePool != nil {
		p.structurePool.Release()
	}
}
