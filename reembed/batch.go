package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/jonewei/me-ir/ai"
	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/storage"
)

// BatchProcessor handles embedding generation for batches of formulas.
type BatchProcessor struct {
	repo           storage.FormulaRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.FormulaRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of formulas and updates them
// in the database. The normalized LaTeX is embedded, not the raw source.
// Vectors are normalized after embedding to ensure compatibility with
// cosine similarity.
func (bp *BatchProcessor) Process(ctx context.Context, formulas []*core.Formula) error {
	if len(formulas) == 0 {
		return nil
	}

	texts := make([]string, len(formulas))
	for i, formula := range formulas {
		texts[i] = formula.LatexNorm
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(formulas) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(formulas), len(embeddings))
	}

	for i := range formulas {
		formulas[i].Vector = NormalizeVector(embeddings[i])
	}

	_, err = bp.repo.UpdateFormulas(ctx, formulas...)
	if err != nil {
		return fmt.Errorf("failed to update formulas: %w", err)
	}

	return nil
}
