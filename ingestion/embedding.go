package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/jonewei/me-ir/ai"
	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/storage"
)

// embeddingProcessorType identifies the embedding processor in checkpoints.
const embeddingProcessorType = "embedding"

// embeddingProcessor generates vectors for stored formulas.
type embeddingProcessor struct {
	formulaRepository    storage.FormulaRepository
	checkpointRepository storage.CheckpointRepository
	embedder             ai.Embedder
	logger               *slog.Logger

	mu     sync.Mutex
	lastID core.ID
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(
	formulaRepository storage.FormulaRepository,
	checkpointRepository storage.CheckpointRepository,
	embedder ai.Embedder,
	logger *slog.Logger,
) (processor, error) {
	if formulaRepository == nil {
		return nil, fmt.Errorf("formula repository required")
	}
	if checkpointRepository == nil {
		return nil, fmt.Errorf("checkpoint repository required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		formulaRepository:    formulaRepository,
		checkpointRepository: checkpointRepository,
		embedder:             embedder,
		logger:               logger.With("processor", "embeddings"),
	}, nil
}

// process generates embeddings for the specified formulas from their
// normalized LaTeX.
func (ep *embeddingProcessor) process(ctx context.Context, ids ...core.ID) error {
	ep.logger.Info("processing formulas for embeddings", "formulas", len(ids))

	// Sort first so checkpointing works correctly
	slices.Sort(ids)

	formulas, err := ep.formulaRepository.GetFormulas(ctx, ids...)
	if err != nil {
		ep.logger.Error("error retrieving formulas", "err", err)
		return err
	}
	if len(formulas) == 0 {
		return nil
	}

	texts := make([]string, len(formulas))
	for i, formula := range formulas {
		texts[i] = formula.LatexNorm
	}

	ep.logger.Debug("generating embeddings for formulas", "formulas", len(texts))
	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return err
	}

	if len(embeddings) != len(formulas) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(formulas), len(embeddings))
	}

	vectors := make(map[core.ID][]float32, len(formulas))
	for i, formula := range formulas {
		vectors[formula.Id] = normalizeVector(embeddings[i])
	}

	// The structure processor updates the same records concurrently.
	// MutateFormulas rewrites each record in a single read-write
	// transaction and only the vector is touched here, so a conflicting
	// commit is detected and the retry preserves the other processor's
	// fields.
	var updated []*core.Formula
	for attempt := 0; ; attempt++ {
		updated, err = ep.formulaRepository.MutateFormulas(ctx, func(f *core.Formula) error {
			if v, ok := vectors[f.Id]; ok {
				f.Vector = v
			}
			return nil
		}, ids...)
		if err == nil {
			break
		}
		if errors.Is(err, storage.ErrConflict) && attempt < maxConflictRetries {
			ep.logger.Debug("retrying after write conflict", "attempt", attempt+1)
			continue
		}
		return err
	}
	if len(updated) == 0 {
		return nil
	}

	highestID := updated[len(updated)-1].Id
	ep.mu.Lock()
	if highestID > ep.lastID {
		ep.lastID = highestID
	}
	ep.mu.Unlock()

	return nil
}

// checkpoint persists the highest processed formula ID.
func (ep *embeddingProcessor) checkpoint(ctx context.Context) error {
	ep.mu.Lock()
	lastID := ep.lastID
	ep.mu.Unlock()
	if lastID == 0 {
		return nil
	}
	return ep.checkpointRepository.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: embeddingProcessorType,
		LastId:        lastID,
	})
}

// normalizeVector scales a vector to unit length so dot products equal
// cosine similarity. Zero vectors are returned unchanged.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return v
	}
	norm := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= norm
	}
	return v
}
