package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/fcg"
	"github.com/jonewei/me-ir/latex"
	"github.com/jonewei/me-ir/storage"
)

// structureProcessorType identifies the structure processor in checkpoints.
const structureProcessorType = "structure"

// structureProcessor builds the structural indexes for stored formulas:
// path postings and concept assignments.
type structureProcessor struct {
	formulaRepository    storage.FormulaRepository
	conceptRepository    storage.ConceptRepository
	pathRepository       storage.PathRepository
	checkpointRepository storage.CheckpointRepository
	pathLength           int
	logger               *slog.Logger

	mu     sync.Mutex
	lastID core.ID
}

var _ processor = (*structureProcessor)(nil)

// newStructureProcessor creates a new structure processor.
func newStructureProcessor(
	formulaRepository storage.FormulaRepository,
	conceptRepository storage.ConceptRepository,
	pathRepository storage.PathRepository,
	checkpointRepository storage.CheckpointRepository,
	pathLength int,
	logger *slog.Logger,
) (processor, error) {
	if formulaRepository == nil {
		return nil, fmt.Errorf("formula repository required")
	}
	if conceptRepository == nil {
		return nil, fmt.Errorf("concept repository required")
	}
	if pathRepository == nil {
		return nil, fmt.Errorf("path repository required")
	}
	if checkpointRepository == nil {
		return nil, fmt.Errorf("checkpoint repository required")
	}
	if pathLength < 1 {
		pathLength = latex.DefaultPathLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &structureProcessor{
		formulaRepository:    formulaRepository,
		conceptRepository:    conceptRepository,
		pathRepository:       pathRepository,
		checkpointRepository: checkpointRepository,
		pathLength:           pathLength,
		logger:               logger.With("processor", "structure"),
	}, nil
}

// process extracts paths and concepts for the specified formulas and
// stores them.
func (sp *structureProcessor) process(ctx context.Context, ids ...core.ID) error {
	sp.logger.Info("processing formulas for structure", "formulas", len(ids))

	slices.Sort(ids)

	formulas, err := sp.formulaRepository.GetFormulas(ctx, ids...)
	if err != nil {
		sp.logger.Error("error retrieving formulas", "err", err)
		return err
	}
	if len(formulas) == 0 {
		return nil
	}

	pathTotals := make(map[core.ID]int, len(formulas))
	conceptRefs := make(map[core.ID][]core.ConceptRef, len(formulas))
	for _, formula := range formulas {
		// Path postings over the normalized LaTeX. The stored path count
		// is the total number of path occurrences, used to normalize
		// TF-IDF scores at query time.
		pathCounts := latex.PathCounts(formula.LatexNorm, sp.pathLength)
		if len(pathCounts) > 0 {
			if err := sp.pathRepository.AddPostings(ctx, formula.Id, pathCounts); err != nil {
				sp.logger.Error("error adding path postings", "formulaID", formula.Id, "err", err)
				return err
			}
		}
		total := 0
		for _, tf := range pathCounts {
			total += tf
		}
		pathTotals[formula.Id] = total

		// Concept assignment
		extracted := fcg.ExtractConcepts(formula.LatexNorm)
		refs := make([]core.ConceptRef, 0, len(extracted))
		for _, ec := range extracted {
			concept, err := sp.conceptRepository.GetOrCreateConcept(ctx, ec.Name, ec.Type, nil)
			if err != nil {
				sp.logger.Warn("error resolving concept", "name", ec.Name, "type", ec.Type, "err", err)
				continue
			}
			refs = append(refs, core.ConceptRef{ConceptId: concept.Id, Weight: ec.Weight})
		}
		conceptRefs[formula.Id] = refs
	}

	// The embedding processor updates the same records concurrently.
	// MutateFormulas rewrites each record in a single read-write
	// transaction and only path count and concepts are touched here, so
	// a conflicting commit is detected and the retry preserves the other
	// processor's fields.
	var updated []*core.Formula
	for attempt := 0; ; attempt++ {
		updated, err = sp.formulaRepository.MutateFormulas(ctx, func(f *core.Formula) error {
			if total, ok := pathTotals[f.Id]; ok {
				f.PathCount = total
			}
			if refs, ok := conceptRefs[f.Id]; ok {
				f.Concepts = refs
			}
			return nil
		}, ids...)
		if err == nil {
			break
		}
		if errors.Is(err, storage.ErrConflict) && attempt < maxConflictRetries {
			sp.logger.Debug("retrying after write conflict", "attempt", attempt+1)
			continue
		}
		return err
	}
	if len(updated) == 0 {
		return nil
	}

	highestID := updated[len(updated)-1].Id
	sp.mu.Lock()
	if highestID > sp.lastID {
		sp.lastID = highestID
	}
	sp.mu.Unlock()

	return nil
}

// checkpoint persists the highest processed formula ID.
func (sp *structureProcessor) checkpoint(ctx context.Context) error {
	sp.mu.Lock()
	lastID := sp.lastID
	sp.mu.Unlock()
	if lastID == 0 {
		return nil
	}
	return sp.checkpointRepository.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: structureProcessorType,
		LastId:        lastID,
	})
}
