// Copyright 2025 The me-ir Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jonewei/me-ir/ai"
	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/storage"
)

// ProcessorType identifies reembedding checkpoints in storage.
const ProcessorType = "reembed"

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of formulas to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of formulas)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Resume continues from the last saved checkpoint instead of
	// starting from the beginning of the corpus
	Resume bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates the reembedding of all formulas in a corpus.
type Reembedder struct {
	repo        storage.FormulaRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.Embedder
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *FormulaIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.FormulaRepository, checkpoints storage.CheckpointRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewFormulaIterator(repo, config.BatchSize)

	return &Reembedder{
		repo:        repo,
		checkpoints: checkpoints,
		embedder:    embedder,
		config:      config,
		progress:    progress,
		processor:   processor,
		iterator:    iterator,
	}
}

// Run executes the reembedding operation.
// All formulas in the corpus are reembedded with the configured embedder.
// A checkpoint is saved after each batch so an interrupted run can resume.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	total, err := r.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count formulas: %w", err)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No formulas found in corpus (0 formulas)\n")
		return nil
	}

	var startAfter core.ID
	if r.config.Resume && r.checkpoints != nil {
		chk, err := r.checkpoints.LoadCheckpoint(ctx, ProcessorType)
		if err != nil {
			return fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if chk != nil {
			startAfter = chk.LastId
			fmt.Fprintf(r.progress, "Resuming after formula %d\n", startAfter)
		}
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d formulas (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0

	err = r.iterator.ForEach(ctx, startAfter, func(formulas []*core.Formula) error {
		if err := r.processor.Process(ctx, formulas); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		if r.checkpoints != nil {
			chk := &core.Checkpoint{
				ProcessorType: ProcessorType,
				LastId:        formulas[len(formulas)-1].Id,
			}
			if err := r.checkpoints.SaveCheckpoint(ctx, chk); err != nil {
				return fmt.Errorf("failed to save checkpoint: %w", err)
			}
		}

		processed += len(formulas)
		tracker.Update(processed)

		return nil
	})

	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d formulas in %v (%.1f formulas/sec)\n",
		processed, elapsed.Round(time.Second), float64(processed)/elapsed.Seconds())

	return nil
}
