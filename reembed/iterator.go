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

	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/storage"
)

const (
	// DefaultBatchSize is the default number of formulas to fetch in each batch
	DefaultBatchSize = 100
)

// FormulaIterator iterates over the corpus in ID order, one batch at a
// time. Batches are fetched lazily so the full corpus is never held in
// memory.
type FormulaIterator struct {
	repo      storage.FormulaRepository
	batchSize int
}

// NewFormulaIterator creates a new formula iterator.
// batchSize: number of formulas to fetch in each batch (must be > 0)
func NewFormulaIterator(repo storage.FormulaRepository, batchSize int) *FormulaIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &FormulaIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over all formulas with ID > afterId, calling fn for
// each batch. Iteration stops on first error from fn or when the corpus
// is exhausted. Context cancellation is checked between batches.
func (it *FormulaIterator) ForEach(ctx context.Context, afterId core.ID, fn func([]*core.Formula) error) error {
	lastId := afterId
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := it.repo.GetFormulasAfter(ctx, lastId, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}

		lastId = batch[len(batch)-1].Id
	}
}
