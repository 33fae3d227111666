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

package meir

import (
	"context"
	"log/slog"

	"github.com/jonewei/me-ir/ai"
	"github.com/jonewei/me-ir/ai/openai"
	"github.com/jonewei/me-ir/fcg"
	"github.com/jonewei/me-ir/index"
	"github.com/jonewei/me-ir/ingestion"
	"github.com/jonewei/me-ir/search"
	"github.com/jonewei/me-ir/storage"
	"github.com/jonewei/me-ir/storage/badger"
)

type Database struct {
	backend        *badger.Backend
	formulaRepo    storage.FormulaRepository
	conceptRepo    storage.ConceptRepository
	pathRepo       storage.PathRepository
	checkpointRepo storage.CheckpointRepository
	provider       ai.Provider
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider uses a pre-built provider instead of constructing one
// from the AI config. Useful for tests.
func WithProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the backend in memory, discarding all data on close.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	formulaRepo, err := badger.NewFormulaRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	conceptRepo, err := badger.NewConceptRepository(backend)
	if err != nil {
		formulaRepo.Close()
		backend.Close()
		return nil, err
	}

	pathRepo := badger.NewPathRepository(backend)
	checkpointRepo := badger.NewCheckpointRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			pathRepo.Close()
			conceptRepo.Close()
			formulaRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:        backend,
		formulaRepo:    formulaRepo,
		conceptRepo:    conceptRepo,
		pathRepo:       pathRepo,
		checkpointRepo: checkpointRepo,
		provider:       provider,
		logger:         slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.pathRepo.Close(); err != nil {
		db.logger.Error("error closing path repository", "err", err)
		return err
	}
	if err := db.conceptRepo.Close(); err != nil {
		db.logger.Error("error closing concept repository", "err", err)
		return err
	}
	if err := db.formulaRepo.Close(); err != nil {
		db.logger.Error("error closing formula repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) FormulaRepository() storage.FormulaRepository {
	return db.formulaRepo
}

func (db *Database) ConceptRepository() storage.ConceptRepository {
	return db.conceptRepo
}

func (db *Database) PathRepository() storage.PathRepository {
	return db.pathRepo
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpointRepo
}

func (db *Database) Provider() ai.Provider {
	return db.provider
}

func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.formulaRepo, db.conceptRepo, db.pathRepo, db.checkpointRepo, db.provider, opts...)
}

// NewSearcher builds a searcher over the current corpus. The concept
// co-occurrence graph is constructed from stored formulas, so ingestion
// should be complete before calling this.
func (db *Database) NewSearcher(ctx context.Context, opts ...search.Option) (*search.Searcher, error) {
	recall, err := index.NewRecall(db.formulaRepo, db.pathRepo)
	if err != nil {
		return nil, err
	}

	graph, err := fcg.BuildGraph(ctx, db.formulaRepo, db.logger)
	if err != nil {
		return nil, err
	}

	opts = append([]search.Option{search.WithReranker(fcg.NewReranker(graph))}, opts...)
	return search.NewSearcher(db.formulaRepo, db.conceptRepo, recall, db.provider, opts...)
}
