package storage

import (
	"context"

	"github.com/jonewei/me-ir/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds formulas similar to the given vector.
	// Returns formulas with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// FormulaRepository provides operations for managing indexed formulas.
type FormulaRepository interface {
	Repository
	// AddFormulas adds one or more formulas to storage.
	// Generates new IDs from the sequence and sets InsertedAt timestamps.
	// Maintains the latex-hash, skeleton-hash and concept indices and the
	// corpus counter. Returns the formulas with IDs and timestamps populated.
	AddFormulas(ctx context.Context, formulas ...*core.Formula) ([]*core.Formula, error)

	// UpdateFormulas updates existing formulas.
	// Updates the UpdatedAt timestamp automatically and re-indexes when
	// hashes or concepts changed. Returns ErrNotFound if any formula
	// doesn't exist.
	UpdateFormulas(ctx context.Context, formulas ...*core.Formula) ([]*core.Formula, error)

	// MutateFormulas reads each formula, applies fn to it and persists the
	// result, all within a single transaction. Because the read and the
	// write share the transaction, a concurrent commit touching the same
	// records surfaces as ErrConflict rather than silently overwriting
	// their fields. Missing IDs are skipped. Returns the mutated formulas.
	MutateFormulas(ctx context.Context, fn func(*core.Formula) error, ids ...core.ID) ([]*core.Formula, error)

	// DeleteFormulas removes formulas by their IDs.
	// Also removes associated index entries.
	// Returns ErrNotFound if any formula doesn't exist.
	DeleteFormulas(ctx context.Context, ids ...core.ID) error

	// GetFormula retrieves a single formula by ID.
	// Returns ErrNotFound if the formula doesn't exist.
	GetFormula(ctx context.Context, id core.ID) (*core.Formula, error)

	// GetFormulas retrieves multiple formulas by their IDs.
	// Returns only the formulas that exist (no error for missing formulas).
	GetFormulas(ctx context.Context, ids ...core.ID) ([]*core.Formula, error)

	// GetFormulasAfter retrieves up to limit formulas with ID > afterId,
	// in ascending ID order. Used for batched corpus iteration.
	GetFormulasAfter(ctx context.Context, afterId core.ID, limit int) ([]*core.Formula, error)

	// GetByLatexHash retrieves IDs of formulas whose normalized LaTeX
	// fingerprint equals hash.
	GetByLatexHash(ctx context.Context, hash core.Hash) ([]core.ID, error)

	// GetBySkelHash retrieves IDs of formulas whose MathML skeleton
	// fingerprint equals hash.
	GetBySkelHash(ctx context.Context, hash core.Hash) ([]core.ID, error)

	// IterateLatexHashBuckets visits each distinct latex-hash bucket with
	// the IDs it contains, in hash order. Iteration stops when fn returns
	// false.
	IterateLatexHashBuckets(ctx context.Context, fn func(hash core.Hash, ids []core.ID) bool) error

	// GetFormulasByConcept retrieves IDs of formulas referencing a concept.
	// Returns only formula IDs, not full records.
	GetFormulasByConcept(ctx context.Context, conceptID core.ID) ([]core.ID, error)

	// Count returns the number of formulas in the corpus.
	Count(ctx context.Context) (int, error)
}

// PathRepository provides operations for the path inverted index.
type PathRepository interface {
	// AddPostings records the term frequencies of a formula's paths.
	AddPostings(ctx context.Context, formulaID core.ID, pathCounts map[string]int) error

	// DeletePostings removes a formula's entries from the posting lists.
	DeletePostings(ctx context.Context, formulaID core.ID, paths []string) error

	// GetPostings retrieves the posting list for a path, ordered by
	// formula ID. The list length is the path's document frequency.
	GetPostings(ctx context.Context, path string) ([]core.Posting, error)

	// Close releases resources held by the repository.
	Close() error
}

// ConceptRepository provides operations for managing concepts.
type ConceptRepository interface {
	Repository
	// AddConcepts adds one or more concepts to storage.
	// Uses content-based IDs (IDFromContent of the concept tuple).
	// Sets InsertedAt timestamps. Returns the concepts with IDs and
	// timestamps populated.
	AddConcepts(ctx context.Context, concepts ...*core.Concept) ([]*core.Concept, error)

	// UpdateConcepts updates existing concepts.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any concept doesn't exist.
	UpdateConcepts(ctx context.Context, concepts ...*core.Concept) ([]*core.Concept, error)

	// DeleteConcepts removes concepts by their IDs.
	// Returns ErrNotFound if any concept doesn't exist.
	DeleteConcepts(ctx context.Context, ids ...core.ID) error

	// GetConcept retrieves a single concept by ID.
	// Returns ErrNotFound if the concept doesn't exist.
	GetConcept(ctx context.Context, id core.ID) (*core.Concept, error)

	// GetConcepts retrieves multiple concepts by their IDs.
	// Returns only the concepts that exist (no error for missing concepts).
	GetConcepts(ctx context.Context, ids ...core.ID) ([]*core.Concept, error)

	// FindConceptByNameAndType finds a concept by its name and type tuple.
	// Returns ErrNotFound if no matching concept exists.
	FindConceptByNameAndType(ctx context.Context, name string, conceptType core.ConceptType) (*core.Concept, error)

	// GetOrCreateConcept finds or creates a concept by name and type.
	// Thread-safe: handles concurrent creation attempts.
	GetOrCreateConcept(ctx context.Context, name string, conceptType core.ConceptType, vector []float32) (*core.Concept, error)

	// GetAllConcepts retrieves all concepts from storage.
	GetAllConcepts(ctx context.Context) ([]*core.Concept, error)
}

// CheckpointRepository persists processor progress.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)
}
