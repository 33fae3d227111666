package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/storage"
)

// FormulaRepository implements storage.FormulaRepository for BadgerDB.
type FormulaRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.FormulaRepository = (*FormulaRepository)(nil)

// NewFormulaRepository creates a new FormulaRepository.
func NewFormulaRepository(backend *Backend) (*FormulaRepository, error) {
	idSeq, err := backend.GetSequence(formulaIDSeq)
	if err != nil {
		return nil, err
	}

	return &FormulaRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *FormulaRepository) Close() error {
	return r.idSeq.Release()
}

// FindSimilar delegates to the backend.
func (r *FormulaRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *FormulaRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddFormulas adds one or more formulas to storage.
func (r *FormulaRepository) AddFormulas(ctx context.Context, formulas ...*core.Formula) ([]*core.Formula, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, formula := range formulas {
			// Always generate new ID from sequence
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			formula.Id = core.ID(nextID)

			formula.InsertedAt = time.Now().UTC()
			formula.UpdatedAt = formula.InsertedAt

			// Store primary record
			key := makeFormulaKey(formula.Id)
			value := storage.MarshalFormula(formula)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			if err := r.updateHashIndexes(tx, formula); err != nil {
				return err
			}
			if err := r.updateConceptIndex(tx, formula); err != nil {
				return err
			}
		}
		return r.adjustCount(tx, len(formulas))
	}, true)

	return formulas, err
}

// UpdateFormulas updates existing formulas.
func (r *FormulaRepository) UpdateFormulas(ctx context.Context, formulas ...*core.Formula) ([]*core.Formula, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, formula := range formulas {
			key := makeFormulaKey(formula.Id)

			// Read old record to detect index changes
			old, err := r.readFormula(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			formula.UpdatedAt = time.Now().UTC()

			value := storage.MarshalFormula(formula)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Re-index hash buckets if fingerprints changed
			if old.LatexHash != formula.LatexHash || old.SkelHash != formula.SkelHash {
				if err := r.deleteHashIndexes(tx, old); err != nil {
					return err
				}
				if err := r.updateHashIndexes(tx, formula); err != nil {
					return err
				}
			}

			// Re-index concepts if they changed
			if !conceptsEqual(old.Concepts, formula.Concepts) {
				if err := r.deleteConceptIndex(tx, old); err != nil {
					return err
				}
				if err := r.updateConceptIndex(tx, formula); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
	if errors.Is(err, badger.ErrConflict) {
		return nil, fmt.Errorf("%w: %v", storage.ErrConflict, err)
	}

	return formulas, err
}

// MutateFormulas applies fn to each stored formula and persists the result.
// The read and the write happen in one transaction, so the read set is
// tracked and a conflicting concurrent commit is reported as
// storage.ErrConflict instead of being overwritten. Missing IDs are skipped.
func (r *FormulaRepository) MutateFormulas(ctx context.Context, fn func(*core.Formula) error, ids ...core.ID) ([]*core.Formula, error) {
	var mutated []*core.Formula
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		mutated = mutated[:0]
		for _, id := range ids {
			key := makeFormulaKey(id)

			formula, err := r.readFormula(tx, key)
			if err != nil {
				return err
			}
			if formula == nil {
				continue
			}

			// Snapshot for index comparison. fn may replace or grow the
			// concept slice, so clone it.
			old := *formula
			old.Concepts = slices.Clone(formula.Concepts)

			if err := fn(formula); err != nil {
				return err
			}
			formula.UpdatedAt = time.Now().UTC()

			value := storage.MarshalFormula(formula)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			if old.LatexHash != formula.LatexHash || old.SkelHash != formula.SkelHash {
				if err := r.deleteHashIndexes(tx, &old); err != nil {
					return err
				}
				if err := r.updateHashIndexes(tx, formula); err != nil {
					return err
				}
			}

			if !conceptsEqual(old.Concepts, formula.Concepts) {
				if err := r.deleteConceptIndex(tx, &old); err != nil {
					return err
				}
				if err := r.updateConceptIndex(tx, formula); err != nil {
					return err
				}
			}
			mutated = append(mutated, formula)
		}
		return tx.Commit()
	}, true)
	if errors.Is(err, badger.ErrConflict) {
		return nil, fmt.Errorf("%w: %v", storage.ErrConflict, err)
	}

	return mutated, err
}

// DeleteFormulas removes formulas by their IDs.
// Path postings are owned by the PathRepository and removed separately.
func (r *FormulaRepository) DeleteFormulas(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeFormulaKey(id)

			formula, err := r.readFormula(tx, key)
			if err != nil {
				return err
			}
			if formula == nil {
				return storage.ErrNotFound
			}

			if err := r.deleteHashIndexes(tx, formula); err != nil {
				return err
			}
			if err := r.deleteConceptIndex(tx, formula); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return r.adjustCount(tx, -len(ids))
	}, true)
}

// GetFormula retrieves a single formula by ID.
func (r *FormulaRepository) GetFormula(ctx context.Context, id core.ID) (*core.Formula, error) {
	var result *core.Formula
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeFormulaKey(id)
		var err error
		result, err = r.readFormula(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetFormulas retrieves multiple formulas by their IDs.
func (r *FormulaRepository) GetFormulas(ctx context.Context, ids ...core.ID) ([]*core.Formula, error) {
	var result []*core.Formula
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeFormulaKey(id)
			formula, err := r.readFormula(tx, key)
			if err != nil {
				return err
			}
			if formula != nil {
				result = append(result, formula)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetFormulasAfter retrieves up to limit formulas with ID > afterId in
// ascending ID order. Primary keys are BigEndian, so a seek positions
// the iterator exactly.
func (r *FormulaRepository) GetFormulasAfter(ctx context.Context, afterId core.ID, limit int) ([]*core.Formula, error) {
	var results []*core.Formula
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(formulaRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		startKey := makeFormulaKey(afterId + 1)
		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			var formula *core.Formula
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				formula, err = storage.UnmarshalFormula(val)
				return err
			}); err != nil {
				return err
			}
			if formula != nil {
				results = append(results, formula)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetByLatexHash retrieves IDs of formulas in a latex-hash bucket.
func (r *FormulaRepository) GetByLatexHash(ctx context.Context, hash core.Hash) ([]core.ID, error) {
	return r.getHashBucket(formulaLatexHashPrefix, hash)
}

// GetBySkelHash retrieves IDs of formulas in a skeleton-hash bucket.
func (r *FormulaRepository) GetBySkelHash(ctx context.Context, hash core.Hash) ([]core.ID, error) {
	return r.getHashBucket(formulaSkelHashPrefix, hash)
}

func (r *FormulaRepository) getHashBucket(prefix string, hash core.Hash) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialHashBucketKey(prefix, hash)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || !bytes.HasPrefix(key, startKey) {
				break
			}

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	}, false)
	return ids, err
}

// IterateLatexHashBuckets visits each distinct latex-hash bucket with the
// IDs it contains. Buckets are contiguous because keys group by hash.
func (r *FormulaRepository) IterateLatexHashBuckets(ctx context.Context, fn func(hash core.Hash, ids []core.ID) bool) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(formulaLatexHashPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		var (
			current    core.Hash
			currentIDs []core.ID
			started    bool
		)

		flush := func() bool {
			if !started || len(currentIDs) == 0 {
				return true
			}
			return fn(current, currentIDs)
		}

		for iter.Rewind(); iter.Valid(); iter.Next() {
			hash := hashFromBucketKey(formulaLatexHashPrefix, iter.Item().Key())

			if started && hash != current {
				if !flush() {
					return nil
				}
				currentIDs = nil
			}
			current = hash
			started = true

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			currentIDs = append(currentIDs, id)
		}

		flush()
		return nil
	}, false)
}

// GetFormulasByConcept retrieves IDs of formulas referencing a concept.
func (r *FormulaRepository) GetFormulasByConcept(ctx context.Context, conceptID core.ID) ([]core.ID, error) {
	var formulaIDs []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialFormulaConceptKey(conceptID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || !bytes.HasPrefix(key, startKey) {
				break
			}

			var formulaID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				formulaID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			formulaIDs = append(formulaIDs, formulaID)
		}
		return nil
	}, false)

	return formulaIDs, err
}

// Count returns the number of formulas in the corpus.
func (r *FormulaRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		count, err = readCount(tx)
		return err
	}, false)
	return count, err
}

// Helper methods

// readFormula reads a formula from the transaction.
func (r *FormulaRepository) readFormula(tx *badger.Txn, key []byte) (*core.Formula, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var formula *core.Formula
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		formula, unmarshalErr = storage.UnmarshalFormula(val)
		return unmarshalErr
	})
	return formula, err
}

// updateHashIndexes adds hash bucket entries for a formula.
func (r *FormulaRepository) updateHashIndexes(tx *badger.Txn, formula *core.Formula) error {
	if formula.LatexHash != 0 {
		key := makeHashBucketKey(formulaLatexHashPrefix, formula.LatexHash, formula.Id)
		if err := tx.Set(key, storage.MarshalID(formula.Id)); err != nil {
			return err
		}
	}
	if formula.SkelHash != 0 {
		key := makeHashBucketKey(formulaSkelHashPrefix, formula.SkelHash, formula.Id)
		if err := tx.Set(key, storage.MarshalID(formula.Id)); err != nil {
			return err
		}
	}
	return nil
}

// deleteHashIndexes removes hash bucket entries for a formula.
func (r *FormulaRepository) deleteHashIndexes(tx *badger.Txn, formula *core.Formula) error {
	if formula.LatexHash != 0 {
		key := makeHashBucketKey(formulaLatexHashPrefix, formula.LatexHash, formula.Id)
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	if formula.SkelHash != 0 {
		key := makeHashBucketKey(formulaSkelHashPrefix, formula.SkelHash, formula.Id)
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// updateConceptIndex adds concept index entries for a formula.
func (r *FormulaRepository) updateConceptIndex(tx *badger.Txn, formula *core.Formula) error {
	for _, conceptRef := range formula.Concepts {
		key := makeFormulaConceptKey(conceptRef.ConceptId, formula.Id)
		if err := tx.Set(key, storage.MarshalID(formula.Id)); err != nil {
			return err
		}
	}
	return nil
}

// deleteConceptIndex removes concept index entries for a formula.
func (r *FormulaRepository) deleteConceptIndex(tx *badger.Txn, formula *core.Formula) error {
	for _, conceptRef := range formula.Concepts {
		key := makeFormulaConceptKey(conceptRef.ConceptId, formula.Id)
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// adjustCount updates the corpus counter and commits the transaction.
func (r *FormulaRepository) adjustCount(tx *badger.Txn, delta int) error {
	count, err := readCount(tx)
	if err != nil {
		return err
	}
	count += delta
	if count < 0 {
		count = 0
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(count))
	if err := tx.Set([]byte(formulaCountKey), buf); err != nil {
		return err
	}
	return tx.Commit()
}

// readCount reads the corpus counter, defaulting to zero.
func readCount(tx *badger.Txn) (int, error) {
	item, err := tx.Get([]byte(formulaCountKey))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}
	var count int
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return storage.ErrTruncatedData
		}
		count = int(binary.BigEndian.Uint64(val))
		return nil
	})
	return count, err
}

// conceptsEqual compares two concept slices for equality.
func conceptsEqual(a, b []core.ConceptRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ConceptId != b[i].ConceptId || a[i].Weight != b[i].Weight {
			return false
		}
	}
	return true
}
