package badger

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/storage"
)

// PathRepository implements storage.PathRepository for BadgerDB.
// Posting lists are stored as one key per (path, formula) pair so that
// document frequency is simply the length of a prefix scan.
type PathRepository struct {
	backend *Backend
}

var _ storage.PathRepository = (*PathRepository)(nil)

// NewPathRepository creates a new PathRepository.
func NewPathRepository(backend *Backend) *PathRepository {
	return &PathRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *PathRepository) Close() error {
	return nil
}

// AddPostings records the term frequencies of a formula's paths.
func (r *PathRepository) AddPostings(ctx context.Context, formulaID core.ID, pathCounts map[string]int) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for path, tf := range pathCounts {
			key := makePathPostingKey(core.HashContent(path), formulaID)
			posting := &core.Posting{FormulaId: formulaID, TF: tf}
			if err := tx.Set(key, storage.MarshalPosting(posting)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeletePostings removes a formula from the posting lists of the given paths.
func (r *PathRepository) DeletePostings(ctx context.Context, formulaID core.ID, paths []string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, path := range paths {
			key := makePathPostingKey(core.HashContent(path), formulaID)
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetPostings retrieves the posting list for a path. The list length is
// the path's document frequency.
func (r *PathRepository) GetPostings(ctx context.Context, path string) ([]core.Posting, error) {
	var postings []core.Posting
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialPathPostingKey(core.HashContent(path))
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || !bytes.HasPrefix(key, startKey) {
				break
			}

			var posting *core.Posting
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				posting, err = storage.UnmarshalPosting(val)
				return err
			}); err != nil {
				return err
			}
			postings = append(postings, *posting)
		}
		return nil
	}, false)
	return postings, err
}
