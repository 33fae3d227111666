package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/jonewei/me-ir/core"
)

// Key prefixes for different data types
const (
	formulaRecordPrefix    = "forrec"
	formulaLatexHashPrefix = "forlh"
	formulaSkelHashPrefix  = "forsh"
	formulaConceptPrefix   = "forcon"
	pathPostingPrefix      = "forpth"
	formulaCountKey        = "forcnt"
	formulaIDSeq           = "forseq"
	conceptRecordPrefix    = "conrec"
	conceptTypeNamePrefix  = "contyna"
)

// makeFormulaKey generates a key for a formula by ID.
// The ID is BigEndian so primary keys sort in ID order for range scans.
func makeFormulaKey(id core.ID) []byte {
	prefix := formulaRecordPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeHashBucketKey generates a composite key for a hash bucket index.
// Format: prefix:hash:id, both BigEndian so buckets group contiguously.
func makeHashBucketKey(prefix string, hash core.Hash, id core.ID) []byte {
	p := prefix + ":"
	buf := make([]byte, len(p)+16)
	offset := copy(buf, p)
	binary.BigEndian.PutUint64(buf[offset:], uint64(hash))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialHashBucketKey generates a partial key covering one hash bucket.
func makePartialHashBucketKey(prefix string, hash core.Hash) []byte {
	p := prefix + ":"
	buf := make([]byte, len(p)+8)
	offset := copy(buf, p)
	binary.BigEndian.PutUint64(buf[offset:], uint64(hash))
	return buf
}

// makeFormulaConceptKey generates a composite key for the concept index.
// Format: prefix:conceptID:formulaID
func makeFormulaConceptKey(conceptID, formulaID core.ID) []byte {
	prefix := formulaConceptPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(conceptID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(formulaID))
	return buf
}

// makePartialFormulaConceptKey generates a partial key for concept queries.
func makePartialFormulaConceptKey(conceptID core.ID) []byte {
	prefix := formulaConceptPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(conceptID))
	return buf
}

// makePathPostingKey generates a composite key for the path inverted index.
// Format: prefix:pathHash:formulaID
func makePathPostingKey(pathHash core.Hash, formulaID core.ID) []byte {
	prefix := pathPostingPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(pathHash))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(formulaID))
	return buf
}

// makePartialPathPostingKey generates a partial key covering one posting list.
func makePartialPathPostingKey(pathHash core.Hash) []byte {
	prefix := pathPostingPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(pathHash))
	return buf
}

// makeConceptKey generates a key for a concept by ID.
func makeConceptKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", conceptRecordPrefix, id))
}

// makeConceptTupleKey generates a composite key for concept lookup by (type, name).
// Format: prefix:type:name
func makeConceptTupleKey(name string, conceptType core.ConceptType) []byte {
	prefix := conceptTypeNamePrefix + ":"
	buf := make([]byte, len(prefix)+len(conceptType)+len(name))
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], conceptType)
	copy(buf[offset:], name)
	return buf
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", processorType))
}

// hashFromBucketKey extracts the hash component from a bucket index key.
func hashFromBucketKey(prefix string, key []byte) core.Hash {
	offset := len(prefix) + 1
	return core.Hash(binary.BigEndian.Uint64(key[offset : offset+8]))
}
