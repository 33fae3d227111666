package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Formula IDs come from database sequences; concept IDs are content-based.
type ID uint64

// Hash is a 64-bit structural fingerprint of a normalized string.
type Hash uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	return ID(hash64(text))
}

// HashContent generates a structural fingerprint from text using BLAKE2b hashing.
func HashContent(text string) Hash {
	return Hash(hash64(text))
}

func hash64(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// ConceptType classifies a math concept extracted from a formula.
type ConceptType string

const (
	// ConceptTypeOperator covers big operators such as \sum and \int.
	ConceptTypeOperator ConceptType = "operator"
	// ConceptTypeFunction covers named functions such as \sin and \log.
	ConceptTypeFunction ConceptType = "function"
	// ConceptTypeRelation covers relational symbols such as = and \leq.
	ConceptTypeRelation ConceptType = "relation"
	// ConceptTypeStructure covers layout constructs such as \frac and matrix.
	ConceptTypeStructure ConceptType = "structure"
	// ConceptTypeSymbol covers standalone symbols such as \infty and \pi.
	ConceptTypeSymbol ConceptType = "symbol"
)

// ConceptTypes lists the valid categories for extracted math concepts.
var ConceptTypes = []ConceptType{
	ConceptTypeOperator,
	ConceptTypeFunction,
	ConceptTypeRelation,
	ConceptTypeStructure,
	ConceptTypeSymbol,
}

// Formula represents a single indexed mathematical expression.
// It is enriched with embeddings, concepts and path statistics during processing.
type Formula struct {
	Id         ID
	DocId      string // Identifier of the document the formula appears in
	Latex      string // Raw LaTeX as found in the source
	LatexNorm  string // Normalized LaTeX used for hashing and embedding
	MathMLSkel string // Comma-joined MathML tag skeleton, may be empty
	LatexHash  Hash   // Fingerprint of LatexNorm
	SkelHash   Hash   // Fingerprint of MathMLSkel, zero when no skeleton
	PathCount  int    // Number of symbol paths (populated by processors)
	Concepts   []ConceptRef
	Vector     []float32 // Embedding vector (populated by processors)
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Concept represents a math concept occurring in formulas, such as an
// operator, function or structural construct.
type Concept struct {
	Id         ID
	Name       string
	Type       ConceptType
	Vector     []float32 // Embedding vector for the concept (populated by processors)
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Tuple returns a string representation of the concept as "(Type,Name)".
// This is used for generating deterministic IDs.
func (c *Concept) Tuple() string {
	return "(" + string(c.Type) + "," + c.Name + ")"
}

// ConceptRef represents a reference to a concept with a weight score.
type ConceptRef struct {
	ConceptId ID
	Weight    float32 // Extraction weight in (0, 1]
}

// Posting is one entry of a path posting list.
type Posting struct {
	FormulaId ID
	TF        int // Occurrences of the path within the formula
}

// Query is a retrieval request. MathMLSkel is optional.
type Query struct {
	Id         string
	Latex      string
	MathMLSkel string
}

// SearchResult represents a retrieval result with the full formula and its score.
type SearchResult struct {
	Formula *Formula
	Score   float32
}

// Checkpoint records how far a processor has progressed through the corpus.
type Checkpoint struct {
	ProcessorType string
	LastId        ID
	UpdatedAt     time.Time
}
