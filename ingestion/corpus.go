package ingestion

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// CorpusEntry is one formula in a JSONL corpus file.
type CorpusEntry struct {
	// FormulaId is the optional external formula identifier. Relevance
	// judgments reference formulas at this granularity, so when set it
	// becomes the stored retrieval identifier instead of DocId.
	FormulaId string `json:"formula_id,omitempty"`

	// DocId identifies the source document.
	DocId string `json:"doc_id"`

	// Latex is the formula source.
	Latex string `json:"latex"`

	// MathML is the optional presentation markup for skeleton extraction.
	MathML string `json:"mathml,omitempty"`
}

// maxCorpusLineBytes bounds a single corpus line. Some MathML payloads
// run long, so this is well above bufio's default.
const maxCorpusLineBytes = 1 << 20

// ReadCorpus parses a JSONL corpus stream. Blank lines are skipped;
// a malformed line fails the whole read with its line number.
func ReadCorpus(r io.Reader) ([]CorpusEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxCorpusLineBytes)

	var entries []CorpusEntry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry CorpusEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("corpus line %d: %w", lineNo, err)
		}
		if entry.Latex == "" {
			return nil, fmt.Errorf("corpus line %d: missing latex", lineNo)
		}
		if entry.DocId == "" && entry.FormulaId == "" {
			return nil, fmt.Errorf("corpus line %d: missing doc_id", lineNo)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
