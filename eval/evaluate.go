package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/jonewei/me-ir/core"
)

// Searcher is the retrieval surface the evaluation loop drives.
type Searcher interface {
	FindMatches(ctx context.Context, query *core.Query, maxHits int) ([]*core.SearchResult, error)
}

// Query is one evaluation query.
type Query struct {
	Id    string
	Latex string `json:"latex"`
}

// LoadQuerySet reads a JSON object mapping query IDs to query bodies:
//
//	{"B.301": {"latex": "\\frac{a}{b}"}}
func LoadQuerySet(r io.Reader) ([]Query, error) {
	var raw map[string]Query
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode query set: %w", err)
	}

	queries := make([]Query, 0, len(raw))
	for qid, q := range raw {
		q.Id = qid
		queries = append(queries, q)
	}
	sort.Slice(queries, func(i, j int) bool { return queries[i].Id < queries[j].Id })
	return queries, nil
}

// Evaluate runs every query through the searcher and collects ranked
// document lists. A query that fails is logged and recorded with an
// empty result list so one bad query never aborts a long run.
func Evaluate(ctx context.Context, searcher Searcher, queries []Query, topK int, logger *slog.Logger) (Run, error) {
	if logger == nil {
		logger = slog.Default()
	}

	run := make(Run, len(queries))
	failed := 0

	for _, q := range queries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		results, err := searcher.FindMatches(ctx, &core.Query{Id: q.Id, Latex: q.Latex}, topK)
		if err != nil {
			logger.Error("query failed", "queryId", q.Id, "error", err)
			run[q.Id] = nil
			failed++
			continue
		}

		entries := make([]RunEntry, len(results))
		for i, r := range results {
			entries[i] = RunEntry{DocId: r.Formula.DocId, Score: r.Score}
		}
		run[q.Id] = entries
	}

	if failed > 0 {
		logger.Warn("some queries failed", "failed", failed, "total", len(queries))
	}

	return run, nil
}

// WriteTRECRun writes a run in the standard six-column TREC format:
//
//	qid Q0 docid rank score runid
//
// Queries are emitted in lexicographic order so output is stable.
func WriteTRECRun(w io.Writer, run Run, runId string) error {
	qids := make([]string, 0, len(run))
	for qid := range run {
		qids = append(qids, qid)
	}
	sort.Strings(qids)

	for _, qid := range qids {
		for rank, entry := range run[qid] {
			_, err := fmt.Fprintf(w, "%s Q0 %s %d %.6f %s\n", qid, entry.DocId, rank+1, entry.Score, runId)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
