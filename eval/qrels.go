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

package eval

import (
	"bufio"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Qrels holds graded relevance judgments: query ID to document ID to
// relevance score.
type Qrels map[string]map[string]int

// LoadQrels reads TREC qrel lines of the form
//
//	qid iteration docid relevance
//
// separated by tabs or spaces. Malformed lines are logged and skipped
// rather than failing the whole load; judgment files in the wild are
// rarely pristine.
func LoadQrels(r io.Reader) (Qrels, error) {
	qrels := make(Qrels)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			slog.Warn("skipping malformed qrel line", "line", lineNum, "fields", len(fields))
			continue
		}

		qid, docId := fields[0], fields[2]
		rel, err := strconv.Atoi(fields[3])
		if err != nil {
			slog.Warn("skipping qrel line with invalid relevance", "line", lineNum, "relevance", fields[3])
			continue
		}

		if qrels[qid] == nil {
			qrels[qid] = make(map[string]int)
		}
		qrels[qid][docId] = rel
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return qrels, nil
}

// JudgmentCount returns the total number of relevance judgments.
func (q Qrels) JudgmentCount() int {
	total := 0
	for _, docs := range q {
		total += len(docs)
	}
	return total
}
