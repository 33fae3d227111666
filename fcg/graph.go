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

package fcg

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/storage"
)

// buildBatchSize is the number of formulas loaded per batch when
// constructing the graph from storage.
const buildBatchSize = 512

// Graph is an undirected concept co-occurrence graph. Nodes are concepts,
// edges connect concepts that appear together in at least one formula, and
// edge weights accumulate the co-occurrence strength.
//
// Graph is safe for concurrent reads after construction; AddFormula takes
// a write lock so incremental updates during ingestion are also safe.
type Graph struct {
	mu    sync.RWMutex
	edges map[core.ID]map[core.ID]float32
}

// NewGraph creates an empty concept graph.
func NewGraph() *Graph {
	return &Graph{
		edges: make(map[core.ID]map[core.ID]float32),
	}
}

// AddFormula records the pairwise co-occurrences of a formula's concepts.
// The edge weight contribution of a pair is the product of the two
// reference weights, so strongly characteristic concepts bind tighter.
func (g *Graph) AddFormula(concepts []core.ConceptRef) {
	if len(concepts) < 2 {
		// A single concept adds no edges but still registers the node
		if len(concepts) == 1 {
			g.mu.Lock()
			g.ensureNode(concepts[0].ConceptId)
			g.mu.Unlock()
		}
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < len(concepts); i++ {
		g.ensureNode(concepts[i].ConceptId)
		for j := i + 1; j < len(concepts); j++ {
			a, b := concepts[i], concepts[j]
			w := a.Weight * b.Weight
			g.ensureNode(b.ConceptId)
			g.edges[a.ConceptId][b.ConceptId] += w
			g.edges[b.ConceptId][a.ConceptId] += w
		}
	}
}

func (g *Graph) ensureNode(id core.ID) {
	if _, ok := g.edges[id]; !ok {
		g.edges[id] = make(map[core.ID]float32)
	}
}

// Neighbors returns the concepts directly connected to id with their
// edge weights. The returned map must not be modified.
func (g *Graph) Neighbors(id core.ID) map[core.ID]float32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[id]
}

// EdgeWeight returns the accumulated co-occurrence weight between two
// concepts, or zero if they never co-occur.
func (g *Graph) EdgeWeight(a, b core.ID) float32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if neighbors, ok := g.edges[a]; ok {
		return neighbors[b]
	}
	return 0
}

// NodeCount returns the number of concepts in the graph.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// EdgeCount returns the number of undirected edges in the graph.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	total := 0
	for _, neighbors := range g.edges {
		total += len(neighbors)
	}
	return total / 2
}

// BuildGraph constructs a concept graph from the stored corpus by scanning
// formulas in ID order.
func BuildGraph(ctx context.Context, formulas storage.FormulaRepository, logger *slog.Logger) (*Graph, error) {
	if logger == nil {
		logger = slog.Default()
	}

	graph := NewGraph()

	var after core.ID
	scanned := 0
	for {
		batch, err := formulas.GetFormulasAfter(ctx, after, buildBatchSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		for _, formula := range batch {
			graph.AddFormula(formula.Concepts)
			after = formula.Id
		}
		scanned += len(batch)
	}

	logger.Debug("concept graph built",
		"formulas", scanned,
		"nodes", graph.NodeCount(),
		"edges", graph.EdgeCount())

	return graph, nil
}
