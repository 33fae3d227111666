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

// Package search implements the retrieval cascade for formula queries.
//
// A query runs through up to seven steps: LaTeX normalization and
// fingerprinting, structural candidate recall, semantic scoring of the
// candidates against the query embedding (with a corpus-wide similarity
// scan as fallback when recall is empty), rank fusion of the structural
// and semantic orderings, concept graph re-ranking, confidence filtering
// and truncation.
//
// The SearchMonitor interface exposes each stage for debugging and
// evaluation tooling.
package search
