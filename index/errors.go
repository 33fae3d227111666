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

package index

import "errors"

var (
	// ErrFormulaRepositoryRequired is returned when a formula repository is not provided.
	ErrFormulaRepositoryRequired = errors.New("formula repository required")

	// ErrPathRepositoryRequired is returned when a path repository is not provided.
	ErrPathRepositoryRequired = errors.New("path repository required")

	// ErrQueryRequired is returned when a nil query is passed to Candidates.
	ErrQueryRequired = errors.New("query required")

	// ErrInvalidTopK is returned when topK is not positive.
	ErrInvalidTopK = errors.New("topK must be positive")

	// ErrInvalidFuzzyDistance is returned when the fuzzy distance is negative.
	ErrInvalidFuzzyDistance = errors.New("fuzzy distance must be non-negative")

	// ErrInvalidMaxFuzzyBuckets is returned when the bucket cap is not positive.
	ErrInvalidMaxFuzzyBuckets = errors.New("max fuzzy buckets must be positive")
)
