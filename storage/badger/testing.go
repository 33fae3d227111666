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

package badger

import "github.com/jonewei/me-ir/storage"

// NewMemoryRepositories creates in-memory formula, concept and path
// repositories for testing.
// Returns formulaRepo, conceptRepo, pathRepo, backend, and error.
// Caller must close the repos and backend when done.
func NewMemoryRepositories() (storage.FormulaRepository, storage.ConceptRepository, storage.PathRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	formulaRepo, err := NewFormulaRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, nil, err
	}

	conceptRepo, err := NewConceptRepository(backend)
	if err != nil {
		formulaRepo.Close()
		backend.Close()
		return nil, nil, nil, nil, err
	}

	pathRepo := NewPathRepository(backend)

	return formulaRepo, conceptRepo, pathRepo, backend, nil
}
