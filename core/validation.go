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

package core

import "fmt"

// ValidateFormula validates a Formula according to domain rules.
//
// Validation rules:
//   - Latex must not be empty
//   - DocId must not be empty
//
// NOT validated (populated by processors):
//   - LatexNorm, hashes (computed during ingestion)
//   - Vector (can be empty until embedding processor runs)
//   - Concepts, PathCount (can be empty until structure processor runs)
//   - ID (0 is valid from database sequences)
func ValidateFormula(formula *Formula) error {
	if formula == nil {
		return fmt.Errorf("%w: formula is nil", ErrInvalidFormula)
	}

	if formula.Latex == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFormula, ErrEmptyLatex)
	}

	if formula.DocId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFormula, ErrEmptyDocId)
	}

	return nil
}

// ValidateConcept validates a Concept according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Type must be one of the known concept types
//
// NOT validated (populated by processors):
//   - Vector (can be empty until embedded)
//   - ID (0 is valid until content ID assignment)
func ValidateConcept(concept *Concept) error {
	if concept == nil {
		return fmt.Errorf("%w: concept is nil", ErrInvalidConcept)
	}

	if concept.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConcept, ErrEmptyConceptName)
	}

	if concept.Type == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConcept, ErrEmptyConceptType)
	}

	if err := ValidateConceptType(concept.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConcept, err)
	}

	return nil
}

// ValidateConceptType validates that a ConceptType has a known value.
func ValidateConceptType(ct ConceptType) error {
	for _, known := range ConceptTypes {
		if ct == known {
			return nil
		}
	}
	return fmt.Errorf("%w: value %q", ErrInvalidConceptType, string(ct))
}

// ValidateQuery validates a retrieval request.
func ValidateQuery(query *Query) error {
	if query == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidQuery)
	}
	if query.Latex == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptyLatex)
	}
	return nil
}
