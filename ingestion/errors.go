package ingestion

import "errors"

var (
	// ErrFormulaRepositoryRequired is returned when a formula repository is not provided.
	ErrFormulaRepositoryRequired = errors.New("formula repository required")

	// ErrConceptRepositoryRequired is returned when a concept repository is not provided.
	ErrConceptRepositoryRequired = errors.New("concept repository required")

	// ErrPathRepositoryRequired is returned when a path repository is not provided.
	ErrPathRepositoryRequired = errors.New("path repository required")

	// ErrCheckpointRepositoryRequired is returned when a checkpoint repository is not provided.
	ErrCheckpointRepositoryRequired = errors.New("checkpoint repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)
