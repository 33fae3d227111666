package badger

import (
	"context"
	"testing"
)

func TestPathPostings(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	ctx := context.Background()

	// Two formulas share the path "a->+", one has "b->c" alone
	if err := pathRepo.AddPostings(ctx, 1, map[string]int{"a->+": 2, "b->c": 1}); err != nil {
		t.Fatalf("Failed to add postings: %v", err)
	}
	if err := pathRepo.AddPostings(ctx, 2, map[string]int{"a->+": 1}); err != nil {
		t.Fatalf("Failed to add postings: %v", err)
	}

	postings, err := pathRepo.GetPostings(ctx, "a->+")
	if err != nil {
		t.Fatalf("Failed to get postings: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("Expected 2 postings, got %d", len(postings))
	}
	if postings[0].FormulaId != 1 || postings[0].TF != 2 {
		t.Fatalf("Expected posting (1, 2), got (%d, %d)", postings[0].FormulaId, postings[0].TF)
	}
	if postings[1].FormulaId != 2 || postings[1].TF != 1 {
		t.Fatalf("Expected posting (2, 1), got (%d, %d)", postings[1].FormulaId, postings[1].TF)
	}

	postings, err = pathRepo.GetPostings(ctx, "b->c")
	if err != nil {
		t.Fatalf("Failed to get postings: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("Expected 1 posting, got %d", len(postings))
	}
}

func TestPathPostingsEmpty(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	ctx := context.Background()

	postings, err := pathRepo.GetPostings(ctx, "never->seen")
	if err != nil {
		t.Fatalf("Failed to get postings: %v", err)
	}
	if len(postings) != 0 {
		t.Fatalf("Expected empty posting list, got %d entries", len(postings))
	}
}

func TestPathPostingsDelete(t *testing.T) {
	formulaRepo, conceptRepo, pathRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { pathRepo.Close(); conceptRepo.Close(); formulaRepo.Close(); backend.Close() }()

	ctx := context.Background()

	if err := pathRepo.AddPostings(ctx, 1, map[string]int{"a->b": 1, "b->c": 1}); err != nil {
		t.Fatalf("Failed to add postings: %v", err)
	}
	if err := pathRepo.AddPostings(ctx, 2, map[string]int{"a->b": 1}); err != nil {
		t.Fatalf("Failed to add postings: %v", err)
	}

	if err := pathRepo.DeletePostings(ctx, 1, []string{"a->b", "b->c"}); err != nil {
		t.Fatalf("Failed to delete postings: %v", err)
	}

	// Formula 2 must remain in the shared posting list
	postings, err := pathRepo.GetPostings(ctx, "a->b")
	if err != nil {
		t.Fatalf("Failed to get postings: %v", err)
	}
	if len(postings) != 1 || postings[0].FormulaId != 2 {
		t.Fatalf("Expected posting list [2], got %v", postings)
	}

	postings, err = pathRepo.GetPostings(ctx, "b->c")
	if err != nil {
		t.Fatalf("Failed to get postings: %v", err)
	}
	if len(postings) != 0 {
		t.Fatalf("Expected empty posting list, got %v", postings)
	}
}
