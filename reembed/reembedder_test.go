package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonewei/me-ir/core"
	"github.com/jonewei/me-ir/storage"
	badgerstore "github.com/jonewei/me-ir/storage/badger"
)

// mockEmbedder returns a fixed vector per text, with optional injected failures.
type mockEmbedder struct {
	calls    int
	failNext int
}

func (m *mockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.failNext > 0 {
		m.failNext--
		return nil, errors.New("embedding service unavailable")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{3, 4}
	}
	return vectors, nil
}

func setupTestRepos(t *testing.T) (storage.FormulaRepository, storage.CheckpointRepository, func()) {
	t.Helper()
	formulaRepo, conceptRepo, pathRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	checkpointRepo := badgerstore.NewCheckpointRepository(backend)
	cleanup := func() {
		pathRepo.Close()
		conceptRepo.Close()
		formulaRepo.Close()
		backend.Close()
	}
	return formulaRepo, checkpointRepo, cleanup
}

func addTestFormulas(t *testing.T, repo storage.FormulaRepository, n int) []*core.Formula {
	t.Helper()
	formulas := make([]*core.Formula, n)
	for i := 0; i < n; i++ {
		formulas[i] = &core.Formula{
			DocId:     "doc",
			Latex:     `x^2`,
			LatexNorm: `x^2`,
			LatexHash: core.Hash(i + 1),
		}
	}
	added, err := repo.AddFormulas(context.Background(), formulas...)
	require.NoError(t, err)
	return added
}

func TestReembedder_Run(t *testing.T) {
	repo, checkpoints, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestFormulas(t, repo, 10)

	var buf bytes.Buffer
	embedder := &mockEmbedder{}
	config := &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	}

	reembedder := NewReembedder(repo, checkpoints, embedder, config, &buf)
	err := reembedder.Run(ctx)
	require.NoError(t, err)

	// All formulas carry unit-normalized vectors
	for _, f := range added {
		updated, err := repo.GetFormula(ctx, f.Id)
		require.NoError(t, err)
		require.Len(t, updated.Vector, 2)
		assert.InDelta(t, 0.6, updated.Vector[0], 1e-6)
		assert.InDelta(t, 0.8, updated.Vector[1], 1e-6)
	}

	// Checkpoint points at the last processed formula
	chk, err := checkpoints.LoadCheckpoint(ctx, ProcessorType)
	require.NoError(t, err)
	require.NotNil(t, chk)
	assert.Equal(t, added[len(added)-1].Id, chk.LastId)

	assert.Contains(t, buf.String(), "Reembedding complete")
}

func TestReembedder_RunEmpty(t *testing.T) {
	repo, checkpoints, cleanup := setupTestRepos(t)
	defer cleanup()

	var buf bytes.Buffer
	reembedder := NewReembedder(repo, checkpoints, &mockEmbedder{}, nil, &buf)
	err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No formulas found")
}

func TestReembedder_Resume(t *testing.T) {
	repo, checkpoints, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestFormulas(t, repo, 6)

	// Simulate a prior run that stopped after the third formula
	err := checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: ProcessorType,
		LastId:        added[2].Id,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	embedder := &mockEmbedder{}
	config := &Config{
		BatchSize:      2,
		ReportInterval: 2,
		MaxRetries:     1,
		RetryDelay:     time.Millisecond,
		Resume:         true,
	}

	reembedder := NewReembedder(repo, checkpoints, embedder, config, &buf)
	require.NoError(t, reembedder.Run(ctx))

	// The first three formulas were skipped
	for i, f := range added {
		updated, err := repo.GetFormula(ctx, f.Id)
		require.NoError(t, err)
		if i < 3 {
			assert.Empty(t, updated.Vector, "formula before checkpoint should be untouched")
		} else {
			assert.NotEmpty(t, updated.Vector)
		}
	}
	assert.Contains(t, buf.String(), "Resuming after formula")
}

func TestReembedder_RetriesTransientFailure(t *testing.T) {
	repo, checkpoints, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	addTestFormulas(t, repo, 2)

	var buf bytes.Buffer
	embedder := &mockEmbedder{failNext: 2}
	config := &Config{
		BatchSize:      5,
		ReportInterval: 5,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
	}

	reembedder := NewReembedder(repo, checkpoints, embedder, config, &buf)
	require.NoError(t, reembedder.Run(ctx))
	assert.Equal(t, 3, embedder.calls, "two failures then one success")
}

func TestReembedder_AllRetriesExhausted(t *testing.T) {
	repo, checkpoints, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	addTestFormulas(t, repo, 2)

	var buf bytes.Buffer
	embedder := &mockEmbedder{failNext: 10}
	config := &Config{
		BatchSize:      5,
		ReportInterval: 5,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}

	reembedder := NewReembedder(repo, checkpoints, embedder, config, &buf)
	err := reembedder.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate embeddings")
}
