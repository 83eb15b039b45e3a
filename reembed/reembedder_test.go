package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetkit/knowledge/ai/mock"
	"github.com/fleetkit/knowledge/core"
	"github.com/fleetkit/knowledge/storage"
	"github.com/fleetkit/knowledge/storage/badger"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func seedCorpus(t *testing.T, docRepo storage.DocumentRepository, chunkRepo storage.ChunkRepository, tenant string, docCount, chunksPerDoc int) {
	t.Helper()

	ctx := context.Background()
	for d := 0; d < docCount; d++ {
		doc, err := docRepo.AddDocument(ctx, &core.Document{
			Title:    "Manual",
			Content:  "content",
			TenantId: tenant,
			Status:   core.StatusCompleted,
		})
		require.NoError(t, err)

		for i := 0; i < chunksPerDoc; i++ {
			_, err := chunkRepo.AddChunks(ctx, &core.Chunk{
				DocumentId: doc.Id,
				TenantId:   tenant,
				Index:      i,
				Content:    "old chunk text",
				Vector:     []float32{9, 9, 9},
			})
			require.NoError(t, err)
		}
	}
}

func TestReembedderRewritesVectors(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	seedCorpus(t, docRepo, chunkRepo, "tenant-a", 2, 3)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedBatchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{3, 4, 0}
		}
		return vectors, nil
	}

	var buf bytes.Buffer
	reembedder := NewReembedder(docRepo, chunkRepo, embedder, testConfig(), &buf)
	require.NoError(t, reembedder.Run(context.Background(), "tenant-a"))

	docs, err := docRepo.ListDocuments(context.Background(), "tenant-a")
	require.NoError(t, err)
	for _, doc := range docs {
		chunks, err := chunkRepo.GetChunksByDocument(context.Background(), doc.Id)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		for _, chunk := range chunks {
			// {3,4,0} normalized.
			assert.InDelta(t, 0.6, chunk.Vector[0], 0.001)
			assert.InDelta(t, 0.8, chunk.Vector[1], 0.001)
		}
	}

	assert.Contains(t, buf.String(), "Reembedding complete. Processed 6 chunks")
}

func TestReembedderRetriesTransientFailures(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	seedCorpus(t, docRepo, chunkRepo, "tenant-a", 1, 2)

	calls := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedBatchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("provider hiccup")
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0, 0}
		}
		return vectors, nil
	}

	var buf bytes.Buffer
	reembedder := NewReembedder(docRepo, chunkRepo, embedder, testConfig(), &buf)
	require.NoError(t, reembedder.Run(context.Background(), "tenant-a"))
	assert.Equal(t, 2, calls)
}

func TestReembedderFailsAfterRetriesExhausted(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	seedCorpus(t, docRepo, chunkRepo, "tenant-a", 1, 1)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedBatchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}

	var buf bytes.Buffer
	reembedder := NewReembedder(docRepo, chunkRepo, embedder, testConfig(), &buf)
	err = reembedder.Run(context.Background(), "tenant-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestReembedderEmptyTenant(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	embedder := mock.NewMockEmbedder()

	var buf bytes.Buffer
	reembedder := NewReembedder(docRepo, chunkRepo, embedder, nil, &buf)
	require.NoError(t, reembedder.Run(context.Background(), "tenant-a"))
	assert.Contains(t, buf.String(), "No chunks found")
	assert.Zero(t, embedder.CallCount())

	err = reembedder.Run(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrTenantRequired)
}
