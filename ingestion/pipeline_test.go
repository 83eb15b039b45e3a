package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetkit/knowledge/ai/mock"
	"github.com/fleetkit/knowledge/core"
	"github.com/fleetkit/knowledge/storage"
	"github.com/fleetkit/knowledge/storage/badger"
)

func newTestPipeline(t *testing.T, embedder *mock.MockEmbedder, opts ...Option) (*Pipeline, storage.DocumentRepository, storage.ChunkRepository) {
	t.Helper()

	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	pipeline, err := NewPipeline(docRepo, chunkRepo, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, docRepo, chunkRepo
}

func testDocument(content string) *core.Document {
	return &core.Document{
		Title:    "Oil Filter Torque Spec",
		Content:  content,
		TenantId: "tenant-a",
		Tags:     []string{"maintenance"},
	}
}

func TestNewPipelineRequiresDependencies(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	_, err = NewPipeline(nil, chunkRepo, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = NewPipeline(docRepo, nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewPipeline(docRepo, chunkRepo, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(docRepo, chunkRepo, mock.NewMockEmbedder(), WithChunking(100, 100))
	assert.ErrorIs(t, err, ErrInvalidChunking)
}

func TestIngestValidatesBeforePersisting(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	pipeline, docRepo, _ := newTestPipeline(t, embedder)

	ctx := context.Background()

	_, err := pipeline.Ingest(ctx, &core.Document{Title: "", Content: "text", TenantId: "tenant-a"})
	assert.ErrorIs(t, err, core.ErrEmptyTitle)

	_, err = pipeline.Ingest(ctx, &core.Document{Title: "Manual", Content: "   ", TenantId: "tenant-a"})
	assert.ErrorIs(t, err, core.ErrEmptyContent)

	_, err = pipeline.Ingest(ctx, &core.Document{Title: "Manual", Content: "text", TenantId: ""})
	assert.ErrorIs(t, err, core.ErrTenantRequired)

	docs, err := docRepo.ListDocuments(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Empty(t, docs, "validation failures must not persist documents")
	assert.Zero(t, embedder.CallCount())
}

func TestIngestCompletesWithProgress(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	pipeline, docRepo, chunkRepo := newTestPipeline(t, embedder,
		WithChunking(1000, 200))

	ctx := context.Background()

	receipt, err := pipeline.Ingest(ctx, testDocument(strings.Repeat("torque the filter to 18 ft-lbs. ", 75)))
	require.NoError(t, err)
	assert.Equal(t, 3, receipt.ChunkCountPlanned)
	assert.Equal(t, core.StatusProcessing, receipt.Status)
	require.NotEmpty(t, receipt.DocumentId)

	pipeline.Wait()

	doc, err := docRepo.GetDocument(ctx, receipt.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, doc.Status)
	assert.Equal(t, 3, doc.ChunkCount)

	chunks, err := chunkRepo.GetChunksByDocument(ctx, receipt.DocumentId)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, "tenant-a", chunk.TenantId)
		assert.Equal(t, []string{"maintenance"}, chunk.Tags)
		assert.Len(t, chunk.Vector, embedder.Dimensions)
		assert.Positive(t, chunk.TokenCount)
	}
}

func TestIngestPartialFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	calls := 0
	embedder.EmbedBatchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("provider unavailable")
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0, 0}
		}
		return vectors, nil
	}

	pipeline, docRepo, chunkRepo := newTestPipeline(t, embedder,
		WithChunking(100, 10), WithBatchSize(1))

	ctx := context.Background()

	receipt, err := pipeline.Ingest(ctx, testDocument(strings.Repeat("x", 250)))
	require.NoError(t, err)
	require.Equal(t, 3, receipt.ChunkCountPlanned)

	pipeline.Wait()

	doc, err := docRepo.GetDocument(ctx, receipt.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompletedPartial, doc.Status)
	assert.Equal(t, 2, doc.ChunkCount)
	assert.Equal(t, "2 of 3 chunks processed", doc.StatusMessage)

	chunks, err := chunkRepo.GetChunksByDocument(ctx, receipt.DocumentId)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestIngestBatchSizeClampedToEmbedderCap(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.BatchLimit = 2

	var batchSizes []int
	embedder.EmbedBatchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		batchSizes = append(batchSizes, len(texts))
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0, 0}
		}
		return vectors, nil
	}

	pipeline, _, _ := newTestPipeline(t, embedder,
		WithChunking(100, 10), WithBatchSize(50))

	_, err := pipeline.Ingest(context.Background(), testDocument(strings.Repeat("x", 400)))
	require.NoError(t, err)
	pipeline.Wait()

	require.NotEmpty(t, batchSizes)
	for _, size := range batchSizes {
		assert.LessOrEqual(t, size, 2)
	}
}

func TestReprocessReplacesChunks(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	pipeline, docRepo, chunkRepo := newTestPipeline(t, embedder,
		WithChunking(100, 10))

	ctx := context.Background()

	receipt, err := pipeline.Ingest(ctx, testDocument(strings.Repeat("y", 250)))
	require.NoError(t, err)
	pipeline.Wait()

	before, err := chunkRepo.GetChunksByDocument(ctx, receipt.DocumentId)
	require.NoError(t, err)
	require.Len(t, before, 3)

	again, err := pipeline.Reprocess(ctx, receipt.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, 3, again.ChunkCountPlanned)
	assert.Equal(t, core.StatusProcessing, again.Status)

	pipeline.Wait()

	doc, err := docRepo.GetDocument(ctx, receipt.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, doc.Status)
	assert.Equal(t, 3, doc.ChunkCount)

	after, err := chunkRepo.GetChunksByDocument(ctx, receipt.DocumentId)
	require.NoError(t, err)
	assert.Len(t, after, 3)
}

func TestReprocessUnknownDocument(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t, mock.NewMockEmbedder())

	_, err := pipeline.Reprocess(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
