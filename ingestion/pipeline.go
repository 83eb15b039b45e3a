package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/fleetkit/knowledge/ai"
	"github.com/fleetkit/knowledge/core"
	"github.com/fleetkit/knowledge/storage"
)

// DefaultBatchSize is the number of chunks embedded and stored per batch.
const DefaultBatchSize = 50

// Pipeline orchestrates document ingestion: it persists the document row,
// chunks the content, and embeds and stores the chunks in batches on a
// worker pool. The triggering call returns as soon as the document row and
// chunk plan exist; embedding latency never blocks the caller.
type Pipeline struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	embedder  ai.Embedder
	chunker   *Chunker
	pool      *ants.Pool
	batchSize int
	running   sync.WaitGroup
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for background runs.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithChunking sets the chunk window size and overlap.
// Defaults are DefaultChunkSize and DefaultChunkOverlap.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		chunker, err := NewChunker(size, overlap)
		if err != nil {
			return err
		}
		p.chunker = chunker
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per provider call.
// Default is DefaultBatchSize; values above the embedder's batch cap are
// clamped when the pipeline runs.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	chunker, err := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		pool.Release()
		return nil, err
	}

	p := &Pipeline{
		documents: documents,
		chunks:    chunks,
		embedder:  embedder,
		chunker:   chunker,
		pool:      pool,
		batchSize: DefaultBatchSize,
		logger:    slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Receipt is returned to the caller once a document is accepted for
// ingestion. Completion is observed by polling the document row.
type Receipt struct {
	DocumentId        string
	ChunkCountPlanned int
	PagesProcessed    int
	Status            core.ProcessingStatus
}

// Ingest persists the document with status processing, plans its chunks, and
// launches the embedding run in the background. A document whose content
// produces no chunks is completed immediately with a zero chunk count.
func (p *Pipeline) Ingest(ctx context.Context, doc *core.Document) (*Receipt, error) {
	doc.Status = core.StatusProcessing
	doc.ChunkCount = 0
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	added, err := p.documents.AddDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	return p.launch(ctx, added)
}

// Reprocess deletes a document's existing chunks and runs ingestion again
// from the stored content. This is the recovery path for documents left in
// completed_partial or failed state.
func (p *Pipeline) Reprocess(ctx context.Context, documentID string) (*Receipt, error) {
	doc, err := p.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	removed, err := p.chunks.DeleteChunksByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("removed existing chunks", "document", documentID, "count", removed)

	doc.Status = core.StatusProcessing
	doc.StatusMessage = ""
	doc.ChunkCount = 0
	if err := p.documents.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}

	return p.launch(ctx, doc)
}

// launch plans the chunks for a stored document and submits the embedding
// run to the pool.
func (p *Pipeline) launch(ctx context.Context, doc *core.Document) (*Receipt, error) {
	pieces := p.chunker.SplitText(doc.Content)
	if len(pieces) == 0 {
		if err := p.documents.SetDocumentStatus(ctx, doc.Id, core.StatusCompleted, "no substantial text to index"); err != nil {
			return nil, err
		}
		return &Receipt{
			DocumentId:        doc.Id,
			ChunkCountPlanned: 0,
			PagesProcessed:    doc.Source.Pages,
			Status:            core.StatusCompleted,
		}, nil
	}

	p.running.Add(1)
	err := p.pool.Submit(func() {
		defer p.running.Done()
		p.run(context.Background(), doc, pieces)
	})
	if err != nil {
		p.running.Done()
		return nil, err
	}

	return &Receipt{
		DocumentId:        doc.Id,
		ChunkCountPlanned: len(pieces),
		PagesProcessed:    doc.Source.Pages,
		Status:            core.StatusProcessing,
	}, nil
}

// run embeds and stores the planned chunks in batches. A failed batch is
// logged and skipped; the run always reaches a terminal status.
func (p *Pipeline) run(ctx context.Context, doc *core.Document, pieces []string) {
	logger := p.logger.With("document", doc.Id)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("ingestion run aborted", "panic", r)
			if err := p.documents.SetDocumentStatus(ctx, doc.Id, core.StatusFailed, fmt.Sprintf("ingestion aborted: %v", r)); err != nil {
				logger.Error("error marking document failed", "err", err)
			}
		}
	}()

	batchSize := p.batchSize
	if limit := p.embedder.MaxBatchSize(); limit > 0 && batchSize > limit {
		batchSize = limit
	}

	total := len(pieces)
	stored := 0
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		batch := pieces[start:end]

		vectors, err := p.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			logger.Error("error embedding chunk batch", "start", start, "size", len(batch), "err", err)
			continue
		}
		if len(vectors) != len(batch) {
			logger.Error("embedding result mismatch", "expected", len(batch), "received", len(vectors))
			continue
		}

		rows := make([]*core.Chunk, len(batch))
		for i, content := range batch {
			rows[i] = &core.Chunk{
				DocumentId: doc.Id,
				TenantId:   doc.TenantId,
				Index:      start + i,
				Content:    content,
				Vector:     vectors[i],
				TokenCount: core.EstimateTokens(content),
				Tags:       doc.Tags,
			}
		}

		if _, err := p.chunks.AddChunks(ctx, rows...); err != nil {
			logger.Error("error storing chunk batch", "start", start, "size", len(rows), "err", err)
			continue
		}

		stored += len(rows)
		if err := p.documents.SetDocumentProgress(ctx, doc.Id, stored); err != nil {
			logger.Error("error updating chunk count", "err", err)
		}
	}

	status := core.StatusCompleted
	message := ""
	if stored < total {
		status = core.StatusCompletedPartial
		message = fmt.Sprintf("%d of %d chunks processed", stored, total)
	}
	if err := p.documents.SetDocumentStatus(ctx, doc.Id, status, message); err != nil {
		logger.Error("error finalizing document status", "err", err)
		return
	}

	logger.Info("ingestion run finished", "status", status, "chunks", stored, "planned", total)
}

// Wait blocks until all background runs submitted so far have finished.
// Intended for tests and orderly shutdown.
func (p *Pipeline) Wait() {
	p.running.Wait()
}

// Release waits for in-flight runs and releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.running.Wait()
	if p.pool != nil {
		p.pool.Release()
	}
}
