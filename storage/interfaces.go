package storage

import (
	"context"

	"github.com/fleetkit/knowledge/core"
)

// DocumentRepository provides operations for managing document rows.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// AddDocument adds a document to storage.
	// Generates an ID if the document has none and sets the InsertedAt
	// timestamp. Returns the document with ID and timestamps populated.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// ListDocuments retrieves all documents belonging to a tenant,
	// ordered by insertion time.
	ListDocuments(ctx context.Context, tenantID string) ([]*core.Document, error)

	// UpdateDocument replaces an existing document row.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocument(ctx context.Context, doc *core.Document) error

	// SetDocumentProgress records the running chunk count of an ingestion
	// run. The persisted count is monotonically non-decreasing: a value
	// lower than the current one is ignored.
	SetDocumentProgress(ctx context.Context, id string, chunkCount int) error

	// SetDocumentStatus transitions a document to the given status with an
	// optional explanatory message.
	// Returns ErrNotFound if the document doesn't exist.
	SetDocumentStatus(ctx context.Context, id string, status core.ProcessingStatus, message string) error

	// DeleteDocument removes a document row by ID. Chunk rows are removed
	// separately via ChunkRepository.DeleteChunksByDocument; callers that
	// need the cascade use the service facade.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id string) error

	// Close closes the repository and releases resources.
	Close() error
}

// SimilarityQuery bounds a vector similarity search.
type SimilarityQuery struct {
	// TenantId hard-filters results to a single tenant when non-empty.
	TenantId string

	// Limit is the maximum number of results (top-K).
	Limit int

	// MinSimilarity is the cosine similarity cutoff. Chunks scoring below
	// it are excluded, not down-ranked.
	MinSimilarity float32
}

// ChunkRepository provides operations for managing chunk+embedding rows.
// Chunks are append-only: there are no update or merge semantics, and rows
// are deleted only as a cascade of document deletion.
type ChunkRepository interface {
	// AddChunks appends one or more chunk rows to storage.
	// Sets the InsertedAt timestamp. Rows with an existing ID are
	// overwritten, which makes reprocessing idempotent.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ChunkID) (*core.Chunk, error)

	// GetChunksByDocument retrieves all chunks of a document, ordered by index.
	GetChunksByDocument(ctx context.Context, documentID string) ([]*core.Chunk, error)

	// DeleteChunksByDocument removes every chunk belonging to a document.
	// Returns the number of chunks removed.
	DeleteChunksByDocument(ctx context.Context, documentID string) (int, error)

	// FindSimilar returns chunks ordered by descending cosine similarity to
	// the query vector, subject to the bounds in query.
	FindSimilar(ctx context.Context, vector []float32, query SimilarityQuery) ([]*core.ChunkMatch, error)

	// Close closes the repository and releases resources.
	Close() error
}
