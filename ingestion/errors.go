package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when no document repository is provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")
	// ErrChunkRepositoryRequired is returned when no chunk repository is provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")
	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")
	// ErrInvalidChunking is returned when the chunk size and overlap would not
	// advance through the text.
	ErrInvalidChunking = errors.New("chunk overlap must be smaller than chunk size")
)
