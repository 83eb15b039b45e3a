package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fleetkit/knowledge/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder     embeddings.Embedder
	maxBatchSize int
	timeout      timeoutFunc
	logger       *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.APIToken),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder:     embedder,
		maxBatchSize: config.MaxBatchSize,
		timeout:      newTimeoutFunc(config.RequestTimeout),
		logger:       slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedQuery generates a vector embedding for a single text string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates vector embeddings for multiple text strings in a
// single provider call. No internal retry is performed.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ai.ErrEmptyBatch
	}
	if len(texts) > e.maxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ai.ErrBatchTooLarge, len(texts), e.maxBatchSize)
	}

	e.logger.Debug("generating embeddings", "count", len(texts))

	ctx, cancel := e.timeout(ctx)
	defer cancel()

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, &ai.ProviderError{Service: "embedding", Err: err}
	}

	if len(vectors) != len(texts) {
		return nil, &ai.ProviderError{
			Service: "embedding",
			Err:     fmt.Errorf("embedding result mismatch: expected %d, received %d", len(texts), len(vectors)),
		}
	}

	return vectors, nil
}

// MaxBatchSize returns the provider-imposed maximum batch size.
func (e *Embedder) MaxBatchSize() int {
	return e.maxBatchSize
}
