// Copyright 2025 Fleetkit Labs
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


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fleetkit/knowledge/ai"
	"github.com/fleetkit/knowledge/core"
	"github.com/fleetkit/knowledge/storage"
)

// Config holds configuration for a reembedding run.
type Config struct {
	// BatchSize is the number of chunks sent per embedding call
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      50,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates the embedding vectors of a tenant's chunks.
// Chunk IDs are deterministic, so rewritten chunks replace their old rows
// in place and the document metadata is left untouched.
type Reembedder struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(documents storage.DocumentRepository, chunks storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	return &Reembedder{
		documents: documents,
		chunks:    chunks,
		embedder:  embedder,
		config:    config,
		progress:  progress,
	}
}

// Run re-embeds every chunk belonging to the tenant.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return core.ErrTenantRequired
	}

	docs, err := r.documents.ListDocuments(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	// Count chunks up front so the tracker can report percentages.
	perDocument := make(map[string][]*core.Chunk, len(docs))
	total := 0
	for _, doc := range docs {
		chunks, err := r.chunks.GetChunksByDocument(ctx, doc.Id)
		if err != nil {
			return fmt.Errorf("failed to load chunks for document %s: %w", doc.Id, err)
		}
		perDocument[doc.Id] = chunks
		total += len(chunks)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found for tenant %s\n", tenantID)
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks across %d documents (batch size: %d)\n",
		total, len(docs), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	for _, doc := range docs {
		chunks := perDocument[doc.Id]
		for start := 0; start < len(chunks); start += r.config.BatchSize {
			end := start + r.config.BatchSize
			if end > len(chunks) {
				end = len(chunks)
			}

			if err := r.processBatch(ctx, chunks[start:end]); err != nil {
				return fmt.Errorf("failed to process batch of document %s: %w", doc.Id, err)
			}

			processed += end - start
			tracker.Update(processed)
		}
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}

// processBatch embeds one batch of chunks and writes the rows back.
// Vectors are normalized so cosine similarity stays well-behaved.
func (r *Reembedder) processBatch(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = r.embedder.EmbedBatch(ctx, texts)
		return err
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", r.config.MaxRetries, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	for i := range chunks {
		chunks[i].Vector = core.NormalizeVector(embeddings[i])
	}

	err = RetryWithBackoff(ctx, func() error {
		_, err := r.chunks.AddChunks(ctx, chunks...)
		return err
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	return nil
}
