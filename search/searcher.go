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


package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fleetkit/knowledge/ai"
	"github.com/fleetkit/knowledge/core"
	"github.com/fleetkit/knowledge/storage"
)

// DefaultTopK is the number of results returned when the caller does not
// specify a limit.
const DefaultTopK = 5

// Result is a chunk hit enriched with its parent document's title.
type Result struct {
	Chunk         *core.Chunk
	Score         float32
	DocumentTitle string
}

// Searcher provides tenant-scoped semantic search over document chunks.
type Searcher struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	embedder  ai.Embedder
	monitor   Monitor
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMonitor installs hooks observing the search stages.
func WithMonitor(monitor Monitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		documents: documents,
		chunks:    chunks,
		embedder:  embedder,
		monitor:   &noopMonitor{},
		logger:    slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search embeds the query and returns the most similar chunks for the
// tenant, ordered by descending similarity. A topK of zero or less falls
// back to DefaultTopK. minSimilarity is a hard cutoff.
func (s *Searcher) Search(ctx context.Context, query, tenantID string, topK int, minSimilarity float32) ([]*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, core.ErrEmptyQuery
	}
	if tenantID == "" {
		return nil, core.ErrTenantRequired
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	s.monitor.Start(query)

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		s.logger.Error("error embedding query", "err", err)
		return nil, err
	}
	s.monitor.AfterQueryEmbedding(vector)

	matches, err := s.chunks.FindSimilar(ctx, vector, storage.SimilarityQuery{
		TenantId:      tenantID,
		Limit:         topK,
		MinSimilarity: minSimilarity,
	})
	if err != nil {
		s.logger.Error("error searching chunks", "err", err)
		return nil, err
	}
	s.monitor.AfterSimilaritySearch(matches)

	results := make([]*Result, 0, len(matches))
	titles := make(map[string]string)
	for _, match := range matches {
		title, ok := titles[match.Chunk.DocumentId]
		if !ok {
			doc, err := s.documents.GetDocument(ctx, match.Chunk.DocumentId)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					// Parent deleted mid-search; drop the orphan hit.
					s.logger.Warn("chunk without parent document", "document", match.Chunk.DocumentId)
					continue
				}
				return nil, fmt.Errorf("resolving document %s: %w", match.Chunk.DocumentId, err)
			}
			title = doc.Title
			titles[match.Chunk.DocumentId] = title
		}
		results = append(results, &Result{
			Chunk:         match.Chunk,
			Score:         match.Score,
			DocumentTitle: title,
		})
	}

	s.monitor.Finish(results)
	return results, nil
}
