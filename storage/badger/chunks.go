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


package badger

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fleetkit/knowledge/core"
	"github.com/fleetkit/knowledge/storage"
)

// ChunkRepository implements storage.ChunkRepository on BadgerDB.
// Chunk rows are append-only; the similarity search is a full scan over the
// chunk keyspace, which is adequate for per-tenant corpora of manual pages.
type ChunkRepository struct {
	backend *Backend
	logger  *slog.Logger
}

// NewChunkRepository creates a chunk repository on the given backend.
//
// Returns storage.ChunkRepository interface to enforce abstraction.
func NewChunkRepository(backend *Backend) (storage.ChunkRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &ChunkRepository{
		backend: backend,
		logger:  slog.Default().With("component", "chunk-repository"),
	}, nil
}

// AddChunks appends one or more chunk rows to storage.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if err := core.ValidateChunk(chunk); err != nil {
				return err
			}
			if chunk.Id == 0 {
				chunk.Id = core.ChunkIDFor(chunk.DocumentId, chunk.Index)
			}
			chunk.InsertedAt = time.Now().UTC()

			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
			if err := tx.Set(makeChunkDocumentKey(chunk.DocumentId, chunk.Id), storage.MarshalChunkID(chunk.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ChunkID) (*core.Chunk, error) {
	var chunk *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChunkKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			chunk, err = storage.UnmarshalChunk(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// GetChunksByDocument retrieves all chunks of a document, ordered by index.
func (r *ChunkRepository) GetChunksByDocument(ctx context.Context, documentID string) ([]*core.Chunk, error) {
	ids, err := r.chunkIDsForDocument(documentID)
	if err != nil {
		return nil, err
	}

	chunks := make([]*core.Chunk, 0, len(ids))
	for _, id := range ids {
		chunk, err := r.GetChunk(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	slices.SortFunc(chunks, func(a, b *core.Chunk) int {
		return a.Index - b.Index
	})
	return chunks, nil
}

// DeleteChunksByDocument removes every chunk belonging to a document.
func (r *ChunkRepository) DeleteChunksByDocument(ctx context.Context, documentID string) (int, error) {
	ids, err := r.chunkIDsForDocument(documentID)
	if err != nil {
		return 0, err
	}

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeChunkKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(makeChunkDocumentKey(documentID, id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// FindSimilar returns chunks ordered by descending cosine similarity to the
// query vector, hard-filtered by tenant and minimum similarity.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, query storage.SimilarityQuery) ([]*core.ChunkMatch, error) {
	if query.Limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var matches []*core.ChunkMatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || len(chunk.Vector) == 0 {
				continue
			}

			// Tenant isolation is a hard filter, never a ranking signal.
			if query.TenantId != "" && chunk.TenantId != query.TenantId {
				continue
			}

			similarity := core.CosineSimilarity(vector, chunk.Vector)
			if similarity >= query.MinSimilarity {
				matches = append(matches, &core.ChunkMatch{
					Chunk: chunk,
					Score: similarity,
				})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(matches, func(a, b *core.ChunkMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(matches) > query.Limit {
		matches = matches[:query.Limit]
	}
	return matches, nil
}

// chunkIDsForDocument reads the document index.
func (r *ChunkRepository) chunkIDsForDocument(documentID string) ([]core.ChunkID, error) {
	var ids []core.ChunkID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkDocumentKey(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				id, err := storage.UnmarshalChunkID(val)
				if err != nil {
					return err
				}
				ids = append(ids, id)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Close closes the repository.
// The underlying backend is owned by the caller and closed separately.
func (r *ChunkRepository) Close() error {
	return nil
}
