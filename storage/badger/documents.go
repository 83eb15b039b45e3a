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
	"github.com/google/uuid"
)

// DocumentRepository implements storage.DocumentRepository on BadgerDB.
type DocumentRepository struct {
	backend *Backend
	logger  *slog.Logger
}

// NewDocumentRepository creates a document repository on the given backend.
//
// Returns storage.DocumentRepository interface to enforce abstraction.
func NewDocumentRepository(backend *Backend) (storage.DocumentRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &DocumentRepository{
		backend: backend,
		logger:  slog.Default().With("component", "document-repository"),
	}, nil
}

// AddDocument adds a document to storage.
func (r *DocumentRepository) AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if doc.Id == "" {
		doc.Id = uuid.NewString()
	}
	doc.InsertedAt = time.Now().UTC()
	doc.UpdatedAt = doc.InsertedAt

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Set(makeDocumentTenantKey(doc.TenantId, doc.Id), []byte(doc.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			doc, err = storage.UnmarshalDocument(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments retrieves all documents belonging to a tenant,
// ordered by insertion time.
func (r *DocumentRepository) ListDocuments(ctx context.Context, tenantID string) ([]*core.Document, error) {
	var ids []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialDocumentTenantKey(tenantID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
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

	docs := make([]*core.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := r.GetDocument(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		docs = append(docs, doc)
	}

	slices.SortFunc(docs, func(a, b *core.Document) int {
		return a.InsertedAt.Compare(b.InsertedAt)
	})
	return docs, nil
}

// UpdateDocument replaces an existing document row.
func (r *DocumentRepository) UpdateDocument(ctx context.Context, doc *core.Document) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := tx.Get(makeDocumentKey(doc.Id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		doc.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SetDocumentProgress records the running chunk count of an ingestion run.
// The persisted count never decreases.
func (r *DocumentRepository) SetDocumentProgress(ctx context.Context, id string, chunkCount int) error {
	doc, err := r.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if chunkCount <= doc.ChunkCount {
		return nil
	}
	doc.ChunkCount = chunkCount
	return r.UpdateDocument(ctx, doc)
}

// SetDocumentStatus transitions a document to the given status.
func (r *DocumentRepository) SetDocumentStatus(ctx context.Context, id string, status core.ProcessingStatus, message string) error {
	if err := core.ValidateStatus(status); err != nil {
		return err
	}
	doc, err := r.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	doc.Status = status
	doc.StatusMessage = message
	return r.UpdateDocument(ctx, doc)
}

// DeleteDocument removes a document row by ID.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id string) error {
	doc, err := r.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeDocumentKey(id)); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentTenantKey(doc.TenantId, id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close closes the repository.
// The underlying backend is owned by the caller and closed separately.
func (r *DocumentRepository) Close() error {
	return nil
}
