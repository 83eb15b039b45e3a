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


package knowledge

import (
	"context"
	"log/slog"

	"github.com/fleetkit/knowledge/ai"
	"github.com/fleetkit/knowledge/ai/openai"
	"github.com/fleetkit/knowledge/chat"
	"github.com/fleetkit/knowledge/core"
	"github.com/fleetkit/knowledge/ingestion"
	"github.com/fleetkit/knowledge/search"
	"github.com/fleetkit/knowledge/storage"
	"github.com/fleetkit/knowledge/storage/badger"
	"github.com/fleetkit/knowledge/vision"
)

// Service wires the storage backend, the AI provider and the domain
// components into one knowledge base instance.
type Service struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	provider  ai.Provider
	pipeline  *ingestion.Pipeline
	searcher  *search.Searcher
	engine    *chat.Engine
	extractor *vision.Extractor
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig        *ai.Config
	provider        ai.Provider
	inMemory        bool
	pipelineOptions []ingestion.Option
	chatOptions     []chat.Option
}

// WithAIConfig sets the provider configuration used to construct the
// default OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the configured
// one. Intended for tests and embedding scenarios.
func WithProvider(provider ai.Provider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the storage backend in memory, without files.
func WithInMemory() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// WithPipelineOptions passes options through to the ingestion pipeline.
func WithPipelineOptions(opts ...ingestion.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.pipelineOptions = append(o.pipelineOptions, opts...)
	}
}

// WithChatOptions passes options through to the chat engine.
func WithChatOptions(opts ...chat.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.chatOptions = append(o.chatOptions, opts...)
	}
}

// NewService opens the knowledge base at filePath and wires all components.
func NewService(filePath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunks, err := badger.NewChunkRepository(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			chunks.Close()
			documents.Close()
			backend.Close()
			return nil, err
		}
	}

	pipeline, err := ingestion.NewPipeline(documents, chunks, provider.Embedder(), options.pipelineOptions...)
	if err != nil {
		provider.Close()
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(documents, chunks, provider.Embedder())
	if err != nil {
		pipeline.Release()
		provider.Close()
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	engine, err := chat.NewEngine(searcher, provider.Completer(), options.chatOptions...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	extractor, err := vision.NewExtractor(provider.Vision())
	if err != nil {
		pipeline.Release()
		provider.Close()
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	return &Service{
		backend:   backend,
		documents: documents,
		chunks:    chunks,
		provider:  provider,
		pipeline:  pipeline,
		searcher:  searcher,
		engine:    engine,
		extractor: extractor,
		logger:    slog.Default(),
	}, nil
}

// IngestText accepts a plain-text document and starts background ingestion.
func (s *Service) IngestText(ctx context.Context, title, description, docType, content string, tags []string, tenantID string) (*ingestion.Receipt, error) {
	doc := &core.Document{
		Title:       title,
		Description: description,
		Type:        docType,
		Content:     content,
		TenantId:    tenantID,
		Tags:        tags,
	}
	return s.pipeline.Ingest(ctx, doc)
}

// IngestVision extracts text from the page images and ingests the aggregate
// as a document. The whole request is rejected when extraction yields too
// little text; no document is created in that case.
func (s *Service) IngestVision(ctx context.Context, title string, pages []core.PageImage, tags []string, tenantID string) (*ingestion.Receipt, error) {
	extraction, err := s.extractor.Extract(ctx, pages)
	if err != nil {
		return nil, err
	}

	mediaType := ""
	if len(pages) > 0 {
		mediaType = pages[0].MediaType
	}

	doc := &core.Document{
		Title:    title,
		Type:     "vision",
		Content:  extraction.Text,
		TenantId: tenantID,
		Tags:     tags,
		Source: core.SourceFile{
			MediaType: mediaType,
			Pages:     extraction.PagesProcessed,
		},
	}
	return s.pipeline.Ingest(ctx, doc)
}

// Reprocess re-runs ingestion for a stored document from its content.
func (s *Service) Reprocess(ctx context.Context, documentID string) (*ingestion.Receipt, error) {
	return s.pipeline.Reprocess(ctx, documentID)
}

// DeleteDocument removes a document and all of its chunks.
func (s *Service) DeleteDocument(ctx context.Context, documentID string) error {
	removed, err := s.chunks.DeleteChunksByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	s.logger.Debug("deleted document chunks", "document", documentID, "count", removed)
	return s.documents.DeleteDocument(ctx, documentID)
}

// Search returns the tenant's most similar chunks for the query.
func (s *Service) Search(ctx context.Context, query, tenantID string, topK int, minSimilarity float32) ([]*search.Result, error) {
	return s.searcher.Search(ctx, query, tenantID, topK, minSimilarity)
}

// Chat answers the query from the tenant's knowledge base with cited sources.
func (s *Service) Chat(ctx context.Context, query, tenantID string, history []core.ChatTurn, externalContext string) (*core.Answer, error) {
	return s.engine.Chat(ctx, query, tenantID, history, externalContext)
}

// Document returns a stored document; callers poll it for ingestion progress.
func (s *Service) Document(ctx context.Context, documentID string) (*core.Document, error) {
	return s.documents.GetDocument(ctx, documentID)
}

// ListDocuments returns all documents belonging to a tenant.
func (s *Service) ListDocuments(ctx context.Context, tenantID string) ([]*core.Document, error) {
	return s.documents.ListDocuments(ctx, tenantID)
}

// Wait blocks until all background ingestion runs have finished.
func (s *Service) Wait() {
	s.pipeline.Wait()
}

// Close waits for background work and releases all resources.
func (s *Service) Close() error {
	s.pipeline.Release()

	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.chunks.Close(); err != nil {
		s.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := s.documents.Close(); err != nil {
		s.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
