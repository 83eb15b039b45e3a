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
	"errors"
	"fmt"

	"github.com/fleetkit/knowledge/core"
)

// ErrUnknownRequest is returned by Dispatch for request types it does not
// recognize.
var ErrUnknownRequest = errors.New("unknown request type")

// Request is the closed set of operations the service accepts. Each variant
// carries its own typed payload; Dispatch selects the handler by type.
type Request interface {
	isRequest()
}

// TextIngestRequest ingests a plain-text document.
type TextIngestRequest struct {
	Title       string
	Description string
	Type        string
	Content     string
	Tags        []string
	TenantId    string
}

// VisionIngestRequest extracts text from page images and ingests it.
type VisionIngestRequest struct {
	Title    string
	Pages    []core.PageImage
	Tags     []string
	TenantId string
}

// ReprocessRequest re-runs ingestion for a stored document.
type ReprocessRequest struct {
	DocumentId string
}

// DeleteRequest removes a document and its chunks.
type DeleteRequest struct {
	DocumentId string
}

// SearchRequest runs a tenant-scoped similarity search.
type SearchRequest struct {
	Query         string
	TenantId      string
	TopK          int
	MinSimilarity float32
}

// ChatRequest asks a grounded question against the tenant's knowledge base.
type ChatRequest struct {
	Query           string
	TenantId        string
	History         []core.ChatTurn
	ExternalContext string
}

func (TextIngestRequest) isRequest()   {}
func (VisionIngestRequest) isRequest() {}
func (ReprocessRequest) isRequest()    {}
func (DeleteRequest) isRequest()       {}
func (SearchRequest) isRequest()       {}
func (ChatRequest) isRequest()         {}

// Dispatch routes a request to the matching service operation and returns
// its result. Transport layers decode their payloads into Request variants
// and hand them here.
func (s *Service) Dispatch(ctx context.Context, req Request) (any, error) {
	switch r := req.(type) {
	case TextIngestRequest:
		return s.IngestText(ctx, r.Title, r.Description, r.Type, r.Content, r.Tags, r.TenantId)
	case VisionIngestRequest:
		return s.IngestVision(ctx, r.Title, r.Pages, r.Tags, r.TenantId)
	case ReprocessRequest:
		return s.Reprocess(ctx, r.DocumentId)
	case DeleteRequest:
		return nil, s.DeleteDocument(ctx, r.DocumentId)
	case SearchRequest:
		return s.Search(ctx, r.Query, r.TenantId, r.TopK, r.MinSimilarity)
	case ChatRequest:
		return s.Chat(ctx, r.Query, r.TenantId, r.History, r.ExternalContext)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownRequest, req)
	}
}
