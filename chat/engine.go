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


package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fleetkit/knowledge/ai"
	"github.com/fleetkit/knowledge/core"
	"github.com/fleetkit/knowledge/search"
)

const (
	// DefaultTopK is the number of chunks retrieved as context.
	DefaultTopK = 5
	// DefaultMinSimilarity is the relevance cutoff for retrieved chunks.
	DefaultMinSimilarity = 0.5
	// DefaultHistoryWindow is the number of prior turns sent to the model.
	DefaultHistoryWindow = 6
)

// Engine answers questions over the knowledge base with cited sources.
type Engine struct {
	searcher      *search.Searcher
	completer     ai.Completer
	topK          int
	minSimilarity float32
	historyWindow int
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithTopK sets how many chunks are retrieved as context.
// Default is DefaultTopK.
func WithTopK(topK int) Option {
	return func(e *Engine) error {
		if topK > 0 {
			e.topK = topK
		}
		return nil
	}
}

// WithMinSimilarity sets the relevance cutoff for retrieved chunks.
// Default is DefaultMinSimilarity.
func WithMinSimilarity(min float32) Option {
	return func(e *Engine) error {
		e.minSimilarity = min
		return nil
	}
}

// WithHistoryWindow sets how many prior turns are sent to the model.
// Default is DefaultHistoryWindow.
func WithHistoryWindow(turns int) Option {
	return func(e *Engine) error {
		if turns >= 0 {
			e.historyWindow = turns
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a chat engine on top of a searcher and a completion model.
func NewEngine(searcher *search.Searcher, completer ai.Completer, opts ...Option) (*Engine, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	e := &Engine{
		searcher:      searcher,
		completer:     completer,
		topK:          DefaultTopK,
		minSimilarity: DefaultMinSimilarity,
		historyWindow: DefaultHistoryWindow,
		logger:        slog.Default().With("component", "chat"),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Chat answers the query from the tenant's knowledge base. history carries
// the prior conversation turns, oldest first; externalContext is optional
// caller-supplied situational information (vehicle facts, fault codes) that
// is handed to the model alongside the retrieved sources.
func (e *Engine) Chat(ctx context.Context, query, tenantID string, history []core.ChatTurn, externalContext string) (*core.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, core.ErrEmptyQuery
	}
	if tenantID == "" {
		return nil, core.ErrTenantRequired
	}

	results, err := e.searcher.Search(ctx, query, tenantID, e.topK, e.minSimilarity)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("retrieved context chunks", "query", query, "chunks", len(results))

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{
		Role:    ai.RoleSystem,
		Content: buildSystemPrompt(results, externalContext),
	})

	window := history
	if len(window) > e.historyWindow {
		window = window[len(window)-e.historyWindow:]
	}
	for _, turn := range window {
		role := ai.RoleUser
		if turn.Role == core.RoleAssistant {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.Message{Role: role, Content: turn.Content})
	}

	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: query})

	text, err := e.completer.Complete(ctx, messages)
	if err != nil {
		e.logger.Error("error generating answer", "err", err)
		return nil, err
	}

	return &core.Answer{
		Text:    text,
		Sources: groupSources(results),
	}, nil
}

// groupSources collapses the ranked chunk hits into one source per parent
// document, keeping the best similarity seen and every contributing excerpt.
// Document order follows first appearance in the ranked results.
func groupSources(results []*search.Result) []core.Source {
	sources := make([]core.Source, 0, len(results))
	byDocument := make(map[string]int)

	for _, result := range results {
		idx, ok := byDocument[result.Chunk.DocumentId]
		if !ok {
			idx = len(sources)
			byDocument[result.Chunk.DocumentId] = idx
			sources = append(sources, core.Source{
				DocumentId: result.Chunk.DocumentId,
				Title:      result.DocumentTitle,
				MaxScore:   result.Score,
			})
		}
		if result.Score > sources[idx].MaxScore {
			sources[idx].MaxScore = result.Score
		}
		sources[idx].Excerpts = append(sources[idx].Excerpts, result.Chunk.Content)
	}

	return sources
}
