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


// Package vision extracts text from image-based documents, page by page,
// through a multimodal model. The extracted aggregate feeds the ingestion
// pipeline exactly as plain text input would.
package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fleetkit/knowledge/ai"
	"github.com/fleetkit/knowledge/core"
)

// MinExtractedLength is the minimum aggregate text length required before
// the extraction is considered usable. Shorter aggregates are rejected
// instead of producing a near-empty document.
const MinExtractedLength = 50

var (
	// ErrVisionModelRequired is returned when no vision model is provided.
	ErrVisionModelRequired = errors.New("vision model required")

	// ErrExtractionFailed is returned when the aggregate extracted text is
	// too short to index.
	ErrExtractionFailed = errors.New("extracted text below minimum length")
)

// Extraction is the outcome of transcribing a document's page images.
type Extraction struct {
	Text           string
	PagesProcessed int
	PagesFailed    int
}

// Extractor turns page images into indexable text.
type Extractor struct {
	model  ai.VisionModel
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewExtractor creates an extractor on the given vision model.
func NewExtractor(model ai.VisionModel, opts ...Option) (*Extractor, error) {
	if model == nil {
		return nil, ErrVisionModelRequired
	}

	e := &Extractor{
		model:  model,
		logger: slog.Default().With("component", "vision"),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Extract transcribes each page and concatenates the results with page
// markers. A page whose transcription fails is logged and skipped; the run
// continues with the remaining pages. The aggregate must reach
// MinExtractedLength or the extraction is rejected with ErrExtractionFailed.
func (e *Extractor) Extract(ctx context.Context, pages []core.PageImage) (*Extraction, error) {
	if len(pages) == 0 {
		return nil, core.ErrNoImages
	}

	var b strings.Builder
	processed := 0
	failed := 0
	for i, page := range pages {
		text, err := e.model.TranscribePage(ctx, page.Data, page.MediaType)
		if err != nil {
			e.logger.Error("error transcribing page", "page", i+1, "err", err)
			failed++
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			e.logger.Warn("page produced no text", "page", i+1)
			processed++
			continue
		}

		fmt.Fprintf(&b, "--- Page %d ---\n%s\n\n", i+1, text)
		processed++
	}

	aggregate := strings.TrimSpace(b.String())
	if len(aggregate) < MinExtractedLength {
		return nil, fmt.Errorf("%w: %d characters from %d pages", ErrExtractionFailed, len(aggregate), len(pages))
	}

	return &Extraction{
		Text:           aggregate,
		PagesProcessed: processed,
		PagesFailed:    failed,
	}, nil
}
