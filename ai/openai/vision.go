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


package openai

import (
	"context"
	"log/slog"

	"github.com/fleetkit/knowledge/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// transcribePrompt instructs the multimodal model on how to turn a manual
// page into indexable text.
const transcribePrompt = `Transcribe all text on this page verbatim. ` +
	`Also describe any diagrams, labels, callouts and part numbers you see. ` +
	`Preserve tables as plain text rows. Respond with the transcription only.`

// Vision implements ai.VisionModel using OpenAI-compatible multimodal APIs.
type Vision struct {
	client  llms.Model
	timeout timeoutFunc
	logger  *slog.Logger
}

// newVision is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newVision(config *ai.Config) (*Vision, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.VisionModel),
	)
	if err != nil {
		return nil, err
	}

	return &Vision{
		client:  client,
		timeout: newTimeoutFunc(config.RequestTimeout),
		logger:  slog.Default().With("component", "openai-vision"),
	}, nil
}

// NewVision creates a new vision model using the provided configuration.
//
// Returns ai.VisionModel interface to enforce abstraction.
func NewVision(config *ai.Config) (ai.VisionModel, error) {
	return newVision(config)
}

// TranscribePage sends a single page image to the multimodal model and
// returns the transcribed text.
func (v *Vision) TranscribePage(ctx context.Context, image []byte, mediaType string) (string, error) {
	v.logger.Debug("transcribing page", "bytes", len(image), "mediaType", mediaType)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(transcribePrompt),
				llms.BinaryPart(mediaType, image),
			},
		},
	}

	ctx, cancel := v.timeout(ctx)
	defer cancel()

	response, err := v.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		v.logger.Error("failed to transcribe page", "err", err)
		return "", &ai.ProviderError{Service: "vision", Err: err}
	}

	if len(response.Choices) < 1 {
		v.logger.Debug("no choices returned from model")
		return "", nil
	}

	return response.Choices[0].Content, nil
}
