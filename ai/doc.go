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


// Package ai provides abstractions for the AI providers used by the
// knowledge pipeline.
//
// This package defines interfaces for text embedding, chat completion and
// multimodal page transcription. The ingestion, search and chat packages
// depend on these abstractions rather than on concrete provider clients.
//
// # Design Principles
//
// The package is designed around four key interfaces:
//
//   - Embedder: Converts batches of strings into fixed-dimensionality vectors
//   - Completer: Generates a chat completion from a message sequence
//   - VisionModel: Transcribes a page image into text
//   - Provider: Aggregates the three services for convenient initialization
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types to enforce
// abstraction. Test constructors in ai/mock return concrete types so tests
// can inject behavior and assert on call counts.
//
// # Retry Policy
//
// None of the services retry internally. A failed provider call surfaces a
// *ProviderError carrying the upstream message, and retry policy is left to
// the caller. The ingestion pipeline deliberately treats a failed embedding
// batch as skipped work recoverable by reprocessing the document.
package ai
