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


// Package storage provides the storage abstraction layer for the knowledge
// pipeline.
//
// This package defines repository interfaces that decouple the vector store
// from the ingestion, search and chat logic. The pipeline treats the store as
// an external service reachable through two narrow operations: appending
// chunk+embedding rows and tenant-scoped nearest-neighbor search.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return interface types to enforce
// abstraction and enable alternative backends:
//
//	repo, err := badger.NewDocumentRepository(backend)  // returns storage.DocumentRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Tenant Isolation
//
// Tenant isolation is a correctness invariant of this layer: a similarity
// search carrying a tenant filter must never return a chunk whose parent
// document belongs to a different tenant. Implementations enforce the filter
// as a hard predicate, not a ranking signal.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines. Concurrent ingestion of different
// documents shares no mutable state beyond independent rows.
package storage
