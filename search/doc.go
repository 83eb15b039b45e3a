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


// Package search provides tenant-scoped semantic search over document chunks.
//
// The Searcher embeds a query, runs a cosine-similarity search against the
// chunk store hard-filtered to the caller's tenant, and resolves each hit's
// parent document title. The similarity threshold is a cutoff: results below
// it are dropped, never re-ranked.
package search
