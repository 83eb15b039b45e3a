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


// Package chat implements retrieval-augmented question answering over the
// knowledge base.
//
// The Engine embeds the query, retrieves the most relevant chunks for the
// tenant, and asks the completion model to answer strictly from that
// material, citing sources by index and admitting when the answer is not
// present. The engine persists nothing; transcript storage is the caller's
// responsibility.
package chat
