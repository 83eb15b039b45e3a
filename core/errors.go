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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyTitle indicates the document Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyContent indicates no text content was supplied.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrTenantRequired indicates the mandatory tenant ID is missing.
	ErrTenantRequired = errors.New("tenant ID is required")

	// ErrEmptyQuery indicates a query string is empty or whitespace-only.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrNoImages indicates a vision ingestion request carried no page images.
	ErrNoImages = errors.New("at least one page image is required")

	// ErrInvalidStatus indicates an unknown ProcessingStatus value.
	ErrInvalidStatus = errors.New("invalid processing status")
)
