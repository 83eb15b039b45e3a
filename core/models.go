package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ChunkID is a unique identifier for a chunk.
// It is derived deterministically from the parent document ID and chunk index.
type ChunkID uint64

// ChunkIDFor generates a deterministic ChunkID from a document ID and chunk
// index using BLAKE2b hashing. Reprocessing a document therefore produces
// the same chunk IDs, so stale rows are overwritten rather than duplicated.
func ChunkIDFor(documentID string, index int) ChunkID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(documentID))
	h.Write([]byte(":"))
	h.Write([]byte(strconv.Itoa(index)))
	sum := h.Sum(nil)
	return ChunkID(binary.LittleEndian.Uint64(sum))
}

// ProcessingStatus tracks a document through the ingestion state machine.
type ProcessingStatus string

const (
	// StatusPending means the document has been accepted but not yet persisted.
	StatusPending ProcessingStatus = "pending"
	// StatusProcessing means chunks are being embedded and written in the background.
	StatusProcessing ProcessingStatus = "processing"
	// StatusCompleted means every chunk was embedded and stored.
	StatusCompleted ProcessingStatus = "completed"
	// StatusCompletedPartial means the run finished but some batches failed.
	StatusCompletedPartial ProcessingStatus = "completed_partial"
	// StatusFailed means the ingestion run aborted before finishing.
	StatusFailed ProcessingStatus = "failed"
)

// Terminal reports whether the status is a terminal state of the ingestion
// state machine.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCompletedPartial || s == StatusFailed
}

// SourceFile describes the file a document was ingested from, if any.
type SourceFile struct {
	Name      string
	MediaType string
	Pages     int
}

// Document represents a knowledge base document owned by a single tenant.
// Content is chunked, embedded and indexed asynchronously; Status and
// ChunkCount are the progress surface callers poll while that happens.
type Document struct {
	Id            string
	Title         string
	Description   string
	Type          string
	Content       string
	TenantId      string
	Source        SourceFile
	Tags          []string
	Status        ProcessingStatus
	ChunkCount    int
	StatusMessage string
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// Chunk is a bounded, possibly overlapping substring of a document.
// It is the unit of embedding and retrieval. Chunks are immutable once
// written and are deleted only as a cascade of document deletion.
type Chunk struct {
	Id         ChunkID
	DocumentId string
	TenantId   string
	Index      int
	Content    string
	Vector     []float32
	TokenCount int
	Tags       []string
	InsertedAt time.Time
}

// EstimateTokens returns a rough token count for text using the common
// four-characters-per-token heuristic.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ChunkMatch is a chunk returned from vector similarity search,
// with its cosine similarity score against the query.
type ChunkMatch struct {
	Chunk *Chunk
	Score float32
}

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser is a turn written by the human user.
	RoleUser Role = "user"
	// RoleAssistant is a turn written by the model.
	RoleAssistant Role = "assistant"
)

// ChatTurn is a single prior turn of a conversation.
type ChatTurn struct {
	Role    Role
	Content string
}

// Source is a document that contributed retrieved chunks to an answer.
type Source struct {
	DocumentId string
	Title      string
	MaxScore   float32
	Excerpts   []string
}

// Answer is the result of a retrieval-augmented chat call.
type Answer struct {
	Text    string
	Sources []Source
}

// PageImage is a single page of an image-based source document.
type PageImage struct {
	Data      []byte
	MediaType string
}
