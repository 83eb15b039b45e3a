package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedQuery generates a vector embedding for a single text string.
	// Returns a *ProviderError if the provider call fails.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vector embeddings for multiple text strings in a
	// single provider call. The input must be non-empty and must not exceed
	// MaxBatchSize. The returned slice contains one vector per input string,
	// in input order, all of identical dimensionality.
	// Returns a *ProviderError if the provider call fails. No internal retry
	// is performed; retry policy is the caller's responsibility.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// MaxBatchSize returns the provider-imposed maximum batch size.
	MaxBatchSize() int
}

// Role identifies the author of a completion message.
type Role string

const (
	// RoleSystem is the grounding instruction for the model.
	RoleSystem Role = "system"
	// RoleUser is a message written by the human user.
	RoleUser Role = "user"
	// RoleAssistant is a message written by the model.
	RoleAssistant Role = "assistant"
)

// Message is a single message in a completion request.
type Message struct {
	Role    Role
	Content string
}

// Completer generates chat completions.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete sends the message sequence to the completion model and
	// returns the generated text.
	// Returns a *ProviderError if the provider call fails.
	Complete(ctx context.Context, messages []Message) (string, error)
}

// VisionModel transcribes page images into text.
// Implementations must be thread-safe for concurrent use.
type VisionModel interface {
	// TranscribePage sends a single page image to a multimodal model and
	// returns the transcribed text, including descriptions of diagrams,
	// labels and part numbers.
	// Returns a *ProviderError if the provider call fails.
	TranscribePage(ctx context.Context, image []byte, mediaType string) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder, Completer and
// VisionModel instances, ensuring they share configuration appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Completer returns the chat completion service.
	Completer() Completer

	// Vision returns the page transcription service.
	Vision() VisionModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
