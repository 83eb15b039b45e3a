package mock

import "context"

// MockVision is a test double for ai.VisionModel.
// It allows custom behavior injection via function fields.
type MockVision struct {
	// TranscribePageFunc is called by TranscribePage if set.
	// If nil, returns the image bytes interpreted as text, which lets tests
	// feed plain-text "images" through the vision path.
	TranscribePageFunc func(ctx context.Context, image []byte, mediaType string) (string, error)

	callCount int
}

// NewMockVision creates a mock vision model with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockVision() *MockVision {
	return &MockVision{}
}

// TranscribePage returns the injected or default transcription.
func (m *MockVision) TranscribePage(ctx context.Context, image []byte, mediaType string) (string, error) {
	m.callCount++

	if m.TranscribePageFunc != nil {
		return m.TranscribePageFunc(ctx, image, mediaType)
	}

	return string(image), nil
}

// CallCount returns the number of times TranscribePage was called.
func (m *MockVision) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockVision) Reset() {
	m.callCount = 0
	m.TranscribePageFunc = nil
}
