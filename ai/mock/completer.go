package mock

import (
	"context"

	"github.com/fleetkit/knowledge/ai"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns a canned answer echoing the last user message.
	CompleteFunc func(ctx context.Context, messages []ai.Message) (string, error)

	callCount    int
	lastMessages []ai.Message
}

// NewMockCompleter creates a mock completer with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete records the request and returns the injected or default answer.
func (m *MockCompleter) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	m.callCount++
	m.lastMessages = messages

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}

	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == ai.RoleUser {
			return "Mock answer to: " + messages[i].Content, nil
		}
	}
	return "Mock answer", nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	return m.callCount
}

// LastMessages returns the message sequence from the most recent call.
func (m *MockCompleter) LastMessages() []ai.Message {
	return m.lastMessages
}

// Reset clears the call count and injected behavior.
func (m *MockCompleter) Reset() {
	m.callCount = 0
	m.lastMessages = nil
	m.CompleteFunc = nil
}
