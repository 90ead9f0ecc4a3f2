package services

import (
	"context"
	"sync"
)

// MockLLM is a mock implementation of LLMService for testing.
type MockLLM struct {
	CompleteFunc func(ctx context.Context, prompt string, stop []string) (string, error)
	Model        string

	// Responses, when non-empty, is consumed one element per Complete
	// call (after it runs out, subsequent calls return the last
	// element). Ignored when CompleteFunc is set.
	Responses []string

	// Track calls for testing
	CompleteCalls []CompleteCall

	mu sync.Mutex // protects all fields above
}

// CompleteCall records the arguments of one Complete invocation.
type CompleteCall struct {
	Prompt string
	Stop   []string
}

var _ LLMService = (*MockLLM)(nil)

// NewMockLLM creates a mock LLM service.
func NewMockLLM() *MockLLM {
	return &MockLLM{
		Model:         "mock-model-v1",
		CompleteCalls: make([]CompleteCall, 0),
	}
}

func (m *MockLLM) ModelName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Model
}

func (m *MockLLM) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := CompleteCall{Prompt: prompt, Stop: append([]string(nil), stop...)}
	m.CompleteCalls = append(m.CompleteCalls, call)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, stop)
	}

	if len(m.Responses) > 0 {
		idx := len(m.CompleteCalls) - 1
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		}
		return m.Responses[idx], nil
	}

	return "Mock completion", nil
}

// CallCount reports how many times Complete was invoked.
func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CompleteCalls)
}

// Reset clears all call tracking.
func (m *MockLLM) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = make([]CompleteCall, 0)
}
