package llm

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/mindforge/internal/domain"
)

// MockClient is a configurable LLM client for testing.
// Responses are consumed in order; once exhausted DefaultResponse is
// returned. Handler, when set, takes precedence over both.
type MockClient struct {
	mu sync.Mutex

	Responses       []string
	DefaultResponse string
	Err             error
	Handler         func(messages []domain.Message) (string, error)

	// Call tracking for assertions
	Calls [][]domain.Message
}

func NewMockClient() *MockClient {
	return &MockClient{DefaultResponse: "Mock response"}
}

// NewScriptedClient returns a mock that answers with responses in order.
func NewScriptedClient(responses ...string) *MockClient {
	m := NewMockClient()
	m.Responses = responses
	return m
}

func (c *MockClient) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	c.mu.Lock()
	c.Calls = append(c.Calls, messages)
	if h := c.Handler; h != nil {
		c.mu.Unlock()
		return h(messages)
	}
	defer c.mu.Unlock()

	if c.Err != nil {
		return "", c.Err
	}
	if len(c.Responses) > 0 {
		resp := c.Responses[0]
		c.Responses = c.Responses[1:]
		return resp, nil
	}
	return c.DefaultResponse, nil
}

// CallCount returns the number of Generate calls made so far.
func (c *MockClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}

// LastPrompt returns the content of the final message of the latest call.
func (c *MockClient) LastPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Calls) == 0 {
		return ""
	}
	last := c.Calls[len(c.Calls)-1]
	if len(last) == 0 {
		return ""
	}
	return last[len(last)-1].Content
}

// Reset clears all recorded calls and resets responses to defaults.
func (c *MockClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Responses = nil
	c.DefaultResponse = "Mock response"
	c.Err = nil
	c.Handler = nil
	c.Calls = nil
}
