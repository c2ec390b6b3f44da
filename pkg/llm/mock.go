package llm

import (
	"context"
	"fmt"
)

// MockClient answers without any network access.
type MockClient struct{}

// NewMockClient returns a MockClient.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Name() string {
	return "mock"
}

// Generate returns a fixed notice quoting the latest user message.
func (c *MockClient) Generate(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	prompt := lastUserContent(Normalize(messages))
	return fmt.Sprintf("[mock] No chat provider is configured, so this reply is canned. Set LLM_PROVIDER to enable a real model. You said: %q", prompt), nil
}

func (c *MockClient) Stream(ctx context.Context, messages []Message, onChunk func(string), opts ...Option) (string, error) {
	return streamOnce(ctx, c, messages, onChunk, opts...)
}
