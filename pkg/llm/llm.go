// Package llm provides chat-completion clients behind a single Client
// interface.
//
// Implementations:
//   - MockClient: no network, used when no provider is configured
//   - OpenAIClient: OpenAI-compatible /chat/completions endpoint
//   - GatewayClient: Azure-style deployment gateway
//   - AdapterClient: routes by model to Anthropic, Gemini, Bedrock, Ollama
//     or OpenAI
//
// Use NewClient to pick one from configuration.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Default generation parameters.
const (
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 900
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options control a single generation.
type Options struct {
	Temperature float64
	MaxTokens   int
	JSONMode    bool

	// Model overrides the client's configured model.
	Model string
}

// Option modifies Options.
type Option func(*Options)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = t }
}

// WithMaxTokens sets the output token limit.
func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

// WithJSONMode asks the model for a JSON object.
func WithJSONMode(on bool) Option {
	return func(o *Options) { o.JSONMode = on }
}

// WithModel overrides the model for one call.
func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	return o
}

// Client generates chat completions.
type Client interface {
	// Name identifies the provider (e.g., "openai").
	Name() string

	// Generate returns the completion for messages.
	Generate(ctx context.Context, messages []Message, opts ...Option) (string, error)

	// Stream calls onChunk with each fragment as it arrives and returns the
	// full text. Providers without incremental delivery call onChunk once.
	Stream(ctx context.Context, messages []Message, onChunk func(string), opts ...Option) (string, error)
}

// Error is returned when a provider rejects or fails a request.
type Error struct {
	Provider   string
	StatusCode int    // Zero when no HTTP response was received
	Body       string // Truncated response body
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// streamOnce delivers a full generation as a single chunk.
func streamOnce(ctx context.Context, c Client, messages []Message, onChunk func(string), opts ...Option) (string, error) {
	text, err := c.Generate(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if onChunk != nil && text != "" {
		onChunk(text)
	}
	return text, nil
}

// NormalizeMessages converts loosely shaped message maps into Messages. Keys
// are matched ignoring case and a leading ':' ("role", "Role", ":role"), values
// are formatted as strings, and messages whose role or content is blank are
// dropped.
func NormalizeMessages(raw []map[string]any) []Message {
	out := make([]Message, 0, len(raw))
	for _, m := range raw {
		var role, content string
		for k, v := range m {
			switch strings.ToLower(strings.TrimPrefix(k, ":")) {
			case "role":
				role = stringify(v)
			case "content":
				content = stringify(v)
			}
		}
		if msg, ok := clean(Message{Role: role, Content: content}); ok {
			out = append(out, msg)
		}
	}
	return out
}

// Normalize drops messages whose role or content is blank.
func Normalize(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if msg, ok := clean(m); ok {
			out = append(out, msg)
		}
	}
	return out
}

func clean(m Message) (Message, bool) {
	m.Role = strings.TrimSpace(m.Role)
	if m.Role == "" || strings.TrimSpace(m.Content) == "" {
		return Message{}, false
	}
	return m, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// lastUserContent returns the content of the most recent user message.
func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, "user") {
			return messages[i].Content
		}
	}
	return ""
}

// splitSystem separates system messages, joined by blank lines, from the
// conversation.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if strings.EqualFold(m.Role, "system") {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
