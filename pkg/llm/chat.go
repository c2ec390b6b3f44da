package llm

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Token limit field names of the chat-completions API.
const (
	FieldMaxTokens           = "max_tokens"
	FieldMaxCompletionTokens = "max_completion_tokens"
)

// reasoningModel matches model families that only accept
// max_completion_tokens.
var reasoningModel = regexp.MustCompile(`(?i)^(o1|o3|o4|gpt-5)([-.:]|$)`)

// tokenFieldFor picks the token limit field for a model.
func tokenFieldFor(model string) string {
	if reasoningModel.MatchString(model) {
		return FieldMaxCompletionTokens
	}
	return FieldMaxTokens
}

// unsupportedField matches errors such as "Unsupported parameter:
// 'max_tokens' is not supported with this model. Use 'max_completion_tokens'
// instead."
var unsupportedField = regexp.MustCompile(`(?is)'([a-z_]+)'[^']*not supported.*?use '([a-z_]+)' instead`)

// replacementField returns the field the server asks for instead of field,
// if body is such a rejection.
func replacementField(body, field string) (string, bool) {
	m := unsupportedField.FindStringSubmatch(body)
	if m == nil || !strings.EqualFold(m[1], field) || strings.EqualFold(m[2], field) {
		return "", false
	}
	return strings.ToLower(m[2]), true
}

// chatRequest builds a chat-completions payload. The token limit is stored
// under tokenField.
func chatRequest(model string, messages []Message, o Options, tokenField string, stream bool) map[string]any {
	req := map[string]any{
		"messages":    messages,
		"temperature": o.Temperature,
		tokenField:    o.MaxTokens,
	}
	if model != "" {
		req["model"] = model
	}
	if o.JSONMode {
		req["response_format"] = map[string]string{"type": "json_object"}
	}
	if stream {
		req["stream"] = true
	}
	return req
}

// ChatResponse is a chat-completions response.
type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   ChatUsage    `json:"usage"`
}

type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	Delta        Message `json:"delta"`
	FinishReason string  `json:"finish_reason"`
}

type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatErrorResponse is the error envelope of the chat-completions API.
type ChatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// parseChatResponse extracts the first choice's content.
func parseChatResponse(body []byte) (string, error) {
	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// errorMessage prefers the API's error message over the raw body.
func errorMessage(body []byte) string {
	var errResp ChatErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return string(body)
}

// streamDone marks the end of a server-sent event stream.
const streamDone = "[DONE]"

// readEventStream reads a chat-completions server-sent event stream, calling
// onChunk with every content delta, and returns the concatenated text.
func readEventStream(r io.Reader, onChunk func(string), logger hclog.Logger) (string, error) {
	var full strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == streamDone {
			break
		}

		var chunk ChatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			logger.Debug("skipping malformed stream event", "error", err)
			continue
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			full.WriteString(choice.Delta.Content)
			if onChunk != nil {
				onChunk(choice.Delta.Content)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("error reading stream: %w", err)
	}
	return full.String(), nil
}
