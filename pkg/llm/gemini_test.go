package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiServer(t *testing.T, handle func(w http.ResponseWriter, body map[string]any)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		body["path"] = r.URL.Path

		w.Header().Set("Content-Type", "application/json")
		handle(w, body)
	}))
}

func newTestGeminiClient(t *testing.T, serverURL string) *GeminiClient {
	client, err := NewGeminiClient(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "gemini-1.5-flash",
		Logger:  hclog.NewNullLogger(),
	})
	require.NoError(t, err)
	return client
}

func TestGeminiClient_Generate(t *testing.T) {
	srv := geminiServer(t, func(w http.ResponseWriter, body map[string]any) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", body["path"])

		contents, _ := body["contents"].([]any)
		require.Len(t, contents, 3)
		roles := make([]string, 0, len(contents))
		for _, c := range contents {
			roles = append(roles, c.(map[string]any)["role"].(string))
		}
		assert.Equal(t, []string{"user", "model", "user"}, roles)

		system, _ := body["systemInstruction"].(map[string]any)
		require.NotNil(t, system)
		parts := system["parts"].([]any)
		assert.Equal(t, "Be kind.", parts[0].(map[string]any)["text"])

		gen, _ := body["generationConfig"].(map[string]any)
		require.NotNil(t, gen)
		assert.InDelta(t, 0.2, gen["temperature"], 0.0001)
		assert.Equal(t, float64(900), gen["maxOutputTokens"])
		assert.NotContains(t, gen, "responseMimeType")

		w.Write([]byte(`{"candidates":[
			{"content":{"role":"model","parts":[]}},
			{"content":{"role":"model","parts":[{"text":"Hello "},{"text":"from Gemini"}]}}
		]}`))
	})
	defer srv.Close()

	text, err := newTestGeminiClient(t, srv.URL).Generate(context.Background(), []Message{
		{Role: "system", Content: "Be kind."},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi, how can I help?"},
		{Role: "user", Content: "say hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello from Gemini", text)
}

func TestGeminiClient_JSONMode(t *testing.T) {
	srv := geminiServer(t, func(w http.ResponseWriter, body map[string]any) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-pro:generateContent", body["path"])
		assert.NotContains(t, body, "systemInstruction")

		gen, _ := body["generationConfig"].(map[string]any)
		require.NotNil(t, gen)
		assert.Equal(t, "application/json", gen["responseMimeType"])
		assert.Equal(t, float64(50), gen["maxOutputTokens"])

		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"ok\":true}"}]}}]}`))
	})
	defer srv.Close()

	text, err := newTestGeminiClient(t, srv.URL).Generate(context.Background(),
		[]Message{{Role: "user", Content: "json please"}},
		WithJSONMode(true), WithMaxTokens(50), WithModel("gemini-2.0-pro"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, text)
}

func TestGeminiClient_NoCandidates(t *testing.T) {
	srv := geminiServer(t, func(w http.ResponseWriter, body map[string]any) {
		w.Write([]byte(`{"candidates":[]}`))
	})
	defer srv.Close()

	_, err := newTestGeminiClient(t, srv.URL).Generate(context.Background(),
		[]Message{{Role: "user", Content: "hello"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no response generated")

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "gemini", apiErr.Provider)
	assert.Zero(t, apiErr.StatusCode)
}

func TestGeminiClient_APIError(t *testing.T) {
	srv := geminiServer(t, func(w http.ResponseWriter, body map[string]any) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"model not found","status":"INVALID_ARGUMENT"}}`))
	})
	defer srv.Close()

	_, err := newTestGeminiClient(t, srv.URL).Generate(context.Background(),
		[]Message{{Role: "user", Content: "hello"}})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "model not found")
}

func TestAdapterClient_GeminiRoute(t *testing.T) {
	srv := geminiServer(t, func(w http.ResponseWriter, body map[string]any) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-pro:generateContent", body["path"])
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"routed"}]}}]}`))
	})
	defer srv.Close()

	adapter := NewAdapterClient(AdapterConfig{
		Model:         "gemini-1.5-pro",
		GeminiAPIKey:  "test-key",
		GeminiBaseURL: srv.URL,
		Logger:        hclog.NewNullLogger(),
		HTTPClient:    srv.Client(),
	})
	text, err := adapter.Generate(context.Background(), []Message{{Role: "user", Content: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, "routed", text)
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}
