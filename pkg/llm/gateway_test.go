package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatewayServer answers on the paths in ok, replies status to everything
// else, and records every requested path.
func gatewayServer(t *testing.T, status int, ok ...string) (*httptest.Server, func() []string) {
	var mu sync.Mutex
	var paths []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()

		assert.Equal(t, "2024-06-01", r.URL.Query().Get("api-version"))
		assert.Equal(t, "secret", r.Header.Get("api-key"))

		for _, p := range ok {
			if r.URL.Path == p {
				json.NewEncoder(w).Encode(completion("from " + p))
				return
			}
		}
		w.WriteHeader(status)
		w.Write([]byte(`{"error":{"message":"nope"}}`))
	}))

	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), paths...)
	}
}

func newTestGatewayClient(t *testing.T, serverURL string) *GatewayClient {
	t.Helper()
	client, err := NewGatewayClient(GatewayConfig{
		APIKey:  "secret",
		BaseURL: serverURL,
		Model:   "gpt-4o",
		Logger:  hclog.NewNullLogger(),
	})
	require.NoError(t, err)
	return client
}

func TestGatewayClient_CandidateURLs(t *testing.T) {
	client := newTestGatewayClient(t, "https://gateway.example.com/")
	assert.Equal(t, []string{
		"https://gateway.example.com/openai/deployments/gpt-4o/chat/completions?api-version=2024-06-01",
		"https://gateway.example.com/deployments/gpt-4o/chat/completions?api-version=2024-06-01",
		"https://gateway.example.com/gpt-4o/chat/completions?api-version=2024-06-01",
	}, client.CandidateURLs("gpt-4o"))
}

func TestGatewayClient_FirstShape(t *testing.T) {
	srv, paths := gatewayServer(t, http.StatusNotFound, "/openai/deployments/gpt-4o/chat/completions")
	defer srv.Close()

	text, err := newTestGatewayClient(t, srv.URL).Generate(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "from /openai/deployments/gpt-4o/chat/completions", text)
	assert.Len(t, paths(), 1)
}

func TestGatewayClient_NotFoundTriesNextShape(t *testing.T) {
	srv, paths := gatewayServer(t, http.StatusNotFound, "/deployments/gpt-4o/chat/completions")
	defer srv.Close()

	text, err := newTestGatewayClient(t, srv.URL).Generate(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "from /deployments/gpt-4o/chat/completions", text)
	assert.Equal(t, []string{
		"/openai/deployments/gpt-4o/chat/completions",
		"/deployments/gpt-4o/chat/completions",
	}, paths())
}

func TestGatewayClient_OtherFailureStops(t *testing.T) {
	srv, paths := gatewayServer(t, http.StatusInternalServerError, "/deployments/gpt-4o/chat/completions")
	defer srv.Close()

	_, err := newTestGatewayClient(t, srv.URL).Generate(context.Background(), []Message{{Role: "user", Content: "hi"}})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "nope", apiErr.Body)
	assert.Len(t, paths(), 1)
}

func TestGatewayClient_AllShapesMissing(t *testing.T) {
	srv, paths := gatewayServer(t, http.StatusNotFound)
	defer srv.Close()

	_, err := newTestGatewayClient(t, srv.URL).Generate(context.Background(), []Message{{Role: "user", Content: "hi"}})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Len(t, paths(), 3)
}

func TestGatewayClient_ModelOverrideAndHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/o3-mini/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "model")
		assert.Contains(t, body, FieldMaxCompletionTokens)
		json.NewEncoder(w).Encode(completion("ok"))
	}))
	defer srv.Close()

	client, err := NewGatewayClient(GatewayConfig{
		APIKey:  "secret",
		BaseURL: srv.URL,
		Header:  "Authorization",
		Logger:  hclog.NewNullLogger(),
	})
	require.NoError(t, err)

	var chunks []string
	text, err := client.Stream(context.Background(),
		[]Message{{Role: "user", Content: "hi"}},
		func(s string) { chunks = append(chunks, s) },
		WithModel("o3-mini"))
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, []string{"ok"}, chunks)
}

func TestNewGatewayClient_RequiresKey(t *testing.T) {
	t.Setenv("LLM_GATEWAY_API_KEY", "")
	t.Setenv("MERCK_GPT_API_KEY", "")
	_, err := NewGatewayClient(GatewayConfig{})
	assert.Error(t, err)

	t.Setenv("MERCK_GPT_API_KEY", "legacy")
	client, err := NewGatewayClient(GatewayConfig{})
	require.NoError(t, err)
	assert.Equal(t, "legacy", client.config.APIKey)
	assert.Equal(t, DefaultGatewayHeader, client.config.Header)
}
