package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/hermes-connectors/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-connectors/internal/version"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

type result struct {
	code   int
	ui     *cli.MockUi
	fs     afero.Fs
	stdout *bytes.Buffer
}

func runCLI(t *testing.T, args ...string) (int, *cli.MockUi) {
	t.Helper()
	r := runCLIWithFS(t, args...)
	return r.code, r.ui
}

func runCLIWithFS(t *testing.T, args ...string) result {
	t.Helper()
	r := result{
		ui:     cli.NewMockUi(),
		fs:     afero.NewMemMapFs(),
		stdout: &bytes.Buffer{},
	}
	b := base.NewCommand(hclog.NewNullLogger(), r.ui)
	b.FS = r.fs
	b.Stdout = r.stdout
	r.code = run("hermes-connectors", args, b)
	return r
}

func TestVersion(t *testing.T) {
	code, ui := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, version.Version+"\n", ui.OutputWriter.String())
}

func TestChat_Mock(t *testing.T) {
	cfg := writeConfig(t, `
chat {
  provider = "mock"
}
`)
	code, ui := runCLI(t, "chat", "-config", cfg, "hello", "there")
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Contains(t, ui.OutputWriter.String(), `You said: "hello there"`)
}

func TestChat_RequiresPrompt(t *testing.T) {
	code, ui := runCLI(t, "chat")
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "a prompt is required")
}

func TestJiraSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/search", r.URL.Path)
		assert.Equal(t, "project = ABC", r.URL.Query().Get("jql"))
		json.NewEncoder(w).Encode(map[string]any{
			"startAt": 0,
			"total":   1,
			"issues":  []map[string]any{{"key": "ABC-1"}},
		})
	}))
	defer srv.Close()

	cfg := writeConfig(t, fmt.Sprintf(`
jira {
  base_url  = %q
  username  = "svc"
  api_token = "tok"
}
`, srv.URL))

	code, ui := runCLI(t, "jira", "search", "-config", cfg, "project", "=", "ABC")
	require.Equal(t, 0, code, ui.ErrorWriter.String())

	var issues []map[string]any
	require.NoError(t, json.Unmarshal(ui.OutputWriter.Bytes(), &issues))
	require.Len(t, issues, 1)
	assert.Equal(t, "ABC-1", issues[0]["key"])
}

func TestJiraIssue_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := writeConfig(t, fmt.Sprintf(`
jira {
  base_url  = %q
  username  = "svc"
  api_token = "tok"
}
`, srv.URL))

	code, ui := runCLI(t, "jira", "issue", "-config", cfg, "ABC-404")
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), `issue "ABC-404" not found`)
}

func TestListsItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lists/Tasks/items", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("$top"))
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{{"id": "1", "Title": "First"}},
		})
	}))
	defer srv.Close()

	cfg := writeConfig(t, fmt.Sprintf(`
sharepoint {
  gateway_url   = %q
  api_key       = "k"
  site_url      = "https://contoso.sharepoint.com/sites/team"
  client_id     = "id"
  client_secret = "secret"
}
`, srv.URL))

	code, ui := runCLI(t, "lists", "items", "-config", cfg, "-top", "5", "Tasks")
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Contains(t, ui.OutputWriter.String(), `"Title": "First"`)
}

func TestOAuthAuthorizeURL(t *testing.T) {
	cfg := writeConfig(t, `
oauth {
  client_id     = "my-app"
  client_secret = "s3cret"
  base_url      = "https://sso.example.com/as"
  redirect_uri  = "https://app.example.com/callback"
}
`)

	code, ui := runCLI(t, "oauth", "authorize-url", "-config", cfg, "-state", "xyz")
	require.Equal(t, 0, code, ui.ErrorWriter.String())

	out := ui.OutputWriter.String()
	assert.Contains(t, out, "https://sso.example.com/as/authorize?")
	assert.Contains(t, out, "client_id=my-app")
	assert.Contains(t, out, "state=xyz")
}

func TestDoctor(t *testing.T) {
	cfg := writeConfig(t, `
directory {
  base_url = "https://graph.example.com"
  api_key  = "k"
}

jira {
  base_url = "not a url"
}
`)

	code, ui := runCLI(t, "doctor", "-config", cfg, "directory")
	assert.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Contains(t, ui.OutputWriter.String(), "directory")
	assert.Contains(t, ui.OutputWriter.String(), "ok")

	code, ui = runCLI(t, "doctor", "-config", cfg, "jira")
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "jira")
}

func TestMissingConfigFile(t *testing.T) {
	code, ui := runCLI(t, "doctor", "-config", filepath.Join(t.TempDir(), "nope.hcl"))
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "error loading config")
}

func TestChat_Stream(t *testing.T) {
	cfg := writeConfig(t, `
chat {
  provider = "mock"
}
`)
	r := runCLIWithFS(t, "chat", "-config", cfg, "-stream", "ping")
	require.Equal(t, 0, r.code, r.ui.ErrorWriter.String())
	assert.Contains(t, r.stdout.String(), `You said: "ping"`)
	assert.Empty(t, r.ui.OutputWriter.String())
}

func TestWikiAttachments_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/content/42/child/attachment":
			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{{
					"id":     "att1",
					"title":  "diagram.png",
					"_links": map[string]any{"download": "/download/attachments/42/diagram.png"},
				}},
			})
		case "/download/attachments/42/diagram.png":
			w.Write([]byte("PNGDATA"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := writeConfig(t, fmt.Sprintf(`
confluence {
  base_url = %q
  username = "svc"
  secret   = "tok"
}
`, srv.URL))

	r := runCLIWithFS(t, "wiki", "attachments", "-config", cfg, "-download", "diagram.png", "-out", "/tmp/d.png", "42")
	require.Equal(t, 0, r.code, r.ui.ErrorWriter.String())

	data, err := afero.ReadFile(r.fs, "/tmp/d.png")
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))
}

func TestPeoplePhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/jdoe@example.com":
			json.NewEncoder(w).Encode(map[string]any{
				"id":   "u1",
				"mail": "jdoe@example.com",
			})
		case "/users/jdoe@example.com/photo/$value":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("JPEG"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := writeConfig(t, fmt.Sprintf(`
directory {
  base_url = %q
  api_key  = "k"
}
`, srv.URL))

	r := runCLIWithFS(t, "people", "photo", "-config", cfg, "-out", "me.jpg", "jdoe@example.com")
	require.Equal(t, 0, r.code, r.ui.ErrorWriter.String())

	data, err := afero.ReadFile(r.fs, "me.jpg")
	require.NoError(t, err)
	assert.Equal(t, "JPEG", string(data))
}

func TestJiraSearch_UpdatedSince(t *testing.T) {
	var jql string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jql = r.URL.Query().Get("jql")
		json.NewEncoder(w).Encode(map[string]any{"startAt": 0, "total": 0, "issues": []any{}})
	}))
	defer srv.Close()

	cfg := writeConfig(t, fmt.Sprintf(`
jira {
  base_url  = %q
  username  = "svc"
  api_token = "tok"
}
`, srv.URL))

	code, ui := runCLI(t, "jira", "search", "-config", cfg, "-updated-since", "2024-03-05", "project = ABC")
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Equal(t, `(project = ABC) AND updated >= "2024-03-05 00:00"`, jql)

	code, ui = runCLI(t, "jira", "search", "-config", cfg, "-updated-since", "not a date")
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "error parsing -updated-since")
}
