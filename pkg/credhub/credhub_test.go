package credhub

import (
	"os"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap_ExportsCredentials(t *testing.T) {
	t.Setenv("JIRA_EMAIL", "")
	t.Setenv(EnvServices, `{"credhub":[{"credentials":{"jira_email":"a@b.com"}}]}`)

	assert.Equal(t, 1, Bootstrap(hclog.NewNullLogger()))
	assert.Equal(t, "a@b.com", os.Getenv("JIRA_EMAIL"))
}

func TestBootstrap_NoOp(t *testing.T) {
	tests := map[string]string{
		"unset":                "",
		"not json":             "{credhub",
		"missing credhub":      `{"user-provided":[{"credentials":{"jira_email":"x@y.com"}}]}`,
		"credhub not a list":   `{"credhub":{"credentials":{"jira_email":"x@y.com"}}}`,
		"credentials a string": `{"credhub":[{"credentials":"jira_email=x@y.com"}]}`,
		"credentials a list":   `{"credhub":[{"credentials":["x@y.com"]}]}`,
		"binding not object":   `{"credhub":["x@y.com"]}`,
	}
	for name, blob := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JIRA_EMAIL", "unchanged")
			t.Setenv(EnvServices, blob)

			assert.NotPanics(t, func() {
				assert.Equal(t, 0, Bootstrap(nil))
			})
			assert.Equal(t, "unchanged", os.Getenv("JIRA_EMAIL"))
		})
	}
}

func TestExtract_Values(t *testing.T) {
	vars, err := Extract(`{
		"credhub": [
			{"credentials": {"api_key": "k", "port": 8443, "ratio": 0.5, "debug": true, "nested": {"a": 1}, "gone": null}},
			{"credentials": "skipped"},
			{"credentials": {"Second_Binding": "yes"}}
		]
	}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"API_KEY":        "k",
		"PORT":           "8443",
		"RATIO":          "0.5",
		"DEBUG":          "true",
		"NESTED":         `{"a":1}`,
		"SECOND_BINDING": "yes",
	}, vars)
}

func TestApply(t *testing.T) {
	t.Setenv("OAUTH_CLIENT_ID", "")
	t.Setenv("OAUTH_CLIENT_SECRET", "")

	n := Apply(`{"credhub":[{"credentials":{"oauth_client_id":"id","oauth_client_secret":"s"}}]}`, nil)
	assert.Equal(t, 2, n)
	assert.Equal(t, "id", os.Getenv("OAUTH_CLIENT_ID"))
	assert.Equal(t, "s", os.Getenv("OAUTH_CLIENT_SECRET"))
}
