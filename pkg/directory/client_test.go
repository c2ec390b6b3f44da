package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:       serverURL,
		APIKey:        "key",
		DefaultDomain: "corp.example.com",
		Logger:        hclog.NewNullLogger(),
	})
	require.NoError(t, err)
	return c
}

func TestClient_User(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get(HeaderAPIKey))
		switch r.URL.Path {
		case "/users/jane@example.com":
			w.Write([]byte(`{
				"id": "u1",
				"displayName": "Jane Doe",
				"mail": "jane@example.com",
				"userPrincipalName": "jdoe@corp.example.com",
				"mailNickname": "jdoe",
				"employeeId": 1234
			}`))
		case "/users/jane@example.com/manager":
			w.Write([]byte(`{"id":"m1","displayName":"Boss"}`))
		case "/users/broken":
			w.Write([]byte(`not json`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	p := c.User(ctx, "jane@example.com")
	require.NotNil(t, p)
	assert.Equal(t, "Jane Doe", p.DisplayName)
	assert.Equal(t, "jdoe", p.LocalID)
	assert.Equal(t, "1234", p.EmployeeID)
	assert.Equal(t, "u1", p.Raw["id"])

	m := c.Manager(ctx, "jane@example.com")
	require.NotNil(t, m)
	assert.Equal(t, "Boss", m.DisplayName)

	assert.Nil(t, c.User(ctx, "missing"))
	assert.Nil(t, c.User(ctx, "broken"))
}

func TestClient_DirectReports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/boss/directReports" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.Equal(t, "id,displayName", r.URL.Query().Get("$select"))
		w.Write([]byte(`{"value":[{"id":"a","displayName":"A"},{"id":"b","displayName":"B"}]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	reports := c.DirectReports(context.Background(), "boss", "id", "displayName")
	require.Len(t, reports, 2)
	assert.Equal(t, "B", reports[1].DisplayName)

	assert.Nil(t, c.DirectReports(context.Background(), "other"))
}

func TestPhotoCandidates(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    []string
	}{
		{
			name: "email domain",
			profile: Profile{
				Mail:              "jane@example.com",
				LocalID:           "jdoe",
				UserPrincipalName: "jdoe@corp.example.com",
			},
			want: []string{"jane@example.com", "jdoe@example.com", "jdoe", "jdoe@corp.example.com"},
		},
		{
			name:    "principal name domain deduplicated ignoring case",
			profile: Profile{LocalID: "jdoe", UserPrincipalName: "JDOE@other.example.com"},
			want:    []string{"jdoe@other.example.com", "jdoe"},
		},
		{
			name:    "default domain and dedup",
			profile: Profile{LocalID: "jdoe", UserPrincipalName: "jdoe"},
			want:    []string{"jdoe@default.example.com", "jdoe"},
		},
		{
			name:    "nothing",
			profile: Profile{},
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, photoCandidates(&tt.profile, "default.example.com"))
		})
	}
}

func TestClient_UserPhoto(t *testing.T) {
	var mu sync.Mutex
	var tried []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/users/"), "/photo/$value")
		mu.Lock()
		tried = append(tried, id)
		mu.Unlock()

		switch id {
		case "jdoe":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte{0xff, 0xd8, 0xff})
		case "jane@example.com":
			// Found but empty.
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	t.Run("falls back through candidates", func(t *testing.T) {
		tried = nil
		photo := c.UserPhoto(ctx, &Profile{Mail: "jane@example.com", LocalID: "jdoe"})
		require.True(t, photo.Found())
		assert.Equal(t, "image/jpeg", photo.ContentType)
		assert.Equal(t, []string{"jane@example.com", "jdoe@example.com", "jdoe"}, tried)
	})

	t.Run("returns last response", func(t *testing.T) {
		photo := c.UserPhoto(ctx, &Profile{Mail: "nobody@example.com"})
		assert.False(t, photo.Found())
		assert.Equal(t, http.StatusNotFound, photo.StatusCode)
	})

	t.Run("no candidates", func(t *testing.T) {
		tried = nil
		photo := c.UserPhoto(ctx, &Profile{})
		assert.Equal(t, http.StatusNotFound, photo.StatusCode)
		assert.Empty(t, tried)
	})
}
