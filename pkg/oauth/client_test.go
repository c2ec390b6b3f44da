package oauth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		ClientID:     "my-id",
		ClientSecret: "the-token",
		BaseURL:      baseURL,
		RedirectURI:  "https://app.example.com/callback",
		LoginMethod:  "sso",
	})
	require.NoError(t, err)
	return c
}

func TestClient_AuthorizeURL(t *testing.T) {
	c := newTestClient(t, "https://sso.example.com/as")

	got := c.AuthorizeURL("abc123", "")
	require.True(t, strings.HasPrefix(got, "https://sso.example.com/as/authorize?"), got)

	u, err := url.Parse(got)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "my-id", q.Get("client_id"))
	assert.Equal(t, "abc123", q.Get("state"))
	assert.Equal(t, "sso", q.Get("login_method"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
	assert.Equal(t, "https://app.example.com/callback", q.Get("redirect_uri"))

	t.Run("redirect override", func(t *testing.T) {
		u, err := url.Parse(c.AuthorizeURL("s", "https://other.example.com/cb"))
		require.NoError(t, err)
		assert.Equal(t, "https://other.example.com/cb", u.Query().Get("redirect_uri"))
	})
}

func TestBasicCredential(t *testing.T) {
	tests := []struct {
		name     string
		clientID string
		secret   string
		want     string
	}{
		{
			name:     "raw secret is encoded with the client id",
			clientID: "user",
			secret:   "the-token",
			want:     base64.StdEncoding.EncodeToString([]byte("user:the-token")),
		},
		{
			name:     "pre-encoded pair is used verbatim",
			clientID: "ignored",
			secret:   base64.StdEncoding.EncodeToString([]byte("my-id:long-secret-value")),
			want:     base64.StdEncoding.EncodeToString([]byte("my-id:long-secret-value")),
		},
		{
			name:     "long secret containing a colon is encoded",
			clientID: "id",
			secret:   "abcdefghijklmnop:qrstuvwxyz",
			want:     base64.StdEncoding.EncodeToString([]byte("id:abcdefghijklmnop:qrstuvwxyz")),
		},
		{
			name:     "short base64 looking secret is encoded",
			clientID: "id",
			secret:   "abcDEF123",
			want:     base64.StdEncoding.EncodeToString([]byte("id:abcDEF123")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BasicCredential(tt.clientID, tt.secret))
		})
	}
}

func TestClient_ExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, TokenPath, r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t,
			"Basic "+base64.StdEncoding.EncodeToString([]byte("my-id:the-token")),
			r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "https://app.example.com/callback", r.PostForm.Get("redirect_uri"))

		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	resp, err := c.ExchangeCode(context.Background(), "good", "")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "at", resp.JSON()["access_token"])

	resp, err = c.ExchangeCode(context.Background(), "bad", "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.Equal(t, "invalid_grant", resp.JSON()["error"])
}

func TestClient_RefreshAndIntrospect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.URL.Path {
		case TokenPath:
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			assert.Equal(t, "rt", r.PostForm.Get("refresh_token"))
			w.Write([]byte(`{"access_token":"new"}`))
		case IntrospectPath:
			assert.Equal(t, "at", r.PostForm.Get("token"))
			assert.Equal(t, "access_token", r.PostForm.Get("token_type_hint"))
			w.Write([]byte(`{"active":false}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	resp, err := c.RefreshToken(context.Background(), "rt")
	require.NoError(t, err)
	assert.Equal(t, "new", resp.JSON()["access_token"])

	resp, err = c.Introspect(context.Background(), "at", "access_token")
	require.NoError(t, err)
	assert.Equal(t, false, resp.JSON()["active"])
}

func TestClient_UserInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserInfoPath, r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("unauthorized"))
			return
		}
		w.Write([]byte(`{"sub":"123","email":"jane@example.com"}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	resp, err := c.UserInfo(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", resp.JSON()["email"])

	resp, err = c.UserInfo(context.Background(), "wrong")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", resp.Body)
	assert.Nil(t, resp.JSON())
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(t, srv.URL)
	srv.Close()

	resp, err := c.RefreshToken(context.Background(), "rt")
	assert.Nil(t, resp)
	var oauthErr *Error
	require.True(t, errors.As(err, &oauthErr))
	assert.Equal(t, "refresh_token", oauthErr.Op)
}

func TestNewClient_Invalid(t *testing.T) {
	t.Setenv("OAUTH_CLIENT_ID", "")
	t.Setenv("PING_CLIENT_ID", "")
	_, err := NewClient(Config{ClientSecret: "x"})
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "123",
		"email": "jane@example.com",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	resp := &Response{StatusCode: http.StatusOK, Body: map[string]any{
		"access_token":  "at",
		"refresh_token": "rt",
		"token_type":    "Bearer",
		"expires_in":    float64(3600),
		"id_token":      idToken,
	}}

	tok, err := Token(resp)
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.True(t, tok.Valid())

	claims, err := IDTokenClaims(tok)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", claims["email"])

	_, err = Token(&Response{StatusCode: http.StatusOK, Body: map[string]any{}})
	assert.ErrorIs(t, err, ErrNoAccessToken)

	_, err = Token(&Response{StatusCode: http.StatusBadRequest, Body: "nope"})
	assert.Error(t, err)
}

func TestParseIDToken_Malformed(t *testing.T) {
	_, err := ParseIDToken("not-a-jwt")
	assert.Error(t, err)
}

func TestNewState(t *testing.T) {
	assert.NotEqual(t, NewState(), NewState())
}

func TestClient_HTTPClient(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	hc := c.HTTPClient(context.Background(), &oauth2.Token{AccessToken: "abc", TokenType: "Bearer"})

	resp, err := hc.Get(srv.URL + "/anything")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer abc", auth)
}
