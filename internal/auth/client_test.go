// ABOUTME: Tests for the auth provider client against a fake GoTrue server
// ABOUTME: Checks request shape, apikey header, session decoding and error mapping

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAnonKey = "anon-key-123"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// fakeProvider records the last request and replies with a canned response.
type fakeProvider struct {
	status int
	body   any

	method  string
	path    string
	query   url.Values
	headers http.Header
	payload map[string]string
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.method = r.Method
	f.path = r.URL.Path
	f.query = r.URL.Query()
	f.headers = r.Header.Clone()
	f.payload = nil
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&f.payload)
	}

	w.Header().Set("Content-Type", "application/json")
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if f.body != nil {
		_ = json.NewEncoder(w).Encode(f.body)
	}
}

func newTestClient(t *testing.T, fake *fakeProvider) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", testAnonKey, testLogger(), WithHTTPClient(srv.Client()))
}

var sessionBody = map[string]any{
	"access_token":  "access-1",
	"token_type":    "bearer",
	"expires_in":    3600,
	"expires_at":    1700003600,
	"refresh_token": "refresh-1",
	"user": map[string]any{
		"id":            "user-1",
		"email":         "ada@example.com",
		"user_metadata": map[string]any{"full_name": "Ada Lovelace"},
	},
}

func TestClient_AuthorizeURL(t *testing.T) {
	c := NewClient("https://proj.supabase.co/", testAnonKey, testLogger())

	raw := c.AuthorizeURL("github", "http://localhost:3000/auth/callback", "challenge-abc")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "proj.supabase.co", u.Host)
	assert.Equal(t, "/auth/v1/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "github", q.Get("provider"))
	assert.Equal(t, "http://localhost:3000/auth/callback", q.Get("redirect_to"))
	assert.Equal(t, "challenge-abc", q.Get("code_challenge"))
	assert.Equal(t, "s256", q.Get("code_challenge_method"))
}

func TestClient_ExchangeCode(t *testing.T) {
	fake := &fakeProvider{body: sessionBody}
	c := newTestClient(t, fake)

	sess, err := c.ExchangeCode(context.Background(), "code-1", "verifier-1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, fake.method)
	assert.Equal(t, "/auth/v1/token", fake.path)
	assert.Equal(t, "pkce", fake.query.Get("grant_type"))
	assert.Equal(t, testAnonKey, fake.headers.Get("apikey"))
	assert.Equal(t, map[string]string{"auth_code": "code-1", "code_verifier": "verifier-1"}, fake.payload)

	assert.Equal(t, "access-1", sess.AccessToken)
	assert.Equal(t, "refresh-1", sess.RefreshToken)
	assert.Equal(t, "user-1", sess.User.ID)
	assert.Equal(t, "Ada Lovelace", sess.User.DisplayName())
	assert.Equal(t, time.Unix(1700003600, 0), sess.Expiry(time.Now()))
}

func TestClient_SignInWithPassword(t *testing.T) {
	fake := &fakeProvider{body: sessionBody}
	c := newTestClient(t, fake)

	_, err := c.SignInWithPassword(context.Background(), "ada@example.com", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "password", fake.query.Get("grant_type"))
	assert.Equal(t, "ada@example.com", fake.payload["email"])
	assert.Equal(t, "hunter2", fake.payload["password"])
}

func TestClient_Refresh(t *testing.T) {
	fake := &fakeProvider{body: sessionBody}
	c := newTestClient(t, fake)

	sess, err := c.Refresh(context.Background(), "refresh-0")
	require.NoError(t, err)

	assert.Equal(t, "refresh_token", fake.query.Get("grant_type"))
	assert.Equal(t, "refresh-0", fake.payload["refresh_token"])
	assert.Equal(t, "access-1", sess.AccessToken)
}

func TestClient_GetUser(t *testing.T) {
	fake := &fakeProvider{body: map[string]any{"id": "user-1", "email": "ada@example.com"}}
	c := newTestClient(t, fake)

	user, err := c.GetUser(context.Background(), "access-1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, fake.method)
	assert.Equal(t, "/auth/v1/user", fake.path)
	assert.Equal(t, "Bearer access-1", fake.headers.Get("Authorization"))
	assert.Equal(t, testAnonKey, fake.headers.Get("apikey"))
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestClient_SignOut(t *testing.T) {
	fake := &fakeProvider{status: http.StatusNoContent}
	c := newTestClient(t, fake)

	require.NoError(t, c.SignOut(context.Background(), "access-1"))
	assert.Equal(t, "/auth/v1/logout", fake.path)
	assert.Equal(t, "Bearer access-1", fake.headers.Get("Authorization"))
}

func TestClient_APIErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		wantCode string
		wantMsg  string
	}{
		{
			name:     "oauth style",
			status:   http.StatusBadRequest,
			body:     map[string]any{"error": "invalid_grant", "error_description": "Invalid login credentials"},
			wantCode: "invalid_grant",
			wantMsg:  "Invalid login credentials",
		},
		{
			name:     "msg style",
			status:   http.StatusUnprocessableEntity,
			body:     map[string]any{"code": 422, "error_code": "validation_failed", "msg": "Unsupported provider"},
			wantCode: "validation_failed",
			wantMsg:  "Unsupported provider",
		},
		{
			name:    "message style",
			status:  http.StatusUnauthorized,
			body:    map[string]any{"message": "Invalid API key"},
			wantMsg: "Invalid API key",
		},
		{
			name:    "empty body",
			status:  http.StatusInternalServerError,
			wantMsg: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeProvider{status: tt.status, body: tt.body})

			_, err := c.Refresh(context.Background(), "r")

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestClient_MissingAccessToken(t *testing.T) {
	c := newTestClient(t, &fakeProvider{body: map[string]any{"user": map[string]any{"id": "u"}}})

	_, err := c.ExchangeCode(context.Background(), "code", "verifier")
	assert.Error(t, err)
}

// countingTransport counts round trips before handing them to next.
type countingTransport struct {
	calls int
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls++
	return c.next.RoundTrip(r)
}

func TestClient_MissingURLFailsInTransport(t *testing.T) {
	var logs bytes.Buffer
	rt := &countingTransport{next: http.DefaultTransport}
	c := NewClient("", testAnonKey, slog.New(slog.NewTextHandler(&logs, nil)), WithHTTPClient(&http.Client{Transport: rt}))

	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "auth provider URL or key is missing")

	_, err := c.SignInWithPassword(context.Background(), "a@b", "pw")
	require.Error(t, err)
	assert.Equal(t, 1, rt.calls, "the call must reach the transport")

	var urlErr *url.Error
	assert.True(t, errors.As(err, &urlErr), "want a transport error, got %v", err)
}

func TestClient_MissingKeyRejectedUpstream(t *testing.T) {
	fake := &fakeProvider{
		status: http.StatusUnauthorized,
		body:   map[string]any{"message": "No API key found in request"},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	var logs bytes.Buffer
	c := NewClient(srv.URL, "", slog.New(slog.NewTextHandler(&logs, nil)), WithHTTPClient(srv.Client()))
	assert.Contains(t, logs.String(), "key_set=false")

	_, err := c.GetUser(context.Background(), "tok")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "No API key found in request", apiErr.Message)
	assert.Equal(t, "/auth/v1/user", fake.path)
	assert.Empty(t, fake.headers.Get("apikey"))
}

func TestClient_ContextCanceled(t *testing.T) {
	c := newTestClient(t, &fakeProvider{body: sessionBody})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Refresh(ctx, "r")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSession_ExpiryFromExpiresIn(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ExpiresIn: 60}
	assert.Equal(t, now.Add(time.Minute), s.Expiry(now))
}

func TestPKCE(t *testing.T) {
	verifier, err := NewCodeVerifier()
	require.NoError(t, err)
	assert.Len(t, verifier, 43)

	// RFC 7636 appendix B test vector.
	assert.Equal(t,
		"E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		CodeChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"))

	a, err := NewToken(16)
	require.NoError(t, err)
	b, err := NewToken(16)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
