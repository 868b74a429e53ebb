// ABOUTME: Tests for request token helpers
// ABOUTME: Covers bearer token extraction from the Authorization header

package auth

import (
	"net/http/httptest"
	"testing"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantErr   string
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", ""},
		{"missing", "", "", "missing authorization header"},
		{"basic auth", "Basic dXNlcjpwYXNz", "", "invalid authorization header format"},
		{"empty token", "Bearer ", "", "empty token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, errMsg := extractBearerToken(tt.header)
			if token != tt.wantToken {
				t.Errorf("token = %q, want %q", token, tt.wantToken)
			}
			if errMsg != tt.wantErr {
				t.Errorf("errMsg = %q, want %q", errMsg, tt.wantErr)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/session", nil)
	if _, ok := BearerToken(req); ok {
		t.Error("BearerToken() ok = true without header")
	}

	req.Header.Set("Authorization", "Bearer tok")
	token, ok := BearerToken(req)
	if !ok || token != "tok" {
		t.Errorf("BearerToken() = %q, %v", token, ok)
	}
}
