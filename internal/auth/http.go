// ABOUTME: Request helpers for reading access tokens off incoming requests
// ABOUTME: Extracts bearer tokens from the Authorization header

package auth

import (
	"net/http"
	"strings"
)

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// BearerToken returns the bearer token on r, if any. Scripts that hold a
// provider access token use it instead of the session cookie.
func BearerToken(r *http.Request) (string, bool) {
	token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
	return token, errMsg == ""
}
