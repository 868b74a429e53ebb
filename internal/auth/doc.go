// Package auth wraps the hosted auth provider used by agent-chat.
//
// # Provider Client
//
// Client speaks the Supabase GoTrue REST API. Every call carries the
// project's anon key in the apikey header:
//
//	client := auth.NewClient(cfg.Auth.SupabaseURL, cfg.Auth.SupabaseAnonKey, logger)
//	url := client.AuthorizeURL("github", callbackURL, auth.CodeChallenge(verifier))
//	sess, err := client.ExchangeCode(ctx, code, verifier)
//
// A client built without a URL or key logs an error but is not otherwise
// guarded: its calls fail in the transport (no URL) or are rejected by the
// provider (no key). Non-2xx responses become *APIError. Nothing retries.
//
// # OAuth (PKCE)
//
// Sign-in uses the authorization code flow with an S256 challenge.
// NewCodeVerifier and CodeChallenge produce the pair; the verifier stays
// server-side until the callback exchanges the code.
//
// # Local Token Verification
//
// When the project JWT secret is configured, JWTVerifier checks access
// tokens locally (HS256) so a page load does not need a provider round trip.
//
// # Session State
//
// State is the per-request view of the visitor (loading, authenticated,
// user). The web middleware derives it and attaches it with WithState.
package auth
