// Package store persists agent-chat's server-side session state.
//
// # Data Models
//
//   - Session: a browser session. The cookie carries only the opaque ID;
//     the provider's access and refresh tokens stay in the database.
//   - OAuthFlow: a sign-in sent to the provider and awaiting its callback.
//     Holds the PKCE verifier and is consumed exactly once.
//
// # Implementations
//
// SQLiteStore (modernc.org/sqlite, no cgo) is used by the server.
// MemoryStore keeps everything in maps and backs tests and --ephemeral runs.
//
// Timestamps are stored as RFC 3339 strings in UTC.
package store
