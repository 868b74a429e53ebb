// Package server wires the agent-chat components into one HTTP service:
// the pages from internal/web, the /api passthrough, the embedded static
// assets and the operator's public directory. It owns the store, the
// session janitor and the config change watcher.
package server
