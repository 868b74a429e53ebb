// Package passthrough forwards the browser's /api/ calls to the agent
// backend (a LangGraph server) with the backend API key attached, so the
// key never reaches the browser.
package passthrough
