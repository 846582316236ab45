// Package daemon coordinates the long-running LinguaFlow server process.
//
// It wires configuration, the SQLite store, the AI translation worker pool,
// and the HTTP API into a single lifecycle with flock-based locking to
// prevent multiple instances against the same database.
//
// Keep orchestration logic here: request handling lives in internal/server
// and queue processing in internal/worker while the daemon focuses on
// startup, shutdown, and single-instance enforcement.
package daemon
