// Package translator wraps the configured AI providers behind a single
// interface and sequences them as an explicit fallback chain with per-call
// timeouts and circuit breakers.
package translator
