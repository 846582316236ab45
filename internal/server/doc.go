// Package server exposes the translation sync, bulk-upload, queue, and
// review surfaces over HTTP with bearer-token authentication. Handlers stay
// thin: they decode payloads, delegate to the import engine, state machine,
// and queue, and map the service error taxonomy onto HTTP status codes.
package server
