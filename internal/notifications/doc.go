// Package notifications delivers push notifications for review workflow and
// queue events via ntfy.
//
// The Service interface keeps callers decoupled from delivery; when no topic
// is configured a noop implementation is injected so call sites never branch
// on configuration.
package notifications
