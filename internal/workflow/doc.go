// Package workflow implements the translation state machine. A translation
// moves draft -> review -> approved, with rejection returning it to draft.
// The engine checks permissions before writing, performs each transition in
// one transaction alongside a history snapshot, and fans out side effects
// (cache invalidation, notifications, webhooks, translation memory) only
// after the transaction commits.
package workflow
