// Package queue persists pending AI-translation work in SQLite and exposes
// helpers for driving item lifecycle.
//
// Items move pending -> processing -> completed or failed. A failed item
// whose error classifies as retryable re-enters pending while its attempt
// count stays under MaxRetries; the attempts column is the explicit counter,
// never reconstructed from error text. Claiming is a conditional UPDATE so
// concurrent workers cannot process the same item.
package queue
