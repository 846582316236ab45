// Package worker runs the asynchronous translation queue: expanding enqueue
// requests into items, claiming pending items atomically, calling the AI
// provider chain outside any database transaction, and committing results
// through the state machine's write path. Failed items re-enter the queue
// when their error is classified retryable and the attempt cap allows it.
package worker
