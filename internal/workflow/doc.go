// Package workflow drives queued downloads through a bounded pool of workers.
//
// The Manager owns a run-state machine (idle, running, paused, stopping) and a
// single dispatch loop. The loop waits on the run gate, claims the next queued
// item once a worker slot is free, and hands it to a task goroutine that calls
// the download engine. Tasks apply the retry policy around each engine call,
// honoring the gate and cancellation between attempts. Stop cancels every
// task, returns unfinished items to queued, and waits for the pool to drain.
//
// Callbacks and push notifications are delivered on dispatcher goroutines so
// a slow subscriber never stalls dispatch. Callbacks always run after the
// manager and queue locks are released.
package workflow
