// Package queue holds the in-memory download queue and its item model.
//
// Queue is the single source of truth for queued, active, and finished
// downloads. It is safe for any number of concurrent producers and consumers:
// every mutation is serialized behind one mutex, reads return copies, and
// structural changes wake blocked WaitForItem callers and Changed watchers.
// Events (item added/updated/removed, queue cleared) are delivered in order on
// a dedicated goroutine after the lock is released.
//
// Items are never removed implicitly; completed and failed downloads stay
// visible until a caller clears them.
package queue
