// Package dispatch runs notification callbacks off the caller's goroutine.
//
// A Dispatcher owns one goroutine that executes submitted functions in
// submission order. Submit never blocks on the callback itself, so queue and
// workflow code can emit events after releasing their locks without risking
// re-entrant deadlocks. Panics inside a callback are recovered and logged.
package dispatch
