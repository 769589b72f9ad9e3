// Package retry decides whether a failed download attempt should be retried.
//
// Policy is stateless: given the attempt error, the 1-based attempt number,
// the item's retry budget, and a base delay, it returns either a backoff
// delay or a terminal verdict. Counters and timestamps stay with the caller.
// The Clock abstraction lets the workflow sleep through backoff in a way
// tests can drive without real time passing.
package retry
