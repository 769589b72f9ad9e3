package retry

import (
	"errors"
	"strings"
	"time"

	"tubeq/internal/services"
)

// DefaultMaxDelay caps a single backoff interval.
const DefaultMaxDelay = 5 * time.Minute

// UnknownErrorMessage is the terminal message used when no error is supplied.
const UnknownErrorMessage = "unknown error"

// defaultTerminalMarkers identify failures that no amount of retrying fixes.
var defaultTerminalMarkers = []string{
	"private video",
	"video unavailable",
	"copyright",
	"removed",
	"terminated",
}

// Action is the verdict of a retry decision.
type Action int

const (
	ActionRetry Action = iota + 1
	ActionTerminal
)

func (a Action) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Decision is returned by Policy.Decide.
type Decision struct {
	Action  Action
	Delay   time.Duration
	Message string
}

// Retry reports whether the caller should try again.
func (d Decision) Retry() bool { return d.Action == ActionRetry }

// Policy classifies attempt failures.
type Policy struct {
	// ExtraTerminalMarkers extends the built-in list of permanent-failure
	// substrings. Matching is case-insensitive.
	ExtraTerminalMarkers []string
	// MaxDelay caps a single backoff. Zero uses DefaultMaxDelay.
	MaxDelay time.Duration
}

// Default is the policy used by the package-level Decide.
var Default = Policy{}

// Decide applies the default policy.
func Decide(err error, attempt, maxRetries int, baseDelay time.Duration) Decision {
	return Default.Decide(err, attempt, maxRetries, baseDelay)
}

// Decide returns a terminal verdict for permanent failures and for attempts
// beyond maxRetries; otherwise it returns baseDelay * 2^(attempt-1).
func (p Policy) Decide(err error, attempt, maxRetries int, baseDelay time.Duration) Decision {
	if err == nil {
		return Decision{Action: ActionTerminal, Message: UnknownErrorMessage}
	}
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = UnknownErrorMessage
	}
	if p.IsTerminal(err) {
		return Decision{Action: ActionTerminal, Message: message}
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > maxRetries {
		return Decision{Action: ActionTerminal, Message: message}
	}
	return Decision{Action: ActionRetry, Delay: p.backoff(attempt, baseDelay), Message: message}
}

// IsTerminal reports whether err can never succeed on retry.
func (p Policy) IsTerminal(err error) bool {
	if err == nil {
		return true
	}
	if services.IsTerminal(err) || errors.Is(err, services.ErrCancelled) {
		return true
	}
	lower := strings.ToLower(err.Error())
	for _, marker := range defaultTerminalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	for _, marker := range p.ExtraTerminalMarkers {
		marker = strings.ToLower(strings.TrimSpace(marker))
		if marker != "" && strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func (p Policy) backoff(attempt int, base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	limit := p.MaxDelay
	if limit <= 0 {
		limit = DefaultMaxDelay
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= limit/2 {
			return limit
		}
		delay *= 2
	}
	if delay > limit {
		return limit
	}
	return delay
}
