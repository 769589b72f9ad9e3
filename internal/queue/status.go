package queue

import "strings"

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusQueued         Status = "queued"
	StatusExtracting     Status = "extracting"
	StatusWaiting        Status = "waiting"
	StatusDownloading    Status = "downloading"
	StatusPostProcessing Status = "post_processing"
	StatusPaused         Status = "paused"
	StatusCompleted      Status = "completed"
	StatusError          Status = "error"
	StatusCancelled      Status = "cancelled"
)

var allStatuses = []Status{
	StatusQueued,
	StatusExtracting,
	StatusWaiting,
	StatusDownloading,
	StatusPostProcessing,
	StatusPaused,
	StatusCompleted,
	StatusError,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsActive reports whether a worker is currently handling the item.
func (s Status) IsActive() bool {
	switch s {
	case StatusExtracting, StatusDownloading, StatusPostProcessing:
		return true
	default:
		return false
	}
}

// IsFinal reports whether the item reached a terminal state.
func (s Status) IsFinal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanStart reports whether a download may begin from this status.
func (s Status) CanStart() bool {
	switch s {
	case StatusQueued, StatusWaiting, StatusPaused:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }
