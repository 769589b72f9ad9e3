package queue

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxRetries is applied by NewItem when no override is supplied.
	DefaultMaxRetries = 3
	// PendingTitle is shown until metadata extraction resolves a real title.
	PendingTitle = "Extracting..."
)

// Item is one download unit. The queue owns the authoritative copy; every
// accessor returns a value so callers cannot bypass the queue's lock.
type Item struct {
	ID                 string
	SourceURL          string
	DisplayTitle       string
	ThumbnailURL       string
	DurationSeconds    int
	EstimatedSizeBytes int64
	Status             Status
	ProgressPercent    float64
	SpeedBytesPerSec   float64
	EtaSeconds         int
	ErrorMessage       string
	RetryCount         int
	MaxRetries         int
	GroupTitle         string
	GroupIndex         int
	OutputPath         string
	CreatedAt          time.Time
	StartedAt          time.Time
	CompletedAt        time.Time
}

// ItemOption customizes NewItem.
type ItemOption func(*Item)

// WithMaxRetries overrides the per-item retry budget.
func WithMaxRetries(n int) ItemOption {
	return func(i *Item) {
		if n >= 0 {
			i.MaxRetries = n
		}
	}
}

// WithGroup records playlist or batch membership. Index is 1-based; zero
// leaves the item unindexed.
func WithGroup(title string, index int) ItemOption {
	return func(i *Item) {
		i.GroupTitle = strings.TrimSpace(title)
		if index > 0 {
			i.GroupIndex = index
		}
	}
}

// WithTitle sets a known title up front.
func WithTitle(title string) ItemOption {
	return func(i *Item) {
		if title = strings.TrimSpace(title); title != "" {
			i.DisplayTitle = title
		}
	}
}

// WithID pins the identifier; used by tests and callers restoring a snapshot.
func WithID(id string) ItemOption {
	return func(i *Item) {
		if id = strings.TrimSpace(id); id != "" {
			i.ID = id
		}
	}
}

// NewItem builds a queued item for url with a short random identifier.
func NewItem(url string, opts ...ItemOption) Item {
	item := Item{
		ID:           newItemID(),
		SourceURL:    strings.TrimSpace(url),
		DisplayTitle: PendingTitle,
		Status:       StatusQueued,
		MaxRetries:   DefaultMaxRetries,
		CreatedAt:    time.Now(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&item)
		}
	}
	return item
}

func newItemID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// CanRetry reports whether a failed item still has retry budget.
func (i Item) CanRetry() bool {
	return i.Status == StatusError && i.RetryCount < i.MaxRetries
}

// HasTitle reports whether metadata has replaced the placeholder title.
func (i Item) HasTitle() bool {
	title := strings.TrimSpace(i.DisplayTitle)
	return title != "" && title != PendingTitle
}

// Label returns the title when known and the URL otherwise.
func (i Item) Label() string {
	if i.HasTitle() {
		return i.DisplayTitle
	}
	return i.SourceURL
}

// Elapsed returns the time spent downloading so far, or in total once done.
func (i Item) Elapsed(now time.Time) time.Duration {
	if i.StartedAt.IsZero() {
		return 0
	}
	end := now
	if !i.CompletedAt.IsZero() {
		end = i.CompletedAt
	}
	if end.Before(i.StartedAt) {
		return 0
	}
	return end.Sub(i.StartedAt)
}
