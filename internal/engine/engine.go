package engine

import (
	"context"
)

// Metadata describes a resolved URL. Entries is populated when the URL names
// a playlist or channel; each entry is queued as its own item.
type Metadata struct {
	ID              string
	Title           string
	Uploader        string
	DurationSeconds int
	SizeBytes       int64
	ThumbnailURL    string
	WebpageURL      string
	Extractor       string
	Entries         []Entry
}

// IsGroup reports whether the metadata describes a playlist.
func (m Metadata) IsGroup() bool {
	return len(m.Entries) > 0
}

// Entry is one member of a playlist.
type Entry struct {
	URL             string
	Title           string
	DurationSeconds int
	Index           int
}

// ProgressSink receives progress snapshots. Implementations must not block.
type ProgressSink func(ProgressEvent)

// Engine fetches media. Both methods must honor ctx cancellation promptly.
type Engine interface {
	ExtractMetadata(ctx context.Context, url string) (Metadata, error)
	FetchToTarget(ctx context.Context, url string, opts Options, sink ProgressSink) error
}
