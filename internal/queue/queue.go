package queue

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"tubeq/internal/dispatch"
	"tubeq/internal/logging"
)

// RejectReason explains why Add refused an item.
type RejectReason string

const (
	RejectNone         RejectReason = ""
	RejectFull         RejectReason = "queue_full"
	RejectDuplicateURL RejectReason = "duplicate_url"
	RejectDuplicateID  RejectReason = "duplicate_id"
	RejectInvalid      RejectReason = "invalid"
)

func (r RejectReason) String() string {
	if r == RejectNone {
		return "accepted"
	}
	return string(r)
}

// Options configures a Queue.
type Options struct {
	// MaxSize bounds the number of items held; zero means unbounded.
	MaxSize int
	Logger  *slog.Logger
	// Now overrides the clock used for timestamps.
	Now func() time.Time
}

// Queue is a thread-safe ordered collection of download items.
type Queue struct {
	mu       sync.Mutex
	order    []string
	items    map[string]*Item
	maxSize  int
	changed  chan struct{}
	handlers map[int]Handlers
	nextSub  int

	events *dispatch.Dispatcher
	logger *slog.Logger
	now    func() time.Time
}

// New constructs an empty queue and starts its event dispatcher.
func New(opts Options) *Queue {
	logger := logging.NewComponentLogger(opts.Logger, "queue")
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	maxSize := opts.MaxSize
	if maxSize < 0 {
		maxSize = 0
	}
	return &Queue{
		items:    make(map[string]*Item),
		maxSize:  maxSize,
		changed:  make(chan struct{}),
		handlers: make(map[int]Handlers),
		events:   dispatch.New(opts.Logger, "queue-events"),
		logger:   logger,
		now:      now,
	}
}

// Close stops event delivery after draining pending events.
func (q *Queue) Close() {
	q.events.Close()
}

// Flush blocks until every event emitted so far has been delivered.
func (q *Queue) Flush() {
	q.events.Flush()
}

// Add appends item in insertion order. Items whose URL matches a non-final
// item already in the queue are rejected.
func (q *Queue) Add(item Item) (bool, RejectReason) {
	q.mu.Lock()
	defer q.mu.Unlock()

	reason := q.addLocked(&item)
	if reason != RejectNone {
		q.logger.Debug("item rejected",
			logging.String(logging.FieldItemID, item.ID),
			logging.String("source_url", item.SourceURL),
			logging.String("reason", reason.String()),
		)
		return false, reason
	}
	q.broadcastLocked()
	q.emitLocked(Event{Kind: EventItemAdded, Item: item})
	return true, RejectNone
}

// AddMany adds items until the capacity bound is reached, skipping
// duplicates and invalid entries. It returns the items that were added.
func (q *Queue) AddMany(items []Item) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	added := make([]Item, 0, len(items))
	for i := range items {
		item := items[i]
		reason := q.addLocked(&item)
		if reason == RejectFull {
			break
		}
		if reason != RejectNone {
			continue
		}
		added = append(added, item)
	}
	if len(added) == 0 {
		return added
	}
	q.broadcastLocked()
	for _, item := range added {
		q.emitLocked(Event{Kind: EventItemAdded, Item: item})
	}
	return added
}

func (q *Queue) addLocked(item *Item) RejectReason {
	item.ID = strings.TrimSpace(item.ID)
	item.SourceURL = strings.TrimSpace(item.SourceURL)
	if item.ID == "" || item.SourceURL == "" {
		return RejectInvalid
	}
	if q.maxSize > 0 && len(q.order) >= q.maxSize {
		return RejectFull
	}
	if _, exists := q.items[item.ID]; exists {
		return RejectDuplicateID
	}
	if q.urlLiveLocked(item.SourceURL, "") {
		return RejectDuplicateURL
	}
	if item.Status == "" {
		item.Status = StatusQueued
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = q.now()
	}
	stored := *item
	q.items[item.ID] = &stored
	q.order = append(q.order, item.ID)
	return RejectNone
}

// Remove deletes an item regardless of its status.
func (q *Queue) Remove(id string) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed, ok := q.removeLocked(id)
	if !ok {
		return Item{}, false
	}
	q.broadcastLocked()
	q.emitLocked(Event{Kind: EventItemRemoved, Item: removed})
	return removed, true
}

// RemoveMany deletes every listed item that exists.
func (q *Queue) RemoveMany(ids []string) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := make([]Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := q.removeLocked(id); ok {
			removed = append(removed, item)
		}
	}
	if len(removed) == 0 {
		return removed
	}
	q.broadcastLocked()
	for _, item := range removed {
		q.emitLocked(Event{Kind: EventItemRemoved, Item: item})
	}
	return removed
}

func (q *Queue) removeLocked(id string) (Item, bool) {
	item, ok := q.items[id]
	if !ok {
		return Item{}, false
	}
	delete(q.items, id)
	if idx := q.indexLocked(id); idx >= 0 {
		q.order = append(q.order[:idx], q.order[idx+1:]...)
	}
	return *item, true
}

// Get returns a copy of the item with the given id.
func (q *Queue) Get(id string) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.items[id]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// GetByURL returns the first item whose source URL matches.
func (q *Queue) GetByURL(url string) (Item, bool) {
	url = strings.TrimSpace(url)
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range q.order {
		if item := q.items[id]; item.SourceURL == url {
			return *item, true
		}
	}
	return Item{}, false
}

// GetAll returns every item in queue order.
func (q *Queue) GetAll() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Item, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, *q.items[id])
	}
	return out
}

// GetByStatus returns items with the given status in queue order.
func (q *Queue) GetByStatus(status Status) []Item {
	return q.filter(func(item *Item) bool { return item.Status == status })
}

// Active returns items a worker is currently handling.
func (q *Queue) Active() []Item {
	return q.filter(func(item *Item) bool { return item.Status.IsActive() })
}

func (q *Queue) filter(match func(*Item) bool) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Item
	for _, id := range q.order {
		if item := q.items[id]; match(item) {
			out = append(out, *item)
		}
	}
	return out
}

// Len returns the number of items held.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Contains reports whether an item with id exists.
func (q *Queue) Contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.items[id]
	return ok
}

// urlLiveLocked reports whether an item other than exceptID holds url with a
// non-final status.
func (q *Queue) urlLiveLocked(url, exceptID string) bool {
	for _, id := range q.order {
		if id == exceptID {
			continue
		}
		if existing := q.items[id]; existing.SourceURL == url && !existing.Status.IsFinal() {
			return true
		}
	}
	return false
}

// NextQueued returns the earliest queued item without claiming it.
func (q *Queue) NextQueued() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.nextQueuedLocked()
}

func (q *Queue) nextQueuedLocked() (Item, bool) {
	for _, id := range q.order {
		if item := q.items[id]; item.Status == StatusQueued {
			return *item, true
		}
	}
	return Item{}, false
}

// UpdateStatus transitions an item. Entering downloading stamps StartedAt
// once; entering completed stamps CompletedAt and forces 100%; entering error
// records errMsg and increments RetryCount. Entering queued or waiting resets
// progress for the next attempt. Reviving a finished item fails while another
// live item holds its URL.
func (q *Queue) UpdateStatus(id string, status Status, errMsg string) bool {
	if _, known := statusSet[status]; !known {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok {
		return false
	}
	if item.Status.IsFinal() && !status.IsFinal() && q.urlLiveLocked(item.SourceURL, id) {
		return false
	}
	now := q.now()
	item.Status = status
	switch status {
	case StatusQueued, StatusWaiting:
		item.ErrorMessage = ""
		item.ProgressPercent = 0
		item.SpeedBytesPerSec = 0
		item.EtaSeconds = 0
	case StatusError:
		item.ErrorMessage = strings.TrimSpace(errMsg)
		if item.ErrorMessage == "" {
			item.ErrorMessage = "unknown error"
		}
		item.RetryCount++
		item.SpeedBytesPerSec = 0
		item.EtaSeconds = 0
	case StatusDownloading:
		item.ErrorMessage = ""
		if item.StartedAt.IsZero() {
			item.StartedAt = now
		}
	case StatusCompleted:
		item.ErrorMessage = ""
		item.CompletedAt = now
		item.ProgressPercent = 100
		item.SpeedBytesPerSec = 0
		item.EtaSeconds = 0
	case StatusPaused, StatusCancelled:
		item.ErrorMessage = ""
		item.SpeedBytesPerSec = 0
		item.EtaSeconds = 0
	default:
		item.ErrorMessage = ""
	}
	q.broadcastLocked()
	q.emitLocked(Event{Kind: EventItemUpdated, Item: *item})
	return true
}

// Claim moves a queued item into the given active status. It returns false
// when the item is gone or no longer queued, so two claimers never win the
// same item.
func (q *Queue) Claim(id string, status Status) (Item, bool) {
	if !status.IsActive() {
		return Item{}, false
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok || item.Status != StatusQueued {
		return Item{}, false
	}
	item.Status = status
	item.ErrorMessage = ""
	if status == StatusDownloading && item.StartedAt.IsZero() {
		item.StartedAt = q.now()
	}
	q.broadcastLocked()
	q.emitLocked(Event{Kind: EventItemUpdated, Item: *item})
	return *item, true
}

// Requeue returns an unfinished item to queued and resets its progress.
// Completed and failed items are left alone; use RetrySingle for failures.
func (q *Queue) Requeue(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok || item.Status == StatusCompleted || item.Status == StatusError {
		return false
	}
	if item.Status.IsFinal() && q.urlLiveLocked(item.SourceURL, id) {
		return false
	}
	resetLocked(item)
	q.broadcastLocked()
	q.emitLocked(Event{Kind: EventItemUpdated, Item: *item})
	return true
}

func resetLocked(item *Item) {
	item.Status = StatusQueued
	item.ProgressPercent = 0
	item.SpeedBytesPerSec = 0
	item.EtaSeconds = 0
	item.ErrorMessage = ""
}

// UpdateProgress records transfer progress. Percent is clamped to [0,100]
// and never moves backwards while the item is downloading.
func (q *Queue) UpdateProgress(id string, percent, speed float64, eta int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok {
		return false
	}
	if math.IsNaN(percent) {
		percent = item.ProgressPercent
	}
	percent = math.Max(0, math.Min(100, percent))
	if item.Status == StatusDownloading && percent < item.ProgressPercent {
		percent = item.ProgressPercent
	}
	item.ProgressPercent = percent
	if speed < 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		speed = 0
	}
	item.SpeedBytesPerSec = speed
	if eta < 0 {
		eta = 0
	}
	item.EtaSeconds = eta
	q.emitLocked(Event{Kind: EventItemUpdated, Item: *item})
	return true
}

// InfoUpdate carries metadata discovered after an item was queued. Zero
// values leave the existing field untouched.
type InfoUpdate struct {
	Title           string
	DurationSeconds int
	SizeBytes       int64
	ThumbnailURL    string
	OutputPath      string
}

// UpdateInfo merges extracted metadata into an item.
func (q *Queue) UpdateInfo(id string, info InfoUpdate) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok {
		return false
	}
	if title := strings.TrimSpace(info.Title); title != "" {
		item.DisplayTitle = title
	}
	if info.DurationSeconds > 0 {
		item.DurationSeconds = info.DurationSeconds
	}
	if info.SizeBytes > 0 {
		item.EstimatedSizeBytes = info.SizeBytes
	}
	if thumb := strings.TrimSpace(info.ThumbnailURL); thumb != "" {
		item.ThumbnailURL = thumb
	}
	if path := strings.TrimSpace(info.OutputPath); path != "" {
		item.OutputPath = path
	}
	q.emitLocked(Event{Kind: EventItemUpdated, Item: *item})
	return true
}

// Clear removes every item, or only inactive ones when keepActive is set.
func (q *Queue) Clear(keepActive bool) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := q.removeWhereLocked(func(item *Item) bool {
		return !keepActive || !item.Status.IsActive()
	})
	q.broadcastLocked()
	q.emitLocked(Event{Kind: EventQueueCleared, Items: removed})
	return removed
}

// ClearCompleted removes completed items.
func (q *Queue) ClearCompleted() []Item {
	return q.removeStatus(StatusCompleted)
}

// ClearErrors removes failed items.
func (q *Queue) ClearErrors() []Item {
	return q.removeStatus(StatusError)
}

func (q *Queue) removeStatus(status Status) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := q.removeWhereLocked(func(item *Item) bool { return item.Status == status })
	if len(removed) == 0 {
		return removed
	}
	q.broadcastLocked()
	for _, item := range removed {
		q.emitLocked(Event{Kind: EventItemRemoved, Item: item})
	}
	return removed
}

func (q *Queue) removeWhereLocked(match func(*Item) bool) []Item {
	removed := make([]Item, 0)
	kept := q.order[:0]
	for _, id := range q.order {
		item := q.items[id]
		if match(item) {
			removed = append(removed, *item)
			delete(q.items, id)
			continue
		}
		kept = append(kept, id)
	}
	q.order = kept
	return removed
}

// RetryFailed re-queues every failed item that still has retry budget. An
// item is skipped while another live item holds its URL.
func (q *Queue) RetryFailed() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	var retried []Item
	for _, id := range q.order {
		item := q.items[id]
		if !item.CanRetry() || q.urlLiveLocked(item.SourceURL, id) {
			continue
		}
		resetLocked(item)
		retried = append(retried, *item)
	}
	if len(retried) == 0 {
		return retried
	}
	q.broadcastLocked()
	for _, item := range retried {
		q.emitLocked(Event{Kind: EventItemUpdated, Item: item})
	}
	return retried
}

// RetrySingle re-queues one failed item if it still has retry budget and no
// other live item holds its URL.
func (q *Queue) RetrySingle(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok || !item.CanRetry() || q.urlLiveLocked(item.SourceURL, id) {
		return false
	}
	resetLocked(item)
	q.broadcastLocked()
	q.emitLocked(Event{Kind: EventItemUpdated, Item: *item})
	return true
}

// WaitForItem blocks until a queued item exists, timeout elapses, or ctx is
// done. A non-positive timeout waits without a deadline.
func (q *Queue) WaitForItem(ctx context.Context, timeout time.Duration) (Item, bool) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		q.mu.Lock()
		if item, ok := q.nextQueuedLocked(); ok {
			q.mu.Unlock()
			return item, true
		}
		changed := q.changed
		q.mu.Unlock()

		select {
		case <-changed:
		case <-deadline:
			return Item{}, false
		case <-ctx.Done():
			return Item{}, false
		}
	}
}

// Changed returns a channel that is closed on the next structural change
// (add, remove, or status transition).
func (q *Queue) Changed() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.changed
}

func (q *Queue) broadcastLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

func (q *Queue) indexLocked(id string) int {
	for i, candidate := range q.order {
		if candidate == id {
			return i
		}
	}
	return -1
}
