package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tubeq/internal/engine"
	"tubeq/internal/notifications"
	"tubeq/internal/queue"
)

// fakeEngine runs a caller-supplied fetch function and counts calls.
type fakeEngine struct {
	fetch    func(ctx context.Context, url string, sink engine.ProgressSink) error
	metadata func(ctx context.Context, url string) (engine.Metadata, error)

	mu       sync.Mutex
	attempts map[string]int
	inflight atomic.Int32
	peak     atomic.Int32
}

func newFakeEngine(fetch func(ctx context.Context, url string, sink engine.ProgressSink) error) *fakeEngine {
	return &fakeEngine{fetch: fetch, attempts: make(map[string]int)}
}

func (f *fakeEngine) ExtractMetadata(ctx context.Context, url string) (engine.Metadata, error) {
	if f.metadata == nil {
		return engine.Metadata{Title: "Title for " + url}, nil
	}
	return f.metadata(ctx, url)
}

func (f *fakeEngine) FetchToTarget(ctx context.Context, url string, _ engine.Options, sink engine.ProgressSink) error {
	f.mu.Lock()
	f.attempts[url]++
	f.mu.Unlock()

	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.fetch == nil {
		sink(engine.ProgressEvent{Phase: engine.PhaseFinished, Filename: "/downloads/" + url})
		return nil
	}
	return f.fetch(ctx, url, sink)
}

func (f *fakeEngine) attemptsFor(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[url]
}

// sleepRecorder returns immediately from Sleep and remembers each delay.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (c *sleepRecorder) Now() time.Time { return time.Now() }

func (c *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()
	return ctx.Err()
}

func (c *sleepRecorder) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

// callbackLog collects callbacks for assertions.
type callbackLog struct {
	mu          sync.Mutex
	states      []State
	completed   []queue.Item
	successes   []bool
	progress    []Progress
	allComplete int
	done        chan string
}

func newCallbackLog() *callbackLog {
	return &callbackLog{done: make(chan string, 64)}
}

func (c *callbackLog) callbacks() Callbacks {
	return Callbacks{
		OnProgress: func(p Progress) {
			c.mu.Lock()
			c.progress = append(c.progress, p)
			c.mu.Unlock()
		},
		OnItemComplete: func(item queue.Item, success bool) {
			c.mu.Lock()
			c.completed = append(c.completed, item)
			c.successes = append(c.successes, success)
			c.mu.Unlock()
			c.done <- item.ID
		},
		OnStateChange: func(s State) {
			c.mu.Lock()
			c.states = append(c.states, s)
			c.mu.Unlock()
		},
		OnAllComplete: func() {
			c.mu.Lock()
			c.allComplete++
			c.mu.Unlock()
		},
	}
}

func (c *callbackLog) stateHistory() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]State(nil), c.states...)
}

func (c *callbackLog) allCompleteCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allComplete
}

func (c *callbackLog) waitDone(t *testing.T, n int) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-c.done:
		case <-timeout:
			t.Fatalf("timed out waiting for %d completions (got %d)", n, i)
		}
	}
}

// recordingNotifier captures published events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
	last   map[notifications.Event]notifications.Payload
}

func (n *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		n.last = make(map[notifications.Event]notifications.Payload)
	}
	n.events = append(n.events, event)
	n.last[event] = payload
	return nil
}

func (n *recordingNotifier) count(event notifications.Event) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, e := range n.events {
		if e == event {
			total++
		}
	}
	return total
}

func (n *recordingNotifier) payload(event notifications.Event) notifications.Payload {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last[event]
}

// recordingRecorder captures history writes.
type recordingRecorder struct {
	mu    sync.Mutex
	items []queue.Item
}

func (r *recordingRecorder) Record(_ context.Context, item queue.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	return nil
}

func (r *recordingRecorder) recorded() []queue.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]queue.Item(nil), r.items...)
}

// blockUntilCancelled is a fetch that signals start and waits for ctx.
func blockUntilCancelled(started chan<- string) func(context.Context, string, engine.ProgressSink) error {
	return func(ctx context.Context, url string, sink engine.ProgressSink) error {
		sink(engine.ProgressEvent{Phase: engine.PhaseDownloading, DownloadedBytes: 10, TotalBytes: 100})
		started <- url
		<-ctx.Done()
		return ctx.Err()
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

var errTransient = errors.New("HTTP Error 503: Service Unavailable")
