package testsupport

import (
	"testing"

	"tubeq/internal/config"
	"tubeq/internal/history"
	"tubeq/internal/logging"
	"tubeq/internal/queue"
)

// NewQueue builds an unbounded queue and registers cleanup.
func NewQueue(t testing.TB) *queue.Queue {
	t.Helper()

	q := queue.New(queue.Options{Logger: logging.NewNop()})
	t.Cleanup(q.Close)
	return q
}

// MustOpenHistory opens the history store named by cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// AddItems queues one item per URL and fails the test on rejection.
func AddItems(t testing.TB, q *queue.Queue, urls ...string) []queue.Item {
	t.Helper()

	items := make([]queue.Item, 0, len(urls))
	for _, url := range urls {
		item := queue.NewItem(url)
		if ok, reason := q.Add(item); !ok {
			t.Fatalf("add %s: %s", url, reason)
		}
		items = append(items, item)
	}
	return items
}
