package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tubeq/internal/queue"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func finishedItem(id, url, title string, status queue.Status, finished time.Time) queue.Item {
	item := queue.NewItem(url, queue.WithID(id), queue.WithTitle(title))
	item.Status = status
	item.CompletedAt = finished
	item.EstimatedSizeBytes = 1024
	if status == queue.StatusError {
		item.ErrorMessage = "HTTP Error 403"
		item.RetryCount = 4
	} else {
		item.OutputPath = "/downloads/" + title + ".mp4"
	}
	return item
}

func TestRecordRoundTrip(t *testing.T) {
	store := openTestStore(t)
	store.SetQuality("720p")
	ctx := context.Background()
	finished := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	item := finishedItem("a", "https://example.com/v/a", "Alpha", queue.StatusCompleted, finished)
	item.GroupTitle = "Mix"
	item.GroupIndex = 2
	if err := store.Record(ctx, item); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != OutcomeCompleted || !got.Succeeded() {
		t.Fatalf("expected completed entry, got %q", got.Status)
	}
	if got.Title != "Alpha" || got.Quality != "720p" || got.OutputPath != "/downloads/Alpha.mp4" {
		t.Fatalf("unexpected entry %+v", got)
	}
	if got.GroupTitle != "Mix" || got.GroupIndex != 2 {
		t.Fatalf("group lost: %+v", got)
	}
	if !got.FinishedAt.Equal(finished) {
		t.Fatalf("finished at = %v, want %v", got.FinishedAt, finished)
	}
	if !got.StartedAt.IsZero() {
		t.Fatalf("expected zero started at, got %v", got.StartedAt)
	}
}

func TestRecordRejectsActiveItem(t *testing.T) {
	store := openTestStore(t)
	item := queue.NewItem("https://example.com/v/b")
	item.Status = queue.StatusDownloading
	if err := store.Record(context.Background(), item); err == nil {
		t.Fatal("expected error for non-final item")
	}
}

func TestEntryFromItemDropsPendingTitle(t *testing.T) {
	item := queue.NewItem("https://example.com/v/pending")
	item.Status = queue.StatusError
	entry, err := EntryFromItem(item, "best")
	if err != nil {
		t.Fatalf("EntryFromItem: %v", err)
	}
	if entry.Title != "" {
		t.Fatalf("expected placeholder title to be dropped, got %q", entry.Title)
	}
	if entry.Status != OutcomeFailed || entry.FinishedAt.IsZero() {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestRecordReplacesRetriedItem(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Record(ctx, finishedItem("a", "https://example.com/v/a", "Alpha", queue.StatusError, now)); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if err := store.Record(ctx, finishedItem("a", "https://example.com/v/a", "Alpha", queue.StatusCompleted, now.Add(time.Minute))); err != nil {
		t.Fatalf("record success: %v", err)
	}

	entries, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != OutcomeCompleted {
		t.Fatalf("expected single completed entry, got %+v", entries)
	}
}

func TestListFilters(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	items := []queue.Item{
		finishedItem("old", "https://example.com/v/old", "Old Lecture", queue.StatusCompleted, now.Add(-10*24*time.Hour)),
		finishedItem("fail", "https://example.com/v/fail", "Broken Stream", queue.StatusError, now.Add(-time.Hour)),
		finishedItem("new", "https://example.com/v/new", "New Lecture", queue.StatusCompleted, now),
	}
	for _, item := range items {
		if err := store.Record(ctx, item); err != nil {
			t.Fatalf("record %s: %v", item.ID, err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "all newest first", filter: Filter{}, want: []string{"new", "fail", "old"}},
		{name: "failed", filter: Filter{Status: OutcomeFailed}, want: []string{"fail"}},
		{name: "query title", filter: Filter{Query: "lecture"}, want: []string{"new", "old"}},
		{name: "query url", filter: Filter{Query: "/v/fail"}, want: []string{"fail"}},
		{name: "since week", filter: Filter{Since: now.Add(-7 * 24 * time.Hour)}, want: []string{"new", "fail"}},
		{name: "limit", filter: Filter{Limit: 1}, want: []string{"new"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(entries) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d", len(tt.want), len(entries))
			}
			for i, id := range tt.want {
				if entries[i].ID != id {
					t.Fatalf("entry %d = %q, want %q", i, entries[i].ID, id)
				}
			}
		})
	}
}

func TestLastCompletedIgnoresFailures(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	url := "https://example.com/v/a"

	if err := store.Record(ctx, finishedItem("f", url, "Alpha", queue.StatusError, time.Now())); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, ok, err := store.LastCompleted(ctx, url); err != nil || ok {
		t.Fatalf("expected no completed entry, ok=%v err=%v", ok, err)
	}
	if err := store.Record(ctx, finishedItem("c", url, "Alpha", queue.StatusCompleted, time.Now())); err != nil {
		t.Fatalf("record: %v", err)
	}
	entry, ok, err := store.LastCompleted(ctx, url)
	if err != nil || !ok {
		t.Fatalf("expected completed entry, ok=%v err=%v", ok, err)
	}
	if entry.ID != "c" {
		t.Fatalf("expected entry c, got %q", entry.ID)
	}
}

func TestRemoveClearAndStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, item := range []queue.Item{
		finishedItem("a", "https://example.com/v/a", "Alpha", queue.StatusCompleted, now),
		finishedItem("b", "https://example.com/v/b", "Beta", queue.StatusCompleted, now),
		finishedItem("c", "https://example.com/v/c", "Gamma", queue.StatusError, now),
	} {
		if err := store.Record(ctx, item); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	sum, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if sum.Total != 3 || sum.Completed != 2 || sum.Failed != 1 || sum.TotalBytes != 2048 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	if err := store.Remove(ctx, "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Remove(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	sum, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if sum.Total != 0 || sum.TotalBytes != 0 {
		t.Fatalf("expected empty summary, got %+v", sum)
	}
}

func TestOpenReusesExistingSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Record(context.Background(), finishedItem("a", "https://example.com/v/a", "Alpha", queue.StatusCompleted, time.Now())); err != nil {
		t.Fatalf("record: %v", err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if _, err := second.Get(context.Background(), "a"); err != nil {
		t.Fatalf("entry lost across reopen: %v", err)
	}
}
