package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tubeq/internal/queue"
)

// Outcome values stored in the status column.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("history entry not found")

// Entry is one finished download.
type Entry struct {
	ID              string
	URL             string
	Title           string
	Status          string
	ErrorMessage    string
	OutputPath      string
	Quality         string
	SizeBytes       int64
	DurationSeconds int
	ThumbnailURL    string
	GroupTitle      string
	GroupIndex      int
	RetryCount      int
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Succeeded reports whether the entry recorded a completed download.
func (e Entry) Succeeded() bool { return e.Status == OutcomeCompleted }

// EntryFromItem converts a final queue item. Non-final items are rejected.
func EntryFromItem(item queue.Item, quality string) (Entry, error) {
	var outcome string
	switch item.Status {
	case queue.StatusCompleted:
		outcome = OutcomeCompleted
	case queue.StatusError, queue.StatusCancelled:
		outcome = OutcomeFailed
	default:
		return Entry{}, fmt.Errorf("item %s is %s, not final", item.ID, item.Status)
	}
	finished := item.CompletedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	var title string
	if item.HasTitle() {
		title = item.DisplayTitle
	}
	return Entry{
		ID:              item.ID,
		URL:             item.SourceURL,
		Title:           title,
		Status:          outcome,
		ErrorMessage:    item.ErrorMessage,
		OutputPath:      item.OutputPath,
		Quality:         quality,
		SizeBytes:       item.EstimatedSizeBytes,
		DurationSeconds: item.DurationSeconds,
		ThumbnailURL:    item.ThumbnailURL,
		GroupTitle:      item.GroupTitle,
		GroupIndex:      item.GroupIndex,
		RetryCount:      item.RetryCount,
		StartedAt:       item.StartedAt,
		FinishedAt:      finished,
	}, nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status string
	Query  string
	Since  time.Time
	Limit  int
}

// Summary aggregates the history table.
type Summary struct {
	Total      int
	Completed  int
	Failed     int
	TotalBytes int64
}

// Store persists download history backed by SQLite.
type Store struct {
	db      *sql.DB
	path    string
	quality string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// SetQuality sets the quality label stamped on rows written through Record.
func (s *Store) SetQuality(quality string) {
	if s != nil {
		s.quality = strings.TrimSpace(quality)
	}
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a final queue item. A retried item that finishes again
// replaces its previous row.
func (s *Store) Record(ctx context.Context, item queue.Item) error {
	entry, err := EntryFromItem(item, s.quality)
	if err != nil {
		return err
	}
	return s.Put(ctx, entry)
}

// Put inserts or replaces an entry.
func (s *Store) Put(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("history entry id is required")
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO downloads (
            id, url, title, status, error_message, output_path, quality,
            size_bytes, duration_seconds, thumbnail_url, group_title, group_index,
            retry_count, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.URL,
		nullableString(e.Title),
		e.Status,
		nullableString(e.ErrorMessage),
		nullableString(e.OutputPath),
		nullableString(e.Quality),
		e.SizeBytes,
		e.DurationSeconds,
		nullableString(e.ThumbnailURL),
		nullableString(e.GroupTitle),
		e.GroupIndex,
		e.RetryCount,
		nullableTime(e.StartedAt),
		e.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// Get returns the entry with id.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return entry, err
}

// LastCompleted returns the most recent completed entry for url.
func (s *Store) LastCompleted(ctx context.Context, url string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+" WHERE url = ? AND status = ? ORDER BY finished_at DESC LIMIT 1",
		strings.TrimSpace(url), OutcomeCompleted,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

// List returns entries matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		clauses = append(clauses, "(LOWER(COALESCE(title, '')) LIKE ? OR LOWER(url) LIKE ?)")
		pattern := "%" + strings.ToLower(q) + "%"
		args = append(args, pattern, pattern)
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "finished_at >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}

	query := selectColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY finished_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Remove deletes the entry with id.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM downloads WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM downloads")
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

// Stats summarizes the stored entries.
func (s *Store) Stats(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT
            COUNT(1),
            COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN status = ? THEN size_bytes ELSE 0 END), 0)
        FROM downloads`,
		OutcomeCompleted, OutcomeFailed, OutcomeCompleted,
	).Scan(&sum.Total, &sum.Completed, &sum.Failed, &sum.TotalBytes)
	if err != nil {
		return Summary{}, fmt.Errorf("history stats: %w", err)
	}
	return sum, nil
}
