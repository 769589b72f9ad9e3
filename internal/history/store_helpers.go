package history

import (
	"database/sql"
	"fmt"
	"time"
)

const selectColumns = `SELECT id, url, title, status, error_message, output_path, quality,
    size_bytes, duration_seconds, thumbnail_url, group_title, group_index,
    retry_count, started_at, finished_at FROM downloads`

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		e            Entry
		title        sql.NullString
		errorMessage sql.NullString
		outputPath   sql.NullString
		quality      sql.NullString
		thumbnail    sql.NullString
		groupTitle   sql.NullString
		startedAt    sql.NullString
		finishedAt   string
	)
	err := scanner.Scan(
		&e.ID,
		&e.URL,
		&title,
		&e.Status,
		&errorMessage,
		&outputPath,
		&quality,
		&e.SizeBytes,
		&e.DurationSeconds,
		&thumbnail,
		&groupTitle,
		&e.GroupIndex,
		&e.RetryCount,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan history entry: %w", err)
	}
	e.Title = title.String
	e.ErrorMessage = errorMessage.String
	e.OutputPath = outputPath.String
	e.Quality = quality.String
	e.ThumbnailURL = thumbnail.String
	e.GroupTitle = groupTitle.String
	if startedAt.Valid {
		e.StartedAt = parseTime(startedAt.String)
	}
	e.FinishedAt = parseTime(finishedAt)
	return e, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

// timeLayout is fixed width so finished_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
