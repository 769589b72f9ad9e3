package partials

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"tubeq/internal/logging"
)

// DefaultMaxAge is the age after which a partial is considered abandoned.
const DefaultMaxAge = 24 * time.Hour

// File describes one partial download artifact.
type File struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// CleanResult contains the outcome of a cleanup pass.
type CleanResult struct {
	Removed    []File
	FreedBytes int64
	Errors     []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// IsPartial reports whether name looks like a yt-dlp intermediate file.
func IsPartial(name string) bool {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".part"),
		strings.HasSuffix(lower, ".ytdl"),
		strings.Contains(lower, ".part-frag"),
		strings.Contains(lower, ".temp."):
		return true
	default:
		return false
	}
}

// List walks root and returns every partial file, oldest first.
func List(root string) ([]File, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}

	var files []File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && os.IsNotExist(err) {
				return fs.SkipAll
			}
			return nil
		}
		if d.IsDir() || !IsPartial(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, File{Path: path, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(files, func(a, b File) int { return a.ModTime.Compare(b.ModTime) })
	return files, nil
}

// CleanStale removes partials under root last modified before now-maxAge.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	var result CleanResult
	if logger == nil {
		logger = logging.NewNop()
	}

	files, err := List(root)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		if !file.ModTime.Before(cutoff) {
			continue
		}
		if err := os.Remove(file.Path); err != nil && !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: file.Path, Error: err})
			logger.Warn("failed to remove partial download",
				logging.String("path", file.Path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "partials_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check download_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, file)
		result.FreedBytes += file.Size
		logger.Info("removed partial download",
			logging.String("path", file.Path),
			logging.Int64("size_bytes", file.Size),
			logging.Duration("age", time.Since(file.ModTime)),
			logging.String(logging.FieldEventType, "partials_cleanup"),
		)
	}
	return result
}
