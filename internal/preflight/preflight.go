package preflight

import (
	"context"
	"path/filepath"

	"tubeq/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Download directory (always checked)
	results = append(results, CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir))
	if minBytes := cfg.MinFreeSpaceBytes(); minBytes > 0 {
		results = append(results, CheckFreeSpace("Free space", cfg.Paths.DownloadDir, minBytes))
	}

	// History database directory (when history is enabled)
	if cfg.Paths.HistoryDB != "" {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.Paths.HistoryDB)))
	}

	// Cookies file
	if cfg.Downloads.CookiesFile != "" {
		results = append(results, CheckFileReadable("Cookies file", cfg.Downloads.CookiesFile))
	}

	// ntfy
	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
