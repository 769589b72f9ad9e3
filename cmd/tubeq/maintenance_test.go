package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tubeq/internal/logging"
)

func writeStalePartial(t *testing.T, path string, size int, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write partial: %v", err)
	}
	ts := time.Now().Add(-age)
	if err := os.Chtimes(path, ts, ts); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestCleanDryRunListsWithoutRemoving(t *testing.T) {
	env := setupCLITestEnv(t)
	stale := filepath.Join(env.cfg.Paths.DownloadDir, "Old [x].mp4.part")
	writeStalePartial(t, stale, 2048, 48*time.Hour)

	out, _, err := runCLI(t, env, nil, "clean", "--dry-run")
	if err != nil {
		t.Fatalf("clean --dry-run: %v\n%s", err, out)
	}
	requireContains(t, out, "Old [x].mp4.part")
	requireContains(t, out, "Would remove 1 file(s), 2.0 KiB")
	if _, err := os.Stat(stale); err != nil {
		t.Fatalf("dry run removed partial: %v", err)
	}
}

func TestCleanRemovesStalePartials(t *testing.T) {
	env := setupCLITestEnv(t)
	stale := filepath.Join(env.cfg.Paths.DownloadDir, "sub", "Old [x].mp4.ytdl")
	fresh := filepath.Join(env.cfg.Paths.DownloadDir, "New [y].mp4.part")
	writeStalePartial(t, stale, 1024, 48*time.Hour)
	writeStalePartial(t, fresh, 1024, time.Minute)

	out, _, err := runCLI(t, env, nil, "clean", "--older-than", "1h")
	if err != nil {
		t.Fatalf("clean: %v\n%s", err, out)
	}
	requireContains(t, out, "Removed 1 partial file(s), freed 1.0 KiB")
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale partial should be gone")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh partial should remain: %v", err)
	}
}

func TestCleanNothingStale(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, nil, "clean", "--dry-run")
	if err != nil {
		t.Fatalf("clean --dry-run: %v", err)
	}
	requireContains(t, out, "No stale partial downloads")
}

func TestLogsShowsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.cfg.Paths.LogDir, logging.LogFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, env, nil, "logs", "-n", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "first") {
		t.Fatalf("expected only last two lines, got %q", out)
	}
	requireContains(t, out, "second\nthird\n")
}

func TestLogsEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, nil, "logs")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log entries")
}
