package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"tubeq/internal/deps"
	"tubeq/internal/preflight"
	"tubeq/internal/queue"
	"tubeq/internal/workflow"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("yt-dlp", statusError, "Not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "yt-dlp:", "[ERROR] Not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("yt-dlp", statusOK, "Ready", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "yt-dlp", Available: true, Command: "yt-dlp", Version: "2025.01.15"},
		{Name: "FFmpeg", Available: false, Optional: true, Detail: "binary \"ffmpeg\" not found"},
		{Name: "aria2c", Available: false, Command: "aria2c"},
		{Name: "ffprobe", Available: true, Command: "/opt/yt/ffmpeg", Detail: "found beside yt-dlp"},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[OK] Ready (2025.01.15)") {
		t.Fatalf("expected version in ready line, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[WARN]") {
		t.Fatalf("optional dependency should warn, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[ERROR] not available") {
		t.Fatalf("required dependency should error, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "[OK] Ready (command: /opt/yt/ffmpeg), found beside yt-dlp") {
		t.Fatalf("expected lookup detail on ready line, got %q", lines[3])
	}
	if !strings.Contains(lines[4], "Missing dependencies") || !strings.Contains(lines[4], "aria2c") {
		t.Fatalf("expected missing summary, got %q", lines[4])
	}
}

func TestPreflightLines(t *testing.T) {
	lines := preflightLines([]preflight.Result{
		{Name: "Download directory", Passed: true, Detail: "/tmp (read/write ok)"},
		{Name: "Cookies file", Detail: "/nope (error: does not exist)"},
	}, false)
	if !strings.Contains(lines[0], "[OK]") || !strings.Contains(lines[1], "[ERROR]") {
		t.Fatalf("unexpected preflight lines %v", lines)
	}
}

func TestFormatCompletionLine(t *testing.T) {
	done := queue.Item{SourceURL: "https://example.com/a", DisplayTitle: "Talk", EstimatedSizeBytes: 1 << 20, Status: queue.StatusCompleted}
	if got := formatCompletionLine(done, true, false); !strings.Contains(got, "[OK] Talk (1.0 MiB)") {
		t.Fatalf("unexpected completion line %q", got)
	}
	failed := queue.Item{SourceURL: "https://example.com/b", Status: queue.StatusError, ErrorMessage: "HTTP Error 404"}
	if got := formatCompletionLine(failed, false, false); !strings.Contains(got, "https://example.com/b: HTTP Error 404") {
		t.Fatalf("unexpected failure line %q", got)
	}
	cancelled := queue.Item{SourceURL: "https://example.com/c", Status: queue.StatusCancelled}
	if got := formatCompletionLine(cancelled, false, false); !strings.Contains(got, "[WARN]") {
		t.Fatalf("unexpected cancel line %q", got)
	}
}

func TestDownloadReporterSamplesProgress(t *testing.T) {
	var buf strings.Builder
	r := newDownloadReporter(&buf, false)
	for _, pct := range []float64{1, 5, 26, 27, 51, 100} {
		r.progress(workflow.Progress{ItemID: "a", Title: "Talk", Phase: "downloading", Percent: pct})
	}
	if got := strings.Count(buf.String(), "Talk"); got != 4 {
		t.Fatalf("expected 4 sampled lines (0, 25, 50, 100 buckets), got %d\n%s", got, buf.String())
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestSubtitleDetail(t *testing.T) {
	if got := subtitleDetail(false, []string{"en"}); got != "Disabled" {
		t.Fatalf("unexpected detail %q", got)
	}
	if got := subtitleDetail(true, []string{"en", "de"}); got != "English, German" {
		t.Fatalf("unexpected detail %q", got)
	}
}
