package preflight

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"tubeq/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected pass for 1 byte, got: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, math.MaxUint64); result.Passed {
		t.Fatal("expected failure for impossible requirement")
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckFileReadable(t *testing.T) {
	dir := t.TempDir()
	cookies := filepath.Join(dir, "cookies.txt")
	testsupport.WriteFile(t, cookies, 64)

	if result := CheckFileReadable("cookies", cookies); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckFileReadable("cookies", dir); result.Passed {
		t.Fatal("expected failure for directory")
	}
	if result := CheckFileReadable("cookies", filepath.Join(dir, "nope.txt")); result.Passed {
		t.Fatal("expected failure for missing file")
	}
}

func TestCheckNtfy_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"healthy":true}`))
	}))
	defer srv.Close()

	result := CheckNtfy(context.Background(), srv.URL+"/my-downloads")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckNtfy_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"healthy":false}`))
	}))
	defer srv.Close()

	if result := CheckNtfy(context.Background(), srv.URL+"/topic"); result.Passed {
		t.Fatal("expected failure for unhealthy server")
	}
}

func TestCheckNtfy_InvalidTopic(t *testing.T) {
	if result := CheckNtfy(context.Background(), "not a url"); result.Passed {
		t.Fatal("expected failure for invalid topic")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	// Download directory + history directory
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_ReportsMissingCookies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	cfg.Downloads.CookiesFile = filepath.Join(testsupport.BaseDir(cfg), "missing-cookies.txt")
	cfg.Downloads.MinFreeSpaceMB = 1

	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Cookies file" {
		t.Fatalf("expected only the cookies check to fail, got %+v", failed)
	}
}

func TestCheckSystemDepsWithStubs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	statuses := CheckSystemDeps(context.Background(), cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected yt-dlp and ffmpeg statuses, got %d", len(statuses))
	}
	for _, status := range statuses {
		if !status.Available {
			t.Fatalf("expected %s available, got %q", status.Name, status.Detail)
		}
	}
	if statuses[1].Optional {
		t.Fatal("ffmpeg must be required for merged default formats")
	}
}

func TestNeedsFFmpeg(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Downloads.Quality = "audio_only"
	if needsFFmpeg(cfg) {
		t.Fatal("audio-only without embedding should not need ffmpeg")
	}
	cfg.Downloads.Subtitles = true
	if !needsFFmpeg(cfg) {
		t.Fatal("subtitles require ffmpeg")
	}
}
