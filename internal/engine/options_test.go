package engine

import (
	"path/filepath"
	"strings"
	"testing"

	"tubeq/internal/config"
	"tubeq/internal/queue"
)

func TestFormatForQuality(t *testing.T) {
	if got := FormatForQuality("720P"); !strings.Contains(got, "height<=720") {
		t.Fatalf("unexpected 720p selector %q", got)
	}
	if got := FormatForQuality("audio_only"); !strings.HasPrefix(got, "bestaudio") {
		t.Fatalf("unexpected audio selector %q", got)
	}
	if got := FormatForQuality("8k"); got != FormatForQuality(DefaultQuality) {
		t.Fatalf("unknown quality should fall back to best, got %q", got)
	}
}

func TestOutputTemplate(t *testing.T) {
	root := "/data/videos"
	tests := []struct {
		name  string
		group string
		index int
		want  string
	}{
		{name: "single", want: filepath.Join(root, "%(title)s.%(ext)s")},
		{name: "group", group: "Mix: Vol/1", want: filepath.Join(root, "Mix_ Vol_1", "%(title)s.%(ext)s")},
		{name: "indexed", group: "Talks", index: 7, want: filepath.Join(root, "Talks", "007 - %(title)s.%(ext)s")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputTemplate(root, tt.group, tt.index); got != tt.want {
				t.Fatalf("OutputTemplate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOptionsBuilder(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DownloadDir = "/dl"
	cfg.Downloads.Quality = "1080p"
	cfg.Downloads.BandwidthLimitKBps = 500
	cfg.Downloads.Proxy = "http://proxy:8080"
	cfg.Downloads.Subtitles = true
	cfg.Downloads.SubtitleLangs = []string{"en", "de"}

	b := NewOptionsBuilder(&cfg)
	item := queue.NewItem("https://example.com/watch?v=1", queue.WithGroup("Course", 2))
	opts := b.Build(item)

	if !strings.Contains(opts.Format, "height<=1080") {
		t.Fatalf("unexpected format %q", opts.Format)
	}
	if opts.RateLimitBytes != 500*1024 {
		t.Fatalf("unexpected rate limit %d", opts.RateLimitBytes)
	}
	if opts.Proxy != "http://proxy:8080" || !opts.Subtitles {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.OutputDir() != filepath.Join("/dl", "Course") {
		t.Fatalf("unexpected output dir %q", opts.OutputDir())
	}
	if filepath.Base(opts.OutputTemplate) != "002 - %(title)s.%(ext)s" {
		t.Fatalf("unexpected template %q", opts.OutputTemplate)
	}

	opts.SubtitleLangs[0] = "fr"
	if again := b.Build(item); again.SubtitleLangs[0] != "en" {
		t.Fatal("Build must not share subtitle slices between calls")
	}
}

func TestOptionsBuilderFormatSelectorOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Downloads.FormatSelector = "bv*+ba/b"
	if got := NewOptionsBuilder(&cfg).Build(queue.NewItem("https://example.com/v")).Format; got != "bv*+ba/b" {
		t.Fatalf("expected raw selector, got %q", got)
	}
}
