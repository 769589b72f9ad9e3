package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"tubeq/internal/config"
	"tubeq/internal/queue"
	"tubeq/internal/textutil"
)

// DefaultQuality is used for unknown quality names.
const DefaultQuality = "best"

// qualityFormats maps quality names to yt-dlp format selectors. Each entry
// prefers mp4/m4a and falls back to whatever the site offers at that height.
var qualityFormats = map[string]string{
	"best":       "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
	"worst":      "worstvideo[ext=mp4]+worstaudio[ext=m4a]/worst[ext=mp4]/worst",
	"2160p":      heightFormat(2160),
	"1440p":      heightFormat(1440),
	"1080p":      heightFormat(1080),
	"720p":       heightFormat(720),
	"480p":       heightFormat(480),
	"360p":       heightFormat(360),
	"audio_only": "bestaudio[ext=m4a]/bestaudio/best[acodec!=none]",
}

func heightFormat(h int) string {
	return fmt.Sprintf("bestvideo[height<=%[1]d][ext=mp4]+bestaudio[ext=m4a]/best[height<=%[1]d][ext=mp4]/best[height<=%[1]d]", h)
}

// FormatForQuality returns the selector for a quality name, falling back to
// DefaultQuality.
func FormatForQuality(quality string) string {
	if f, ok := qualityFormats[strings.ToLower(strings.TrimSpace(quality))]; ok {
		return f
	}
	return qualityFormats[DefaultQuality]
}

// Options shape a single fetch.
type Options struct {
	OutputTemplate string
	Format         string
	// RateLimitBytes caps throughput in bytes per second; zero is unlimited.
	RateLimitBytes int64
	CookiesFile    string
	Proxy          string
	Subtitles      bool
	SubtitleLangs  []string
	EmbedMetadata  bool
}

// OutputDir returns the directory portion of OutputTemplate.
func (o Options) OutputDir() string {
	return filepath.Dir(o.OutputTemplate)
}

// OptionsBuilder derives per-item Options from configuration.
type OptionsBuilder struct {
	downloadDir string
	base        Options
}

// NewOptionsBuilder captures the download settings from cfg.
func NewOptionsBuilder(cfg *config.Config) *OptionsBuilder {
	d := cfg.Downloads
	format := d.FormatSelector
	if format == "" {
		format = FormatForQuality(d.Quality)
	}
	langs := append([]string(nil), d.SubtitleLangs...)
	return &OptionsBuilder{
		downloadDir: cfg.Paths.DownloadDir,
		base: Options{
			Format:         format,
			RateLimitBytes: int64(d.BandwidthLimitKBps) * 1024,
			CookiesFile:    d.CookiesFile,
			Proxy:          d.Proxy,
			Subtitles:      d.Subtitles,
			SubtitleLangs:  langs,
			EmbedMetadata:  d.ExtractMetadata,
		},
	}
}

// DownloadDir returns the root every output template lives under.
func (b *OptionsBuilder) DownloadDir() string {
	return b.downloadDir
}

// Build returns Options for item. Grouped items land in a sanitized
// subdirectory named after the group and, when indexed, carry a zero-padded
// index prefix.
func (b *OptionsBuilder) Build(item queue.Item) Options {
	opts := b.base
	opts.SubtitleLangs = append([]string(nil), b.base.SubtitleLangs...)
	opts.OutputTemplate = OutputTemplate(b.downloadDir, item.GroupTitle, item.GroupIndex)
	return opts
}

// OutputTemplate builds a yt-dlp output template under root.
func OutputTemplate(root, group string, index int) string {
	dir := root
	if group = strings.TrimSpace(group); group != "" {
		dir = filepath.Join(root, textutil.SanitizeFileName(group))
		if index > 0 {
			return filepath.Join(dir, fmt.Sprintf("%03d - %%(title)s.%%(ext)s", index))
		}
	}
	return filepath.Join(dir, "%(title)s.%(ext)s")
}
