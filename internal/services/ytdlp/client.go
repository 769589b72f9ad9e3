package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"tubeq/internal/engine"
	"tubeq/internal/fileutil"
	"tubeq/internal/logging"
	"tubeq/internal/services"
)

const stage = "ytdlp"

// DefaultProgressInterval throttles go-ytdlp progress callbacks.
const DefaultProgressInterval = 500 * time.Millisecond

// Option configures the client.
type Option func(*Client)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(r Runner) Option {
	return func(c *Client) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithLogger sets the logger used for command diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAuth applies cookies and proxy settings to metadata lookups.
func WithAuth(auth Auth) Option {
	return func(c *Client) {
		c.auth = auth
	}
}

// WithMinFreeBytes sets the free-space floor checked before each fetch.
func WithMinFreeBytes(n uint64) Option {
	return func(c *Client) {
		c.minFreeBytes = n
	}
}

// WithProgressInterval overrides DefaultProgressInterval.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock overrides time.Now for speed calculation.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client wraps yt-dlp interactions.
type Client struct {
	runner       Runner
	logger       *slog.Logger
	auth         Auth
	minFreeBytes uint64
	interval     time.Duration
	now          func() time.Time
}

var _ engine.Engine = (*Client)(nil)

// New constructs a yt-dlp client.
func New(opts ...Option) *Client {
	c := &Client{
		runner:   libraryRunner{},
		logger:   logging.NewNop(),
		interval: DefaultProgressInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "ytdlp")
	return c
}

// ExtractMetadata resolves url without downloading media.
func (c *Client) ExtractMetadata(ctx context.Context, url string) (engine.Metadata, error) {
	if strings.TrimSpace(url) == "" {
		return engine.Metadata{}, services.Wrap(services.ErrValidation, stage, "extract metadata", "url required", nil)
	}
	out, err := c.runner.DumpJSON(ctx, url, c.auth)
	if err != nil {
		return engine.Metadata{}, classify(ctx, "extract metadata", out.Stderr, err)
	}
	meta, err := parseMetadata([]byte(out.Stdout))
	if err != nil {
		return engine.Metadata{}, services.Wrap(services.ErrExternalTool, stage, "extract metadata", "decode yt-dlp json", err)
	}
	c.logger.Debug("metadata extracted",
		logging.String("url", url),
		logging.String("title", meta.Title),
		logging.Int("entries", len(meta.Entries)),
	)
	return meta, nil
}

// FetchToTarget downloads url according to opts, reporting progress to sink.
// The final event carries PhaseFinished and, when yt-dlp reports it, the
// output filename.
func (c *Client) FetchToTarget(ctx context.Context, url string, opts engine.Options, sink engine.ProgressSink) error {
	if strings.TrimSpace(url) == "" {
		return services.Wrap(services.ErrValidation, stage, "fetch", "url required", nil)
	}
	if strings.TrimSpace(opts.OutputTemplate) == "" {
		return services.Wrap(services.ErrConfiguration, stage, "fetch", "output template required", nil)
	}
	dir := opts.OutputDir()
	if err := fileutil.EnsureWritableDir(dir); err != nil {
		return services.Wrap(services.ErrConfiguration, stage, "fetch", "prepare output directory", err)
	}
	if err := fileutil.EnsureFreeSpace(dir, c.minFreeBytes); err != nil {
		return err
	}
	if sink == nil {
		sink = func(engine.ProgressEvent) {}
	}

	var (
		mu       sync.Mutex
		lastFile string
	)
	out, err := c.runner.Download(ctx, url, opts, c.interval, func(u Update) {
		ev := toEvent(u, c.now())
		if ev.Filename != "" {
			mu.Lock()
			lastFile = ev.Filename
			mu.Unlock()
		}
		sink(ev)
	})
	if err != nil {
		return classify(ctx, "fetch", out.Stderr, err)
	}

	mu.Lock()
	if out.Filename != "" {
		lastFile = out.Filename
	}
	mu.Unlock()
	sink(engine.ProgressEvent{Phase: engine.PhaseFinished, Filename: lastFile})
	c.logger.Debug("fetch finished", logging.String("url", url), logging.String("file", lastFile))
	return nil
}

func toEvent(u Update, now time.Time) engine.ProgressEvent {
	ev := engine.ProgressEvent{
		Phase:           phaseOf(u.Status),
		DownloadedBytes: max(u.DownloadedBytes, 0),
		TotalBytes:      max(u.TotalBytes, 0),
		Filename:        u.Filename,
	}
	if !u.Started.IsZero() {
		if elapsed := now.Sub(u.Started).Seconds(); elapsed > 0 {
			ev.SpeedBytesPerSec = float64(ev.DownloadedBytes) / elapsed
		}
	}
	if u.ETA > 0 {
		ev.EtaSeconds = int(math.Round(u.ETA.Seconds()))
	}
	return ev
}

func phaseOf(status string) engine.Phase {
	switch strings.ToLower(status) {
	case "finished":
		return engine.PhaseFinished
	case "post_processing", "postprocessing":
		return engine.PhasePostProcessing
	default:
		return engine.PhaseDownloading
	}
}

type infoJSON struct {
	Type           string      `json:"_type"`
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Uploader       string      `json:"uploader"`
	Channel        string      `json:"channel"`
	Duration       float64     `json:"duration"`
	Filesize       float64     `json:"filesize"`
	FilesizeApprox float64     `json:"filesize_approx"`
	Thumbnail      string      `json:"thumbnail"`
	WebpageURL     string      `json:"webpage_url"`
	URL            string      `json:"url"`
	ExtractorKey   string      `json:"extractor_key"`
	Entries        []*infoJSON `json:"entries"`
}

func (i *infoJSON) link() string {
	if i.WebpageURL != "" {
		return i.WebpageURL
	}
	return i.URL
}

func parseMetadata(data []byte) (engine.Metadata, error) {
	var info infoJSON
	if err := json.Unmarshal(data, &info); err != nil {
		return engine.Metadata{}, err
	}
	meta := engine.Metadata{
		ID:              info.ID,
		Title:           strings.TrimSpace(info.Title),
		Uploader:        firstNonEmpty(info.Uploader, info.Channel),
		DurationSeconds: int(math.Round(info.Duration)),
		SizeBytes:       int64(max(info.Filesize, info.FilesizeApprox)),
		ThumbnailURL:    info.Thumbnail,
		WebpageURL:      info.WebpageURL,
		Extractor:       info.ExtractorKey,
	}
	if info.Type != "playlist" {
		return meta, nil
	}
	index := 0
	for _, entry := range info.Entries {
		if entry == nil || entry.link() == "" {
			continue
		}
		index++
		meta.Entries = append(meta.Entries, engine.Entry{
			URL:             entry.link(),
			Title:           strings.TrimSpace(entry.Title),
			DurationSeconds: int(math.Round(entry.Duration)),
			Index:           index,
		})
	}
	return meta, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var (
	unavailableMarkers = []string{
		"private video",
		"video unavailable",
		"this video is not available",
		"has been removed",
		"copyright",
		"account has been terminated",
		"members-only",
		"sign in to confirm your age",
	}
	invalidMarkers = []string{
		"unsupported url",
		"is not a valid url",
	}
	spaceMarkers = []string{
		"no space left on device",
	}
	missingBinaryMarkers = []string{
		"executable file not found",
		"no such file or directory: 'yt-dlp'",
	}
)

// classify tags a yt-dlp failure with the services marker the retry policy
// understands. The message is the last ERROR line yt-dlp printed, when any.
func classify(ctx context.Context, op, stderr string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return services.Wrap(services.ErrCancelled, stage, op, "interrupted", ctx.Err())
	}
	message := lastErrorLine(stderr)
	haystack := strings.ToLower(stderr + "\n" + err.Error())

	marker := services.ErrExternalTool
	switch {
	case containsAny(haystack, missingBinaryMarkers):
		marker = services.ErrConfiguration
		message = "yt-dlp binary not found"
	case containsAny(haystack, spaceMarkers):
		marker = services.ErrInsufficientSpace
	case containsAny(haystack, invalidMarkers):
		marker = services.ErrValidation
	case containsAny(haystack, unavailableMarkers):
		marker = services.ErrUnavailable
	}
	if message == "" {
		return services.Wrap(marker, stage, op, "", err)
	}
	return services.Wrap(marker, stage, op, message, nil)
}

func lastErrorLine(stderr string) string {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if rest, ok := strings.CutPrefix(line, "ERROR:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
