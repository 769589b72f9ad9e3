package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"tubeq/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TUBEQ_PROXY", "")
	t.Setenv("TUBEQ_COOKIES_FILE", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "tubeq", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.DownloadDir != filepath.Join(tempHome, "Downloads") {
		t.Fatalf("unexpected download dir: %q", cfg.Paths.DownloadDir)
	}
	if cfg.Paths.HistoryDB != filepath.Join(tempHome, ".local", "share", "tubeq", "history.db") {
		t.Fatalf("unexpected history db: %q", cfg.Paths.HistoryDB)
	}
	if cfg.Downloads.MaxConcurrent != 2 || cfg.Downloads.MaxRetries != 3 {
		t.Fatalf("unexpected download defaults: %+v", cfg.Downloads)
	}
	if cfg.RetryDelay() != 5*time.Second {
		t.Fatalf("unexpected retry delay %s", cfg.RetryDelay())
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected poll interval %s", cfg.PollInterval())
	}
	if cfg.MinFreeSpaceBytes() != 1024*1024*1024 {
		t.Fatalf("unexpected free space floor %d", cfg.MinFreeSpaceBytes())
	}
	if cfg.Downloads.Proxy != "" || cfg.Downloads.CookiesFile != "" {
		t.Fatalf("expected no proxy or cookies by default: %+v", cfg.Downloads)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DownloadDir, cfg.Paths.LogDir, filepath.Dir(cfg.Paths.HistoryDB)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tubeq.toml")

	type payload struct {
		Paths struct {
			DownloadDir string `toml:"download_dir"`
		} `toml:"paths"`
		Downloads struct {
			MaxConcurrent  int      `toml:"max_concurrent"`
			Quality        string   `toml:"quality"`
			SubtitleLangs  []string `toml:"subtitle_langs"`
			BandwidthLimit int      `toml:"bandwidth_limit_kbps"`
		} `toml:"downloads"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.DownloadDir = filepath.Join(tempDir, "out")
	custom.Downloads.MaxConcurrent = 4
	custom.Downloads.Quality = " 720P "
	custom.Downloads.SubtitleLangs = []string{"EN", "ar", "en", " "}
	custom.Downloads.BandwidthLimit = 500
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to resolve, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DownloadDir != custom.Paths.DownloadDir {
		t.Fatalf("unexpected download dir %q", cfg.Paths.DownloadDir)
	}
	if cfg.Downloads.MaxConcurrent != 4 {
		t.Fatalf("unexpected max concurrent %d", cfg.Downloads.MaxConcurrent)
	}
	if cfg.Downloads.Quality != "720p" {
		t.Fatalf("expected normalized quality, got %q", cfg.Downloads.Quality)
	}
	if strings.Join(cfg.Downloads.SubtitleLangs, ",") != "en,ar" {
		t.Fatalf("unexpected subtitle langs %v", cfg.Downloads.SubtitleLangs)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format %q", cfg.Logging.Format)
	}
	if cfg.Downloads.MaxRetries != 3 {
		t.Fatalf("expected default retries to survive partial file, got %d", cfg.Downloads.MaxRetries)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "tubeq.toml")
	if err := os.WriteFile(configPath, []byte("[downloads]\nmax_concurent = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to fail parsing")
	}
}

func TestEnvFallbacks(t *testing.T) {
	cookies := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(cookies, []byte("# Netscape HTTP Cookie File\n"), 0o600); err != nil {
		t.Fatalf("write cookies: %v", err)
	}
	t.Setenv("TUBEQ_PROXY", " socks5://127.0.0.1:1080 ")
	t.Setenv("TUBEQ_COOKIES_FILE", cookies)
	t.Setenv("TUBEQ_NTFY_TOPIC", "https://ntfy.example/downloads")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Downloads.Proxy != "socks5://127.0.0.1:1080" {
		t.Fatalf("unexpected proxy %q", cfg.Downloads.Proxy)
	}
	if cfg.Downloads.CookiesFile != cookies {
		t.Fatalf("unexpected cookies file %q", cfg.Downloads.CookiesFile)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/downloads" {
		t.Fatalf("unexpected ntfy topic %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.NotificationTimeout() != 10*time.Second {
		t.Fatalf("unexpected ntfy timeout %s", cfg.NotificationTimeout())
	}
}

func TestLoadReadsEnvFileBesideConfig(t *testing.T) {
	if _, ok := os.LookupEnv("TUBEQ_PROXY"); ok {
		t.Skip("TUBEQ_PROXY already set in environment")
	}
	t.Cleanup(func() { _ = os.Unsetenv("TUBEQ_PROXY") })

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[downloads]\nquality = \"720p\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	envFile := "# proxy for all downloads\nTUBEQ_PROXY=http://proxy.internal:3128\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(envFile), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Downloads.Proxy != "http://proxy.internal:3128" {
		t.Fatalf("expected proxy from .env, got %q", cfg.Downloads.Proxy)
	}
}

func TestLoadNormalizesSubtitleLanguages(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := "[downloads]\nsubtitles = true\nsubtitle_langs = [\"English\", \"ger\", \"pt-br\", \"en\"]\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := strings.Join(cfg.Downloads.SubtitleLangs, ","); got != "en,de,pt-BR" {
		t.Fatalf("unexpected subtitle langs %q", got)
	}

	if err := os.WriteFile(configPath, []byte("[downloads]\nsubtitle_langs = [\"klingonese\"]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "subtitle_langs") {
		t.Fatalf("expected subtitle_langs error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	t.Setenv("TUBEQ_PROXY", "")
	t.Setenv("TUBEQ_COOKIES_FILE", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if string(data) != config.SampleConfig() {
		t.Fatal("sample file differs from embedded sample")
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Downloads.MaxConcurrent != config.Default().Downloads.MaxConcurrent {
		t.Fatalf("sample and defaults disagree on max_concurrent: %d", cfg.Downloads.MaxConcurrent)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Downloads.Quality = "480p"
	out, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(out, "quality = '480p'") && !strings.Contains(out, `quality = "480p"`) {
		t.Fatalf("encoded config missing quality: %s", out)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"concurrency too high", func(c *config.Config) { c.Downloads.MaxConcurrent = 6 }, "max_concurrent"},
		{"concurrency zero", func(c *config.Config) { c.Downloads.MaxConcurrent = 0 }, "max_concurrent"},
		{"retries too high", func(c *config.Config) { c.Downloads.MaxRetries = 11 }, "max_retries"},
		{"negative retry delay", func(c *config.Config) { c.Downloads.RetryDelaySeconds = -1 }, "retry_delay_seconds"},
		{"bandwidth too high", func(c *config.Config) { c.Downloads.BandwidthLimitKBps = 100001 }, "bandwidth_limit_kbps"},
		{"negative queue size", func(c *config.Config) { c.Downloads.MaxQueueSize = -1 }, "max_queue_size"},
		{"unknown quality", func(c *config.Config) { c.Downloads.Quality = "8k" }, "quality"},
		{"missing cookies file", func(c *config.Config) { c.Downloads.CookiesFile = "/nonexistent/cookies.txt" }, "cookies_file"},
		{"poll interval", func(c *config.Config) { c.Workflow.PollIntervalMillis = -5 }, "poll_interval_ms"},
		{"empty download dir", func(c *config.Config) { c.Paths.DownloadDir = "" }, "download_dir"},
		{"relative ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "ntfy_topic"},
		{"negative ntfy timeout", func(c *config.Config) { c.Notifications.RequestTimeoutSeconds = -1 }, "request_timeout_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.DownloadDir = t.TempDir()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateAcceptsFormatSelectorOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DownloadDir = t.TempDir()
	cfg.Downloads.Quality = "custom"
	cfg.Downloads.FormatSelector = "bv*+ba/b"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected format selector to bypass quality check: %v", err)
	}
}
