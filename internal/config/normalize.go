package config

import (
	"fmt"
	"os"
	"strings"

	"tubeq/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDownloads(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	if c.Metrics.Bind == "" {
		c.Metrics.Bind = defaultMetricsBind
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("TUBEQ_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
	if c.Workflow.PollIntervalMillis == 0 {
		c.Workflow.PollIntervalMillis = defaultPollIntervalMillis
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeDownloads() error {
	d := &c.Downloads
	d.Quality = strings.ToLower(strings.TrimSpace(d.Quality))
	if d.Quality == "" {
		d.Quality = defaultQuality
	}
	d.FormatSelector = strings.TrimSpace(d.FormatSelector)

	langs, invalid := language.NormalizeList(d.SubtitleLangs)
	if len(invalid) > 0 {
		return fmt.Errorf("downloads.subtitle_langs: unrecognised language %q", invalid[0])
	}
	if len(langs) == 0 {
		langs = []string{"en"}
	}
	d.SubtitleLangs = langs

	d.Proxy = strings.TrimSpace(d.Proxy)
	if d.Proxy == "" {
		if value, ok := os.LookupEnv("TUBEQ_PROXY"); ok {
			d.Proxy = strings.TrimSpace(value)
		}
	}

	d.CookiesFile = strings.TrimSpace(d.CookiesFile)
	if d.CookiesFile == "" {
		if value, ok := os.LookupEnv("TUBEQ_COOKIES_FILE"); ok {
			d.CookiesFile = strings.TrimSpace(value)
		}
	}
	if d.CookiesFile != "" {
		expanded, err := expandPath(d.CookiesFile)
		if err != nil {
			return fmt.Errorf("downloads.cookies_file: %w", err)
		}
		d.CookiesFile = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
