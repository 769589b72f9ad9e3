package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
)

var qualityNames = map[string]struct{}{
	"best": {}, "worst": {}, "2160p": {}, "1440p": {}, "1080p": {},
	"720p": {}, "480p": {}, "360p": {}, "audio_only": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDownloads(); err != nil {
		return err
	}
	if c.Workflow.PollIntervalMillis <= 0 {
		return errors.New("workflow.poll_interval_ms must be positive")
	}
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds must be non-negative")
	}
	if topic := c.Notifications.NtfyTopic; topic != "" {
		if u, err := url.Parse(topic); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("notifications.ntfy_topic %q must be a full URL", topic)
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DownloadDir == "" {
		return errors.New("paths.download_dir must be set")
	}
	if info, err := os.Stat(c.Paths.DownloadDir); err == nil && !info.IsDir() {
		return fmt.Errorf("paths.download_dir %q is not a directory", c.Paths.DownloadDir)
	}
	return nil
}

func (c *Config) validateDownloads() error {
	d := c.Downloads
	if d.MaxConcurrent < MinConcurrent || d.MaxConcurrent > MaxConcurrent {
		return fmt.Errorf("downloads.max_concurrent must be between %d and %d", MinConcurrent, MaxConcurrent)
	}
	if d.MaxRetries < 0 || d.MaxRetries > MaxRetryAttempts {
		return fmt.Errorf("downloads.max_retries must be between 0 and %d", MaxRetryAttempts)
	}
	if d.RetryDelaySeconds < 0 {
		return errors.New("downloads.retry_delay_seconds must be non-negative")
	}
	if d.MaxQueueSize < 0 {
		return errors.New("downloads.max_queue_size must be non-negative (0 = unbounded)")
	}
	if d.BandwidthLimitKBps < 0 || d.BandwidthLimitKBps > MaxBandwidthKBps {
		return fmt.Errorf("downloads.bandwidth_limit_kbps must be between 0 and %d", MaxBandwidthKBps)
	}
	if d.MinFreeSpaceMB < 0 {
		return errors.New("downloads.min_free_space_mb must be non-negative")
	}
	if d.FormatSelector == "" {
		if _, ok := qualityNames[d.Quality]; !ok {
			return fmt.Errorf("downloads.quality %q is not recognised (use best, worst, 2160p, 1440p, 1080p, 720p, 480p, 360p, or audio_only)", d.Quality)
		}
	}
	if d.CookiesFile != "" {
		if _, err := os.Stat(d.CookiesFile); err != nil {
			return fmt.Errorf("downloads.cookies_file: %w", err)
		}
	}
	return nil
}
