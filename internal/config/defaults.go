package config

const (
	defaultConfigPath         = "~/.config/tubeq/config.toml"
	defaultDownloadDir        = "~/Downloads"
	defaultLogDir             = "~/.local/share/tubeq/logs"
	defaultHistoryDB          = "~/.local/share/tubeq/history.db"
	defaultMaxConcurrent      = 2
	defaultMaxRetries         = 3
	defaultRetryDelaySeconds  = 5
	defaultQuality            = "best"
	defaultMinFreeSpaceMB     = 1024
	defaultPollIntervalMillis = 500
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultMetricsBind        = "127.0.0.1:9477"
	defaultNtfyTimeoutSeconds = 10

	// MinConcurrent and MaxConcurrent bound downloads.max_concurrent.
	MinConcurrent = 1
	MaxConcurrent = 5
	// MaxRetryAttempts bounds downloads.max_retries.
	MaxRetryAttempts = 10
	// MaxBandwidthKBps bounds downloads.bandwidth_limit_kbps; 0 means unlimited.
	MaxBandwidthKBps = 100000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			HistoryDB:   defaultHistoryDB,
		},
		Downloads: Downloads{
			MaxConcurrent:     defaultMaxConcurrent,
			MaxRetries:        defaultMaxRetries,
			RetryDelaySeconds: defaultRetryDelaySeconds,
			Quality:           defaultQuality,
			SubtitleLangs:     []string{"en"},
			ExtractMetadata:   true,
			MinFreeSpaceMB:    defaultMinFreeSpaceMB,
		},
		Workflow: Workflow{
			PollIntervalMillis: defaultPollIntervalMillis,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Metrics: Metrics{
			Bind: defaultMetricsBind,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
			ItemCompleted:         true,
			QueueCompleted:        true,
			Errors:                true,
		},
	}
}
