package main

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tubeq/internal/config"
	"tubeq/internal/engine"
	"tubeq/internal/history"
	"tubeq/internal/services/ytdlp"
)

// engineFactory builds the download engine for a command. Tests replace it
// with a fake.
type engineFactory func(cfg *config.Config, logger *slog.Logger) engine.Engine

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	newEngine engineFactory
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		newEngine:  newYtDlpEngine,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) engine(cfg *config.Config, logger *slog.Logger) engine.Engine {
	if c.newEngine == nil {
		return newYtDlpEngine(cfg, logger)
	}
	return c.newEngine(cfg, logger)
}

// openHistory opens the configured history database.
func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Paths.HistoryDB) == "" {
		return nil, errors.New("history is disabled (paths.history_db is empty)")
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return nil, err
	}
	store.SetQuality(cfg.Downloads.Quality)
	return store, nil
}

func newYtDlpEngine(cfg *config.Config, logger *slog.Logger) engine.Engine {
	return ytdlp.New(
		ytdlp.WithLogger(logger),
		ytdlp.WithAuth(ytdlp.Auth{
			CookiesFile: cfg.Downloads.CookiesFile,
			Proxy:       cfg.Downloads.Proxy,
		}),
		ytdlp.WithMinFreeBytes(cfg.MinFreeSpaceBytes()),
	)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
