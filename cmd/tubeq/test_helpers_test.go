package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"tubeq/internal/config"
	"tubeq/internal/engine"
	"tubeq/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("TUBEQ_NTFY_TOPIC", "")
	t.Setenv("TUBEQ_PROXY", "")
	t.Setenv("TUBEQ_COOKIES_FILE", "")

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(homeDir, ".config", "tubeq", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, eng engine.Engine, args ...string) (string, string, error) {
	t.Helper()
	var factory engineFactory
	if eng != nil {
		factory = func(*config.Config, *slog.Logger) engine.Engine { return eng }
	}
	cmd := buildRootCommand(factory)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if env != nil && env.configPath != "" {
		flags = append(flags, "--config", env.configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// stubEngine resolves metadata from a map and writes a small file for each
// fetch unless the URL has a scripted failure.
type stubEngine struct {
	mu       sync.Mutex
	metadata map[string]engine.Metadata
	failures map[string]error
	fetched  []string
}

func newStubEngine() *stubEngine {
	return &stubEngine{
		metadata: make(map[string]engine.Metadata),
		failures: make(map[string]error),
	}
}

func (s *stubEngine) ExtractMetadata(_ context.Context, url string) (engine.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if meta, ok := s.metadata[url]; ok {
		return meta, nil
	}
	return engine.Metadata{Title: "Video " + filepath.Base(url), WebpageURL: url}, nil
}

func (s *stubEngine) FetchToTarget(_ context.Context, url string, opts engine.Options, sink engine.ProgressSink) error {
	s.mu.Lock()
	s.fetched = append(s.fetched, url)
	err := s.failures[url]
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.OutputDir(), 0o755); err != nil {
		return err
	}
	target := filepath.Join(opts.OutputDir(), filepath.Base(url)+".mp4")
	if err := os.WriteFile(target, []byte("media"), 0o644); err != nil {
		return err
	}
	sink(engine.ProgressEvent{Phase: engine.PhaseDownloading, DownloadedBytes: 2, TotalBytes: 5, SpeedBytesPerSec: 1024, EtaSeconds: 3})
	sink(engine.ProgressEvent{Phase: engine.PhaseFinished, DownloadedBytes: 5, TotalBytes: 5, Filename: target})
	return nil
}

func (s *stubEngine) fetchedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fetched...)
}
