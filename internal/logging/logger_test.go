package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tubeq/internal/config"
	"tubeq/internal/services"
)

func newTestPretty(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(level)
	return slog.New(newPrettyHandler(buf, lvl, false))
}

func TestPrettyHandlerHeader(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo)

	logger.Info("download complete",
		String(FieldComponent, "workflow"),
		String(FieldItemID, "ab12cd34"),
		String("output_path", "/tmp/video.mp4"),
	)

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one field, got %q", out)
	}
	if !strings.Contains(lines[0], "INFO [workflow] Item #ab12cd34 – download complete") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "    - output_path: /tmp/video.mp4" {
		t.Fatalf("unexpected field line %q", lines[1])
	}
}

func TestPrettyHandlerDebugShowsAllAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelDebug)

	logger.Debug("claimed", String(FieldItemID, "x1"), Int("slot", 2))

	out := buf.String()
	if !strings.Contains(out, "DEBUG Item #x1 – claimed") {
		t.Fatalf("unexpected header in %q", out)
	}
	if !strings.Contains(out, "    item_id: x1") || !strings.Contains(out, "    slot: 2") {
		t.Fatalf("expected debug attrs in %q", out)
	}
}

func TestPrettyHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelWarn)
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "WARN – shown") {
		t.Fatalf("expected warn line, got %q", buf.String())
	}
}

func TestPrettyHandlerGroupsAndDedupe(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo).With(String("speed", "1"))

	logger.WithGroup("progress").Info("tick", Float64("percent", 12.5))
	logger.Info("override", String("speed", "2"))

	out := buf.String()
	if !strings.Contains(out, "progress.percent: 12.5") {
		t.Fatalf("expected grouped key in %q", out)
	}
	if strings.Count(out, "speed: 2") != 1 || strings.Contains(out, "override\n    - speed: 1") {
		t.Fatalf("expected later attr to win in %q", out)
	}
}

func TestFormatValueQuotes(t *testing.T) {
	if got := formatValue(slog.StringValue("two words")); got != `"two words"` {
		t.Fatalf("formatValue = %s", got)
	}
	if got := formatValue(slog.AnyValue(errors.New("boom"))); got != "boom" {
		t.Fatalf("formatValue(error) = %s", got)
	}
	if got := formatValue(slog.StringValue("")); got != `""` {
		t.Fatalf("formatValue(empty) = %s", got)
	}
}

func TestJSONHandlerShape(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl, false))
	logger.Warn("retrying", String(FieldItemID, "abc"), Int(FieldAttempt, 2))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if payload["level"] != "warn" {
		t.Fatalf("level = %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key in %v", payload)
	}
	if payload[FieldItemID] != "abc" {
		t.Fatalf("item_id = %v", payload[FieldItemID])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "debug"

	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Debug("hello file")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "tubeq.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("log file missing entry: %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithItemID(context.Background(), "id-1")
	ctx = services.WithAttempt(ctx, 3)
	ctx = services.WithRequestID(ctx, "req")

	fields := ContextFields(ctx)
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}

	var buf bytes.Buffer
	logger := WithContext(ctx, newTestPretty(&buf, slog.LevelInfo))
	logger.Info("attempt started")
	out := buf.String()
	if !strings.Contains(out, "Item #id-1") || !strings.Contains(out, "attempt: 3") || !strings.Contains(out, "correlation_id: req") {
		t.Fatalf("context fields missing from %q", out)
	}
}

func TestWithContextEmpty(t *testing.T) {
	base := NewNop()
	if got := WithContext(context.Background(), base); got != base {
		t.Fatal("expected same logger when context carries no fields")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	WarnWithContext(newTestPretty(&buf, slog.LevelInfo), "slow", "download_slow")
	out := buf.String()
	for _, want := range []string{"event_type: download_slow", "error_hint:", "impact:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}
