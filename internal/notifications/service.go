package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"tubeq/internal/config"
)

const userAgent = "tubeq/0.1"

// Event identifies a notification kind.
type Event string

const (
	EventItemCompleted  Event = "item_completed"
	EventQueueCompleted Event = "queue_completed"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries event fields. Keys are event specific.
type Payload map[string]any

// Service publishes workflow events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventItemCompleted:  cfg.Notifications.ItemCompleted,
			EventQueueCompleted: cfg.Notifications.QueueCompleted,
			EventError:          cfg.Notifications.Errors,
			EventTest:           true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled[event] {
		return nil
	}
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventItemCompleted:
		body := fmt.Sprintf("✅ Downloaded: %s", payload.text("title", "untitled"))
		if size := payload.number("sizeBytes"); size > 0 {
			body = fmt.Sprintf("%s (%s)", body, humanize.IBytes(uint64(size)))
		}
		if file := payload.text("file", ""); file != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, file)
		}
		return message{
			title: "tubeq - Download Complete",
			body:  body,
			tags:  []string{"tubeq", "download", "completed"},
		}, true
	case EventQueueCompleted:
		completed := payload.number("completed")
		failed := payload.number("failed")
		duration := payload.span("duration").Round(time.Second)
		title := "tubeq - Queue Complete"
		body := fmt.Sprintf("Queue finished: %d downloaded in %s", completed, duration)
		if failed > 0 {
			title = "tubeq - Queue Complete (with errors)"
			body = fmt.Sprintf("Queue finished: %d downloaded, %d failed in %s", completed, failed, duration)
		}
		return message{
			title: title,
			body:  body,
			tags:  []string{"tubeq", "queue", "completed"},
		}, true
	case EventError:
		var b strings.Builder
		b.WriteString("❌ Download failed")
		if label := payload.text("context", ""); label != "" {
			b.WriteString(": ")
			b.WriteString(label)
		}
		b.WriteString("\n")
		b.WriteString(payload.text("error", "unknown"))
		return message{
			title:    "tubeq - Error",
			body:     b.String(),
			tags:     []string{"tubeq", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "tubeq - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"tubeq", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p Payload) text(key, fallback string) string {
	switch v := p[key].(type) {
	case string:
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	case error:
		if v != nil {
			return strings.TrimSpace(v.Error())
		}
	case fmt.Stringer:
		return v.String()
	}
	return fallback
}

func (p Payload) number(key string) int64 {
	switch v := p[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

func (p Payload) span(key string) time.Duration {
	if v, ok := p[key].(time.Duration); ok && v > 0 {
		return v
	}
	return 0
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
