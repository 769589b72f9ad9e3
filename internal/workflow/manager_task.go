package workflow

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tubeq/internal/engine"
	"tubeq/internal/logging"
	"tubeq/internal/metrics"
	"tubeq/internal/queue"
	"tubeq/internal/services"
)

// runTask executes one claimed item until it completes, fails for good, or
// is cancelled.
func (m *Manager) runTask(ctx context.Context, t *task, item queue.Item) {
	defer m.releaseTask(t)

	ctx = services.WithItemID(ctx, item.ID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)
	started := m.clock.Now()

	if m.extractMetadata {
		var done bool
		item, done = m.resolveMetadata(ctx, t, logger, item)
		if done {
			return
		}
	}

	opts := m.options.Build(item)
	for attempt := 1; ; attempt++ {
		if !m.awaitGate(ctx, item.ID) {
			m.abandon(ctx, t, logger, item, started)
			return
		}
		if !m.queue.UpdateStatus(item.ID, queue.StatusDownloading, "") {
			logger.Debug("item vanished before attempt")
			return
		}

		attemptCtx := services.WithAttempt(ctx, attempt)
		attemptLogger := logging.WithContext(attemptCtx, m.logger)
		attemptLogger.Info("download attempt started",
			logging.String(logging.FieldEventType, "attempt_start"),
			logging.String("source_url", item.SourceURL),
			logging.String("output_template", opts.OutputTemplate),
		)
		m.metrics.ObserveAttempt()

		sink := newProgressSink(m, item, attemptLogger)
		err := m.engine.FetchToTarget(attemptCtx, item.SourceURL, opts, sink.accept)
		if err == nil {
			m.complete(ctx, logger, item.ID, sink.filename(), started)
			return
		}
		if ctx.Err() != nil {
			m.abandon(ctx, t, logger, item, started)
			return
		}

		decision := m.policy.Decide(err, attempt, item.MaxRetries, m.retryDelay)
		if !decision.Retry() {
			m.fail(ctx, logger, item.ID, err, decision.Message, attempt, started)
			return
		}

		m.metrics.ObserveRetry()
		logging.WarnWithContext(attemptLogger, "download attempt failed; retrying", "attempt_retry",
			logging.Error(err),
			logging.Duration("backoff", decision.Delay),
			logging.Int("max_retries", item.MaxRetries),
			logging.String(logging.FieldErrorHint, "transient failure; backing off before the next attempt"),
			logging.String(logging.FieldImpact, "download delayed"),
		)
		if !m.queue.UpdateStatus(item.ID, queue.StatusWaiting, "") {
			return
		}
		if err := m.clock.Sleep(ctx, decision.Delay); err != nil {
			m.abandon(ctx, t, logger, item, started)
			return
		}
	}
}

// resolveMetadata fills in title, size, and duration. Playlists are
// expanded into one item per entry. It returns done=true when the task has
// nothing left to download.
func (m *Manager) resolveMetadata(ctx context.Context, t *task, logger *slog.Logger, item queue.Item) (queue.Item, bool) {
	meta, err := m.engine.ExtractMetadata(ctx, item.SourceURL)
	if err != nil {
		if ctx.Err() != nil {
			m.abandon(ctx, t, logger, item, m.clock.Now())
			return item, true
		}
		if m.policy.IsTerminal(err) {
			m.fail(ctx, logger, item.ID, err, strings.TrimSpace(err.Error()), 0, m.clock.Now())
			return item, true
		}
		logging.WarnWithContext(logger, "metadata extraction failed; downloading without it", "metadata_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the download still runs; the title comes from the engine"),
			logging.String(logging.FieldImpact, "title and size unknown until download starts"),
		)
		return item, false
	}

	if meta.IsGroup() {
		m.expandGroup(t, logger, item, meta)
		return item, true
	}

	m.queue.UpdateInfo(item.ID, queue.InfoUpdate{
		Title:           meta.Title,
		DurationSeconds: meta.DurationSeconds,
		SizeBytes:       meta.SizeBytes,
		ThumbnailURL:    meta.ThumbnailURL,
	})
	if updated, ok := m.queue.Get(item.ID); ok {
		item = updated
	}
	logger.Debug("metadata resolved",
		logging.String("title", meta.Title),
		logging.Int64("size_bytes", meta.SizeBytes),
		logging.Int("duration_seconds", meta.DurationSeconds),
	)
	return item, false
}

// expandGroup queues every playlist entry and removes the placeholder. The
// placeholder was never downloaded, so it produces no completion callback.
func (m *Manager) expandGroup(t *task, logger *slog.Logger, item queue.Item, meta engine.Metadata) {
	group := strings.TrimSpace(meta.Title)
	if group == "" {
		group = item.DisplayTitle
	}
	entries := make([]queue.Item, 0, len(meta.Entries))
	for _, entry := range meta.Entries {
		entries = append(entries, queue.NewItem(entry.URL,
			queue.WithTitle(entry.Title),
			queue.WithGroup(group, entry.Index),
			queue.WithMaxRetries(item.MaxRetries),
		))
	}

	m.mu.Lock()
	t.retired = true
	m.mu.Unlock()
	m.queue.Remove(item.ID)
	added := m.queue.AddMany(entries)
	logger.Info("playlist expanded",
		logging.String(logging.FieldEventType, "playlist_expanded"),
		logging.String("group", group),
		logging.Int("entries", len(meta.Entries)),
		logging.Int("queued", len(added)),
	)
}

// awaitGate blocks while paused. The item shows as paused for the duration.
func (m *Manager) awaitGate(ctx context.Context, id string) bool {
	if ctx.Err() != nil {
		return false
	}
	if m.gate.IsOpen() {
		return true
	}
	m.queue.UpdateStatus(id, queue.StatusPaused, "")
	return m.gate.Wait(ctx) == nil && ctx.Err() == nil
}

func (m *Manager) complete(ctx context.Context, logger *slog.Logger, id, filename string, started time.Time) {
	if filename != "" {
		m.queue.UpdateInfo(id, queue.InfoUpdate{OutputPath: filename})
	}
	if !m.queue.UpdateStatus(id, queue.StatusCompleted, "") {
		return
	}
	item, ok := m.queue.Get(id)
	if !ok {
		return
	}
	elapsed := m.clock.Now().Sub(started)
	m.metrics.ObserveResult(metrics.ResultCompleted, elapsed)
	logger.Info("download completed",
		logging.String(logging.FieldEventType, "download_complete"),
		logging.String("title", item.DisplayTitle),
		logging.String("output_path", item.OutputPath),
		logging.Duration("elapsed", elapsed),
	)

	m.mu.Lock()
	m.run.completed++
	copy := item
	m.lastItem = &copy
	m.mu.Unlock()

	m.record(ctx, logger, item)
	m.emitItemComplete(item, true)
	m.notifyItemCompleted(item)
}

func (m *Manager) fail(ctx context.Context, logger *slog.Logger, id string, cause error, message string, attempts int, started time.Time) {
	if message == "" {
		message = "unknown error"
	}
	if !m.queue.UpdateStatus(id, queue.StatusError, message) {
		return
	}
	item, ok := m.queue.Get(id)
	if !ok {
		return
	}
	m.metrics.ObserveResult(metrics.ResultFailed, m.clock.Now().Sub(started))
	logging.ErrorWithContext(logger, "download failed", "download_failed",
		logging.Error(cause),
		logging.Int("attempts", attempts),
		logging.Bool("terminal", m.policy.IsTerminal(cause)),
		logging.String(logging.FieldErrorHint, "retry the item once the cause is fixed"),
		logging.Alert("download_failure"),
	)

	m.mu.Lock()
	m.run.failed++
	m.lastErr = cause
	copy := item
	m.lastItem = &copy
	m.mu.Unlock()

	m.record(ctx, logger, item)
	m.emitItemComplete(item, false)
	m.notifyItemFailed(item, cause)
}

// abandon handles cancellation. A stop returns the item to queued without
// spending an attempt; a per-item cancel marks it cancelled.
func (m *Manager) abandon(ctx context.Context, t *task, logger *slog.Logger, item queue.Item, started time.Time) {
	m.mu.Lock()
	userCancelled := t.userCancelled
	m.mu.Unlock()

	elapsed := m.clock.Now().Sub(started)
	if userCancelled {
		if !m.queue.Contains(item.ID) {
			logger.Info("download dropped with its removed item", logging.String(logging.FieldEventType, "download_dropped"))
			return
		}
		if m.queue.UpdateStatus(item.ID, queue.StatusCancelled, "") {
			logger.Info("download cancelled", logging.String(logging.FieldEventType, "download_cancelled"))
			if final, ok := m.queue.Get(item.ID); ok {
				m.emitItemComplete(final, false)
			}
		}
		m.metrics.ObserveResult(metrics.ResultFailed, elapsed)
		return
	}
	if m.queue.Requeue(item.ID) {
		logger.Info("download interrupted; item requeued",
			logging.String(logging.FieldEventType, "download_requeued"),
		)
	}
	m.metrics.ObserveResult(metrics.ResultRequeued, elapsed)
}

func (m *Manager) record(ctx context.Context, logger *slog.Logger, item queue.Item) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.Record(context.WithoutCancel(ctx), item); err != nil {
		logging.WarnWithContext(logger, "history write failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database path and permissions"),
			logging.String(logging.FieldImpact, "item missing from download history"),
		)
	}
}

// progressSink adapts engine snapshots for one attempt. The engine is the
// only producer, but it may call from its own goroutine.
type progressSink struct {
	m       *Manager
	itemID  string
	title   string
	logger  *slog.Logger
	sampler *logging.ProgressSampler

	mu        sync.Mutex
	file      string
	lastBytes int64
	post      bool
}

func newProgressSink(m *Manager, item queue.Item, logger *slog.Logger) *progressSink {
	return &progressSink{
		m:       m,
		itemID:  item.ID,
		title:   item.DisplayTitle,
		logger:  logger,
		sampler: logging.NewProgressSampler(10),
	}
}

func (s *progressSink) accept(ev engine.ProgressEvent) {
	if err := ev.Validate(); err != nil {
		s.logger.Debug("dropping invalid progress event", logging.Error(err))
		return
	}

	s.mu.Lock()
	if ev.Filename != "" {
		s.file = ev.Filename
	}
	delta := ev.DownloadedBytes - s.lastBytes
	if ev.DownloadedBytes < s.lastBytes {
		// A new fragment or format restarts the byte counter.
		delta = ev.DownloadedBytes
	}
	s.lastBytes = ev.DownloadedBytes
	enterPost := ev.Phase == engine.PhasePostProcessing && !s.post
	if enterPost {
		s.post = true
	}
	percent := ev.Percent()
	logIt := s.sampler.ShouldLog(percent, string(ev.Phase))
	s.mu.Unlock()

	if enterPost {
		s.m.queue.UpdateStatus(s.itemID, queue.StatusPostProcessing, "")
	}
	s.m.queue.UpdateProgress(s.itemID, percent, ev.SpeedBytesPerSec, ev.EtaSeconds)
	if delta > 0 {
		s.m.metrics.AddBytes(delta)
	}
	s.m.emitProgress(Progress{
		ItemID:           s.itemID,
		Title:            s.title,
		Phase:            ev.Phase,
		Percent:          percent,
		DownloadedBytes:  ev.DownloadedBytes,
		TotalBytes:       ev.TotalBytes,
		SpeedBytesPerSec: ev.SpeedBytesPerSec,
		EtaSeconds:       ev.EtaSeconds,
		Filename:         ev.Filename,
	})
	if logIt {
		s.logger.Debug("download progress",
			logging.String("phase", string(ev.Phase)),
			logging.Float64("percent", percent),
			logging.Float64("speed_bps", ev.SpeedBytesPerSec),
			logging.Int("eta_seconds", ev.EtaSeconds),
		)
	}
}

func (s *progressSink) filename() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}
