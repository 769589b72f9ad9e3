package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tubeq/internal/config"
	"tubeq/internal/dispatch"
	"tubeq/internal/engine"
	"tubeq/internal/logging"
	"tubeq/internal/metrics"
	"tubeq/internal/notifications"
	"tubeq/internal/queue"
	"tubeq/internal/retry"
)

// Recorder persists finished items. The history store implements it.
type Recorder interface {
	Record(ctx context.Context, item queue.Item) error
}

// Progress is delivered to Callbacks.OnProgress for every accepted engine
// progress snapshot.
type Progress struct {
	ItemID           string
	Title            string
	Phase            engine.Phase
	Percent          float64
	DownloadedBytes  int64
	TotalBytes       int64
	SpeedBytesPerSec float64
	EtaSeconds       int
	Filename         string
}

// Callbacks receive manager events on a dedicated goroutine. Nil fields are
// skipped; a panicking callback is logged and dispatch continues.
type Callbacks struct {
	OnProgress     func(Progress)
	OnItemComplete func(item queue.Item, success bool)
	OnStateChange  func(State)
	OnAllComplete  func()
}

// Manager coordinates download tasks for a queue.
type Manager struct {
	cfg      *config.Config
	queue    *queue.Queue
	engine   engine.Engine
	logger   *slog.Logger
	notifier notifications.Service
	recorder Recorder
	metrics  *metrics.Metrics
	options  *engine.OptionsBuilder
	policy   retry.Policy
	clock    retry.Clock

	retryDelay      time.Duration
	pollInterval    time.Duration
	extractMetadata bool
	keepAlive       bool

	callbacks Callbacks
	events    *dispatch.Dispatcher
	notices   *dispatch.Dispatcher
	unsub     func()

	gate *gate
	wake chan struct{}

	mu            sync.Mutex
	state         State
	maxConcurrent int
	active        map[string]*task
	cancel        context.CancelFunc
	runDone       chan struct{}
	wg            sync.WaitGroup
	lastErr       error
	lastItem      *queue.Item
	run           runStats
	closed        bool
}

// task tracks one claimed item. A retired task removed its own item and
// ignores the resulting removal event.
type task struct {
	itemID        string
	cancel        context.CancelFunc
	userCancelled bool
	retired       bool
}

// runStats covers the span between the queue becoming busy and draining.
type runStats struct {
	busy      bool
	started   time.Time
	completed int
	failed    int
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithMaxConcurrent sets the initial concurrency ceiling.
func WithMaxConcurrent(n int) Option {
	return func(m *Manager) { m.maxConcurrent = clampConcurrent(n) }
}

// WithRetryDelay sets the base backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.retryDelay = d
		}
	}
}

// WithPolicy replaces the retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(m *Manager) { m.policy = p }
}

// WithClock replaces the clock used for backoff sleeps and timing.
func WithClock(c retry.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithPollInterval sets the fallback wake-up interval of the dispatch loop.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// WithOptionsBuilder replaces the builder that derives engine options.
func WithOptionsBuilder(b *engine.OptionsBuilder) Option {
	return func(m *Manager) {
		if b != nil {
			m.options = b
		}
	}
}

// WithCallbacks registers event callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(m *Manager) { m.callbacks = cb }
}

// WithNotifier replaces the push notification service.
func WithNotifier(n notifications.Service) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithRecorder records every finished item.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithMetrics publishes worker and queue gauges.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithKeepAlive keeps the dispatch loop running after the queue drains so
// items added later are picked up without another Start.
func WithKeepAlive(enabled bool) Option {
	return func(m *Manager) { m.keepAlive = enabled }
}

// WithMetadataExtraction toggles the metadata step before each download.
func WithMetadataExtraction(enabled bool) Option {
	return func(m *Manager) { m.extractMetadata = enabled }
}

// NewManager constructs a manager in the idle state.
func NewManager(cfg *config.Config, q *queue.Queue, eng engine.Engine, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow")
	m := &Manager{
		cfg:             cfg,
		queue:           q,
		engine:          eng,
		logger:          logger,
		notifier:        notifications.NewService(cfg),
		options:         engine.NewOptionsBuilder(cfg),
		policy:          retry.Default,
		clock:           retry.RealClock{},
		retryDelay:      cfg.RetryDelay(),
		pollInterval:    cfg.PollInterval(),
		extractMetadata: cfg.Downloads.ExtractMetadata,
		maxConcurrent:   clampConcurrent(cfg.Downloads.MaxConcurrent),
		gate:            newGate(false),
		wake:            make(chan struct{}, 1),
		active:          make(map[string]*task),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.pollInterval <= 0 {
		m.pollInterval = 500 * time.Millisecond
	}
	m.events = dispatch.New(logger, "workflow-events")
	m.notices = dispatch.New(logger, "workflow-notify")
	m.unsub = q.Subscribe(queue.Handlers{
		ItemRemoved:  m.onItemRemoved,
		QueueCleared: m.onQueueCleared,
	})
	m.metrics.SetMaxConcurrent(m.maxConcurrent)
	return m
}

// Close stops the manager if needed and releases its dispatchers. The
// manager cannot be restarted afterwards.
func (m *Manager) Close() {
	m.Stop()
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.unsub()
	m.events.Close()
	m.notices.Close()
}

// Flush blocks until every callback and notification queued so far has run.
func (m *Manager) Flush() {
	m.events.Flush()
	m.notices.Flush()
}

// SetMaxConcurrent changes the concurrency ceiling. Running tasks are never
// preempted; a lower ceiling takes effect as tasks finish.
func (m *Manager) SetMaxConcurrent(n int) int {
	n = clampConcurrent(n)
	m.mu.Lock()
	prev := m.maxConcurrent
	m.maxConcurrent = n
	m.mu.Unlock()

	if prev != n {
		m.logger.Info("concurrency changed",
			logging.Int("previous", prev),
			logging.Int("max_concurrent", n),
		)
		m.metrics.SetMaxConcurrent(n)
		m.signal()
	}
	return n
}

// MaxConcurrent returns the current concurrency ceiling.
func (m *Manager) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxConcurrent
}

// State returns the current run state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ActiveCount returns how many tasks hold a worker slot.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// CancelItem stops the task working on id and marks the item cancelled.
// It returns false when no task holds the item.
func (m *Manager) CancelItem(id string) bool {
	m.mu.Lock()
	t, ok := m.active[id]
	if ok {
		t.userCancelled = true
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	t.cancel()
	return true
}

func (m *Manager) onItemRemoved(item queue.Item) {
	m.mu.Lock()
	t, ok := m.active[item.ID]
	retired := ok && t.retired
	m.mu.Unlock()
	if retired {
		return
	}
	if m.CancelItem(item.ID) {
		m.logger.Info("cancelled task for removed item",
			logging.String(logging.FieldItemID, item.ID),
			logging.String(logging.FieldEventType, "task_cancelled"),
		)
	}
}

func (m *Manager) onQueueCleared(items []queue.Item) {
	for _, item := range items {
		m.onItemRemoved(item)
	}
}

// signal nudges the dispatch loop without blocking.
func (m *Manager) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func clampConcurrent(n int) int {
	if n < config.MinConcurrent {
		return config.MinConcurrent
	}
	if n > config.MaxConcurrent {
		return config.MaxConcurrent
	}
	return n
}
