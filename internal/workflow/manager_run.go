package workflow

import (
	"context"
	"errors"
	"time"

	"tubeq/internal/logging"
	"tubeq/internal/queue"
)

var (
	// ErrAlreadyRunning is returned by Start when the manager is not idle.
	ErrAlreadyRunning = errors.New("workflow already running")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("workflow closed")
	// ErrNoEngine is returned by Start when the manager has no engine.
	ErrNoEngine = errors.New("no download engine configured")
)

// Start launches the dispatch loop. ctx bounds the whole run; cancelling it
// behaves like Stop without waiting.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state != StateIdle {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	if m.engine == nil {
		m.mu.Unlock()
		return ErrNoEngine
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.runDone = make(chan struct{})
	m.run = runStats{}
	m.lastErr = nil
	m.gate.Open()
	m.setStateLocked(StateRunning)
	done := m.runDone
	m.mu.Unlock()

	m.logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.Int("max_concurrent", m.MaxConcurrent()),
		logging.Bool("keep_alive", m.keepAlive),
	)
	go m.supervise(runCtx, done)
	return nil
}

// Pause closes the run gate. No new item is claimed until Resume; running
// tasks block before their next attempt. It returns false unless running.
func (m *Manager) Pause() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRunning {
		return false
	}
	m.gate.Close()
	m.setStateLocked(StatePaused)
	m.logger.Info("workflow paused", logging.String(logging.FieldEventType, "workflow_pause"))
	return true
}

// Resume reopens the run gate. It returns false unless paused.
func (m *Manager) Resume() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePaused {
		return false
	}
	m.gate.Open()
	m.setStateLocked(StateRunning)
	m.logger.Info("workflow resumed", logging.String(logging.FieldEventType, "workflow_resume"))
	return true
}

// Stop cancels the run and waits for every task to exit. Unfinished items
// return to queued. Stop is idempotent and safe to call concurrently.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.state == StateIdle {
		m.mu.Unlock()
		return
	}
	done := m.runDone
	if m.state != StateStopping {
		m.setStateLocked(StateStopping)
		m.gate.Open()
		m.cancel()
		m.logger.Info("workflow stopping",
			logging.String(logging.FieldEventType, "workflow_stop"),
			logging.Int("active", len(m.active)),
		)
	}
	m.mu.Unlock()
	<-done
}

// Wait blocks until the current run ends or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	done := m.runDone
	idle := m.state == StateIdle
	m.mu.Unlock()
	if idle || done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// supervise runs the dispatch loop, drains the pool, and returns the
// manager to idle.
func (m *Manager) supervise(ctx context.Context, done chan struct{}) {
	drained := m.dispatchLoop(ctx)
	m.wg.Wait()

	m.mu.Lock()
	cancelled := ctx.Err() != nil
	m.cancel()
	m.cancel = nil
	m.gate.Close()
	if drained && !cancelled {
		m.finishRunLocked(true)
	}
	m.setStateLocked(StateIdle)
	close(done)
	m.mu.Unlock()

	m.refreshQueueMetrics()
	m.logger.Info("workflow stopped",
		logging.String(logging.FieldEventType, "workflow_idle"),
		logging.Bool("cancelled", cancelled),
	)
}

// dispatchLoop claims queued items while capacity allows. It returns true
// when it exited because the queue drained.
func (m *Manager) dispatchLoop(ctx context.Context) bool {
	var idle *time.Timer
	defer func() {
		if idle != nil {
			idle.Stop()
		}
	}()

	for {
		if err := m.gate.Wait(ctx); err != nil {
			return false
		}
		if ctx.Err() != nil {
			return false
		}
		changed := m.queue.Changed()

		if m.tryDispatch(ctx) {
			continue
		}

		m.mu.Lock()
		activeCount := len(m.active)
		m.mu.Unlock()
		if activeCount == 0 {
			if _, queued := m.queue.NextQueued(); !queued {
				if !m.keepAlive {
					return true
				}
				m.mu.Lock()
				if m.state == StateRunning {
					m.finishRunLocked(false)
				}
				m.mu.Unlock()
			}
		}

		if idle == nil {
			idle = time.NewTimer(m.pollInterval)
		} else {
			idle.Reset(m.pollInterval)
		}
		select {
		case <-ctx.Done():
			return false
		case <-m.wake:
		case <-changed:
		case <-idle.C:
		}
		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
	}
}

// tryDispatch claims and starts at most one item. It reports whether an
// item was started.
func (m *Manager) tryDispatch(ctx context.Context) bool {
	m.mu.Lock()
	full := len(m.active) >= m.maxConcurrent
	m.mu.Unlock()
	if full {
		return false
	}

	next, ok := m.queue.NextQueued()
	if !ok {
		return false
	}

	claimAs := queue.StatusDownloading
	if m.extractMetadata {
		claimAs = queue.StatusExtracting
	}

	m.mu.Lock()
	if m.state != StateRunning || ctx.Err() != nil || len(m.active) >= m.maxConcurrent {
		m.mu.Unlock()
		return false
	}
	item, claimed := m.queue.Claim(next.ID, claimAs)
	if !claimed {
		m.mu.Unlock()
		// Lost a race with a producer; look again right away.
		return true
	}
	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{itemID: item.ID, cancel: cancel}
	m.active[item.ID] = t
	activeCount := len(m.active)
	if !m.run.busy {
		m.run = runStats{busy: true, started: m.clock.Now()}
	}
	m.wg.Add(1)
	m.mu.Unlock()

	m.metrics.SetActive(activeCount)
	m.refreshQueueMetrics()
	m.logger.Debug("item dispatched",
		logging.String(logging.FieldItemID, item.ID),
		logging.String("source_url", item.SourceURL),
		logging.Int("active", activeCount),
	)
	go m.runTask(taskCtx, t, item)
	return true
}

// releaseTask frees the worker slot held by t.
func (m *Manager) releaseTask(t *task) {
	m.mu.Lock()
	delete(m.active, t.itemID)
	activeCount := len(m.active)
	m.mu.Unlock()

	t.cancel()
	m.metrics.SetActive(activeCount)
	m.refreshQueueMetrics()
	m.signal()
	m.wg.Done()
}

func (m *Manager) setStateLocked(state State) {
	if m.state == state {
		return
	}
	m.state = state
	m.emitStateLocked(state)
}

func (m *Manager) refreshQueueMetrics() {
	if m.metrics == nil {
		return
	}
	m.metrics.SetQueueStats(m.queue.Statistics())
}
