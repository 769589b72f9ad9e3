package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tubeq/internal/logging"
	"tubeq/internal/notifications"
	"tubeq/internal/queue"
)

const defaultNotifyTimeout = 10 * time.Second

// emitStateLocked queues a state callback. Submitting under m.mu keeps
// callbacks in transition order.
func (m *Manager) emitStateLocked(state State) {
	if cb := m.callbacks.OnStateChange; cb != nil {
		m.events.Submit(func() { cb(state) })
	}
}

func (m *Manager) emitProgress(p Progress) {
	if cb := m.callbacks.OnProgress; cb != nil {
		m.events.Submit(func() { cb(p) })
	}
}

func (m *Manager) emitItemComplete(item queue.Item, success bool) {
	if cb := m.callbacks.OnItemComplete; cb != nil {
		m.events.Submit(func() { cb(item, success) })
	}
}

// finishRunLocked closes out a busy period and fires OnAllComplete. With
// always unset, a run that dispatched nothing stays silent.
func (m *Manager) finishRunLocked(always bool) {
	run := m.run
	m.run = runStats{}
	if !run.busy && !always {
		return
	}
	if cb := m.callbacks.OnAllComplete; cb != nil {
		m.events.Submit(cb)
	}
	if !run.busy {
		return
	}
	duration := m.clock.Now().Sub(run.started)
	m.logger.Info("queue drained",
		logging.String(logging.FieldEventType, "queue_drained"),
		logging.Int("completed", run.completed),
		logging.Int("failed", run.failed),
		logging.Duration("duration", duration),
	)
	m.publish(notifications.EventQueueCompleted, notifications.Payload{
		"completed": run.completed,
		"failed":    run.failed,
		"duration":  duration,
	})
}

func (m *Manager) notifyItemCompleted(item queue.Item) {
	m.publish(notifications.EventItemCompleted, notifications.Payload{
		"title":     item.DisplayTitle,
		"sizeBytes": item.EstimatedSizeBytes,
		"file":      item.OutputPath,
	})
}

func (m *Manager) notifyItemFailed(item queue.Item, cause error) {
	m.publish(notifications.EventError, notifications.Payload{
		"error":   cause,
		"context": fmt.Sprintf("%s (item %s)", item.DisplayTitle, item.ID),
	})
}

// publish sends a push on the notification dispatcher so slow endpoints
// never hold a worker slot.
func (m *Manager) publish(event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	notifier := m.notifier
	logger := m.logger
	timeout := m.cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	m.notices.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := notifier.Publish(ctx, event, payload); err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Debug("notification cancelled", logging.String("event", string(event)))
				return
			}
			logging.WarnWithContext(logger, "notification failed", "notification_failed",
				logging.String("event", string(event)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
				logging.String(logging.FieldImpact, "push notification not delivered"),
			)
		}
	})
}
