package workflow

import (
	"slices"

	"tubeq/internal/queue"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	State         State
	MaxConcurrent int
	Active        []string
	LastError     string
	LastItem      *queue.Item
	QueueStats    queue.Stats
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	m.mu.Lock()
	summary := StatusSummary{
		State:         m.state,
		MaxConcurrent: m.maxConcurrent,
		Active:        make([]string, 0, len(m.active)),
	}
	for id := range m.active {
		summary.Active = append(summary.Active, id)
	}
	slices.Sort(summary.Active)
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastItem != nil {
		copy := *m.lastItem
		summary.LastItem = &copy
	}
	m.mu.Unlock()

	summary.QueueStats = m.queue.Statistics()
	return summary
}
