package queue

// Stats summarizes queue contents.
type Stats struct {
	Total          int
	ByStatus       map[Status]int
	TotalBytes     int64
	CompletedBytes int64
}

// Count returns the number of items in status.
func (s Stats) Count(status Status) int {
	return s.ByStatus[status]
}

// Statistics returns counts per status and byte totals from size estimates.
func (q *Queue) Statistics() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := Stats{
		Total:    len(q.order),
		ByStatus: make(map[Status]int, len(allStatuses)),
	}
	for _, id := range q.order {
		item := q.items[id]
		stats.ByStatus[item.Status]++
		if item.EstimatedSizeBytes > 0 {
			stats.TotalBytes += item.EstimatedSizeBytes
			if item.Status == StatusCompleted {
				stats.CompletedBytes += item.EstimatedSizeBytes
			}
		}
	}
	return stats
}
