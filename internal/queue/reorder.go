package queue

// Reorder moves an item to newIndex (0-based, clamped to the queue bounds).
// Only queue order changes; status is untouched.
func (q *Queue) Reorder(id string, newIndex int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.reorderLocked(id, newIndex)
}

// MoveToTop moves an item to the front of the queue.
func (q *Queue) MoveToTop(id string) bool {
	return q.Reorder(id, 0)
}

// MoveToBottom moves an item to the end of the queue.
func (q *Queue) MoveToBottom(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.reorderLocked(id, len(q.order))
}

// MoveUp swaps an item with its predecessor.
func (q *Queue) MoveUp(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := q.indexLocked(id)
	if idx <= 0 {
		return false
	}
	return q.reorderLocked(id, idx-1)
}

// MoveDown swaps an item with its successor.
func (q *Queue) MoveDown(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := q.indexLocked(id)
	if idx < 0 || idx >= len(q.order)-1 {
		return false
	}
	return q.reorderLocked(id, idx+1)
}

func (q *Queue) reorderLocked(id string, newIndex int) bool {
	current := q.indexLocked(id)
	if current < 0 {
		return false
	}
	q.order = append(q.order[:current], q.order[current+1:]...)
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(q.order) {
		newIndex = len(q.order)
	}
	q.order = append(q.order, "")
	copy(q.order[newIndex+1:], q.order[newIndex:])
	q.order[newIndex] = id
	return true
}
