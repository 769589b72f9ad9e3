package queue

// EventKind identifies a queue notification.
type EventKind int

const (
	EventItemAdded EventKind = iota + 1
	EventItemUpdated
	EventItemRemoved
	EventQueueCleared
)

func (k EventKind) String() string {
	switch k {
	case EventItemAdded:
		return "item_added"
	case EventItemUpdated:
		return "item_updated"
	case EventItemRemoved:
		return "item_removed"
	case EventQueueCleared:
		return "queue_cleared"
	default:
		return "unknown"
	}
}

// Event is a snapshot delivered to subscribers.
type Event struct {
	Kind  EventKind
	Item  Item
	Items []Item
}

// Handlers receives queue events. Nil fields are skipped. Handlers run on the
// queue's event goroutine, never on the goroutine that mutated the queue.
type Handlers struct {
	ItemAdded    func(Item)
	ItemUpdated  func(Item)
	ItemRemoved  func(Item)
	QueueCleared func([]Item)
}

// Subscribe registers handlers and returns a function that removes them.
func (q *Queue) Subscribe(h Handlers) (unsubscribe func()) {
	q.mu.Lock()
	id := q.nextSub
	q.nextSub++
	q.handlers[id] = h
	q.mu.Unlock()

	return func() {
		q.mu.Lock()
		delete(q.handlers, id)
		q.mu.Unlock()
	}
}

// emitLocked hands the event to the dispatcher once per current subscriber.
// Submission order under the lock is delivery order.
func (q *Queue) emitLocked(evt Event) {
	if len(q.handlers) == 0 {
		return
	}
	for i := 0; i < q.nextSub; i++ {
		h, ok := q.handlers[i]
		if !ok {
			continue
		}
		q.events.Submit(func() { deliver(h, evt) })
	}
}

func deliver(h Handlers, evt Event) {
	switch evt.Kind {
	case EventItemAdded:
		if h.ItemAdded != nil {
			h.ItemAdded(evt.Item)
		}
	case EventItemUpdated:
		if h.ItemUpdated != nil {
			h.ItemUpdated(evt.Item)
		}
	case EventItemRemoved:
		if h.ItemRemoved != nil {
			h.ItemRemoved(evt.Item)
		}
	case EventQueueCleared:
		if h.QueueCleared != nil {
			h.QueueCleared(evt.Items)
		}
	}
}
