package dispatch

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"tubeq/internal/logging"
)

// Dispatcher executes submitted functions sequentially on a dedicated goroutine.
type Dispatcher struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending []func()
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

// New starts a dispatcher. The name is attached to panic logs.
func New(logger *slog.Logger, name string) *Dispatcher {
	d := &Dispatcher{
		logger: logging.NewComponentLogger(logger, name),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Submit enqueues fn. It returns false once the dispatcher is closed.
func (d *Dispatcher) Submit(fn func()) bool {
	if d == nil || fn == nil {
		return false
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.pending = append(d.pending, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// Flush blocks until every function submitted before the call has run.
func (d *Dispatcher) Flush() {
	if d == nil {
		return
	}
	marker := make(chan struct{})
	if !d.Submit(func() { close(marker) }) {
		<-d.done
		return
	}
	<-marker
}

// Close stops accepting work, drains what is pending, and waits for the
// goroutine to exit. Close is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		select {
		case d.wake <- struct{}{}:
		default:
		}
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		batch := d.pending
		d.pending = nil
		closed := d.closed
		d.mu.Unlock()

		for _, fn := range batch {
			d.invoke(fn)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-d.wake
	}
}

func (d *Dispatcher) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(d.logger, "callback panicked", "callback_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "fix the registered handler; dispatch continues"),
			)
		}
	}()
	fn()
}
