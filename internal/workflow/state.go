package workflow

import (
	"context"
	"sync"
)

// State is the manager's run state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// gate blocks callers while closed. The zero value is closed.
type gate struct {
	mu     sync.Mutex
	isOpen bool
	ch     chan struct{}
}

func newGate(open bool) *gate {
	g := &gate{ch: make(chan struct{})}
	if open {
		g.Open()
	}
	return g
}

// Open releases every waiter. Opening an open gate is a no-op.
func (g *gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ch == nil {
		g.ch = make(chan struct{})
	}
	if !g.isOpen {
		close(g.ch)
		g.isOpen = true
	}
}

// Close makes subsequent Wait calls block until the next Open.
func (g *gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.isOpen || g.ch == nil {
		g.ch = make(chan struct{})
		g.isOpen = false
	}
}

// IsOpen reports whether Wait would return immediately.
func (g *gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isOpen
}

// Wait blocks until the gate opens or ctx is done.
func (g *gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	if g.ch == nil {
		g.ch = make(chan struct{})
	}
	ch := g.ch
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
