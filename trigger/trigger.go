// Package trigger turns a raw "is the push-to-talk key down" boolean into
// press/release edge events.
//
// The edge detector is an explicit two-state machine polled by a cancellable
// periodic task: each tick compares the current key state against the last
// known one and emits an edge on every flip.
package trigger

import (
	"context"
	"sync"
	"time"
)

// Edge is a detected transition of the trigger state.
type Edge int

const (
	// EdgePress marks the not-requesting -> requesting transition.
	EdgePress Edge = iota
	// EdgeRelease marks the requesting -> not-requesting transition.
	EdgeRelease
)

func (e Edge) String() string {
	if e == EdgePress {
		return "press"
	}
	return "release"
}

// StateFunc reports whether the trigger is currently requesting (key held,
// UI control pressed).
type StateFunc func() bool

// pollInterval gives roughly 60 polls per second.
const pollInterval = 16 * time.Millisecond

// Monitor polls a StateFunc and synthesizes edge events.
type Monitor struct {
	state    StateFunc
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	edges  chan Edge
}

// NewMonitor creates a monitor over the given state source.
func NewMonitor(state StateFunc) *Monitor {
	return &Monitor{
		state:    state,
		interval: pollInterval,
		edges:    make(chan Edge, 8),
	}
}

// Edges returns the edge event stream.
func (m *Monitor) Edges() <-chan Edge {
	return m.edges
}

// Start begins polling. A second Start without Stop is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.run(ctx)
}

// Stop cancels the polling task. The edge channel stays open so a restart
// reuses it.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	lastKnown := m.state()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := m.state()
			if now == lastKnown {
				continue
			}
			lastKnown = now

			edge := EdgeRelease
			if now {
				edge = EdgePress
			}
			// Drop the edge when the consumer lags behind.
			select {
			case m.edges <- edge:
			default:
			}
		}
	}
}
