package trigger

import (
	"sync"
	"sync/atomic"

	hook "github.com/robotn/gohook"
)

// DefaultKeycode is the raw F13 keycode on macOS, a key with no system
// binding that works well for push-to-talk.
const DefaultKeycode uint16 = 105

// KeySource tracks a single global key through the gohook event tap and
// exposes its held state as a StateFunc for a Monitor.
type KeySource struct {
	rawcode uint16
	down    atomic.Bool

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewKeySource creates a source for the given raw keycode.
func NewKeySource(rawcode uint16) *KeySource {
	return &KeySource{rawcode: rawcode}
}

// State is the StateFunc for a Monitor.
func (k *KeySource) State() bool {
	return k.down.Load()
}

// Start begins consuming global key events. Requires accessibility
// permission on macOS.
func (k *KeySource) Start() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.running {
		return
	}
	k.running = true
	k.done = make(chan struct{})

	events := hook.Start()
	go k.consume(events)
}

// Stop ends the event tap.
func (k *KeySource) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.running {
		return
	}
	k.running = false
	hook.End()
	<-k.done
	k.down.Store(false)
}

func (k *KeySource) consume(events chan hook.Event) {
	defer close(k.done)

	for ev := range events {
		if ev.Rawcode != k.rawcode {
			continue
		}
		switch ev.Kind {
		case hook.KeyDown, hook.KeyHold:
			k.down.Store(true)
		case hook.KeyUp:
			k.down.Store(false)
		}
	}
}
