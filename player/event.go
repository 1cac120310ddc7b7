package player

import (
	"fmt"
	"sync"
	"time"
)

// State is the engine-level readiness reported with StateChanged events.
type State int

const (
	StateIdle State = iota
	StateBuffering
	StateReady
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	case StateReady:
		return "ready"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EventKind discriminates engine events.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventPositionDiscontinuity
	EventFatalError
)

// Event is a single engine notification.
type Event struct {
	Kind EventKind

	// Set for EventStateChanged.
	State         State
	PlayWhenReady bool
	IsPlaying     bool

	// Set for EventPositionDiscontinuity.
	Position time.Duration

	// Set for EventFatalError.
	Err error
}

// Listener receives engine events on the engine's own goroutine.
type Listener func(Event)

// listeners is the subscription registry shared by engine implementations.
type listeners struct {
	mu   sync.Mutex
	next int
	set  map[int]Listener
}

func (l *listeners) add(fn Listener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.set == nil {
		l.set = make(map[int]Listener)
	}
	id := l.next
	l.next++
	l.set[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.set, id)
	}
}

func (l *listeners) emit(ev Event) {
	l.mu.Lock()
	fns := make([]Listener, 0, len(l.set))
	for _, fn := range l.set {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (l *listeners) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.set = nil
}
