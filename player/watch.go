package player

import (
	"sort"
	"sync"
	"time"
)

// Watchers holds one-shot callbacks keyed by trigger position.
// Engines call Fire from their position updates; each watcher runs at most once.
type Watchers struct {
	mu    sync.Mutex
	next  int
	items map[int]watcher
}

type watcher struct {
	at time.Duration
	fn func()
}

// Add registers fn to run once the position reaches at.
func (w *Watchers) Add(at time.Duration, fn func()) (cancel func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.items == nil {
		w.items = make(map[int]watcher)
	}
	id := w.next
	w.next++
	w.items[id] = watcher{at: at, fn: fn}

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.items, id)
	}
}

// Fire runs and removes every watcher whose trigger is at or before position,
// earliest trigger first. Callbacks run outside the lock.
func (w *Watchers) Fire(position time.Duration) {
	w.mu.Lock()
	var due []watcher
	for id, it := range w.items {
		if it.at <= position {
			due = append(due, it)
			delete(w.items, id)
		}
	}
	w.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, it := range due {
		it.fn()
	}
}

// Len returns the number of pending watchers.
func (w *Watchers) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

// Clear drops every pending watcher without running it.
func (w *Watchers) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = nil
}
